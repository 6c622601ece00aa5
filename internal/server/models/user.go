// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. AvatarPath is the storage key of the current
// avatar and is empty until the first upload.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	AvatarPath   string
	CreatedAt    time.Time
}
