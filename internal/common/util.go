package common

import "strings"

// AllowedAvatarExtensions lists the lower-case file extensions accepted for
// avatar uploads.
var AllowedAvatarExtensions = []string{"jpg", "jpeg", "png", "gif"}

// FileExtension returns the lower-cased text after the last dot of name, or
// an empty string when name has no dot.
func FileExtension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// IsAllowedAvatarExtension reports whether ext is in AllowedAvatarExtensions.
func IsAllowedAvatarExtension(ext string) bool {
	for _, e := range AllowedAvatarExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
