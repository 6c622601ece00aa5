package common

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileExtension(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "x.png", "png"},
		{"upper case", "Photo.JPG", "jpg"},
		{"multiple dots", "archive.tar.gif", "gif"},
		{"no dot", "avatar", ""},
		{"trailing dot", "avatar.", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileExtension(tt.in); got != tt.want {
				t.Fatalf("FileExtension(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsAllowedAvatarExtension(t *testing.T) {
	for _, ext := range []string{"jpg", "jpeg", "png", "gif"} {
		if !IsAllowedAvatarExtension(ext) {
			t.Fatalf("expected %q to be allowed", ext)
		}
	}
	for _, ext := range []string{"exe", "", "PNG", "svg"} {
		if IsAllowedAvatarExtension(ext) {
			t.Fatalf("expected %q to be rejected", ext)
		}
	}
}

func TestWithDetail(t *testing.T) {
	err := WithDetail(ErrorNotFound, "Avatar not found for the user")
	wrapped := fmt.Errorf("get avatar: %w", err)

	assert.ErrorIs(t, wrapped, ErrorNotFound)
	var de *DetailError
	if assert.ErrorAs(t, wrapped, &de) {
		assert.Equal(t, "Avatar not found for the user", de.Detail)
	}
	assert.Equal(t, "not found: Avatar not found for the user", err.Error())
}
