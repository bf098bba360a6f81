package util

import (
	"errors"
	"strings"
	"unicode"
)

const maxDisplayNameLen = 200

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// SanitizeDisplayName strips control characters, caps the length at 200
// runes and trims whitespace. Returns "" when nothing printable remains.
func SanitizeDisplayName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	s := b.String()
	if runes := []rune(s); len(runes) > maxDisplayNameLen {
		s = string(runes[:maxDisplayNameLen])
	}
	return strings.TrimSpace(s)
}
