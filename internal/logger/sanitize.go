package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength is the maximum length for URL paths in logs
	MaxPathLength = 500
	// MaxUserIDLength is the maximum length for user IDs in logs
	MaxUserIDLength = 128
	// MaxErrorMessageLength is the maximum length for error messages in logs
	MaxErrorMessageLength = 1000
	// MaxGeneralStringLength is the default limit for SanitizeString
	MaxGeneralStringLength = 2000
	// MaxTargets caps how many targets SanitizeTargets keeps
	MaxTargets = 16
)

// SanitizeString strips control characters (including newlines, which would
// let a caller forge log lines), repairs invalid UTF-8 and truncates to
// maxLength bytes without splitting a rune. maxLength <= 0 means
// MaxGeneralStringLength.
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	var b strings.Builder
	b.Grow(min(len(s), maxLength))
	for _, r := range s {
		if !unicode.IsPrint(r) && r != ' ' && r != '\t' {
			continue
		}
		if b.Len()+utf8.RuneLen(r) > maxLength {
			b.WriteString("...")
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SanitizePath sanitizes a URL path for logging
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeError sanitizes an error message for logging
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeUserID sanitizes a user ID for logging
func SanitizeUserID(userID string) string {
	return SanitizeString(userID, MaxUserIDLength)
}

// SanitizeTargets sanitizes caller-supplied target names, keeping at most MaxTargets
func SanitizeTargets(targets []string) []string {
	n := min(len(targets), MaxTargets)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = SanitizeString(targets[i], 64)
	}
	return out
}
