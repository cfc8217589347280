package validate

import (
	"errors"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Upload size limits.
const (
	MinFileSize = 1024              // 1KB
	MaxFileSize = 500 * 1024 * 1024 // 500MB
)

// allowedExtensions is the fixed set of accepted media containers.
var allowedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
	".webm": true,
}

var (
	ErrEmptyFilename    = errors.New("missing or overlong filename")
	ErrInvalidExtension = errors.New("unsupported file extension")
	ErrPathTraversal    = errors.New("filename contains path characters")
	ErrTooSmall         = errors.New("file too small")
	ErrTooLarge         = errors.New("file too large (max 500MB)")
)

// Check validates an upload's filename and size. It performs no I/O.
func Check(filename string, size int64) error {
	if filename == "" || utf8.RuneCountInString(filename) > 255 {
		return ErrEmptyFilename
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, `/\`) {
		return ErrPathTraversal
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return ErrInvalidExtension
	}
	if size < MinFileSize {
		return ErrTooSmall
	}
	if size > MaxFileSize {
		return ErrTooLarge
	}
	return nil
}

// Sanitize maps every character outside [A-Za-z0-9._-] to underscore and
// truncates the result to 200 characters.
func Sanitize(filename string) string {
	var b strings.Builder
	b.Grow(len(filename))
	for _, c := range filename {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '.', c == '_', c == '-':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	s := b.String()
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
