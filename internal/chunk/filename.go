package chunk

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxFilenameLength bounds the sanitized name, suffix and extension included.
	MaxFilenameLength = 63
	maxExtLength      = 16
	suffixLength      = 32 // hex of a 128-bit random UUID
)

// Sanitize turns a client-supplied filename into a unique, path-safe name:
// <stem>_<32 hex><ext>, at most MaxFilenameLength bytes. The stem keeps only
// [a-z0-9_-]; everything else becomes "_". Two calls never return the same name.
func Sanitize(original string) string {
	stem, ext := splitExt(original)

	var b strings.Builder
	b.Grow(len(stem))
	for i := 0; i < len(stem); i++ {
		c := stem[i]
		if isSafe(c) {
			b.WriteByte(lower(c))
		} else {
			b.WriteByte('_')
		}
	}
	name := b.String()

	if limit := MaxFilenameLength - suffixLength - len(ext) - 1; len(name) > limit {
		name = name[:limit]
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return name + "_" + suffix + ext
}

// splitExt separates the extension the way filepath.Ext does, keeping only a
// short alphanumeric extension. Anything else stays part of the stem.
func splitExt(original string) (string, string) {
	ext := filepath.Ext(original)
	if ext == "" || len(ext) == len(original) {
		return original, ""
	}
	// dotfiles like ".env" and the separator itself are not extensions
	if i := len(original) - len(ext); original[i-1] == '/' || original[i-1] == '\\' {
		return original, ""
	}
	body := ext[1:]
	if body == "" || len(ext) > maxExtLength {
		return original, ""
	}
	for i := 0; i < len(body); i++ {
		if !isAlnum(body[i]) {
			return original, ""
		}
	}
	return original[:len(original)-len(ext)], ext
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSafe(c byte) bool {
	return isAlnum(c) || c == '_' || c == '-'
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
