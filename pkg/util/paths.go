package util

import (
	"path/filepath"
	"strings"
)

// SafeFilePath cleans a relative path and rejects absolute paths and paths
// escaping the working directory.
func SafeFilePath(p string) (string, bool) {
	return safePath(p, false)
}

// SafeFilePathAllowAbsolute is like SafeFilePath but accepts absolute paths.
func SafeFilePathAllowAbsolute(p string) (string, bool) {
	return safePath(p, true)
}

func safePath(p string, allowAbsolute bool) (string, bool) {
	if p == "" {
		return "", false
	}

	// Backslash separated segments are not cleaned on unix.
	if strings.Contains(p, `\`) {
		for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '\\' || r == '/' }) {
			if seg == ".." {
				return "", false
			}
		}
	}

	cleaned := filepath.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	if filepath.IsAbs(cleaned) && !allowAbsolute {
		return "", false
	}
	return cleaned, true
}
