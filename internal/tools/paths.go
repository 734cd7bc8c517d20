package tools

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PathError reports a file path rejected before reaching the engine.
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid file path %q: %s", e.Path, e.Reason)
}

// ValidatePath accepts absolute paths without parent directory segments.
func ValidatePath(path string) error {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return &PathError{Path: path, Reason: "path is empty"}
	}
	if !filepath.IsAbs(trimmed) {
		return &PathError{Path: path, Reason: "file path must be absolute"}
	}
	for _, segment := range strings.FieldsFunc(trimmed, isSeparator) {
		if segment == ".." {
			return &PathError{Path: path, Reason: "path traversal not allowed"}
		}
	}
	return nil
}

func isSeparator(r rune) bool {
	return r == '/' || r == filepath.Separator
}
