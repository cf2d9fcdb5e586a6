package api

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// filenamePattern allows only alphanumerics, dash, underscore and dot.
var filenamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidFilename reports whether a filename is safe to pass upstream. This
// is the sole defense against path traversal, so every file-scoped handler
// must call it before constructing a client.
func ValidFilename(name string) bool {
	err := validation.Validate(name,
		validation.Required,
		validation.Length(1, 255),
		validation.Match(filenamePattern),
		validation.By(noPathTraversal),
		validation.By(noHiddenFile),
	)
	return err == nil
}

func noPathTraversal(value interface{}) error {
	name, _ := value.(string)
	if strings.Contains(name, "/") ||
		strings.Contains(name, `\`) ||
		strings.Contains(name, "..") {
		return errors.New("must not contain path separators or '..'")
	}
	return nil
}

func noHiddenFile(value interface{}) error {
	name, _ := value.(string)
	if strings.HasPrefix(name, ".") {
		return errors.New("must not start with '.'")
	}
	return nil
}
