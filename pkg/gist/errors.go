package gist

import (
	"errors"
	"fmt"
)

// Sentinel errors for upstream and file-level failures. Handlers map these
// to HTTP statuses with errors.Is — the caller-facing message is the error
// text itself, never the raw upstream body.
var (
	ErrFileNotFound       = errors.New("File not found")
	ErrFileAlreadyExists  = errors.New("File already exists")
	ErrContentFetchFailed = errors.New("Failed to fetch file content")
	ErrGistNotFound       = errors.New("Gist not found")
	ErrUpstreamAuth       = errors.New("GitHub authentication failed")
	ErrRateLimited        = errors.New("GitHub API rate limit exceeded")
)

// UpstreamError is a non-success GitHub API response that does not fall
// into one of the sentinel categories.
type UpstreamError struct {
	StatusCode int
	// message is the generic caller-facing text; upstream detail is logged
	// by the client and never carried here.
	message string
}

func (e *UpstreamError) Error() string {
	if e.message != "" {
		return e.message
	}
	return fmt.Sprintf("GitHub API error: %d", e.StatusCode)
}
