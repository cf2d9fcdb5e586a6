package gist

import "net/http"

// Gist is a GitHub gist as returned by the gists API. Only the fields the
// proxy forwards to callers are mapped; everything else in the upstream
// response is dropped at decode time.
type Gist struct {
	ID          string          `json:"id"`
	URL         string          `json:"url"`
	Files       map[string]File `json:"files"`
	Public      bool            `json:"public"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
	Description *string         `json:"description"`
	Comments    int             `json:"comments"`
	Owner       Owner           `json:"owner"`
}

// Owner identifies the gist owner.
type Owner struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}

// File is one named text blob within a gist. When Truncated is set the
// inline Content may be incomplete and RawURL must be dereferenced to
// obtain the full content.
type File struct {
	Filename  string  `json:"filename"`
	Type      string  `json:"type"`
	Language  *string `json:"language"`
	RawURL    string  `json:"raw_url"`
	Size      int64   `json:"size"`
	Truncated bool    `json:"truncated"`
	Content   string  `json:"content"`
}

// rateLimitHeaders is the fixed set of quota headers forwarded from the
// GitHub API to callers.
var rateLimitHeaders = []string{
	"X-RateLimit-Limit",
	"X-RateLimit-Remaining",
	"X-RateLimit-Reset",
	"X-RateLimit-Used",
	"X-RateLimit-Resource",
}

// RateLimit holds the quota headers present on an upstream response.
// Absent headers are omitted, not defaulted.
type RateLimit map[string]string

// ExtractRateLimit reads the known quota headers from an upstream response.
func ExtractRateLimit(h http.Header) RateLimit {
	rl := RateLimit{}
	for _, name := range rateLimitHeaders {
		if v := h.Get(name); v != "" {
			rl[name] = v
		}
	}
	return rl
}

// Apply copies the captured quota headers onto an outgoing response.
func (rl RateLimit) Apply(h http.Header) {
	for name, v := range rl {
		h.Set(name, v)
	}
}
