package auth

import (
	"errors"

	"github.com/relaykit/gistrelay/internal/config"
)

var (
	// ErrMissingGistID is returned when neither the URL path nor the
	// token payload names a gist.
	ErrMissingGistID = errors.New("Gist ID not provided")

	// ErrCredentialsNotConfigured is returned when a shared-secret caller
	// is authenticated but the process has no fallback GitHub credentials.
	ErrCredentialsNotConfigured = errors.New("GitHub credentials not configured")
)

// Credentials is the resolved (upstream credential, gist id) pair for one
// request. It is computed once per request and never persisted.
type Credentials struct {
	GithubToken string
	GistID      string
}

// ResolveCredentials derives the upstream credentials for a request.
// Precedence: a verified token payload carries its own GitHub token and
// the URL gist id wins over the payload's. Shared-secret callers are
// scoped to the configured fallback credentials, again with the URL gist
// id taking precedence.
func ResolveCredentials(claims *Claims, urlGistID string, cfg *config.Config) (Credentials, error) {
	if claims != nil {
		gistID := urlGistID
		if gistID == "" {
			gistID = claims.GistID
		}
		if gistID == "" {
			return Credentials{}, ErrMissingGistID
		}
		return Credentials{
			GithubToken: claims.GithubToken,
			GistID:      gistID,
		}, nil
	}

	if cfg.GitHub.Token == "" || cfg.GitHub.GistID == "" {
		return Credentials{}, ErrCredentialsNotConfigured
	}

	gistID := urlGistID
	if gistID == "" {
		gistID = cfg.GitHub.GistID
	}
	return Credentials{
		GithubToken: cfg.GitHub.Token,
		GistID:      gistID,
	}, nil
}
