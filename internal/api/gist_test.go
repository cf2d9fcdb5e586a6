package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaykit/gistrelay/internal/auth"
	"github.com/relaykit/gistrelay/internal/config"
	"github.com/relaykit/gistrelay/internal/server"
	"github.com/relaykit/gistrelay/pkg/gist"
)

const testSecret = "test-signing-secret"

// fakeGitHub is a minimal stand-in for the gists API backing the handler
// tests. It serves one gist with a fixed file set and records patches.
type fakeGitHub struct {
	files   map[string]gist.File
	patches []map[string]json.RawMessage
}

func (f *fakeGitHub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/gists/") {
			http.NotFound(w, r)
			return
		}

		switch r.Method {
		case http.MethodGet:
			w.Header().Set("X-RateLimit-Remaining", "4999")
			json.NewEncoder(w).Encode(gist.Gist{
				ID:    strings.TrimPrefix(r.URL.Path, "/gists/"),
				Files: f.files,
			})
		case http.MethodPatch:
			var patch struct {
				Files map[string]json.RawMessage `json:"files"`
			}
			json.NewDecoder(r.Body).Decode(&patch)
			f.patches = append(f.patches, patch.Files)
			json.NewEncoder(w).Encode(gist.Gist{})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func newTestHandler(t *testing.T, upstream *fakeGitHub, mutate func(*config.Config)) http.Handler {
	t.Helper()

	srv := httptest.NewServer(upstream.handler())
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Auth.JWTSecret = testSecret
	cfg.GitHub.BaseURL = srv.URL
	if mutate != nil {
		mutate(cfg)
	}

	return NewHandler(server.Server{
		Config: cfg,
		Logger: hclog.NewNullLogger(),
	})
}

func bearerToken(t *testing.T, gistID string) string {
	t.Helper()

	token, err := auth.IssueToken("ghp_test", gistID, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(handler http.Handler, method, path, authHeader, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestMissingAuthorizationHeader(t *testing.T) {
	handler := newTestHandler(t, &fakeGitHub{}, nil)

	w := doRequest(handler, http.MethodGet, "/api/gist", "", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Missing authorization header")
}

func TestGetGist(t *testing.T) {
	upstream := &fakeGitHub{files: map[string]gist.File{
		"notes.txt": {Filename: "notes.txt", Content: "hello"},
	}}
	handler := newTestHandler(t, upstream, nil)

	t.Run("WithTokenGistID", func(t *testing.T) {
		w := doRequest(handler, http.MethodGet, "/api/gist", bearerToken(t, "abc123"), "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "4999", w.Header().Get("X-RateLimit-Remaining"))

		var g gist.Gist
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
		assert.Equal(t, "abc123", g.ID)
		assert.Contains(t, g.Files, "notes.txt")
	})

	t.Run("URLGistIDOverridesToken", func(t *testing.T) {
		w := doRequest(handler, http.MethodGet, "/api/gist/other456", bearerToken(t, "abc123"), "")

		require.Equal(t, http.StatusOK, w.Code)

		var g gist.Gist
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
		assert.Equal(t, "other456", g.ID)
	})

	t.Run("TokenWithoutGistID", func(t *testing.T) {
		w := doRequest(handler, http.MethodGet, "/api/gist", bearerToken(t, ""), "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "Gist ID not provided")
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		w := doRequest(handler, http.MethodPut, "/api/gist", bearerToken(t, "abc123"), "x")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestGetFile(t *testing.T) {
	upstream := &fakeGitHub{files: map[string]gist.File{
		"notes.txt": {Filename: "notes.txt", Content: "hello"},
	}}
	handler := newTestHandler(t, upstream, nil)

	t.Run("Success", func(t *testing.T) {
		w := doRequest(handler, http.MethodGet,
			"/api/gist/file/notes.txt", bearerToken(t, "abc123"), "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hello", w.Body.String())
		assert.Equal(t, "4999", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("GistScopedPath", func(t *testing.T) {
		w := doRequest(handler, http.MethodGet,
			"/api/gist/abc123/file/notes.txt", bearerToken(t, ""), "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "hello", w.Body.String())
	})

	t.Run("NotFound", func(t *testing.T) {
		w := doRequest(handler, http.MethodGet,
			"/api/gist/file/missing.txt", bearerToken(t, "abc123"), "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "File not found")
	})

	t.Run("InvalidFilename", func(t *testing.T) {
		w := doRequest(handler, http.MethodGet,
			"/api/gist/file/.env", bearerToken(t, "abc123"), "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid filename")
	})
}

func TestUpdateFile(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		upstream := &fakeGitHub{files: map[string]gist.File{}}
		handler := newTestHandler(t, upstream, nil)

		w := doRequest(handler, http.MethodPut,
			"/api/gist/file/notes.txt", bearerToken(t, "abc123"), "new content")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "File updated successfully", w.Body.String())
		require.Len(t, upstream.patches, 1)
		assert.Contains(t, upstream.patches[0], "notes.txt")
	})

	t.Run("EmptyBody", func(t *testing.T) {
		upstream := &fakeGitHub{}
		handler := newTestHandler(t, upstream, nil)

		w := doRequest(handler, http.MethodPut,
			"/api/gist/file/notes.txt", bearerToken(t, "abc123"), "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Request body is required")
		assert.Empty(t, upstream.patches, "no upstream call before validation")
	})
}

func TestCreateFile(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		upstream := &fakeGitHub{files: map[string]gist.File{}}
		handler := newTestHandler(t, upstream, nil)

		w := doRequest(handler, http.MethodPost,
			"/api/gist/file/new.txt", bearerToken(t, "abc123"), "content")

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "File created successfully", w.Body.String())
	})

	t.Run("AlreadyExists", func(t *testing.T) {
		upstream := &fakeGitHub{files: map[string]gist.File{
			"x.txt": {Filename: "x.txt"},
		}}
		handler := newTestHandler(t, upstream, nil)

		w := doRequest(handler, http.MethodPost,
			"/api/gist/file/x.txt", bearerToken(t, "abc123"), "content")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "already exists")
		assert.Empty(t, upstream.patches)
	})
}

func TestDeleteFile(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		upstream := &fakeGitHub{files: map[string]gist.File{
			"old.txt": {Filename: "old.txt"},
		}}
		handler := newTestHandler(t, upstream, nil)

		w := doRequest(handler, http.MethodDelete,
			"/api/gist/file/old.txt", bearerToken(t, "abc123"), "")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "File deleted successfully", w.Body.String())
		require.Len(t, upstream.patches, 1)

		// Delete is signaled with a JSON null entry.
		assert.Equal(t, "null", string(upstream.patches[0]["old.txt"]))
	})

	t.Run("NotFound", func(t *testing.T) {
		upstream := &fakeGitHub{files: map[string]gist.File{}}
		handler := newTestHandler(t, upstream, nil)

		w := doRequest(handler, http.MethodDelete,
			"/api/gist/file/missing.txt", bearerToken(t, "abc123"), "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "File not found")
	})
}

func TestSharedSecretWithoutFallbackCredentials(t *testing.T) {
	handler := newTestHandler(t, &fakeGitHub{}, func(cfg *config.Config) {
		cfg.Auth.JWTSecret = ""
		cfg.Auth.BearerToken = "legacy-token"
	})

	w := doRequest(handler, http.MethodGet, "/api/gist", "Bearer legacy-token", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "GitHub credentials not configured")
}

func TestSharedSecretWithFallbackCredentials(t *testing.T) {
	upstream := &fakeGitHub{files: map[string]gist.File{
		"notes.txt": {Filename: "notes.txt", Content: "hello"},
	}}
	handler := newTestHandler(t, upstream, func(cfg *config.Config) {
		cfg.Auth.JWTSecret = ""
		cfg.Auth.BearerToken = "legacy-token"
		cfg.GitHub.Token = "ghp_fallback"
		cfg.GitHub.GistID = "abc123"
	})

	w := doRequest(handler, http.MethodGet, "/api/gist/file/notes.txt", "Bearer legacy-token", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
}

func TestRootBanner(t *testing.T) {
	handler := newTestHandler(t, &fakeGitHub{}, nil)

	w := doRequest(handler, http.MethodGet, "/", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "GitHub Gist API")
}

func TestSecurityAndCORSHeaders(t *testing.T) {
	handler := newTestHandler(t, &fakeGitHub{}, nil)

	t.Run("PresentOnEveryResponse", func(t *testing.T) {
		// Even unauthorized responses carry the fixed headers.
		w := doRequest(handler, http.MethodGet, "/api/gist", "", "")

		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "1; mode=block", w.Header().Get("X-XSS-Protection"))
		assert.Equal(t, "max-age=31536000", w.Header().Get("Strict-Transport-Security"))
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	})

	t.Run("Preflight", func(t *testing.T) {
		w := doRequest(handler, http.MethodOptions, "/api/gist/file/notes.txt", "", "")

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "GET, PUT, POST, DELETE, OPTIONS",
			w.Header().Get("Access-Control-Allow-Methods"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})
}

func TestUnknownAPIPathRequiresAuth(t *testing.T) {
	handler := newTestHandler(t, &fakeGitHub{}, nil)

	t.Run("Unauthenticated", func(t *testing.T) {
		w := doRequest(handler, http.MethodGet, "/api/unknown", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Authenticated", func(t *testing.T) {
		w := doRequest(handler, http.MethodGet, "/api/unknown", bearerToken(t, "abc123"), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestParseGistPath(t *testing.T) {
	tests := []struct {
		path     string
		gistID   string
		filename string
		ok       bool
	}{
		{"/api/gist", "", "", true},
		{"/api/gist/", "", "", true},
		{"/api/gist/abc123", "abc123", "", true},
		{"/api/gist/file/notes.txt", "", "notes.txt", true},
		{"/api/gist/abc123/file/notes.txt", "abc123", "notes.txt", true},
		{"/api/gist/abc123/notes.txt", "", "", false},
		{"/api/gist/a/b/c/d", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			gistID, filename, ok := parseGistPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.gistID, gistID)
			assert.Equal(t, tt.filename, filename)
		})
	}
}
