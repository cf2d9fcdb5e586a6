package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/relaykit/gistrelay/internal/auth"
	"github.com/relaykit/gistrelay/internal/server"
	"github.com/relaykit/gistrelay/pkg/gist"
)

// GistHandler serves every route under /api/gist: the whole-document
// reads and the file-scoped operations, with and without a gist id in the
// URL path.
func GistHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gistID, filename, ok := parseGistPath(r.URL.Path)
		if !ok {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}

		if filename == "" {
			if r.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			getGist(srv, w, r, gistID)
			return
		}

		if !ValidFilename(filename) {
			http.Error(w, "Invalid filename", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodGet:
			getFile(srv, w, r, gistID, filename)
		case http.MethodPut:
			updateFile(srv, w, r, gistID, filename)
		case http.MethodPost:
			createFile(srv, w, r, gistID, filename)
		case http.MethodDelete:
			deleteFile(srv, w, r, gistID, filename)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

// parseGistPath splits a path of the form
// "/api/gist[/{gistId}][/file/{filename}]" into its optional parts.
func parseGistPath(path string) (gistID, filename string, ok bool) {
	path = strings.TrimPrefix(path, "/api/gist")

	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	switch {
	case len(segments) == 0:
		return "", "", true
	case len(segments) == 1:
		return segments[0], "", true
	case len(segments) == 2 && segments[0] == "file":
		return "", segments[1], true
	case len(segments) == 3 && segments[1] == "file":
		return segments[0], segments[2], true
	default:
		return "", "", false
	}
}

// newClient resolves the upstream credentials for this request and builds
// a single-use gist client scoped to them.
func newClient(srv server.Server, r *http.Request, urlGistID string) (*gist.Client, error) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	creds, err := auth.ResolveCredentials(claims, urlGistID, srv.Config)
	if err != nil {
		return nil, err
	}

	return gist.NewClient(gist.ClientConfig{
		BaseURL:     srv.Config.GitHub.BaseURL,
		GithubToken: creds.GithubToken,
		GistID:      creds.GistID,
		Timeout:     srv.Config.UpstreamTimeout(),
		Logger:      srv.Logger,
	}), nil
}

func getGist(srv server.Server, w http.ResponseWriter, r *http.Request, gistID string) {
	client, err := newClient(srv, r, gistID)
	if err != nil {
		writeError(srv, w, r, err)
		return
	}

	g, rl, err := client.GetGist(r.Context())
	if err != nil {
		writeError(srv, w, r, err)
		return
	}

	rl.Apply(w.Header())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(g); err != nil {
		srv.Logger.Error("error encoding gist response", "error", err)
	}
}

func getFile(srv server.Server, w http.ResponseWriter, r *http.Request, gistID, filename string) {
	client, err := newClient(srv, r, gistID)
	if err != nil {
		writeError(srv, w, r, err)
		return
	}

	content, rl, err := client.GetFile(r.Context(), filename)
	if err != nil {
		writeError(srv, w, r, err)
		return
	}

	rl.Apply(w.Header())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(content))
}

func updateFile(srv server.Server, w http.ResponseWriter, r *http.Request, gistID, filename string) {
	content, ok := readBody(srv, w, r)
	if !ok {
		return
	}

	client, err := newClient(srv, r, gistID)
	if err != nil {
		writeError(srv, w, r, err)
		return
	}

	if err := client.UpdateFile(r.Context(), filename, content); err != nil {
		writeError(srv, w, r, err)
		return
	}

	w.Write([]byte("File updated successfully"))
}

func createFile(srv server.Server, w http.ResponseWriter, r *http.Request, gistID, filename string) {
	content, ok := readBody(srv, w, r)
	if !ok {
		return
	}

	client, err := newClient(srv, r, gistID)
	if err != nil {
		writeError(srv, w, r, err)
		return
	}

	if err := client.CreateFile(r.Context(), filename, content); err != nil {
		writeError(srv, w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write([]byte("File created successfully"))
}

func deleteFile(srv server.Server, w http.ResponseWriter, r *http.Request, gistID, filename string) {
	client, err := newClient(srv, r, gistID)
	if err != nil {
		writeError(srv, w, r, err)
		return
	}

	if err := client.DeleteFile(r.Context(), filename); err != nil {
		writeError(srv, w, r, err)
		return
	}

	w.Write([]byte("File deleted successfully"))
}

// readBody reads the raw text body of a mutation request, rejecting empty
// bodies before any upstream call is made.
func readBody(srv server.Server, w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		srv.Logger.Error("error reading request body", "error", err)
		http.Error(w, "Error reading request body", http.StatusBadRequest)
		return "", false
	}
	if len(body) == 0 {
		http.Error(w, "Request body is required", http.StatusBadRequest)
		return "", false
	}
	return string(body), true
}

// statusForError maps the error taxonomy to HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, gist.ErrFileNotFound),
		errors.Is(err, gist.ErrGistNotFound):
		return http.StatusNotFound
	case errors.Is(err, gist.ErrFileAlreadyExists):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(srv server.Server, w http.ResponseWriter, r *http.Request, err error) {
	srv.Logger.Error("request failed",
		"path", r.URL.Path,
		"method", r.Method,
		"error", err,
	)
	http.Error(w, err.Error(), statusForError(err))
}
