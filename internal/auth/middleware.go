package auth

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/relaykit/gistrelay/internal/config"
)

type contextKey int

const claimsKey contextKey = 0

// ClaimsFromContext returns the verified token payload attached by the
// middleware, when the request authenticated via the token path.
// Shared-secret requests carry no payload.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// Middleware validates the Authorization header on every request before
// handing off to next. Token verification is attempted first when a
// signing secret is configured; on failure the static shared secret is
// tried when one is available.
func Middleware(cfg *config.Config, log hclog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("missing authorization header",
				"path", r.URL.Path,
				"method", r.Method,
			)
			http.Error(w, "Missing authorization header", http.StatusUnauthorized)
			return
		}

		token, ok := ExtractBearer(authHeader)
		if !ok {
			log.Warn("invalid authorization header format",
				"path", r.URL.Path,
				"method", r.Method,
			)
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		if cfg.Auth.JWTSecret != "" {
			claims, err := VerifyToken(token, cfg.Auth.JWTSecret)
			if err == nil {
				ctx := context.WithValue(r.Context(), claimsKey, claims)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if cfg.Auth.BearerToken == "" {
				log.Warn("token verification failed",
					"path", r.URL.Path,
					"method", r.Method,
					"error", err,
				)
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}
			// Fall through to the shared-secret check.
		}

		if cfg.Auth.BearerToken != "" {
			if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Auth.BearerToken)) != 1 {
				log.Warn("shared secret mismatch",
					"path", r.URL.Path,
					"method", r.Method,
				)
				http.Error(w, "Invalid bearer token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		log.Error("no authentication method configured")
		http.Error(w, "Authentication not configured", http.StatusInternalServerError)
	})
}
