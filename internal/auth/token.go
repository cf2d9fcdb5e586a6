// Package auth implements caller-facing authentication: signed credential
// tokens, the legacy shared-secret fallback, and resolution of the
// upstream credential and gist id used for each request.
package auth

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the validity window applied when no expiry is given.
const DefaultTokenTTL = 24 * time.Hour

// ErrInvalidToken is returned for any token that fails verification:
// bad signature, malformed structure, or past expiry.
var ErrInvalidToken = errors.New("Invalid or expired token")

// Claims is the payload of a caller token. The GitHub token rides inside
// the JWT so each caller can carry its own upstream credential.
type Claims struct {
	jwt.RegisteredClaims

	GithubToken string `json:"githubToken"`
	GistID      string `json:"gistId,omitempty"`
}

// bearerPattern matches "Bearer <token>" with a case-sensitive scheme.
var bearerPattern = regexp.MustCompile(`^Bearer\s+(.+)$`)

// IssueToken signs a caller token embedding the upstream credential and an
// optional gist id. A zero ttl falls back to DefaultTokenTTL.
func IssueToken(githubToken, gistID, secret string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		GithubToken: githubToken,
		GistID:      gistID,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyToken parses and validates a caller token. Verification is
// all-or-nothing: every failure mode collapses to ErrInvalidToken.
func VerifyToken(token, secret string) (*Claims, error) {
	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	// A payload without an upstream credential is useless downstream.
	if claims.GithubToken == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ExtractBearer pulls the credential out of an Authorization header value.
// Headers of the form "Bearer <apiToken>:<jwt>" carry an opaque routing
// token alongside the verifiable credential; only the part after the colon
// is returned. Any other colon count leaves the token unmodified.
func ExtractBearer(header string) (string, bool) {
	m := bearerPattern.FindStringSubmatch(header)
	if m == nil {
		return "", false
	}

	token := m[1]
	if parts := strings.Split(token, ":"); len(parts) == 2 {
		return parts[1], true
	}

	return token, true
}
