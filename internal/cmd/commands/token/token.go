package token

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/relaykit/gistrelay/internal/auth"
	"github.com/relaykit/gistrelay/internal/cmd/base"
)

type Command struct {
	*base.Command

	flagGithubToken string
	flagGistID      string
	flagSecret      string
	flagExpires     time.Duration
	flagOutput      string
}

func (c *Command) Synopsis() string {
	return "Generate a signed API token"
}

func (c *Command) Help() string {
	return `Usage: gistrelay token -github-token=<token> [options]

  Generate a signed API token embedding a GitHub token and an optional
  gist id. The signing secret is generated randomly unless provided; set
  the same secret as jwt_secret in the server configuration.

Options:

  -github-token=<token>
      GitHub personal access token to embed (required).

  -gist-id=<id>
      Gist id to embed. When omitted, callers must provide the gist id
      in the request URL.

  -secret=<secret>
      Signing secret. A random 32-byte secret is generated when omitted.

  -expires=<duration>
      Token validity window. Default: 24h.

  -output=<file>
      Also write the token record to a JSON file.
`
}

func (c *Command) Flags() *flag.FlagSet {
	f := flag.NewFlagSet("token", flag.ContinueOnError)
	f.StringVar(&c.flagGithubToken, "github-token", "", "GitHub token to embed")
	f.StringVar(&c.flagGistID, "gist-id", "", "gist id to embed")
	f.StringVar(&c.flagSecret, "secret", "", "signing secret")
	f.DurationVar(&c.flagExpires, "expires", auth.DefaultTokenTTL, "token validity window")
	f.StringVar(&c.flagOutput, "output", "", "write token record to file")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	if c.flagGithubToken == "" {
		c.UI.Error("-github-token is required")
		c.UI.Output(c.Help())
		return 1
	}

	secret := c.flagSecret
	if secret == "" {
		var err error
		secret, err = randomSecret()
		if err != nil {
			c.UI.Error(fmt.Sprintf("error generating secret: %v", err))
			return 1
		}
	}

	token, err := auth.IssueToken(
		c.flagGithubToken, c.flagGistID, secret, c.flagExpires)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error signing token: %v", err))
		return 1
	}

	c.UI.Output("Token:      " + token)
	c.UI.Output("JWT secret: " + secret)
	c.UI.Output("Expires in: " + c.flagExpires.String())
	if c.flagGistID != "" {
		c.UI.Output("Gist ID:    " + c.flagGistID)
	}

	if c.flagOutput != "" {
		if err := c.writeRecord(token, secret); err != nil {
			c.UI.Error(fmt.Sprintf("error writing output file: %v", err))
			return 1
		}
		c.UI.Output("Token saved to: " + c.flagOutput)
	}

	c.UI.Output("")
	c.UI.Output("Set the JWT secret in the server configuration (auth.jwt_secret)")
	c.UI.Output("and pass the token in requests:")
	c.UI.Output(`  curl -H "Authorization: Bearer <token>" http://<server>/api/gist`)
	if c.flagGistID == "" {
		c.UI.Output("")
		c.UI.Output("No gist id was embedded; include one in the URL:")
		c.UI.Output("  /api/gist/{gistId}/file/{filename}")
	}

	return 0
}

// tokenRecord is the JSON document written with -output.
type tokenRecord struct {
	Token     string `json:"token"`
	Secret    string `json:"secret"`
	ExpiresIn string `json:"expiresIn"`
	GistID    string `json:"gistId,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func (c *Command) writeRecord(token, secret string) error {
	record := tokenRecord{
		Token:     token,
		Secret:    secret,
		ExpiresIn: c.flagExpires.String(),
		GistID:    c.flagGistID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.flagOutput, data, 0o600)
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
