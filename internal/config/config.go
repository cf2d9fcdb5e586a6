// Package config defines the gistrelay server configuration, decoded from
// an HCL file. The loaded value is immutable and passed explicitly into
// the components that need it.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

const (
	defaultListenAddr = ":8000"
	defaultLogLevel   = "info"
	defaultTimeout    = 30 * time.Second
)

// Config is the top-level configuration for the server.
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `hcl:"listen_addr,optional"`

	// LogLevel is the hclog level name (trace, debug, info, warn, error).
	LogLevel string `hcl:"log_level,optional"`

	// Auth configures caller-facing authentication.
	Auth *Auth `hcl:"auth,block"`

	// GitHub configures the upstream gists API and the fallback
	// credentials used by shared-secret callers.
	GitHub *GitHub `hcl:"github,block"`
}

// Auth contains the caller-facing authentication settings.
type Auth struct {
	// JWTSecret is the signing secret for caller tokens. When empty,
	// token-based authentication is disabled.
	JWTSecret string `hcl:"jwt_secret,optional"`

	// BearerToken is the legacy static shared secret. When set, callers
	// whose token fails JWT verification are compared against it.
	BearerToken string `hcl:"bearer_token,optional"`
}

// GitHub contains upstream API settings.
type GitHub struct {
	// BaseURL overrides the GitHub API base URL. Default is the public
	// API; tests point this at a local server.
	BaseURL string `hcl:"base_url,optional"`

	// Token is the fallback upstream credential for shared-secret
	// callers. Token-based callers carry their own credential.
	Token string `hcl:"token,optional"`

	// GistID is the fallback gist for shared-secret callers.
	GistID string `hcl:"gist_id,optional"`

	// Timeout is the upstream request timeout, as a duration string.
	Timeout string `hcl:"timeout,optional"`
}

// Default returns a Config with all defaults applied and empty blocks.
func Default() *Config {
	return &Config{
		ListenAddr: defaultListenAddr,
		LogLevel:   defaultLogLevel,
		Auth:       &Auth{},
		GitHub:     &GitHub{},
	}
}

// Load decodes the HCL file at path. Secrets left empty in the file fall
// back to environment variables; this is the only place the environment
// is consulted.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("decoding config file %s: %w", path, err)
	}

	cfg.applyDefaults()

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = os.Getenv("GISTRELAY_JWT_SECRET")
	}
	if cfg.Auth.BearerToken == "" {
		cfg.Auth.BearerToken = os.Getenv("GISTRELAY_BEARER_TOKEN")
	}
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if cfg.GitHub.GistID == "" {
		cfg.GitHub.GistID = os.Getenv("GIST_ID")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = defaultListenAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Auth == nil {
		c.Auth = &Auth{}
	}
	if c.GitHub == nil {
		c.GitHub = &GitHub{}
	}
}

// Validate checks the configuration, aggregating every problem found.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.ListenAddr == "" {
		result = multierror.Append(result,
			fmt.Errorf("listen_addr is required"))
	}

	if c.GitHub.BaseURL != "" {
		parsed, err := url.Parse(c.GitHub.BaseURL)
		if err != nil {
			result = multierror.Append(result,
				fmt.Errorf("invalid github.base_url: %w", err))
		} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
			result = multierror.Append(result, fmt.Errorf(
				"github.base_url must use http or https scheme, got: %s",
				parsed.Scheme))
		}
	}

	if c.GitHub.Timeout != "" {
		d, err := time.ParseDuration(c.GitHub.Timeout)
		if err != nil {
			result = multierror.Append(result,
				fmt.Errorf("invalid github.timeout: %w", err))
		} else if d < 0 {
			result = multierror.Append(result, fmt.Errorf(
				"github.timeout must be non-negative, got: %s", d))
		}
	}

	return result.ErrorOrNil()
}

// UpstreamTimeout returns the parsed upstream timeout, or the default when
// unset. Call Validate first; an unparseable value falls back to the
// default here.
func (c *Config) UpstreamTimeout() time.Duration {
	if c.GitHub.Timeout == "" {
		return defaultTimeout
	}
	d, err := time.ParseDuration(c.GitHub.Timeout)
	if err != nil {
		return defaultTimeout
	}
	return d
}
