package server

import (
	"github.com/hashicorp/go-hclog"

	"github.com/relaykit/gistrelay/internal/config"
)

// Server contains the server configuration.
type Server struct {
	// Config is the config for the server.
	Config *config.Config

	// Logger is the logger for the server.
	Logger hclog.Logger
}
