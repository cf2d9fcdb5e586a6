// Package base carries the dependencies shared by every CLI command.
package base

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded by all subcommands.
type Command struct {
	// UI is used for all command output.
	UI cli.Ui

	// Log is the process logger.
	Log hclog.Logger
}
