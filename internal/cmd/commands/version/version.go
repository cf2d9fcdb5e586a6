package version

import (
	"github.com/relaykit/gistrelay/internal/cmd/base"
	"github.com/relaykit/gistrelay/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return `Usage: gistrelay version`
}

func (c *Command) Run(args []string) int {
	c.UI.Output("gistrelay " + version.Version)
	return 0
}
