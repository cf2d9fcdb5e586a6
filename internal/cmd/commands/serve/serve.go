package serve

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/relaykit/gistrelay/internal/api"
	"github.com/relaykit/gistrelay/internal/cmd/base"
	"github.com/relaykit/gistrelay/internal/config"
	"github.com/relaykit/gistrelay/internal/server"
)

const shutdownGracePeriod = 15 * time.Second

type Command struct {
	*base.Command

	flagConfig string
}

func (c *Command) Synopsis() string {
	return "Run the gist proxy server"
}

func (c *Command) Help() string {
	return `Usage: gistrelay serve -config=<path>

  Run the gist proxy server using the provided configuration file.

Options:

  -config=<path>
      Path to the HCL configuration file. Default: config.hcl
`
}

func (c *Command) Flags() *flag.FlagSet {
	f := flag.NewFlagSet("serve", flag.ContinueOnError)
	f.StringVar(&c.flagConfig, "config", "config.hcl", "config file path")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := config.Load(c.flagConfig)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "gistrelay",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	if cfg.Auth.JWTSecret == "" && cfg.Auth.BearerToken == "" {
		log.Warn("no jwt_secret or bearer_token configured, all API requests will fail")
	}

	handler := api.NewHandler(server.Server{
		Config: cfg,
		Logger: log,
	})

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			c.UI.Error(fmt.Sprintf("server error: %v", err))
			return 1
		}
	case <-ctx.Done():
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), shutdownGracePeriod)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			c.UI.Error(fmt.Sprintf("error during shutdown: %v", err))
			return 1
		}
	}

	return 0
}
