package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgrepo/internal/api"
)

const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command, which exposes resolution over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		o              overrides
		addr           string
		resolveTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve resolved repositories over HTTP",
		Long: `Serve starts an HTTP API that resolves repositories on request:

  GET /v1/packages?repo=<url>   resolved packages, unavailable list and renames
  GET /v1/renamed?repo=<url>    renamed-package map
  GET /healthz                  liveness probe

Set redis_url in the config file to share the response cache between
several servers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := o.apply(cmd, &cfg); err != nil {
				return err
			}

			svc, err := newService(ctx, cfg, o, c.Logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewServer(svc, api.Options{Logger: c.Logger, Timeout: resolveTimeout}),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return c.listen(ctx, srv)
		},
	}

	o.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().DurationVar(&resolveTimeout, "resolve-timeout", 2*time.Minute, "upper bound for one resolution")

	return cmd
}

// listen serves until ctx is cancelled, then shuts down gracefully.
func (c *CLI) listen(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
