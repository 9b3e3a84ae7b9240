package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/mcasconvert/internal/logging"
	"github.com/JonMunkholm/mcasconvert/internal/web"
)

type serveOptions struct {
	addr     string
	subjects []string
	policy   string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion service",
		Long: `Run the HTTP conversion service.

Endpoints:
  POST /api/convert   convert an uploaded export, returns CSV
  GET  /api/subjects  subject catalog
  GET  /api/columns   input and output columns
  GET  /healthz       health check`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address host:port; overrides SERVER_HOST/SERVER_PORT")
	addPipelineFlags(cmd, &opts.subjects, &opts.policy)

	return cmd
}

func runServe(rootOpts *RootOptions, opts *serveOptions, cmd *cobra.Command) error {
	cfg := rootOpts.Config

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger := logging.FromContext(ctx)

	p, err := rootOpts.pipeline(opts.subjects, opts.policy)
	if err != nil {
		return reportError(cmd.ErrOrStderr(), err)
	}

	serverCfg := cfg.Server
	if opts.addr != "" {
		host, port, err := splitAddr(opts.addr)
		if err != nil {
			return err
		}
		serverCfg.Host, serverCfg.Port = host, port
	}

	var serverOpts []web.Option
	if cfg.Database.Enabled() {
		s, err := openStore(ctx, cfg.Database)
		if err != nil {
			return reportError(cmd.ErrOrStderr(), err)
		}
		defer s.Close()
		serverOpts = append(serverOpts, web.WithSink(s), web.WithHealthCheck(s))
	}

	server := web.NewServer(serverCfg, p, serverOpts...)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server", "timeout", serverCfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// splitAddr parses host:port for the --addr flag.
func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid --addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid --addr %q: port must be 1-65535", addr)
	}
	return host, port, nil
}
