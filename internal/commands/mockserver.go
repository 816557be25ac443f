package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/diogo/projectbrain/internal/mockbackend"
)

const shutdownTimeout = 5 * time.Second

type mockServerOptions struct {
	addr     string
	fixtures string
	latency  time.Duration
}

// NewMockServerCmd creates the offline demo backend command
func NewMockServerCmd(deps *Dependencies) *cobra.Command {
	var opts mockServerOptions

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Serve canned answers on the backend API",
		Long: `Run a local stand-in for the Project Brain backend.

Answers come from a YAML fixture file (--fixtures) or from built-in
examples. Point the client at it with --api-url http://localhost:8000.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMockServer(cmd, deps, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "127.0.0.1:8000", "Listen address")
	cmd.Flags().StringVar(&opts.fixtures, "fixtures", "", "YAML fixture file")
	cmd.Flags().DurationVar(&opts.latency, "latency", 0, "Artificial delay per answer")
	return cmd
}

func runMockServer(cmd *cobra.Command, deps *Dependencies, opts mockServerOptions) error {
	fixtures := mockbackend.DefaultFixtures()
	if opts.fixtures != "" {
		var err error
		fixtures, err = mockbackend.LoadFixtures(opts.fixtures)
		if err != nil {
			return err
		}
	}

	handler := mockbackend.New(
		mockbackend.WithFixtures(fixtures),
		mockbackend.WithLatency(opts.latency),
		mockbackend.WithLogger(deps.Logger),
	)

	ln, err := net.Listen("tcp", opts.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", opts.addr, err)
	}
	return serve(cmd.Context(), ln, handler, deps.Logger, func(addr string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Mock backend listening on http://%s (Ctrl+C to stop)\n", addr)
	})
}

// serve runs handler on ln until ctx is cancelled, then shuts down gracefully
func serve(ctx context.Context, ln net.Listener, handler http.Handler, logger *zap.Logger, ready func(addr string)) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	logger.Info("mock backend started", zap.String("addr", ln.Addr().String()))
	if ready != nil {
		ready(ln.Addr().String())
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mock backend stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down mock backend: %w", err)
	}
	logger.Info("mock backend stopped")
	return nil
}
