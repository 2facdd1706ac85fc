package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/gophbudget/internal/client/status"
)

const daemonShutdownTimeout = 5 * time.Second

func (c *Cli) daemonCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Keep the queue synchronized and serve its status",
		Long: "Watches server reachability, sends queued changes whenever the server\n" +
			"comes back online and serves queue status on a local HTTP address.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLocal(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = c.statusAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.runDaemon(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Status server address (default from status.addr)")

	return cmd
}

// runDaemon работает до отмены ctx
func (c *Cli) runDaemon(ctx context.Context, addr string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Addr:              addr,
		Handler:           status.NewServer(c.queue, c.monitor, c.logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Go(func() { c.prober.Run(ctx) })
	wg.Go(func() { c.queue.Run(ctx) })

	serveErr := make(chan error, 1)
	go func() {
		c.logger.Info("Status server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	c.io.Printf("Daemon started, status on http://%s/api/v1/queue\n", addr)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
		c.logger.Error("Status server failed", "error", runErr)
	}

	c.logger.Info("Shutting down daemon...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), daemonShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		c.logger.Error("Status server forced to shutdown", "error", err)
	}

	wg.Wait()
	c.logger.Info("Daemon stopped")

	return runErr
}
