package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/gophbudget/internal/client/storage"
)

func (c *Cli) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session, connectivity and queue status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStatus(cmd.Context())
		},
	}
}

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Status ===")
	c.io.Println()

	if c.daemon != nil {
		c.io.Printf("Daemon: running on http://%s\n", c.daemon.Addr())
	} else if err := c.printSession(ctx); err != nil {
		return err
	}

	if c.queues.Reachable(ctx) {
		c.io.Printf("Server: %s (online)\n", c.serverURL)
	} else {
		c.io.Printf("Server: %s (offline)\n", c.serverURL)
	}

	ov, err := c.queues.Overview(ctx)
	if err != nil {
		return err
	}
	counts := ov.Counts

	c.io.Println()
	if counts.Outstanding == 0 && counts.Syncing == 0 {
		c.io.Println("✓ All changes synchronized")
		return nil
	}

	c.io.Printf("Queue: %d pending, %d failed\n", counts.Pending, counts.Failed)
	c.io.Println("Run 'gophbudget queue' to see them or 'gophbudget sync' to retry.")

	return nil
}

func (c *Cli) printSession(ctx context.Context) error {
	session, err := c.authService.Session(ctx)
	switch {
	case errors.Is(err, storage.ErrAuthNotFound):
		c.io.Println("Session: not authenticated")
	case err != nil:
		return fmt.Errorf("failed to get auth data: %w", err)
	default:
		expiresAt := time.Unix(session.ExpiresAt, 0)
		c.io.Printf("Session: %s\n", session.Username)
		if remaining := time.Until(expiresAt); remaining > 0 {
			c.io.Printf("Session expires: %s (in %s)\n", expiresAt.Format(time.RFC3339), remaining.Round(time.Second))
		} else {
			c.io.Println("⚠️  Session has expired. Please login again.")
		}
	}
	return nil
}
