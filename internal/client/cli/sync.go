package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/gophbudget/internal/client/offline"
)

func (c *Cli) syncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Send queued changes to server",
		Long:  "Sends pending changes and retries failed ones, ignoring any backoff delay.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSync(cmd.Context())
		},
	}
}

func (c *Cli) runSync(ctx context.Context) error {
	c.io.Println("=== Synchronization ===")
	c.io.Println()

	if !c.queues.Reachable(ctx) {
		return fmt.Errorf("server %s is unreachable, changes stay queued", c.serverURL)
	}

	result, err := c.queues.Retry(ctx)
	switch {
	case errors.Is(err, offline.ErrSyncInProgress):
		return fmt.Errorf("another synchronization is running, try again later")
	case errors.Is(err, offline.ErrOffline):
		return fmt.Errorf("server %s is unreachable, changes stay queued", c.serverURL)
	case err != nil:
		return fmt.Errorf("synchronization failed: %w", err)
	}

	if result.Selected == 0 {
		c.io.Println("Nothing to synchronize.")
		return nil
	}

	c.io.Printf("Sent:    %d\n", result.Synced)
	c.io.Printf("Failed:  %d\n", result.Failed)
	if result.Skipped > 0 {
		c.io.Printf("Skipped: %d\n", result.Skipped)
	}

	for _, id := range result.FailedIDs {
		entry, err := c.queues.Entry(ctx, id)
		if err != nil {
			continue
		}
		c.io.Printf("  ✗ %s  %s: %s\n", id, entry.Label, entry.LastError)
	}

	c.io.Println()
	if result.Failed == 0 && result.Skipped == 0 {
		c.io.Println("✓ All changes synchronized")
	} else {
		c.io.Println("Failed changes stay in the queue. Fix the data and retry, or discard them.")
	}

	return nil
}
