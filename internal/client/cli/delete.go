package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/gophbudget/internal/client/offline"
)

func (c *Cli) discardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discard <id>",
		Short: "Drop a queued change without sending it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDiscard(cmd.Context(), args[0])
		},
	}
}

func (c *Cli) runDiscard(ctx context.Context, id string) error {
	err := c.queues.Remove(ctx, id)
	switch {
	case errors.Is(err, offline.ErrEntryNotFound):
		return fmt.Errorf("queue entry %s not found", id)
	case errors.Is(err, offline.ErrEntrySyncing):
		return fmt.Errorf("queue entry %s is being sent right now, try again later", id)
	case err != nil:
		return fmt.Errorf("failed to discard %s: %w", id, err)
	}

	c.io.Printf("✓ Discarded %s\n", id)
	return nil
}
