package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/gophbudget/internal/models"
)

func (c *Cli) queueCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List changes waiting to be synchronized",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runQueue(cmd.Context(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")

	return cmd
}

func (c *Cli) runQueue(ctx context.Context, asJSON bool) error {
	ov, err := c.queues.Overview(ctx)
	if err != nil {
		return err
	}
	views := ov.Items

	if asJSON {
		enc := json.NewEncoder(c.io)
		enc.SetIndent("", "  ")
		if err := enc.Encode(views); err != nil {
			return fmt.Errorf("failed to encode queue: %w", err)
		}
		return nil
	}

	c.io.Println("=== Offline Queue ===")
	c.io.Println()

	if len(views) == 0 {
		c.io.Println("Queue is empty. All changes are synchronized.")
		return nil
	}

	for _, v := range views {
		c.io.Printf("%s %-9s %s  %s\n", statusMark(v.Status), v.Status, v.ID, v.Label)
		if v.LastError != "" {
			c.io.Printf("    error: %s (attempts: %d)\n", v.LastError, v.Attempts)
		}
	}

	c.io.Println()
	c.io.Printf("Total: %d, pending: %d, failed: %d\n", len(views), ov.Counts.Pending, ov.Counts.Failed)

	return nil
}

func statusMark(s models.QueueStatus) string {
	switch s {
	case models.StatusSynced:
		return "✓"
	case models.StatusFailed:
		return "✗"
	case models.StatusSyncing:
		return "~"
	default:
		return "•"
	}
}
