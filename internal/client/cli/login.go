package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/gophbudget/internal/client/status"
)

func (c *Cli) loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Login to server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireLocal(); err != nil {
				return err
			}
			return c.runLogin(cmd.Context())
		},
	}
}

func (c *Cli) runLogin(ctx context.Context) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	c.io.Println()
	c.io.Println("Authenticating...")

	session, err := c.authService.Login(ctx, username, password)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	c.io.Printf("Username: %s\n", session.Username)
	c.io.Printf("Session expires: %s\n", time.Unix(session.ExpiresAt, 0).Format(time.RFC3339))

	// Записи, сделанные до входа, уйдут от имени этого пользователя
	if counts := status.Count(c.queue.Snapshot()); counts.Outstanding > 0 {
		c.io.Println()
		c.io.Printf("%d queued change(s) are waiting to be sent.\n", counts.Outstanding)
		c.io.Println("Run 'gophbudget sync' to send them now.")
	}

	return nil
}
