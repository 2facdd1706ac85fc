package cli

import (
	"github.com/spf13/cobra"

	"github.com/iudanet/gophbudget/internal/config"
)

// Command собирает дерево команд gophbudget.
// Зависимости создаются в PersistentPreRunE, после разбора флагов.
func (c *Cli) Command() *cobra.Command {
	v := config.NewClientViper()
	var configPath string

	root := &cobra.Command{
		Use:           "gophbudget",
		Short:         "GophBudget offline-first client",
		Long:          "Records transactions, categories, budgets and goals locally and\nsends them to the GophBudget server when it is reachable.",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flagErr := config.RegisterClientFlags(v, root.PersistentFlags())
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if flagErr != nil {
			return flagErr
		}
		cfg, err := config.LoadClient(v, configPath)
		if err != nil {
			return err
		}
		return c.setup(cmd.Context(), cfg)
	}

	root.SetOut(c.io)

	root.AddCommand(
		c.registerCommand(),
		c.loginCommand(),
		c.logoutCommand(),
		c.statusCommand(),
		c.addCommand(),
		c.queueCommand(),
		c.syncCommand(),
		c.discardCommand(),
		c.daemonCommand(),
	)

	return root
}
