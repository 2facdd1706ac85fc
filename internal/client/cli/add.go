package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iudanet/gophbudget/internal/client/offline"
	"github.com/iudanet/gophbudget/internal/models"
	"github.com/iudanet/gophbudget/internal/validation"
	"github.com/iudanet/gophbudget/pkg/api"
)

func (c *Cli) addCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add new record (transaction, category, budget, goal)",
		Long: "Saves the record in the offline queue. When the server is reachable the\n" +
			"queue is synchronized right away, otherwise the record is sent later.",
	}

	cmd.AddCommand(
		c.addTransactionCommand(),
		c.addCategoryCommand(),
		c.addBudgetCommand(),
		c.addGoalCommand(),
	)

	return cmd
}

func (c *Cli) addTransactionCommand() *cobra.Command {
	var (
		req       api.CreateTransactionRequest
		amount    string
		recurring bool
	)

	cmd := &cobra.Command{
		Use:   "transaction",
		Short: "Add income or expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Amount, err = parseAmount("amount", amount); err != nil {
				return err
			}
			if cmd.Flags().Changed("recurring") {
				req.Recurring = &recurring
			}
			if err := validation.ValidateTransaction(&req); err != nil {
				return fmt.Errorf("invalid transaction: %w", err)
			}
			return c.enqueue(cmd.Context(), models.KindTransaction, req)
		},
	}

	f := cmd.Flags()
	f.StringVar(&amount, "amount", "", "Amount, e.g. 42.50")
	f.StringVar(&req.Type, "type", models.FlowExpense, "income|expense")
	f.StringVar(&req.CategoryID, "category", "", "Category ID")
	f.StringVar(&req.Date, "date", time.Now().Format(validation.DateLayout), "Date (YYYY-MM-DD)")
	f.StringVar(&req.Description, "description", "", "Description")
	f.StringSliceVar(&req.Tags, "tag", nil, "Tag (repeatable)")
	f.BoolVar(&recurring, "recurring", false, "Recurring transaction")
	f.StringVar(&req.RecurringFrequency, "frequency", "", "daily|weekly|monthly|yearly")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func (c *Cli) addCategoryCommand() *cobra.Command {
	var req api.CreateCategoryRequest

	cmd := &cobra.Command{
		Use:   "category",
		Short: "Add income or expense category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateCategory(&req); err != nil {
				return fmt.Errorf("invalid category: %w", err)
			}
			return c.enqueue(cmd.Context(), models.KindCategory, req)
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "Category name")
	f.StringVar(&req.Type, "type", models.FlowExpense, "income|expense")
	f.StringVar(&req.Color, "color", "", "Color, e.g. #ff8800")
	f.StringVar(&req.Icon, "icon", "", "Icon name")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func (c *Cli) addBudgetCommand() *cobra.Command {
	var (
		req       api.CreateBudgetRequest
		amount    string
		threshold int
	)

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Add spending limit for a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Amount, err = parseAmount("amount", amount); err != nil {
				return err
			}
			if cmd.Flags().Changed("alert-threshold") {
				req.AlertThreshold = &threshold
			}
			if err := validation.ValidateBudget(&req); err != nil {
				return fmt.Errorf("invalid budget: %w", err)
			}
			return c.enqueue(cmd.Context(), models.KindBudget, req)
		},
	}

	f := cmd.Flags()
	f.StringVar(&amount, "amount", "", "Limit amount")
	f.StringVar(&req.CategoryID, "category", "", "Category ID")
	f.StringVar(&req.Period, "period", "monthly", "monthly|yearly")
	f.StringVar(&req.StartDate, "start", "", "Start date (YYYY-MM-DD)")
	f.StringVar(&req.EndDate, "end", "", "End date (YYYY-MM-DD)")
	f.IntVar(&threshold, "alert-threshold", 0, "Alert at this percent of the limit (0-100)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func (c *Cli) addGoalCommand() *cobra.Command {
	var (
		req    api.CreateGoalRequest
		target string
	)

	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Add savings goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.TargetAmount, err = parseAmount("target", target); err != nil {
				return err
			}
			if err := validation.ValidateGoal(&req); err != nil {
				return fmt.Errorf("invalid goal: %w", err)
			}
			return c.enqueue(cmd.Context(), models.KindGoal, req)
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "Goal name")
	f.StringVar(&target, "target", "", "Target amount")
	f.StringVar(&req.TargetDate, "date", "", "Target date (YYYY-MM-DD)")
	f.StringVar(&req.Description, "description", "", "Description")
	f.StringVar(&req.Priority, "priority", "medium", "low|medium|high")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func parseAmount(flag, value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("--%s: invalid amount %q", flag, value)
	}
	return amount, nil
}

// enqueue ставит запись в очередь и, если сервер доступен, сразу синхронизирует ее
func (c *Cli) enqueue(ctx context.Context, kind models.QueueKind, payload any) error {
	id, err := c.queues.Enqueue(ctx, kind, payload)
	if err != nil {
		return fmt.Errorf("failed to queue %s: %w", kind, err)
	}

	c.io.Printf("Queued %s (id: %s)\n", kind, id)

	if !c.queues.Reachable(ctx) {
		c.io.Println("Server is unreachable. The change is saved on this device and will be sent when the connection returns.")
		return nil
	}

	if err := c.queues.Send(ctx, id); err != nil {
		if errors.Is(err, offline.ErrOffline) || errors.Is(err, offline.ErrSyncInProgress) {
			c.io.Println("The change is saved on this device and will be sent on next sync.")
			return nil
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	return c.printOutcome(ctx, id)
}

func (c *Cli) printOutcome(ctx context.Context, id string) error {
	entry, err := c.queues.Entry(ctx, id)
	if errors.Is(err, offline.ErrEntryNotFound) {
		// уже удалена после подтверждения
		c.io.Println("✓ Saved on server")
		return nil
	}
	if err != nil {
		return err
	}

	switch entry.Status {
	case models.StatusSynced:
		c.io.Println("✓ Saved on server")
	case models.StatusFailed:
		c.io.Printf("✗ Server rejected the change: %s\n", entry.LastError)
		c.io.Printf("Run 'gophbudget sync' to retry or 'gophbudget discard %s' to drop it.\n", id)
	default:
		c.io.Println("The change is saved on this device and will be sent on next sync.")
	}
	return nil
}
