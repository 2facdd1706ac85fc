package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/gophbudget/internal/models"
	"github.com/iudanet/gophbudget/internal/server/storage"
)

// CreateCategory сохраняет категорию
func (s *Storage) CreateCategory(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (id, user_id, name, type, color, icon, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query, c.ID, c.UserID, c.Name, c.Type, c.Color, c.Icon, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	return nil
}

// GetCategory возвращает категорию пользователя
func (s *Storage) GetCategory(ctx context.Context, userID, categoryID string) (*models.Category, error) {
	query := `
		SELECT id, user_id, name, type, color, icon, created_at
		FROM categories
		WHERE id = ? AND user_id = ?
	`

	c := &models.Category{}
	err := s.db.QueryRowContext(ctx, query, categoryID, userID).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Type, &c.Color, &c.Icon, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// CreateTransaction сохраняет транзакцию
func (s *Storage) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	query := `
		INSERT INTO transactions
			(id, user_id, category_id, amount, description, date, type, tags, recurring, recurring_frequency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		t.ID,
		t.UserID,
		t.CategoryID,
		t.Amount.String(),
		t.Description,
		t.Date,
		t.Type,
		string(tagsJSON),
		t.Recurring,
		t.RecurringFrequency,
		t.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrCategoryNotFound
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// CreateBudget сохраняет бюджет
func (s *Storage) CreateBudget(ctx context.Context, b *models.Budget) error {
	query := `
		INSERT INTO budgets
			(id, user_id, category_id, amount, period, start_date, end_date, alert_threshold, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var threshold sql.NullInt64
	if b.AlertThreshold != nil {
		threshold = sql.NullInt64{Int64: int64(*b.AlertThreshold), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		b.ID,
		b.UserID,
		b.CategoryID,
		b.Amount.String(),
		b.Period,
		b.StartDate,
		b.EndDate,
		threshold,
		b.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrCategoryNotFound
		}
		return fmt.Errorf("failed to insert budget: %w", err)
	}
	return nil
}

// CreateGoal сохраняет цель накоплений
func (s *Storage) CreateGoal(ctx context.Context, g *models.Goal) error {
	query := `
		INSERT INTO goals
			(id, user_id, name, target_amount, current_amount, target_date, description, priority, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		g.ID,
		g.UserID,
		g.Name,
		g.TargetAmount.String(),
		g.CurrentAmount.String(),
		g.TargetDate,
		g.Description,
		g.Priority,
		g.Status,
		g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}
	return nil
}
