package storage

import (
	"context"

	"github.com/iudanet/gophbudget/internal/models"
)

// FinanceStorage хранит данные бюджета пользователя
type FinanceStorage interface {
	CreateCategory(ctx context.Context, c *models.Category) error

	// GetCategory returns the category only if it belongs to userID.
	// Returns ErrCategoryNotFound otherwise.
	GetCategory(ctx context.Context, userID, categoryID string) (*models.Category, error)

	CreateTransaction(ctx context.Context, t *models.Transaction) error
	CreateBudget(ctx context.Context, b *models.Budget) error
	CreateGoal(ctx context.Context, g *models.Goal) error
}
