package handlers

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/iudanet/gophbudget/internal/models"
	"github.com/iudanet/gophbudget/internal/server/storage"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockUserStorage is a mock implementation of UserStorage for testing
type mockUserStorage struct {
	users           map[string]*models.User // username -> User
	createError     error
	getUserError    error
	updateLastLogin func(ctx context.Context, userID string, loginTime time.Time) error
}

func newMockUserStorage() *mockUserStorage {
	return &mockUserStorage{users: make(map[string]*models.User)}
}

func (m *mockUserStorage) CreateUser(_ context.Context, user *models.User) error {
	if m.createError != nil {
		return m.createError
	}
	if _, exists := m.users[user.Username]; exists {
		return storage.ErrUserAlreadyExists
	}
	m.users[user.Username] = user
	return nil
}

func (m *mockUserStorage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if m.getUserError != nil {
		return nil, m.getUserError
	}
	user, ok := m.users[username]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserStorage) GetUserByID(_ context.Context, id string) (*models.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) UpdateLastLogin(ctx context.Context, userID string, loginTime time.Time) error {
	if m.updateLastLogin != nil {
		return m.updateLastLogin(ctx, userID, loginTime)
	}
	return nil
}

// mockFinanceStorage хранит записи в памяти
type mockFinanceStorage struct {
	categories   map[string]*models.Category
	transactions []*models.Transaction
	budgets      []*models.Budget
	goals        []*models.Goal
	createError  error
	afterCreate  func() // вызывается после записи категории
	mu           sync.Mutex
}

func newMockFinanceStorage() *mockFinanceStorage {
	return &mockFinanceStorage{categories: make(map[string]*models.Category)}
}

func (m *mockFinanceStorage) CreateCategory(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	m.categories[c.ID] = c
	if m.afterCreate != nil {
		m.afterCreate()
	}
	return nil
}

func (m *mockFinanceStorage) GetCategory(_ context.Context, userID, categoryID string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[categoryID]
	if !ok || c.UserID != userID {
		return nil, storage.ErrCategoryNotFound
	}
	return c, nil
}

func (m *mockFinanceStorage) CreateTransaction(_ context.Context, t *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	m.transactions = append(m.transactions, t)
	return nil
}

func (m *mockFinanceStorage) CreateBudget(_ context.Context, b *models.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	m.budgets = append(m.budgets, b)
	return nil
}

func (m *mockFinanceStorage) CreateGoal(_ context.Context, g *models.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createError != nil {
		return m.createError
	}
	m.goals = append(m.goals, g)
	return nil
}

func (m *mockFinanceStorage) transactionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transactions)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
