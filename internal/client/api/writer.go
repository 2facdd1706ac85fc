package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/gophbudget/internal/client/storage"
	"github.com/iudanet/gophbudget/pkg/api"
)

var (
	// ErrNotAuthenticated на клиенте нет сохраненной сессии
	ErrNotAuthenticated = errors.New("not authenticated, run login first")

	// ErrSessionExpired срок действия токена истек
	ErrSessionExpired = errors.New("session expired, run login again")
)

// Writer отправляет записи offline очереди на сервер от имени текущего пользователя
type Writer struct {
	client *Client
	auth   storage.AuthStorage
	logger *slog.Logger
	now    func() time.Time
}

// NewWriter создает Writer
func NewWriter(client *Client, auth storage.AuthStorage, logger *slog.Logger) *Writer {
	return &Writer{
		client: client,
		auth:   auth,
		logger: logger,
		now:    time.Now,
	}
}

func (w *Writer) CreateTransaction(ctx context.Context, idempotencyKey string, payload json.RawMessage) error {
	return w.do(ctx, idempotencyKey, payload, w.client.CreateTransaction)
}

func (w *Writer) CreateCategory(ctx context.Context, idempotencyKey string, payload json.RawMessage) error {
	return w.do(ctx, idempotencyKey, payload, w.client.CreateCategory)
}

func (w *Writer) CreateBudget(ctx context.Context, idempotencyKey string, payload json.RawMessage) error {
	return w.do(ctx, idempotencyKey, payload, w.client.CreateBudget)
}

func (w *Writer) CreateGoal(ctx context.Context, idempotencyKey string, payload json.RawMessage) error {
	return w.do(ctx, idempotencyKey, payload, w.client.CreateGoal)
}

type createFunc func(ctx context.Context, token, idempotencyKey string, payload json.RawMessage) (*api.CreatedResponse, error)

func (w *Writer) do(ctx context.Context, idempotencyKey string, payload json.RawMessage, create createFunc) error {
	token, err := w.token(ctx)
	if err != nil {
		return err
	}

	resp, err := create(ctx, token, idempotencyKey, payload)
	if err != nil {
		return err
	}

	if resp.Replayed {
		w.logger.Info("Write already applied on server", "idempotency_key", idempotencyKey, "id", resp.ID)
	}
	return nil
}

func (w *Writer) token(ctx context.Context) (string, error) {
	auth, err := w.auth.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("failed to load auth data: %w", err)
	}

	if auth.ExpiresAt > 0 && w.now().After(time.Unix(auth.ExpiresAt, 0)) {
		return "", ErrSessionExpired
	}

	return auth.AccessToken, nil
}
