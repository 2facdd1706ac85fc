package offline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iudanet/gophbudget/internal/models"
)

//go:generate moq -out remotewriter_mock.go . RemoteWriter

// RemoteWriter is the backend side of the queue: one create operation per kind.
// Payloads are passed verbatim; idempotencyKey is the queue entry id.
type RemoteWriter interface {
	CreateTransaction(ctx context.Context, idempotencyKey string, payload json.RawMessage) error
	CreateCategory(ctx context.Context, idempotencyKey string, payload json.RawMessage) error
	CreateBudget(ctx context.Context, idempotencyKey string, payload json.RawMessage) error
	CreateGoal(ctx context.Context, idempotencyKey string, payload json.RawMessage) error
}

// dispatch вызывает операцию, соответствующую типу записи
func dispatch(ctx context.Context, w RemoteWriter, entry models.QueueEntry) error {
	switch entry.Kind {
	case models.KindTransaction:
		return w.CreateTransaction(ctx, entry.ID, entry.Payload)
	case models.KindCategory:
		return w.CreateCategory(ctx, entry.ID, entry.Payload)
	case models.KindBudget:
		return w.CreateBudget(ctx, entry.ID, entry.Payload)
	case models.KindGoal:
		return w.CreateGoal(ctx, entry.ID, entry.Payload)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, entry.Kind)
	}
}
