// Package idempotency хранит соответствие Idempotency-Key -> id созданной записи.
//
// Клиентская offline очередь может повторить запись, которую backend уже
// применил (ответ потерялся по дороге). По ключу backend узнает повтор и
// возвращает исходный id вместо создания дубликата.
package idempotency

import (
	"context"
	"errors"
	"time"
)

// ErrInProgress запрос с этим ключом еще обрабатывается
var ErrInProgress = errors.New("request with this idempotency key is in progress")

// pendingMarker значение ключа до завершения обработки запроса
const pendingMarker = "-"

// DefaultPendingTTL время жизни pending маркера. Если обработчик не дошел
// до Complete/Release, ключ освобождается по истечении этого времени.
const DefaultPendingTTL = time.Minute

// Store резервирует ключи идемпотентности.
//
// Reserve returns ("", nil) when the caller now owns the key and must call
// Complete or Release. A non-empty id means the request was already applied.
// ErrInProgress means another request holds the key.
type Store interface {
	Reserve(ctx context.Context, key string) (string, error)
	Complete(ctx context.Context, key, resourceID string) error
	Release(ctx context.Context, key string) error
}

// Key строит ключ хранилища, ключи разных пользователей не пересекаются
func Key(userID, idempotencyKey string) string {
	return "idem:" + userID + ":" + idempotencyKey
}
