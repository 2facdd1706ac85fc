package storage

import (
	"context"

	"github.com/iudanet/gophbudget/internal/models"
)

//go:generate moq -out queuestorage_mock.go . QueueStorage

// QueueStorage persists the full offline queue as a single snapshot.
type QueueStorage interface {
	// LoadQueue reads the persisted queue.
	// Missing or corrupt data yields an empty queue and no error;
	// an error is returned only when the storage itself cannot be read.
	LoadQueue(ctx context.Context) ([]models.QueueEntry, error)

	// SaveQueue overwrites the persisted queue with entries.
	SaveQueue(ctx context.Context, entries []models.QueueEntry) error
}
