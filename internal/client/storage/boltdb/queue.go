package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/gophbudget/internal/client/storage"
	"github.com/iudanet/gophbudget/internal/models"
)

// queueKey ключ, под которым хранится весь снимок очереди
var queueKey = []byte("offlineQueue")

// LoadQueue reads the persisted offline queue.
// Missing or undecodable data is treated as an empty queue; entries that fail
// structural validation are dropped individually.
func (s *Storage) LoadQueue(ctx context.Context) ([]models.QueueEntry, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var raw []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketQueue)
		if bucket == nil {
			return nil
		}

		// Копируем: слайс bbolt валиден только внутри транзакции
		if data := bucket.Get(queueKey); data != nil {
			raw = append([]byte(nil), data...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}

	if len(raw) == 0 {
		return []models.QueueEntry{}, nil
	}

	var decoded []models.QueueEntry
	if err := json.Unmarshal(raw, &decoded); err != nil {
		// Поврежденные данные = пустая очередь, не фатальная ошибка
		return []models.QueueEntry{}, nil
	}

	entries := make([]models.QueueEntry, 0, len(decoded))
	for _, entry := range decoded {
		if entry.Validate() != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// SaveQueue serializes the whole queue and overwrites the previous snapshot.
func (s *Storage) SaveQueue(ctx context.Context, entries []models.QueueEntry) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	if entries == nil {
		entries = []models.QueueEntry{}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal queue: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketQueue)
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}

		if err := bucket.Put(queueKey, data); err != nil {
			return fmt.Errorf("failed to save queue: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}
