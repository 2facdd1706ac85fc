package models

import (
	"encoding/json"
	"fmt"
)

// QueueKind определяет, какую удаленную операцию нужно вызвать при синхронизации
type QueueKind string

const (
	KindTransaction QueueKind = "transaction"
	KindCategory    QueueKind = "category"
	KindBudget      QueueKind = "budget"
	KindGoal        QueueKind = "goal"
)

// Valid reports whether k is one of the four known remote write kinds.
func (k QueueKind) Valid() bool {
	switch k {
	case KindTransaction, KindCategory, KindBudget, KindGoal:
		return true
	}
	return false
}

// QueueStatus состояние записи в offline очереди
type QueueStatus string

const (
	StatusPending QueueStatus = "pending"
	StatusSyncing QueueStatus = "syncing"
	StatusSynced  QueueStatus = "synced"
	StatusFailed  QueueStatus = "error" // persisted as "error" for compatibility with existing queues
)

// Eligible reports whether an entry in this status is picked up by a sync pass.
func (s QueueStatus) Eligible() bool {
	return s == StatusPending || s == StatusFailed
}

// QueueEntry одна отложенная (или недавно синхронизированная) запись offline очереди.
// JSON layout matches the persisted on-device format; attempts, lastError and
// nextAttemptAt are additive bookkeeping omitted when zero.
type QueueEntry struct {
	ID            string          `json:"id"`                      // ID уникальный идентификатор (<kind>-<uuid>)
	Kind          QueueKind       `json:"type"`                    // Kind тип удаленной операции
	Payload       json.RawMessage `json:"data"`                    // Payload аргумент удаленной операции, передается как есть
	EnqueuedAt    int64           `json:"timestamp"`               // EnqueuedAt время постановки в очередь (unix ms)
	Status        QueueStatus     `json:"status"`                  // Status текущее состояние
	Attempts      int             `json:"attempts,omitempty"`      // Attempts количество попыток синхронизации
	LastError     string          `json:"lastError,omitempty"`     // LastError текст последней ошибки
	NextAttemptAt int64           `json:"nextAttemptAt,omitempty"` // NextAttemptAt не раньше этого времени (unix ms), 0 = сразу
}

// Clone создает глубокую копию записи
func (e *QueueEntry) Clone() QueueEntry {
	c := *e
	if e.Payload != nil {
		c.Payload = make(json.RawMessage, len(e.Payload))
		copy(c.Payload, e.Payload)
	}
	return c
}

// Validate checks the structural invariants of a persisted entry.
func (e *QueueEntry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("queue entry id is empty")
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("queue entry %s has unknown kind %q", e.ID, e.Kind)
	}
	switch e.Status {
	case StatusPending, StatusSyncing, StatusSynced, StatusFailed:
	default:
		return fmt.Errorf("queue entry %s has unknown status %q", e.ID, e.Status)
	}
	return nil
}
