// Package offline хранит изменения, сделанные без связи, и отправляет их на
// сервер после восстановления соединения.
//
// Queue is the single source of truth during a session. Every in-memory change is
// written through to the durable store before the mutating call returns; store
// failures are logged and never surfaced to callers.
package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/gophbudget/internal/client/network"
	"github.com/iudanet/gophbudget/internal/client/storage"
	"github.com/iudanet/gophbudget/internal/models"
)

// DefaultGracePeriod время, в течение которого синхронизированная запись остается видимой
const DefaultGracePeriod = 3 * time.Second

// Connectivity is the part of the connectivity monitor the queue depends on.
type Connectivity interface {
	IsOnline() bool
	Subscribe() (<-chan network.Event, func())
}

// Config настройки очереди
type Config struct {
	RetryPolicy RetryPolicy
	GracePeriod time.Duration
}

// DefaultConfig returns the default queue configuration.
func DefaultConfig() Config {
	return Config{
		GracePeriod: DefaultGracePeriod,
		RetryPolicy: NoBackoff{},
	}
}

// Queue offline очередь удаленных операций
type Queue struct {
	store   storage.QueueStorage
	writer  RemoteWriter
	conn    Connectivity
	policy  RetryPolicy
	logger  *slog.Logger
	now     func() time.Time
	trigger chan struct{}
	subs    map[int]chan []models.QueueEntry
	prune   map[string]*time.Timer
	entries []*models.QueueEntry
	grace   time.Duration
	nextSub int
	mu      sync.Mutex
	closed  bool

	// passMu защищает running и rerun как одну пару
	passMu  sync.Mutex
	running bool // идет проход синхронизации
	rerun   bool // во время прохода пришел еще один запрос
}

// New creates a queue and hydrates it from the store.
func New(
	ctx context.Context,
	store storage.QueueStorage,
	writer RemoteWriter,
	conn Connectivity,
	cfg Config,
	logger *slog.Logger,
) *Queue {
	if cfg.RetryPolicy == nil {
		cfg.RetryPolicy = NoBackoff{}
	}
	if cfg.GracePeriod < 0 {
		cfg.GracePeriod = 0
	}

	q := &Queue{
		store:   store,
		writer:  writer,
		conn:    conn,
		policy:  cfg.RetryPolicy,
		logger:  logger,
		now:     time.Now,
		trigger: make(chan struct{}, 1),
		subs:    make(map[int]chan []models.QueueEntry),
		prune:   make(map[string]*time.Timer),
		grace:   cfg.GracePeriod,
	}

	q.hydrate(ctx)
	return q
}

// hydrate загружает очередь из хранилища.
// Syncing -> Pending: ни один вызов не переживает перезапуск.
// Synced записи уже применены на сервере и отбрасываются.
func (q *Queue) hydrate(ctx context.Context) {
	loaded, err := q.store.LoadQueue(ctx)
	if err != nil {
		q.logger.Warn("Failed to load offline queue, starting empty", "error", err)
		loaded = nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	changed := false
	q.entries = make([]*models.QueueEntry, 0, len(loaded))
	for i := range loaded {
		entry := loaded[i]
		switch entry.Status {
		case models.StatusSynced:
			changed = true
			continue
		case models.StatusSyncing:
			entry.Status = models.StatusPending
			changed = true
		}
		q.entries = append(q.entries, &entry)
	}

	if changed {
		q.persistLocked(ctx)
	}

	q.logger.Debug("Offline queue hydrated", "entries", len(q.entries))
}

// Enqueue adds a new Pending entry and returns its id.
// payload may be json.RawMessage, []byte with JSON, or any value encodable as JSON.
// When online a sync pass is triggered in the background.
func (q *Queue) Enqueue(ctx context.Context, kind models.QueueKind, payload any) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	raw, err := encodePayload(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}

	entry := &models.QueueEntry{
		ID:      string(kind) + "-" + uuid.NewString(),
		Kind:    kind,
		Payload: raw,
		Status:  models.StatusPending,
	}

	q.mu.Lock()
	entry.EnqueuedAt = q.nextTimestampLocked()
	q.entries = append(q.entries, entry)
	q.persistLocked(ctx)
	q.notifyLocked()
	q.mu.Unlock()

	q.logger.Info("Entry enqueued", "entry_id", entry.ID, "kind", kind)

	if q.conn.IsOnline() {
		q.Trigger()
	}

	return entry.ID, nil
}

func encodePayload(payload any) (json.RawMessage, error) {
	var raw []byte
	switch p := payload.(type) {
	case json.RawMessage:
		raw = p
	case []byte:
		raw = p
	default:
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		return b, nil
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}

	c := make(json.RawMessage, len(raw))
	copy(c, raw)
	return c, nil
}

// nextTimestampLocked возвращает строго возрастающее время постановки (unix ms)
func (q *Queue) nextTimestampLocked() int64 {
	ts := q.now().UnixMilli()
	if n := len(q.entries); n > 0 && ts <= q.entries[n-1].EnqueuedAt {
		ts = q.entries[n-1].EnqueuedAt + 1
	}
	return ts
}

// Trigger requests a sync pass from Run. Requests are coalesced.
func (q *Queue) Trigger() {
	select {
	case q.trigger <- struct{}{}:
	default:
	}
}

// Get returns a copy of the entry with the given id.
func (q *Queue) Get(id string) (models.QueueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if i := q.indexLocked(id); i >= 0 {
		return q.entries[i].Clone(), true
	}
	return models.QueueEntry{}, false
}

// Remove discards an entry. An entry that is being synced cannot be removed.
func (q *Queue) Remove(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := q.indexLocked(id)
	if i < 0 {
		return ErrEntryNotFound
	}
	if q.entries[i].Status == models.StatusSyncing {
		return ErrEntrySyncing
	}

	q.removeLocked(i)
	q.persistLocked(ctx)
	q.notifyLocked()

	q.logger.Info("Entry discarded", "entry_id", id)
	return nil
}

// Snapshot returns copies of all entries in enqueue order.
func (q *Queue) Snapshot() []models.QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

// IsOnline reports the current connectivity state.
func (q *Queue) IsOnline() bool {
	return q.conn.IsOnline()
}

// Syncing reports whether a sync pass is running.
func (q *Queue) Syncing() bool {
	q.passMu.Lock()
	defer q.passMu.Unlock()
	return q.running
}

// Subscribe returns a channel receiving the full snapshot after every change.
// The current snapshot is delivered immediately. A slow reader only sees the
// latest snapshot. The release func is idempotent.
func (q *Queue) Subscribe() (<-chan []models.QueueEntry, func()) {
	ch := make(chan []models.QueueEntry, 1)

	q.mu.Lock()
	id := q.nextSub
	q.nextSub++
	q.subs[id] = ch
	ch <- q.snapshotLocked()
	q.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			q.mu.Lock()
			defer q.mu.Unlock()
			delete(q.subs, id)
			close(ch)
		})
	}
	return ch, release
}

// Close stops pending prune timers. Entries left in Synced are dropped on next hydration.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	for id, t := range q.prune {
		t.Stop()
		delete(q.prune, id)
	}
}

func (q *Queue) indexLocked(id string) int {
	for i, e := range q.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (q *Queue) removeLocked(i int) {
	id := q.entries[i].ID
	if t, ok := q.prune[id]; ok {
		t.Stop()
		delete(q.prune, id)
	}
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
}

func (q *Queue) snapshotLocked() []models.QueueEntry {
	out := make([]models.QueueEntry, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.Clone()
	}
	return out
}

// persistLocked пишет полный снимок очереди в хранилище
func (q *Queue) persistLocked(ctx context.Context) {
	if err := q.store.SaveQueue(ctx, q.snapshotLocked()); err != nil {
		q.logger.Warn("Failed to persist offline queue", "error", err)
	}
}

func (q *Queue) notifyLocked() {
	if len(q.subs) == 0 {
		return
	}
	snap := q.snapshotLocked()
	for _, ch := range q.subs {
		// Вытесняем старый снимок, чтобы не блокировать очередь
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
