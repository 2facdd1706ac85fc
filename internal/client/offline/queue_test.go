package offline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophbudget/internal/client/network"
	"github.com/iudanet/gophbudget/internal/client/storage"
	"github.com/iudanet/gophbudget/internal/models"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore хранилище очереди в памяти поверх мока
type memStore struct {
	*storage.QueueStorageMock
	mu    sync.Mutex
	saved []models.QueueEntry
}

func newMemStore(initial []models.QueueEntry) *memStore {
	s := &memStore{saved: initial}
	s.QueueStorageMock = &storage.QueueStorageMock{
		LoadQueueFunc: func(ctx context.Context) ([]models.QueueEntry, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			out := make([]models.QueueEntry, len(s.saved))
			copy(out, s.saved)
			return out, nil
		},
		SaveQueueFunc: func(ctx context.Context, entries []models.QueueEntry) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.saved = entries
			return nil
		},
	}
	return s
}

func (s *memStore) Saved() []models.QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.QueueEntry, len(s.saved))
	copy(out, s.saved)
	return out
}

func okWriter() *RemoteWriterMock {
	ok := func(ctx context.Context, idempotencyKey string, payload json.RawMessage) error { return nil }
	return &RemoteWriterMock{
		CreateTransactionFunc: ok,
		CreateCategoryFunc:    ok,
		CreateBudgetFunc:      ok,
		CreateGoalFunc:        ok,
	}
}

func newTestQueue(t *testing.T, online bool, store storage.QueueStorage, writer RemoteWriter, cfg Config) (*Queue, *network.Monitor) {
	t.Helper()

	monitor := network.NewMonitor(online, setupTestLogger())
	q := New(context.Background(), store, writer, monitor, cfg, setupTestLogger())
	t.Cleanup(q.Close)
	return q, monitor
}

// startRun запускает цикл синхронизации до завершения теста
func startRun(t *testing.T, q *Queue) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func longGrace() Config {
	cfg := DefaultConfig()
	cfg.GracePeriod = time.Hour
	return cfg
}

func TestEnqueue_Offline(t *testing.T) {
	store := newMemStore(nil)
	writer := &RemoteWriterMock{} // любой вызов приведет к панике
	q, _ := newTestQueue(t, false, store, writer, DefaultConfig())

	id, err := q.Enqueue(context.Background(), models.KindCategory, map[string]string{"name": "Food"})
	require.NoError(t, err)
	assert.Regexp(t, `^category-[0-9a-f-]{36}$`, id)

	entry, ok := q.Get(id)
	require.True(t, ok)
	assert.Equal(t, models.StatusPending, entry.Status)
	assert.Equal(t, models.KindCategory, entry.Kind)
	assert.JSONEq(t, `{"name":"Food"}`, string(entry.Payload))
	assert.NotZero(t, entry.EnqueuedAt)

	assert.Len(t, q.Snapshot(), 1)
	assert.Empty(t, writer.CreateCategoryCalls())

	saved := store.Saved()
	require.Len(t, saved, 1)
	assert.Equal(t, id, saved[0].ID)
	assert.Equal(t, models.StatusPending, saved[0].Status)
}

func TestEnqueue_Validation(t *testing.T) {
	q, _ := newTestQueue(t, false, newMemStore(nil), okWriter(), DefaultConfig())

	_, err := q.Enqueue(context.Background(), models.QueueKind("invoice"), map[string]any{})
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = q.Enqueue(context.Background(), models.KindGoal, json.RawMessage(`{broken`))
	assert.Error(t, err)

	_, err = q.Enqueue(context.Background(), models.KindGoal, make(chan int))
	assert.Error(t, err)

	assert.Empty(t, q.Snapshot())
}

func TestEnqueue_MonotonicTimestamps(t *testing.T) {
	q, _ := newTestQueue(t, false, newMemStore(nil), okWriter(), DefaultConfig())
	fixed := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	q.now = func() time.Time { return fixed }

	for range 3 {
		_, err := q.Enqueue(context.Background(), models.KindGoal, json.RawMessage(`{}`))
		require.NoError(t, err)
	}

	snap := q.Snapshot()
	require.Len(t, snap, 3)
	assert.Less(t, snap[0].EnqueuedAt, snap[1].EnqueuedAt)
	assert.Less(t, snap[1].EnqueuedAt, snap[2].EnqueuedAt)
}

func TestEnqueue_PersistenceErrorIsNotSurfaced(t *testing.T) {
	store := &storage.QueueStorageMock{
		LoadQueueFunc: func(ctx context.Context) ([]models.QueueEntry, error) {
			return nil, errors.New("disk gone")
		},
		SaveQueueFunc: func(ctx context.Context, entries []models.QueueEntry) error {
			return errors.New("disk gone")
		},
	}
	q, _ := newTestQueue(t, false, store, okWriter(), DefaultConfig())
	assert.Empty(t, q.Snapshot())

	id, err := q.Enqueue(context.Background(), models.KindBudget, json.RawMessage(`{"amount":10}`))
	require.NoError(t, err)

	_, ok := q.Get(id)
	assert.True(t, ok)
	assert.Len(t, store.SaveQueueCalls(), 1)
}

func TestEnqueue_OnlineTriggersSync(t *testing.T) {
	writer := okWriter()
	q, _ := newTestQueue(t, true, newMemStore(nil), writer, longGrace())
	startRun(t, q)

	id, err := q.Enqueue(context.Background(), models.KindTransaction, json.RawMessage(`{"amount":5}`))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		e, ok := q.Get(id)
		return ok && e.Status == models.StatusSynced
	}, time.Second, 5*time.Millisecond)

	calls := writer.CreateTransactionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, id, calls[0].IdempotencyKey)
}

func TestGet_ReturnsCopy(t *testing.T) {
	q, _ := newTestQueue(t, false, newMemStore(nil), okWriter(), DefaultConfig())

	id, err := q.Enqueue(context.Background(), models.KindGoal, json.RawMessage(`{"name":"car"}`))
	require.NoError(t, err)

	e, _ := q.Get(id)
	e.Status = models.StatusSynced
	e.Payload[2] = 'X'

	again, _ := q.Get(id)
	assert.Equal(t, models.StatusPending, again.Status)
	assert.Equal(t, `{"name":"car"}`, string(again.Payload))

	_, ok := q.Get("goal-missing")
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	store := newMemStore(nil)
	q, _ := newTestQueue(t, false, store, okWriter(), DefaultConfig())

	id, err := q.Enqueue(context.Background(), models.KindCategory, json.RawMessage(`{"name":"Rent"}`))
	require.NoError(t, err)

	assert.ErrorIs(t, q.Remove(context.Background(), "category-unknown"), ErrEntryNotFound)

	require.NoError(t, q.Remove(context.Background(), id))
	_, ok := q.Get(id)
	assert.False(t, ok)
	assert.Empty(t, store.Saved())
}

func TestRemove_SyncingEntry(t *testing.T) {
	store := newMemStore([]models.QueueEntry{
		{ID: "goal-1", Kind: models.KindGoal, Payload: json.RawMessage(`{}`), EnqueuedAt: 1, Status: models.StatusPending},
	})
	q, _ := newTestQueue(t, true, store, okWriter(), DefaultConfig())

	_, ok := q.markSyncing(context.Background(), "goal-1")
	require.True(t, ok)

	assert.ErrorIs(t, q.Remove(context.Background(), "goal-1"), ErrEntrySyncing)
	_, ok = q.Get("goal-1")
	assert.True(t, ok)
}

func TestHydrate(t *testing.T) {
	store := newMemStore([]models.QueueEntry{
		{ID: "transaction-1", Kind: models.KindTransaction, Payload: json.RawMessage(`{}`), EnqueuedAt: 1, Status: models.StatusSyncing},
		{ID: "category-2", Kind: models.KindCategory, Payload: json.RawMessage(`{}`), EnqueuedAt: 2, Status: models.StatusSynced},
		{ID: "budget-3", Kind: models.KindBudget, Payload: json.RawMessage(`{}`), EnqueuedAt: 3, Status: models.StatusFailed, Attempts: 2, LastError: "boom"},
		{ID: "goal-4", Kind: models.KindGoal, Payload: json.RawMessage(`{}`), EnqueuedAt: 4, Status: models.StatusPending},
	})
	q, _ := newTestQueue(t, false, store, okWriter(), DefaultConfig())

	snap := q.Snapshot()
	require.Len(t, snap, 3)

	assert.Equal(t, "transaction-1", snap[0].ID)
	assert.Equal(t, models.StatusPending, snap[0].Status)
	assert.Equal(t, "budget-3", snap[1].ID)
	assert.Equal(t, models.StatusFailed, snap[1].Status)
	assert.Equal(t, 2, snap[1].Attempts)
	assert.Equal(t, "goal-4", snap[2].ID)

	// Восстановленное состояние сразу записано в хранилище
	saved := store.Saved()
	require.Len(t, saved, 3)
	assert.Equal(t, models.StatusPending, saved[0].Status)
}

func TestHydrate_NoRewriteWhenClean(t *testing.T) {
	store := newMemStore([]models.QueueEntry{
		{ID: "goal-1", Kind: models.KindGoal, Payload: json.RawMessage(`{}`), EnqueuedAt: 1, Status: models.StatusPending},
	})
	newTestQueue(t, false, store, okWriter(), DefaultConfig())

	assert.Empty(t, store.SaveQueueCalls())
}

func TestSubscribe(t *testing.T) {
	q, _ := newTestQueue(t, false, newMemStore(nil), okWriter(), DefaultConfig())

	ch, release := q.Subscribe()
	defer release()

	// текущий снимок приходит сразу
	snap := <-ch
	assert.Empty(t, snap)

	_, err := q.Enqueue(context.Background(), models.KindGoal, json.RawMessage(`{}`))
	require.NoError(t, err)
	_, err = q.Enqueue(context.Background(), models.KindGoal, json.RawMessage(`{}`))
	require.NoError(t, err)

	// медленный подписчик видит только последний снимок
	snap = <-ch
	assert.Len(t, snap, 2)
	select {
	case <-ch:
		t.Fatal("unexpected extra snapshot")
	default:
	}

	release()
	release()
	_, open := <-ch
	assert.False(t, open)
}

func TestClose_StopsPruneTimers(t *testing.T) {
	store := newMemStore(nil)
	cfg := DefaultConfig()
	cfg.GracePeriod = 20 * time.Millisecond
	q, _ := newTestQueue(t, true, store, okWriter(), cfg)

	id, err := q.Enqueue(context.Background(), models.KindGoal, json.RawMessage(`{}`))
	require.NoError(t, err)
	_, err = q.Sync(context.Background())
	require.NoError(t, err)

	q.Close()
	time.Sleep(60 * time.Millisecond)

	e, ok := q.Get(id)
	require.True(t, ok)
	assert.Equal(t, models.StatusSynced, e.Status)

	// при следующей загрузке запись отбрасывается
	reloaded := New(context.Background(), store, okWriter(), network.NewMonitor(false, setupTestLogger()), cfg, setupTestLogger())
	defer reloaded.Close()
	assert.Empty(t, reloaded.Snapshot())
}
