package status

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophbudget/internal/client/network"
	"github.com/iudanet/gophbudget/internal/client/offline"
	"github.com/iudanet/gophbudget/internal/client/storage"
	"github.com/iudanet/gophbudget/internal/models"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	queue   *offline.Queue
	monitor *network.Monitor
	writer  *offline.RemoteWriterMock
	server  *httptest.Server
}

func newTestEnv(t *testing.T, online bool, callErr error) *testEnv {
	t.Helper()

	store := &storage.QueueStorageMock{
		LoadQueueFunc: func(ctx context.Context) ([]models.QueueEntry, error) { return nil, nil },
		SaveQueueFunc: func(ctx context.Context, entries []models.QueueEntry) error { return nil },
	}

	call := func(ctx context.Context, key string, payload json.RawMessage) error { return callErr }
	writer := &offline.RemoteWriterMock{
		CreateTransactionFunc: call,
		CreateCategoryFunc:    call,
		CreateBudgetFunc:      call,
		CreateGoalFunc:        call,
	}

	monitor := network.NewMonitor(online, setupTestLogger())
	cfg := offline.DefaultConfig()
	cfg.GracePeriod = time.Hour
	q := offline.New(context.Background(), store, writer, monitor, cfg, setupTestLogger())
	t.Cleanup(q.Close)

	srv := httptest.NewServer(NewServer(q, monitor, setupTestLogger()).Router())
	t.Cleanup(srv.Close)

	return &testEnv{queue: q, monitor: monitor, writer: writer, server: srv}
}

func (e *testEnv) do(t *testing.T, method, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(e.server.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// startRun запускает цикл синхронизации очереди до конца теста
func (e *testEnv) startRun(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.queue.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestServer_Overview(t *testing.T) {
	env := newTestEnv(t, false, nil)
	_, err := env.queue.Enqueue(context.Background(), models.KindTransaction,
		json.RawMessage(`{"amount":42.50,"description":"Coffee","categoryId":"cat1","date":"2024-01-15","type":"expense"}`))
	require.NoError(t, err)

	resp := env.do(t, http.MethodGet, "/api/v1/queue")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ov Overview
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ov))
	assert.False(t, ov.Online)
	assert.True(t, ov.OfflineBanner)
	assert.Equal(t, 1, ov.Counts.Pending)
	assert.Equal(t, 1, ov.Counts.Outstanding)
	require.Len(t, ov.Items, 1)
	assert.Equal(t, "Expense: Coffee (42.50)", ov.Items[0].Label)
}

func TestServer_Sync(t *testing.T) {
	t.Run("offline", func(t *testing.T) {
		env := newTestEnv(t, false, nil)
		resp := env.do(t, http.MethodPost, "/api/v1/queue/sync")
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("retries failed entries", func(t *testing.T) {
		env := newTestEnv(t, false, errors.New("boom"))
		_, err := env.queue.Enqueue(context.Background(), models.KindGoal, json.RawMessage(`{"name":"Car"}`))
		require.NoError(t, err)
		env.monitor.SetOnline(true)

		resp := env.do(t, http.MethodPost, "/api/v1/queue/sync")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var res offline.SyncResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		assert.Equal(t, 1, res.Selected)
		assert.Equal(t, 1, res.Failed)
		assert.Len(t, env.writer.CreateGoalCalls(), 1)
	})
}

func TestServer_Remove(t *testing.T) {
	env := newTestEnv(t, false, nil)
	id, err := env.queue.Enqueue(context.Background(), models.KindCategory, json.RawMessage(`{"name":"Rent"}`))
	require.NoError(t, err)

	resp := env.do(t, http.MethodDelete, "/api/v1/queue/category-unknown")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/v1/queue/"+id)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, env.queue.Snapshot())
}

func TestServer_Enqueue(t *testing.T) {
	env := newTestEnv(t, false, nil)

	resp := env.post(t, "/api/v1/queue", `{"kind":"category","payload":{"name":"Food","type":"expense"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created EnqueueResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.True(t, strings.HasPrefix(created.ID, "category-"))

	entry, ok := env.queue.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusPending, entry.Status)
	assert.JSONEq(t, `{"name":"Food","type":"expense"}`, string(entry.Payload))
}

func TestServer_EnqueueRejected(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed body", body: `{"kind":`},
		{name: "unknown kind", body: `{"kind":"invoice","payload":{"name":"x"}}`},
		{name: "missing payload", body: `{"kind":"goal"}`},
		{name: "invalid payload", body: `{"kind":"category","payload":{"type":"expense"}}`},
		{name: "payload of wrong shape", body: `{"kind":"budget","payload":[1,2]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false, nil)
			resp := env.post(t, "/api/v1/queue", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Empty(t, env.queue.Snapshot())
		})
	}
}

// Запись, поставленная через HTTP, отправляется циклом синхронизации daemon
func TestServer_EnqueuedEntryIsSynced(t *testing.T) {
	env := newTestEnv(t, true, nil)
	env.startRun(t)

	resp := env.post(t, "/api/v1/queue",
		`{"kind":"transaction","payload":{"amount":4.5,"type":"expense","categoryId":"cat-food","date":"2024-01-15","description":"Coffee"}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created EnqueueResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	require.Eventually(t, func() bool {
		r := env.do(t, http.MethodGet, "/api/v1/queue/"+created.ID)
		if r.StatusCode != http.StatusOK {
			return false
		}
		var v EntryView
		return json.NewDecoder(r.Body).Decode(&v) == nil && v.Status == models.StatusSynced
	}, 3*time.Second, 20*time.Millisecond)

	calls := env.writer.CreateTransactionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, created.ID, calls[0].IdempotencyKey)
}

func TestServer_Entry(t *testing.T) {
	env := newTestEnv(t, false, nil)
	id, err := env.queue.Enqueue(context.Background(), models.KindGoal, json.RawMessage(`{"name":"Car"}`))
	require.NoError(t, err)

	resp := env.do(t, http.MethodGet, "/api/v1/queue/"+id)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var v EntryView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, id, v.ID)
	assert.Equal(t, "goal: Car...", v.Label)

	resp = env.do(t, http.MethodGet, "/api/v1/queue/goal-unknown")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_WebSocket(t *testing.T) {
	env := newTestEnv(t, false, nil)

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/v1/queue/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer func() {
		_ = ws.Close()
		_ = resp.Body.Close()
	}()

	read := func() Envelope {
		t.Helper()
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
		var raw struct {
			Data      json.RawMessage `json:"data"`
			Type      string          `json:"type"`
			Timestamp int64           `json:"timestamp"`
		}
		require.NoError(t, ws.ReadJSON(&raw))
		return Envelope{Type: raw.Type, Data: raw.Data, Timestamp: raw.Timestamp}
	}

	// первым приходит состояние сети, затем текущий снимок
	first := read()
	assert.Equal(t, EventNetworkStatus, first.Type)
	second := read()
	assert.Equal(t, EventQueueSnapshot, second.Type)

	_, err = env.queue.Enqueue(context.Background(), models.KindGoal, json.RawMessage(`{"name":"Car"}`))
	require.NoError(t, err)

	msg := read()
	require.Equal(t, EventQueueSnapshot, msg.Type)
	var ov Overview
	require.NoError(t, json.Unmarshal(msg.Data.(json.RawMessage), &ov))
	assert.Equal(t, 1, ov.Counts.Pending)

	env.monitor.SetOnline(true)
	msg = read()
	require.Equal(t, EventNetworkStatus, msg.Type)
	var nv NetworkView
	require.NoError(t, json.Unmarshal(msg.Data.(json.RawMessage), &nv))
	assert.True(t, nv.Online)
	assert.True(t, nv.OfflineBanner)
}
