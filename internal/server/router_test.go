package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clientapi "github.com/iudanet/gophbudget/internal/client/api"
	"github.com/iudanet/gophbudget/internal/client/network"
	"github.com/iudanet/gophbudget/internal/client/offline"
	clientstorage "github.com/iudanet/gophbudget/internal/client/storage"
	"github.com/iudanet/gophbudget/internal/client/storage/boltdb"
	"github.com/iudanet/gophbudget/internal/models"
	"github.com/iudanet/gophbudget/internal/server"
	"github.com/iudanet/gophbudget/internal/server/idempotency"
	"github.com/iudanet/gophbudget/internal/server/jwt"
	"github.com/iudanet/gophbudget/internal/server/middleware"
	"github.com/iudanet/gophbudget/internal/server/storage/sqlite"
	"github.com/iudanet/gophbudget/pkg/api"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBackend(t *testing.T, writeLimit *middleware.RateLimiter) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ts := httptest.NewServer(server.NewRouter(server.Deps{
		Logger:      discardLogger(),
		Users:       db,
		Finance:     db,
		DB:          db,
		Idempotency: idempotency.NewMemoryStore(time.Hour),
		WriteLimit:  writeLimit,
		JWT:         jwt.Config{Secret: []byte("integration-secret"), AccessTokenTTL: time.Hour},
		Version:     "test",
	}))
	t.Cleanup(ts.Close)
	return ts
}

func login(t *testing.T, client *clientapi.Client) *api.TokenResponse {
	t.Helper()
	ctx := context.Background()

	_, err := client.Register(ctx, api.RegisterRequest{Username: "alice", Password: "coffee-lover"})
	require.NoError(t, err)

	token, err := client.Login(ctx, api.LoginRequest{Username: "alice", Password: "coffee-lover"})
	require.NoError(t, err)
	return token
}

func TestRouter_Health(t *testing.T) {
	ts := newTestBackend(t, nil)
	client := clientapi.NewClient(ts.URL, 5*time.Second)

	assert.NoError(t, client.Health(context.Background()))
}

func TestRouter_WritesRequireAuth(t *testing.T) {
	ts := newTestBackend(t, nil)
	client := clientapi.NewClient(ts.URL, 5*time.Second)

	_, err := client.CreateGoal(context.Background(), "bogus", "goal-1", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, clientapi.ErrUnauthorized)
}

func TestRouter_ReplayReturnsOriginalID(t *testing.T) {
	ts := newTestBackend(t, nil)
	client := clientapi.NewClient(ts.URL, 5*time.Second)
	token := login(t, client)
	ctx := context.Background()

	cat, err := client.CreateCategory(ctx, token.AccessToken, "category-1",
		json.RawMessage(`{"name":"Food","type":"expense","color":"#ef4444","icon":"cart"}`))
	require.NoError(t, err)

	payload := json.RawMessage(`{"amount":4.5,"description":"Coffee","categoryId":"` + cat.ID +
		`","date":"2024-01-15","type":"expense"}`)

	first, err := client.CreateTransaction(ctx, token.AccessToken, "transaction-1", payload)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := client.CreateTransaction(ctx, token.AccessToken, "transaction-1", payload)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.ID, second.ID)
}

// Очередь копит записи офлайн и досылает их после восстановления связи
func TestRouter_OfflineQueueEndToEnd(t *testing.T) {
	ts := newTestBackend(t, nil)
	client := clientapi.NewClient(ts.URL, 5*time.Second)
	token := login(t, client)
	ctx := context.Background()

	local, err := boltdb.New(ctx, filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	defer func() { _ = local.Close() }()

	require.NoError(t, local.SaveAuth(ctx, &clientstorage.AuthData{
		Username:    "alice",
		UserID:      token.UserID,
		AccessToken: token.AccessToken,
		ExpiresAt:   time.Now().Add(time.Hour).Unix(),
	}))

	cat, err := client.CreateCategory(ctx, token.AccessToken, "category-1",
		json.RawMessage(`{"name":"Food","type":"expense","color":"#ef4444","icon":"cart"}`))
	require.NoError(t, err)

	monitor := network.NewMonitor(false, discardLogger())
	q := offline.New(ctx, local, clientapi.NewWriter(client, local, discardLogger()), monitor,
		offline.Config{GracePeriod: time.Hour}, discardLogger())
	defer q.Close()

	coffeeID, err := q.Enqueue(ctx, models.KindTransaction, map[string]any{
		"amount":      4.5,
		"description": "Coffee",
		"categoryId":  cat.ID,
		"date":        "2024-01-15",
		"type":        "expense",
	})
	require.NoError(t, err)

	badID, err := q.Enqueue(ctx, models.KindTransaction, map[string]any{
		"amount":      -10,
		"description": "Refund",
		"categoryId":  cat.ID,
		"date":        "2024-01-15",
		"type":        "expense",
	})
	require.NoError(t, err)

	_, err = q.Sync(ctx)
	require.ErrorIs(t, err, offline.ErrOffline)

	monitor.SetOnline(true)
	result, err := q.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{badID}, result.FailedIDs)

	coffee, ok := q.Get(coffeeID)
	require.True(t, ok)
	assert.Equal(t, models.StatusSynced, coffee.Status)

	bad, ok := q.Get(badID)
	require.True(t, ok)
	assert.Equal(t, models.StatusFailed, bad.Status)
	assert.Contains(t, bad.LastError, "amount must be greater than zero")

	// Тот же ключ после "потерянного" ответа: сервер не создает дубликат
	replay, err := client.CreateTransaction(ctx, token.AccessToken, coffeeID, coffee.Payload)
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
}

func TestRouter_WriteRateLimit(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute, discardLogger())
	defer limiter.Stop()

	ts := newTestBackend(t, limiter)
	client := clientapi.NewClient(ts.URL, 5*time.Second)
	token := login(t, client)
	ctx := context.Background()

	body := json.RawMessage(`{"name":"Food","type":"expense"}`)
	_, err := client.CreateCategory(ctx, token.AccessToken, "category-1", body)
	require.NoError(t, err)

	_, err = client.CreateCategory(ctx, token.AccessToken, "category-2", body)
	var statusErr *clientapi.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}
