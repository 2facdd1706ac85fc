package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophbudget/internal/models"
	"github.com/iudanet/gophbudget/internal/server/idempotency"
	"github.com/iudanet/gophbudget/pkg/api"
)

const testUserID = "user-1"

type financeEnv struct {
	handler *FinanceHandler
	storage *mockFinanceStorage
	idem    *idempotency.MemoryStore
}

func newFinanceEnv() *financeEnv {
	fs := newMockFinanceStorage()
	fs.categories["cat-food"] = &models.Category{ID: "cat-food", UserID: testUserID, Name: "Food", Type: "expense"}
	fs.categories["cat-other"] = &models.Category{ID: "cat-other", UserID: "user-2", Name: "Rent", Type: "expense"}

	idem := idempotency.NewMemoryStore(time.Hour)
	return &financeEnv{
		handler: NewFinanceHandler(setupTestLogger(), fs, idem),
		storage: fs,
		idem:    idem,
	}
}

func (e *financeEnv) do(handler http.HandlerFunc, userID, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if key != "" {
		req.Header.Set(api.IdempotencyKeyHeader, key)
	}
	if userID != "" {
		req = req.WithContext(WithUser(req.Context(), userID, "alice"))
	}
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

const coffeeBody = `{"amount":4.5,"description":"Coffee","categoryId":"cat-food","date":"2024-01-15","type":"expense","tags":["morning"]}`

func TestFinanceHandler_CreateTransaction(t *testing.T) {
	env := newFinanceEnv()

	w := env.do(env.handler.CreateTransaction, testUserID, "transaction-1", coffeeBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp api.CreatedResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.ID)
	assert.False(t, resp.Replayed)

	require.Len(t, env.storage.transactions, 1)
	tx := env.storage.transactions[0]
	assert.Equal(t, resp.ID, tx.ID)
	assert.Equal(t, testUserID, tx.UserID)
	assert.Equal(t, "4.5", tx.Amount.String())
	assert.Equal(t, []string{"morning"}, tx.Tags)
	assert.False(t, tx.Recurring)
}

func TestFinanceHandler_IdempotentReplay(t *testing.T) {
	env := newFinanceEnv()

	first := env.do(env.handler.CreateTransaction, testUserID, "transaction-1", coffeeBody)
	require.Equal(t, http.StatusCreated, first.Code)
	var created api.CreatedResponse
	require.NoError(t, json.NewDecoder(first.Body).Decode(&created))

	// ответ потерялся, очередь отправляет запись еще раз
	second := env.do(env.handler.CreateTransaction, testUserID, "transaction-1", coffeeBody)
	require.Equal(t, http.StatusOK, second.Code)

	var replayed api.CreatedResponse
	require.NoError(t, json.NewDecoder(second.Body).Decode(&replayed))
	assert.Equal(t, created.ID, replayed.ID)
	assert.True(t, replayed.Replayed)

	assert.Equal(t, 1, env.storage.transactionCount())
}

func TestFinanceHandler_NoKeyNoDedup(t *testing.T) {
	env := newFinanceEnv()

	require.Equal(t, http.StatusCreated, env.do(env.handler.CreateTransaction, testUserID, "", coffeeBody).Code)
	require.Equal(t, http.StatusCreated, env.do(env.handler.CreateTransaction, testUserID, "", coffeeBody).Code)

	assert.Equal(t, 2, env.storage.transactionCount())
}

func TestFinanceHandler_InProgressKey(t *testing.T) {
	env := newFinanceEnv()

	_, err := env.idem.Reserve(context.Background(), idempotency.Key(testUserID, "transaction-1"))
	require.NoError(t, err)

	w := env.do(env.handler.CreateTransaction, testUserID, "transaction-1", coffeeBody)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 0, env.storage.transactionCount())
}

func TestFinanceHandler_ConcurrentDuplicatesCreateOnce(t *testing.T) {
	env := newFinanceEnv()

	var wg sync.WaitGroup
	codes := make([]int, 10)
	for i := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = env.do(env.handler.CreateTransaction, testUserID, "transaction-1", coffeeBody).Code
		}()
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		assert.Contains(t, []int{http.StatusCreated, http.StatusOK, http.StatusConflict}, code)
		if code == http.StatusCreated {
			created++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, env.storage.transactionCount())
}

func TestFinanceHandler_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		body     string
		wantCode int
	}{
		{name: "unauthenticated", userID: "", body: coffeeBody, wantCode: http.StatusUnauthorized},
		{name: "malformed body", userID: testUserID, body: `{"amount":`, wantCode: http.StatusBadRequest},
		{
			name:     "negative amount",
			userID:   testUserID,
			body:     `{"amount":-1,"description":"x","categoryId":"cat-food","date":"2024-01-15","type":"expense"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "foreign category",
			userID:   testUserID,
			body:     `{"amount":1,"description":"x","categoryId":"cat-other","date":"2024-01-15","type":"expense"}`,
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newFinanceEnv()
			w := env.do(env.handler.CreateTransaction, tt.userID, "transaction-x", tt.body)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, 0, env.storage.transactionCount())

			var errResp api.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
			assert.NotEmpty(t, errResp.Message)
		})
	}
}

func TestFinanceHandler_FailedWriteReleasesKey(t *testing.T) {
	env := newFinanceEnv()

	body := `{"amount":1,"description":"x","categoryId":"cat-other","date":"2024-01-15","type":"expense"}`
	require.Equal(t, http.StatusNotFound, env.do(env.handler.CreateTransaction, testUserID, "transaction-1", body).Code)

	// после ошибки тот же ключ можно использовать снова
	assert.Equal(t, 0, env.idem.Len())
	assert.Equal(t, http.StatusCreated, env.do(env.handler.CreateTransaction, testUserID, "transaction-1", coffeeBody).Code)
}

func TestFinanceHandler_StorageError(t *testing.T) {
	env := newFinanceEnv()
	env.storage.createError = errors.New("disk I/O error")

	w := env.do(env.handler.CreateGoal, testUserID, "goal-1",
		`{"name":"Vacation","targetAmount":2000,"targetDate":"2024-12-31","priority":"high"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk")
	assert.Equal(t, 0, env.idem.Len())
}

func TestFinanceHandler_CreateCategoryBudgetGoal(t *testing.T) {
	env := newFinanceEnv()

	w := env.do(env.handler.CreateCategory, testUserID, "category-1",
		`{"name":"Travel","type":"expense","color":"#3b82f6","icon":"plane"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var cat api.CreatedResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&cat))
	assert.Equal(t, testUserID, env.storage.categories[cat.ID].UserID)

	w = env.do(env.handler.CreateBudget, testUserID, "budget-1",
		`{"categoryId":"`+cat.ID+`","amount":500,"period":"monthly","startDate":"2024-01-01","endDate":"2024-01-31","alertThreshold":80}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, env.storage.budgets, 1)
	require.NotNil(t, env.storage.budgets[0].AlertThreshold)
	assert.Equal(t, 80, *env.storage.budgets[0].AlertThreshold)

	w = env.do(env.handler.CreateGoal, testUserID, "goal-1",
		`{"name":"Vacation","targetAmount":2000,"targetDate":"2024-12-31","priority":"high"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, env.storage.goals, 1)
	assert.Equal(t, "active", env.storage.goals[0].Status)
	assert.True(t, env.storage.goals[0].CurrentAmount.IsZero())
}

// ctxCheckingStore отказывает в операциях с отмененным контекстом, как Redis
type ctxCheckingStore struct {
	*idempotency.MemoryStore
}

func (s ctxCheckingStore) Complete(ctx context.Context, key, resourceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.Complete(ctx, key, resourceID)
}

func (s ctxCheckingStore) Release(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.MemoryStore.Release(ctx, key)
}

func TestFinanceHandler_ClientDisconnectAfterWrite(t *testing.T) {
	fs := newMockFinanceStorage()
	idem := idempotency.NewMemoryStore(time.Hour)
	handler := NewFinanceHandler(setupTestLogger(), fs, ctxCheckingStore{idem})

	const body = `{"name":"Travel","type":"expense"}`
	send := func(ctx context.Context) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(api.IdempotencyKeyHeader, "category-1")
		req = req.WithContext(WithUser(ctx, testUserID, "alice"))
		w := httptest.NewRecorder()
		handler.CreateCategory(w, req)
		return w
	}

	// клиент отключился сразу после записи строки
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fs.afterCreate = cancel

	first := send(ctx)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	var created api.CreatedResponse
	require.NoError(t, json.NewDecoder(first.Body).Decode(&created))

	fs.afterCreate = nil
	second := send(context.Background())
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())

	var replayed api.CreatedResponse
	require.NoError(t, json.NewDecoder(second.Body).Decode(&replayed))
	assert.True(t, replayed.Replayed)
	assert.Equal(t, created.ID, replayed.ID)
	assert.Len(t, fs.categories, 1)
}

func TestFinanceHandler_ClientDisconnectOnFailedWrite(t *testing.T) {
	fs := newMockFinanceStorage()
	fs.createError = errors.New("database is locked")
	idem := idempotency.NewMemoryStore(time.Hour)
	handler := NewFinanceHandler(setupTestLogger(), fs, ctxCheckingStore{idem})

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Travel","type":"expense"}`))
	req.Header.Set(api.IdempotencyKeyHeader, "category-1")
	req = req.WithContext(WithUser(ctx, testUserID, "alice"))
	cancel()

	w := httptest.NewRecorder()
	handler.CreateCategory(w, req)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	// ключ освобожден, повтор не получает 409
	assert.Equal(t, 0, idem.Len())
}
