package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iudanet/gophbudget/internal/models"
	"github.com/iudanet/gophbudget/internal/server/idempotency"
	"github.com/iudanet/gophbudget/internal/server/storage"
	"github.com/iudanet/gophbudget/internal/validation"
	"github.com/iudanet/gophbudget/pkg/api"
)

// FinanceHandler принимает записи, которые клиентская очередь отправляет при синхронизации.
// Повтор запроса с тем же Idempotency-Key возвращает id первой записи.
type FinanceHandler struct {
	logger  *slog.Logger
	storage storage.FinanceStorage
	idem    idempotency.Store
	now     func() time.Time
}

// NewFinanceHandler создает handler записей бюджета
func NewFinanceHandler(logger *slog.Logger, financeStorage storage.FinanceStorage, idem idempotency.Store) *FinanceHandler {
	return &FinanceHandler{
		logger:  logger,
		storage: financeStorage,
		idem:    idem,
		now:     time.Now,
	}
}

// CreateTransaction обрабатывает POST /api/v1/transactions
func (h *FinanceHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req api.CreateTransactionRequest

	h.create(w, r, "transaction", &req,
		func() error { return validation.ValidateTransaction(&req) },
		func(ctx context.Context, userID string) (string, error) {
			if _, err := h.storage.GetCategory(ctx, userID, req.CategoryID); err != nil {
				return "", err
			}

			t := &models.Transaction{
				ID:                 uuid.New().String(),
				UserID:             userID,
				CategoryID:         req.CategoryID,
				Amount:             req.Amount,
				Description:        req.Description,
				Date:               req.Date,
				Type:               req.Type,
				Tags:               req.Tags,
				Recurring:          req.Recurring != nil && *req.Recurring,
				RecurringFrequency: req.RecurringFrequency,
				CreatedAt:          h.now(),
			}
			return t.ID, h.storage.CreateTransaction(ctx, t)
		})
}

// CreateCategory обрабатывает POST /api/v1/categories
func (h *FinanceHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req api.CreateCategoryRequest

	h.create(w, r, "category", &req,
		func() error { return validation.ValidateCategory(&req) },
		func(ctx context.Context, userID string) (string, error) {
			c := &models.Category{
				ID:        uuid.New().String(),
				UserID:    userID,
				Name:      req.Name,
				Type:      req.Type,
				Color:     req.Color,
				Icon:      req.Icon,
				CreatedAt: h.now(),
			}
			return c.ID, h.storage.CreateCategory(ctx, c)
		})
}

// CreateBudget обрабатывает POST /api/v1/budgets
func (h *FinanceHandler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var req api.CreateBudgetRequest

	h.create(w, r, "budget", &req,
		func() error { return validation.ValidateBudget(&req) },
		func(ctx context.Context, userID string) (string, error) {
			if _, err := h.storage.GetCategory(ctx, userID, req.CategoryID); err != nil {
				return "", err
			}

			b := &models.Budget{
				ID:             uuid.New().String(),
				UserID:         userID,
				CategoryID:     req.CategoryID,
				Amount:         req.Amount,
				Period:         req.Period,
				StartDate:      req.StartDate,
				EndDate:        req.EndDate,
				AlertThreshold: req.AlertThreshold,
				CreatedAt:      h.now(),
			}
			return b.ID, h.storage.CreateBudget(ctx, b)
		})
}

// CreateGoal обрабатывает POST /api/v1/goals
// Новая цель всегда активна и начинается с нуля
func (h *FinanceHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req api.CreateGoalRequest

	h.create(w, r, "goal", &req,
		func() error { return validation.ValidateGoal(&req) },
		func(ctx context.Context, userID string) (string, error) {
			g := &models.Goal{
				ID:            uuid.New().String(),
				UserID:        userID,
				Name:          req.Name,
				TargetAmount:  req.TargetAmount,
				CurrentAmount: decimal.Zero,
				TargetDate:    req.TargetDate,
				Description:   req.Description,
				Priority:      req.Priority,
				Status:        "active",
				CreatedAt:     h.now(),
			}
			return g.ID, h.storage.CreateGoal(ctx, g)
		})
}

// create общий порядок обработки: auth, decode, validate, idempotency, запись
func (h *FinanceHandler) create(
	w http.ResponseWriter,
	r *http.Request,
	kind string,
	req any,
	validate func() error,
	store func(ctx context.Context, userID string) (string, error),
) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode request", slog.String("kind", kind), slog.Any("error", err))
		sendError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validate(); err != nil {
		h.logger.WarnContext(ctx, "invalid request", slog.String("kind", kind), slog.Any("error", err))
		sendError(w, h.logger, err.Error(), http.StatusBadRequest)
		return
	}

	var idemKey string
	if key := r.Header.Get(api.IdempotencyKeyHeader); key != "" {
		idemKey = idempotency.Key(userID, key)

		existing, err := h.idem.Reserve(ctx, idemKey)
		switch {
		case errors.Is(err, idempotency.ErrInProgress):
			sendError(w, h.logger, "request with this idempotency key is in progress", http.StatusConflict)
			return
		case err != nil:
			h.logger.ErrorContext(ctx, "failed to reserve idempotency key", slog.Any("error", err))
			sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
			return
		case existing != "":
			h.logger.InfoContext(ctx, "replayed write",
				slog.String("kind", kind),
				slog.String("id", existing),
				slog.String("idempotency_key", key))
			sendJSON(w, h.logger, api.CreatedResponse{ID: existing, Replayed: true}, http.StatusOK)
			return
		}
	}

	id, err := store(ctx, userID)

	// отмена запроса клиентом не должна оставлять ключ в состоянии pending
	idemCtx := context.WithoutCancel(ctx)

	if err != nil {
		if idemKey != "" {
			if relErr := h.idem.Release(idemCtx, idemKey); relErr != nil {
				h.logger.WarnContext(ctx, "failed to release idempotency key", slog.Any("error", relErr))
			}
		}
		if errors.Is(err, storage.ErrCategoryNotFound) {
			sendError(w, h.logger, "category not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to store record", slog.String("kind", kind), slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	if idemKey != "" {
		if err := h.idem.Complete(idemCtx, idemKey, id); err != nil {
			// запись уже создана, повтор запроса создаст дубликат
			h.logger.WarnContext(ctx, "failed to complete idempotency key", slog.Any("error", err))
		}
	}

	h.logger.InfoContext(ctx, "record created",
		slog.String("kind", kind),
		slog.String("id", id),
		slog.String("user_id", userID))

	sendJSON(w, h.logger, api.CreatedResponse{ID: id}, http.StatusCreated)
}
