package status

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/gophbudget/internal/client/offline"
	"github.com/iudanet/gophbudget/internal/models"
	"github.com/iudanet/gophbudget/internal/validation"
	"github.com/iudanet/gophbudget/pkg/api"
)

// validatePayload проверяет payload так же, как команды add перед постановкой в очередь
func validatePayload(kind models.QueueKind, payload json.RawMessage) error {
	if len(payload) == 0 {
		return errors.New("payload is required")
	}

	var err error
	switch kind {
	case models.KindTransaction:
		var req api.CreateTransactionRequest
		if err = json.Unmarshal(payload, &req); err == nil {
			err = validation.ValidateTransaction(&req)
		}
	case models.KindCategory:
		var req api.CreateCategoryRequest
		if err = json.Unmarshal(payload, &req); err == nil {
			err = validation.ValidateCategory(&req)
		}
	case models.KindBudget:
		var req api.CreateBudgetRequest
		if err = json.Unmarshal(payload, &req); err == nil {
			err = validation.ValidateBudget(&req)
		}
	case models.KindGoal:
		var req api.CreateGoalRequest
		if err = json.Unmarshal(payload, &req); err == nil {
			err = validation.ValidateGoal(&req)
		}
	default:
		return fmt.Errorf("%w: %q", offline.ErrUnknownKind, kind)
	}

	if err != nil {
		return fmt.Errorf("invalid %s: %w", kind, err)
	}
	return nil
}
