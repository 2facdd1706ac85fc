package api

import "github.com/shopspring/decimal"

// IdempotencyKeyHeader заголовок, по которому backend отбрасывает повторную запись
const IdempotencyKeyHeader = "Idempotency-Key"

// CreateTransactionRequest аргументы создания транзакции.
// Field names follow the payload format stored in the offline queue.
type CreateTransactionRequest struct {
	Recurring          *bool           `json:"recurring,omitempty"`
	Description        string          `json:"description"`
	CategoryID         string          `json:"categoryId"`
	Date               string          `json:"date"`
	Type               string          `json:"type"`
	RecurringFrequency string          `json:"recurringFrequency,omitempty"`
	Tags               []string        `json:"tags,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
}

// CreateCategoryRequest аргументы создания категории
type CreateCategoryRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// CreateBudgetRequest аргументы создания бюджета
type CreateBudgetRequest struct {
	AlertThreshold *int            `json:"alertThreshold,omitempty"`
	CategoryID     string          `json:"categoryId"`
	Period         string          `json:"period"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
	Amount         decimal.Decimal `json:"amount"`
}

// CreateGoalRequest аргументы создания цели накоплений
type CreateGoalRequest struct {
	Name         string          `json:"name"`
	TargetDate   string          `json:"targetDate"`
	Description  string          `json:"description,omitempty"`
	Priority     string          `json:"priority"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
}

// CreatedResponse ответ на успешное создание записи
type CreatedResponse struct {
	ID       string `json:"id"`                 // ID созданной записи
	Replayed bool   `json:"replayed,omitempty"` // true если запрос с этим Idempotency-Key уже был обработан
}
