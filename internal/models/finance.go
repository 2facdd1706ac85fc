package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Типы операций и категорий
const (
	FlowIncome  = "income"
	FlowExpense = "expense"
)

// Category категория доходов или расходов пользователя
type Category struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"` // income | expense
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
}

// Transaction ручная финансовая операция
type Transaction struct {
	CreatedAt          time.Time       `json:"created_at"`
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	CategoryID         string          `json:"category_id"`
	Description        string          `json:"description"`
	Date               string          `json:"date"` // YYYY-MM-DD
	Type               string          `json:"type"` // income | expense
	RecurringFrequency string          `json:"recurring_frequency,omitempty"`
	Tags               []string        `json:"tags,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	Recurring          bool            `json:"recurring"`
}

// Budget лимит расходов по категории за период
type Budget struct {
	CreatedAt      time.Time       `json:"created_at"`
	AlertThreshold *int            `json:"alert_threshold,omitempty"` // процент 0-100
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	CategoryID     string          `json:"category_id"`
	Period         string          `json:"period"` // monthly | yearly
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	Amount         decimal.Decimal `json:"amount"`
}

// Goal цель накоплений
type Goal struct {
	CreatedAt     time.Time       `json:"created_at"`
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	TargetDate    string          `json:"target_date"`
	Description   string          `json:"description,omitempty"`
	Priority      string          `json:"priority"` // low | medium | high
	Status        string          `json:"status"`   // active | completed | paused
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
}
