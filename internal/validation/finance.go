package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iudanet/gophbudget/pkg/api"
)

// DateLayout формат дат в запросах (YYYY-MM-DD)
const DateLayout = time.DateOnly

const (
	maxNameLen        = 64
	maxDescriptionLen = 500
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidateTransaction проверяет аргументы создания транзакции.
// Принадлежность категории пользователю проверяет handler.
func ValidateTransaction(req *api.CreateTransactionRequest) error {
	if err := validateAmount("amount", req.Amount); err != nil {
		return err
	}
	if err := validateFlow(req.Type); err != nil {
		return err
	}
	if _, err := parseDate("date", req.Date); err != nil {
		return err
	}
	if req.CategoryID == "" {
		return fmt.Errorf("categoryId is required")
	}
	if len(req.Description) > maxDescriptionLen {
		return fmt.Errorf("description must not exceed %d characters", maxDescriptionLen)
	}

	if req.RecurringFrequency != "" {
		switch req.RecurringFrequency {
		case "daily", "weekly", "monthly", "yearly":
		default:
			return fmt.Errorf("recurringFrequency must be one of daily, weekly, monthly, yearly")
		}
	}

	for _, tag := range req.Tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("tags cannot contain empty values")
		}
	}

	return nil
}

// ValidateCategory проверяет аргументы создания категории
func ValidateCategory(req *api.CreateCategoryRequest) error {
	if err := validateName(req.Name); err != nil {
		return err
	}
	if err := validateFlow(req.Type); err != nil {
		return err
	}
	if req.Color != "" && !colorPattern.MatchString(req.Color) {
		return fmt.Errorf("color must be a hex value like #ef4444")
	}
	return nil
}

// ValidateBudget проверяет аргументы создания бюджета
func ValidateBudget(req *api.CreateBudgetRequest) error {
	if err := validateAmount("amount", req.Amount); err != nil {
		return err
	}
	if req.CategoryID == "" {
		return fmt.Errorf("categoryId is required")
	}

	switch req.Period {
	case "monthly", "yearly":
	default:
		return fmt.Errorf("period must be monthly or yearly")
	}

	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return err
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("endDate must not be before startDate")
	}

	if req.AlertThreshold != nil && (*req.AlertThreshold < 0 || *req.AlertThreshold > 100) {
		return fmt.Errorf("alertThreshold must be between 0 and 100")
	}

	return nil
}

// ValidateGoal проверяет аргументы создания цели
func ValidateGoal(req *api.CreateGoalRequest) error {
	if err := validateName(req.Name); err != nil {
		return err
	}
	if err := validateAmount("targetAmount", req.TargetAmount); err != nil {
		return err
	}
	if _, err := parseDate("targetDate", req.TargetDate); err != nil {
		return err
	}
	if len(req.Description) > maxDescriptionLen {
		return fmt.Errorf("description must not exceed %d characters", maxDescriptionLen)
	}

	switch req.Priority {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("priority must be one of low, medium, high")
	}

	return nil
}

func validateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%s must be greater than zero", field)
	}
	// копейки, не дробнее
	if amount.Exponent() < -2 && !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%s must have at most 2 decimal places", field)
	}
	return nil
}

func validateFlow(flow string) error {
	switch flow {
	case "income", "expense":
		return nil
	}
	return fmt.Errorf("type must be income or expense")
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len([]rune(name)) > maxNameLen {
		return fmt.Errorf("name must not exceed %d characters", maxNameLen)
	}
	return nil
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	d, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be in YYYY-MM-DD format", field)
	}
	return d, nil
}
