// Package status отображает состояние offline очереди для пользователя.
package status

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iudanet/gophbudget/internal/models"
)

// Counts количество записей по состояниям
type Counts struct {
	Pending     int `json:"pending"`
	Syncing     int `json:"syncing"`
	Synced      int `json:"synced"`
	Failed      int `json:"failed"`
	Outstanding int `json:"outstanding"` // pending + failed, число на значке
}

// Count считает записи по состояниям
func Count(entries []models.QueueEntry) Counts {
	var c Counts
	for _, e := range entries {
		switch e.Status {
		case models.StatusPending:
			c.Pending++
		case models.StatusSyncing:
			c.Syncing++
		case models.StatusSynced:
			c.Synced++
		case models.StatusFailed:
			c.Failed++
		}
	}
	c.Outstanding = c.Pending + c.Failed
	return c
}

// AllSynced is true right after a pass drained the queue: something was
// confirmed and nothing is left to send.
func (c Counts) AllSynced() bool {
	return c.Synced > 0 && c.Outstanding == 0 && c.Syncing == 0
}

// labelFields поля payload, из которых строится подпись
type labelFields struct {
	Amount      json.Number `json:"amount"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Name        string      `json:"name"`
	Title       string      `json:"title"`
}

const descriptionLimit = 30

// Label returns a human-readable label for an entry.
//
//	transaction: "Expense: Coffee (42.50)" or "Income: Salary (1000.00)"
//	other kinds: "<kind>: <name|title|description[:30]>..."
func Label(e models.QueueEntry) string {
	var f labelFields
	_ = json.Unmarshal(e.Payload, &f) // payload не обязан содержать эти поля

	if e.Kind == models.KindTransaction {
		flow := "Expense"
		if f.Type == models.FlowIncome {
			flow = "Income"
		}
		label := flow + ": " + f.Description
		if amount, err := decimal.NewFromString(f.Amount.String()); err == nil {
			label += " (" + amount.StringFixed(2) + ")"
		}
		return label
	}

	text := f.Name
	if text == "" {
		text = f.Title
	}
	if text == "" {
		text = truncate(f.Description, descriptionLimit)
	}
	return string(e.Kind) + ": " + text + "..."
}

func truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}

// EntryView запись очереди в виде для отображения
type EntryView struct {
	EnqueuedAt time.Time          `json:"enqueued_at"`
	ID         string             `json:"id"`
	Kind       models.QueueKind   `json:"kind"`
	Status     models.QueueStatus `json:"status"`
	Label      string             `json:"label"`
	LastError  string             `json:"last_error,omitempty"`
	Attempts   int                `json:"attempts"`
	Retryable  bool               `json:"retryable"` // ошибка, доступен повтор или удаление
}

// Views builds view models for all entries, preserving order.
func Views(entries []models.QueueEntry) []EntryView {
	out := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, View(e))
	}
	return out
}

// View builds the view model of one entry.
func View(e models.QueueEntry) EntryView {
	return EntryView{
		EnqueuedAt: time.UnixMilli(e.EnqueuedAt).UTC(),
		ID:         e.ID,
		Kind:       e.Kind,
		Status:     e.Status,
		Label:      Label(e),
		LastError:  e.LastError,
		Attempts:   e.Attempts,
		Retryable:  e.Status == models.StatusFailed,
	}
}
