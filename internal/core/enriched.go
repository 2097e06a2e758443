package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryInfo is the display triple attached to a category.
type CategoryInfo struct {
	Category string `json:"category"`
	Icon     string `json:"icon"`
	Color    string `json:"color"`
}

// EnrichedTransaction is the normalized, categorized view derived from a
// RawTransaction. It is computed once per record and never mutated. Every
// field is populated: resolution falls back to safe defaults instead of
// leaving gaps.
type EnrichedTransaction struct {
	ID               string          `json:"id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Description      string          `json:"description"`
	Merchant         string          `json:"merchant"`
	Category         string          `json:"category"`
	CategoryIcon     string          `json:"categoryIcon"`
	CategoryColor    string          `json:"categoryColor"`
	Date             time.Time       `json:"date"`
	IsCredit         bool            `json:"isCredit"`
	OriginalCategory string          `json:"originalCategory,omitempty"`
	InferredCategory string          `json:"inferredCategory,omitempty"`
	PayeeName        string          `json:"payeeName,omitempty"`
	PayerName        string          `json:"payerName,omitempty"`
}

// IsExpense reports whether the record counts toward spending aggregates.
func (e EnrichedTransaction) IsExpense() bool {
	return !e.IsCredit && e.Amount.IsNegative()
}
