package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyName     = errors.New("empty name")
	ErrInvalidLimit  = errors.New("limit must be positive")
	ErrInvalidTarget = errors.New("target must be positive")
)

// Budget is a saved per-category spending limit. Budgets are persisted by the
// storage layer and only ever read by the insights engine, which overlays
// them onto computed spending aggregates.
type Budget struct {
	ID       string          `json:"id"`
	Category string          `json:"category"`
	Limit    decimal.Decimal `json:"limit"`
	Spent    decimal.Decimal `json:"spent"`
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if !b.Limit.IsPositive() {
		return ErrInvalidLimit
	}
	return nil
}

// Goal is a saved savings target, read-only for this service.
type Goal struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Target decimal.Decimal `json:"target"`
	Saved  decimal.Decimal `json:"saved"`
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !g.Target.IsPositive() {
		return ErrInvalidTarget
	}
	return nil
}

// GoalProgress is a Goal with its completion ratio, as served alongside the
// financial summary.
type GoalProgress struct {
	Name     string          `json:"name"`
	Target   decimal.Decimal `json:"target"`
	Saved    decimal.Decimal `json:"saved"`
	Progress float64         `json:"progress"`
}
