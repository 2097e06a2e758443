package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"insight/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// StoredTransaction pairs a raw transaction with its ingestion batch.
type StoredTransaction struct {
	BatchID     string
	Transaction core.RawTransaction
}

// InsertRawBatch persists a batch of raw transactions under a single batch ID.
// Each record is stored as its original JSON payload so later enrichment runs
// see exactly what the bank sent. Records without a usable key are skipped.
func (r *SQLiteRepository) InsertRawBatch(ctx context.Context, batchID string, transactions []core.RawTransaction) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin batch insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO raw_transactions (id, batch_id, payload, booking_date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			batch_id = excluded.batch_id,
			payload = excluded.payload,
			booking_date = excluded.booking_date`)
	if err != nil {
		return 0, fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, record := range transactions {
		key := record.Key()
		if key == "" {
			slog.WarnContext(ctx, "Skipping transaction without identifier", "batch_id", batchID)
			continue
		}

		payload, err := json.Marshal(record)
		if err != nil {
			return inserted, fmt.Errorf("marshal transaction %s: %w", key, err)
		}

		bookingDate := record.BookingDateTime
		if bookingDate == "" {
			bookingDate = record.Date
		}

		if _, err := stmt.ExecContext(ctx, key, batchID, string(payload), bookingDate); err != nil {
			return inserted, fmt.Errorf("insert transaction %s: %w", key, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("commit batch insert: %w", err)
	}

	slog.InfoContext(ctx, "Raw transaction batch saved",
		"batch_id", batchID,
		"tx_count", inserted)

	return inserted, nil
}

// ListRawTransactions returns all stored raw transactions, newest booking
// date first.
func (r *SQLiteRepository) ListRawTransactions(ctx context.Context) ([]core.RawTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload FROM raw_transactions
		ORDER BY booking_date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list raw transactions: %w", err)
	}
	defer rows.Close()

	return scanRawTransactions(rows)
}

// ListRawByBatch returns the raw transactions belonging to one ingestion batch.
func (r *SQLiteRepository) ListRawByBatch(ctx context.Context, batchID string) ([]core.RawTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload FROM raw_transactions
		WHERE batch_id = ?
		ORDER BY booking_date DESC, id`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list raw transactions for batch %s: %w", batchID, err)
	}
	defer rows.Close()

	return scanRawTransactions(rows)
}

func scanRawTransactions(rows *sql.Rows) ([]core.RawTransaction, error) {
	var transactions []core.RawTransaction
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan raw transaction: %w", err)
		}

		var record core.RawTransaction
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			return nil, fmt.Errorf("unmarshal raw transaction: %w", err)
		}
		transactions = append(transactions, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw transactions: %w", err)
	}
	return transactions, nil
}

// CountRawTransactions returns the number of stored raw transactions.
func (r *SQLiteRepository) CountRawTransactions(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM raw_transactions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count raw transactions: %w", err)
	}
	return count, nil
}

// UpsertBudget creates or replaces the budget for a category.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, budget core.Budget) error {
	if err := budget.Validate(); err != nil {
		return fmt.Errorf("validate budget: %w", err)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (category, limit_amount, spent_amount)
		VALUES (?, ?, ?)
		ON CONFLICT(category) DO UPDATE SET
			limit_amount = excluded.limit_amount,
			spent_amount = excluded.spent_amount`,
		budget.Category, budget.Limit.String(), budget.Spent.String())
	if err != nil {
		return fmt.Errorf("upsert budget for %s: %w", budget.Category, err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"category", budget.Category,
		"limit", budget.Limit.String())
	return nil
}

// ListBudgets returns all configured category budgets.
func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, category, limit_amount, spent_amount
		FROM budgets ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		var (
			budget       core.Budget
			limit, spent string
		)
		if err := rows.Scan(&budget.ID, &budget.Category, &limit, &spent); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if budget.Limit, err = decimal.NewFromString(limit); err != nil {
			return nil, fmt.Errorf("parse budget limit %q: %w", limit, err)
		}
		if budget.Spent, err = decimal.NewFromString(spent); err != nil {
			return nil, fmt.Errorf("parse budget spent %q: %w", spent, err)
		}
		budgets = append(budgets, budget)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}

// UpsertGoal creates or replaces a savings goal by name.
func (r *SQLiteRepository) UpsertGoal(ctx context.Context, goal core.Goal) error {
	if err := goal.Validate(); err != nil {
		return fmt.Errorf("validate goal: %w", err)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (name, target_amount, saved_amount)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			target_amount = excluded.target_amount,
			saved_amount = excluded.saved_amount`,
		goal.Name, goal.Target.String(), goal.Saved.String())
	if err != nil {
		return fmt.Errorf("upsert goal %s: %w", goal.Name, err)
	}
	return nil
}

// ListGoals returns all savings goals.
func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, target_amount, saved_amount
		FROM goals ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		var (
			goal          core.Goal
			target, saved string
		)
		if err := rows.Scan(&goal.ID, &goal.Name, &target, &saved); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if goal.Target, err = decimal.NewFromString(target); err != nil {
			return nil, fmt.Errorf("parse goal target %q: %w", target, err)
		}
		if goal.Saved, err = decimal.NewFromString(saved); err != nil {
			return nil, fmt.Errorf("parse goal saved %q: %w", saved, err)
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goals, nil
}
