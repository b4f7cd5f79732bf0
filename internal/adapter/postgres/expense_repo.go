package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fareclaim/internal/domain"

	"github.com/lib/pq"
)

var _ domain.ExpenseRepository = (*DB)(nil)

const expenseColumns = "id, user_id, date, from_station, to_station, is_round_trip, calculated_fare, note, created_at, updated_at"

// CreateExpense inserts one expense outside any transaction.
func (d *DB) CreateExpense(ctx context.Context, e domain.Expense) (*domain.Expense, error) {
	return createExpense(ctx, d.sql, e)
}

// ListExpenses returns the user's expenses ordered by date then id, newest first.
func (d *DB) ListExpenses(ctx context.Context, userID int64, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	query := "SELECT " + expenseColumns + " FROM expenses WHERE user_id = $1"
	args := []any{userID}
	if filter.Month != "" {
		start, end, err := domain.MonthRange(filter.Month)
		if err != nil {
			return nil, err
		}
		query += " AND date >= $2 AND date < $3"
		args = append(args, start, end)
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := []domain.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ExistingDates returns the requested dates on which the user already has an expense.
func (d *DB) ExistingDates(ctx context.Context, userID int64, dates []domain.Date) ([]domain.Date, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	days := make([]string, len(dates))
	for i, dt := range dates {
		days[i] = dt.String()
	}

	rows, err := d.sql.QueryContext(ctx,
		"SELECT date FROM expenses WHERE user_id = $1 AND date = ANY($2::date[]) ORDER BY date",
		userID, pq.Array(days))
	if err != nil {
		return nil, fmt.Errorf("existing dates: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Date
	for rows.Next() {
		var dt domain.Date
		if err := rows.Scan(&dt); err != nil {
			return nil, err
		}
		out = append(out, dt)
	}
	return out, rows.Err()
}

// WithTx runs fn inside a read-committed transaction. Any error from fn or
// from an insert rolls back every write.
func (d *DB) WithTx(ctx context.Context, fn func(w domain.ExpenseWriter) error) error {
	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(&expenseTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type expenseTx struct {
	tx *sql.Tx
}

func (t *expenseTx) CreateExpense(ctx context.Context, e domain.Expense) (*domain.Expense, error) {
	return createExpense(ctx, t.tx, e)
}

func createExpense(ctx context.Context, q querier, e domain.Expense) (*domain.Expense, error) {
	now := time.Now().UTC()
	row := q.QueryRowContext(ctx, `
		INSERT INTO expenses (user_id, date, from_station, to_station, is_round_trip, calculated_fare, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING `+expenseColumns,
		e.UserID, e.Date, e.FromStation, e.ToStation, e.IsRoundTrip, e.CalculatedFare, e.Note, now,
	)
	created, err := scanExpense(row)
	if isUniqueViolation(err) {
		return nil, domain.NewDateConflictError([]domain.Date{e.Date})
	}
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	return &created, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (domain.Expense, error) {
	var e domain.Expense
	err := s.Scan(&e.ID, &e.UserID, &e.Date, &e.FromStation, &e.ToStation,
		&e.IsRoundTrip, &e.CalculatedFare, &e.Note, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}
