package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fareclaim/internal/domain"
)

var _ domain.ExpenseRepository = (*DB)(nil)

const expenseColumns = "id, user_id, date, from_station, to_station, is_round_trip, calculated_fare, note, created_at, updated_at"

// CreateExpense inserts one expense outside any transaction.
func (d *DB) CreateExpense(ctx context.Context, e domain.Expense) (*domain.Expense, error) {
	return createExpense(ctx, d.sql, e)
}

// ListExpenses returns the user's expenses ordered by date then id, newest first.
func (d *DB) ListExpenses(ctx context.Context, userID int64, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	query := "SELECT " + expenseColumns + " FROM expenses WHERE user_id = ?"
	args := []any{userID}
	if filter.Month != "" {
		start, end, err := domain.MonthRange(filter.Month)
		if err != nil {
			return nil, err
		}
		query += " AND date >= ? AND date < ?"
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
	args := make([]any, 0, len(dates)+1)
	args = append(args, userID)
	for _, dt := range dates {
		args = append(args, dt)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(dates)), ", ")

	rows, err := d.sql.QueryContext(ctx,
		"SELECT date FROM expenses WHERE user_id = ? AND date IN ("+placeholders+") ORDER BY date", args...)
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

// WithTx runs fn inside a transaction. Any error from fn or from an insert
// rolls back every write.
func (d *DB) WithTx(ctx context.Context, fn func(w domain.ExpenseWriter) error) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(txWriter{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type txWriter struct {
	q querier
}

func (w txWriter) CreateExpense(ctx context.Context, e domain.Expense) (*domain.Expense, error) {
	return createExpense(ctx, w.q, e)
}

func createExpense(ctx context.Context, q querier, e domain.Expense) (*domain.Expense, error) {
	now := time.Now().UTC()
	created, err := scanExpense(q.QueryRowContext(ctx, `
		INSERT INTO expenses (user_id, date, from_station, to_station, is_round_trip, calculated_fare, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+expenseColumns,
		e.UserID, e.Date, e.FromStation, e.ToStation, e.IsRoundTrip, e.CalculatedFare, e.Note, now, now,
	))
	if isUniqueViolation(err) {
		return nil, domain.NewDateConflictError([]domain.Date{e.Date})
	}
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	return &created, nil
}

func scanExpense(s scanner) (domain.Expense, error) {
	var e domain.Expense
	err := s.Scan(&e.ID, &e.UserID, &e.Date, &e.FromStation, &e.ToStation,
		&e.IsRoundTrip, &e.CalculatedFare, &e.Note, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}
