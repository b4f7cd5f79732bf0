package domain

import (
	"context"
	"time"
)

// Input bounds shared by the workflows and the storage schema.
const (
	MaxStationLength = 100
	MaxNoteLength    = 255
	MaxBulkDates     = 31
)

// Expense is a single day's travel reimbursement claim. CalculatedFare is
// always computed by the server.
type Expense struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"-"`
	Date           Date      `json:"date"`
	FromStation    string    `json:"from_station"`
	ToStation      string    `json:"to_station"`
	IsRoundTrip    bool      `json:"is_round_trip"`
	CalculatedFare int64     `json:"calculated_fare"`
	Note           string    `json:"note"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ExpenseFilter narrows ListExpenses. A zero filter matches everything.
type ExpenseFilter struct {
	// Month is a "YYYY-MM" calendar month.
	Month string
}

// ExpenseWriter creates expenses. Inside WithTx it is bound to the open
// transaction.
type ExpenseWriter interface {
	// CreateExpense persists e and returns the stored record. A second
	// expense for the same user and date fails with *DateConflictError.
	CreateExpense(ctx context.Context, e Expense) (*Expense, error)
}

// ExpenseRepository is the port for expense persistence. Every query is
// scoped to one user.
type ExpenseRepository interface {
	ExpenseWriter
	// ListExpenses returns the user's expenses ordered by date descending,
	// then id descending.
	ListExpenses(ctx context.Context, userID int64, filter ExpenseFilter) ([]Expense, error)
	// ExistingDates returns the subset of dates on which the user already
	// has an expense.
	ExistingDates(ctx context.Context, userID int64, dates []Date) ([]Date, error)
	// WithTx runs fn in a single transaction. If fn returns an error every
	// write made through the writer is rolled back; otherwise all commit.
	WithTx(ctx context.Context, fn func(w ExpenseWriter) error) error
}
