package app

import (
	"context"
	"errors"
	"fmt"

	"fareclaim/internal/domain"
	applog "fareclaim/internal/log"
)

// ExpenseInput is a single expense request. The fare is never part of it.
type ExpenseInput struct {
	Date        domain.Date
	FromStation string
	ToStation   string
	IsRoundTrip bool
	Note        string
}

// BulkExpenseInput requests one expense per date over the same route.
type BulkExpenseInput struct {
	Dates       []domain.Date
	FromStation string
	ToStation   string
	IsRoundTrip bool
	Note        string
}

// ExpenseService implements the expense workflows.
type ExpenseService struct {
	repo  domain.ExpenseRepository
	fares *FareCalculator
}

// NewExpenseService creates an ExpenseService.
func NewExpenseService(repo domain.ExpenseRepository, fares *FareCalculator) *ExpenseService {
	return &ExpenseService{repo: repo, fares: fares}
}

// Create validates in, prices the route and stores one expense owned by
// userID.
func (s *ExpenseService) Create(ctx context.Context, userID int64, in ExpenseInput) (*domain.Expense, error) {
	verr := domain.NewValidationError()
	if in.Date.IsZero() {
		verr.Add(domain.FieldDate, "this field is required")
	}
	from := checkStation(verr, "from_station", in.FromStation)
	to := checkStation(verr, "to_station", in.ToStation)
	note := checkNote(verr, in.Note)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	logger := applog.FromContext(ctx).WithComponent(applog.ComponentExpense)

	fare, err := s.fares.Calculate(ctx, from, to, in.IsRoundTrip)
	if err != nil {
		if errors.Is(err, domain.ErrFareNotFound) {
			logger.Info("fare not found", applog.FieldFrom, from, applog.FieldTo, to)
		}
		return nil, err
	}

	e, err := s.repo.CreateExpense(ctx, domain.Expense{
		UserID:         userID,
		Date:           in.Date,
		FromStation:    from,
		ToStation:      to,
		IsRoundTrip:    in.IsRoundTrip,
		CalculatedFare: fare,
		Note:           note,
	})
	if err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	logger.Debug("expense created",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldUserID, userID,
		applog.FieldFare, fare)
	return e, nil
}

// List returns the user's expenses, newest date first. A non-empty month
// must be "YYYY-MM".
func (s *ExpenseService) List(ctx context.Context, userID int64, month string) ([]domain.Expense, error) {
	if month != "" {
		if _, _, err := domain.MonthRange(month); err != nil {
			verr := domain.NewValidationError()
			verr.Add("month", err.Error())
			return nil, verr
		}
	}

	items, err := s.repo.ListExpenses(ctx, userID, domain.ExpenseFilter{Month: month})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if items == nil {
		items = []domain.Expense{}
	}
	return items, nil
}

// CreateBulk stores one expense per requested date, all or none. Input and
// conflicts are checked before the transaction opens. The transaction is
// detached from ctx cancellation so it always ends in commit or rollback.
// Records are returned in input order.
func (s *ExpenseService) CreateBulk(ctx context.Context, userID int64, in BulkExpenseInput) ([]domain.Expense, error) {
	if err := checkBulkDates(in.Dates); err != nil {
		return nil, err
	}
	verr := domain.NewValidationError()
	from := checkStation(verr, "from_station", in.FromStation)
	to := checkStation(verr, "to_station", in.ToStation)
	note := checkNote(verr, in.Note)
	if err := verr.Err(); err != nil {
		return nil, err
	}

	logger := applog.FromContext(ctx).WithComponent(applog.ComponentExpense)

	existing, err := s.repo.ExistingDates(ctx, userID, in.Dates)
	if err != nil {
		return nil, fmt.Errorf("check existing dates: %w", err)
	}
	if len(existing) > 0 {
		return nil, domain.NewDateConflictError(existing)
	}

	fare, err := s.fares.Calculate(ctx, from, to, in.IsRoundTrip)
	if err != nil {
		if errors.Is(err, domain.ErrFareNotFound) {
			logger.Info("fare not found", applog.FieldFrom, from, applog.FieldTo, to)
		}
		return nil, err
	}

	txCtx := context.WithoutCancel(ctx)
	var created []domain.Expense
	err = s.repo.WithTx(txCtx, func(w domain.ExpenseWriter) error {
		created = make([]domain.Expense, 0, len(in.Dates))
		for _, d := range in.Dates {
			e, err := w.CreateExpense(txCtx, domain.Expense{
				UserID:         userID,
				Date:           d,
				FromStation:    from,
				ToStation:      to,
				IsRoundTrip:    in.IsRoundTrip,
				CalculatedFare: fare,
				Note:           note,
			})
			if err != nil {
				return err
			}
			created = append(created, *e)
		}
		return nil
	})
	if err != nil {
		var conflict *domain.DateConflictError
		if errors.As(err, &conflict) {
			return nil, conflict
		}
		return nil, fmt.Errorf("create expenses: %w", err)
	}

	logger.Info("bulk expenses created",
		applog.FieldOperation, applog.OpCreateBulk,
		applog.FieldUserID, userID,
		applog.FieldCount, len(created),
		applog.FieldFare, fare)
	return created, nil
}

func checkBulkDates(dates []domain.Date) error {
	if len(dates) == 0 {
		verr := domain.NewValidationError()
		verr.Add(domain.FieldDates, "at least one date is required")
		return verr
	}
	if len(dates) > domain.MaxBulkDates {
		return &domain.TooManyDatesError{Count: len(dates), Max: domain.MaxBulkDates}
	}

	seen := make(map[string]int, len(dates))
	var dups []domain.Date
	for _, d := range dates {
		if d.IsZero() {
			verr := domain.NewValidationError()
			verr.Add(domain.FieldDates, "dates may not contain an empty value")
			return verr
		}
		seen[d.String()]++
		if seen[d.String()] == 2 {
			dups = append(dups, d)
		}
	}
	if len(dups) > 0 {
		domain.SortDates(dups)
		return &domain.DuplicateDatesError{Dates: dups}
	}
	return nil
}
