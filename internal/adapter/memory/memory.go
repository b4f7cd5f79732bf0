// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"fareclaim/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu        sync.Mutex
	users     []*domain.User
	sessions  map[string]*domain.Session
	fareRules []domain.FareRule
	passes    map[int64]*domain.CommuterPass
	expenses  []domain.Expense

	userIDCounter     int64
	fareRuleIDCounter int64
	passIDCounter     int64
	expenseIDCounter  int64

	now func() time.Time
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[string]*domain.Session),
		passes:   make(map[int64]*domain.CommuterPass),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ensure interfaces are met.
var _ domain.FareRuleRepository = (*DB)(nil)
var _ domain.ExpenseRepository = (*DB)(nil)
var _ domain.CommuterPassRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- FareRuleRepository ---

// FindFareRule returns the rule for the exact station pair.
func (db *DB) FindFareRule(ctx context.Context, from, to string) (*domain.FareRule, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, r := range db.fareRules {
		if r.FromStation == from && r.ToStation == to {
			found := r
			return &found, nil
		}
	}
	return nil, nil
}

// ListFareRules lists all rules ordered by station pair.
func (db *DB) ListFareRules(ctx context.Context) ([]domain.FareRule, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.FareRule, len(db.fareRules))
	copy(result, db.fareRules)
	sort.Slice(result, func(i, j int) bool {
		if result[i].FromStation != result[j].FromStation {
			return result[i].FromStation < result[j].FromStation
		}
		return result[i].ToStation < result[j].ToStation
	})
	return result, nil
}

// UpsertFareRule inserts a rule or updates the fare of the existing pair.
func (db *DB) UpsertFareRule(ctx context.Context, rule domain.FareRule) (*domain.FareRule, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.fareRules {
		r := &db.fareRules[i]
		if r.FromStation == rule.FromStation && r.ToStation == rule.ToStation {
			r.FareOneWay = rule.FareOneWay
			saved := *r
			return &saved, nil
		}
	}

	db.fareRuleIDCounter++
	rule.ID = db.fareRuleIDCounter
	db.fareRules = append(db.fareRules, rule)
	return &rule, nil
}

// --- ExpenseRepository ---

// CreateExpense stores a single expense outside any transaction.
func (db *DB) CreateExpense(ctx context.Context, e domain.Expense) (*domain.Expense, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.hasExpenseLocked(e.UserID, e.Date) {
		return nil, domain.NewDateConflictError([]domain.Date{e.Date})
	}
	e = db.stampExpenseLocked(e)
	db.expenses = append(db.expenses, e)
	return &e, nil
}

// ListExpenses lists the user's expenses, newest date first.
func (db *DB) ListExpenses(ctx context.Context, userID int64, filter domain.ExpenseFilter) ([]domain.Expense, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := []domain.Expense{}
	for _, e := range db.expenses {
		if e.UserID != userID {
			continue
		}
		if filter.Month != "" && e.Date.Month() != filter.Month {
			continue
		}
		result = append(result, e)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// ExistingDates returns which of dates already carry an expense for the user.
func (db *DB) ExistingDates(ctx context.Context, userID int64, dates []domain.Date) ([]domain.Date, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var found []domain.Date
	for _, d := range dates {
		if db.hasExpenseLocked(userID, d) {
			found = append(found, d)
		}
	}
	return found, nil
}

// WithTx stages every write made through the writer and applies them only
// if fn succeeds. Conflicts are checked again at commit.
func (db *DB) WithTx(ctx context.Context, fn func(w domain.ExpenseWriter) error) error {
	tx := &expenseTx{db: db}
	if err := fn(tx); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	var conflicts []domain.Date
	for _, e := range tx.staged {
		if db.hasExpenseLocked(e.UserID, e.Date) {
			conflicts = append(conflicts, e.Date)
		}
	}
	if len(conflicts) > 0 {
		return domain.NewDateConflictError(conflicts)
	}
	db.expenses = append(db.expenses, tx.staged...)
	return nil
}

type expenseTx struct {
	db     *DB
	staged []domain.Expense
}

func (tx *expenseTx) CreateExpense(ctx context.Context, e domain.Expense) (*domain.Expense, error) {
	tx.db.mu.Lock()
	defer tx.db.mu.Unlock()

	if tx.db.hasExpenseLocked(e.UserID, e.Date) {
		return nil, domain.NewDateConflictError([]domain.Date{e.Date})
	}
	for _, s := range tx.staged {
		if s.UserID == e.UserID && s.Date.Equal(e.Date) {
			return nil, domain.NewDateConflictError([]domain.Date{e.Date})
		}
	}
	e = tx.db.stampExpenseLocked(e)
	tx.staged = append(tx.staged, e)
	return &e, nil
}

func (db *DB) hasExpenseLocked(userID int64, d domain.Date) bool {
	for _, e := range db.expenses {
		if e.UserID == userID && e.Date.Equal(d) {
			return true
		}
	}
	return false
}

func (db *DB) stampExpenseLocked(e domain.Expense) domain.Expense {
	db.expenseIDCounter++
	now := db.now()
	e.ID = db.expenseIDCounter
	e.CreatedAt = now
	e.UpdatedAt = now
	return e
}

// --- CommuterPassRepository ---

// GetOrCreateCommuterPass returns the user's pass, storing defaults if absent.
func (db *DB) GetOrCreateCommuterPass(ctx context.Context, userID int64, defaults domain.CommuterPass) (*domain.CommuterPass, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if p, ok := db.passes[userID]; ok {
		found := *p
		return &found, nil
	}

	db.passIDCounter++
	now := db.now()
	p := defaults
	p.ID = db.passIDCounter
	p.UserID = userID
	p.CreatedAt = now
	p.UpdatedAt = now
	db.passes[userID] = &p

	created := p
	return &created, nil
}

// UpdateCommuterPass overwrites the writable fields of the user's pass.
func (db *DB) UpdateCommuterPass(ctx context.Context, p domain.CommuterPass) (*domain.CommuterPass, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored, ok := db.passes[p.UserID]
	if !ok || stored.ID != p.ID {
		return nil, fmt.Errorf("commuter pass %d not found", p.ID)
	}
	stored.StartStation = p.StartStation
	stored.EndStation = p.EndStation
	stored.ValidFrom = p.ValidFrom
	stored.ValidTo = p.ValidTo
	stored.IsActive = p.IsActive
	stored.UpdatedAt = db.now()

	updated := *stored
	return &updated, nil
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			found := *u
			return &found, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			found := *u
			return &found, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    db.now(),
	}
	db.users = append(db.users, u)

	created := *u
	return &created, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: r.db.now(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		found := *s
		return &found, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
