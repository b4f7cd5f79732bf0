// Package backend opens the storage selected by configuration and exposes
// it through the domain ports.
package backend

import (
	"context"
	"fmt"

	"fareclaim/internal/adapter/memory"
	"fareclaim/internal/adapter/postgres"
	"fareclaim/internal/adapter/sqlite"
	"fareclaim/internal/config"
	"fareclaim/internal/domain"
	applog "fareclaim/internal/log"
)

// Stores bundles every repository port over one storage backend.
type Stores struct {
	Name     string
	Fares    domain.FareRuleRepository
	Expenses domain.ExpenseRepository
	Passes   domain.CommuterPassRepository
	Users    domain.UserRepository
	Sessions domain.SessionRepository

	close func() error
}

// Close releases the underlying storage.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects to the backend named by cfg.DataBackend, applying schema
// migrations for the SQL backends.
func Open(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Stores, error) {
	logger = logger.WithComponent(applog.ComponentStorage)

	var (
		stores *Stores
		err    error
	)
	switch cfg.DataBackend {
	case config.BackendMemory:
		stores = fromMemory(memory.New())
	case config.BackendPostgres:
		stores, err = openPostgres(ctx, cfg.DatabaseURL)
	case config.BackendSQLite:
		stores, err = openSQLite(ctx, cfg.SQLiteDBPath)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("storage ready", applog.FieldBackend, stores.Name)
	return stores, nil
}

func fromMemory(db *memory.DB) *Stores {
	return &Stores{
		Name:     config.BackendMemory,
		Fares:    db,
		Expenses: db,
		Passes:   db,
		Users:    db,
		Sessions: db.NewSessionRepo(),
	}
}

func openPostgres(ctx context.Context, connStr string) (*Stores, error) {
	db, err := postgres.Open(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &Stores{
		Name:     config.BackendPostgres,
		Fares:    db,
		Expenses: db,
		Passes:   db,
		Users:    db,
		Sessions: postgres.NewSessionRepo(db),
		close:    db.Close,
	}, nil
}

func openSQLite(ctx context.Context, path string) (*Stores, error) {
	db, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &Stores{
		Name:     config.BackendSQLite,
		Fares:    db,
		Expenses: db,
		Passes:   db,
		Users:    db,
		Sessions: sqlite.NewSessionRepo(db),
		close:    db.Close,
	}, nil
}
