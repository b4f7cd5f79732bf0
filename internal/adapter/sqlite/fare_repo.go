package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fareclaim/internal/domain"
)

var _ domain.FareRuleRepository = (*DB)(nil)

// FindFareRule returns the rule for the exact station pair, or nil.
func (d *DB) FindFareRule(ctx context.Context, from, to string) (*domain.FareRule, error) {
	var r domain.FareRule
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, from_station, to_station, fare_one_way FROM fare_rules WHERE from_station = ? AND to_station = ?",
		from, to,
	).Scan(&r.ID, &r.FromStation, &r.ToStation, &r.FareOneWay)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find fare rule: %w", err)
	}
	return &r, nil
}

// ListFareRules returns all rules ordered by station pair.
func (d *DB) ListFareRules(ctx context.Context) ([]domain.FareRule, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, from_station, to_station, fare_one_way FROM fare_rules ORDER BY from_station, to_station")
	if err != nil {
		return nil, fmt.Errorf("list fare rules: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := []domain.FareRule{}
	for rows.Next() {
		var r domain.FareRule
		if err := rows.Scan(&r.ID, &r.FromStation, &r.ToStation, &r.FareOneWay); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertFareRule inserts a rule or updates the fare of the existing pair.
func (d *DB) UpsertFareRule(ctx context.Context, rule domain.FareRule) (*domain.FareRule, error) {
	err := d.sql.QueryRowContext(ctx, `
		INSERT INTO fare_rules (from_station, to_station, fare_one_way) VALUES (?, ?, ?)
		ON CONFLICT (from_station, to_station) DO UPDATE SET fare_one_way = excluded.fare_one_way
		RETURNING id`,
		rule.FromStation, rule.ToStation, rule.FareOneWay,
	).Scan(&rule.ID)
	if err != nil {
		return nil, fmt.Errorf("upsert fare rule: %w", err)
	}
	return &rule, nil
}
