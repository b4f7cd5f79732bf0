package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fareclaim/internal/domain"
)

var _ domain.CommuterPassRepository = (*DB)(nil)

const passColumns = "id, user_id, start_station, end_station, valid_from, valid_to, is_active, created_at, updated_at"

// GetOrCreateCommuterPass inserts defaults unless the user already has a
// pass, then reads it back. The unique user_id makes concurrent first calls
// converge on one row.
func (d *DB) GetOrCreateCommuterPass(ctx context.Context, userID int64, defaults domain.CommuterPass) (*domain.CommuterPass, error) {
	now := time.Now().UTC()
	_, err := d.sql.ExecContext(ctx, `
		INSERT INTO commuter_passes (user_id, start_station, end_station, valid_from, valid_to, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, defaults.StartStation, defaults.EndStation, defaults.ValidFrom, defaults.ValidTo, defaults.IsActive, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert default commuter pass: %w", err)
	}

	p, err := scanPass(d.sql.QueryRowContext(ctx,
		"SELECT "+passColumns+" FROM commuter_passes WHERE user_id = $1", userID))
	if err != nil {
		return nil, fmt.Errorf("select commuter pass: %w", err)
	}
	return &p, nil
}

// UpdateCommuterPass overwrites the writable fields of the user's pass.
func (d *DB) UpdateCommuterPass(ctx context.Context, p domain.CommuterPass) (*domain.CommuterPass, error) {
	updated, err := scanPass(d.sql.QueryRowContext(ctx, `
		UPDATE commuter_passes
		SET start_station = $1, end_station = $2, valid_from = $3, valid_to = $4, is_active = $5, updated_at = $6
		WHERE id = $7 AND user_id = $8
		RETURNING `+passColumns,
		p.StartStation, p.EndStation, p.ValidFrom, p.ValidTo, p.IsActive, time.Now().UTC(), p.ID, p.UserID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("commuter pass %d not found", p.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("update commuter pass: %w", err)
	}
	return &updated, nil
}

func scanPass(s scanner) (domain.CommuterPass, error) {
	var p domain.CommuterPass
	err := s.Scan(&p.ID, &p.UserID, &p.StartStation, &p.EndStation,
		&p.ValidFrom, &p.ValidTo, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
