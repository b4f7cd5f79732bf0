package domain

import (
	"context"
	"time"
)

// CommuterPass describes a user's subscribed route and its validity window.
// Each user has exactly one.
type CommuterPass struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"-"`
	StartStation string    `json:"start_station"`
	EndStation   string    `json:"end_station"`
	ValidFrom    Date      `json:"valid_from"`
	ValidTo      Date      `json:"valid_to"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DefaultCommuterPass is the placeholder record created on first access.
func DefaultCommuterPass(userID int64) CommuterPass {
	placeholder := NewDate(2000, time.January, 1)
	return CommuterPass{
		UserID:    userID,
		ValidFrom: placeholder,
		ValidTo:   placeholder,
		IsActive:  true,
	}
}

// CommuterPassRepository is the port for commuter pass persistence.
type CommuterPassRepository interface {
	// GetOrCreateCommuterPass returns the user's pass, inserting defaults
	// first if the user has none. Concurrent first calls return the same
	// record.
	GetOrCreateCommuterPass(ctx context.Context, userID int64, defaults CommuterPass) (*CommuterPass, error)
	// UpdateCommuterPass overwrites the writable fields of the pass with
	// p.ID owned by p.UserID.
	UpdateCommuterPass(ctx context.Context, p CommuterPass) (*CommuterPass, error)
}
