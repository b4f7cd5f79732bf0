package app

import (
	"context"
	"fmt"

	"fareclaim/internal/domain"
	applog "fareclaim/internal/log"
)

// CommuterPassUpdate carries the writable commuter pass fields. A nil field
// was not supplied.
type CommuterPassUpdate struct {
	StartStation *string
	EndStation   *string
	ValidFrom    *domain.Date
	ValidTo      *domain.Date
	IsActive     *bool
}

// CommuterPassService reads and updates the caller's single commuter pass.
type CommuterPassService struct {
	repo domain.CommuterPassRepository
}

// NewCommuterPassService creates a CommuterPassService.
func NewCommuterPassService(repo domain.CommuterPassRepository) *CommuterPassService {
	return &CommuterPassService{repo: repo}
}

// Get returns the user's pass, creating the default one on first access.
func (s *CommuterPassService) Get(ctx context.Context, userID int64) (*domain.CommuterPass, error) {
	pass, err := s.repo.GetOrCreateCommuterPass(ctx, userID, domain.DefaultCommuterPass(userID))
	if err != nil {
		return nil, fmt.Errorf("get commuter pass: %w", err)
	}
	return pass, nil
}

// Replace overwrites every writable field. All fields are required.
func (s *CommuterPassService) Replace(ctx context.Context, userID int64, u CommuterPassUpdate) (*domain.CommuterPass, error) {
	verr := domain.NewValidationError()
	if u.StartStation == nil {
		verr.Add("start_station", "this field is required")
	}
	if u.EndStation == nil {
		verr.Add("end_station", "this field is required")
	}
	if u.ValidFrom == nil {
		verr.Add("valid_from", "this field is required")
	}
	if u.ValidTo == nil {
		verr.Add("valid_to", "this field is required")
	}
	if u.IsActive == nil {
		verr.Add("is_active", "this field is required")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	return s.apply(ctx, userID, u)
}

// Patch overwrites only the supplied fields.
func (s *CommuterPassService) Patch(ctx context.Context, userID int64, u CommuterPassUpdate) (*domain.CommuterPass, error) {
	return s.apply(ctx, userID, u)
}

func (s *CommuterPassService) apply(ctx context.Context, userID int64, u CommuterPassUpdate) (*domain.CommuterPass, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	next := *current
	verr := domain.NewValidationError()
	if u.StartStation != nil {
		next.StartStation = checkStation(verr, "start_station", *u.StartStation)
	}
	if u.EndStation != nil {
		next.EndStation = checkStation(verr, "end_station", *u.EndStation)
	}
	if u.ValidFrom != nil {
		next.ValidFrom = *u.ValidFrom
	}
	if u.ValidTo != nil {
		next.ValidTo = *u.ValidTo
	}
	if u.IsActive != nil {
		next.IsActive = *u.IsActive
	}
	if next.ValidTo.Before(next.ValidFrom) {
		verr.Add("valid_to", "valid_to must not be earlier than valid_from")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateCommuterPass(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("update commuter pass: %w", err)
	}
	applog.FromContext(ctx).WithComponent(applog.ComponentPass).Debug("commuter pass updated",
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldUserID, userID)
	return updated, nil
}
