package adapthttp

import (
	"context"
	"net/http"

	"fareclaim/internal/app"
	"fareclaim/internal/domain"
)

type commuterPassRequest struct {
	readOnlyFields
	StartStation *string `json:"start_station"`
	EndStation   *string `json:"end_station"`
	ValidFrom    *string `json:"valid_from"`
	ValidTo      *string `json:"valid_to"`
	IsActive     *bool   `json:"is_active"`
}

// update converts the request, collecting date format problems in verr.
func (req commuterPassRequest) update(verr *domain.ValidationError) app.CommuterPassUpdate {
	u := app.CommuterPassUpdate{
		StartStation: req.StartStation,
		EndStation:   req.EndStation,
		IsActive:     req.IsActive,
	}
	u.ValidFrom = parseOptionalDate(verr, "valid_from", req.ValidFrom)
	u.ValidTo = parseOptionalDate(verr, "valid_to", req.ValidTo)
	return u
}

func parseOptionalDate(verr *domain.ValidationError, field string, s *string) *domain.Date {
	if s == nil {
		return nil
	}
	if *s == "" {
		verr.Add(field, "this field may not be blank")
		return nil
	}
	d := parseDate(verr, field, *s)
	return &d
}

func (s *Server) handleCommuterPassGet(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	pass, err := s.passSvc.Get(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pass)
}

func (s *Server) handleCommuterPassPut(w http.ResponseWriter, r *http.Request) {
	s.updateCommuterPass(w, r, s.passSvc.Replace)
}

func (s *Server) handleCommuterPassPatch(w http.ResponseWriter, r *http.Request) {
	s.updateCommuterPass(w, r, s.passSvc.Patch)
}

type passUpdater func(ctx context.Context, userID int64, u app.CommuterPassUpdate) (*domain.CommuterPass, error)

func (s *Server) updateCommuterPass(w http.ResponseWriter, r *http.Request, apply passUpdater) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req commuterPassRequest
	if !decodeOrReject(w, r, &req) {
		return
	}
	verr := domain.NewValidationError()
	u := req.update(verr)
	if err := verr.Err(); err != nil {
		writeServiceError(w, r, err)
		return
	}

	pass, err := apply(r.Context(), user.ID, u)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pass)
}
