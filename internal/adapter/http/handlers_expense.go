package adapthttp

import (
	"fmt"
	"net/http"

	"fareclaim/internal/app"
	"fareclaim/internal/domain"
)

type expenseRequest struct {
	readOnlyFields
	Date        string `json:"date"`
	FromStation string `json:"from_station"`
	ToStation   string `json:"to_station"`
	IsRoundTrip bool   `json:"is_round_trip"`
	Note        string `json:"note"`
}

type bulkExpenseRequest struct {
	readOnlyFields
	Dates       []string `json:"dates"`
	FromStation string   `json:"from_station"`
	ToStation   string   `json:"to_station"`
	IsRoundTrip bool     `json:"is_round_trip"`
	Note        string   `json:"note"`
}

func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	items, err := s.expenseSvc.List(r.Context(), user.ID, r.URL.Query().Get("month"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleExpenseCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req expenseRequest
	if !decodeOrReject(w, r, &req) {
		return
	}
	verr := domain.NewValidationError()
	date := parseDate(verr, domain.FieldDate, req.Date)
	if err := verr.Err(); err != nil {
		writeServiceError(w, r, err)
		return
	}

	e, err := s.expenseSvc.Create(r.Context(), user.ID, app.ExpenseInput{
		Date:        date,
		FromStation: req.FromStation,
		ToStation:   req.ToStation,
		IsRoundTrip: req.IsRoundTrip,
		Note:        req.Note,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleExpenseBulkCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req bulkExpenseRequest
	if !decodeOrReject(w, r, &req) {
		return
	}
	verr := domain.NewValidationError()
	dates := make([]domain.Date, 0, len(req.Dates))
	for i, raw := range req.Dates {
		if raw == "" {
			verr.Add(domain.FieldDates, fmt.Sprintf("dates[%d]: this field may not be blank", i))
			continue
		}
		dates = append(dates, parseDate(verr, domain.FieldDates, raw))
	}
	if err := verr.Err(); err != nil {
		writeServiceError(w, r, err)
		return
	}

	created, err := s.expenseSvc.CreateBulk(r.Context(), user.ID, app.BulkExpenseInput{
		Dates:       dates,
		FromStation: req.FromStation,
		ToStation:   req.ToStation,
		IsRoundTrip: req.IsRoundTrip,
		Note:        req.Note,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
