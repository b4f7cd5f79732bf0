package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"fareclaim/internal/domain"
	applog "fareclaim/internal/log"
)

const maxBodyBytes = 1 << 20

var (
	errUnauthorized = errors.New("unauthorized")
	errInternal     = errors.New("internal error")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// writeFieldErrors renders a 400 with field-level messages.
func writeFieldErrors(w http.ResponseWriter, fields map[string][]string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"errors": fields})
}

// writeServiceError maps an application error to a response. Client errors
// become 400 with their field messages; anything else is logged and
// reported as a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if fields := domain.FieldErrors(err); fields != nil {
		writeFieldErrors(w, fields)
		return
	}
	applog.FromContext(r.Context()).Error("request failed", applog.FieldError, err)
	writeError(w, http.StatusInternalServerError, errInternal)
}

// readOnlyFields are server-assigned keys that clients may echo back from a
// response. They are accepted and ignored.
type readOnlyFields struct {
	ID        json.RawMessage `json:"id"`
	CreatedAt json.RawMessage `json:"created_at"`
	UpdatedAt json.RawMessage `json:"updated_at"`
}

// parseJSON decodes the request body into dst. Unknown fields are rejected
// so server-computed values such as calculated_fare cannot be submitted.
func parseJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// decodeOrReject decodes the body and writes a 400 on failure.
func decodeOrReject(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := parseJSON(w, r, dst); err != nil {
		writeFieldErrors(w, map[string][]string{"body": {err.Error()}})
		return false
	}
	return true
}

// parseDate parses a "YYYY-MM-DD" field. Empty input yields the zero Date
// so the service can report the field as required.
func parseDate(verr *domain.ValidationError, field, s string) domain.Date {
	if s == "" {
		return domain.Date{}
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		verr.Add(field, err.Error())
	}
	return d
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
