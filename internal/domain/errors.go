package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for errors.Is. The structured errors below unwrap to one
// of these.
var (
	ErrValidation     = errors.New("validation failed")
	ErrFareNotFound   = errors.New("fare not found")
	ErrDuplicateDates = errors.New("duplicate dates")
	ErrTooManyDates   = errors.New("too many dates")
	ErrDateConflict   = errors.New("expense already exists for date")
)

// Field keys used in client-facing error payloads.
const (
	FieldFare  = "fare"
	FieldDates = "dates"
	FieldDate  = "date"
)

// fieldErrorer is implemented by every caller-correctable error.
type fieldErrorer interface {
	FieldErrors() map[string][]string
}

// FieldErrors returns the field-level messages carried by a client error,
// or nil when err is not caller-correctable.
func FieldErrors(err error) map[string][]string {
	var fe fieldErrorer
	if errors.As(err, &fe) {
		return fe.FieldErrors()
	}
	return nil
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	return FieldErrors(err) != nil
}

// ValidationError collects structural input problems keyed by field.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns an empty ValidationError ready for Add.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records a message for field.
func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

// Err returns e when at least one field failed, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// FieldErrors implements fieldErrorer.
func (e *ValidationError) FieldErrors() map[string][]string { return e.Fields }

// FareNotFoundError is returned when no fare rule matches a route.
type FareNotFoundError struct {
	From string
	To   string
}

func (e *FareNotFoundError) Error() string {
	return fmt.Sprintf("no fare registered for %s -> %s", e.From, e.To)
}

func (e *FareNotFoundError) Unwrap() error { return ErrFareNotFound }

// FieldErrors implements fieldErrorer.
func (e *FareNotFoundError) FieldErrors() map[string][]string {
	return map[string][]string{FieldFare: {e.Error()}}
}

// DuplicateDatesError is returned when a bulk request repeats a date.
type DuplicateDatesError struct {
	Dates []Date
}

func (e *DuplicateDatesError) Error() string {
	return "duplicate dates in request: " + joinDates(e.Dates)
}

func (e *DuplicateDatesError) Unwrap() error { return ErrDuplicateDates }

// FieldErrors implements fieldErrorer.
func (e *DuplicateDatesError) FieldErrors() map[string][]string {
	return map[string][]string{FieldDates: {e.Error()}}
}

// TooManyDatesError is returned when a bulk request exceeds the date limit.
type TooManyDatesError struct {
	Count int
	Max   int
}

func (e *TooManyDatesError) Error() string {
	return fmt.Sprintf("too many dates: got %d, at most %d allowed", e.Count, e.Max)
}

func (e *TooManyDatesError) Unwrap() error { return ErrTooManyDates }

// FieldErrors implements fieldErrorer.
func (e *TooManyDatesError) FieldErrors() map[string][]string {
	return map[string][]string{FieldDates: {e.Error()}}
}

// DateConflictError is returned when the caller already has an expense on
// one or more of the requested dates. Dates are kept sorted ascending.
type DateConflictError struct {
	Dates []Date
}

// NewDateConflictError copies and sorts dates.
func NewDateConflictError(dates []Date) *DateConflictError {
	sorted := append([]Date(nil), dates...)
	SortDates(sorted)
	return &DateConflictError{Dates: sorted}
}

func (e *DateConflictError) Error() string {
	return "expenses already exist for dates: " + joinDates(e.Dates)
}

func (e *DateConflictError) Unwrap() error { return ErrDateConflict }

// FieldErrors implements fieldErrorer.
func (e *DateConflictError) FieldErrors() map[string][]string {
	return map[string][]string{FieldDates: {e.Error()}}
}

// SortDates sorts dates ascending in place.
func SortDates(dates []Date) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}

func joinDates(dates []Date) string {
	s := make([]string, len(dates))
	for i, d := range dates {
		s[i] = d.String()
	}
	return strings.Join(s, ", ")
}
