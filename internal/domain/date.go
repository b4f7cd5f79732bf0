package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of a Date.
const DateLayout = "2006-01-02"

// Date is a calendar day without time of day or zone. The zero value is
// not a valid day; use IsZero to detect it.
type Date struct {
	t time.Time
}

// NewDate returns the Date for the given year, month and day. Out-of-range
// values are normalised the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: must be YYYY-MM-DD", s)
	}
	return Date{t: t}, nil
}

// String formats the date as "YYYY-MM-DD".
func (d Date) String() string {
	return d.t.Format(DateLayout)
}

// Month returns the "YYYY-MM" calendar month the date falls in.
func (d Date) Month() string {
	return d.t.Format("2006-01")
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.t.Before(o.t)
}

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool {
	return d.t.After(o.t)
}

// Equal reports whether d and o are the same day.
func (d Date) Equal(o Date) bool {
	return d.t.Equal(o.t)
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return d.t
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer. Dates are stored as ISO strings so the
// same value works for a Postgres DATE column and a SQLite TEXT column.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(DateLayout) {
		// Drivers may hand back a full timestamp for DATE columns.
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthRange returns the first day of the "YYYY-MM" month and the first day
// of the following month.
func MonthRange(month string) (Date, Date, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return Date{}, Date{}, fmt.Errorf("invalid month %q: must be YYYY-MM", month)
	}
	start := Date{t: t}
	return start, Date{t: t.AddDate(0, 1, 0)}, nil
}
