package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"fareclaim/internal/domain"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"iso date", "2025-03-01", "2025-03-01", false},
		{"leap day", "2024-02-29", "2024-02-29", false},
		{"not a leap year", "2025-02-29", "", true},
		{"slashes", "2025/03/01", "", true},
		{"timestamp", "2025-03-01T00:00:00Z", "", true},
		{"empty", "", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := domain.ParseDate(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseDate(%q) = %v; want error", tc.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q): %v", tc.in, err)
			}
			if got.String() != tc.want {
				t.Errorf("ParseDate(%q) = %s; want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := domain.NewDate(2025, time.March, 2)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2025-03-02"` {
		t.Fatalf("marshal = %s", b)
	}
	var back domain.Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back != d {
		t.Fatalf("round trip = %v; want %v", back, d)
	}
	if err := json.Unmarshal([]byte(`"03/02/2025"`), &back); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestDateScan(t *testing.T) {
	want := domain.NewDate(2025, time.January, 31)
	inputs := []any{
		"2025-01-31",
		[]byte("2025-01-31"),
		"2025-01-31T00:00:00Z",
		time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
	}
	for _, in := range inputs {
		var d domain.Date
		if err := d.Scan(in); err != nil {
			t.Fatalf("Scan(%v): %v", in, err)
		}
		if d != want {
			t.Errorf("Scan(%v) = %v; want %v", in, d, want)
		}
	}
	var d domain.Date
	if err := d.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}

func TestMonthRange(t *testing.T) {
	start, end, err := domain.MonthRange("2024-12")
	if err != nil {
		t.Fatal(err)
	}
	if start.String() != "2024-12-01" || end.String() != "2025-01-01" {
		t.Fatalf("MonthRange = %s..%s", start, end)
	}
	if _, _, err := domain.MonthRange("2024-13"); err == nil {
		t.Error("expected error for month 13")
	}
	if _, _, err := domain.MonthRange("202412"); err == nil {
		t.Error("expected error for missing dash")
	}
}

func TestDateMonth(t *testing.T) {
	if got := domain.NewDate(2025, time.July, 9).Month(); got != "2025-07" {
		t.Errorf("Month() = %s", got)
	}
}
