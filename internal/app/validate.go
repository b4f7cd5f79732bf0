package app

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"fareclaim/internal/domain"
)

// checkStation trims s and records a problem under field when it is empty
// or too long.
func checkStation(verr *domain.ValidationError, field, s string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		verr.Add(field, "this field may not be blank")
	case utf8.RuneCountInString(s) > domain.MaxStationLength:
		verr.Add(field, fmt.Sprintf("ensure this field has no more than %d characters", domain.MaxStationLength))
	}
	return s
}

func checkNote(verr *domain.ValidationError, note string) string {
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > domain.MaxNoteLength {
		verr.Add("note", fmt.Sprintf("ensure this field has no more than %d characters", domain.MaxNoteLength))
	}
	return note
}
