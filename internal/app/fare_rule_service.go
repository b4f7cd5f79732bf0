package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fareclaim/internal/domain"
	applog "fareclaim/internal/log"
)

// FareRuleService manages the fare rule table out of band from expense
// requests.
type FareRuleService struct {
	rules domain.FareRuleRepository
}

// NewFareRuleService creates a FareRuleService.
func NewFareRuleService(rules domain.FareRuleRepository) *FareRuleService {
	return &FareRuleService{rules: rules}
}

// List returns every fare rule ordered by from and to station.
func (s *FareRuleService) List(ctx context.Context) ([]domain.FareRule, error) {
	rules, err := s.rules.ListFareRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fare rules: %w", err)
	}
	if rules == nil {
		rules = []domain.FareRule{}
	}
	return rules, nil
}

// Import validates every rule and then upserts them. Nothing is written if
// any rule is invalid.
func (s *FareRuleService) Import(ctx context.Context, rules []domain.FareRule) ([]domain.FareRule, error) {
	verr := domain.NewValidationError()
	clean := make([]domain.FareRule, len(rules))
	for i, r := range rules {
		field := fmt.Sprintf("rules[%d]", i)
		r.FromStation = checkStation(verr, field+".from_station", r.FromStation)
		r.ToStation = checkStation(verr, field+".to_station", r.ToStation)
		if r.FareOneWay < 0 {
			verr.Add(field+".fare_one_way", "ensure this value is greater than or equal to 0")
		}
		clean[i] = r
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	stored := make([]domain.FareRule, 0, len(clean))
	for _, r := range clean {
		saved, err := s.rules.UpsertFareRule(ctx, r)
		if err != nil {
			return stored, fmt.Errorf("upsert fare rule %s -> %s: %w", r.FromStation, r.ToStation, err)
		}
		stored = append(stored, *saved)
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentFare).Info("fare rules imported",
		applog.FieldOperation, applog.OpImport,
		applog.FieldCount, len(stored))
	return stored, nil
}

// ImportCSV reads rules from CSV rows of from_station,to_station,fare_one_way
// and imports them. A header row naming those columns is skipped.
func (s *FareRuleService) ImportCSV(ctx context.Context, r io.Reader) ([]domain.FareRule, error) {
	rules, err := ParseFareRulesCSV(r)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, rules)
}

// ParseFareRulesCSV parses fare rules from CSV.
func ParseFareRulesCSV(r io.Reader) ([]domain.FareRule, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var rules []domain.FareRule
	for first := true; ; first = false {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read fare csv: %w", err)
		}
		if first && strings.EqualFold(strings.TrimSpace(rec[2]), "fare_one_way") {
			continue
		}
		fare, err := strconv.ParseInt(strings.TrimSpace(rec[2]), 10, 64)
		if err != nil {
			line, _ := cr.FieldPos(2)
			return nil, fmt.Errorf("fare csv line %d: invalid fare %q", line, rec[2])
		}
		rules = append(rules, domain.FareRule{
			FromStation: rec[0],
			ToStation:   rec[1],
			FareOneWay:  fare,
		})
	}
	return rules, nil
}
