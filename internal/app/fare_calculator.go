package app

import (
	"context"
	"fmt"

	"fareclaim/internal/domain"
)

// FareCalculator prices a trip from the fare rule table. Rules are read on
// every call.
type FareCalculator struct {
	rules domain.FareRuleRepository
}

// NewFareCalculator creates a FareCalculator backed by the given rule store.
func NewFareCalculator(rules domain.FareRuleRepository) *FareCalculator {
	return &FareCalculator{rules: rules}
}

// Calculate returns the fare for travelling from one station to another.
// A round trip costs twice the one-way fare. A missing rule yields
// *domain.FareNotFoundError.
func (c *FareCalculator) Calculate(ctx context.Context, from, to string, roundTrip bool) (int64, error) {
	rule, err := c.rules.FindFareRule(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("find fare rule: %w", err)
	}
	if rule == nil {
		return 0, &domain.FareNotFoundError{From: from, To: to}
	}

	fare := rule.FareOneWay
	if roundTrip {
		fare *= 2
	}
	return fare, nil
}
