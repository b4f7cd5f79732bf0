package domain

import "context"

// FareRule is the one-way fare for a directed station pair. A→B and B→A
// are independent rules.
type FareRule struct {
	ID          int64  `json:"id"`
	FromStation string `json:"from_station"`
	ToStation   string `json:"to_station"`
	FareOneWay  int64  `json:"fare_one_way"`
}

// FareRuleRepository is the port for the fare rule table. The table holds
// at most one rule per (from, to) pair.
type FareRuleRepository interface {
	// FindFareRule returns (nil, nil) when no rule matches.
	FindFareRule(ctx context.Context, from, to string) (*FareRule, error)
	ListFareRules(ctx context.Context) ([]FareRule, error)
	// UpsertFareRule inserts the rule or replaces the fare of the existing
	// rule for the same pair.
	UpsertFareRule(ctx context.Context, rule FareRule) (*FareRule, error)
}
