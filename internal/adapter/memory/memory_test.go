package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"fareclaim/internal/domain"
)

func d(s string) domain.Date {
	v, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestFareRuleRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	rule, err := db.UpsertFareRule(ctx, domain.FareRule{FromStation: "Tokyo", ToStation: "Shibuya", FareOneWay: 200})
	if err != nil {
		t.Fatalf("UpsertFareRule: %v", err)
	}
	if rule.ID == 0 {
		t.Error("expected non-zero ID")
	}

	// Same pair updates in place
	again, err := db.UpsertFareRule(ctx, domain.FareRule{FromStation: "Tokyo", ToStation: "Shibuya", FareOneWay: 210})
	if err != nil {
		t.Fatalf("UpsertFareRule: %v", err)
	}
	if again.ID != rule.ID || again.FareOneWay != 210 {
		t.Errorf("expected update of rule %d to 210, got %+v", rule.ID, again)
	}

	found, err := db.FindFareRule(ctx, "Tokyo", "Shibuya")
	if err != nil {
		t.Fatalf("FindFareRule: %v", err)
	}
	if found == nil || found.FareOneWay != 210 {
		t.Errorf("expected fare 210, got %+v", found)
	}

	// Direction matters
	reverse, err := db.FindFareRule(ctx, "Shibuya", "Tokyo")
	if err != nil {
		t.Fatalf("FindFareRule: %v", err)
	}
	if reverse != nil {
		t.Errorf("expected no reverse rule, got %+v", reverse)
	}

	_, _ = db.UpsertFareRule(ctx, domain.FareRule{FromStation: "Shibuya", ToStation: "Tokyo", FareOneWay: 200})
	rules, _ := db.ListFareRules(ctx)
	if len(rules) != 2 || rules[0].FromStation != "Shibuya" {
		t.Errorf("expected 2 rules sorted by from station, got %+v", rules)
	}
}

func TestExpenseRepository(t *testing.T) {
	db := New()
	ctx := context.Background()
	userID := int64(1)

	for _, day := range []string{"2025-03-02", "2025-03-01", "2025-04-01"} {
		if _, err := db.CreateExpense(ctx, domain.Expense{UserID: userID, Date: d(day), FromStation: "A", ToStation: "B"}); err != nil {
			t.Fatalf("CreateExpense %s: %v", day, err)
		}
	}

	// Same user and date is rejected
	_, err := db.CreateExpense(ctx, domain.Expense{UserID: userID, Date: d("2025-03-01")})
	if !errors.Is(err, domain.ErrDateConflict) {
		t.Errorf("expected ErrDateConflict, got %v", err)
	}

	// Other user may use the same date
	if _, err := db.CreateExpense(ctx, domain.Expense{UserID: 2, Date: d("2025-03-01")}); err != nil {
		t.Errorf("other user: %v", err)
	}

	all, err := db.ListExpenses(ctx, userID, domain.ExpenseFilter{})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	want := []string{"2025-04-01", "2025-03-02", "2025-03-01"}
	if len(all) != len(want) {
		t.Fatalf("expected %d expenses, got %d", len(want), len(all))
	}
	for i, w := range want {
		if all[i].Date.String() != w {
			t.Errorf("position %d: expected %s, got %s", i, w, all[i].Date)
		}
	}

	march, _ := db.ListExpenses(ctx, userID, domain.ExpenseFilter{Month: "2025-03"})
	if len(march) != 2 {
		t.Errorf("expected 2 March expenses, got %d", len(march))
	}

	existing, err := db.ExistingDates(ctx, userID, []domain.Date{d("2025-03-01"), d("2025-03-05"), d("2025-04-01")})
	if err != nil {
		t.Fatalf("ExistingDates: %v", err)
	}
	if len(existing) != 2 {
		t.Errorf("expected 2 existing dates, got %v", existing)
	}
}

func TestWithTx_CommitAndRollback(t *testing.T) {
	db := New()
	ctx := context.Background()
	userID := int64(1)

	err := db.WithTx(ctx, func(w domain.ExpenseWriter) error {
		if _, err := w.CreateExpense(ctx, domain.Expense{UserID: userID, Date: d("2025-01-01")}); err != nil {
			return err
		}
		_, err := w.CreateExpense(ctx, domain.Expense{UserID: userID, Date: d("2025-01-02")})
		return err
	})
	if err != nil {
		t.Fatalf("WithTx commit: %v", err)
	}

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(w domain.ExpenseWriter) error {
		if _, err := w.CreateExpense(ctx, domain.Expense{UserID: userID, Date: d("2025-01-03")}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	items, _ := db.ListExpenses(ctx, userID, domain.ExpenseFilter{})
	if len(items) != 2 {
		t.Errorf("expected only the committed 2 expenses, got %d", len(items))
	}
}

func TestWithTx_ConflictInsideBatch(t *testing.T) {
	db := New()
	ctx := context.Background()

	err := db.WithTx(ctx, func(w domain.ExpenseWriter) error {
		if _, err := w.CreateExpense(ctx, domain.Expense{UserID: 1, Date: d("2025-01-01")}); err != nil {
			return err
		}
		_, err := w.CreateExpense(ctx, domain.Expense{UserID: 1, Date: d("2025-01-01")})
		return err
	})
	if !errors.Is(err, domain.ErrDateConflict) {
		t.Fatalf("expected ErrDateConflict, got %v", err)
	}
	items, _ := db.ListExpenses(ctx, 1, domain.ExpenseFilter{})
	if len(items) != 0 {
		t.Errorf("expected nothing committed, got %d", len(items))
	}
}

func TestWithTx_ConflictAtCommit(t *testing.T) {
	db := New()
	ctx := context.Background()

	err := db.WithTx(ctx, func(w domain.ExpenseWriter) error {
		if _, err := w.CreateExpense(ctx, domain.Expense{UserID: 1, Date: d("2025-01-01")}); err != nil {
			return err
		}
		// A concurrent request commits the same date first.
		_, err := db.CreateExpense(ctx, domain.Expense{UserID: 1, Date: d("2025-01-01")})
		return err
	})
	var conflict *domain.DateConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected DateConflictError, got %v", err)
	}
	items, _ := db.ListExpenses(ctx, 1, domain.ExpenseFilter{})
	if len(items) != 1 {
		t.Errorf("expected only the concurrent expense, got %d", len(items))
	}
}

func TestCommuterPassRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	first, err := db.GetOrCreateCommuterPass(ctx, 1, domain.DefaultCommuterPass(1))
	if err != nil {
		t.Fatalf("GetOrCreateCommuterPass: %v", err)
	}
	second, _ := db.GetOrCreateCommuterPass(ctx, 1, domain.DefaultCommuterPass(1))
	if first.ID != second.ID {
		t.Errorf("expected same pass, got %d and %d", first.ID, second.ID)
	}

	other, _ := db.GetOrCreateCommuterPass(ctx, 2, domain.DefaultCommuterPass(2))
	if other.ID == first.ID {
		t.Error("expected a distinct pass for another user")
	}

	first.StartStation = "Tokyo"
	first.IsActive = false
	updated, err := db.UpdateCommuterPass(ctx, *first)
	if err != nil {
		t.Fatalf("UpdateCommuterPass: %v", err)
	}
	if updated.StartStation != "Tokyo" || updated.IsActive {
		t.Errorf("unexpected update result %+v", updated)
	}

	// Cannot update another user's pass
	hijack := *first
	hijack.UserID = 2
	if _, err := db.UpdateCommuterPass(ctx, hijack); err == nil {
		t.Error("expected error updating a pass not owned by the user")
	}
}

func TestUserRepository(t *testing.T) {
	db := New()
	ctx := context.Background()

	u, err := db.Create(ctx, "alice", "hash")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == 0 {
		t.Error("expected non-zero ID")
	}

	if _, err := db.Create(ctx, "alice", "hash"); err == nil {
		t.Error("expected duplicate username error")
	}

	got, _ := db.GetByUsername(ctx, "alice")
	if got == nil || got.ID != u.ID {
		t.Errorf("GetByUsername: got %+v", got)
	}
	missing, err := db.GetByUsername(ctx, "bob")
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil) for unknown user, got %+v, %v", missing, err)
	}
	n, _ := db.Count(ctx)
	if n != 1 {
		t.Errorf("expected 1 user, got %d", n)
	}
}

func TestSessionRepository(t *testing.T) {
	db := New()
	sessions := db.NewSessionRepo()
	ctx := context.Background()

	if err := sessions.Create(ctx, 1, "live", "ua", "127.0.0.1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_ = sessions.Create(ctx, 1, "stale", "ua", "127.0.0.1", time.Now().Add(-time.Hour))

	s, err := sessions.GetByToken(ctx, "live")
	if err != nil || s == nil {
		t.Fatalf("GetByToken: %+v, %v", s, err)
	}
	if s.UserAgent != "ua" || s.IP != "127.0.0.1" {
		t.Errorf("session binding not stored: %+v", s)
	}

	if err := sessions.DeleteExpired(ctx); err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if s, _ := sessions.GetByToken(ctx, "stale"); s != nil {
		t.Error("expected stale session to be swept")
	}

	_ = sessions.Delete(ctx, "live")
	if s, _ := sessions.GetByToken(ctx, "live"); s != nil {
		t.Error("expected session to be deleted")
	}
}
