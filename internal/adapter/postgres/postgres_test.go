package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"fareclaim/internal/domain"

	"github.com/stretchr/testify/suite"
)

type PostgresSuite struct {
	suite.Suite
	db    *DB
	ctx   context.Context
	alice int64
	bob   int64
}

func TestPostgresSuite(t *testing.T) {
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	s.ctx = context.Background()
	db, err := Open(s.ctx, os.Getenv("TEST_DATABASE_URL"))
	s.Require().NoError(err)
	s.db = db
}

func (s *PostgresSuite) TearDownSuite() {
	if s.db != nil {
		s.Require().NoError(s.db.Close())
	}
}

func (s *PostgresSuite) SetupTest() {
	_, err := s.db.sql.ExecContext(s.ctx,
		"TRUNCATE expenses, commuter_passes, fare_rules, sessions, users RESTART IDENTITY CASCADE")
	s.Require().NoError(err)

	alice, err := s.db.Create(s.ctx, "alice", "hash")
	s.Require().NoError(err)
	bob, err := s.db.Create(s.ctx, "bob", "hash")
	s.Require().NoError(err)
	s.alice, s.bob = alice.ID, bob.ID
}

func (s *PostgresSuite) date(v string) domain.Date {
	d, err := domain.ParseDate(v)
	s.Require().NoError(err)
	return d
}

func (s *PostgresSuite) expense(userID int64, day string) domain.Expense {
	return domain.Expense{UserID: userID, Date: s.date(day), FromStation: "Tokyo", ToStation: "Shibuya", CalculatedFare: 200}
}

func (s *PostgresSuite) TestFareRules() {
	r, err := s.db.UpsertFareRule(s.ctx, domain.FareRule{FromStation: "Tokyo", ToStation: "Shibuya", FareOneWay: 200})
	s.Require().NoError(err)
	again, err := s.db.UpsertFareRule(s.ctx, domain.FareRule{FromStation: "Tokyo", ToStation: "Shibuya", FareOneWay: 210})
	s.Require().NoError(err)
	s.Equal(r.ID, again.ID)

	found, err := s.db.FindFareRule(s.ctx, "Tokyo", "Shibuya")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.EqualValues(210, found.FareOneWay)

	missing, err := s.db.FindFareRule(s.ctx, "Shibuya", "Tokyo")
	s.Require().NoError(err)
	s.Nil(missing)

	all, err := s.db.ListFareRules(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *PostgresSuite) TestExpensesListAndConflict() {
	for _, day := range []string{"2025-03-02", "2025-03-01", "2025-04-01"} {
		_, err := s.db.CreateExpense(s.ctx, s.expense(s.alice, day))
		s.Require().NoError(err)
	}
	_, err := s.db.CreateExpense(s.ctx, s.expense(s.bob, "2025-03-01"))
	s.Require().NoError(err)

	_, err = s.db.CreateExpense(s.ctx, s.expense(s.alice, "2025-03-01"))
	s.ErrorIs(err, domain.ErrDateConflict)

	all, err := s.db.ListExpenses(s.ctx, s.alice, domain.ExpenseFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("2025-04-01", all[0].Date.String())
	s.Equal("2025-03-01", all[2].Date.String())

	march, err := s.db.ListExpenses(s.ctx, s.alice, domain.ExpenseFilter{Month: "2025-03"})
	s.Require().NoError(err)
	s.Len(march, 2)

	existing, err := s.db.ExistingDates(s.ctx, s.alice, []domain.Date{s.date("2025-03-01"), s.date("2025-03-09")})
	s.Require().NoError(err)
	s.Require().Len(existing, 1)
	s.Equal("2025-03-01", existing[0].String())
}

func (s *PostgresSuite) TestWithTxRollsBackEverything() {
	boom := errors.New("boom")
	err := s.db.WithTx(s.ctx, func(w domain.ExpenseWriter) error {
		for _, day := range []string{"2025-05-01", "2025-05-02"} {
			if _, err := w.CreateExpense(s.ctx, s.expense(s.alice, day)); err != nil {
				return err
			}
		}
		return boom
	})
	s.ErrorIs(err, boom)

	err = s.db.WithTx(s.ctx, func(w domain.ExpenseWriter) error {
		if _, err := w.CreateExpense(s.ctx, s.expense(s.alice, "2025-05-01")); err != nil {
			return err
		}
		_, err := w.CreateExpense(s.ctx, s.expense(s.alice, "2025-05-01"))
		return err
	})
	s.ErrorIs(err, domain.ErrDateConflict)

	all, err := s.db.ListExpenses(s.ctx, s.alice, domain.ExpenseFilter{})
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *PostgresSuite) TestCommuterPass() {
	first, err := s.db.GetOrCreateCommuterPass(s.ctx, s.alice, domain.DefaultCommuterPass(s.alice))
	s.Require().NoError(err)
	second, err := s.db.GetOrCreateCommuterPass(s.ctx, s.alice, domain.DefaultCommuterPass(s.alice))
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal("2000-01-01", first.ValidFrom.String())

	first.EndStation = "Shibuya"
	first.IsActive = false
	updated, err := s.db.UpdateCommuterPass(s.ctx, *first)
	s.Require().NoError(err)
	s.Equal("Shibuya", updated.EndStation)
	s.False(updated.IsActive)

	first.UserID = s.bob
	_, err = s.db.UpdateCommuterPass(s.ctx, *first)
	s.Error(err)
}

func (s *PostgresSuite) TestSessions() {
	sessions := NewSessionRepo(s.db)
	s.Require().NoError(sessions.Create(s.ctx, s.alice, "tok", "ua", "10.0.0.1", time.Now().Add(time.Hour)))
	s.Require().NoError(sessions.Create(s.ctx, s.alice, "old", "ua", "10.0.0.1", time.Now().Add(-time.Hour)))

	got, err := sessions.GetByToken(s.ctx, "tok")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("ua", got.UserAgent)

	s.Require().NoError(sessions.DeleteExpired(s.ctx))
	old, err := sessions.GetByToken(s.ctx, "old")
	s.Require().NoError(err)
	s.Nil(old)
}

func (s *PostgresSuite) TestUsers() {
	u, err := s.db.GetByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().NotNil(u)
	s.Equal(s.alice, u.ID)

	byID, err := s.db.GetByID(s.ctx, s.bob)
	s.Require().NoError(err)
	s.Require().NotNil(byID)
	s.Equal("bob", byID.Username)

	missing, err := s.db.GetByUsername(s.ctx, "carol")
	s.Require().NoError(err)
	s.Nil(missing)

	_, err = s.db.Create(s.ctx, "alice", "")
	s.Error(err)

	n, err := s.db.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
}
