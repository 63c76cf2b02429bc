package service

import (
	"time"

	"updown/config"
	"updown/models"

	"github.com/stretchr/testify/mock"
)

// testMocks bundles a fully wired mock unit of work for service tests
type testMocks struct {
	factory  *MockUnitOfWorkFactory
	uow      *MockUnitOfWork
	accounts *MockAccountRepository
	rounds   *MockRoundRepository
	bets     *MockBetRepository
	ledger   *MockLedgerRepository
	fees     *MockFeeRepository
	bus      *MockEventPublisher
	policy   *MockAccessPolicy
}

func newTestMocks() *testMocks {
	m := &testMocks{
		factory:  new(MockUnitOfWorkFactory),
		uow:      new(MockUnitOfWork),
		accounts: new(MockAccountRepository),
		rounds:   new(MockRoundRepository),
		bets:     new(MockBetRepository),
		ledger:   new(MockLedgerRepository),
		fees:     new(MockFeeRepository),
		bus:      new(MockEventPublisher),
		policy:   new(MockAccessPolicy),
	}

	m.uow.SetRepositories(m.accounts, m.rounds, m.bets, m.ledger, m.fees)
	m.uow.SetEventBus(m.bus)

	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", mock.Anything).Return(nil)
	// Rollback runs via defer even on the commit path
	m.uow.On("Rollback").Return(nil).Maybe()

	return m
}

// expectCommit allows the transaction to commit and any event to be published
func (m *testMocks) expectCommit() {
	m.uow.On("Commit").Return(nil)
	m.bus.On("Publish", mock.Anything).Maybe()
}

func testConfig() *config.Config {
	return &config.Config{
		FeeRateBps:           200,
		FeeRecipientID:       99,
		StartWindowTolerance: 30 * time.Second,
		StartingBalance:      100000,
		OracleMaxStaleness:   5 * time.Minute,
		OperatorIDs:          []int64{1},
		Environment:          "test",
	}
}

// openRound returns a two-sided open round in the middle of its window
func openRound(id int64, yesTotal, noTotal int64) *models.Round {
	now := time.Now()
	return &models.Round{
		ID:         id,
		StartTime:  now.Add(-time.Minute),
		EndTime:    now.Add(time.Hour),
		StartPrice: 20000 * 100_000_000,
		YesTotal:   yesTotal,
		NoTotal:    noTotal,
		State:      models.RoundStateOpen,
	}
}

// expiredRound returns a two-sided open round whose window has elapsed
func expiredRound(id int64, yesTotal, noTotal int64) *models.Round {
	round := openRound(id, yesTotal, noTotal)
	round.StartTime = time.Now().Add(-2 * time.Hour)
	round.EndTime = time.Now().Add(-time.Hour)
	return round
}

// settledRound returns a terminal round with the given outcome
func settledRound(id int64, outcome models.RoundOutcome, yesTotal, noTotal int64) *models.Round {
	round := expiredRound(id, yesTotal, noTotal)
	round.State = models.RoundStateSettled
	round.Outcome = &outcome
	endPrice := round.StartPrice + 100_000_000
	if outcome == models.RoundOutcomeNoWins {
		endPrice = round.StartPrice - 100_000_000
	} else if outcome == models.RoundOutcomeTie {
		endPrice = round.StartPrice
	}
	round.EndPrice = &endPrice
	settledAt := time.Now()
	round.SettledAt = &settledAt
	return round
}
