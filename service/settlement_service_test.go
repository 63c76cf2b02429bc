package service

import (
	"context"
	"testing"
	"time"

	"updown/models"
	"updown/oracle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSettlementService_SettleRound(t *testing.T) {
	ctx := context.Background()
	operatorID := int64(1)

	allowSettle := func(m *testMocks) {
		m.policy.On("CanSettle", operatorID).Return(true)
	}

	t.Run("price up settles yes wins", func(t *testing.T) {
		m := newTestMocks()
		m.expectCommit()
		allowSettle(m)

		round := expiredRound(5, 1000, 4000)
		feed := oracle.NewFixedFeed(round.StartPrice + 50_000_000)
		svc := NewSettlementService(m.factory, feed, m.policy, testConfig())

		m.rounds.On("GetByIDForUpdate", ctx, int64(5)).Return(round, nil)
		m.rounds.On("MarkSettled", ctx, int64(5), models.RoundStateSettled,
			mock.MatchedBy(func(o *models.RoundOutcome) bool {
				return o != nil && *o == models.RoundOutcomeYesWins
			}),
			mock.MatchedBy(func(p *int64) bool {
				return p != nil && *p == round.StartPrice+50_000_000
			}),
		).Return(true, nil)
		// 2% of the losing (no) pool of 4000
		m.fees.On("AddAccrued", ctx, int64(80)).Return(nil)

		settled, err := svc.SettleRound(ctx, operatorID, 5)
		require.NoError(t, err)

		assert.Equal(t, models.RoundStateSettled, settled.State)
		require.NotNil(t, settled.Outcome)
		assert.Equal(t, models.RoundOutcomeYesWins, *settled.Outcome)
		m.fees.AssertExpectations(t)
		m.rounds.AssertExpectations(t)
	})

	t.Run("price down settles no wins", func(t *testing.T) {
		m := newTestMocks()
		m.expectCommit()
		allowSettle(m)

		round := expiredRound(6, 3000, 1000)
		feed := oracle.NewFixedFeed(round.StartPrice - 1)
		svc := NewSettlementService(m.factory, feed, m.policy, testConfig())

		m.rounds.On("GetByIDForUpdate", ctx, int64(6)).Return(round, nil)
		m.rounds.On("MarkSettled", ctx, int64(6), models.RoundStateSettled,
			mock.MatchedBy(func(o *models.RoundOutcome) bool {
				return o != nil && *o == models.RoundOutcomeNoWins
			}),
			mock.Anything,
		).Return(true, nil)
		// 2% of the losing (yes) pool of 3000
		m.fees.On("AddAccrued", ctx, int64(60)).Return(nil)

		settled, err := svc.SettleRound(ctx, operatorID, 6)
		require.NoError(t, err)
		assert.Equal(t, models.RoundOutcomeNoWins, *settled.Outcome)
	})

	t.Run("unchanged price settles tie without fee", func(t *testing.T) {
		m := newTestMocks()
		m.expectCommit()
		allowSettle(m)

		round := expiredRound(7, 1000, 1000)
		feed := oracle.NewFixedFeed(round.StartPrice)
		svc := NewSettlementService(m.factory, feed, m.policy, testConfig())

		m.rounds.On("GetByIDForUpdate", ctx, int64(7)).Return(round, nil)
		m.rounds.On("MarkSettled", ctx, int64(7), models.RoundStateSettled,
			mock.MatchedBy(func(o *models.RoundOutcome) bool {
				return o != nil && *o == models.RoundOutcomeTie
			}),
			mock.Anything,
		).Return(true, nil)

		settled, err := svc.SettleRound(ctx, operatorID, 7)
		require.NoError(t, err)
		assert.Equal(t, models.RoundOutcomeTie, *settled.Outcome)
		m.fees.AssertNotCalled(t, "AddAccrued", mock.Anything, mock.Anything)
	})

	t.Run("one sided round voids without reading the oracle", func(t *testing.T) {
		m := newTestMocks()
		m.expectCommit()
		allowSettle(m)

		round := expiredRound(8, 5000, 0)
		// An empty feed would error if consulted
		svc := NewSettlementService(m.factory, &oracle.FixedFeed{}, m.policy, testConfig())

		m.rounds.On("GetByIDForUpdate", ctx, int64(8)).Return(round, nil)
		m.rounds.On("MarkSettled", ctx, int64(8), models.RoundStateVoid,
			(*models.RoundOutcome)(nil), (*int64)(nil)).Return(true, nil)

		settled, err := svc.SettleRound(ctx, operatorID, 8)
		require.NoError(t, err)
		assert.Equal(t, models.RoundStateVoid, settled.State)
		assert.Nil(t, settled.Outcome)
		assert.Nil(t, settled.EndPrice)
		m.fees.AssertNotCalled(t, "AddAccrued", mock.Anything, mock.Anything)
	})

	t.Run("missing oracle data voids the round", func(t *testing.T) {
		m := newTestMocks()
		m.expectCommit()
		allowSettle(m)

		round := expiredRound(9, 1000, 1000)
		svc := NewSettlementService(m.factory, &oracle.FixedFeed{}, m.policy, testConfig())

		m.rounds.On("GetByIDForUpdate", ctx, int64(9)).Return(round, nil)
		m.rounds.On("MarkSettled", ctx, int64(9), models.RoundStateVoid,
			(*models.RoundOutcome)(nil), (*int64)(nil)).Return(true, nil)

		settled, err := svc.SettleRound(ctx, operatorID, 9)
		require.NoError(t, err)
		assert.Equal(t, models.RoundStateVoid, settled.State)
	})

	t.Run("stale oracle data blocks settlement", func(t *testing.T) {
		m := newTestMocks()
		allowSettle(m)

		round := expiredRound(10, 1000, 1000)
		feed := &oracle.FixedFeed{}
		feed.SetQuote(oracle.Quote{Price: round.StartPrice + 1, Timestamp: time.Now().Add(-time.Hour)})
		svc := NewSettlementService(m.factory, feed, m.policy, testConfig())

		m.rounds.On("GetByIDForUpdate", ctx, int64(10)).Return(round, nil)

		_, err := svc.SettleRound(ctx, operatorID, 10)
		assert.ErrorIs(t, err, models.ErrStaleOracleData)
		m.rounds.AssertNotCalled(t, "MarkSettled",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unauthorized caller", func(t *testing.T) {
		m := newTestMocks()
		m.policy.On("CanSettle", int64(7)).Return(false)

		svc := NewSettlementService(m.factory, oracle.NewFixedFeed(1), m.policy, testConfig())

		_, err := svc.SettleRound(ctx, 7, 5)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("too early", func(t *testing.T) {
		m := newTestMocks()
		allowSettle(m)

		round := openRound(11, 1000, 1000)
		svc := NewSettlementService(m.factory, oracle.NewFixedFeed(1), m.policy, testConfig())

		m.rounds.On("GetByIDForUpdate", ctx, int64(11)).Return(round, nil)

		_, err := svc.SettleRound(ctx, operatorID, 11)
		assert.ErrorIs(t, err, models.ErrTooEarly)
	})

	t.Run("already settled", func(t *testing.T) {
		m := newTestMocks()
		allowSettle(m)

		round := settledRound(12, models.RoundOutcomeYesWins, 1000, 1000)
		svc := NewSettlementService(m.factory, oracle.NewFixedFeed(1), m.policy, testConfig())

		m.rounds.On("GetByIDForUpdate", ctx, int64(12)).Return(round, nil)

		_, err := svc.SettleRound(ctx, operatorID, 12)
		assert.ErrorIs(t, err, models.ErrAlreadySettled)
	})

	t.Run("lost settle race", func(t *testing.T) {
		m := newTestMocks()
		allowSettle(m)

		round := expiredRound(13, 1000, 1000)
		feed := oracle.NewFixedFeed(round.StartPrice + 1)
		svc := NewSettlementService(m.factory, feed, m.policy, testConfig())

		m.rounds.On("GetByIDForUpdate", ctx, int64(13)).Return(round, nil)
		m.rounds.On("MarkSettled", ctx, int64(13), models.RoundStateSettled,
			mock.Anything, mock.Anything).Return(false, nil)

		_, err := svc.SettleRound(ctx, operatorID, 13)
		assert.ErrorIs(t, err, models.ErrAlreadySettled)
		m.uow.AssertNotCalled(t, "Commit")
	})

	t.Run("round not found", func(t *testing.T) {
		m := newTestMocks()
		allowSettle(m)

		svc := NewSettlementService(m.factory, oracle.NewFixedFeed(1), m.policy, testConfig())
		m.rounds.On("GetByIDForUpdate", ctx, int64(404)).Return(nil, nil)

		_, err := svc.SettleRound(ctx, operatorID, 404)
		assert.ErrorIs(t, err, models.ErrRoundNotFound)
	})
}

func TestSettlementService_SettleExpiredRounds(t *testing.T) {
	ctx := context.Background()
	operatorID := int64(1)

	t.Run("settles each expired round and continues past failures", func(t *testing.T) {
		m := newTestMocks()
		m.expectCommit()
		m.policy.On("CanSettle", operatorID).Return(true)

		first := expiredRound(20, 5000, 0) // voids
		second := expiredRound(21, 1000, 1000)

		feed := oracle.NewFixedFeed(first.StartPrice + 1)
		svc := NewSettlementService(m.factory, feed, m.policy, testConfig())

		m.rounds.On("GetExpiredOpenRounds", ctx).Return([]*models.Round{first, second}, nil)
		m.rounds.On("GetByIDForUpdate", ctx, int64(20)).Return(first, nil)
		m.rounds.On("GetByIDForUpdate", ctx, int64(21)).Return(second, nil)
		m.rounds.On("MarkSettled", ctx, int64(20), models.RoundStateVoid,
			(*models.RoundOutcome)(nil), (*int64)(nil)).Return(true, nil)
		// The second round loses the settle race; the sweep still succeeds
		m.rounds.On("MarkSettled", ctx, int64(21), models.RoundStateSettled,
			mock.Anything, mock.Anything).Return(false, nil)

		err := svc.SettleExpiredRounds(ctx, operatorID)
		require.NoError(t, err)
		m.rounds.AssertExpectations(t)
	})

	t.Run("unauthorized caller", func(t *testing.T) {
		m := newTestMocks()
		m.policy.On("CanSettle", int64(7)).Return(false)

		svc := NewSettlementService(m.factory, oracle.NewFixedFeed(1), m.policy, testConfig())

		err := svc.SettleExpiredRounds(ctx, 7)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})
}
