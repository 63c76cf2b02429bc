package service

import (
	"context"
	"testing"
	"time"

	"updown/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBettingService_PlaceBet(t *testing.T) {
	ctx := context.Background()
	participantID := int64(100)

	t.Run("first placement escrows stake", func(t *testing.T) {
		m := newTestMocks()
		m.expectCommit()
		svc := NewBettingService(m.factory)

		round := openRound(1, 0, 0)
		account := &models.Account{ID: participantID, Balance: 1000}

		m.rounds.On("GetByIDForUpdate", ctx, int64(1)).Return(round, nil)
		m.bets.On("Get", ctx, int64(1), participantID).Return(nil, nil)
		m.accounts.On("GetByID", ctx, participantID).Return(account, nil)
		m.accounts.On("DeductBalance", ctx, participantID, int64(300)).Return(nil)
		m.bets.On("Create", ctx, mock.MatchedBy(func(b *models.Bet) bool {
			return b.RoundID == 1 && b.Side == models.BetSideYes && b.Amount == 300
		})).Return(nil)
		m.rounds.On("AddToSideTotal", ctx, int64(1), models.BetSideYes, int64(300)).Return(nil)
		m.ledger.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
			return e.EntryType == models.EntryTypeBetEscrow &&
				e.ChangeAmount == -300 &&
				e.BalanceAfter == 700
		})).Return(nil)

		bet, err := svc.PlaceBet(ctx, 1, participantID, models.BetSideYes, 300)
		require.NoError(t, err)
		require.NotNil(t, bet)
		assert.Equal(t, int64(300), bet.Amount)

		m.accounts.AssertExpectations(t)
		m.bets.AssertExpectations(t)
		m.rounds.AssertExpectations(t)
		m.ledger.AssertExpectations(t)
	})

	t.Run("same side placement accumulates", func(t *testing.T) {
		m := newTestMocks()
		m.expectCommit()
		svc := NewBettingService(m.factory)

		round := openRound(1, 500, 200)
		existing := &models.Bet{RoundID: 1, ParticipantID: participantID, Side: models.BetSideYes, Amount: 500}
		account := &models.Account{ID: participantID, Balance: 1000}

		m.rounds.On("GetByIDForUpdate", ctx, int64(1)).Return(round, nil)
		m.bets.On("Get", ctx, int64(1), participantID).Return(existing, nil)
		m.accounts.On("GetByID", ctx, participantID).Return(account, nil)
		m.accounts.On("DeductBalance", ctx, participantID, int64(200)).Return(nil)
		m.bets.On("AddAmount", ctx, int64(1), participantID, int64(200)).Return(nil)
		m.rounds.On("AddToSideTotal", ctx, int64(1), models.BetSideYes, int64(200)).Return(nil)
		m.ledger.On("Record", ctx, mock.Anything).Return(nil)

		bet, err := svc.PlaceBet(ctx, 1, participantID, models.BetSideYes, 200)
		require.NoError(t, err)
		assert.Equal(t, int64(700), bet.Amount)
		m.bets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("opposite side rejected", func(t *testing.T) {
		m := newTestMocks()
		svc := NewBettingService(m.factory)

		round := openRound(1, 500, 0)
		existing := &models.Bet{RoundID: 1, ParticipantID: participantID, Side: models.BetSideYes, Amount: 500}

		m.rounds.On("GetByIDForUpdate", ctx, int64(1)).Return(round, nil)
		m.bets.On("Get", ctx, int64(1), participantID).Return(existing, nil)

		_, err := svc.PlaceBet(ctx, 1, participantID, models.BetSideNo, 200)
		assert.ErrorIs(t, err, models.ErrSideConflict)
		m.accounts.AssertNotCalled(t, "DeductBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		m := newTestMocks()
		svc := NewBettingService(m.factory)

		_, err := svc.PlaceBet(ctx, 1, participantID, models.BetSideYes, 0)
		assert.ErrorIs(t, err, models.ErrInvalidAmount)

		_, err = svc.PlaceBet(ctx, 1, participantID, models.BetSideYes, -5)
		assert.ErrorIs(t, err, models.ErrInvalidAmount)
	})

	t.Run("unknown side", func(t *testing.T) {
		m := newTestMocks()
		svc := NewBettingService(m.factory)

		_, err := svc.PlaceBet(ctx, 1, participantID, models.BetSide("maybe"), 100)
		assert.ErrorIs(t, err, models.ErrInvalidAmount)
	})

	t.Run("round not found", func(t *testing.T) {
		m := newTestMocks()
		svc := NewBettingService(m.factory)

		m.rounds.On("GetByIDForUpdate", ctx, int64(404)).Return(nil, nil)

		_, err := svc.PlaceBet(ctx, 404, participantID, models.BetSideYes, 100)
		assert.ErrorIs(t, err, models.ErrRoundNotFound)
	})

	t.Run("bet after window end rejected", func(t *testing.T) {
		m := newTestMocks()
		svc := NewBettingService(m.factory)

		m.rounds.On("GetByIDForUpdate", ctx, int64(1)).Return(expiredRound(1, 500, 200), nil)

		_, err := svc.PlaceBet(ctx, 1, participantID, models.BetSideYes, 100)
		assert.ErrorIs(t, err, models.ErrRoundNotOpen)
	})

	t.Run("bet before window start rejected", func(t *testing.T) {
		m := newTestMocks()
		svc := NewBettingService(m.factory)

		round := openRound(1, 0, 0)
		round.StartTime = time.Now().Add(time.Hour)
		round.EndTime = time.Now().Add(2 * time.Hour)
		m.rounds.On("GetByIDForUpdate", ctx, int64(1)).Return(round, nil)

		_, err := svc.PlaceBet(ctx, 1, participantID, models.BetSideYes, 100)
		assert.ErrorIs(t, err, models.ErrRoundNotOpen)
	})

	t.Run("bet on settled round rejected", func(t *testing.T) {
		m := newTestMocks()
		svc := NewBettingService(m.factory)

		round := settledRound(1, models.RoundOutcomeYesWins, 500, 200)
		m.rounds.On("GetByIDForUpdate", ctx, int64(1)).Return(round, nil)

		_, err := svc.PlaceBet(ctx, 1, participantID, models.BetSideYes, 100)
		assert.ErrorIs(t, err, models.ErrRoundNotOpen)
	})

	t.Run("insufficient balance", func(t *testing.T) {
		m := newTestMocks()
		svc := NewBettingService(m.factory)

		round := openRound(1, 0, 0)
		account := &models.Account{ID: participantID, Balance: 50}

		m.rounds.On("GetByIDForUpdate", ctx, int64(1)).Return(round, nil)
		m.bets.On("Get", ctx, int64(1), participantID).Return(nil, nil)
		m.accounts.On("GetByID", ctx, participantID).Return(account, nil)
		m.accounts.On("DeductBalance", ctx, participantID, int64(100)).Return(models.ErrInsufficientBalance)

		_, err := svc.PlaceBet(ctx, 1, participantID, models.BetSideYes, 100)
		assert.ErrorIs(t, err, models.ErrInsufficientBalance)
		m.uow.AssertNotCalled(t, "Commit")
	})

	t.Run("unknown account", func(t *testing.T) {
		m := newTestMocks()
		svc := NewBettingService(m.factory)

		m.rounds.On("GetByIDForUpdate", ctx, int64(1)).Return(openRound(1, 0, 0), nil)
		m.bets.On("Get", ctx, int64(1), participantID).Return(nil, nil)
		m.accounts.On("GetByID", ctx, participantID).Return(nil, nil)

		_, err := svc.PlaceBet(ctx, 1, participantID, models.BetSideYes, 100)
		assert.ErrorIs(t, err, models.ErrAccountNotFound)
	})
}
