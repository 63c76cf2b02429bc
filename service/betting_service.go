package service

import (
	"context"
	"fmt"
	"time"

	"updown/events"
	"updown/models"
)

type bettingService struct {
	uowFactory UnitOfWorkFactory
}

// NewBettingService creates a new betting service
func NewBettingService(uowFactory UnitOfWorkFactory) BettingService {
	return &bettingService{
		uowFactory: uowFactory,
	}
}

// PlaceBet escrows a stake on one side of an open round. The participant's
// side is fixed at first placement; later same-side placements accumulate
// into the one aggregate record and opposite-side placements are rejected.
func (s *bettingService) PlaceBet(ctx context.Context, roundID, participantID int64, side models.BetSide, amount int64) (*models.Bet, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("bet of %d: %w", amount, models.ErrInvalidAmount)
	}
	if side != models.BetSideYes && side != models.BetSideNo {
		return nil, fmt.Errorf("unknown side %q: %w", side, models.ErrInvalidAmount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Lock the round row so the side totals move under a serialized view
	round, err := uow.RoundRepository().GetByIDForUpdate(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, fmt.Errorf("round %d: %w", roundID, models.ErrRoundNotFound)
	}

	now := time.Now()
	if !round.CanAcceptBets(now) {
		return nil, fmt.Errorf("round %d in state %s: %w", roundID, round.EffectiveState(now), models.ErrRoundNotOpen)
	}

	existing, err := uow.BetRepository().Get(ctx, roundID, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing bet: %w", err)
	}
	if existing != nil && existing.Side != side {
		return nil, fmt.Errorf("participant %d already backs %s in round %d: %w",
			participantID, existing.Side, roundID, models.ErrSideConflict)
	}

	account, err := uow.AccountRepository().GetByID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", participantID, models.ErrAccountNotFound)
	}

	// Escrow the stake; the ledger holds it until claim or void refund
	if err := uow.AccountRepository().DeductBalance(ctx, participantID, amount); err != nil {
		return nil, fmt.Errorf("failed to escrow stake: %w", err)
	}

	var bet *models.Bet
	if existing != nil {
		if err := uow.BetRepository().AddAmount(ctx, roundID, participantID, amount); err != nil {
			return nil, fmt.Errorf("failed to accumulate bet: %w", err)
		}
		existing.Amount += amount
		bet = existing
	} else {
		bet = &models.Bet{
			RoundID:       roundID,
			ParticipantID: participantID,
			Side:          side,
			Amount:        amount,
		}
		if err := uow.BetRepository().Create(ctx, bet); err != nil {
			return nil, fmt.Errorf("failed to create bet: %w", err)
		}
	}

	if err := uow.RoundRepository().AddToSideTotal(ctx, roundID, side, amount); err != nil {
		return nil, fmt.Errorf("failed to update side total: %w", err)
	}

	entry := &models.LedgerEntry{
		AccountID:     participantID,
		BalanceBefore: account.Balance,
		BalanceAfter:  account.Balance - amount,
		ChangeAmount:  -amount,
		EntryType:     models.EntryTypeBetEscrow,
		Metadata: map[string]any{
			"side":        string(side),
			"stake_after": bet.Amount,
		},
		RoundID: &roundID,
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return nil, fmt.Errorf("failed to record escrow: %w", err)
	}

	sideTotal := round.YesTotal
	if side == models.BetSideNo {
		sideTotal = round.NoTotal
	}
	uow.EventBus().Publish(events.BetPlacedEvent{
		RoundID:       roundID,
		ParticipantID: participantID,
		Side:          side,
		Amount:        amount,
		SideTotal:     sideTotal + amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return bet, nil
}
