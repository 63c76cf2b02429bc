package service

import (
	"context"
	"errors"
	"fmt"

	"updown/config"
	"updown/events"
	"updown/models"
)

type payoutService struct {
	uowFactory UnitOfWorkFactory
	policy     AccessPolicy
	config     *config.Config
}

// NewPayoutService creates a new payout service
func NewPayoutService(uowFactory UnitOfWorkFactory, policy AccessPolicy, cfg *config.Config) PayoutService {
	return &payoutService{
		uowFactory: uowFactory,
		policy:     policy,
		config:     cfg,
	}
}

// Claim releases a participant's share of a settled or void round. The
// claimed flag is acquired before any balance credit in the same
// transaction: a concurrent claim observes the flag and fails, and a failed
// credit rolls the flag back so the record stays claimable.
func (s *payoutService) Claim(ctx context.Context, roundID, participantID int64) (*models.ClaimResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	round, err := uow.RoundRepository().GetByID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, fmt.Errorf("round %d: %w", roundID, models.ErrRoundNotFound)
	}
	if !round.IsTerminal() {
		return nil, fmt.Errorf("round %d in state %s: %w", roundID, round.State, models.ErrRoundNotSettled)
	}

	bet, err := uow.BetRepository().Get(ctx, roundID, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, fmt.Errorf("round %d, participant %d: %w", roundID, participantID, models.ErrNoBet)
	}
	if bet.Claimed {
		return nil, fmt.Errorf("round %d, participant %d: %w", roundID, participantID, models.ErrAlreadyClaimed)
	}

	payout, fee, err := s.computePayout(round, bet)
	if err != nil {
		return nil, err
	}

	// Acquire the right to pay before paying
	ok, err := uow.BetRepository().MarkClaimed(ctx, roundID, participantID, payout)
	if err != nil {
		return nil, fmt.Errorf("failed to mark bet claimed: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("round %d, participant %d: %w", roundID, participantID, models.ErrAlreadyClaimed)
	}

	account, err := uow.AccountRepository().GetByID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if payout > 0 {
		if account == nil {
			return nil, fmt.Errorf("payout of %d to missing account %d: %w", payout, participantID, models.ErrTransferFailed)
		}
		if err := uow.AccountRepository().AddBalance(ctx, participantID, payout); err != nil {
			if errors.Is(err, models.ErrAccountNotFound) {
				err = models.ErrTransferFailed
			}
			return nil, fmt.Errorf("failed to credit payout: %w", err)
		}

		entryType := models.EntryTypePayout
		if round.State == models.RoundStateVoid || (round.Outcome != nil && *round.Outcome == models.RoundOutcomeTie) {
			entryType = models.EntryTypeRefund
		}
		entry := &models.LedgerEntry{
			AccountID:     participantID,
			BalanceBefore: account.Balance,
			BalanceAfter:  account.Balance + payout,
			ChangeAmount:  payout,
			EntryType:     entryType,
			Metadata: map[string]any{
				"stake": bet.Amount,
				"side":  string(bet.Side),
			},
			RoundID: &roundID,
		}
		if err := RecordBalanceChange(ctx, uow, entry); err != nil {
			return nil, fmt.Errorf("failed to record payout: %w", err)
		}
	}

	uow.EventBus().Publish(events.PayoutClaimedEvent{
		RoundID:       roundID,
		ParticipantID: participantID,
		Stake:         bet.Amount,
		Payout:        payout,
		Fee:           fee,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result := &models.ClaimResult{
		RoundID:       roundID,
		ParticipantID: participantID,
		Stake:         bet.Amount,
		Payout:        payout,
		Fee:           fee,
	}
	if account != nil {
		result.NewBalance = account.Balance + payout
	}

	return result, nil
}

// computePayout applies the settlement outcome to one bet
func (s *payoutService) computePayout(round *models.Round, bet *models.Bet) (payout int64, fee int64, err error) {
	// Void rounds and ties refund the stake exactly, no fee
	if round.State == models.RoundStateVoid {
		return bet.Amount, 0, nil
	}
	if round.Outcome == nil {
		return 0, 0, fmt.Errorf("settled round %d has no outcome", round.ID)
	}
	if *round.Outcome == models.RoundOutcomeTie {
		return bet.Amount, 0, nil
	}

	winningSide := models.BetSideYes
	winningTotal, losingTotal := round.YesTotal, round.NoTotal
	if *round.Outcome == models.RoundOutcomeNoWins {
		winningSide = models.BetSideNo
		winningTotal, losingTotal = round.NoTotal, round.YesTotal
	}

	// Losing claims pay nothing but still close the record
	if bet.Side != winningSide {
		return 0, 0, nil
	}

	fee, err = ComputeFee(losingTotal, s.config.FeeRateBps)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute fee: %w", err)
	}

	payout, err = WinnerPayout(bet.Amount, winningTotal, losingTotal, fee)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to compute payout: %w", err)
	}

	return payout, fee, nil
}

// SweepFees moves the accrued protocol fees to the fee recipient account
func (s *payoutService) SweepFees(ctx context.Context, operatorID int64) (int64, error) {
	if !s.policy.CanSweepFees(operatorID) {
		return 0, fmt.Errorf("sweep by account %d: %w", operatorID, models.ErrUnauthorized)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	swept, err := uow.FeeRepository().SweepAccrued(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep fees: %w", err)
	}
	if swept == 0 {
		return 0, nil
	}

	recipient, err := uow.AccountRepository().GetByID(ctx, s.config.FeeRecipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to get fee recipient: %w", err)
	}
	if recipient == nil {
		return 0, fmt.Errorf("fee recipient %d: %w", s.config.FeeRecipientID, models.ErrTransferFailed)
	}

	if err := uow.AccountRepository().AddBalance(ctx, recipient.ID, swept); err != nil {
		return 0, fmt.Errorf("failed to credit fee recipient: %w", err)
	}

	entry := &models.LedgerEntry{
		AccountID:     recipient.ID,
		BalanceBefore: recipient.Balance,
		BalanceAfter:  recipient.Balance + swept,
		ChangeAmount:  swept,
		EntryType:     models.EntryTypeFeeSweep,
		Metadata:      map[string]any{"swept_by": operatorID},
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return 0, fmt.Errorf("failed to record fee sweep: %w", err)
	}

	uow.EventBus().Publish(events.FeesSweptEvent{
		RecipientID: recipient.ID,
		Amount:      swept,
	})

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return swept, nil
}

// AccruedFees returns the current withdrawable fee balance
func (s *payoutService) AccruedFees(ctx context.Context) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	accrued, err := uow.FeeRepository().GetAccrued(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get accrued fees: %w", err)
	}

	return accrued, nil
}
