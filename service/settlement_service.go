package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"updown/config"
	"updown/events"
	"updown/models"
	"updown/oracle"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
	feed       oracle.PriceFeed
	policy     AccessPolicy
	config     *config.Config
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory, feed oracle.PriceFeed, policy AccessPolicy, cfg *config.Config) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
		feed:       feed,
		policy:     policy,
		config:     cfg,
	}
}

// SettleRound fixes the outcome of an expired round and freezes its pools.
// The whole settlement is one transaction: it succeeds exactly once or
// leaves no trace.
func (s *settlementService) SettleRound(ctx context.Context, operatorID, roundID int64) (*models.Round, error) {
	if !s.policy.CanSettle(operatorID) {
		return nil, fmt.Errorf("settle by account %d: %w", operatorID, models.ErrUnauthorized)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	round, err := uow.RoundRepository().GetByIDForUpdate(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if round == nil {
		return nil, fmt.Errorf("round %d: %w", roundID, models.ErrRoundNotFound)
	}

	if round.IsTerminal() {
		return nil, fmt.Errorf("round %d is %s: %w", roundID, round.State, models.ErrAlreadySettled)
	}

	now := time.Now()
	if now.Before(round.EndTime) {
		return nil, fmt.Errorf("round %d ends at %v: %w", roundID, round.EndTime, models.ErrTooEarly)
	}

	state, outcome, endPrice, fee, err := s.decide(ctx, round, now)
	if err != nil {
		return nil, err
	}

	ok, err := uow.RoundRepository().MarkSettled(ctx, roundID, state, outcome, endPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to settle round: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("round %d: %w", roundID, models.ErrAlreadySettled)
	}

	// The protocol's cut of the losing pool is fixed at settlement; winners
	// divide the remainder on claim.
	if fee > 0 {
		if err := uow.FeeRepository().AddAccrued(ctx, fee); err != nil {
			return nil, fmt.Errorf("failed to accrue fee: %w", err)
		}
	}

	round.State = state
	round.Outcome = outcome
	round.EndPrice = endPrice
	round.SettledAt = &now

	settledEvent := events.RoundSettledEvent{
		RoundID:    round.ID,
		State:      state,
		StartPrice: round.StartPrice,
		YesTotal:   round.YesTotal,
		NoTotal:    round.NoTotal,
	}
	if outcome != nil {
		settledEvent.Outcome = *outcome
	}
	if endPrice != nil {
		settledEvent.EndPrice = *endPrice
	}
	uow.EventBus().Publish(settledEvent)

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return round, nil
}

// decide determines the terminal state, outcome and fee for an expired round.
func (s *settlementService) decide(ctx context.Context, round *models.Round, now time.Time) (models.RoundState, *models.RoundOutcome, *int64, int64, error) {
	// A single-sided pool would pay out more than was staked if settled;
	// void it and refund at face value regardless of the price comparison.
	if round.IsOneSided() {
		return models.RoundStateVoid, nil, nil, 0, nil
	}

	quote, err := s.feed.CurrentPrice(ctx)
	if errors.Is(err, oracle.ErrNoQuote) {
		// No oracle data at all: refund everyone at face value
		return models.RoundStateVoid, nil, nil, 0, nil
	}
	if err != nil {
		return "", nil, nil, 0, fmt.Errorf("failed to read end price: %w", err)
	}
	if quote.IsStale(now, s.config.OracleMaxStaleness) {
		return "", nil, nil, 0, fmt.Errorf("end price quoted at %v: %w", quote.Timestamp, models.ErrStaleOracleData)
	}

	endPrice := quote.Price

	var outcome models.RoundOutcome
	var losingTotal int64
	switch {
	case endPrice > round.StartPrice:
		outcome = models.RoundOutcomeYesWins
		losingTotal = round.NoTotal
	case endPrice < round.StartPrice:
		outcome = models.RoundOutcomeNoWins
		losingTotal = round.YesTotal
	default:
		outcome = models.RoundOutcomeTie
		// Ties refund at face value, no fee taken
		return models.RoundStateSettled, &outcome, &endPrice, 0, nil
	}

	fee, err := ComputeFee(losingTotal, s.config.FeeRateBps)
	if err != nil {
		return "", nil, nil, 0, fmt.Errorf("failed to compute fee: %w", err)
	}

	return models.RoundStateSettled, &outcome, &endPrice, fee, nil
}

// SettleExpiredRounds settles every open round whose window has elapsed
func (s *settlementService) SettleExpiredRounds(ctx context.Context, operatorID int64) error {
	if !s.policy.CanSettle(operatorID) {
		return fmt.Errorf("settle by account %d: %w", operatorID, models.ErrUnauthorized)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	expired, err := uow.RoundRepository().GetExpiredOpenRounds(ctx)
	uow.Rollback()
	if err != nil {
		return fmt.Errorf("failed to list expired rounds: %w", err)
	}

	for _, round := range expired {
		if _, err := s.SettleRound(ctx, operatorID, round.ID); err != nil {
			// Keep going; a stale oracle on one round should not block the rest
			log.WithFields(log.Fields{
				"roundID": round.ID,
				"error":   err,
			}).Warn("Failed to settle expired round")
		}
	}

	return nil
}
