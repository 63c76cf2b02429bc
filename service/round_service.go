package service

import (
	"context"
	"fmt"
	"time"

	"updown/config"
	"updown/events"
	"updown/models"
	"updown/oracle"
)

type roundService struct {
	uowFactory UnitOfWorkFactory
	feed       oracle.PriceFeed
	policy     AccessPolicy
	config     *config.Config
}

// NewRoundService creates a new round service
func NewRoundService(uowFactory UnitOfWorkFactory, feed oracle.PriceFeed, policy AccessPolicy, cfg *config.Config) RoundService {
	return &roundService{
		uowFactory: uowFactory,
		feed:       feed,
		policy:     policy,
		config:     cfg,
	}
}

// CreateRound opens a new round over the given window. The start price is
// recorded from the oracle at call time and is immutable afterwards.
func (s *roundService) CreateRound(ctx context.Context, operatorID int64, startTime, endTime time.Time) (*models.Round, error) {
	if !s.policy.CanCreateRound(operatorID) {
		return nil, fmt.Errorf("create round by account %d: %w", operatorID, models.ErrUnauthorized)
	}

	now := time.Now()
	if !endTime.After(startTime) {
		return nil, fmt.Errorf("end %v is not after start %v: %w", endTime, startTime, models.ErrInvalidWindow)
	}
	if startTime.Before(now.Add(-s.config.StartWindowTolerance)) {
		return nil, fmt.Errorf("start %v is in the past: %w", startTime, models.ErrInvalidWindow)
	}

	quote, err := s.feed.CurrentPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read start price: %w", err)
	}
	if quote.IsStale(now, s.config.OracleMaxStaleness) {
		return nil, fmt.Errorf("start price quoted at %v: %w", quote.Timestamp, models.ErrStaleOracleData)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	round := &models.Round{
		StartTime:  startTime,
		EndTime:    endTime,
		StartPrice: quote.Price,
		State:      models.RoundStateOpen,
	}

	if err := uow.RoundRepository().Create(ctx, round); err != nil {
		return nil, fmt.Errorf("failed to create round: %w", err)
	}

	uow.EventBus().Publish(events.RoundCreatedEvent{
		RoundID:    round.ID,
		StartTime:  round.StartTime,
		EndTime:    round.EndTime,
		StartPrice: round.StartPrice,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return round, nil
}

// GetRound retrieves a round by ID
func (s *roundService) GetRound(ctx context.Context, roundID int64) (*models.Round, error) {
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

	return round, nil
}

// GetRoundBets returns all positions recorded for a round
func (s *roundService) GetRoundBets(ctx context.Context, roundID int64) ([]*models.Bet, error) {
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

	bets, err := uow.BetRepository().GetByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for round %d: %w", roundID, err)
	}

	return bets, nil
}

// GetRoundLedger returns every ledger entry tied to a round in insertion order
func (s *roundService) GetRoundLedger(ctx context.Context, roundID int64) ([]*models.LedgerEntry, error) {
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

	entries, err := uow.LedgerRepository().GetByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger for round %d: %w", roundID, err)
	}

	return entries, nil
}
