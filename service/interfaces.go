package service

import (
	"context"
	"time"

	"updown/events"
	"updown/models"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByID retrieves an account by its ID
	GetByID(ctx context.Context, id int64) (*models.Account, error)

	// Create creates a new account with the initial balance
	Create(ctx context.Context, displayName string, initialBalance int64) (*models.Account, error)

	// AddBalance adds to an account's balance atomically
	AddBalance(ctx context.Context, id int64, amount int64) error

	// DeductBalance deducts from an account's balance atomically, failing if insufficient funds
	DeductBalance(ctx context.Context, id int64, amount int64) error
}

// RoundRepository defines the interface for round data access
type RoundRepository interface {
	// Create persists a new round and assigns its sequential ID
	Create(ctx context.Context, round *models.Round) error

	// GetByID retrieves a round by its ID
	GetByID(ctx context.Context, id int64) (*models.Round, error)

	// GetByIDForUpdate retrieves a round by its ID with a row lock
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Round, error)

	// AddToSideTotal adds the amount to one side's running total
	AddToSideTotal(ctx context.Context, roundID int64, side models.BetSide, amount int64) error

	// MarkSettled transitions an open round to a terminal state exactly once
	MarkSettled(ctx context.Context, roundID int64, state models.RoundState, outcome *models.RoundOutcome, endPrice *int64) (bool, error)

	// GetExpiredOpenRounds returns open rounds whose window has elapsed
	GetExpiredOpenRounds(ctx context.Context) ([]*models.Round, error)
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Get retrieves the aggregate bet of a participant in a round
	Get(ctx context.Context, roundID, participantID int64) (*models.Bet, error)

	// Create records the first placement of a participant in a round
	Create(ctx context.Context, bet *models.Bet) error

	// AddAmount accumulates a repeat same-side placement into the existing record
	AddAmount(ctx context.Context, roundID, participantID int64, amount int64) error

	// MarkClaimed flips the claimed flag exactly once, returning false if it was already set
	MarkClaimed(ctx context.Context, roundID, participantID int64, payout int64) (bool, error)

	// GetByRound returns all bets recorded for a round
	GetByRound(ctx context.Context, roundID int64) ([]*models.Bet, error)

	// GetByParticipant returns bets placed by a participant, newest first
	GetByParticipant(ctx context.Context, participantID int64, limit int) ([]*models.Bet, error)
}

// LedgerRepository defines the interface for the audit journal
type LedgerRepository interface {
	// Record creates a new ledger entry
	Record(ctx context.Context, entry *models.LedgerEntry) error

	// GetByAccount returns ledger entries for a specific account
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.LedgerEntry, error)

	// GetByRound returns all ledger entries tied to a round in insertion order
	GetByRound(ctx context.Context, roundID int64) ([]*models.LedgerEntry, error)
}

// FeeRepository defines the interface for the accrued protocol fee balance
type FeeRepository interface {
	// GetAccrued returns the current accrued fee balance
	GetAccrued(ctx context.Context) (int64, error)

	// AddAccrued adds to the accrued fee balance
	AddAccrued(ctx context.Context, amount int64) error

	// SweepAccrued zeroes the accrued balance and returns the swept amount
	SweepAccrued(ctx context.Context) (int64, error)
}

// AccessPolicy gates operator-only operations. It is injected so the single
// operator list can be swapped for another trust model without touching
// ledger logic.
type AccessPolicy interface {
	CanCreateRound(accountID int64) bool
	CanSettle(accountID int64) bool
	CanSweepFees(accountID int64) bool
}

// RoundService defines the interface for round lifecycle operations
type RoundService interface {
	// CreateRound opens a new round over the given window, recording the
	// start price from the oracle at call time
	CreateRound(ctx context.Context, operatorID int64, startTime, endTime time.Time) (*models.Round, error)

	// GetRound retrieves a round by ID
	GetRound(ctx context.Context, roundID int64) (*models.Round, error)

	// GetRoundBets returns all positions recorded for a round
	GetRoundBets(ctx context.Context, roundID int64) ([]*models.Bet, error)

	// GetRoundLedger returns every ledger entry tied to a round in insertion
	// order, which is what an audit replay walks
	GetRoundLedger(ctx context.Context, roundID int64) ([]*models.LedgerEntry, error)
}

// BettingService defines the interface for stake placement
type BettingService interface {
	// PlaceBet escrows a stake on one side of an open round. Repeated
	// same-side placements accumulate; opposite-side placements are rejected.
	PlaceBet(ctx context.Context, roundID, participantID int64, side models.BetSide, amount int64) (*models.Bet, error)
}

// SettlementService defines the interface for fixing round outcomes
type SettlementService interface {
	// SettleRound fixes the outcome of an expired round from oracle data
	// and freezes its pools
	SettleRound(ctx context.Context, operatorID, roundID int64) (*models.Round, error)

	// SettleExpiredRounds settles every open round whose window has elapsed
	SettleExpiredRounds(ctx context.Context, operatorID int64) error
}

// PayoutService defines the interface for releasing settled funds
type PayoutService interface {
	// Claim releases a participant's share of a settled or void round
	Claim(ctx context.Context, roundID, participantID int64) (*models.ClaimResult, error)

	// SweepFees moves the accrued protocol fees to the fee recipient account
	SweepFees(ctx context.Context, operatorID int64) (int64, error)

	// AccruedFees returns the current withdrawable fee balance
	AccruedFees(ctx context.Context) (int64, error)
}

// AccountService defines the interface for participant account operations
type AccountService interface {
	// CreateAccount registers a new participant with the starting balance
	CreateAccount(ctx context.Context, displayName string) (*models.Account, error)

	// GetAccount retrieves an account by ID
	GetAccount(ctx context.Context, accountID int64) (*models.Account, error)

	// GetLedger returns the most recent ledger entries for an account
	GetLedger(ctx context.Context, accountID int64, limit int) ([]*models.LedgerEntry, error)

	// GetBets returns the most recent positions placed by an account
	GetBets(ctx context.Context, accountID int64, limit int) ([]*models.Bet, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	RoundRepository() RoundRepository
	BetRepository() BetRepository
	LedgerRepository() LedgerRepository
	FeeRepository() FeeRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
