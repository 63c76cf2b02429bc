package models

import "errors"

// Engine failures are synchronous and non-retryable: the caller resubmits
// with corrected inputs or waits for a state change. Services wrap these
// with context; callers match with errors.Is.
var (
	ErrUnauthorized        = errors.New("caller is not an authorized operator")
	ErrInvalidWindow       = errors.New("invalid round window")
	ErrRoundNotFound       = errors.New("round not found")
	ErrRoundNotOpen        = errors.New("round is not accepting bets")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrSideConflict        = errors.New("participant already bet the opposite side")
	ErrTooEarly            = errors.New("round window has not elapsed")
	ErrAlreadySettled      = errors.New("round already settled")
	ErrRoundNotSettled     = errors.New("round not settled")
	ErrNoBet               = errors.New("no bet recorded for participant")
	ErrAlreadyClaimed      = errors.New("payout already claimed")
	ErrStaleOracleData     = errors.New("oracle quote is stale")
	ErrTransferFailed      = errors.New("balance transfer failed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAccountNotFound     = errors.New("account not found")
)
