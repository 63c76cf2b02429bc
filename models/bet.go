package models

import "time"

// BetSide represents the direction a participant backs
type BetSide string

const (
	BetSideYes BetSide = "yes"
	BetSideNo  BetSide = "no"
)

// Opposite returns the other side
func (s BetSide) Opposite() BetSide {
	if s == BetSideYes {
		return BetSideNo
	}
	return BetSideYes
}

// Bet is the aggregate stake of one participant in one round. Repeated
// same-side placements accumulate into this single record; the side is
// fixed at first placement.
type Bet struct {
	RoundID       int64     `db:"round_id" json:"round_id"`
	ParticipantID int64     `db:"participant_id" json:"participant_id"`
	Side          BetSide   `db:"side" json:"side"`
	Amount        int64     `db:"amount" json:"amount"`
	Claimed       bool      `db:"claimed" json:"claimed"`
	Payout        *int64    `db:"payout" json:"payout,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ClaimResult represents the outcome of a claim (returned to the caller)
type ClaimResult struct {
	RoundID       int64 `json:"round_id"`
	ParticipantID int64 `json:"participant_id"`
	Stake         int64 `json:"stake"`
	Payout        int64 `json:"payout"`
	Fee           int64 `json:"fee"`
	NewBalance    int64 `json:"new_balance"`
}
