package models

import (
	"time"
)

// RoundState represents the lifecycle state of a betting round
type RoundState string

const (
	// RoundStateCreated means the round exists but betting has not started yet
	RoundStateCreated RoundState = "created"
	// RoundStateOpen means the round is accepting bets
	RoundStateOpen RoundState = "open"
	// RoundStateAwaitingSettlement means the window has elapsed but no settlement ran yet
	RoundStateAwaitingSettlement RoundState = "awaiting_settlement"
	RoundStateSettled            RoundState = "settled"
	RoundStateVoid               RoundState = "void"
)

// RoundOutcome represents the settled direction of a round
type RoundOutcome string

const (
	RoundOutcomeYesWins RoundOutcome = "yes_wins"
	RoundOutcomeNoWins  RoundOutcome = "no_wins"
	RoundOutcomeTie     RoundOutcome = "tie"
)

// Round represents one up/down wager over a fixed price observation window.
// Only "open", "settled" and "void" are persisted; "created" and
// "awaiting_settlement" are derived from the window, see EffectiveState.
type Round struct {
	ID         int64         `db:"id" json:"id"`
	StartTime  time.Time     `db:"start_time" json:"start_time"`
	EndTime    time.Time     `db:"end_time" json:"end_time"`
	StartPrice int64         `db:"start_price" json:"start_price"`
	EndPrice   *int64        `db:"end_price" json:"end_price,omitempty"`
	YesTotal   int64         `db:"yes_total" json:"yes_total"`
	NoTotal    int64         `db:"no_total" json:"no_total"`
	State      RoundState    `db:"state" json:"state"`
	Outcome    *RoundOutcome `db:"outcome" json:"outcome,omitempty"`
	SettledAt  *time.Time    `db:"settled_at" json:"settled_at,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// IsTerminal checks if the round reached a final state
func (r *Round) IsTerminal() bool {
	return r.State == RoundStateSettled || r.State == RoundStateVoid
}

// EffectiveState resolves the time-derived states for a persisted open round
func (r *Round) EffectiveState(now time.Time) RoundState {
	if r.State != RoundStateOpen {
		return r.State
	}
	if now.Before(r.StartTime) {
		return RoundStateCreated
	}
	if !now.Before(r.EndTime) {
		return RoundStateAwaitingSettlement
	}
	return RoundStateOpen
}

// CanAcceptBets checks if a bet may be recorded at the given instant
func (r *Round) CanAcceptBets(now time.Time) bool {
	return r.EffectiveState(now) == RoundStateOpen
}

// CanSettle checks if the window has elapsed and the round is still unsettled
func (r *Round) CanSettle(now time.Time) bool {
	return r.State == RoundStateOpen && !now.Before(r.EndTime)
}

// TotalPool returns the combined stake of both sides
func (r *Round) TotalPool() int64 {
	return r.YesTotal + r.NoTotal
}

// IsOneSided checks if only one side holds any stake
func (r *Round) IsOneSided() bool {
	return r.YesTotal == 0 || r.NoTotal == 0
}
