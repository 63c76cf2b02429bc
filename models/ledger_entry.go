package models

import (
	"time"
)

// EntryType represents the type of balance change
type EntryType string

const (
	EntryTypeDeposit   EntryType = "deposit"
	EntryTypeBetEscrow EntryType = "bet_escrow"
	EntryTypePayout    EntryType = "payout"
	EntryTypeRefund    EntryType = "refund"
	EntryTypeFeeSweep  EntryType = "fee_sweep"
)

// LedgerEntry is an append-only journal record of a single balance change.
// The full ledger state can be reconstructed by replaying entries in order.
type LedgerEntry struct {
	ID            int64          `db:"id" json:"id"`
	AccountID     int64          `db:"account_id" json:"account_id"`
	BalanceBefore int64          `db:"balance_before" json:"balance_before"`
	BalanceAfter  int64          `db:"balance_after" json:"balance_after"`
	ChangeAmount  int64          `db:"change_amount" json:"change_amount"`
	EntryType     EntryType      `db:"entry_type" json:"entry_type"`
	Metadata      map[string]any `db:"metadata" json:"metadata,omitempty"`
	RoundID       *int64         `db:"round_id" json:"round_id,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}
