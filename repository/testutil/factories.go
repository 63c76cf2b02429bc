package testutil

import (
	"time"

	"updown/models"
)

// CreateTestRound creates an open round whose window is live right now
func CreateTestRound(startPrice int64) *models.Round {
	now := time.Now()
	return &models.Round{
		StartTime:  now.Add(-time.Minute),
		EndTime:    now.Add(time.Hour),
		StartPrice: startPrice,
		State:      models.RoundStateOpen,
	}
}

// CreateTestExpiredRound creates an open round whose window already elapsed
func CreateTestExpiredRound(startPrice int64) *models.Round {
	now := time.Now()
	return &models.Round{
		StartTime:  now.Add(-2 * time.Hour),
		EndTime:    now.Add(-time.Hour),
		StartPrice: startPrice,
		State:      models.RoundStateOpen,
	}
}

// CreateTestBet creates a bet with default values
func CreateTestBet(roundID, participantID int64, side models.BetSide, amount int64) *models.Bet {
	return &models.Bet{
		RoundID:       roundID,
		ParticipantID: participantID,
		Side:          side,
		Amount:        amount,
	}
}

// CreateTestLedgerEntry creates a ledger entry with default values
func CreateTestLedgerEntry(accountID int64, entryType models.EntryType, change int64) *models.LedgerEntry {
	return &models.LedgerEntry{
		AccountID:     accountID,
		BalanceBefore: 100000,
		BalanceAfter:  100000 + change,
		ChangeAmount:  change,
		EntryType:     entryType,
		Metadata: map[string]any{
			"test": true,
		},
	}
}
