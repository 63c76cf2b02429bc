package service

import (
	"context"
	"fmt"

	"updown/events"
	"updown/models"
)

// RecordBalanceChange writes a ledger entry and queues the matching balance
// change event on the unit of work's transactional bus.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, entry *models.LedgerEntry) error {
	if err := uow.LedgerRepository().Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	// Emitted only after the transaction commits
	uow.EventBus().Publish(events.BalanceChangeEvent{
		AccountID:    entry.AccountID,
		OldBalance:   entry.BalanceBefore,
		NewBalance:   entry.BalanceAfter,
		EntryType:    entry.EntryType,
		ChangeAmount: entry.ChangeAmount,
	})

	return nil
}
