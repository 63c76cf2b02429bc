package repository

import (
	"context"
	"fmt"

	"updown/database"

	"github.com/jackc/pgx/v5"
)

// FeeRepository tracks the protocol's accrued fee balance. Fees accumulate
// here as rounds settle and leave only through a sweep.
type FeeRepository struct {
	q queryable
}

// NewFeeRepository creates a new fee repository
func NewFeeRepository(db *database.DB) *FeeRepository {
	return &FeeRepository{q: db.Pool}
}

// newFeeRepositoryWithTx creates a new fee repository with a transaction
func newFeeRepositoryWithTx(tx queryable) *FeeRepository {
	return &FeeRepository{q: tx}
}

// GetAccrued returns the current accrued fee balance
func (r *FeeRepository) GetAccrued(ctx context.Context) (int64, error) {
	var accrued int64
	err := r.q.QueryRow(ctx, `SELECT accrued FROM fee_accruals WHERE id = 1`).Scan(&accrued)
	if err != nil {
		return 0, fmt.Errorf("failed to get accrued fees: %w", err)
	}
	return accrued, nil
}

// AddAccrued adds to the accrued fee balance
func (r *FeeRepository) AddAccrued(ctx context.Context, amount int64) error {
	query := `UPDATE fee_accruals SET accrued = accrued + $1, updated_at = NOW() WHERE id = 1`

	if _, err := r.q.Exec(ctx, query, amount); err != nil {
		return fmt.Errorf("failed to accrue fees: %w", err)
	}
	return nil
}

// SweepAccrued zeroes the accrued balance and returns the swept amount.
// The row lock serializes concurrent sweeps against ongoing accruals.
func (r *FeeRepository) SweepAccrued(ctx context.Context) (int64, error) {
	var swept int64
	err := r.q.QueryRow(ctx, `SELECT accrued FROM fee_accruals WHERE id = 1 FOR UPDATE`).Scan(&swept)
	if err == pgx.ErrNoRows {
		return 0, nil // nothing accrued
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock accrued fees: %w", err)
	}
	if swept == 0 {
		return 0, nil
	}

	query := `UPDATE fee_accruals SET accrued = 0, updated_at = NOW() WHERE id = 1`
	if _, err := r.q.Exec(ctx, query); err != nil {
		return 0, fmt.Errorf("failed to sweep accrued fees: %w", err)
	}

	return swept, nil
}
