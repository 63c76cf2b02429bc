package repository

import (
	"context"
	"fmt"

	"updown/database"
	"updown/models"

	"github.com/jackc/pgx/v5"
)

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `
		SELECT id, display_name, balance, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.DisplayName,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}

	return &account, nil
}

// Create creates a new account with the initial balance
func (r *AccountRepository) Create(ctx context.Context, displayName string, initialBalance int64) (*models.Account, error) {
	query := `
		INSERT INTO accounts (display_name, balance)
		VALUES ($1, $2)
		RETURNING id, display_name, balance, created_at, updated_at
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, displayName, initialBalance).Scan(
		&account.ID,
		&account.DisplayName,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create account %q: %w", displayName, err)
	}

	return &account, nil
}

// AddBalance adds to an account's balance atomically
func (r *AccountRepository) AddBalance(ctx context.Context, id int64, amount int64) error {
	query := `
		UPDATE accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("failed to add balance to account %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("add balance to account %d: %w", id, models.ErrAccountNotFound)
	}

	return nil
}

// DeductBalance deducts from an account's balance atomically, failing if
// the account would go negative.
func (r *AccountRepository) DeductBalance(ctx context.Context, id int64, amount int64) error {
	query := `
		UPDATE accounts
		SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1 AND balance >= $2
	`

	tag, err := r.q.Exec(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("failed to deduct balance from account %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deduct %d from account %d: %w", amount, id, models.ErrInsufficientBalance)
	}

	return nil
}
