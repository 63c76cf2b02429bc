package repository

import (
	"context"
	"fmt"

	"updown/database"
	"updown/models"

	"github.com/jackc/pgx/v5"
)

// RoundRepository implements the RoundRepository interface
type RoundRepository struct {
	q queryable
}

// NewRoundRepository creates a new round repository
func NewRoundRepository(db *database.DB) *RoundRepository {
	return &RoundRepository{q: db.Pool}
}

// newRoundRepositoryWithTx creates a new round repository with a transaction
func newRoundRepositoryWithTx(tx queryable) *RoundRepository {
	return &RoundRepository{q: tx}
}

const roundColumns = `
	id, start_time, end_time, start_price, end_price,
	yes_total, no_total, state, outcome, settled_at, created_at
`

func scanRound(row pgx.Row) (*models.Round, error) {
	var round models.Round
	err := row.Scan(
		&round.ID,
		&round.StartTime,
		&round.EndTime,
		&round.StartPrice,
		&round.EndPrice,
		&round.YesTotal,
		&round.NoTotal,
		&round.State,
		&round.Outcome,
		&round.SettledAt,
		&round.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &round, nil
}

// Create persists a new round and assigns its sequential ID
func (r *RoundRepository) Create(ctx context.Context, round *models.Round) error {
	query := `
		INSERT INTO rounds (start_time, end_time, start_price, state)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		round.StartTime,
		round.EndTime,
		round.StartPrice,
		round.State,
	).Scan(&round.ID, &round.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}

	return nil
}

// GetByID retrieves a round by its ID
func (r *RoundRepository) GetByID(ctx context.Context, id int64) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = $1`

	round, err := scanRound(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get round %d: %w", id, err)
	}

	return round, nil
}

// GetByIDForUpdate retrieves a round by its ID with a row lock, serializing
// concurrent mutations of the same round.
func (r *RoundRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = $1 FOR UPDATE`

	round, err := scanRound(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock round %d: %w", id, err)
	}

	return round, nil
}

// AddToSideTotal adds the amount to one side's running total.
// Totals only move while a round is open; settlement freezes them.
func (r *RoundRepository) AddToSideTotal(ctx context.Context, roundID int64, side models.BetSide, amount int64) error {
	column := "yes_total"
	if side == models.BetSideNo {
		column = "no_total"
	}

	query := fmt.Sprintf(`
		UPDATE rounds
		SET %s = %s + $2
		WHERE id = $1 AND state = 'open'
	`, column, column)

	tag, err := r.q.Exec(ctx, query, roundID, amount)
	if err != nil {
		return fmt.Errorf("failed to update %s for round %d: %w", column, roundID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update side total for round %d: %w", roundID, models.ErrRoundNotOpen)
	}

	return nil
}

// MarkSettled transitions an open round to a terminal state, recording the
// end price and outcome. Outcome and end price are nil for a void round
// settled without oracle data. Returns false if the round was not open
// anymore, which makes settlement idempotence enforceable at the storage
// layer.
func (r *RoundRepository) MarkSettled(ctx context.Context, roundID int64, state models.RoundState, outcome *models.RoundOutcome, endPrice *int64) (bool, error) {
	query := `
		UPDATE rounds
		SET state = $2, outcome = $3, end_price = $4, settled_at = NOW()
		WHERE id = $1 AND state = 'open'
	`

	tag, err := r.q.Exec(ctx, query, roundID, state, outcome, endPrice)
	if err != nil {
		return false, fmt.Errorf("failed to settle round %d: %w", roundID, err)
	}

	return tag.RowsAffected() > 0, nil
}

// GetExpiredOpenRounds returns open rounds whose window has elapsed
func (r *RoundRepository) GetExpiredOpenRounds(ctx context.Context) ([]*models.Round, error) {
	query := `
		SELECT ` + roundColumns + `
		FROM rounds
		WHERE state = 'open' AND end_time <= NOW()
		ORDER BY end_time
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired open rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*models.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, round)
	}

	return rounds, rows.Err()
}
