package repository

import (
	"context"
	"fmt"

	"updown/database"
	"updown/models"

	"github.com/jackc/pgx/v5"
)

// BetRepository implements the BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

const betColumns = `
	round_id, participant_id, side, amount, claimed, payout, created_at, updated_at
`

func scanBet(row pgx.Row) (*models.Bet, error) {
	var bet models.Bet
	err := row.Scan(
		&bet.RoundID,
		&bet.ParticipantID,
		&bet.Side,
		&bet.Amount,
		&bet.Claimed,
		&bet.Payout,
		&bet.CreatedAt,
		&bet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bet, nil
}

// Get retrieves the aggregate bet of a participant in a round
func (r *BetRepository) Get(ctx context.Context, roundID, participantID int64) (*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE round_id = $1 AND participant_id = $2`

	bet, err := scanBet(r.q.QueryRow(ctx, query, roundID, participantID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet (round %d, participant %d): %w", roundID, participantID, err)
	}

	return bet, nil
}

// Create records the first placement of a participant in a round, fixing
// their side for the rest of the round.
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (round_id, participant_id, side, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.RoundID,
		bet.ParticipantID,
		bet.Side,
		bet.Amount,
	).Scan(&bet.CreatedAt, &bet.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create bet (round %d, participant %d): %w", bet.RoundID, bet.ParticipantID, err)
	}

	return nil
}

// AddAmount accumulates a repeat same-side placement into the existing record
func (r *BetRepository) AddAmount(ctx context.Context, roundID, participantID int64, amount int64) error {
	query := `
		UPDATE bets
		SET amount = amount + $3, updated_at = NOW()
		WHERE round_id = $1 AND participant_id = $2 AND claimed = FALSE
	`

	tag, err := r.q.Exec(ctx, query, roundID, participantID, amount)
	if err != nil {
		return fmt.Errorf("failed to add to bet (round %d, participant %d): %w", roundID, participantID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("add to bet (round %d, participant %d): %w", roundID, participantID, models.ErrNoBet)
	}

	return nil
}

// MarkClaimed flips the claimed flag exactly once, recording the computed
// payout. Returns false when the flag was already set, which is the
// storage-level guard against double payment: the flag is acquired before
// any balance credit in the same transaction.
func (r *BetRepository) MarkClaimed(ctx context.Context, roundID, participantID int64, payout int64) (bool, error) {
	query := `
		UPDATE bets
		SET claimed = TRUE, payout = $3, updated_at = NOW()
		WHERE round_id = $1 AND participant_id = $2 AND claimed = FALSE
	`

	tag, err := r.q.Exec(ctx, query, roundID, participantID, payout)
	if err != nil {
		return false, fmt.Errorf("failed to mark bet claimed (round %d, participant %d): %w", roundID, participantID, err)
	}

	return tag.RowsAffected() > 0, nil
}

// GetByRound returns all bets recorded for a round
func (r *BetRepository) GetByRound(ctx context.Context, roundID int64) ([]*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets WHERE round_id = $1 ORDER BY created_at`

	rows, err := r.q.Query(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for round %d: %w", roundID, err)
	}
	defer rows.Close()

	var bets []*models.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}

	return bets, rows.Err()
}

// GetByParticipant returns bets placed by a participant, newest first
func (r *BetRepository) GetByParticipant(ctx context.Context, participantID int64, limit int) ([]*models.Bet, error) {
	query := `
		SELECT ` + betColumns + `
		FROM bets
		WHERE participant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, participantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for participant %d: %w", participantID, err)
	}
	defer rows.Close()

	var bets []*models.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}

	return bets, rows.Err()
}
