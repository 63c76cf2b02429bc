package repository

import (
	"context"
	"testing"

	"updown/models"
	"updown/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRepository_Record(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	account, err := NewAccountRepository(testDB.DB).Create(ctx, "alice", 100000)
	require.NoError(t, err)

	t.Run("records entry with metadata", func(t *testing.T) {
		entry := testutil.CreateTestLedgerEntry(account.ID, models.EntryTypeDeposit, 100000)

		err := repo.Record(ctx, entry)
		require.NoError(t, err)

		assert.Positive(t, entry.ID)
		assert.False(t, entry.CreatedAt.IsZero())
	})

	t.Run("records entry tied to a round", func(t *testing.T) {
		round := testutil.CreateTestRound(2000000000000)
		require.NoError(t, NewRoundRepository(testDB.DB).Create(ctx, round))

		entry := testutil.CreateTestLedgerEntry(account.ID, models.EntryTypeBetEscrow, -500)
		entry.RoundID = &round.ID

		require.NoError(t, repo.Record(ctx, entry))

		entries, err := repo.GetByRound(ctx, round.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, models.EntryTypeBetEscrow, entries[0].EntryType)
		require.NotNil(t, entries[0].RoundID)
		assert.Equal(t, round.ID, *entries[0].RoundID)
		assert.Equal(t, true, entries[0].Metadata["test"])
	})
}

func TestLedgerRepository_GetByAccount(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	account, err := NewAccountRepository(testDB.DB).Create(ctx, "alice", 100000)
	require.NoError(t, err)

	types := []models.EntryType{
		models.EntryTypeDeposit,
		models.EntryTypeBetEscrow,
		models.EntryTypePayout,
	}
	for _, entryType := range types {
		require.NoError(t, repo.Record(ctx, testutil.CreateTestLedgerEntry(account.ID, entryType, 100)))
	}

	t.Run("newest first", func(t *testing.T) {
		entries, err := repo.GetByAccount(ctx, account.ID, 10)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, models.EntryTypePayout, entries[0].EntryType)
		assert.Equal(t, models.EntryTypeDeposit, entries[2].EntryType)
	})

	t.Run("respects limit", func(t *testing.T) {
		entries, err := repo.GetByAccount(ctx, account.ID, 2)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("no entries", func(t *testing.T) {
		other, err := NewAccountRepository(testDB.DB).Create(ctx, "bob", 100000)
		require.NoError(t, err)

		entries, err := repo.GetByAccount(ctx, other.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestFeeRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewFeeRepository(testDB.DB)
	ctx := context.Background()

	t.Run("starts at zero", func(t *testing.T) {
		accrued, err := repo.GetAccrued(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), accrued)
	})

	t.Run("sweep of empty balance", func(t *testing.T) {
		swept, err := repo.SweepAccrued(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), swept)
	})

	t.Run("accrue and sweep", func(t *testing.T) {
		require.NoError(t, repo.AddAccrued(ctx, 40))
		require.NoError(t, repo.AddAccrued(ctx, 60))

		accrued, err := repo.GetAccrued(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(100), accrued)

		swept, err := repo.SweepAccrued(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(100), swept)

		// Balance resets after the sweep
		accrued, err = repo.GetAccrued(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), accrued)

		swept, err = repo.SweepAccrued(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), swept)
	})
}
