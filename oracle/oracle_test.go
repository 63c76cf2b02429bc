package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	t.Run("integer price", func(t *testing.T) {
		price, err := ParsePrice("20000")
		require.NoError(t, err)
		assert.Equal(t, 20000*PriceScale, price)
	})

	t.Run("decimal price", func(t *testing.T) {
		price, err := ParsePrice("123.45")
		require.NoError(t, err)
		assert.Equal(t, int64(12_345_000_000), price)
	})

	t.Run("fractional only", func(t *testing.T) {
		price, err := ParsePrice("0.00000001")
		require.NoError(t, err)
		assert.Equal(t, int64(1), price)
	})

	t.Run("zero", func(t *testing.T) {
		price, err := ParsePrice("0")
		require.NoError(t, err)
		assert.Equal(t, int64(0), price)
	})

	t.Run("excess precision is dropped", func(t *testing.T) {
		price, err := ParsePrice("1.0000000019")
		require.NoError(t, err)
		assert.Equal(t, PriceScale+1, price)
	})

	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParsePrice("")
		assert.Error(t, err)
	})

	t.Run("rejects non-numeric input", func(t *testing.T) {
		for _, s := range []string{"abc", "12a.5", "12.3x", "-5"} {
			_, err := ParsePrice(s)
			assert.Error(t, err, "input %q", s)
		}
	})
}

func TestQuote_IsStale(t *testing.T) {
	now := time.Now()
	quote := Quote{Price: 100, Timestamp: now.Add(-time.Minute)}

	assert.False(t, quote.IsStale(now, 5*time.Minute))
	assert.True(t, quote.IsStale(now, 30*time.Second))
}

func TestFixedFeed(t *testing.T) {
	ctx := context.Background()

	t.Run("empty feed has no quote", func(t *testing.T) {
		feed := &FixedFeed{}
		_, err := feed.CurrentPrice(ctx)
		assert.ErrorIs(t, err, ErrNoQuote)
	})

	t.Run("returns the loaded price", func(t *testing.T) {
		feed := NewFixedFeed(42 * PriceScale)
		quote, err := feed.CurrentPrice(ctx)
		require.NoError(t, err)
		assert.Equal(t, 42*PriceScale, quote.Price)
		assert.False(t, quote.Timestamp.IsZero())
	})

	t.Run("SetPrice refreshes the timestamp", func(t *testing.T) {
		feed := &FixedFeed{}
		feed.SetQuote(Quote{Price: 1, Timestamp: time.Now().Add(-time.Hour)})
		feed.SetPrice(2)

		quote, err := feed.CurrentPrice(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), quote.Price)
		assert.False(t, quote.IsStale(time.Now(), time.Minute))
	})
}
