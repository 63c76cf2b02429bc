// Package oracle provides read-only access to an external price source.
// The engine treats quotes as untrusted-but-authoritative: it does not
// re-validate source integrity, but rejects implausibly stale data.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// PriceScale is the fixed-point multiplier applied to quoted prices.
// A quote of 20000.5 is carried as 20000.5 * PriceScale.
const PriceScale int64 = 100_000_000

// ErrNoQuote is returned while a feed has not observed any price yet.
var ErrNoQuote = errors.New("no price quote available")

// Quote is a point-in-time price observation
type Quote struct {
	Price     int64
	Timestamp time.Time
}

// IsStale checks whether the quote is older than maxAge at the given instant
func (q Quote) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(q.Timestamp) > maxAge
}

// PriceFeed supplies the current price of the observed asset
type PriceFeed interface {
	CurrentPrice(ctx context.Context) (Quote, error)
}

// ParsePrice converts a decimal price string into a scaled integer without
// going through floating point.
func ParsePrice(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty price string")
	}

	var res int64
	i := 0

	for i < len(s) && s[i] != '.' {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("invalid price %q", s)
		}
		res = res*10 + int64(s[i]-'0')*PriceScale
		i++
	}

	if i < len(s) && s[i] == '.' {
		i++
		mult := PriceScale
		for i < len(s) {
			if s[i] < '0' || s[i] > '9' {
				return 0, fmt.Errorf("invalid price %q", s)
			}
			mult /= 10
			res += int64(s[i]-'0') * mult
			i++
		}
	}

	return res, nil
}
