package oracle

import (
	"context"
	"sync"
	"time"
)

// FixedFeed is an in-memory feed with a settable price, used in tests and
// local development.
type FixedFeed struct {
	mu    sync.RWMutex
	quote Quote
	set   bool
}

// NewFixedFeed creates a feed pre-loaded with the given price
func NewFixedFeed(price int64) *FixedFeed {
	return &FixedFeed{
		quote: Quote{Price: price, Timestamp: time.Now()},
		set:   true,
	}
}

// SetPrice replaces the current quote with a fresh timestamp
func (f *FixedFeed) SetPrice(price int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quote = Quote{Price: price, Timestamp: time.Now()}
	f.set = true
}

// SetQuote replaces the current quote verbatim, timestamp included
func (f *FixedFeed) SetQuote(q Quote) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quote = q
	f.set = true
}

// CurrentPrice returns the stored quote
func (f *FixedFeed) CurrentPrice(ctx context.Context) (Quote, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.set {
		return Quote{}, ErrNoQuote
	}
	return f.quote, nil
}
