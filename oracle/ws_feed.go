package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// tickerMessage is the wire format of the upstream ticker stream
type tickerMessage struct {
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Timestamp int64  `json:"ts"` // unix milliseconds
}

// WSFeed subscribes to a ticker websocket stream and keeps the most recent
// quote for the configured symbol in memory. It reconnects on disconnect.
type WSFeed struct {
	wsURL  string
	symbol string

	mu    sync.RWMutex
	quote Quote
	set   bool

	closeOnce sync.Once
	done      chan struct{}
}

// NewWSFeed creates a feed for the given stream URL and symbol
func NewWSFeed(wsURL, symbol string) *WSFeed {
	return &WSFeed{
		wsURL:  wsURL,
		symbol: symbol,
		done:   make(chan struct{}),
	}
}

// CurrentPrice returns the most recently observed quote
func (f *WSFeed) CurrentPrice(ctx context.Context) (Quote, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.set {
		return Quote{}, ErrNoQuote
	}
	return f.quote, nil
}

// Run connects and consumes ticker messages until ctx is cancelled.
// Reconnects with backoff on disconnect.
func (f *WSFeed) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		if err := f.runConnection(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithFields(log.Fields{
				"url":   f.wsURL,
				"error": err,
			}).Warn("Oracle feed disconnected, reconnecting")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(2 * time.Second):
		}
	}
}

func (f *WSFeed) runConnection(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, f.wsURL, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to dial oracle stream: %w", err)
	}
	defer conn.Close()

	sub := map[string]any{"op": "subscribe", "symbols": []string{f.symbol}}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	log.WithFields(log.Fields{
		"url":    f.wsURL,
		"symbol": f.symbol,
	}).Info("Oracle feed subscribed")

	// Unblock ReadMessage when the context is cancelled.
	go func() {
		select {
		case <-ctx.Done():
		case <-f.done:
		}
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to read oracle stream: %w", err)
		}

		var msg tickerMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.WithField("error", err).Debug("Skipping unparseable oracle message")
			continue
		}
		if msg.Symbol != f.symbol || msg.Price == "" {
			continue
		}

		price, err := ParsePrice(msg.Price)
		if err != nil {
			log.WithFields(log.Fields{
				"price": msg.Price,
				"error": err,
			}).Warn("Oracle quoted an unparseable price")
			continue
		}

		f.mu.Lock()
		f.quote = Quote{
			Price:     price,
			Timestamp: time.UnixMilli(msg.Timestamp),
		}
		f.set = true
		f.mu.Unlock()
	}
}

// Close stops the feed
func (f *WSFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
