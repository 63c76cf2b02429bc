package events

import (
	"context"
	"sync"
	"time"

	"updown/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeRoundCreated  EventType = "round_created"
	EventTypeBetPlaced     EventType = "bet_placed"
	EventTypeRoundSettled  EventType = "round_settled"
	EventTypePayoutClaimed EventType = "payout_claimed"
	EventTypeFeesSwept     EventType = "fees_swept"
	EventTypeBalanceChange EventType = "balance_change"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// Envelope carries correlation metadata alongside an event so ledger state
// can be reconstructed from the event history alone.
type Envelope struct {
	EventID   uuid.UUID
	EmittedAt time.Time
	Event     Event
}

// RoundCreatedEvent represents a new round opening
type RoundCreatedEvent struct {
	RoundID    int64
	StartTime  time.Time
	EndTime    time.Time
	StartPrice int64
}

func (e RoundCreatedEvent) Type() EventType {
	return EventTypeRoundCreated
}

// BetPlacedEvent represents a stake recorded against a round side
type BetPlacedEvent struct {
	RoundID       int64
	ParticipantID int64
	Side          models.BetSide
	Amount        int64
	SideTotal     int64
}

func (e BetPlacedEvent) Type() EventType {
	return EventTypeBetPlaced
}

// RoundSettledEvent represents a round outcome being fixed
type RoundSettledEvent struct {
	RoundID    int64
	Outcome    models.RoundOutcome
	State      models.RoundState
	StartPrice int64
	EndPrice   int64
	YesTotal   int64
	NoTotal    int64
}

func (e RoundSettledEvent) Type() EventType {
	return EventTypeRoundSettled
}

// PayoutClaimedEvent represents a participant withdrawing their payout
type PayoutClaimedEvent struct {
	RoundID       int64
	ParticipantID int64
	Stake         int64
	Payout        int64
	Fee           int64
}

func (e PayoutClaimedEvent) Type() EventType {
	return EventTypePayoutClaimed
}

// FeesSweptEvent represents accrued fees moving to the fee recipient
type FeesSweptEvent struct {
	RecipientID int64
	Amount      int64
}

func (e FeesSweptEvent) Type() EventType {
	return EventTypeFeesSwept
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	AccountID    int64
	OldBalance   int64
	NewBalance   int64
	EntryType    models.EntryType
	ChangeAmount int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// Handler is a function that handles events
type Handler func(ctx context.Context, envelope Envelope)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	envelope := Envelope{
		EventID:   uuid.New(),
		EmittedAt: time.Now(),
		Event:     event,
	}

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"eventID":      envelope.EventID,
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, envelope)
		}(handler, i)
	}
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Use background context for event emission to avoid issues with
	// transaction context expiration.
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
