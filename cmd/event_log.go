package cmd

import (
	"context"

	log "github.com/sirupsen/logrus"

	"updown/events"
)

// subscribeEventLog attaches structured log handlers for every engine event
// so the event stream is observable without any external consumer.
func subscribeEventLog(bus *events.Bus) {
	bus.Subscribe(events.EventTypeRoundCreated, func(ctx context.Context, env events.Envelope) {
		e := env.Event.(events.RoundCreatedEvent)
		log.WithFields(log.Fields{
			"eventID":    env.EventID,
			"roundID":    e.RoundID,
			"startTime":  e.StartTime,
			"endTime":    e.EndTime,
			"startPrice": e.StartPrice,
		}).Info("Round created")
	})

	bus.Subscribe(events.EventTypeBetPlaced, func(ctx context.Context, env events.Envelope) {
		e := env.Event.(events.BetPlacedEvent)
		log.WithFields(log.Fields{
			"eventID":       env.EventID,
			"roundID":       e.RoundID,
			"participantID": e.ParticipantID,
			"side":          e.Side,
			"amount":        e.Amount,
			"sideTotal":     e.SideTotal,
		}).Info("Bet placed")
	})

	bus.Subscribe(events.EventTypeRoundSettled, func(ctx context.Context, env events.Envelope) {
		e := env.Event.(events.RoundSettledEvent)
		log.WithFields(log.Fields{
			"eventID":    env.EventID,
			"roundID":    e.RoundID,
			"state":      e.State,
			"outcome":    e.Outcome,
			"startPrice": e.StartPrice,
			"endPrice":   e.EndPrice,
			"yesTotal":   e.YesTotal,
			"noTotal":    e.NoTotal,
		}).Info("Round settled")
	})

	bus.Subscribe(events.EventTypePayoutClaimed, func(ctx context.Context, env events.Envelope) {
		e := env.Event.(events.PayoutClaimedEvent)
		log.WithFields(log.Fields{
			"eventID":       env.EventID,
			"roundID":       e.RoundID,
			"participantID": e.ParticipantID,
			"stake":         e.Stake,
			"payout":        e.Payout,
			"fee":           e.Fee,
		}).Info("Payout claimed")
	})

	bus.Subscribe(events.EventTypeFeesSwept, func(ctx context.Context, env events.Envelope) {
		e := env.Event.(events.FeesSweptEvent)
		log.WithFields(log.Fields{
			"eventID":     env.EventID,
			"recipientID": e.RecipientID,
			"amount":      e.Amount,
		}).Info("Fees swept")
	})

	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, env events.Envelope) {
		e := env.Event.(events.BalanceChangeEvent)
		log.WithFields(log.Fields{
			"eventID":    env.EventID,
			"accountID":  e.AccountID,
			"entryType":  e.EntryType,
			"change":     e.ChangeAmount,
			"newBalance": e.NewBalance,
		}).Debug("Balance changed")
	})
}
