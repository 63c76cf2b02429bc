package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"updown/api"
	"updown/config"
	"updown/database"
	"updown/events"
	"updown/oracle"
	"updown/repository"
	"updown/service"
)

// settleInterval is how often expired rounds are swept for settlement
const settleInterval = 15 * time.Second

// Run initializes and starts the settlement engine
func Run(ctx context.Context) error {
	log.Println("Starting updown settlement engine...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize event bus
	eventBus := events.NewBus()
	subscribeEventLog(eventBus)

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize the oracle price feed
	if cfg.OracleWSURL == "" {
		return fmt.Errorf("ORACLE_WS_URL is required")
	}
	feed := oracle.NewWSFeed(cfg.OracleWSURL, cfg.OracleSymbol)
	go func() {
		if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Oracle feed stopped: %v", err)
		}
	}()

	// Initialize services
	policy := service.NewOperatorPolicy(cfg)
	accountService := service.NewAccountService(uowFactory, cfg)
	roundService := service.NewRoundService(uowFactory, feed, policy, cfg)
	bettingService := service.NewBettingService(uowFactory)
	settlementService := service.NewSettlementService(uowFactory, feed, policy, cfg)
	payoutService := service.NewPayoutService(uowFactory, policy, cfg)

	// Initialize the API server
	handler := api.NewHandler(accountService, roundService, bettingService, settlementService, payoutService)
	server := api.NewServer(api.Config{Addr: cfg.APIAddr}, handler)
	go func() {
		if err := server.Start(); err != nil {
			log.Printf("API server stopped: %v", err)
		}
	}()

	// Periodically settle expired rounds on behalf of the first operator
	if len(cfg.OperatorIDs) > 0 {
		go settleLoop(ctx, settlementService, cfg.OperatorIDs[0])
	}

	log.Printf("Engine is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down engine...")
	feed.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("API server shutdown failed: %v", err)
	}

	log.Println("Closing database connection...")
	db.Close()

	log.Println("Shutdown completed")
	return nil
}

// settleLoop sweeps expired open rounds on a fixed interval
func settleLoop(ctx context.Context, settlement service.SettlementService, operatorID int64) {
	ticker := time.NewTicker(settleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := settlement.SettleExpiredRounds(ctx, operatorID); err != nil {
				log.Printf("Failed to settle expired rounds: %v", err)
			}
		}
	}
}
