package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Oracle configuration
	OracleWSURL        string
	OracleSymbol       string
	OracleMaxStaleness time.Duration // quotes older than this are rejected

	// API configuration
	APIAddr string

	// Engine configuration
	FeeRateBps           int64 // protocol fee on the losing pool, in basis points
	FeeRecipientID       int64 // account that accrued fees are swept to
	StartWindowTolerance time.Duration
	StartingBalance      int64 // balance granted to newly registered accounts

	// Access control
	OperatorIDs []int64 // account IDs allowed to create and settle rounds

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Oracle
		OracleWSURL:        os.Getenv("ORACLE_WS_URL"),
		OracleSymbol:       os.Getenv("ORACLE_SYMBOL"),
		OracleMaxStaleness: 5 * time.Minute,

		// API
		APIAddr: ":8080",

		// Engine defaults
		FeeRateBps:           200, // 2%
		StartWindowTolerance: 30 * time.Second,
		StartingBalance:      100000,

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if addr := os.Getenv("API_ADDR"); addr != "" {
		config.APIAddr = addr
	}
	if bps := os.Getenv("FEE_RATE_BPS"); bps != "" {
		parsed, err := strconv.ParseInt(bps, 10, 64)
		if err != nil || parsed < 0 || parsed > 10000 {
			return nil, fmt.Errorf("FEE_RATE_BPS must be an integer between 0 and 10000")
		}
		config.FeeRateBps = parsed
	}
	if recipient := os.Getenv("FEE_RECIPIENT_ID"); recipient != "" {
		if parsed, err := strconv.ParseInt(recipient, 10, 64); err == nil {
			config.FeeRecipientID = parsed
		}
	}
	if balance := os.Getenv("STARTING_BALANCE"); balance != "" {
		if parsed, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsed
		}
	}
	if staleness := os.Getenv("ORACLE_MAX_STALENESS_SECONDS"); staleness != "" {
		if parsed, err := strconv.ParseInt(staleness, 10, 64); err == nil {
			config.OracleMaxStaleness = time.Duration(parsed) * time.Second
		}
	}
	if tolerance := os.Getenv("START_WINDOW_TOLERANCE_SECONDS"); tolerance != "" {
		if parsed, err := strconv.ParseInt(tolerance, 10, 64); err == nil {
			config.StartWindowTolerance = time.Duration(parsed) * time.Second
		}
	}

	// Parse operator account IDs
	if operatorIDs := os.Getenv("OPERATOR_IDS"); operatorIDs != "" {
		idStrings := strings.Split(operatorIDs, ",")
		for _, idStr := range idStrings {
			idStr = strings.TrimSpace(idStr)
			if idStr != "" {
				if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
					config.OperatorIDs = append(config.OperatorIDs, id)
				}
			}
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if len(config.OperatorIDs) == 0 {
			return nil, fmt.Errorf("OPERATOR_IDS is required")
		}
	}

	return config, nil
}
