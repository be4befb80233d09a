// Package sports holds the per-sport analysis thresholds. Defaults follow the
// reference deployment and every knob is overridable from the environment.
package sports

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the veto thresholds and scheduling knobs for the analysis
// pipeline.
type Config struct {
	// SpreadCaps maps a sport-key prefix to the maximum reference spread the
	// pipeline will analyze. Spreads beyond the cap are structurally vetoed.
	SpreadCaps       map[string]float64
	DefaultSpreadCap float64

	// JuiceCeiling is the worst acceptable final American price. Anything
	// more negative is vetoed regardless of edge.
	JuiceCeiling float64

	// MinConsensusBooks is the number of distinct competing books that must
	// show positive value before an edge is considered market-real.
	MinConsensusBooks int

	// UnderdogProbFloor is the implied-probability percentage below which a
	// moneyline underdog pick is swapped for a same-side spread when one
	// carries value.
	UnderdogProbFloor float64

	// AnalysisInterval is the minimum spacing between analysis starts.
	AnalysisInterval time.Duration

	// CacheTTL bounds how long a cached quote set stays usable.
	CacheTTL time.Duration

	// SharpBook is the book key treated as the pricing reference.
	SharpBook string

	// OracleTimeout and OracleRetryBackoff govern the single retry against
	// the research oracle.
	OracleTimeout      time.Duration
	OracleRetryBackoff time.Duration
}

// NewConfig builds the default configuration with environment overrides.
func NewConfig() *Config {
	return &Config{
		SpreadCaps: map[string]float64{
			"americanfootball": getEnvFloat("SPREAD_CAP_FOOTBALL", 14),
			"basketball":       getEnvFloat("SPREAD_CAP_BASKETBALL", 16),
			"icehockey":        getEnvFloat("SPREAD_CAP_HOCKEY", 4),
			"baseball":         getEnvFloat("SPREAD_CAP_BASEBALL", 4),
		},
		DefaultSpreadCap:   getEnvFloat("SPREAD_CAP_DEFAULT", 10),
		JuiceCeiling:       getEnvFloat("JUICE_CEILING", -160),
		MinConsensusBooks:  getEnvInt("MIN_CONSENSUS_BOOKS", 2),
		UnderdogProbFloor:  getEnvFloat("UNDERDOG_PROB_FLOOR", 33.0),
		AnalysisInterval:   getEnvDuration("ANALYSIS_INTERVAL", 60*time.Second),
		CacheTTL:           getEnvDuration("QUOTE_CACHE_TTL", 60*time.Minute),
		SharpBook:          getEnv("SHARP_BOOK", "pinnacle"),
		OracleTimeout:      getEnvDuration("ORACLE_TIMEOUT", 45*time.Second),
		OracleRetryBackoff: getEnvDuration("ORACLE_RETRY_BACKOFF", 3*time.Second),
	}
}

// SpreadCap returns the structural spread ceiling for a sport key, matching
// on key prefix (e.g. "basketball_nba" matches "basketball").
func (c *Config) SpreadCap(sportKey string) float64 {
	for prefix, cap := range c.SpreadCaps {
		if strings.HasPrefix(sportKey, prefix) {
			return cap
		}
	}
	return c.DefaultSpreadCap
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
