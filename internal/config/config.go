package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            int
	NatsURL         string
	NatsToken       string
	DatabaseURL     string
	LogLevel        string
	AnthropicAPIKey string
	AnthropicModel  string

	// Segmentation bounds and scoring weights.
	SegmentMinChars int
	SegmentMaxChars int
	SegmentTimeGap  time.Duration
	WeightMarker    float64
	WeightDensity   float64
	WeightLength    float64

	// Reasoning loop budgets.
	MaxSteps        int
	WorkerMaxSteps  int
	InlineThreshold int
	TokenBudget     int
	QueryTimeout    time.Duration
	CallTimeout     time.Duration
}

func Load() Config {
	return Config{
		Port:            envInt("ORACLE_PORT", 8760),
		NatsURL:         envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:       envStr("NATS_TOKEN", ""),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("ORACLE_MODEL", "claude-sonnet-4-20250514"),

		SegmentMinChars: envInt("ORACLE_SEGMENT_MIN_CHARS", 200),
		SegmentMaxChars: envInt("ORACLE_SEGMENT_MAX_CHARS", 1500),
		SegmentTimeGap:  envDur("ORACLE_SEGMENT_TIME_GAP", 10*time.Minute),
		WeightMarker:    envFloat("ORACLE_WEIGHT_MARKER", 0.5),
		WeightDensity:   envFloat("ORACLE_WEIGHT_DENSITY", 0.3),
		WeightLength:    envFloat("ORACLE_WEIGHT_LENGTH", 0.2),

		MaxSteps:        envInt("ORACLE_MAX_STEPS", 12),
		WorkerMaxSteps:  envInt("ORACLE_WORKER_MAX_STEPS", 6),
		InlineThreshold: envInt("ORACLE_INLINE_THRESHOLD", 2000),
		TokenBudget:     envInt("ORACLE_TOKEN_BUDGET", 6000),
		QueryTimeout:    envDur("ORACLE_QUERY_TIMEOUT", 3*time.Minute),
		CallTimeout:     envDur("ORACLE_CALL_TIMEOUT", 45*time.Second),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
