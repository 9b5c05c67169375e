// Package config loads runtime configuration from the environment: a
// getEnv fallback helper and a flat Config struct populated by Load().
package config

import (
	"os"
	"strconv"
)

// Config holds the settings a rhythm host needs to run.
type Config struct {
	Environment string

	SampleRate  float64
	BPM         float64
	BeatsPerBar float64

	// Seed is the reproducibility anchor passed to rhythm.Spec.Seed. Zero
	// means "unset": rhythm.NewMachine treats it as a request to derive a
	// stream from rng.Global()'s current (process-entropy-seeded) state
	// rather than a fixed seed.
	Seed uint64

	SentryDSN string
}

// Load reads Config from the environment, falling back to sensible
// defaults for local development.
func Load() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		SampleRate:  getEnvFloat("RHYTHM_SAMPLE_RATE", 48000),
		BPM:         getEnvFloat("RHYTHM_BPM", 120),
		BeatsPerBar: getEnvFloat("RHYTHM_BEATS_PER_BAR", 4),
		Seed:        getEnvUint("RHYTHM_SEED", 0),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}
