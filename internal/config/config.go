// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - External errors are wrapped via this package's sentinel kinds.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// EvalQueueSize bounds the in-memory evaluation queue.
	EvalQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxReportLimit caps GET /articles?limit.
	MaxReportLimit int `koanf:"max_report_limit"`

	// Precision sets the number of decimal places on reported EQS values.
	Precision int `koanf:"precision"`

	// Weights overrides individual rubric weights, keyed by dimension:
	// date_correct, root_event, event_type, ambiguity, relevance.
	Weights map[string]float64 `koanf:"weights"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		EvalQueueSize:  100_000,
		WorkerCount:    runtime.NumCPU() * 4,
		DedupeSize:     500_000,
		MaxReportLimit: 100,
		Precision:      4,
		Weights:        map[string]float64{},
	}
}
