// Package repository defines the article report store interface and errors.
package repository

import "time"

// Option applies a configuration option to the MeanStore.
type Option func(*MeanStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MeanStore) {
		if interval > 0 {
			s.metricsInterval = interval
		}
	}
}
