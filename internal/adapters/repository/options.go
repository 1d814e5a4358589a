// Package repository persists schedules, stress samples and the risk history.
package repository

import (
	"time"

	"github.com/okian/zerodeadline/pkg/logger"
)

type storeConfig struct {
	log   logger.Logger
	now   func() time.Time
	limit int
}

func newStoreConfig(opts []Option) storeConfig {
	cfg := storeConfig{log: logger.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures a store.
type Option func(*storeConfig)

// WithLogger sets the logger for warnings about unreadable state.
func WithLogger(l logger.Logger) Option {
	return func(c *storeConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *storeConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithHistoryLimit overrides how many history entries are kept.
func WithHistoryLimit(n int) Option {
	return func(c *storeConfig) {
		if n > 0 {
			c.limit = n
		}
	}
}
