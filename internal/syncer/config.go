package syncer

import (
	"time"

	"github.com/openretail/stocksync/internal/config"
)

// Config controls the reconciliation cadence.
type Config struct {
	RunInterval   time.Duration
	PushBatchSize int
}

func DefaultConfig() Config {
	return Config{
		RunInterval:   15 * time.Minute,
		PushBatchSize: 100,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.PushBatchSize <= 0 {
		c.PushBatchSize = defaults.PushBatchSize
	}
	return c
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval:   cfg.SyncInterval,
		PushBatchSize: cfg.SyncPushBatch,
	}.withDefaults()
}
