package config

import "time"

const (
	DefaultRequestTimeout = 30 * time.Second
	DefaultSyncInterval   = 5 * time.Minute
	DefaultHooksAddress   = "127.0.0.1:8765"
	DefaultLogMaxSizeMB   = 10
)

// DefaultBackoffLadder is the unattended retry schedule.
func DefaultBackoffLadder() []time.Duration {
	return []time.Duration{
		60 * time.Second,
		120 * time.Second,
		240 * time.Second,
		480 * time.Second,
		900 * time.Second,
	}
}

func defaults() *StructuredConfig {
	return &StructuredConfig{
		Adapter: Adapter{
			RequestTimeout: DefaultRequestTimeout,
		},
		Workers: Workers{
			SyncInterval:  DefaultSyncInterval,
			BackoffLadder: DefaultBackoffLadder(),
		},
		Hooks: Hooks{
			Address: DefaultHooksAddress,
		},
		Log: Log{
			MaxSizeMB: DefaultLogMaxSizeMB,
		},
	}
}
