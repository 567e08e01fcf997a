package trainer

import "time"

// #region config
// Config holds background training parameters.
type Config struct {
	Interval      time.Duration // pause between successful cycles
	Backoff       time.Duration // pause after a failed cycle
	MaxHops       int           // hop budget per training walk
	DefaultReward float64       // flat reward granted per newly visited node
}

// DefaultConfig returns the standard training cadence.
func DefaultConfig() Config {
	return Config{
		Interval:      300 * time.Second,
		Backoff:       60 * time.Second,
		MaxHops:       3,
		DefaultReward: 0.1,
	}
}

// #endregion config

// #region cycle-record
// CycleRecord summarizes one completed training cycle.
type CycleRecord struct {
	StartNodeID   string
	Hops          int
	StopReason    string
	TableSize     int // distinct states after the cycle
	SyncedEntries int // Q-entries written back to the store
	Duration      time.Duration
	CreatedAt     time.Time
}

// #endregion cycle-record
