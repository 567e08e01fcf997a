package explore

import (
	"github.com/danielpatrickdp/graphrecall/internal/update"
)

// #region stop-reason
// StopReason records why an exploration terminated.
type StopReason string

const (
	StopReachedTarget StopReason = "reached_target"
	StopDeadEnd       StopReason = "dead_end"
	StopHopLimit      StopReason = "hop_limit"
	StopLowReward     StopReason = "low_reward"
	StopStoreError    StopReason = "store_error"
)

// #endregion stop-reason

// #region step
// Step is one traversed relation within a path.
type Step struct {
	FromID       string
	ToID         string
	RelationType string
}

// #endregion step

// #region path
// Path is the result of a single exploration. Immutable once returned.
type Path struct {
	Nodes      []string // node IDs in visit order, starting node first
	Steps      []Step   // one per hop
	Score      float64
	Hops       int
	StopReason StopReason

	// Filled during result assembly.
	ContextSummary  string
	EstimatedTokens int
	Truncated       bool
}

// #endregion path

// #region request
// Request describes one exploration run.
type Request struct {
	StartID  string
	TargetID string   // empty for undirected exploration
	Keywords []string // reward keywords; ignored when FixedReward > 0
	MaxHops  int

	// FixedReward, when positive, replaces the evaluator for every hop. The
	// trainer uses it to grant a flat reward for newly visited nodes.
	FixedReward float64
}

// #endregion request

// #region config
// Config holds exploration parameters shared across runs.
type Config struct {
	LowRewardThreshold float64 // below this, abandon the path early
	MaxReasonableLen   int     // denominator of the path-length score heuristic
	Update             update.Config
}

// DefaultConfig returns the standard exploration parameters.
func DefaultConfig() Config {
	return Config{
		LowRewardThreshold: 0.1,
		MaxReasonableLen:   10,
		Update:             update.DefaultConfig(),
	}
}

// #endregion config
