package retrieval

import (
	"github.com/danielpatrickdp/graphrecall/internal/explore"
	"github.com/danielpatrickdp/graphrecall/internal/graphstore"
)

// #region config
// Config holds limits for budget-aware path retrieval.
type Config struct {
	MaxSeeds         int // seed nodes explored per query
	MaxPaths         int // paths collected before budget assembly
	MaxHops          int // hop budget per exploration
	MinPartialTokens int // smallest budget remainder worth a truncated path
}

// DefaultConfig returns sensible defaults for path retrieval.
func DefaultConfig() Config {
	return Config{
		MaxSeeds:         3,
		MaxPaths:         5,
		MaxHops:          3,
		MinPartialTokens: 100,
	}
}

// #endregion config

// #region result
// Result is the assembled, token-budgeted answer to one retrieval query.
type Result struct {
	Entities    []graphstore.Node     // unique nodes across all included paths
	Hyperedges  []graphstore.Relation // unique relations across all included steps
	Paths       []explore.Path        // included paths, best score first
	TotalTokens int                   // sum of EstimatedTokens over Paths
	Summary     string                // human-readable digest of the retrieval
}

// #endregion result
