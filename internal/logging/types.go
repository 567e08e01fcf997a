package logging

import "time"

// #region query-entry
// QueryEntry is a single row in the query_log table: one retrieval request
// and its outcome, kept for auditing what the engine served and why.
type QueryEntry struct {
	QueryID      string
	Query        string
	KeywordsJSON string
	TokenBudget  int
	PathCount    int
	TotalTokens  int
	TopScore     float64
	Error        string // empty on success
	Duration     time.Duration
	CreatedAt    time.Time
}

// #endregion query-entry
