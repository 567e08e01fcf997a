// Package logging persists a durable audit trail of retrieval queries.
package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema

const queryLogSchema = `
CREATE TABLE IF NOT EXISTS query_log (
    query_id      TEXT NOT NULL,
    query         TEXT NOT NULL,
    keywords_json TEXT,
    token_budget  INTEGER NOT NULL,
    path_count    INTEGER NOT NULL,
    total_tokens  INTEGER NOT NULL,
    top_score     REAL NOT NULL,
    error         TEXT,
    duration_ms   INTEGER NOT NULL,
    created_at    TEXT NOT NULL
);
`

// EnsureQueryLog creates the query_log table if it does not exist.
func EnsureQueryLog(db *sql.DB) error {
	_, err := db.Exec(queryLogSchema)
	return err
}

// #endregion schema

// #region log-query
// LogQuery writes a query audit entry to the query_log table.
func LogQuery(db *sql.DB, entry QueryEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO query_log (query_id, query, keywords_json, token_budget, path_count, total_tokens, top_score, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.QueryID,
		entry.Query,
		nullIfEmpty(entry.KeywordsJSON),
		entry.TokenBudget,
		entry.PathCount,
		entry.TotalTokens,
		entry.TopScore,
		nullIfEmpty(entry.Error),
		entry.Duration.Milliseconds(),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log query: %w", err)
	}
	return nil
}

// #endregion log-query

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
