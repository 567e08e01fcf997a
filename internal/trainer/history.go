package trainer

// #region imports
import (
	"database/sql"
	"time"
)

// #endregion

// #region schema

const trainingCyclesSchema = `
CREATE TABLE IF NOT EXISTS training_cycles (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    start_node_id  TEXT NOT NULL,
    hops           INTEGER NOT NULL,
    stop_reason    TEXT NOT NULL,
    table_size     INTEGER NOT NULL,
    synced_entries INTEGER NOT NULL,
    duration_ms    INTEGER NOT NULL,
    created_at     TEXT NOT NULL
);
`

const trainingCyclesIndex = `
CREATE INDEX IF NOT EXISTS idx_training_cycles_created
ON training_cycles(created_at);
`

// #endregion

// #region history-struct

// History persists training cycle outcomes in SQLite.
type History struct {
	db *sql.DB
}

// NewHistory initializes the training_cycles table and returns a History.
func NewHistory(db *sql.DB) (*History, error) {
	if _, err := db.Exec(trainingCyclesSchema); err != nil {
		return nil, err
	}
	if _, err := db.Exec(trainingCyclesIndex); err != nil {
		return nil, err
	}
	return &History{db: db}, nil
}

// #endregion

// #region record-cycle

// RecordCycle persists a single training cycle row.
func (h *History) RecordCycle(rec CycleRecord) error {
	_, err := h.db.Exec(`
		INSERT INTO training_cycles
		(start_node_id, hops, stop_reason, table_size, synced_entries, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.StartNodeID,
		rec.Hops,
		rec.StopReason,
		rec.TableSize,
		rec.SyncedEntries,
		rec.Duration.Milliseconds(),
		rec.CreatedAt.Format(time.RFC3339),
	)
	return err
}

// #endregion

// #region recent-cycles

// RecentCycles returns the most recent cycle records, newest first.
func (h *History) RecentCycles(limit int) ([]CycleRecord, error) {
	rows, err := h.db.Query(`
		SELECT start_node_id, hops, stop_reason, table_size, synced_entries, duration_ms, created_at
		FROM training_cycles
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []CycleRecord
	for rows.Next() {
		var rec CycleRecord
		var durationMs int64
		var createdAtStr string
		if err := rows.Scan(&rec.StartNodeID, &rec.Hops, &rec.StopReason,
			&rec.TableSize, &rec.SyncedEntries, &durationMs, &createdAtStr); err != nil {
			return nil, err
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		if createdAt, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
			rec.CreatedAt = createdAt
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion
