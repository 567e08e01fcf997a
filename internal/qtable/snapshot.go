package qtable

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// #region save
// SaveFile writes the table to path as JSON. The in-memory table stays
// authoritative if the write fails.
func (t *Table) SaveFile(path string) error {
	data, err := json.MarshalIndent(t.Snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// #endregion save

// #region load
// LoadFile replaces the table contents from a JSON snapshot at path. A
// missing file is not an error: the table is left empty and loaded is false.
func (t *Table) LoadFile(path string) (loaded bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read snapshot: %w", err)
	}

	var values map[string]map[string]float64
	if err := json.Unmarshal(data, &values); err != nil {
		return false, fmt.Errorf("parse snapshot: %w", err)
	}
	t.Restore(values)
	return true, nil
}

// #endregion load
