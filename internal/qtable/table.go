// Package qtable holds the learned state-action values that guide graph
// traversal, plus their snapshot persistence and convergence metrics.
package qtable

import (
	"sync"

	"github.com/danielpatrickdp/graphrecall/internal/update"
)

// #region table
// Table is the in-memory Q-value table. Absent entries read as 0.0 (the
// neutral prior); entries are created lazily on first write. A single RWMutex
// guards the whole table — the background trainer and concurrent retrievals
// share it, and updates are small numeric nudges, so one lock is enough.
type Table struct {
	mu     sync.RWMutex
	values map[string]map[string]float64
}

// New returns an empty table.
func New() *Table {
	return &Table{values: make(map[string]map[string]float64)}
}

// #endregion table

// #region get-set
// Get returns the Q-value for a state-action pair, 0.0 if never written.
func (t *Table) Get(s State, a Action) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.values[s.Key()][a.Key()]
}

// Set writes the Q-value for a state-action pair exactly, no clamping.
func (t *Table) Set(s State, a Action, value float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.set(s.Key(), a.Key(), value)
}

func (t *Table) set(stateKey, actionKey string, value float64) {
	actions, ok := t.values[stateKey]
	if !ok {
		actions = make(map[string]float64)
		t.values[stateKey] = actions
	}
	actions[actionKey] = value
}

// #endregion get-set

// #region max
// MaxOverActions returns the highest Q-value among all recorded actions for
// the state, 0.0 for an unseen state.
func (t *Table) MaxOverActions(s State) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.maxOverActions(s.Key())
}

func (t *Table) maxOverActions(stateKey string) float64 {
	actions := t.values[stateKey]
	if len(actions) == 0 {
		return 0.0
	}
	first := true
	var max float64
	for _, v := range actions {
		if first || v > max {
			max = v
			first = false
		}
	}
	return max
}

// #endregion max

// #region apply-td
// ApplyTD performs one temporal-difference update for (state, action) under a
// single lock acquisition, so the read-modify-write is atomic per step.
// It returns the new Q-value.
func (t *Table) ApplyTD(s State, a Action, reward float64, next State, cfg update.Config) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	stateKey, actionKey := s.Key(), a.Key()
	oldQ := t.values[stateKey][actionKey]
	newQ := update.NextQ(oldQ, reward, t.maxOverActions(next.Key()), cfg)
	t.set(stateKey, actionKey, newQ)
	return newQ
}

// #endregion apply-td

// #region size
// Size returns the number of states with at least one recorded action.
func (t *Table) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

// StateKeys returns the keys of all recorded states, in map order.
func (t *Table) StateKeys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, 0, len(t.values))
	for k := range t.values {
		keys = append(keys, k)
	}
	return keys
}

// #endregion size

// #region snapshot
// Snapshot returns a deep copy of the table contents keyed by derived state
// and action keys.
func (t *Table) Snapshot() map[string]map[string]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]map[string]float64, len(t.values))
	for state, actions := range t.values {
		copied := make(map[string]float64, len(actions))
		for action, v := range actions {
			copied[action] = v
		}
		out[state] = copied
	}
	return out
}

// Restore replaces the table contents with a deep copy of the given mapping.
// Restore(Snapshot()) reproduces the table exactly.
func (t *Table) Restore(values map[string]map[string]float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.values = make(map[string]map[string]float64, len(values))
	for state, actions := range values {
		copied := make(map[string]float64, len(actions))
		for action, v := range actions {
			copied[action] = v
		}
		t.values[state] = copied
	}
}

// #endregion snapshot
