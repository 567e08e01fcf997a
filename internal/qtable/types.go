package qtable

import (
	"strconv"
	"strings"
)

// #region state
// State is the coarse traversal position used to index learned values: the
// current node plus how many nodes the walk has visited so far. Keying on the
// visited count rather than the full visited set keeps the table small at the
// cost of some path identity.
type State struct {
	NodeID       string
	VisitedCount int
}

// Key derives the table lookup key for the state.
func (s State) Key() string {
	return s.NodeID + "_v" + strconv.Itoa(s.VisitedCount)
}

// ParseStateKey recovers the node ID from a state key. The visited-count
// suffix is dropped; it reports false when the key has no suffix.
func ParseStateKey(key string) (nodeID string, ok bool) {
	i := strings.LastIndex(key, "_v")
	if i <= 0 {
		return "", false
	}
	if _, err := strconv.Atoi(key[i+2:]); err != nil {
		return "", false
	}
	return key[:i], true
}

// #endregion state

// #region action
// Action is a candidate traversal step: follow a relation of the given type
// to the target node. Structural equality on the two fields is the action's
// identity; Key derives the table lookup key.
type Action struct {
	RelationType string
	TargetID     string
}

// Key derives the table lookup key for the action.
func (a Action) Key() string {
	return a.RelationType + ":" + a.TargetID
}

// ParseActionKey recovers an Action from its derived key. Relation types
// never contain a colon, so the first colon is the separator.
func ParseActionKey(key string) (Action, bool) {
	rel, target, found := strings.Cut(key, ":")
	if !found || rel == "" || target == "" {
		return Action{}, false
	}
	return Action{RelationType: rel, TargetID: target}, true
}

// #endregion action
