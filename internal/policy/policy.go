// Package policy selects traversal actions with an epsilon-greedy rule.
package policy

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/danielpatrickdp/graphrecall/internal/qtable"
)

// #region policy
// Policy picks the next traversal action: with probability epsilon a
// uniformly random action (exploration), otherwise the action with the
// highest current Q-value (exploitation), ties broken by first-seen order.
// Safe for concurrent use; rand.Rand is not, so draws go through a mutex.
type Policy struct {
	table   *qtable.Table
	epsilon float64

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Policy. A nil rng gets a time-seeded source; tests inject a
// fixed seed for determinism.
func New(table *qtable.Table, epsilon float64, rng *rand.Rand) *Policy {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Policy{table: table, epsilon: epsilon, rng: rng}
}

// #endregion policy

// #region choose
// Choose returns the selected action and true, or false when actions is
// empty. It never fabricates actions outside the given list.
func (p *Policy) Choose(state qtable.State, actions []qtable.Action) (qtable.Action, bool) {
	if len(actions) == 0 {
		return qtable.Action{}, false
	}

	if p.draw() < p.epsilon {
		return actions[p.pick(len(actions))], true
	}

	best := -1
	bestQ := math.Inf(-1)
	for i, a := range actions {
		if q := p.table.Get(state, a); q > bestQ {
			bestQ = q
			best = i
		}
	}
	if best < 0 {
		// Degenerate: nothing beat -inf. Fall back to a random action.
		return actions[p.pick(len(actions))], true
	}
	return actions[best], true
}

func (p *Policy) draw() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}

func (p *Policy) pick(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(n)
}

// #endregion choose
