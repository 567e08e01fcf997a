// Package explore drives single bounded-depth traversals over the knowledge
// graph, learning Q-values along the way.
package explore

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielpatrickdp/graphrecall/internal/graphstore"
	"github.com/danielpatrickdp/graphrecall/internal/policy"
	"github.com/danielpatrickdp/graphrecall/internal/qtable"
)

// ErrStoreUnavailable wraps graph store failures during exploration. The
// returned path is zero-score and zero-hop; callers log and move on.
var ErrStoreUnavailable = errors.New("explore: graph store unavailable")

// #region interfaces
// NeighborSource is the slice of the graph store the explorer reads.
type NeighborSource interface {
	GetNeighbors(ctx context.Context, nodeID string) ([]graphstore.Neighbor, error)
}

// Scorer evaluates the reward for arriving at a node.
type Scorer interface {
	Score(ctx context.Context, nodeID string, keywords []string, relationContext string) (float64, error)
}

// #endregion interfaces

// #region explorer
// Explorer runs one traversal at a time; a single Explorer is safe for
// concurrent use because all mutable state lives in the shared Q-table.
type Explorer struct {
	store  NeighborSource
	table  *qtable.Table
	policy *policy.Policy
	scorer Scorer
	cfg    Config
}

// New creates an Explorer.
func New(store NeighborSource, table *qtable.Table, pol *policy.Policy, scorer Scorer, cfg Config) *Explorer {
	if cfg.MaxReasonableLen <= 0 {
		cfg.MaxReasonableLen = 10
	}
	return &Explorer{store: store, table: table, policy: pol, scorer: scorer, cfg: cfg}
}

// #endregion explorer

// #region explore
// Explore traverses from req.StartID until it reaches req.TargetID, dead-ends,
// hits the hop limit, or the learned policy abandons a low-reward path. Every
// hop applies one temporal-difference update to the shared table.
func (e *Explorer) Explore(ctx context.Context, req Request) (Path, error) {
	path := Path{Nodes: []string{req.StartID}}
	visited := map[string]bool{}
	current := req.StartID

	for {
		visited[current] = true

		if req.TargetID != "" && current == req.TargetID {
			path.Score = 1.0
			path.StopReason = StopReachedTarget
			return path, nil
		}

		if path.Hops >= req.MaxHops {
			path.Score = e.lengthScore(path.Hops)
			path.StopReason = StopHopLimit
			return path, nil
		}

		neighbors, err := e.store.GetNeighbors(ctx, current)
		if err != nil {
			return abortedPath(req.StartID), fmt.Errorf("%w: neighbors of %s: %w", ErrStoreUnavailable, current, err)
		}

		// Cycle avoidance: drop actions whose target is already on this path.
		actions := make([]qtable.Action, 0, len(neighbors))
		contexts := make(map[qtable.Action]string, len(neighbors))
		for _, n := range neighbors {
			if visited[n.TargetID] {
				continue
			}
			a := qtable.Action{RelationType: n.RelationType, TargetID: n.TargetID}
			if _, seen := contexts[a]; seen {
				continue
			}
			actions = append(actions, a)
			contexts[a] = n.Context
		}

		if len(actions) == 0 {
			path.Score = e.lengthScore(path.Hops)
			path.StopReason = StopDeadEnd
			return path, nil
		}

		state := qtable.State{NodeID: current, VisitedCount: len(visited)}
		action, ok := e.policy.Choose(state, actions)
		if !ok {
			path.Score = e.lengthScore(path.Hops)
			path.StopReason = StopDeadEnd
			return path, nil
		}

		reward := req.FixedReward
		if reward <= 0 {
			reward, err = e.scorer.Score(ctx, action.TargetID, req.Keywords, contexts[action])
			if err != nil {
				return abortedPath(req.StartID), fmt.Errorf("%w: score %s: %w", ErrStoreUnavailable, action.TargetID, err)
			}
		}

		next := qtable.State{NodeID: action.TargetID, VisitedCount: len(visited) + 1}
		e.table.ApplyTD(state, action, reward, next, e.cfg.Update)

		path.Nodes = append(path.Nodes, action.TargetID)
		path.Steps = append(path.Steps, Step{FromID: current, ToID: action.TargetID, RelationType: action.RelationType})
		path.Hops++
		current = action.TargetID

		// Learned pruning: give up on paths the reward signal says are cold,
		// before the hop limit forces the issue.
		if req.FixedReward <= 0 && reward < e.cfg.LowRewardThreshold {
			path.Score = e.lengthScore(path.Hops)
			path.StopReason = StopLowReward
			return path, nil
		}
	}
}

// #endregion explore

// #region scoring
// lengthScore is the partial-credit heuristic for paths that never reached a
// target: shorter is better, capped at 0.5.
func (e *Explorer) lengthScore(hops int) float64 {
	s := 1.0 - float64(hops)/float64(e.cfg.MaxReasonableLen)
	if s < 0 {
		s = 0
	}
	return s * 0.5
}

func abortedPath(startID string) Path {
	return Path{Nodes: []string{startID}, StopReason: StopStoreError}
}

// #endregion scoring
