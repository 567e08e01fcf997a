package explore

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/danielpatrickdp/graphrecall/internal/graphstore"
	"github.com/danielpatrickdp/graphrecall/internal/policy"
	"github.com/danielpatrickdp/graphrecall/internal/qtable"
)

// #region fakes
type fakeGraph struct {
	neighbors map[string][]graphstore.Neighbor
	err       error
}

func (f *fakeGraph) GetNeighbors(_ context.Context, nodeID string) ([]graphstore.Neighbor, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.neighbors[nodeID], nil
}

type fixedScorer struct {
	scores map[string]float64
	err    error
}

func (s *fixedScorer) Score(_ context.Context, nodeID string, _ []string, _ string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if v, ok := s.scores[nodeID]; ok {
		return v, nil
	}
	return 0.5, nil
}

func newExplorer(g *fakeGraph, s Scorer, table *qtable.Table) *Explorer {
	pol := policy.New(table, 0, rand.New(rand.NewSource(7)))
	return New(g, table, pol, s, DefaultConfig())
}

// chain builds a -> b -> c -> d, each hop through its own relation.
func chainGraph() *fakeGraph {
	return &fakeGraph{neighbors: map[string][]graphstore.Neighbor{
		"a": {{TargetID: "b", RelationType: "next", Context: "a to b"}},
		"b": {{TargetID: "c", RelationType: "next", Context: "b to c"}, {TargetID: "a", RelationType: "next", Context: "back"}},
		"c": {{TargetID: "d", RelationType: "next", Context: "c to d"}, {TargetID: "b", RelationType: "next", Context: "back"}},
		"d": {{TargetID: "c", RelationType: "next", Context: "back"}},
	}}
}

// #endregion fakes

func TestExploreStartEqualsTarget(t *testing.T) {
	table := qtable.New()
	e := newExplorer(chainGraph(), &fixedScorer{}, table)

	path, err := e.Explore(context.Background(), Request{StartID: "a", TargetID: "a", MaxHops: 5})
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	if path.Score != 1.0 || path.Hops != 0 {
		t.Errorf("expected score=1.0 hops=0, got score=%f hops=%d", path.Score, path.Hops)
	}
	if path.StopReason != StopReachedTarget {
		t.Errorf("expected reached_target, got %s", path.StopReason)
	}
	// Target check wins even with a zero hop budget.
	path, _ = e.Explore(context.Background(), Request{StartID: "a", TargetID: "a", MaxHops: 0})
	if path.Score != 1.0 || path.Hops != 0 {
		t.Errorf("maxHops=0: expected score=1.0 hops=0, got %+v", path)
	}
}

func TestExploreReachesTarget(t *testing.T) {
	table := qtable.New()
	e := newExplorer(chainGraph(), &fixedScorer{}, table)

	path, err := e.Explore(context.Background(), Request{StartID: "a", TargetID: "c", MaxHops: 5})
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	if path.StopReason != StopReachedTarget {
		t.Fatalf("expected reached_target, got %s (%+v)", path.StopReason, path)
	}
	if path.Score != 1.0 || path.Hops != 2 {
		t.Errorf("expected score=1.0 hops=2, got score=%f hops=%d", path.Score, path.Hops)
	}
	want := []string{"a", "b", "c"}
	for i, n := range want {
		if path.Nodes[i] != n {
			t.Errorf("nodes[%d]: expected %s, got %s", i, n, path.Nodes[i])
		}
	}
}

func TestExploreNeverRevisits(t *testing.T) {
	// Dense graph full of back-edges; the walk must still be simple.
	g := &fakeGraph{neighbors: map[string][]graphstore.Neighbor{
		"a": {{TargetID: "b", RelationType: "r"}, {TargetID: "c", RelationType: "r"}},
		"b": {{TargetID: "a", RelationType: "r"}, {TargetID: "c", RelationType: "r"}},
		"c": {{TargetID: "a", RelationType: "r"}, {TargetID: "b", RelationType: "r"}},
	}}
	table := qtable.New()
	e := newExplorer(g, &fixedScorer{}, table)

	path, err := e.Explore(context.Background(), Request{StartID: "a", MaxHops: 10})
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	seen := make(map[string]bool)
	for _, n := range path.Nodes {
		if seen[n] {
			t.Fatalf("node %s visited twice in %v", n, path.Nodes)
		}
		seen[n] = true
	}
	// Three mutually connected nodes: the walk exhausts them and dead-ends.
	if path.StopReason != StopDeadEnd {
		t.Errorf("expected dead_end, got %s", path.StopReason)
	}
}

func TestExploreDeadEndScore(t *testing.T) {
	g := &fakeGraph{neighbors: map[string][]graphstore.Neighbor{
		"a": {{TargetID: "b", RelationType: "r", Context: "ctx"}},
		"b": nil,
	}}
	table := qtable.New()
	e := newExplorer(g, &fixedScorer{}, table)

	path, err := e.Explore(context.Background(), Request{StartID: "a", MaxHops: 5})
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	if path.StopReason != StopDeadEnd {
		t.Fatalf("expected dead_end, got %s", path.StopReason)
	}
	// max(0, 1 - 1/10) * 0.5 = 0.45
	if math.Abs(path.Score-0.45) > 1e-9 {
		t.Errorf("expected 0.45, got %f", path.Score)
	}
}

func TestExploreHopLimit(t *testing.T) {
	table := qtable.New()
	e := newExplorer(chainGraph(), &fixedScorer{}, table)

	path, err := e.Explore(context.Background(), Request{StartID: "a", MaxHops: 2})
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	if path.StopReason != StopHopLimit {
		t.Fatalf("expected hop_limit, got %s", path.StopReason)
	}
	if path.Hops != 2 {
		t.Errorf("expected 2 hops, got %d", path.Hops)
	}
	// max(0, 1 - 2/10) * 0.5 = 0.4
	if math.Abs(path.Score-0.4) > 1e-9 {
		t.Errorf("expected 0.4, got %f", path.Score)
	}
}

func TestExploreLowRewardStop(t *testing.T) {
	table := qtable.New()
	scorer := &fixedScorer{scores: map[string]float64{"b": 0.05}}
	e := newExplorer(chainGraph(), scorer, table)

	path, err := e.Explore(context.Background(), Request{StartID: "a", MaxHops: 5})
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	if path.StopReason != StopLowReward {
		t.Fatalf("expected low_reward, got %s", path.StopReason)
	}
	if path.Hops != 1 {
		t.Errorf("expected stop after first hop, got %d", path.Hops)
	}
}

func TestExploreFixedRewardSkipsScorer(t *testing.T) {
	table := qtable.New()
	scorer := &fixedScorer{err: errors.New("must not be called")}
	e := newExplorer(chainGraph(), scorer, table)

	path, err := e.Explore(context.Background(), Request{StartID: "a", MaxHops: 2, FixedReward: 0.1})
	if err != nil {
		t.Fatalf("fixed-reward walk should not consult the scorer: %v", err)
	}
	if path.Hops != 2 {
		t.Errorf("expected 2 hops, got %d", path.Hops)
	}
	// The walk itself must have learned something.
	if table.Size() == 0 {
		t.Error("fixed-reward walk left the table empty")
	}
}

func TestExploreUpdatesTable(t *testing.T) {
	table := qtable.New()
	e := newExplorer(chainGraph(), &fixedScorer{}, table)

	_, err := e.Explore(context.Background(), Request{StartID: "a", MaxHops: 3, Keywords: []string{"x"}})
	if err != nil {
		t.Fatalf("explore: %v", err)
	}

	// First hop: state a_v1, action next:b, reward 0.5, empty next state.
	got := table.Get(qtable.State{NodeID: "a", VisitedCount: 1}, qtable.Action{RelationType: "next", TargetID: "b"})
	if math.Abs(got-0.05) > 1e-9 {
		t.Errorf("expected first-hop Q 0.05, got %f", got)
	}
}

func TestExploreStoreUnavailable(t *testing.T) {
	table := qtable.New()
	g := &fakeGraph{err: errors.New("connection refused")}
	e := newExplorer(g, &fixedScorer{}, table)

	path, err := e.Explore(context.Background(), Request{StartID: "a", MaxHops: 3})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if path.Score != 0 || path.Hops != 0 {
		t.Errorf("aborted path must be zero-score zero-hop, got %+v", path)
	}
	if path.StopReason != StopStoreError {
		t.Errorf("expected store_error, got %s", path.StopReason)
	}
}

func TestExploreKeepsCauseUnwrappable(t *testing.T) {
	// A cancelled context must stay visible through the wrap so callers can
	// tell shutdown apart from a real store failure.
	table := qtable.New()
	g := &fakeGraph{err: context.Canceled}
	e := newExplorer(g, &fixedScorer{}, table)

	_, err := e.Explore(context.Background(), Request{StartID: "a", MaxHops: 3})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("inner cause lost in wrap: %v", err)
	}

	// Same for scorer failures.
	e = newExplorer(chainGraph(), &fixedScorer{err: context.Canceled}, table)
	_, err = e.Explore(context.Background(), Request{StartID: "a", MaxHops: 3})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("scorer cause lost in wrap: %v", err)
	}
}

func TestExploreEmptyTableStillTerminates(t *testing.T) {
	// Greedy policy over an all-zero table degenerates to first-seen ties;
	// the walk must still terminate within the hop budget.
	table := qtable.New()
	e := newExplorer(chainGraph(), &fixedScorer{}, table)

	path, err := e.Explore(context.Background(), Request{
		StartID: "a", MaxHops: 3, Keywords: []string{"async", "Sybil"},
	})
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	if path.Hops > 3 {
		t.Errorf("exceeded hop budget: %d", path.Hops)
	}
	if len(path.Nodes) != path.Hops+1 {
		t.Errorf("nodes/hops mismatch: %d nodes, %d hops", len(path.Nodes), path.Hops)
	}
	if len(path.Steps) != path.Hops {
		t.Errorf("steps/hops mismatch: %d steps, %d hops", len(path.Steps), path.Hops)
	}
}
