package policy

import (
	"math/rand"
	"testing"

	"github.com/danielpatrickdp/graphrecall/internal/qtable"
)

func fixedRand(t *testing.T) *rand.Rand {
	t.Helper()
	return rand.New(rand.NewSource(42))
}

func TestChooseEmptyActions(t *testing.T) {
	p := New(qtable.New(), 0.5, fixedRand(t))
	if _, ok := p.Choose(qtable.State{NodeID: "n1"}, nil); ok {
		t.Fatal("expected no action for empty list")
	}
}

func TestChooseGreedyPicksHighest(t *testing.T) {
	table := qtable.New()
	state := qtable.State{NodeID: "n1", VisitedCount: 1}
	a := qtable.Action{RelationType: "r", TargetID: "a"}
	b := qtable.Action{RelationType: "r", TargetID: "b"}
	c := qtable.Action{RelationType: "r", TargetID: "c"}
	table.Set(state, a, 0.1)
	table.Set(state, b, 0.9)
	table.Set(state, c, 0.5)

	p := New(table, 0, fixedRand(t)) // epsilon 0: pure exploitation
	for i := 0; i < 20; i++ {
		got, ok := p.Choose(state, []qtable.Action{a, b, c})
		if !ok || got != b {
			t.Fatalf("iteration %d: expected %v, got %v", i, b, got)
		}
	}
}

func TestChooseGreedyTieBreaksFirstSeen(t *testing.T) {
	table := qtable.New()
	state := qtable.State{NodeID: "n1", VisitedCount: 1}
	actions := []qtable.Action{
		{RelationType: "r", TargetID: "first"},
		{RelationType: "r", TargetID: "second"},
		{RelationType: "r", TargetID: "third"},
	}
	// All zero-valued: first in list wins.
	p := New(table, 0, fixedRand(t))
	for i := 0; i < 20; i++ {
		got, _ := p.Choose(state, actions)
		if got != actions[0] {
			t.Fatalf("tie should go to first-seen action, got %v", got)
		}
	}
}

func TestChooseExploreStaysInList(t *testing.T) {
	table := qtable.New()
	state := qtable.State{NodeID: "n1", VisitedCount: 1}
	actions := []qtable.Action{
		{RelationType: "r", TargetID: "a"},
		{RelationType: "r", TargetID: "b"},
	}
	allowed := map[qtable.Action]bool{actions[0]: true, actions[1]: true}

	p := New(table, 1.0, fixedRand(t)) // epsilon 1: always explore
	for i := 0; i < 100; i++ {
		got, ok := p.Choose(state, actions)
		if !ok || !allowed[got] {
			t.Fatalf("explored outside the action list: %v", got)
		}
	}
}

func TestChooseExploreCoversActions(t *testing.T) {
	table := qtable.New()
	state := qtable.State{NodeID: "n1", VisitedCount: 1}
	actions := []qtable.Action{
		{RelationType: "r", TargetID: "a"},
		{RelationType: "r", TargetID: "b"},
		{RelationType: "r", TargetID: "c"},
	}

	p := New(table, 1.0, fixedRand(t))
	seen := make(map[qtable.Action]bool)
	for i := 0; i < 300; i++ {
		got, _ := p.Choose(state, actions)
		seen[got] = true
	}
	if len(seen) != len(actions) {
		t.Errorf("exploration never reached some actions: %d of %d", len(seen), len(actions))
	}
}

func TestChooseNegativeValuesStillGreedy(t *testing.T) {
	table := qtable.New()
	state := qtable.State{NodeID: "n1", VisitedCount: 1}
	a := qtable.Action{RelationType: "r", TargetID: "a"}
	b := qtable.Action{RelationType: "r", TargetID: "b"}
	table.Set(state, a, -0.9)
	table.Set(state, b, -0.1)

	p := New(table, 0, fixedRand(t))
	got, _ := p.Choose(state, []qtable.Action{a, b})
	if got != b {
		t.Errorf("expected least-negative action, got %v", got)
	}
}
