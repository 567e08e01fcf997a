// Package trainer runs the background learning loop: periodic fixed-reward
// random walks that populate the Q-table, synced back to durable storage.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/danielpatrickdp/graphrecall/internal/explore"
	"github.com/danielpatrickdp/graphrecall/internal/graphstore"
	"github.com/danielpatrickdp/graphrecall/internal/qtable"
)

// #region interfaces
// SyncStore is the slice of the graph store the trainer needs: a cycle start
// point and a durable mirror for learned values.
type SyncStore interface {
	RandomNode(ctx context.Context) (string, error)
	MergeQValue(ctx context.Context, fromID, toID, relationType string, value float64) error
}

// PathExplorer runs one learning traversal.
type PathExplorer interface {
	Explore(ctx context.Context, req explore.Request) (explore.Path, error)
}

// #endregion interfaces

// #region trainer
// Trainer periodically explores from random nodes with a flat reward,
// then mirrors the in-memory Q-table into the graph store.
type Trainer struct {
	store    SyncStore
	table    *qtable.Table
	explorer PathExplorer
	history  *History // optional; nil disables cycle persistence
	config   Config
	rng      *rand.Rand

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Trainer. history may be nil; rng may be nil for a time-seeded
// source.
func New(store SyncStore, table *qtable.Table, explorer PathExplorer, history *History, config Config, rng *rand.Rand) *Trainer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if config.Interval <= 0 {
		config.Interval = 300 * time.Second
	}
	if config.Backoff <= 0 {
		config.Backoff = 60 * time.Second
	}
	return &Trainer{
		store:    store,
		table:    table,
		explorer: explorer,
		history:  history,
		config:   config,
		rng:      rng,
	}
}

// #endregion trainer

// #region lifecycle
// Start launches the training loop. A second Start without an intervening
// Stop is a no-op.
func (t *Trainer) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return
	}
	ctx, t.cancel = context.WithCancel(ctx)
	done := make(chan struct{})
	t.done = done
	go t.loop(ctx, done)
	log.Printf("[TRAINER] started (interval=%s maxHops=%d reward=%.2f)",
		t.config.Interval, t.config.MaxHops, t.config.DefaultReward)
}

// Stop cancels the loop and waits for the in-flight cycle to finish.
func (t *Trainer) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Printf("[TRAINER] stopped")
}

func (t *Trainer) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	pause := t.config.Interval
	for {
		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if rec, err := t.PerformOneCycle(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Printf("[TRAINER] cycle failed: %v", err)
			pause = t.config.Backoff
		} else {
			log.Printf("[TRAINER] cycle done: start=%s hops=%d stop=%s states=%d synced=%d",
				rec.StartNodeID, rec.Hops, rec.StopReason, rec.TableSize, rec.SyncedEntries)
			pause = t.config.Interval
		}
	}
}

// #endregion lifecycle

// #region cycle
// PerformOneCycle runs a single training walk and syncs the table to the
// store. An empty graph is not an error; the cycle is simply skipped.
func (t *Trainer) PerformOneCycle(ctx context.Context) (CycleRecord, error) {
	start := time.Now()

	startNode, ok := t.pickStartNode(ctx)
	if !ok {
		return CycleRecord{CreatedAt: start}, nil
	}

	path, err := t.explorer.Explore(ctx, explore.Request{
		StartID:     startNode,
		MaxHops:     t.config.MaxHops,
		FixedReward: t.config.DefaultReward,
	})
	if err != nil {
		return CycleRecord{}, fmt.Errorf("training walk from %s: %w", startNode, err)
	}

	synced, err := t.syncToStore(ctx)
	if err != nil {
		return CycleRecord{}, fmt.Errorf("q-table sync: %w", err)
	}

	rec := CycleRecord{
		StartNodeID:   startNode,
		Hops:          path.Hops,
		StopReason:    string(path.StopReason),
		TableSize:     t.table.Size(),
		SyncedEntries: synced,
		Duration:      time.Since(start),
		CreatedAt:     start,
	}
	if t.history != nil {
		if err := t.history.RecordCycle(rec); err != nil {
			log.Printf("[TRAINER] history write failed: %v", err)
		}
	}
	return rec, nil
}

// pickStartNode prefers a node the table already knows, so training deepens
// existing estimates; an empty table falls back to a uniform random node.
func (t *Trainer) pickStartNode(ctx context.Context) (string, bool) {
	keys := t.table.StateKeys()
	if len(keys) > 0 {
		key := keys[t.rng.Intn(len(keys))]
		if nodeID, ok := qtable.ParseStateKey(key); ok {
			return nodeID, true
		}
	}
	nodeID, err := t.store.RandomNode(ctx)
	if err != nil {
		if !errors.Is(err, graphstore.ErrNotFound) {
			log.Printf("[TRAINER] random node pick failed: %v", err)
		}
		return "", false
	}
	return nodeID, true
}

// syncToStore mirrors every table entry whose keys parse back into a
// (from, to, type) traversal. Unparseable keys are counted out silently.
func (t *Trainer) syncToStore(ctx context.Context) (int, error) {
	synced := 0
	for stateKey, actions := range t.table.Snapshot() {
		fromID, ok := qtable.ParseStateKey(stateKey)
		if !ok {
			continue
		}
		for actionKey, value := range actions {
			action, ok := qtable.ParseActionKey(actionKey)
			if !ok {
				continue
			}
			if err := t.store.MergeQValue(ctx, fromID, action.TargetID, action.RelationType, value); err != nil {
				return synced, err
			}
			synced++
		}
	}
	return synced, nil
}

// #endregion cycle
