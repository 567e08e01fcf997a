package trainer

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/danielpatrickdp/graphrecall/internal/explore"
	"github.com/danielpatrickdp/graphrecall/internal/graphstore"
	"github.com/danielpatrickdp/graphrecall/internal/qtable"

	_ "modernc.org/sqlite"
)

// #region fakes
type fakeSyncStore struct {
	mu         sync.Mutex
	randomID   string
	randomErr  error
	merged     map[string]float64 // keyed "from|to|type"
	mergeErr   error
	mergeCalls int
}

func (f *fakeSyncStore) RandomNode(_ context.Context) (string, error) {
	return f.randomID, f.randomErr
}

func (f *fakeSyncStore) MergeQValue(_ context.Context, fromID, toID, relType string, value float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mergeErr != nil {
		return f.mergeErr
	}
	if f.merged == nil {
		f.merged = make(map[string]float64)
	}
	f.merged[fromID+"|"+toID+"|"+relType] = value
	f.mergeCalls++
	return nil
}

// walkExplorer writes a fixed walk into the table, the way a real
// exploration would.
type walkExplorer struct {
	table *qtable.Table
	err   error
}

func (w *walkExplorer) Explore(_ context.Context, req explore.Request) (explore.Path, error) {
	if w.err != nil {
		return explore.Path{Nodes: []string{req.StartID}, StopReason: explore.StopStoreError}, w.err
	}
	w.table.Set(
		qtable.State{NodeID: req.StartID, VisitedCount: 1},
		qtable.Action{RelationType: "cites", TargetID: "n2"},
		0.01,
	)
	return explore.Path{
		Nodes:      []string{req.StartID, "n2"},
		Steps:      []explore.Step{{FromID: req.StartID, ToID: "n2", RelationType: "cites"}},
		Hops:       1,
		StopReason: explore.StopHopLimit,
	}, nil
}

// #endregion fakes

func newTestTrainer(t *testing.T, store *fakeSyncStore, table *qtable.Table, exp PathExplorer) *Trainer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Interval = 10 * time.Millisecond
	cfg.Backoff = 10 * time.Millisecond
	return New(store, table, exp, nil, cfg, rand.New(rand.NewSource(1)))
}

func TestCyclePopulatesAndSyncs(t *testing.T) {
	table := qtable.New()
	store := &fakeSyncStore{randomID: "n1"}
	tr := newTestTrainer(t, store, table, &walkExplorer{table: table})

	rec, err := tr.PerformOneCycle(context.Background())
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if rec.StartNodeID != "n1" {
		t.Errorf("expected start n1, got %s", rec.StartNodeID)
	}
	if table.Size() != 1 {
		t.Errorf("expected 1 state after cycle, got %d", table.Size())
	}
	if rec.SyncedEntries != 1 {
		t.Errorf("expected 1 synced entry, got %d", rec.SyncedEntries)
	}
	if v, ok := store.merged["n1|n2|cites"]; !ok || v != 0.01 {
		t.Errorf("expected merged q-value for n1->n2, got %v", store.merged)
	}
}

func TestCycleEmptyGraphSkips(t *testing.T) {
	table := qtable.New()
	store := &fakeSyncStore{randomErr: graphstore.ErrNotFound}
	tr := newTestTrainer(t, store, table, &walkExplorer{table: table})

	rec, err := tr.PerformOneCycle(context.Background())
	if err != nil {
		t.Fatalf("empty graph must not error: %v", err)
	}
	if rec.StartNodeID != "" || rec.Hops != 0 {
		t.Errorf("expected skipped cycle, got %+v", rec)
	}
	if store.mergeCalls != 0 {
		t.Errorf("skipped cycle must not sync, got %d merges", store.mergeCalls)
	}
}

func TestCyclePrefersKnownStates(t *testing.T) {
	table := qtable.New()
	table.Set(
		qtable.State{NodeID: "known", VisitedCount: 1},
		qtable.Action{RelationType: "cites", TargetID: "x"},
		0.5,
	)
	store := &fakeSyncStore{randomID: "other"}
	tr := newTestTrainer(t, store, table, &walkExplorer{table: table})

	rec, err := tr.PerformOneCycle(context.Background())
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if rec.StartNodeID != "known" {
		t.Errorf("expected start from known state, got %s", rec.StartNodeID)
	}
}

func TestCycleExploreError(t *testing.T) {
	table := qtable.New()
	store := &fakeSyncStore{randomID: "n1"}
	tr := newTestTrainer(t, store, table, &walkExplorer{table: table, err: explore.ErrStoreUnavailable})

	if _, err := tr.PerformOneCycle(context.Background()); !errors.Is(err, explore.ErrStoreUnavailable) {
		t.Fatalf("expected wrapped explore error, got %v", err)
	}
}

func TestCycleSyncError(t *testing.T) {
	table := qtable.New()
	store := &fakeSyncStore{randomID: "n1", mergeErr: errors.New("disk full")}
	tr := newTestTrainer(t, store, table, &walkExplorer{table: table})

	if _, err := tr.PerformOneCycle(context.Background()); err == nil {
		t.Fatal("expected sync error")
	}
}

func TestStartStop(t *testing.T) {
	table := qtable.New()
	store := &fakeSyncStore{randomID: "n1"}
	tr := newTestTrainer(t, store, table, &walkExplorer{table: table})

	tr.Start(context.Background())
	tr.Start(context.Background()) // second start is a no-op

	time.Sleep(30 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		tr.Stop()
		tr.Stop() // second stop is a no-op
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	store.mu.Lock()
	calls := store.mergeCalls
	store.mu.Unlock()
	if calls == 0 {
		t.Error("expected at least one cycle while running")
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	hist, err := NewHistory(db)
	if err != nil {
		t.Fatalf("new history: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		err := hist.RecordCycle(CycleRecord{
			StartNodeID:   "n1",
			Hops:          i,
			StopReason:    "hop_limit",
			TableSize:     i + 1,
			SyncedEntries: i,
			Duration:      50 * time.Millisecond,
			CreatedAt:     now,
		})
		if err != nil {
			t.Fatalf("record cycle %d: %v", i, err)
		}
	}

	records, err := hist.RecentCycles(2)
	if err != nil {
		t.Fatalf("recent cycles: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// Newest first.
	if records[0].Hops != 2 || records[1].Hops != 1 {
		t.Errorf("expected newest first, got hops %d, %d", records[0].Hops, records[1].Hops)
	}
	if records[0].Duration != 50*time.Millisecond {
		t.Errorf("duration round trip failed: %v", records[0].Duration)
	}
	if !records[0].CreatedAt.Equal(now) {
		t.Errorf("created_at round trip failed: %v vs %v", records[0].CreatedAt, now)
	}
}
