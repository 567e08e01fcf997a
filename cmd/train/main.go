package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/graphrecall/internal/config"
	"github.com/danielpatrickdp/graphrecall/internal/engine"
	"github.com/danielpatrickdp/graphrecall/internal/graphstore"
	"github.com/danielpatrickdp/graphrecall/internal/trainer"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to graphrecall.db")
	configPath := flag.String("config", "graphrecall.yaml", "path to config file")
	cycles := flag.Int("cycles", 10, "training cycles to run")
	snapshot := flag.String("snapshot", "", "override q_table_snapshot_path")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: train --db path/to/graphrecall.db [--config file] [--cycles N] [--snapshot file]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *snapshot != "" {
		cfg.SnapshotPath = *snapshot
	}

	store, err := graphstore.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	history, err := trainer.NewHistory(store.DB())
	if err != nil {
		fmt.Fprintf(os.Stderr, "init history: %v\n", err)
		os.Exit(1)
	}

	eng := engine.New(cfg, store, history)
	// Restore any existing snapshot without launching the background loop;
	// the cycles below run in the foreground.
	if cfg.SnapshotPath != "" {
		if loaded, err := eng.Table().LoadFile(cfg.SnapshotPath); err != nil {
			fmt.Fprintf(os.Stderr, "snapshot load: %v (starting fresh)\n", err)
		} else if loaded {
			fmt.Printf("restored %d states from %s\n", eng.Metrics().TableSize, cfg.SnapshotPath)
		}
	}

	ctx := context.Background()
	start := time.Now()
	failures := 0
	for i := 0; i < *cycles; i++ {
		rec, err := eng.Trainer().PerformOneCycle(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cycle %d: %v\n", i+1, err)
			failures++
			continue
		}
		if rec.StartNodeID == "" {
			fmt.Fprintln(os.Stderr, "graph is empty, aborting")
			os.Exit(1)
		}
		fmt.Printf("[%d/%d] start=%s hops=%d stop=%s states=%d synced=%d\n",
			i+1, *cycles, rec.StartNodeID, rec.Hops, rec.StopReason, rec.TableSize, rec.SyncedEntries)
	}

	if cfg.SnapshotPath != "" {
		if err := eng.Table().SaveFile(cfg.SnapshotPath); err != nil {
			fmt.Fprintf(os.Stderr, "snapshot write: %v\n", err)
			os.Exit(1)
		}
	}

	m := eng.Metrics()
	fmt.Printf("\ndone in %s (%d cycles, %d failed)\n", time.Since(start).Round(time.Millisecond), *cycles, failures)
	fmt.Printf("states=%d entries=%d avg=%.4f max=%.4f min=%.4f\n",
		m.TableSize, m.TotalEntries, m.AverageValue, m.MaxValue, m.MinValue)
}

// #endregion main
