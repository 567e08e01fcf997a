package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/danielpatrickdp/graphrecall/internal/graphstore"
	"github.com/danielpatrickdp/graphrecall/internal/qtable"
	"github.com/danielpatrickdp/graphrecall/internal/trainer"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to graphrecall.db")
	snapshotPath := flag.String("snapshot", "", "path to q-table snapshot JSON")
	top := flag.Int("top", 10, "show N highest q-values")
	last := flag.Int("last", 10, "show N most recent training cycles")
	jsonOut := flag.Bool("json", false, "output as JSON instead of tables")
	flag.Parse()

	if *dbPath == "" && *snapshotPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect [--db path/to/graphrecall.db] [--snapshot qtable.json] [--top N] [--last N] [--json]")
		os.Exit(2)
	}

	report := inspectReport{}

	if *snapshotPath != "" {
		if err := loadSnapshotSection(&report, *snapshotPath, *top); err != nil {
			fmt.Fprintf(os.Stderr, "snapshot: %v\n", err)
			os.Exit(1)
		}
	}

	if *dbPath != "" {
		if err := loadStoreSection(&report, *dbPath, *last); err != nil {
			fmt.Fprintf(os.Stderr, "db: %v\n", err)
			os.Exit(1)
		}
	}

	if *jsonOut {
		if err := printJSON(report); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	printReport(report)
}

// #endregion main

// #region report

type qEntry struct {
	StateKey  string  `json:"state_key"`
	ActionKey string  `json:"action_key"`
	Value     float64 `json:"value"`
}

type cycleRow struct {
	StartNodeID string `json:"start_node_id"`
	Hops        int    `json:"hops"`
	StopReason  string `json:"stop_reason"`
	TableSize   int    `json:"table_size"`
	Synced      int    `json:"synced_entries"`
	CreatedAt   string `json:"created_at"`
}

type inspectReport struct {
	Metrics    *qtable.ConvergenceMetrics `json:"metrics,omitempty"`
	TopEntries []qEntry                   `json:"top_entries,omitempty"`
	NodeCount  *int                       `json:"node_count,omitempty"`
	Cycles     []cycleRow                 `json:"recent_cycles,omitempty"`
}

func loadSnapshotSection(report *inspectReport, path string, top int) error {
	table := qtable.New()
	loaded, err := table.LoadFile(path)
	if err != nil {
		return err
	}
	if !loaded {
		return fmt.Errorf("no snapshot at %s", path)
	}

	m := table.Metrics()
	report.Metrics = &m

	var entries []qEntry
	for stateKey, actions := range table.Snapshot() {
		for actionKey, value := range actions {
			entries = append(entries, qEntry{StateKey: stateKey, ActionKey: actionKey, Value: value})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].StateKey < entries[j].StateKey
	})
	if len(entries) > top {
		entries = entries[:top]
	}
	report.TopEntries = entries
	return nil
}

func loadStoreSection(report *inspectReport, path string, last int) error {
	store, err := graphstore.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	var nodeCount int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM nodes`).Scan(&nodeCount); err != nil {
		return err
	}
	report.NodeCount = &nodeCount

	history, err := trainer.NewHistory(store.DB())
	if err != nil {
		return err
	}
	records, err := history.RecentCycles(last)
	if err != nil {
		return err
	}
	for _, rec := range records {
		report.Cycles = append(report.Cycles, cycleRow{
			StartNodeID: rec.StartNodeID,
			Hops:        rec.Hops,
			StopReason:  rec.StopReason,
			TableSize:   rec.TableSize,
			Synced:      rec.SyncedEntries,
			CreatedAt:   rec.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return nil
}

// #endregion report

// #region output

func printReport(report inspectReport) {
	if report.Metrics != nil {
		m := report.Metrics
		fmt.Println("=== Q-Table ===")
		fmt.Printf("  states=%d entries=%d avg=%.4f max=%.4f min=%.4f\n",
			m.TableSize, m.TotalEntries, m.AverageValue, m.MaxValue, m.MinValue)

		if len(report.TopEntries) > 0 {
			fmt.Printf("\n%-30s  %-30s  %8s\n", "State", "Action", "Q")
			fmt.Printf("%-30s+-%-30s+-%8s\n",
				"------------------------------", "------------------------------", "--------")
			for _, e := range report.TopEntries {
				fmt.Printf("%-30s  %-30s  %8.4f\n", e.StateKey, e.ActionKey, e.Value)
			}
		}
	}

	if report.NodeCount != nil {
		fmt.Printf("\n=== Graph ===\n  nodes=%d\n", *report.NodeCount)
	}

	if len(report.Cycles) > 0 {
		fmt.Printf("\n=== Recent Training Cycles ===\n")
		fmt.Printf("%-20s  %4s  %-14s  %6s  %6s  %s\n",
			"Start", "Hops", "Stop", "States", "Synced", "Time")
		fmt.Printf("%-20s+-%4s+-%-14s+-%6s+-%6s+-%s\n",
			"--------------------", "----", "--------------", "------", "------", "--------------------")
		for _, c := range report.Cycles {
			fmt.Printf("%-20s  %4d  %-14s  %6d  %6d  %s\n",
				c.StartNodeID, c.Hops, c.StopReason, c.TableSize, c.Synced, c.CreatedAt)
		}
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion output
