package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/graphrecall/internal/config"
	"github.com/danielpatrickdp/graphrecall/internal/engine"
	"github.com/danielpatrickdp/graphrecall/internal/graphstore"
	"github.com/danielpatrickdp/graphrecall/internal/logging"
	"github.com/danielpatrickdp/graphrecall/internal/retrieval"
	"github.com/danielpatrickdp/graphrecall/internal/trainer"
)

const queryTokenBudget = 2000

// #region main
func main() {
	dbPath := envOr("GRAPHRECALL_DB", "graphrecall.db")
	configPath := envOr("GRAPHRECALL_CONFIG", "graphrecall.yaml")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	store, err := graphstore.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open graph store: %v", err)
	}
	defer store.Close()

	history, err := trainer.NewHistory(store.DB())
	if err != nil {
		log.Fatalf("failed to init training history: %v", err)
	}
	if err := logging.EnsureQueryLog(store.DB()); err != nil {
		log.Fatalf("failed to init query log: %v", err)
	}

	eng := engine.New(cfg, store, history)
	eng.Start(context.Background())
	defer eng.Stop()

	fmt.Println("Graph Recall ready.")
	fmt.Printf("  DB: %s | epsilon: %.2f | snapshot: %s\n", dbPath, cfg.Epsilon, cfg.SnapshotPath)
	fmt.Println("Type a query ('metrics', 'train', or 'quit'):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "quit" || query == "exit" {
			break
		}

		switch query {
		case "metrics":
			printMetrics(eng)
		case "train":
			runManualCycle(eng)
		default:
			runQuery(eng, store, query)
		}
	}
}

// #endregion main

// #region commands
func runQuery(eng *engine.Engine, store *graphstore.SQLiteStore, query string) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	result, err := eng.Retrieve(ctx, query, queryTokenBudget)
	cancel()

	logRetrieval(store, query, result, err, time.Since(started))

	if err != nil {
		log.Printf("retrieval error: %v", err)
		return
	}

	if len(result.Paths) == 0 {
		fmt.Println("no context found")
		return
	}
	for i, path := range result.Paths {
		marker := ""
		if path.Truncated {
			marker = " (truncated)"
		}
		fmt.Printf("\n[%d] score=%.2f hops=%d stop=%s%s\n    %s\n",
			i+1, path.Score, path.Hops, path.StopReason, marker, path.ContextSummary)
	}
	fmt.Printf("\n%s\n", result.Summary)
}

func runManualCycle(eng *engine.Engine) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	rec, err := eng.Trainer().PerformOneCycle(ctx)
	cancel()
	if err != nil {
		log.Printf("training error: %v", err)
		return
	}
	if rec.StartNodeID == "" {
		fmt.Println("graph is empty, nothing to train on")
		return
	}
	fmt.Printf("cycle: start=%s hops=%d stop=%s synced=%d in %s\n",
		rec.StartNodeID, rec.Hops, rec.StopReason, rec.SyncedEntries, rec.Duration.Round(time.Millisecond))
}

func printMetrics(eng *engine.Engine) {
	m := eng.Metrics()
	fmt.Printf("states=%d entries=%d avg=%.4f max=%.4f min=%.4f\n",
		m.TableSize, m.TotalEntries, m.AverageValue, m.MaxValue, m.MinValue)
}

// #endregion commands

// #region audit
func logRetrieval(store *graphstore.SQLiteStore, query string, result retrieval.Result, retrieveErr error, took time.Duration) {
	entry := logging.QueryEntry{
		QueryID:     uuid.NewString(),
		Query:       query,
		TokenBudget: queryTokenBudget,
		PathCount:   len(result.Paths),
		TotalTokens: result.TotalTokens,
		Duration:    took,
	}
	if keywords := retrieval.ExtractKeywords(query); len(keywords) > 0 {
		if data, err := json.Marshal(keywords); err == nil {
			entry.KeywordsJSON = string(data)
		}
	}
	if len(result.Paths) > 0 {
		entry.TopScore = result.Paths[0].Score
	}
	if retrieveErr != nil {
		entry.Error = retrieveErr.Error()
	}
	if err := logging.LogQuery(store.DB(), entry); err != nil {
		log.Printf("query log error: %v", err)
	}
}

// #endregion audit

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
