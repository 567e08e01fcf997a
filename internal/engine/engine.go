// Package engine wires the store, Q-table, policy, explorer, retriever and
// trainer into one lifecycle-managed unit.
package engine

import (
	"context"
	"log"

	"github.com/danielpatrickdp/graphrecall/internal/config"
	"github.com/danielpatrickdp/graphrecall/internal/explore"
	"github.com/danielpatrickdp/graphrecall/internal/graphstore"
	"github.com/danielpatrickdp/graphrecall/internal/policy"
	"github.com/danielpatrickdp/graphrecall/internal/qtable"
	"github.com/danielpatrickdp/graphrecall/internal/retrieval"
	"github.com/danielpatrickdp/graphrecall/internal/reward"
	"github.com/danielpatrickdp/graphrecall/internal/trainer"
	"github.com/danielpatrickdp/graphrecall/internal/update"
)

// #region engine
// Engine is the retrieval engine facade. Construct with New, bracket use with
// Start and Stop.
type Engine struct {
	config    config.Config
	store     graphstore.Store
	table     *qtable.Table
	retriever *retrieval.Retriever
	trainer   *trainer.Trainer
}

// New assembles an Engine from a config and a graph store. history may be
// nil to skip training-cycle persistence.
func New(cfg config.Config, store graphstore.Store, history *trainer.History) *Engine {
	table := qtable.New()
	pol := policy.New(table, cfg.Epsilon, nil)
	evaluator := reward.NewEvaluator(store)
	explorer := explore.New(store, table, pol, evaluator, explore.Config{
		LowRewardThreshold: cfg.LowRewardThreshold,
		MaxReasonableLen:   cfg.MaxReasonableLen,
		Update: update.Config{
			LearningRate:   cfg.LearningRate,
			DiscountFactor: cfg.DiscountFactor,
		},
	})
	retriever := retrieval.NewRetriever(store, explorer, retrieval.Config{
		MaxSeeds:         cfg.MaxSeeds,
		MaxPaths:         cfg.MaxPathsPerQuery,
		MaxHops:          cfg.MaxHops,
		MinPartialTokens: 100,
	})
	tr := trainer.New(store, table, explorer, history, trainer.Config{
		Interval:      cfg.TrainingInterval(),
		Backoff:       cfg.TrainingBackoff(),
		MaxHops:       cfg.MaxHops,
		DefaultReward: cfg.DefaultTrainingReward,
	}, nil)

	return &Engine{
		config:    cfg,
		store:     store,
		table:     table,
		retriever: retriever,
		trainer:   tr,
	}
}

// #endregion engine

// #region lifecycle
// Start restores the Q-table snapshot if one exists and launches background
// training. A failed snapshot load is logged, not fatal; the engine learns
// from scratch.
func (e *Engine) Start(ctx context.Context) {
	if e.config.SnapshotPath != "" {
		loaded, err := e.table.LoadFile(e.config.SnapshotPath)
		switch {
		case err != nil:
			log.Printf("[ENGINE] snapshot load failed, starting fresh: %v", err)
		case loaded:
			log.Printf("[ENGINE] restored %d states from %s", e.table.Size(), e.config.SnapshotPath)
		}
	}
	e.trainer.Start(ctx)
}

// Stop halts training and persists the Q-table snapshot. A failed write is
// logged; the durable per-relation values in the store survive regardless.
func (e *Engine) Stop() {
	e.trainer.Stop()
	if e.config.SnapshotPath == "" {
		return
	}
	if err := e.table.SaveFile(e.config.SnapshotPath); err != nil {
		log.Printf("[ENGINE] snapshot write failed: %v", err)
		return
	}
	log.Printf("[ENGINE] saved %d states to %s", e.table.Size(), e.config.SnapshotPath)
}

// #endregion lifecycle

// #region queries
// Retrieve answers a free-text query within a token budget.
func (e *Engine) Retrieve(ctx context.Context, query string, maxTokens int) (retrieval.Result, error) {
	return e.retriever.FindOptimalPath(ctx, retrieval.ExtractKeywords(query), maxTokens)
}

// FindOptimalPath answers a pre-tokenized keyword query within a token budget.
func (e *Engine) FindOptimalPath(ctx context.Context, keywords []string, maxTokens int) (retrieval.Result, error) {
	return e.retriever.FindOptimalPath(ctx, keywords, maxTokens)
}

// Metrics reports Q-table convergence statistics.
func (e *Engine) Metrics() qtable.ConvergenceMetrics {
	return e.table.Metrics()
}

// Trainer exposes the background trainer for manual cycles.
func (e *Engine) Trainer() *trainer.Trainer {
	return e.trainer
}

// Table exposes the in-memory Q-table for inspection.
func (e *Engine) Table() *qtable.Table {
	return e.table
}

// #endregion queries
