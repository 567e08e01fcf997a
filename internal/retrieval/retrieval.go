// Package retrieval assembles token-budgeted context from learned graph
// explorations.
package retrieval

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/danielpatrickdp/graphrecall/internal/explore"
	"github.com/danielpatrickdp/graphrecall/internal/graphstore"
)

// #region interfaces
// Source is the slice of the graph store the retriever reads.
type Source interface {
	FindNodesByKeyword(ctx context.Context, keywords []string) ([]string, error)
	GetNode(ctx context.Context, nodeID string) (graphstore.Node, error)
	GetRelationBetween(ctx context.Context, nodeIDA, nodeIDB string) (graphstore.Relation, error)
}

// PathExplorer runs one learning traversal from a seed node.
type PathExplorer interface {
	Explore(ctx context.Context, req explore.Request) (explore.Path, error)
}

// #endregion interfaces

// #region retriever
// Retriever orchestrates seed lookup, exploration and budget assembly.
type Retriever struct {
	store    Source
	explorer PathExplorer
	config   Config
}

// NewRetriever creates a Retriever with the given store, explorer and config.
func NewRetriever(store Source, explorer PathExplorer, config Config) *Retriever {
	if config.MaxSeeds <= 0 {
		config.MaxSeeds = 3
	}
	if config.MaxPaths <= 0 {
		config.MaxPaths = 5
	}
	return &Retriever{store: store, explorer: explorer, config: config}
}

// #endregion retriever

// #region find-optimal-path
// FindOptimalPath runs the full retrieval pipeline:
//  1. Seed — match keywords against node labels, keep the first MaxSeeds hits
//  2. Explore — one learning traversal per seed, up to MaxPaths paths
//  3. Assemble — pack the best-scoring paths into the token budget, admitting
//     one truncated partial when the remainder is still worth having
//
// Empty keywords, or a keyword set that matches no node label, yield an
// empty result without error. Individual seed failures are logged and
// skipped.
func (r *Retriever) FindOptimalPath(ctx context.Context, keywords []string, maxTokens int) (Result, error) {
	if len(keywords) == 0 {
		return Result{}, nil
	}

	seeds, err := r.store.FindNodesByKeyword(ctx, keywords)
	if err != nil {
		return Result{}, fmt.Errorf("retrieval seed lookup: %w", err)
	}
	if len(seeds) == 0 {
		return Result{}, nil
	}
	if len(seeds) > r.config.MaxSeeds {
		seeds = seeds[:r.config.MaxSeeds]
	}

	var paths []explore.Path
	for _, seed := range seeds {
		if len(paths) >= r.config.MaxPaths {
			break
		}
		path, err := r.explorer.Explore(ctx, explore.Request{
			StartID:  seed,
			Keywords: keywords,
			MaxHops:  r.config.MaxHops,
		})
		if err != nil {
			log.Printf("[RETRIEVAL] exploration from %s failed: %v", seed, err)
			continue
		}
		paths = append(paths, path)
	}

	sort.SliceStable(paths, func(i, j int) bool {
		return paths[i].Score > paths[j].Score
	})

	result := r.assemble(ctx, paths, maxTokens)
	result.Summary = fmt.Sprintf("retrieved %d paths (%d entities, %d relations) in %d tokens for keywords %v",
		len(result.Paths), len(result.Entities), len(result.Hyperedges), result.TotalTokens, keywords)
	return result, nil
}

// #endregion find-optimal-path

// #region assemble
// assemble packs paths into the token budget, best score first. A path that
// overflows the budget is truncated when at least MinPartialTokens remain;
// the truncated partial is the last path admitted either way.
func (r *Retriever) assemble(ctx context.Context, paths []explore.Path, maxTokens int) Result {
	result := Result{}
	for _, path := range paths {
		path.ContextSummary = buildPathContext(path)
		path.EstimatedTokens = estimateTokens(path.ContextSummary)

		if result.TotalTokens+path.EstimatedTokens > maxTokens {
			remaining := maxTokens - result.TotalTokens
			if remaining > r.config.MinPartialTokens {
				path = truncatePath(path, remaining)
				result.TotalTokens += path.EstimatedTokens
				result.Paths = append(result.Paths, path)
			}
			break
		}

		result.TotalTokens += path.EstimatedTokens
		result.Paths = append(result.Paths, path)
	}

	r.collectGraphObjects(ctx, &result)
	return result
}

// truncatePath cuts a path down to fit a token remainder: the context summary
// is clipped, the node and step lists are capped, and the score is halved to
// mark the loss of fidelity.
func truncatePath(path explore.Path, remainingTokens int) explore.Path {
	maxChars := remainingTokens*4 - 20
	if maxChars < 0 {
		maxChars = 0
	}
	if len(path.ContextSummary) > maxChars {
		path.ContextSummary = path.ContextSummary[:maxChars] + "... [truncated]"
	}
	if len(path.Nodes) > 3 {
		path.Nodes = path.Nodes[:3]
	}
	if len(path.Steps) > 2 {
		path.Steps = path.Steps[:2]
	}
	path.Score /= 2
	path.EstimatedTokens = estimateTokens(path.ContextSummary)
	path.Truncated = true
	return path
}

// collectGraphObjects resolves the unique nodes and relations referenced by
// the included paths. Lookups that fail are skipped; the path itself is the
// authoritative record.
func (r *Retriever) collectGraphObjects(ctx context.Context, result *Result) {
	seenNodes := make(map[string]bool)
	seenRelations := make(map[string]bool)
	for _, path := range result.Paths {
		for _, id := range path.Nodes {
			if seenNodes[id] {
				continue
			}
			seenNodes[id] = true
			node, err := r.store.GetNode(ctx, id)
			if err != nil {
				continue
			}
			result.Entities = append(result.Entities, node)
		}
		for _, step := range path.Steps {
			rel, err := r.store.GetRelationBetween(ctx, step.FromID, step.ToID)
			if err != nil || seenRelations[rel.ID] {
				continue
			}
			seenRelations[rel.ID] = true
			result.Hyperedges = append(result.Hyperedges, rel)
		}
	}
}

// #endregion assemble

// #region context
// buildPathContext renders a path as the text block that gets budgeted and
// handed to the caller.
func buildPathContext(path explore.Path) string {
	var relationTypes []string
	seen := make(map[string]bool)
	for _, step := range path.Steps {
		if seen[step.RelationType] {
			continue
		}
		seen[step.RelationType] = true
		relationTypes = append(relationTypes, step.RelationType)
	}
	return fmt.Sprintf("Nodes in path: %s; Relation types: %s; Path relevance score: %.2f; Path length: %d hops",
		strings.Join(path.Nodes, ", "), strings.Join(relationTypes, ", "), path.Score, path.Hops)
}

// estimateTokens approximates the token count of a text block at four
// characters per token.
func estimateTokens(text string) int {
	return len(text) / 4
}

// #endregion context
