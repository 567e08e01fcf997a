// Package reward scores candidate traversal targets against query keywords.
package reward

import (
	"context"
	"errors"
	"strings"

	"github.com/danielpatrickdp/graphrecall/internal/graphstore"
)

// #region source
// Source is the slice of the graph store the evaluator reads.
type Source interface {
	GetNode(ctx context.Context, nodeID string) (graphstore.Node, error)
	IncidentContexts(ctx context.Context, nodeID string) ([]string, error)
}

// #endregion source

// #region evaluator
// Evaluator computes the reward for arriving at a node. Each keyword match on
// the node label adds 1.0 and each match in an incident relation's context
// adds 0.5 — the keyword sum is deliberately uncapped, more matches mean
// proportionally more reward. A connectivity bonus of 0.1 per incident
// relation, capped at 1.0, keeps hub bias bounded.
type Evaluator struct {
	store Source
}

// NewEvaluator creates an Evaluator over the given store.
func NewEvaluator(store Source) *Evaluator {
	return &Evaluator{store: store}
}

// #endregion evaluator

// #region score
// Score returns the reward for reaching nodeID given the query keywords and
// the context text of the relation just traversed. Unknown nodes score 0.0
// without error; store failures propagate.
func (e *Evaluator) Score(ctx context.Context, nodeID string, keywords []string, relationContext string) (float64, error) {
	node, err := e.store.GetNode(ctx, nodeID)
	if errors.Is(err, graphstore.ErrNotFound) {
		return 0.0, nil
	}
	if err != nil {
		return 0.0, err
	}

	contexts, err := e.store.IncidentContexts(ctx, nodeID)
	if err != nil {
		return 0.0, err
	}

	// The traversed relation is normally among the incident set; count it
	// once if the store returned nothing for it.
	if relationContext != "" && !containsString(contexts, relationContext) {
		contexts = append(contexts, relationContext)
	}

	label := strings.ToLower(node.Label)
	lowered := make([]string, len(contexts))
	for i, c := range contexts {
		lowered[i] = strings.ToLower(c)
	}

	reward := 0.0
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(label, kw) {
			reward += 1.0
		}
		for _, c := range lowered {
			if strings.Contains(c, kw) {
				reward += 0.5
			}
		}
	}

	connectivity := float64(len(contexts)) * 0.1
	if connectivity > 1.0 {
		connectivity = 1.0
	}
	return reward + connectivity, nil
}

// #endregion score

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
