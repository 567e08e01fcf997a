package graphstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a node or relation does not exist.
var ErrNotFound = errors.New("graphstore: not found")

// #region node
// Node is an entity in the knowledge graph. Nodes are owned by the store and
// immutable from the engine's perspective.
type Node struct {
	ID         string
	Label      string // human-readable name
	Type       string // category tag, e.g. "Concept"
	Properties map[string]any
}

// #endregion node

// #region relation
// Relation is a typed, possibly n-ary connection between nodes. NodeIDs keeps
// participant order; traversal treats the relation pairwise.
type Relation struct {
	ID           string
	RelationType string
	NodeIDs      []string
	Context      string // free text describing the relation
}

// #endregion relation

// #region neighbor
// Neighbor is one outgoing traversal option from a node.
type Neighbor struct {
	TargetID     string
	RelationType string
	Context      string // context text of the connecting relation
}

// #endregion neighbor

// #region store-interface
// Store is the graph capability surface the retrieval engine consumes.
// Implementations must be safe for concurrent use.
type Store interface {
	// FindNodesByKeyword returns IDs of nodes whose label contains any of the
	// keywords, case-insensitively.
	FindNodesByKeyword(ctx context.Context, keywords []string) ([]string, error)

	// GetNeighbors returns the traversal options from a node.
	GetNeighbors(ctx context.Context, nodeID string) ([]Neighbor, error)

	// GetNode returns a node by ID, or ErrNotFound.
	GetNode(ctx context.Context, nodeID string) (Node, error)

	// IncidentContexts returns the context text of every relation the node
	// participates in; the slice length is the node's relation count.
	IncidentContexts(ctx context.Context, nodeID string) ([]string, error)

	// GetRelationBetween returns a relation both nodes participate in, or
	// ErrNotFound.
	GetRelationBetween(ctx context.Context, nodeIDA, nodeIDB string) (Relation, error)

	// MergeQValue durably records a learned value for the (from, to, type)
	// traversal, creating the row if needed.
	MergeQValue(ctx context.Context, fromID, toID, relationType string, value float64) error

	// RandomNode returns a uniformly random node ID, or ErrNotFound on an
	// empty graph.
	RandomNode(ctx context.Context) (string, error)
}

// #endregion store-interface
