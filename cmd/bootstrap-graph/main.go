package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/graphrecall/internal/graphstore"
)

// #region input
// graphFile is the JSON shape accepted on stdin or via GRAPH_FILE: a flat
// list of nodes and hyperedges. Missing IDs are generated.
type graphFile struct {
	Nodes []struct {
		ID         string         `json:"id"`
		Label      string         `json:"label"`
		Type       string         `json:"type"`
		Properties map[string]any `json:"properties"`
	} `json:"nodes"`
	Hyperedges []struct {
		ID           string   `json:"id"`
		RelationType string   `json:"relation_type"`
		NodeIDs      []string `json:"node_ids"`
		Context      string   `json:"context"`
	} `json:"hyperedges"`
}

// #endregion input

// #region main
func main() {
	dbPath := envOr("GRAPHRECALL_DB", "graphrecall.db")
	filePath := envOr("GRAPH_FILE", "")

	fmt.Println("=== Graph Bootstrap Tool ===")
	fmt.Printf("  DB: %s\n", dbPath)

	store, err := graphstore.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open graph store: %v", err)
	}
	defer store.Close()

	var gf graphFile
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			log.Fatalf("read %s: %v", filePath, err)
		}
		if err := json.Unmarshal(data, &gf); err != nil {
			log.Fatalf("parse %s: %v", filePath, err)
		}
		fmt.Printf("  Source: %s\n", filePath)
	} else {
		gf = demoGraph()
		fmt.Println("  Source: built-in demo graph")
	}

	ctx := context.Background()

	// Phase 1: nodes
	fmt.Println("\n--- Phase 1: Nodes ---")
	nodeCount := 0
	labelToID := make(map[string]string)
	for _, n := range gf.Nodes {
		id := n.ID
		if id == "" {
			id = uuid.NewString()
		}
		labelToID[n.Label] = id
		node := graphstore.Node{ID: id, Label: n.Label, Type: n.Type, Properties: n.Properties}
		if err := store.AddNode(ctx, node); err != nil {
			log.Printf("node %s: %v", n.Label, err)
			continue
		}
		nodeCount++
	}
	fmt.Printf("  Nodes created: %d\n", nodeCount)

	// Phase 2: hyperedges. Participants may be given by ID or by label.
	fmt.Println("\n--- Phase 2: Hyperedges ---")
	edgeCount := 0
	for _, h := range gf.Hyperedges {
		id := h.ID
		if id == "" {
			id = uuid.NewString()
		}
		nodeIDs := make([]string, len(h.NodeIDs))
		for i, ref := range h.NodeIDs {
			if mapped, ok := labelToID[ref]; ok {
				nodeIDs[i] = mapped
			} else {
				nodeIDs[i] = ref
			}
		}
		rel := graphstore.Relation{ID: id, RelationType: h.RelationType, NodeIDs: nodeIDs, Context: h.Context}
		if err := store.AddHyperedge(ctx, rel); err != nil {
			log.Printf("hyperedge %s: %v", h.RelationType, err)
			continue
		}
		edgeCount++
	}
	fmt.Printf("  Hyperedges created: %d\n", edgeCount)

	fmt.Printf("\n=== Bootstrap Complete ===\n")
	fmt.Printf("  Nodes: %d | Hyperedges: %d\n", nodeCount, edgeCount)
}

// #endregion main

// #region demo
// demoGraph is a small distributed-systems knowledge graph for trying the
// retriever without real data.
func demoGraph() graphFile {
	var gf graphFile
	data := []byte(`{
  "nodes": [
    {"label": "Raft consensus", "type": "Concept"},
    {"label": "Paxos protocol", "type": "Concept"},
    {"label": "Replicated log", "type": "Concept"},
    {"label": "Leader election", "type": "Concept"},
    {"label": "Byzantine fault tolerance", "type": "Concept"},
    {"label": "Sybil attack", "type": "Concept"},
    {"label": "Gossip protocol", "type": "Concept"},
    {"label": "Vector clock", "type": "Concept"}
  ],
  "hyperedges": [
    {"relation_type": "simplifies", "node_ids": ["Raft consensus", "Paxos protocol"], "context": "Raft was designed as an understandable alternative to Paxos"},
    {"relation_type": "uses", "node_ids": ["Raft consensus", "Replicated log"], "context": "Raft replicates a log across the cluster"},
    {"relation_type": "requires", "node_ids": ["Raft consensus", "Leader election"], "context": "Raft elects a single leader per term"},
    {"relation_type": "tolerates", "node_ids": ["Byzantine fault tolerance", "Sybil attack"], "context": "BFT protocols resist Sybil identities up to a threshold"},
    {"relation_type": "contrasts_with", "node_ids": ["Raft consensus", "Byzantine fault tolerance"], "context": "Raft assumes crash faults, not Byzantine faults"},
    {"relation_type": "propagates_via", "node_ids": ["Gossip protocol", "Vector clock", "Replicated log"], "context": "gossip dissemination ordered by vector clocks feeding the replicated log"}
  ]
}`)
	if err := json.Unmarshal(data, &gf); err != nil {
		panic(err)
	}
	return gf
}

// #endregion demo

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
