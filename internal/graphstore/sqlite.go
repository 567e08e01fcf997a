// Package graphstore persists the knowledge graph (nodes, n-ary relations)
// and the durable mirror of learned traversal values.
package graphstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS nodes (
    id          TEXT PRIMARY KEY,
    label       TEXT NOT NULL,
    node_type   TEXT NOT NULL DEFAULT 'Concept',
    properties  TEXT,
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS hyperedges (
    id             TEXT PRIMARY KEY,
    relation_type  TEXT NOT NULL,
    context_text   TEXT NOT NULL DEFAULT '',
    created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS participation (
    hyperedge_id  TEXT NOT NULL,
    node_id       TEXT NOT NULL,
    position      INTEGER NOT NULL,
    PRIMARY KEY (hyperedge_id, node_id),
    FOREIGN KEY (hyperedge_id) REFERENCES hyperedges(id),
    FOREIGN KEY (node_id) REFERENCES nodes(id)
);
CREATE INDEX IF NOT EXISTS idx_participation_node ON participation(node_id);

CREATE TABLE IF NOT EXISTS relation_q (
    from_id        TEXT NOT NULL,
    to_id          TEXT NOT NULL,
    relation_type  TEXT NOT NULL,
    q_value        REAL NOT NULL DEFAULT 0,
    updated_at     TEXT NOT NULL,
    UNIQUE(from_id, to_id, relation_type)
);
`

// #endregion schema

// Per-query result caps, matching the traversal's bounded-work contract.
const (
	neighborLimit = 20
	seedLimit     = 10
)

// #region store
// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) a graph database at path and runs migrations.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection: keeps :memory: databases coherent and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStore runs migrations on an existing database handle.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. the
// trainer's cycle log).
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// #endregion store

// #region add-node
// AddNode inserts a node. Properties may be nil.
func (s *SQLiteStore) AddNode(ctx context.Context, n Node) error {
	var props any
	if n.Properties != nil {
		data, err := json.Marshal(n.Properties)
		if err != nil {
			return fmt.Errorf("marshal properties: %w", err)
		}
		props = string(data)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO nodes (id, label, node_type, properties, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		n.ID, n.Label, n.Type, props, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert node %s: %w", n.ID, err)
	}
	return nil
}

// #endregion add-node

// #region add-hyperedge
// AddHyperedge inserts a relation and its participant rows in one
// transaction. Participant order is preserved via the position column.
func (s *SQLiteStore) AddHyperedge(ctx context.Context, r Relation) error {
	if len(r.NodeIDs) < 2 {
		return fmt.Errorf("hyperedge %s: needs at least 2 participants", r.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO hyperedges (id, relation_type, context_text, created_at)
		 VALUES (?, ?, ?, ?)`,
		r.ID, r.RelationType, r.Context, now,
	)
	if err != nil {
		return fmt.Errorf("insert hyperedge %s: %w", r.ID, err)
	}

	for i, nodeID := range r.NodeIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO participation (hyperedge_id, node_id, position) VALUES (?, ?, ?)`,
			r.ID, nodeID, i,
		)
		if err != nil {
			return fmt.Errorf("insert participation %s->%s: %w", r.ID, nodeID, err)
		}
	}

	return tx.Commit()
}

// #endregion add-hyperedge

// #region find-by-keyword
// likeEscaper neutralizes LIKE wildcards so keywords match as plain substrings.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// FindNodesByKeyword searches node labels case-insensitively for any keyword.
func (s *SQLiteStore) FindNodesByKeyword(ctx context.Context, keywords []string) ([]string, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	clauses := make([]string, 0, len(keywords))
	args := make([]any, 0, len(keywords)+1)
	for _, kw := range keywords {
		clauses = append(clauses, `lower(label) LIKE '%' || ? || '%' ESCAPE '\'`)
		args = append(args, likeEscaper.Replace(strings.ToLower(kw)))
	}
	args = append(args, seedLimit)

	query := `SELECT id FROM nodes WHERE ` + strings.Join(clauses, " OR ") +
		` ORDER BY created_at LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// #endregion find-by-keyword

// #region get-neighbors
// GetNeighbors returns the distinct nodes reachable from nodeID through a
// shared hyperedge, with the connecting relation's type and context.
func (s *SQLiteStore) GetNeighbors(ctx context.Context, nodeID string) ([]Neighbor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT p2.node_id, h.relation_type, h.context_text
		 FROM participation p1
		 JOIN hyperedges h ON h.id = p1.hyperedge_id
		 JOIN participation p2 ON p2.hyperedge_id = h.id AND p2.node_id <> p1.node_id
		 WHERE p1.node_id = ?
		 ORDER BY p2.node_id
		 LIMIT ?`,
		nodeID, neighborLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("neighbors of %s: %w", nodeID, err)
	}
	defer rows.Close()

	var neighbors []Neighbor
	for rows.Next() {
		var n Neighbor
		if err := rows.Scan(&n.TargetID, &n.RelationType, &n.Context); err != nil {
			return nil, err
		}
		neighbors = append(neighbors, n)
	}
	return neighbors, rows.Err()
}

// #endregion get-neighbors

// #region get-node
// GetNode returns a node by ID, or ErrNotFound.
func (s *SQLiteStore) GetNode(ctx context.Context, nodeID string) (Node, error) {
	var n Node
	var props sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, label, node_type, properties FROM nodes WHERE id = ?`, nodeID,
	).Scan(&n.ID, &n.Label, &n.Type, &props)
	if err == sql.ErrNoRows {
		return Node{}, ErrNotFound
	}
	if err != nil {
		return Node{}, fmt.Errorf("get node %s: %w", nodeID, err)
	}
	if props.Valid && props.String != "" {
		if err := json.Unmarshal([]byte(props.String), &n.Properties); err != nil {
			return Node{}, fmt.Errorf("unmarshal properties of %s: %w", nodeID, err)
		}
	}
	return n, nil
}

// #endregion get-node

// #region incident-contexts
// IncidentContexts returns the context text of every hyperedge nodeID
// participates in. Empty contexts are included so the length doubles as the
// node's relation count.
func (s *SQLiteStore) IncidentContexts(ctx context.Context, nodeID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT h.context_text
		 FROM participation p
		 JOIN hyperedges h ON h.id = p.hyperedge_id
		 WHERE p.node_id = ?`,
		nodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("incident contexts of %s: %w", nodeID, err)
	}
	defer rows.Close()

	var contexts []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		contexts = append(contexts, c)
	}
	return contexts, rows.Err()
}

// #endregion incident-contexts

// #region relation-between
// GetRelationBetween returns one hyperedge both nodes participate in, with
// all its participants in position order, or ErrNotFound.
func (s *SQLiteStore) GetRelationBetween(ctx context.Context, nodeIDA, nodeIDB string) (Relation, error) {
	var r Relation
	err := s.db.QueryRowContext(ctx,
		`SELECT h.id, h.relation_type, h.context_text
		 FROM hyperedges h
		 JOIN participation pa ON pa.hyperedge_id = h.id AND pa.node_id = ?
		 JOIN participation pb ON pb.hyperedge_id = h.id AND pb.node_id = ?
		 LIMIT 1`,
		nodeIDA, nodeIDB,
	).Scan(&r.ID, &r.RelationType, &r.Context)
	if err == sql.ErrNoRows {
		return Relation{}, ErrNotFound
	}
	if err != nil {
		return Relation{}, fmt.Errorf("relation between %s and %s: %w", nodeIDA, nodeIDB, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT node_id FROM participation WHERE hyperedge_id = ? ORDER BY position`, r.ID,
	)
	if err != nil {
		return Relation{}, fmt.Errorf("participants of %s: %w", r.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return Relation{}, err
		}
		r.NodeIDs = append(r.NodeIDs, id)
	}
	return r, rows.Err()
}

// #endregion relation-between

// #region merge-q
// MergeQValue upserts the learned value for a (from, to, type) traversal.
func (s *SQLiteStore) MergeQValue(ctx context.Context, fromID, toID, relationType string, value float64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO relation_q (from_id, to_id, relation_type, q_value, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(from_id, to_id, relation_type) DO UPDATE SET
		   q_value = excluded.q_value,
		   updated_at = excluded.updated_at`,
		fromID, toID, relationType, value, now,
	)
	if err != nil {
		return fmt.Errorf("merge q %s->%s: %w", fromID, toID, err)
	}
	return nil
}

// QValue reads back a merged value, 0.0 if never written.
func (s *SQLiteStore) QValue(ctx context.Context, fromID, toID, relationType string) (float64, error) {
	var v float64
	err := s.db.QueryRowContext(ctx,
		`SELECT q_value FROM relation_q WHERE from_id = ? AND to_id = ? AND relation_type = ?`,
		fromID, toID, relationType,
	).Scan(&v)
	if err == sql.ErrNoRows {
		return 0.0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read q %s->%s: %w", fromID, toID, err)
	}
	return v, nil
}

// #endregion merge-q

// #region random-node
// RandomNode returns a uniformly random node ID, or ErrNotFound when the
// graph has no nodes.
func (s *SQLiteStore) RandomNode(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM nodes ORDER BY RANDOM() LIMIT 1`,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("random node: %w", err)
	}
	return id, nil
}

// #endregion random-node
