package graph

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/danielpatrickdp/reltypes/internal/stats"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS type_edges (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      TEXT NOT NULL,
    type_label  TEXT NOT NULL,
    relation    TEXT NOT NULL,
    side        TEXT NOT NULL,
    weight      INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL,
    UNIQUE(run_id, type_label, relation, side)
);
CREATE INDEX IF NOT EXISTS idx_type_edges_label ON type_edges(run_id, type_label);
CREATE INDEX IF NOT EXISTS idx_type_edges_relation ON type_edges(run_id, relation);
`

// #endregion schema

// #region types
// Side names the end of a relation a type sits on.
type Side string

const (
	SideHead Side = "head"
	SideTail Side = "tail"
)

// Edge links an entity type to a relation it participates in.
type Edge struct {
	RunID     string
	TypeLabel string
	Relation  string
	Side      Side
	Weight    int
	CreatedAt time.Time
}

// Partner is a type found on the opposite side of a shared relation.
type Partner struct {
	TypeLabel string `json:"type"`
	Weight    int    `json:"weight"` // summed weight of the partner's edges over shared relations
}

// WalkResult holds the types reached from an entry type, in visit order.
type WalkResult struct {
	Labels []string
	Depths []int
}

// GraphStore manages the type_edges table.
type GraphStore struct {
	db *sql.DB
}

// #endregion types

// #region constructor
// NewGraphStore creates tables and returns a GraphStore.
func NewGraphStore(db *sql.DB) (*GraphStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("graph schema: %w", err)
	}
	return &GraphStore{db: db}, nil
}

// #endregion constructor

// #region record
// RecordParticipation stores one edge per (type, relation, side) in the
// table, weighted by the multiset count. Re-recording the same run adds to
// the existing weights.
func (g *GraphStore) RecordParticipation(runID string, table stats.FrequencyTable) (int, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := g.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO type_edges (run_id, type_label, relation, side, weight, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, type_label, relation, side) DO UPDATE SET
		   weight = type_edges.weight + excluded.weight`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, rel := range table.Relations() {
		st := table[rel]
		for _, side := range []struct {
			side Side
			set  stats.Multiset
		}{{SideHead, st.Head}, {SideTail, st.Tail}} {
			for _, label := range side.set.Labels() {
				if _, err := stmt.Exec(runID, label, rel, string(side.side), side.set.Count(label), now); err != nil {
					return 0, fmt.Errorf("insert edge %s/%s/%s: %w", label, rel, side.side, err)
				}
				n++
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// #endregion record

// #region relations
// Relations returns the edges of one type in a run, heaviest first.
func (g *GraphStore) Relations(runID, label string) ([]Edge, error) {
	rows, err := g.db.Query(
		`SELECT run_id, type_label, relation, side, weight, created_at
		 FROM type_edges
		 WHERE run_id = ? AND type_label = ?
		 ORDER BY weight DESC, relation ASC, side ASC`,
		runID, label,
	)
	if err != nil {
		return nil, fmt.Errorf("query relations: %w", err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		var side, createdAt string
		if err := rows.Scan(&e.RunID, &e.TypeLabel, &e.Relation, &side, &e.Weight, &createdAt); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		e.Side = Side(side)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// #endregion relations

// #region partners
// Partners returns the types that appear opposite label on at least one
// relation, ordered by summed weight then label.
func (g *GraphStore) Partners(runID, label string) ([]Partner, error) {
	rows, err := g.db.Query(
		`SELECT b.type_label, SUM(b.weight) AS w
		 FROM type_edges a
		 JOIN type_edges b
		   ON a.run_id = b.run_id AND a.relation = b.relation AND a.side != b.side
		 WHERE a.run_id = ? AND a.type_label = ?
		 GROUP BY b.type_label
		 ORDER BY w DESC, b.type_label ASC`,
		runID, label,
	)
	if err != nil {
		return nil, fmt.Errorf("query partners: %w", err)
	}
	defer rows.Close()

	var partners []Partner
	for rows.Next() {
		var p Partner
		if err := rows.Scan(&p.TypeLabel, &p.Weight); err != nil {
			return nil, fmt.Errorf("scan partner: %w", err)
		}
		partners = append(partners, p)
	}
	return partners, rows.Err()
}

// #endregion partners

// #region walk
// Walk performs a BFS over partner links from entry, up to maxDepth hops and
// maxNodes labels in total. The entry label is always first.
func (g *GraphStore) Walk(runID, entry string, maxDepth, maxNodes int) (WalkResult, error) {
	if maxDepth <= 0 {
		maxDepth = 2
	}
	if maxNodes <= 0 {
		maxNodes = 10
	}

	result := WalkResult{Labels: []string{entry}, Depths: []int{0}}
	visited := map[string]bool{entry: true}

	type queueItem struct {
		label string
		depth int
	}
	queue := []queueItem{{entry, 0}}

	for len(queue) > 0 && len(result.Labels) < maxNodes {
		current := queue[0]
		queue = queue[1:]
		if current.depth >= maxDepth {
			continue
		}

		partners, err := g.Partners(runID, current.label)
		if err != nil {
			return result, fmt.Errorf("walk partners: %w", err)
		}
		for _, p := range partners {
			if len(result.Labels) >= maxNodes {
				break
			}
			if visited[p.TypeLabel] {
				continue
			}
			visited[p.TypeLabel] = true
			result.Labels = append(result.Labels, p.TypeLabel)
			result.Depths = append(result.Depths, current.depth+1)
			queue = append(queue, queueItem{p.TypeLabel, current.depth + 1})
		}
	}
	return result, nil
}

// #endregion walk
