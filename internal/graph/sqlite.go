package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/davidhsu/agentgraph/internal/model"
)

// SQLiteGraph implements Store on SQLite with a nodes + edges schema.
type SQLiteGraph struct {
	db      *sql.DB
	mu      sync.Mutex // serializes in-process read-modify-write cycles
	entropy *rand.Rand
	emu     sync.Mutex
}

// Open opens or creates the graph database at the given path.
func Open(dbPath string) (*SQLiteGraph, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	g := &SQLiteGraph{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := g.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return g, nil
}

func (g *SQLiteGraph) newID() string {
	g.emu.Lock()
	defer g.emu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

func (g *SQLiteGraph) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS nodes (
		id         TEXT PRIMARY KEY,
		label      TEXT NOT NULL,
		props      TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_nodes_label ON nodes(label);

	CREATE TABLE IF NOT EXISTS edges (
		from_id    TEXT NOT NULL REFERENCES nodes(id),
		to_id      TEXT NOT NULL REFERENCES nodes(id),
		rel        TEXT NOT NULL,
		props      TEXT,
		created_at TEXT NOT NULL,
		PRIMARY KEY (from_id, to_id, rel)
	);
	CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_id, rel);
	CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_id, rel);

	-- Structural invariants: a memory can never carry two project scopes or
	-- two sharing origins. Enforced in the schema so a buggy caller cannot
	-- create a cross-project-visible memory.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_edges_single_scope
		ON edges(from_id) WHERE rel = 'scoped_to';
	CREATE UNIQUE INDEX IF NOT EXISTS idx_edges_single_share
		ON edges(from_id) WHERE rel = 'shared_by';
	`
	_, err := g.db.Exec(schema)
	return err
}

// mapErr translates driver and context errors into the model taxonomy.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", model.ErrTimeout, err)
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", model.ErrConstraintViolation, err)
	}
	if strings.Contains(msg, "FOREIGN KEY constraint failed") {
		return fmt.Errorf("%w: edge endpoint missing", model.ErrNotFound)
	}
	return err
}

func marshalProps(v any) (string, error) {
	switch p := v.(type) {
	case nil:
		return "{}", nil
	case json.RawMessage:
		return string(p), nil
	case []byte:
		return string(p), nil
	case string:
		return p, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal props: %w", err)
	}
	return string(b), nil
}

func (g *SQLiteGraph) CreateNode(ctx context.Context, spec NodeSpec) (string, error) {
	return g.CreateNodeWithEdges(ctx, spec, nil)
}

func (g *SQLiteGraph) CreateNodeWithEdges(ctx context.Context, spec NodeSpec, edges []EdgeSpec) (string, error) {
	id := spec.ID
	if id == "" {
		id = g.newID()
	}
	props, err := marshalProps(spec.Props)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return "", mapErr(err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO nodes (id, label, props, created_at) VALUES (?, ?, ?, ?)`,
		id, spec.Label, props, now)
	if err != nil {
		return "", mapErr(err)
	}

	for _, e := range edges {
		from := e.FromID
		if from == "" {
			from = id
		}
		eprops, err := marshalProps(e.Props)
		if err != nil {
			return "", err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO edges (from_id, to_id, rel, props, created_at) VALUES (?, ?, ?, ?, ?)`,
			from, e.ToID, e.Rel, eprops, now)
		if err != nil {
			return "", mapErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", mapErr(err)
	}
	return id, nil
}

func (g *SQLiteGraph) UpsertNode(ctx context.Context, id, label string, props any) error {
	p, err := marshalProps(props)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = g.db.ExecContext(ctx,
		`INSERT INTO nodes (id, label, props, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET props = excluded.props`,
		id, label, p, now)
	return mapErr(err)
}

func (g *SQLiteGraph) GetNode(ctx context.Context, id string) (*Node, error) {
	row := g.db.QueryRowContext(ctx,
		`SELECT id, label, props, created_at FROM nodes WHERE id = ?`, id)
	n, err := scanNode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: node %s", model.ErrNotFound, id)
		}
		return nil, mapErr(err)
	}
	return n, nil
}

func (g *SQLiteGraph) MutateNode(ctx context.Context, id string, fn func(props json.RawMessage) (any, error)) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return mapErr(err)
	}
	defer tx.Rollback()

	var props string
	err = tx.QueryRowContext(ctx, `SELECT props FROM nodes WHERE id = ?`, id).Scan(&props)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: node %s", model.ErrNotFound, id)
		}
		return mapErr(err)
	}

	next, err := fn(json.RawMessage(props))
	if err != nil {
		return err
	}
	nextProps, err := marshalProps(next)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE nodes SET props = ? WHERE id = ?`, nextProps, id); err != nil {
		return mapErr(err)
	}
	return mapErr(tx.Commit())
}

func (g *SQLiteGraph) DeleteNodeDetach(ctx context.Context, id string) (bool, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return false, mapErr(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM edges WHERE from_id = ? OR to_id = ?`, id, id); err != nil {
		return false, mapErr(err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	if err != nil {
		return false, mapErr(err)
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return false, mapErr(err)
	}
	return n > 0, nil
}

func (g *SQLiteGraph) CreateEdge(ctx context.Context, e EdgeSpec) error {
	props, err := marshalProps(e.Props)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = g.db.ExecContext(ctx,
		`INSERT INTO edges (from_id, to_id, rel, props, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.FromID, e.ToID, e.Rel, props, now)
	return mapErr(err)
}

func (g *SQLiteGraph) DeleteEdge(ctx context.Context, from, to, rel string) error {
	_, err := g.db.ExecContext(ctx,
		`DELETE FROM edges WHERE from_id = ? AND to_id = ? AND rel = ?`, from, to, rel)
	return mapErr(err)
}

func (g *SQLiteGraph) EdgesFrom(ctx context.Context, id, rel string) ([]Edge, error) {
	return g.queryEdges(ctx, "from_id", id, rel)
}

func (g *SQLiteGraph) EdgesTo(ctx context.Context, id, rel string) ([]Edge, error) {
	return g.queryEdges(ctx, "to_id", id, rel)
}

func (g *SQLiteGraph) queryEdges(ctx context.Context, col, id, rel string) ([]Edge, error) {
	query := `SELECT from_id, to_id, rel, props, created_at FROM edges WHERE ` + col + ` = ?`
	args := []any{id}
	if rel != "" {
		query += ` AND rel = ?`
		args = append(args, rel)
	}
	query += ` ORDER BY created_at`

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var edges []Edge
	for rows.Next() {
		var e Edge
		var props sql.NullString
		var created string
		if err := rows.Scan(&e.FromID, &e.ToID, &e.Rel, &props, &created); err != nil {
			return nil, mapErr(err)
		}
		if props.Valid {
			e.Props = json.RawMessage(props.String)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		edges = append(edges, e)
	}
	return edges, mapErr(rows.Err())
}

func (g *SQLiteGraph) NodesByLabel(ctx context.Context, label string) ([]Node, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT id, label, props, created_at FROM nodes WHERE label = ? ORDER BY created_at`, label)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, mapErr(err)
		}
		nodes = append(nodes, *n)
	}
	return nodes, mapErr(rows.Err())
}

func (g *SQLiteGraph) CountNodes(ctx context.Context, label string) (int, error) {
	var n int
	err := g.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes WHERE label = ?`, label).Scan(&n)
	return n, mapErr(err)
}

func (g *SQLiteGraph) Close() error {
	return g.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*Node, error) {
	var n Node
	var props, created string
	if err := row.Scan(&n.ID, &n.Label, &props, &created); err != nil {
		return nil, err
	}
	n.Props = json.RawMessage(props)
	n.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &n, nil
}
