// Package graph provides the property-graph store adapter. It exposes
// transactional, parameterized create/read/update/delete of nodes and
// relationships; every component above consumes this contract directly.
package graph

import (
	"context"
	"encoding/json"
	"time"
)

// Node is a labeled property node.
type Node struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	Props     json.RawMessage `json:"props"`
	CreatedAt time.Time       `json:"created_at"`
}

// Edge is a typed directional relationship between two nodes.
type Edge struct {
	FromID    string          `json:"from_id"`
	ToID      string          `json:"to_id"`
	Rel       string          `json:"rel"`
	Props     json.RawMessage `json:"props,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NodeSpec describes a node to create. Props may be any JSON-marshalable
// value; an empty ID means the store generates one.
type NodeSpec struct {
	ID    string
	Label string
	Props any
}

// EdgeSpec describes an edge to create.
type EdgeSpec struct {
	FromID string
	ToID   string
	Rel    string
	Props  any
}

// Store is the graph store contract. All methods are blocking round-trips
// honoring the context deadline; a deadline hit surfaces as model.ErrTimeout
// and never as a partial result.
type Store interface {
	// CreateNode inserts a node and returns its id.
	CreateNode(ctx context.Context, spec NodeSpec) (string, error)

	// CreateNodeWithEdges inserts a node and its initial edges in one
	// transaction. Edge cardinality invariants are checked inside the
	// transaction, so a violating create fails whole.
	CreateNodeWithEdges(ctx context.Context, spec NodeSpec, edges []EdgeSpec) (string, error)

	// UpsertNode inserts a node or replaces its props if the id exists.
	UpsertNode(ctx context.Context, id, label string, props any) error

	// GetNode fetches a node by id.
	GetNode(ctx context.Context, id string) (*Node, error)

	// MutateNode applies an atomic read-modify-write to a node's props.
	// Concurrent mutations of the same node are serialized; none are lost.
	MutateNode(ctx context.Context, id string, fn func(props json.RawMessage) (any, error)) error

	// DeleteNodeDetach removes a node and all its edges atomically.
	// Returns false if the node did not exist.
	DeleteNodeDetach(ctx context.Context, id string) (bool, error)

	// CreateEdge inserts an edge. Both endpoints must exist.
	CreateEdge(ctx context.Context, e EdgeSpec) error

	// DeleteEdge removes one edge.
	DeleteEdge(ctx context.Context, from, to, rel string) error

	// EdgesFrom returns edges originating at id, optionally filtered by rel.
	EdgesFrom(ctx context.Context, id, rel string) ([]Edge, error)

	// EdgesTo returns edges pointing at id, optionally filtered by rel.
	EdgesTo(ctx context.Context, id, rel string) ([]Edge, error)

	// NodesByLabel returns all nodes with the given label.
	NodesByLabel(ctx context.Context, label string) ([]Node, error)

	// CountNodes counts nodes with the given label.
	CountNodes(ctx context.Context, label string) (int, error)

	// Close closes the store.
	Close() error
}
