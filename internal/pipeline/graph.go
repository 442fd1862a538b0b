package pipeline

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/ragwire/internal/model"
)

var (
	ErrUnknownNode   = errors.New("unknown node")
	ErrDuplicateNode = errors.New("duplicate node")
)

// Graph is the connectivity store: nodes and the edges between them. It is
// the single source of truth for wiring and serializes every mutation.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]model.Node
	order []string
	edges []model.Edge
}

// NewGraph creates a graph seeded with nodes. A node with an invalid role or
// a repeated id fails the whole template.
func NewGraph(nodes []model.Node) (*Graph, error) {
	g := &Graph{nodes: make(map[string]model.Node, len(nodes))}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("node template: %w", err)
		}
	}
	return g, nil
}

// AddNode registers a node. Ids must be unique.
func (g *Graph) AddNode(n model.Node) error {
	if !model.ValidRoles[n.Role] {
		return fmt.Errorf("invalid role %q for node %s", n.Role, n.ID)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// RemoveNode drops a node and every edge touching it.
func (g *Graph) RemoveNode(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	delete(g.nodes, id)
	for i, nid := range g.order {
		if nid == id {
			g.order = append(g.order[:i:i], g.order[i+1:]...)
			break
		}
	}
	kept := g.edges[:0:0]
	for _, e := range g.edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	g.edges = kept
	return true
}

// AddEdge appends an edge between two existing nodes. Duplicates are kept.
func (g *Graph) AddEdge(source, target string) (model.Edge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range []string{source, target} {
		if _, ok := g.nodes[id]; !ok {
			return model.Edge{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
		}
	}
	e := model.Edge{
		ID:     ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
		Source: source,
		Target: target,
	}
	g.edges = append(g.edges, e)
	return e, nil
}

// RemoveEdges drops every edge joining a and b in either direction and
// returns how many were removed.
func (g *Graph) RemoveEdges(a, b string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	kept := g.edges[:0:0]
	for _, e := range g.edges {
		if !e.Joins(a, b) {
			kept = append(kept, e)
		}
	}
	removed := len(g.edges) - len(kept)
	g.edges = kept
	return removed
}

// Snapshot returns an immutable copy of the current graph.
func (g *Graph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s := Snapshot{
		Nodes: make([]model.Node, 0, len(g.order)),
		Edges: append([]model.Edge(nil), g.edges...),
		roles: make(map[string]model.Role, len(g.nodes)),
	}
	for _, id := range g.order {
		n := g.nodes[id]
		s.Nodes = append(s.Nodes, n)
		s.roles[id] = n.Role
	}
	return s
}

// Snapshot is a point-in-time view of the graph.
type Snapshot struct {
	Nodes []model.Node
	Edges []model.Edge
	roles map[string]model.Role
}

// Role returns the role of node id.
func (s Snapshot) Role(id string) (model.Role, bool) {
	r, ok := s.roles[id]
	return r, ok
}

// NewSnapshot builds a snapshot directly from nodes and edges.
func NewSnapshot(nodes []model.Node, edges []model.Edge) Snapshot {
	s := Snapshot{
		Nodes: append([]model.Node(nil), nodes...),
		Edges: append([]model.Edge(nil), edges...),
		roles: make(map[string]model.Role, len(nodes)),
	}
	for _, n := range nodes {
		s.roles[n.ID] = n.Role
	}
	return s
}
