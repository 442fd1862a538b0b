// Package model defines the core pipeline data types.
package model

import "time"

// Role is the pipeline stage a graph node represents.
type Role string

const (
	RoleIngest Role = "ingest"
	RoleIndex  Role = "index"
	RoleQuery  Role = "query"
)

// ValidRoles are the allowed node roles.
var ValidRoles = map[Role]bool{
	RoleIngest: true,
	RoleIndex:  true,
	RoleQuery:  true,
}

// Position is where a node sits on the canvas. Presentational only.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a pipeline stage on the graph.
type Node struct {
	ID       string   `json:"id"`
	Role     Role     `json:"role"`
	Position Position `json:"position"`
}

// Edge connects two nodes as authored. Direction is kept for display but
// carries no meaning for classification.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Reverse returns the edge with its endpoints swapped.
func (e Edge) Reverse() Edge {
	return Edge{ID: e.ID, Source: e.Target, Target: e.Source}
}

// Joins reports whether the edge connects a and b in either direction.
func (e Edge) Joins(a, b string) bool {
	return (e.Source == a && e.Target == b) || (e.Source == b && e.Target == a)
}

// DefaultNodes is the fixed node template created at start.
func DefaultNodes() []Node {
	return []Node{
		{ID: "pdf", Role: RoleIngest, Position: Position{X: 100, Y: 100}},
		{ID: "vectorDB", Role: RoleIndex, Position: Position{X: 300, Y: 100}},
		{ID: "llm", Role: RoleQuery, Position: Position{X: 500, Y: 100}},
	}
}

// Sender identifies who wrote a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatMessage is one entry of the session transcript.
type ChatMessage struct {
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
}
