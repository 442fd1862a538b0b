package pipeline

import "github.com/rcliao/ragwire/internal/model"

// Relation is the pipeline adjacency an edge stands for.
type Relation int

const (
	RelationNone Relation = iota
	RelationIngestToIndex
	RelationIndexToQuery
)

func (r Relation) String() string {
	switch r {
	case RelationIngestToIndex:
		return "ingest->index"
	case RelationIndexToQuery:
		return "index->query"
	default:
		return "none"
	}
}

// ClassifyRoles returns the relation between two node roles. Order does not
// matter.
func ClassifyRoles(a, b model.Role) Relation {
	switch {
	case pair(a, b, model.RoleIngest, model.RoleIndex):
		return RelationIngestToIndex
	case pair(a, b, model.RoleIndex, model.RoleQuery):
		return RelationIndexToQuery
	default:
		return RelationNone
	}
}

// Classify returns the relation e represents within s. Edges touching nodes
// missing from s are RelationNone.
func Classify(s Snapshot, e model.Edge) Relation {
	src, ok := s.Role(e.Source)
	if !ok {
		return RelationNone
	}
	dst, ok := s.Role(e.Target)
	if !ok {
		return RelationNone
	}
	return ClassifyRoles(src, dst)
}

func pair(a, b, x, y model.Role) bool {
	return (a == x && b == y) || (a == y && b == x)
}
