package pipeline

// CapabilitySet says which optional stages are currently wired.
type CapabilitySet struct {
	IndexingWired bool `json:"indexing_wired"`
	QueryingWired bool `json:"querying_wired"`
}

// DeriveCapabilities recomputes the capability set from the full edge
// collection of s. It looks at wiring only, never at trigger progress.
func DeriveCapabilities(s Snapshot) CapabilitySet {
	var caps CapabilitySet
	for _, e := range s.Edges {
		switch Classify(s, e) {
		case RelationIngestToIndex:
			caps.IndexingWired = true
		case RelationIndexToQuery:
			caps.QueryingWired = true
		}
		if caps.IndexingWired && caps.QueryingWired {
			break
		}
	}
	return caps
}
