package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rcliao/ragwire/internal/model"
)

func TestDeriveCapabilities(t *testing.T) {
	tests := []struct {
		name  string
		edges []model.Edge
		want  CapabilitySet
	}{
		{"no edges", nil, CapabilitySet{}},
		{"ingest-index", []model.Edge{{Source: "pdf", Target: "vectorDB"}}, CapabilitySet{IndexingWired: true}},
		{"index-query reversed", []model.Edge{{Source: "llm", Target: "vectorDB"}}, CapabilitySet{QueryingWired: true}},
		{"inert edge", []model.Edge{{Source: "pdf", Target: "llm"}}, CapabilitySet{}},
		{"both", []model.Edge{
			{Source: "vectorDB", Target: "pdf"},
			{Source: "vectorDB", Target: "llm"},
		}, CapabilitySet{IndexingWired: true, QueryingWired: true}},
		{"duplicates", []model.Edge{
			{Source: "pdf", Target: "vectorDB"},
			{Source: "pdf", Target: "vectorDB"},
		}, CapabilitySet{IndexingWired: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := NewSnapshot(model.DefaultNodes(), tt.edges)
			assert.Equal(t, tt.want, DeriveCapabilities(snap))
			// Same input, same answer.
			assert.Equal(t, tt.want, DeriveCapabilities(snap))
		})
	}
}

func TestDeriveCapabilities_IgnoresTriggerState(t *testing.T) {
	remote := &fakeRemote{gate: make(chan struct{})}
	e := newTestEngine(t, remote, nil)
	ctx := t.Context()

	_, _, err := e.Connect(ctx, "pdf", "vectorDB")
	assert.NoError(t, err)
	inFlight := e.Capabilities()
	close(remote.gate)
	e.Wait()

	assert.Equal(t, inFlight, e.Capabilities())
	assert.Equal(t, CapabilitySet{IndexingWired: true}, inFlight)
}

func TestDeriveCapabilities_AfterRemoval(t *testing.T) {
	remote := &fakeRemote{}
	e := newTestEngine(t, remote, nil)
	ctx := t.Context()

	e.Connect(ctx, "vectorDB", "llm")
	e.Connect(ctx, "llm", "vectorDB")
	assert.True(t, e.Capabilities().QueryingWired)

	assert.Equal(t, 2, e.Disconnect("vectorDB", "llm"))
	assert.False(t, e.Capabilities().QueryingWired)
}
