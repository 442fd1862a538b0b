// Package pipeline turns graph wiring into pipeline activity: it classifies
// edges, fires the index build when ingestion is wired to the index, derives
// which stages chat may use, and dispatches chat input.
package pipeline

import (
	"context"
	"sync"

	"github.com/rcliao/ragwire/internal/ctxlog"
	"github.com/rcliao/ragwire/internal/model"
)

// Engine ties the graph store, trigger controller and dispatcher together.
// All methods are safe for concurrent use.
type Engine struct {
	mu         sync.Mutex
	graph      *Graph
	triggers   *TriggerController
	dispatcher *Dispatcher
	uploader   Uploader
	notifier   Notifier
}

// NewEngine creates an engine over nodes backed by remote. A nil notifier
// discards notices.
func NewEngine(remote Remote, notifier Notifier, nodes []model.Node) (*Engine, error) {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	graph, err := NewGraph(nodes)
	if err != nil {
		return nil, err
	}
	return &Engine{
		graph:      graph,
		triggers:   NewTriggerController(remote, notifier),
		dispatcher: NewDispatcher(remote),
		uploader:   remote,
		notifier:   notifier,
	}, nil
}

// Connect adds an edge and fires its trigger when it qualifies. Edge
// insertion, classification and the busy transition are one step with
// respect to other Connect calls.
func (e *Engine) Connect(ctx context.Context, source, target string) (model.Edge, Relation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	edge, err := e.graph.AddEdge(source, target)
	if err != nil {
		return model.Edge{}, RelationNone, err
	}
	snap := e.graph.Snapshot()
	rel := Classify(snap, edge)
	ctxlog.FromContext(ctx).Debug("edge added", "source", source, "target", target, "relation", rel)
	e.triggers.OnEdgeAdded(ctx, snap, edge)
	return edge, rel, nil
}

// Disconnect removes every edge between a and b.
func (e *Engine) Disconnect(a, b string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.RemoveEdges(a, b)
}

// Upload hands files to the ingest stage and notifies the outcome.
func (e *Engine) Upload(ctx context.Context, files []File) error {
	msg, err := e.uploader.UploadDocuments(ctx, files)
	if err != nil {
		e.notifier.Notify(ctx, Notice{Level: LevelError, Kind: ClassifyError(err), Message: UserMessage(err)})
		return err
	}
	e.notifier.Notify(ctx, Notice{Level: LevelInfo, Message: msg})
	return nil
}

// Send dispatches an utterance using the capabilities wired right now.
func (e *Engine) Send(ctx context.Context, utterance string) error {
	return e.dispatcher.Send(ctx, utterance, e.Capabilities())
}

// Capabilities derives the capability set from the current edges.
func (e *Engine) Capabilities() CapabilitySet {
	return DeriveCapabilities(e.graph.Snapshot())
}

// Snapshot returns the current graph.
func (e *Engine) Snapshot() Snapshot {
	return e.graph.Snapshot()
}

// TriggerState returns the busy flag for rel.
func (e *Engine) TriggerState(rel Relation) TriggerState {
	return e.triggers.State(rel)
}

// Transcript returns the chat transcript.
func (e *Engine) Transcript() []model.ChatMessage {
	return e.dispatcher.Transcript().Messages()
}

// PendingSends returns the number of chat sends awaiting a reply.
func (e *Engine) PendingSends() int {
	return e.dispatcher.Pending()
}

// Wait blocks until outstanding triggers settle.
func (e *Engine) Wait() {
	e.triggers.Wait()
}
