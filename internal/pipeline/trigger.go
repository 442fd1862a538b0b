package pipeline

import (
	"context"
	"sync"

	"github.com/rcliao/ragwire/internal/ctxlog"
	"github.com/rcliao/ragwire/internal/model"
)

// TriggerState is the busy flag of one relation.
type TriggerState int

const (
	Idle TriggerState = iota
	InFlight
)

func (s TriggerState) String() string {
	if s == InFlight {
		return "in-flight"
	}
	return "idle"
}

// TriggerFunc is a remote operation fired by wiring.
type TriggerFunc func(ctx context.Context) (string, error)

// TriggerController fires remote operations when qualifying edges appear.
// Each relation has at most one call outstanding; edges arriving while it is
// in flight are accepted but do not fire again.
type TriggerController struct {
	mu       sync.Mutex
	states   map[Relation]TriggerState
	triggers map[Relation]TriggerFunc
	notifier Notifier
	wg       sync.WaitGroup
}

// NewTriggerController wires IngestToIndex to p.ProcessIngestedDocuments.
func NewTriggerController(p Processor, n Notifier) *TriggerController {
	if n == nil {
		n = discardNotifier{}
	}
	return &TriggerController{
		states: map[Relation]TriggerState{},
		triggers: map[Relation]TriggerFunc{
			RelationIngestToIndex: p.ProcessIngestedDocuments,
		},
		notifier: n,
	}
}

// OnEdgeAdded classifies e against s and fires the relation's trigger if it
// has one and is idle. It reports whether a call was started. The
// transition to InFlight happens before it returns; the call itself runs on
// its own goroutine and cannot be cancelled by ctx.
func (c *TriggerController) OnEdgeAdded(ctx context.Context, s Snapshot, e model.Edge) bool {
	return c.Fire(ctx, Classify(s, e))
}

// Fire starts the trigger for rel if one is registered and idle.
func (c *TriggerController) Fire(ctx context.Context, rel Relation) bool {
	logger := ctxlog.FromContext(ctx)
	fn, ok := c.triggers[rel]
	if !ok {
		return false
	}

	c.mu.Lock()
	if c.states[rel] == InFlight {
		c.mu.Unlock()
		logger.Debug("trigger already in flight, dropping", "relation", rel)
		return false
	}
	c.states[rel] = InFlight
	c.wg.Add(1)
	c.mu.Unlock()

	logger.Info("trigger fired", "relation", rel)
	go c.run(context.WithoutCancel(ctx), rel, fn)
	return true
}

func (c *TriggerController) run(ctx context.Context, rel Relation, fn TriggerFunc) {
	defer c.wg.Done()
	msg, err := fn(ctx)

	c.mu.Lock()
	c.states[rel] = Idle
	c.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	if err != nil {
		kind := ClassifyError(err)
		logger.Error("trigger failed", "relation", rel, "kind", kind, "error", err)
		c.notifier.Notify(ctx, Notice{Level: LevelError, Relation: rel, Kind: kind, Message: UserMessage(err)})
		return
	}
	logger.Info("trigger settled", "relation", rel, "message", msg)
	c.notifier.Notify(ctx, Notice{Level: LevelInfo, Relation: rel, Message: msg})
}

// State returns the busy flag for rel.
func (c *TriggerController) State(rel Relation) TriggerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[rel]
}

// Busy reports whether any relation has a call outstanding.
func (c *TriggerController) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.states {
		if s == InFlight {
			return true
		}
	}
	return false
}

// Wait blocks until every started trigger has settled.
func (c *TriggerController) Wait() {
	c.wg.Wait()
}
