package pipeline

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rcliao/ragwire/internal/ctxlog"
	"github.com/rcliao/ragwire/internal/model"
)

// WireQueryPrompt is the bot reply when the query stage is not wired.
const WireQueryPrompt = "Please connect to LLM node"

// Transcript is the ordered, append-only chat log of a session.
type Transcript struct {
	mu   sync.RWMutex
	msgs []model.ChatMessage
	now  func() time.Time
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{now: time.Now}
}

func (t *Transcript) append(text string, sender model.Sender) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.msgs = append(t.msgs, model.ChatMessage{Text: text, Sender: sender, CreatedAt: t.now().UTC()})
}

// Messages returns a copy of the transcript in append order.
func (t *Transcript) Messages() []model.ChatMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]model.ChatMessage(nil), t.msgs...)
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.msgs)
}

// Dispatcher routes chat input either to a local reply or to the remote
// query operation, recording everything in its transcript.
type Dispatcher struct {
	querier    Querier
	transcript *Transcript
	pending    atomic.Int32
}

// NewDispatcher creates a dispatcher with an empty transcript.
func NewDispatcher(q Querier) *Dispatcher {
	return &Dispatcher{querier: q, transcript: NewTranscript()}
}

// Send handles one utterance. Blank input returns ErrEmptyUtterance and
// changes nothing. Remote failures are written to the transcript and not
// returned.
func (d *Dispatcher) Send(ctx context.Context, utterance string, caps CapabilitySet) error {
	if strings.TrimSpace(utterance) == "" {
		return ErrEmptyUtterance
	}
	d.transcript.append(utterance, model.SenderUser)

	if !caps.QueryingWired {
		d.transcript.append(WireQueryPrompt, model.SenderBot)
		return nil
	}

	d.pending.Add(1)
	defer d.pending.Add(-1)

	answer, err := d.querier.QueryPipeline(ctx, utterance, caps.IndexingWired)
	if err != nil {
		ctxlog.FromContext(ctx).Error("query failed", "kind", ClassifyError(err), "error", err)
		d.transcript.append(UserMessage(err), model.SenderBot)
		return nil
	}
	d.transcript.append(answer, model.SenderBot)
	return nil
}

// Pending returns the number of sends waiting on the remote call.
func (d *Dispatcher) Pending() int {
	return int(d.pending.Load())
}

// Transcript returns the session transcript.
func (d *Dispatcher) Transcript() *Transcript {
	return d.transcript
}
