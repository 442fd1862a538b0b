package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/ragwire/internal/model"
)

func TestSend_EmptyUtterance(t *testing.T) {
	remote := &fakeRemote{}
	d := NewDispatcher(remote)

	for _, in := range []string{"", "   ", "\n\t"} {
		err := d.Send(t.Context(), in, CapabilitySet{QueryingWired: true})
		assert.ErrorIs(t, err, ErrEmptyUtterance)
		assert.Equal(t, KindValidation, ClassifyError(err))
	}
	assert.Zero(t, d.Transcript().Len())
	assert.Empty(t, remote.queryCalls())
}

func TestSend_QueryNotWired(t *testing.T) {
	remote := &fakeRemote{}
	d := NewDispatcher(remote)

	require.NoError(t, d.Send(t.Context(), "hi", CapabilitySet{IndexingWired: true}))

	msgs := d.Transcript().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.ChatMessage{Text: "hi", Sender: model.SenderUser}, stripTime(msgs[0]))
	assert.Equal(t, model.ChatMessage{Text: WireQueryPrompt, Sender: model.SenderBot}, stripTime(msgs[1]))
	assert.Empty(t, remote.queryCalls())
}

func TestSend_ForwardsIndexFlag(t *testing.T) {
	for _, useIndex := range []bool{false, true} {
		remote := &fakeRemote{answer: "42"}
		d := NewDispatcher(remote)

		require.NoError(t, d.Send(t.Context(), "question", CapabilitySet{QueryingWired: true, IndexingWired: useIndex}))
		assert.Equal(t, []queryCall{{Utterance: "question", UseIndex: useIndex}}, remote.queryCalls())

		msgs := d.Transcript().Messages()
		require.Len(t, msgs, 2)
		assert.Equal(t, "42", msgs[1].Text)
		assert.Equal(t, model.SenderBot, msgs[1].Sender)
		assert.Zero(t, d.Pending())
	}
}

func TestSend_RemoteFailureGoesToTranscript(t *testing.T) {
	remote := &fakeRemote{queryErr: &ApplicationError{Op: "query", Status: 500, Reason: "Query failed: boom"}}
	d := NewDispatcher(remote)

	require.NoError(t, d.Send(t.Context(), "q", CapabilitySet{QueryingWired: true}))
	msgs := d.Transcript().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Error: Query failed: boom", msgs[1].Text)
}

func TestSend_NoDedup(t *testing.T) {
	remote := &fakeRemote{answer: "a"}
	d := NewDispatcher(remote)
	caps := CapabilitySet{QueryingWired: true}

	d.Send(t.Context(), "same", caps)
	d.Send(t.Context(), "same", caps)
	assert.Len(t, remote.queryCalls(), 2)
	assert.Equal(t, 4, d.Transcript().Len())
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Error: Network error, backend unreachable",
		UserMessage(&TransportError{Op: "query", Err: errors.New("dial tcp")}))
	assert.Equal(t, "Error: nope", UserMessage(&ApplicationError{Reason: "nope"}))
	assert.Equal(t, "Error: plain", UserMessage(errors.New("plain")))
	assert.Equal(t, KindUnknown, ClassifyError(nil))
}

func stripTime(m model.ChatMessage) model.ChatMessage {
	return model.ChatMessage{Text: m.Text, Sender: m.Sender}
}
