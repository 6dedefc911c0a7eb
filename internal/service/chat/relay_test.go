package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calfai/herd/internal/domain/faults"
	"github.com/calfai/herd/internal/domain/models"
)

type fakeBackend struct {
	reply string
	err   error
	calls int
}

func (f *fakeBackend) Chat(ctx context.Context, message string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestSendAppendsUserAndBotMessages(t *testing.T) {
	backend := &fakeBackend{reply: "Check the udder for swelling."}
	relay := NewRelay(backend, nil)

	reply, err := relay.Send(context.Background(), "sess-1", "My cow has a fever")

	require.NoError(t, err)
	assert.Equal(t, models.ChatSenderBot, reply.Sender)
	assert.Equal(t, "Check the udder for swelling.", reply.Text)

	transcript := relay.Transcript("sess-1")
	require.Len(t, transcript, 3)
	assert.Equal(t, models.ChatSenderBot, transcript[0].Sender) // greeting
	assert.Equal(t, "My cow has a fever", transcript[1].Text)
	assert.Equal(t, models.ChatSenderUser, transcript[1].Sender)
	assert.Equal(t, reply.Text, transcript[2].Text)
}

func TestSendBackendFailureYieldsFallbackReply(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection refused")}
	relay := NewRelay(backend, nil)

	reply, err := relay.Send(context.Background(), "sess-1", "Hello?")

	// The transcript degrades, it never errors.
	require.NoError(t, err)
	assert.Equal(t, fallbackReply, reply.Text)
	assert.Equal(t, 1, backend.calls)

	transcript := relay.Transcript("sess-1")
	require.Len(t, transcript, 3)
	assert.Equal(t, "Hello?", transcript[1].Text)
	assert.Equal(t, fallbackReply, transcript[2].Text)
}

func TestSendRejectsEmptyMessage(t *testing.T) {
	backend := &fakeBackend{}
	relay := NewRelay(backend, nil)

	_, err := relay.Send(context.Background(), "sess-1", "   ")

	require.Error(t, err)
	assert.Equal(t, faults.KindValidation, faults.KindOf(err))
	assert.Zero(t, backend.calls)
}

func TestTranscriptSeedsGreetingForNewSession(t *testing.T) {
	relay := NewRelay(&fakeBackend{}, nil)

	transcript := relay.Transcript("fresh")

	require.Len(t, transcript, 1)
	assert.Equal(t, models.ChatSenderBot, transcript[0].Sender)
	assert.Equal(t, greeting, transcript[0].Text)
}

func TestSessionsAreIsolated(t *testing.T) {
	relay := NewRelay(&fakeBackend{reply: "ok"}, nil)

	_, err := relay.Send(context.Background(), "sess-a", "question")
	require.NoError(t, err)

	assert.Len(t, relay.Transcript("sess-a"), 3)
	assert.Len(t, relay.Transcript("sess-b"), 1)
}

func TestTranscriptStoreClear(t *testing.T) {
	store := NewTranscriptStore()
	store.Append("sess-1", "hi", models.ChatSenderUser)
	require.Len(t, store.Get("sess-1"), 2)

	store.Clear("sess-1")

	// Back to a fresh greeting-only transcript.
	assert.Len(t, store.Get("sess-1"), 1)
}
