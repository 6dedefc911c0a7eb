package chat

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/calfai/herd/internal/domain/faults"
	"github.com/calfai/herd/internal/domain/models"
)

const (
	sendTimeout = 15 * time.Second

	// fallbackReply replaces transport failures; the transcript never shows
	// a broken state, only a degraded answer.
	fallbackReply = "Sorry, I'm having trouble retrieving an answer right now."
)

// Backend is the conversational endpoint the relay forwards to.
type Backend interface {
	Chat(ctx context.Context, message string) (string, error)
}

// Relay bridges user messages to the conversational backend with local
// transcript state. One attempt per send, no retry.
type Relay struct {
	backend     Backend
	transcripts *TranscriptStore
	logger      *zap.Logger
}

// NewRelay wires a relay instance.
func NewRelay(backend Backend, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		backend:     backend,
		transcripts: NewTranscriptStore(),
		logger:      logger,
	}
}

// Send appends the user message optimistically, forwards it, and appends the
// reply. A transport failure yields the fixed fallback reply; no error ever
// reaches the caller.
func (r *Relay) Send(ctx context.Context, sessionID, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, faults.Validation("Type a question first.")
	}

	r.transcripts.Append(sessionID, text, models.ChatSenderUser)

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	reply, err := r.backend.Chat(sendCtx, text)
	if err != nil {
		r.logger.Warn("chat backend unavailable", zap.Error(err))
		reply = fallbackReply
	}

	return r.transcripts.Append(sessionID, reply, models.ChatSenderBot), nil
}

// Transcript returns the session transcript, newest last.
func (r *Relay) Transcript(sessionID string) []models.ChatMessage {
	return r.transcripts.Get(sessionID)
}
