package chat

import (
	"sync"
	"time"

	"github.com/calfai/herd/internal/domain/models"
)

const greeting = "Hi! I'm your AI Vet Assistant. Ask me about cattle health, symptoms, or how to use this app!"

// TranscriptStore keeps the per-session, append-only chat transcripts.
type TranscriptStore struct {
	transcripts map[string][]models.ChatMessage
	mu          sync.RWMutex
	now         func() time.Time
}

// NewTranscriptStore creates an empty store.
func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{
		transcripts: make(map[string][]models.ChatMessage),
		now:         time.Now,
	}
}

// Get returns a copy of the session transcript, seeding new sessions with
// the assistant greeting.
func (ts *TranscriptStore) Get(sessionID string) []models.ChatMessage {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	transcript, exists := ts.transcripts[sessionID]
	if !exists {
		return []models.ChatMessage{{Text: greeting, Sender: models.ChatSenderBot, SentAt: ts.now()}}
	}

	copied := make([]models.ChatMessage, len(transcript))
	copy(copied, transcript)
	return copied
}

// Append adds one message to a session transcript and returns it.
func (ts *TranscriptStore) Append(sessionID, text string, sender models.ChatSender) models.ChatMessage {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if _, exists := ts.transcripts[sessionID]; !exists {
		ts.transcripts[sessionID] = []models.ChatMessage{{Text: greeting, Sender: models.ChatSenderBot, SentAt: ts.now()}}
	}

	msg := models.ChatMessage{Text: text, Sender: sender, SentAt: ts.now()}
	ts.transcripts[sessionID] = append(ts.transcripts[sessionID], msg)
	return msg
}

// Clear removes a session's transcript.
func (ts *TranscriptStore) Clear(sessionID string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	delete(ts.transcripts, sessionID)
}
