package models

import "time"

// ChatSender distinguishes the two sides of an assistant transcript.
type ChatSender string

const (
	ChatSenderUser ChatSender = "user"
	ChatSenderBot  ChatSender = "bot"
)

// ChatMessage is one entry in a session transcript.
type ChatMessage struct {
	Text   string     `json:"text"`
	Sender ChatSender `json:"sender"`
	SentAt time.Time  `json:"sentAt"`
}
