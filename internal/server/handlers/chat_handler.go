package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/calfai/herd/internal/service/chat"
)

// ChatHandler exposes the assistant relay over HTTP. Conversations are keyed
// by the X-Session-ID header so a browser tab keeps its own transcript.
type ChatHandler struct {
	relay  *chat.Relay
	logger *zap.Logger
}

func NewChatHandler(relay *chat.Relay, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{relay: relay, logger: logger}
}

// Send relays one user message and returns the assistant reply.
func (h *ChatHandler) Send(c *gin.Context) {
	var body struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	reply, err := h.relay.Send(c.Request.Context(), sessionID(c), body.Message)
	if err != nil {
		respondFault(c, err)
		return
	}

	c.JSON(http.StatusOK, reply)
}

// Transcript returns the full conversation so far, greeting included.
func (h *ChatHandler) Transcript(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"messages": h.relay.Transcript(sessionID(c))})
}
