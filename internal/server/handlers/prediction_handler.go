package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/calfai/herd/internal/service/prediction"
)

// PredictionHandler exposes the analysis pipeline over HTTP.
type PredictionHandler struct {
	orchestrator *prediction.Orchestrator
	logger       *zap.Logger
}

func NewPredictionHandler(orchestrator *prediction.Orchestrator, logger *zap.Logger) *PredictionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionHandler{orchestrator: orchestrator, logger: logger}
}

// Predict runs both models against a manually entered observation.
func (h *PredictionHandler) Predict(c *gin.Context) {
	account, ok := accountFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in first"})
		return
	}

	var obs prediction.Observation
	if err := c.ShouldBindJSON(&obs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	outcome, err := h.orchestrator.Submit(c.Request.Context(), account.ID, obs)
	if err != nil {
		respondFault(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// PredictByID fetches a stored animal record upstream and analyzes it.
func (h *PredictionHandler) PredictByID(c *gin.Context) {
	account, ok := accountFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in first"})
		return
	}

	animalID := c.Param("animalId")
	outcome, err := h.orchestrator.SubmitByID(c.Request.Context(), account.ID, animalID)
	if err != nil {
		respondFault(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}
