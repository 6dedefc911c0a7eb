package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/calfai/herd/internal/domain/models"
	"github.com/calfai/herd/internal/service/enrollment"
)

// AuthHandler exposes the enrollment protocol and login over HTTP.
type AuthHandler struct {
	protocol *enrollment.Protocol
	profiles enrollment.ProfileStore
	logger   *zap.Logger
}

// NewAuthHandler constructs the HTTP handler adapter.
func NewAuthHandler(protocol *enrollment.Protocol, profiles enrollment.ProfileStore, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{protocol: protocol, profiles: profiles, logger: logger}
}

// Register starts the signup flow by requesting an OTP for the candidate
// credentials.
func (h *AuthHandler) Register(c *gin.Context) {
	var form enrollment.SignupForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.protocol.RequestOTP(c.Request.Context(), sessionID(c), form); err != nil {
		h.logger.Warn("otp request failed", zap.String("email", form.Email), zap.Error(err))
		respondFault(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"otpSent": true})
}

// Verify completes the signup flow with the emailed code.
func (h *AuthHandler) Verify(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	account, err := h.protocol.VerifyAndCommit(c.Request.Context(), sessionID(c), req.Code)
	if err != nil {
		h.logger.Warn("otp verification failed", zap.Error(err))
		respondFault(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accountId": account.ID, "idToken": account.IDToken})
}

// Login authenticates existing credentials.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	account, err := h.protocol.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondFault(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accountId": account.ID, "idToken": account.IDToken})
}

// GetProfile returns the caller's mirrored profile document.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	account, ok := accountFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in first"})
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), account.ID)
	if err != nil {
		h.logger.Error("profile load failed", zap.String("account_id", account.ID), zap.Error(err))
		respondFault(c, err)
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile applies a profile edit. An unchanged email updates directly;
// an email delta starts the OTP-guarded email-change flow.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	account, ok := accountFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in first"})
		return
	}

	var form models.ProfileForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.protocol.BeginProfileUpdate(c.Request.Context(), sessionID(c), account, form)
	if err != nil {
		respondFault(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ConfirmEmailChange completes an in-flight email change with the code sent
// to the new address.
func (h *AuthHandler) ConfirmEmailChange(c *gin.Context) {
	if _, ok := accountFrom(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in first"})
		return
	}

	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.protocol.ConfirmEmailChange(c.Request.Context(), sessionID(c), req.Code); err != nil {
		respondFault(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": true})
}
