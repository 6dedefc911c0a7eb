package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/calfai/herd/internal/server/handlers"
	"github.com/calfai/herd/pkg/clients/identity"
)

const lookupTimeout = 10 * time.Second

// Handlers groups the HTTP adapters the router mounts.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Prediction *handlers.PredictionHandler
	Records    *handlers.RecordsHandler
	Chat       *handlers.ChatHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, provider identity.Provider, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/verify", h.Auth.Verify)
	api.POST("/auth/login", h.Auth.Login)

	authed := api.Group("")
	authed.Use(authMiddleware(provider, logger))

	authed.GET("/profile", h.Auth.GetProfile)
	authed.PUT("/profile", h.Auth.UpdateProfile)
	authed.POST("/profile/confirm-email", h.Auth.ConfirmEmailChange)

	authed.POST("/predict", h.Prediction.Predict)
	authed.POST("/predict/:animalId", h.Prediction.PredictByID)

	authed.GET("/records", h.Records.List)
	authed.GET("/records/stream", h.Records.Stream)
	authed.GET("/dashboard", h.Records.Dashboard)
	authed.POST("/reports/export", h.Records.Export)

	authed.POST("/chat", h.Chat.Send)
	authed.GET("/chat", h.Chat.Transcript)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

// authMiddleware resolves the bearer token into an account and stores it on
// the request context for the handlers downstream.
func authMiddleware(provider identity.Provider, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" || token == c.GetHeader("Authorization") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), lookupTimeout)
		defer cancel()

		account, err := provider.Lookup(ctx, token)
		if err != nil {
			logger.Warn("token lookup failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		handlers.SetAccount(c, *account)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
