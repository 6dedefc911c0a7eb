package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/calfai/herd/internal/domain/models"
	"github.com/calfai/herd/internal/repository/localcache"
	"github.com/calfai/herd/internal/service/analytics"
	"github.com/calfai/herd/internal/service/feed"
)

const listTimeout = 10 * time.Second

// HistoryExporter appends history rows to an external sheet.
type HistoryExporter interface {
	AppendHistory(ctx context.Context, snapshot models.Snapshot) (int, error)
}

// OutcomeReader reads the local fallback cache.
type OutcomeReader interface {
	List(ctx context.Context) ([]localcache.Entry, error)
}

// RecordsHandler serves record history, live snapshots, derived analytics and
// the report export.
type RecordsHandler struct {
	store    feed.Store
	cache    OutcomeReader
	exporter HistoryExporter
	logger   *zap.Logger
}

// NewRecordsHandler constructs the HTTP handler adapter. exporter may be nil
// when the export integration is not configured.
func NewRecordsHandler(store feed.Store, cache OutcomeReader, exporter HistoryExporter, logger *zap.Logger) *RecordsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordsHandler{store: store, cache: cache, exporter: exporter, logger: logger}
}

// List returns the caller's current record history, newest first. When the
// live store is unreachable it falls back to the local outcome cache.
func (h *RecordsHandler) List(c *gin.Context) {
	account, ok := accountFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in first"})
		return
	}

	snapshot, err := h.snapshot(c.Request.Context(), account.ID)
	if err != nil {
		h.logger.Warn("live store unavailable, serving cached outcomes", zap.Error(err))

		entries, cacheErr := h.cache.List(c.Request.Context())
		if cacheErr != nil {
			respondFault(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": entries, "source": "cache"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": snapshot, "source": "live"})
}

// Stream pushes each new snapshot to the client as a server-sent event until
// the client disconnects.
func (h *RecordsHandler) Stream(c *gin.Context) {
	account, ok := accountFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in first"})
		return
	}

	sub, err := feed.Subscribe(c.Request.Context(), h.store, account.ID, h.logger.Named("feed"))
	if err != nil {
		respondFault(c, err)
		return
	}
	defer sub.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case snapshot, open := <-sub.Snapshots():
			if !open {
				return false
			}
			c.SSEvent("snapshot", snapshot)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// Dashboard returns every chart-ready projection for the caller's history.
// The window query parameter bounds the trend series only.
func (h *RecordsHandler) Dashboard(c *gin.Context) {
	account, ok := accountFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in first"})
		return
	}

	snapshot, err := h.snapshot(c.Request.Context(), account.ID)
	if err != nil {
		respondFault(c, err)
		return
	}

	window := analytics.ParseWindow(c.Query("window"))

	c.JSON(http.StatusOK, gin.H{
		"projections": analytics.Project(snapshot, window),
		"alerts":      analytics.RecentAlerts(snapshot, 5),
	})
}

// Export appends the caller's history to the configured spreadsheet.
func (h *RecordsHandler) Export(c *gin.Context) {
	account, ok := accountFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in first"})
		return
	}
	if h.exporter == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report export is not configured"})
		return
	}

	snapshot, err := h.snapshot(c.Request.Context(), account.ID)
	if err != nil {
		respondFault(c, err)
		return
	}

	rows, err := h.exporter.AppendHistory(c.Request.Context(), snapshot)
	if err != nil {
		h.logger.Error("export failed", zap.Error(err))
		respondFault(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"exported": rows})
}

func (h *RecordsHandler) snapshot(ctx context.Context, ownerID string) (models.Snapshot, error) {
	listCtx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	docs, err := h.store.ListRawRecords(listCtx, ownerID)
	if err != nil {
		return nil, err
	}
	return feed.NormalizeDocs(docs, time.Now()), nil
}
