package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/plantgram/internal/logger"
	"github.com/timmy/plantgram/internal/service"
)

// AdminHandler runs the fairy backfill on demand.
type AdminHandler struct {
	backfill *service.BackfillService

	// Backfill job state
	mu            sync.RWMutex
	isRunning     bool
	currentStats  *service.BackfillStats
	lastRunTime   time.Time
	lastRunStatus string
}

// NewAdminHandler creates a new admin handler.
// Parameters:
//   - backfill: backfill service instance.
// Returns:
//   - *AdminHandler: initialized handler.
func NewAdminHandler(backfill *service.BackfillService) *AdminHandler {
	return &AdminHandler{backfill: backfill}
}

// BackfillRequest represents the backfill API request.
type BackfillRequest struct {
	Limit   int  `json:"limit" binding:"required,min=1,max=10000"`
	Workers int  `json:"workers" binding:"omitempty,min=1,max=32"`
	DryRun  bool `json:"dry_run"`
}

// BackfillResponse represents the backfill API response.
type BackfillResponse struct {
	Message string                 `json:"message"`
	Stats   *service.BackfillStats `json:"stats,omitempty"`
}

// BackfillStatusResponse represents the backfill status.
type BackfillStatusResponse struct {
	IsRunning     bool                   `json:"is_running"`
	LastRunTime   string                 `json:"last_run_time,omitempty"`
	LastRunStatus string                 `json:"last_run_status,omitempty"`
	CurrentStats  *service.BackfillStats `json:"current_stats,omitempty"`
}

// TriggerBackfill handles POST /api/v1/admin/backfill.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminHandler) TriggerBackfill(c *gin.Context) {
	ctx := c.Request.Context()

	var req BackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.CtxWarn(ctx, "Invalid backfill request: client_ip=%s, error=%v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	if h.isRunning {
		h.mu.Unlock()
		logger.CtxWarn(ctx, "Backfill request rejected: already running, client_ip=%s", c.ClientIP())
		c.JSON(http.StatusConflict, gin.H{"error": "Backfill is already running"})
		return
	}
	h.isRunning = true
	h.currentStats = nil
	h.mu.Unlock()

	logger.CtxInfo(ctx, "Starting backfill: limit=%d, workers=%d, dry_run=%v", req.Limit, req.Workers, req.DryRun)

	// Detach from the request so an HTTP timeout does not stop the run.
	runCtx := context.WithoutCancel(ctx)
	startTime := time.Now()
	stats, err := h.backfill.Run(runCtx, &service.BackfillOptions{
		Limit:   req.Limit,
		Workers: req.Workers,
		DryRun:  req.DryRun,
	})
	duration := time.Since(startTime)

	h.mu.Lock()
	h.isRunning = false
	h.currentStats = stats
	h.lastRunTime = time.Now()
	if err != nil {
		h.lastRunStatus = "failed: " + err.Error()
	} else {
		h.lastRunStatus = "success"
	}
	h.mu.Unlock()

	if err != nil {
		logger.With(logger.Fields{
			logger.FieldDurationMs: duration.Milliseconds(),
		}).Error(ctx, "Backfill failed: limit=%d, error=%v", req.Limit, err)
		respondError(c, err)
		return
	}

	logger.With(logger.Fields{
		logger.FieldDurationMs: duration.Milliseconds(),
		logger.FieldCount:      stats.Total,
	}).Info(ctx, "Backfill completed: total=%d, published=%d, skipped=%d, failed=%d",
		stats.Total, stats.Published, stats.Skipped, stats.Failed)

	c.JSON(http.StatusOK, BackfillResponse{
		Message: "Backfill completed",
		Stats:   stats,
	})
}

// GetBackfillStatus handles GET /api/v1/admin/backfill.
func (h *AdminHandler) GetBackfillStatus(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	resp := BackfillStatusResponse{
		IsRunning:     h.isRunning,
		LastRunStatus: h.lastRunStatus,
		CurrentStats:  h.currentStats,
	}
	if !h.lastRunTime.IsZero() {
		resp.LastRunTime = h.lastRunTime.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, resp)
}
