package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthInfo is static service information reported by /health.
type HealthInfo struct {
	LLMMode        string
	StorageEnabled bool
	// Pending returns the number of scheduled automatic fairy comments.
	Pending func() int
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	info HealthInfo
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(info HealthInfo) *HealthHandler {
	return &HealthHandler{info: info}
}

// Health returns the health status of the service
func (h *HealthHandler) Health(c *gin.Context) {
	resp := gin.H{
		"status":  "ok",
		"llm":     h.info.LLMMode,
		"storage": h.info.StorageEnabled,
	}
	if h.info.Pending != nil {
		resp["pending_auto_comments"] = h.info.Pending()
	}
	c.JSON(http.StatusOK, resp)
}
