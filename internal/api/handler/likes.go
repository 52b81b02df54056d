package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/plantgram/internal/service"
)

// LikeHandler handles like endpoints.
type LikeHandler struct {
	likes *service.LikeService
}

// NewLikeHandler creates a new like handler.
func NewLikeHandler(likes *service.LikeService) *LikeHandler {
	return &LikeHandler{likes: likes}
}

// ToggleLikeRequest is the body of POST /api/v1/posts/:id/likes.
type ToggleLikeRequest struct {
	UserID string `json:"user_id"`
}

// ToggleLike handles POST /api/v1/posts/:id/likes.
func (h *LikeHandler) ToggleLike(c *gin.Context) {
	var req ToggleLikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	summary, err := h.likes.Toggle(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetLikes handles GET /api/v1/posts/:id/likes?user_id=.
func (h *LikeHandler) GetLikes(c *gin.Context) {
	summary, err := h.likes.Summary(c.Request.Context(), c.Param("id"), c.Query("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
