package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/plantgram/internal/domain"
	"github.com/timmy/plantgram/internal/logger"
	"github.com/timmy/plantgram/internal/service"
)

// CommentHandler handles comment endpoints.
type CommentHandler struct {
	comments *service.CommentService
}

// NewCommentHandler creates a new comment handler.
func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// CreateCommentRequest is the body of POST /api/v1/posts/:id/comments.
type CreateCommentRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

// UpdateCommentRequest is the body of PATCH /api/v1/comments/:id.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// ListComments handles GET /api/v1/posts/:id/comments.
func (h *CommentHandler) ListComments(c *gin.Context) {
	comments, err := h.comments.ListByPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// CreateComment handles POST /api/v1/posts/:id/comments.
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	comment, err := h.comments.Create(logger.SetUserID(c.Request.Context(), req.UserID), c.Param("id"), req.UserID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// UpdateComment handles PATCH /api/v1/comments/:id.
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	comment, err := h.comments.Update(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DeleteComment handles DELETE /api/v1/comments/:id.
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	if err := h.comments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
