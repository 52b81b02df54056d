package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/plantgram/internal/domain"
	"github.com/timmy/plantgram/internal/logger"
	"github.com/timmy/plantgram/internal/service"
)

// PostHandler handles post endpoints.
type PostHandler struct {
	posts *service.PostService
}

// NewPostHandler creates a new post handler.
func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// ListPosts handles GET /api/v1/posts.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *PostHandler) ListPosts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	posts, err := h.posts.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	if posts == nil {
		posts = []domain.PlantPost{}
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":  posts,
		"limit":  limit,
		"offset": offset,
	})
}

// CreatePost handles POST /api/v1/posts.
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req service.CreatePostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	post, err := h.posts.Create(logger.SetUserID(c.Request.Context(), req.UserID), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// GetPost handles GET /api/v1/posts/:id.
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// UpdatePost handles PATCH /api/v1/posts/:id.
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var patch domain.PostPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	post, err := h.posts.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost handles DELETE /api/v1/posts/:id.
func (h *PostHandler) DeletePost(c *gin.Context) {
	if err := h.posts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
