package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/plantgram/internal/logger"
	"github.com/timmy/plantgram/internal/prompts"
	"github.com/timmy/plantgram/internal/service"
)

// FairyHandler exposes the manual fairy trigger of a post.
type FairyHandler struct {
	posts    *service.PostService
	triggers *service.ManualTriggers
}

// NewFairyHandler creates a new fairy handler.
func NewFairyHandler(posts *service.PostService, triggers *service.ManualTriggers) *FairyHandler {
	return &FairyHandler{posts: posts, triggers: triggers}
}

// FairyResponse is the trigger state returned by both fairy endpoints.
type FairyResponse struct {
	State     service.TriggerState `json:"state"`
	Message   string               `json:"message,omitempty"`
	Error     string               `json:"error,omitempty"`
	Retryable bool                 `json:"retryable,omitempty"`
	Outcome   string               `json:"outcome,omitempty"`
	CommentID string               `json:"comment_id,omitempty"`
}

// GetState handles GET /api/v1/posts/:id/fairy?view=.
// The first request for a view mounts its trigger.
func (h *FairyHandler) GetState(c *gin.Context) {
	postID := c.Param("id")
	if _, err := h.posts.Get(c.Request.Context(), postID); err != nil {
		respondError(c, err)
		return
	}

	t := h.triggers.Get(postID, c.Query("view"))
	t.Mount(c.Request.Context())
	st := t.Status()

	resp := FairyResponse{State: st.State}
	if st.Error != "" {
		resp.Error = prompts.NoticeFailed
		resp.Retryable = true
	}
	c.JSON(http.StatusOK, resp)
}

// Activate handles POST /api/v1/posts/:id/fairy?view=.
// Returns 200 once the fairy has commented, 409 when the trigger is not
// visible, and 502 when the attempt failed and may be retried.
func (h *FairyHandler) Activate(c *gin.Context) {
	postID := c.Param("id")
	ctx := logger.SetPostID(c.Request.Context(), postID)
	if _, err := h.posts.Get(ctx, postID); err != nil {
		respondError(c, err)
		return
	}

	view := c.Query("view")
	t := h.triggers.Get(postID, view)
	t.Mount(ctx)

	// The workflow is bounded by its own timeout; a client disconnect must
	// not abort a half-written comment.
	res := t.Activate(context.WithoutCancel(ctx))
	if !res.Ran {
		c.JSON(http.StatusConflict, FairyResponse{State: res.State})
		return
	}
	if res.Err != nil {
		logger.FromContext(ctx).WithError(res.Err).Warn("Manual fairy trigger failed")
		c.JSON(http.StatusBadGateway, FairyResponse{
			State:     res.State,
			Error:     prompts.NoticeFailed,
			Retryable: true,
		})
		return
	}

	h.triggers.Release(postID, view, t)

	resp := FairyResponse{
		State:   res.State,
		Message: prompts.NoticePublished,
		Outcome: res.Result.Outcome.String(),
	}
	if res.Result.Comment != nil {
		resp.CommentID = res.Result.Comment.ID
	}
	c.JSON(http.StatusOK, resp)
}
