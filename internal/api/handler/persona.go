package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/plantgram/internal/service"
)

// PersonaHandler serves the fairy's public profile.
type PersonaHandler struct {
	registry *service.PersonaRegistry
}

// NewPersonaHandler creates a new persona handler.
func NewPersonaHandler(registry *service.PersonaRegistry) *PersonaHandler {
	return &PersonaHandler{registry: registry}
}

// GetPersona handles GET /api/v1/persona.
func (h *PersonaHandler) GetPersona(c *gin.Context) {
	p := h.registry.Persona()
	c.JSON(http.StatusOK, gin.H{
		"id":           p.ID,
		"username":     p.Username,
		"display_name": p.DisplayName,
		"avatar_url":   p.AvatarURL,
		"bio":          p.Bio,
	})
}
