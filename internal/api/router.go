package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/plantgram/internal/api/handler"
	"github.com/timmy/plantgram/internal/api/middleware"
	"github.com/timmy/plantgram/internal/config"
	"github.com/timmy/plantgram/internal/logger"
	"github.com/timmy/plantgram/internal/metrics"
	"github.com/timmy/plantgram/internal/realtime"
	"github.com/timmy/plantgram/internal/service"
)

// Services are the dependencies the HTTP layer is built on.
type Services struct {
	Posts    *service.PostService
	Comments *service.CommentService
	Likes    *service.LikeService
	Uploads  *service.UploadService
	Persona  *service.PersonaRegistry
	Triggers *service.ManualTriggers
	// Backfill is optional; nil disables the admin routes.
	Backfill *service.BackfillService
	// Hub is optional; nil disables the websocket route.
	Hub    *realtime.Hub
	Health handler.HealthInfo
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(svc *Services, cfg *config.ServerConfig, log *logger.Logger) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(metrics.Middleware())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler(svc.Health)
	postHandler := handler.NewPostHandler(svc.Posts)
	commentHandler := handler.NewCommentHandler(svc.Comments)
	likeHandler := handler.NewLikeHandler(svc.Likes)
	fairyHandler := handler.NewFairyHandler(svc.Posts, svc.Triggers)
	uploadHandler := handler.NewUploadHandler(svc.Uploads)
	personaHandler := handler.NewPersonaHandler(svc.Persona)

	// Health check and metrics
	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", metrics.Handler())

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		if svc.Hub != nil {
			v1.GET("/ws", gin.WrapF(svc.Hub.HandleWebSocket))
		}

		// Posts
		v1.GET("/posts", postHandler.ListPosts)
		v1.POST("/posts", postHandler.CreatePost)
		v1.GET("/posts/:id", postHandler.GetPost)
		v1.PATCH("/posts/:id", postHandler.UpdatePost)
		v1.DELETE("/posts/:id", postHandler.DeletePost)

		// Comments
		v1.GET("/posts/:id/comments", commentHandler.ListComments)
		v1.POST("/posts/:id/comments", commentHandler.CreateComment)
		v1.PATCH("/comments/:id", commentHandler.UpdateComment)
		v1.DELETE("/comments/:id", commentHandler.DeleteComment)

		// Likes
		v1.GET("/posts/:id/likes", likeHandler.GetLikes)
		v1.POST("/posts/:id/likes", likeHandler.ToggleLike)

		// Plant fairy
		v1.GET("/posts/:id/fairy", fairyHandler.GetState)
		v1.POST("/posts/:id/fairy", fairyHandler.Activate)
		v1.GET("/persona", personaHandler.GetPersona)

		// Uploads
		v1.POST("/uploads", uploadHandler.Upload)

		// Admin
		if svc.Backfill != nil {
			adminHandler := handler.NewAdminHandler(svc.Backfill)
			v1.POST("/admin/backfill", adminHandler.TriggerBackfill)
			v1.GET("/admin/backfill", adminHandler.GetBackfillStatus)
		}
	}

	return r
}
