package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/elliewren/caption-gallery/backend/internal/config"
	"github.com/elliewren/caption-gallery/backend/internal/database"
	"github.com/elliewren/caption-gallery/backend/internal/handlers"
	"github.com/elliewren/caption-gallery/backend/internal/middleware"
	"github.com/elliewren/caption-gallery/backend/internal/session"
)

type Server struct {
	db       database.Service
	handler  *handlers.Handler
	sessions *session.Manager
}

// New configures the router and returns the HTTP server. All collaborators
// are constructed by the caller and passed in.
func New(cfg config.Config, db database.Service, handler *handlers.Handler, sessions *session.Manager) *http.Server {
	s := &Server{
		db:       db,
		handler:  handler,
		sessions: sessions,
	}

	router := s.RegisterRoutes(cfg)

	return &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes(cfg config.Config) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.PublicOrigin},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	// OAuth handshake routes (public)
	auth := r.Group("/auth")
	{
		auth.GET("/google", s.handler.Auth.BeginGoogleLogin)
		auth.GET("/callback", s.handler.Auth.Callback)
		auth.POST("/logout", s.handler.Auth.Logout)
	}

	api := r.Group("/api")
	{
		// Caption routes (public reads)
		api.GET("/captions", s.handler.Caption.GetCaptions)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(s.sessions))
		{
			protected.GET("/me", s.handler.Auth.GetMe)
			protected.GET("/me/votes", s.handler.Caption.GetMyVotes)
			protected.POST("/captions/:id/vote", s.handler.Caption.CastVote)
		}
	}

	return r
}
