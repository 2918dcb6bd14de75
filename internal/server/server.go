package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emilythestrangee/decision-board/backend/internal/auth"
	"github.com/emilythestrangee/decision-board/backend/internal/config"
	"github.com/emilythestrangee/decision-board/backend/internal/database"
	"github.com/emilythestrangee/decision-board/backend/internal/handlers"
	"github.com/emilythestrangee/decision-board/backend/internal/logging"
	"github.com/emilythestrangee/decision-board/backend/internal/middleware"
)

type Server struct {
	cfg         *config.Config
	db          database.Service
	handler     *handlers.Handler
	tokens      *auth.Tokens
	voteLimiter middleware.Limiter
}

func New(cfg *config.Config, db database.Service, handler *handlers.Handler, tokens *auth.Tokens, voteLimiter middleware.Limiter) *Server {
	return &Server{cfg: cfg, db: db, handler: handler, tokens: tokens, voteLimiter: voteLimiter}
}

// HTTPServer wraps the router in an http.Server listening on the configured
// port.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	if s.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		stats := s.db.Health()
		status := http.StatusOK
		if stats["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, stats)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := s.handler
	voteLimit := middleware.RateLimit(s.voteLimiter, middleware.RateLimitConfig{
		Max:    s.cfg.VoteRateLimit,
		Window: s.cfg.VoteRateWindow,
	}, middleware.KeyByUser)

	api := r.Group("/api")
	{
		api.POST("/register", h.Auth.Register)
		api.POST("/login", h.Auth.Login)

		// Public reads; a valid token only fills in the viewer's own vote.
		public := api.Group("")
		public.Use(middleware.OptionalAuth(s.tokens))
		{
			public.GET("/decisions", h.Decision.GetDecisions)
			public.GET("/decisions/:id", h.Decision.GetDecision)
			public.GET("/decisions/:id/comments", h.Comment.GetComments)
			public.GET("/decisions/:id/breakdown", h.Vote.GetBreakdown)
			public.GET("/users/:id", h.User.GetUserProfile)
		}

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(s.tokens))
		{
			protected.GET("/me", h.Auth.GetMe)
			protected.PUT("/me/profile", h.User.UpdateProfile)
			protected.POST("/me/avatar", h.User.UploadAvatar)
			protected.GET("/me/decisions", h.Decision.GetMyDecisions)
			protected.GET("/me/dashboard", h.Decision.GetDashboard)

			protected.POST("/decisions", h.Decision.CreateDecision)
			protected.PUT("/decisions/:id", h.Decision.UpdateDecision)
			protected.DELETE("/decisions/:id", h.Decision.DeleteDecision)
			protected.POST("/decisions/:id/vote", voteLimit, h.Vote.VoteDecision)
			protected.POST("/decisions/:id/comments", h.Comment.CreateComment)
		}
	}

	return r
}
