package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/emilythestrangee/aurora/backend/internal/accounts"
	"github.com/emilythestrangee/aurora/backend/internal/auth"
	"github.com/emilythestrangee/aurora/backend/internal/authoring"
	"github.com/emilythestrangee/aurora/backend/internal/blob"
	"github.com/emilythestrangee/aurora/backend/internal/config"
	"github.com/emilythestrangee/aurora/backend/internal/content"
	"github.com/emilythestrangee/aurora/backend/internal/database"
	"github.com/emilythestrangee/aurora/backend/internal/engagement"
	"github.com/emilythestrangee/aurora/backend/internal/feed"
	"github.com/emilythestrangee/aurora/backend/internal/handlers"
	"github.com/emilythestrangee/aurora/backend/internal/middleware"
	"github.com/emilythestrangee/aurora/backend/internal/stats"
)

const (
	serviceName       = "aurora-api"
	limiterIdle       = 10 * time.Minute
	limiterSweep      = time.Minute
	healthTimeout     = 2 * time.Second
	shutdownTimeout   = 10 * time.Second
	maxUploadInMemory = 10 << 20
)

type Server struct {
	cfg      *config.Config
	store    database.Store
	blobs    blob.Store
	accounts *accounts.Service
	handler  *handlers.Handler
	limiter  *middleware.RateLimiter
}

// NewServer wires the domain services over store and blobs.
func NewServer(cfg *config.Config, store database.Store, blobs blob.Store) *Server {
	defaults := content.Defaults{BaseURL: cfg.Media.AssetBaseURL}
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	fetcher := blob.NewFetcher(cfg.Media.ImageFetchTimeout, cfg.Media.MaxImageBytes)

	accountService := accounts.NewService(store, tokens, blobs, defaults)

	s := &Server{
		cfg:      cfg,
		store:    store,
		blobs:    blobs,
		accounts: accountService,
		handler: handlers.NewHandler(handlers.Services{
			Store:     store,
			Accounts:  accountService,
			Authoring: authoring.NewService(store, blobs, fetcher, defaults),
			Reactions: engagement.NewReactions(store),
			Follows:   engagement.NewFollows(store),
			Feed:      feed.NewReader(store),
			Stats:     stats.NewAggregator(store),
		}),
	}
	if cfg.Server.RateLimitEnabled {
		s.limiter = middleware.NewRateLimiter(cfg.Server.RateLimitPerMin, limiterIdle)
	}
	return s
}

// HTTPServer wraps the router in an http.Server bound to the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := s.HTTPServer()

	if s.limiter != nil {
		stop := make(chan struct{})
		defer close(stop)
		go s.limiter.Run(limiterSweep, stop)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "env", s.cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	slog.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = maxUploadInMemory
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middleware.RequestLogger(), middleware.Metrics())

	corsConfig := cors.Config{
		AllowOrigins:     s.cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))

	if s.limiter != nil {
		r.Use(s.limiter.Middleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"project": "Aurora"})
	})
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if mem, ok := s.blobs.(*blob.MemoryStore); ok {
		r.GET("/blobs/*name", serveBlob(mem))
	}

	h := s.handler
	authenticated := middleware.AuthMiddleware(s.accounts)

	users := r.Group("/users")
	{
		users.POST("", h.Auth.Register)
		users.POST("/login", h.Auth.Login)

		protected := users.Group("")
		protected.Use(authenticated)
		{
			protected.GET("", h.User.GetUsers)
			protected.POST("/auth", h.Auth.GetMe)
			protected.GET("/:username", h.User.GetUserProfile)
			protected.PUT("/:username/update", h.User.UpdateUserProfile)
			protected.PUT("/:username/update_user", h.User.FollowUser)
			protected.PUT("/:username/update_category", h.User.FollowCategory)
		}
	}

	categories := r.Group("/categories")
	categories.Use(authenticated)
	{
		categories.GET("", h.Category.GetCategories)
		categories.POST("", h.Category.CreateCategory)
		categories.GET("/:slug", h.Category.GetCategory)
	}

	posts := r.Group("/posts")
	posts.Use(authenticated)
	{
		posts.GET("", h.Post.GetPosts)
		posts.POST("", h.Post.CreatePost)
		posts.GET("/:slug", h.Post.GetPost)
		posts.PUT("/:slug/like", h.Post.LikePost)
		posts.PUT("/:slug/dislike", h.Post.DislikePost)

		posts.POST("/:slug/comments", h.Comment.CreateComment)
		posts.PUT("/:slug/comments/:commentID/like", h.Comment.LikeComment)
		posts.PUT("/:slug/comments/:commentID/dislike", h.Comment.DislikeComment)
	}

	return r
}

type healthReporter interface {
	Health(ctx context.Context) map[string]string
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if hr, ok := s.store.(healthReporter); ok {
		report := hr.Health(ctx)
		status := http.StatusOK
		if report["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
		return
	}

	if err := s.store.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "up"})
}

// serveBlob serves objects held by the in-process blob store.
func serveBlob(store *blob.MemoryStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		obj, ok := store.Get(c.Param("name"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.Data(http.StatusOK, obj.ContentType, obj.Data)
	}
}
