package server

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/service"
)

// Server represents the HTTP server
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

// New wires services and handlers onto a server instance. sqlDB backs
// the health endpoint's connectivity ping. redisClient may be nil; rate
// limiting and token revocation then degrade gracefully.
func New(db *gorm.DB, sqlDB *database.DB, redisClient *redis.Client, cfg *config.Config) *Server {
	authService := service.NewAuthService(db, redisClient, cfg.JWTSecret)
	userService := service.NewUserService(db)
	recipeService := service.NewRecipeService(db)
	catalogService := service.NewCatalogService(db)

	var limiter *middleware.RateLimiter
	if redisClient != nil {
		limiter = middleware.NewRecipeCreationRateLimiter(redisClient)
	}

	engine := router.SetupRouter(
		api.NewHealthHandler(sqlDB),
		api.NewAuthHandler(authService),
		api.NewUserHandler(userService, authService, cfg.PageSize),
		api.NewRecipeHandler(recipeService, userService, authService, limiter, cfg.PageSize),
		api.NewCatalogHandler(catalogService),
	)

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
			Handler: engine,
		},
	}
}

// Start starts the server and blocks until it stops.
func (s *Server) Start() error {
	log.Printf("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
