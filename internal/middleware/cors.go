package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/config"
)

// CORS returns the cross-origin policy: a fixed frontend origin in
// production, permissive everywhere else.
func CORS() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}

	if config.IsProduction() {
		cfg.AllowOrigins = []string{"https://foodgram.example.org"}
	} else {
		cfg.AllowOrigins = []string{"http://localhost:5173", "http://frontend:5173"}
	}

	return cors.New(cfg)
}
