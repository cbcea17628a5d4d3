package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mspsf/fbsession/internal/config"
	"mspsf/fbsession/internal/handler/middleware"
	jwtpkg "mspsf/fbsession/pkg/jwt"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	sessionHandler *SessionHandler,
	graphHandler *GraphHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuth(jwtManager))
	{
		// Persisted OAuth session state
		api.GET("/session", sessionHandler.List)
		api.DELETE("/session", sessionHandler.ClearAll)
		api.POST("/session/state", sessionHandler.EstablishState)
		api.GET("/session/:key", sessionHandler.Get)
		api.PUT("/session/:key", sessionHandler.Set)
		api.DELETE("/session/:key", sessionHandler.Clear)

		// Token issuance bypasses the response cache
		api.POST("/token/extend", graphHandler.ExtendToken)
		api.POST("/token/exchange", graphHandler.ExchangeCode)

		// Cached Graph passthrough
		api.GET("/graph/*path", graphHandler.Proxy)
	}

	return r
}
