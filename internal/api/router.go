package api

import (
	"promptrelay-backend/config"
	_ "promptrelay-backend/docs"
	"promptrelay-backend/internal/api/relay"
	"promptrelay-backend/internal/api/status"
	"promptrelay-backend/internal/database"
	"promptrelay-backend/internal/middleware"
	"promptrelay-backend/internal/services"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// NewRouter connects the stores and builds the engine.
func NewRouter(cfg *config.Config, startedAt time.Time) (*gin.Engine, error) {
	if _, err := database.Connect(cfg); err != nil {
		return nil, err
	}

	if err := database.ConnectRedis(cfg); err != nil {
		return nil, err
	}

	return NewEngine(cfg, startedAt), nil
}

// NewEngine builds the HTTP surface on top of already connected stores.
func NewEngine(cfg *config.Config, startedAt time.Time) *gin.Engine {
	local := services.NewOllamaBackend(cfg.OllamaURL, cfg.OllamaModel, cfg.BackendTimeout)
	hosted := services.NewDeepInfraBackend(cfg.DeepInfraURL, cfg.DeepInfraAPIKey, cfg.BackendTimeout)
	aggregator := services.NewOpenRouterBackend(cfg.OpenRouterURL, cfg.OpenRouterModel, cfg.OpenRouterAPIKey, cfg.BackendTimeout)

	router := gin.New()
	router.Use(middleware.Logger(), gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300 * time.Second,
	}))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	status.RegisterRoutes(&router.RouterGroup, status.NewHandler(startedAt, local, hosted, aggregator))

	relayHandler := relay.NewHandler(relay.Backends{
		Local:      local,
		Hosted:     hosted,
		Aggregator: aggregator,
	}, cfg.DeepInfraAPIKey, cfg.OpenRouterAPIKey)
	relay.RegisterRoutes(&router.RouterGroup, relayHandler)

	return router
}
