package main

import (
	"log"
	"os"
	"promptrelay-backend/config"
	"promptrelay-backend/internal/api"
	"promptrelay-backend/internal/database"
	"promptrelay-backend/internal/models"
	"promptrelay-backend/pkg/logger"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// @title promptrelay-backend API
// @version 1.0
// @description Relays questions to local, hosted and aggregator language-model backends and stores the answers.

// @host localhost:8080
// @BasePath /

func main() {
	startedAt := time.Now()

	rootCmd := &cobra.Command{
		Use:          "promptrelay",
		Short:        "HTTP relay between users and language-model backends",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(startedAt)
		},
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(startedAt)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if _, err := database.Connect(cfg); err != nil {
				return err
			}
			return migrate()
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	err = logger.InitLogger(&logger.Config{
		Level:      cfg.LogLevel,
		Filename:   cfg.LogFilename,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	})
	if err != nil {
		log.Printf("failed to initialize logger: %v", err)
		return nil, err
	}

	return cfg, nil
}

func migrate() error {
	if err := database.DB.AutoMigrate(&models.PromptRecord{}); err != nil {
		logger.Log.Error("failed to migrate database", zap.Error(err))
		return err
	}
	logger.Log.Info("Database schema is up to date")
	return nil
}

func serve(startedAt time.Time) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	router, err := api.NewRouter(cfg, startedAt)
	if err != nil {
		logger.Log.Error("failed to create router", zap.Error(err))
		return err
	}

	if err := migrate(); err != nil {
		return err
	}

	logger.Log.Info("Starting server",
		zap.String("addr", cfg.ServerAddr),
		zap.Bool("cache", cfg.RedisEnabled()),
		zap.Bool("deepinfra_key", cfg.DeepInfraAPIKey != ""),
		zap.Bool("openrouter_key", cfg.OpenRouterAPIKey != ""),
	)

	if err := router.Run(cfg.ServerAddr); err != nil {
		logger.Log.Error("failed to run server", zap.Error(err))
		return err
	}
	return nil
}
