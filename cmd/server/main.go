package main

import (
	"log"

	"github.com/arnavshah/shift-picker-go/internal/config"
	"github.com/arnavshah/shift-picker-go/internal/logging"
	"github.com/arnavshah/shift-picker-go/pkg/handlers"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	logger, err := logging.InitLogger(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("could not init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	r, err := handlers.Bootstrap(cfg, logger)
	if err != nil {
		logger.Fatal("could not start server", zap.Error(err))
	}

	logger.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("could not run server", zap.Error(err))
	}
}
