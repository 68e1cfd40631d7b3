package handlers

import (
	"fmt"

	"github.com/arnavshah/shift-picker-go/internal/config"
	"github.com/arnavshah/shift-picker-go/internal/logging"
	"github.com/arnavshah/shift-picker-go/pkg/auth"
	"github.com/arnavshah/shift-picker-go/pkg/database"
	"github.com/arnavshah/shift-picker-go/pkg/picker"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Bootstrap wires the database, services and routes described by cfg
func Bootstrap(cfg *config.Config, logger *zap.Logger) (*gin.Engine, error) {
	db, err := database.Open(cfg.DatabaseURL, cfg.DataPath)
	if err != nil {
		return nil, err
	}
	if err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword, logger); err != nil {
		return nil, fmt.Errorf("ensure admin: %w", err)
	}

	authn := auth.New(cfg.JWTSecret, cfg.APIMasterSecret, cfg.PickerSigningSecret)
	pickers := picker.NewService(db, logger, cfg.DefaultPickerTTL)
	h := New(db, authn, pickers, logger)

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(logging.GinLogger(logger), gin.Recovery())
	h.Register(r)
	return r, nil
}
