package handler

import (
	"net/http"

	"github.com/arnavshah/shift-picker-go/internal/config"
	"github.com/arnavshah/shift-picker-go/internal/logging"
	"github.com/arnavshah/shift-picker-go/pkg/handlers"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	r       *gin.Engine
	initErr error
)

func init() {
	cfg, err := config.Load()
	if err != nil {
		initErr = err
		return
	}

	logger, err := logging.InitLogger(true, cfg.LogLevel)
	if err != nil {
		initErr = err
		return
	}

	r, initErr = handlers.Bootstrap(cfg, logger)
	if initErr != nil {
		logger.Error("bootstrap failed", zap.Error(initErr))
	}
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	if initErr != nil {
		http.Error(w, `{"error":"service unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	r.ServeHTTP(w, req)
}
