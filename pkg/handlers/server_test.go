package handlers

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/arnavshah/shift-picker-go/internal/config"
	"github.com/arnavshah/shift-picker-go/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestBootstrap(t *testing.T) {
	auth.PasswordCost = bcrypt.MinCost
	cfg := &config.Config{
		Port:             "8000",
		GinMode:          "test",
		Environment:      "test",
		LogLevel:         "info",
		DataPath:         filepath.Join(t.TempDir(), "picker.db"),
		JWTSecret:        "jwt",
		APIMasterSecret:  "master",
		AdminUsername:    "admin",
		AdminPassword:    "admin123",
		DefaultPickerTTL: time.Hour,
	}

	r, err := Bootstrap(cfg, zap.NewNop())
	require.NoError(t, err)

	for _, path := range []string{"/", "/health", "/admin"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
