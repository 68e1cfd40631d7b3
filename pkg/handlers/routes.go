package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Register mounts every route on r
func (h *Handler) Register(r *gin.Engine) {
	// Admin interface - serve static files from embedded FS
	r.StaticFS("/static", h.GetStaticFS())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Shift Picker API",
			"version": Version,
		})
	})
	r.GET("/health", h.Health)

	r.GET("/admin", h.AdminInterface)
	r.POST("/admin/login", h.Login)

	// Admin Endpoints
	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)

		admin.POST("/pickers", h.CreatePicker)
		admin.GET("/pickers", h.ListPickers)
		admin.GET("/pickers/:id/tokens", h.StaffTokens)
	}

	// Staff-facing picker endpoints
	sp := r.Group("/api/shift-picker")
	{
		sp.POST("/preferences", h.SubmitPreferences)
		sp.GET("/:id", h.GetPicker)
		sp.GET("/:id/export", h.ExportPicker)
	}

	// Stateless compute endpoints
	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/allocate", h.AllocateJSON)
		api.POST("/validate", h.ValidateInput)
		api.POST("/holidays/balance", h.BalanceHolidays)
		api.GET("/usage", h.GetMyUsage)
	}
}
