package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/arnavshah/shift-picker-go/pkg/database"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxUsageDays = 90

type usageTotals struct {
	Requests int64 `json:"requests"`
	Slots    int64 `json:"slots"`
	Staff    int64 `json:"staff"`
}

// GetMyUsage reports allocation usage for the calling API key: daily history
// (?days=, default 30), totals over that window and what is left of today's limit
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKey, ok := c.MustGet("apiKey").(*database.APIKey)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API Key context missing"})
		return
	}

	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 1 || days > maxUsageDays {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 1 and 90"})
		return
	}
	since := time.Now().AddDate(0, 0, -(days - 1)).Format(usageDateLayout)

	var history []database.APIUsage
	if err := h.DB.Where("key_id = ? AND date >= ?", apiKey.ID, since).Order("date desc").Find(&history).Error; err != nil {
		h.Logger.Error("usage lookup failed", zap.Uint("key_id", apiKey.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}

	today := time.Now().Format(usageDateLayout)
	var totals usageTotals
	usedToday := 0
	for _, u := range history {
		totals.Requests += int64(u.RequestCount)
		totals.Slots += int64(u.TotalSlots)
		totals.Staff += int64(u.TotalStaff)
		if u.Date == today {
			usedToday = u.RequestCount
		}
	}

	remaining := apiKey.RateLimit - usedToday
	if remaining < 0 {
		remaining = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"key_name":        apiKey.Name,
		"rate_limit":      apiKey.RateLimit,
		"remaining_today": remaining,
		"usage_history":   history,
		"totals":          totals,
	})
}
