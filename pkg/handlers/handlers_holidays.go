package handlers

import (
	"net/http"

	"github.com/arnavshah/shift-picker-go/pkg/models"
	"github.com/arnavshah/shift-picker-go/pkg/scheduler"
	"github.com/gin-gonic/gin"
)

// BalanceHolidays grants holiday periods from survey answers
func (h *Handler) BalanceHolidays(c *gin.Context) {
	var input models.HolidayInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	seen := make(map[string]bool, len(input.Periods))
	for _, p := range input.Periods {
		if seen[p.ID] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Duplicate period ID: " + p.ID})
			return
		}
		seen[p.ID] = true
	}

	outcome := scheduler.BalanceHolidayAssignments(input.Participants, input.Periods, input.Preferences, input.MaxPerParticipant)

	h.RecordUsage(c, len(input.Periods), len(input.Participants))

	c.JSON(http.StatusOK, outcome)
}
