package handlers

import (
	"net/http"

	"github.com/arnavshah/shift-picker-go/pkg/models"
	"github.com/arnavshah/shift-picker-go/pkg/scheduler"
	"github.com/gin-gonic/gin"
)

// ValidateInput checks an allocation request without running it
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.AllocateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if len(input.Staff) == 0 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "At least one staff member is required"})
		return
	}

	if len(input.Dates) == 0 || len(input.Shifts) == 0 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "At least one date and one shift are required"})
		return
	}

	// Check for duplicate IDs
	staffIDs := make(map[string]bool)
	for _, s := range input.Staff {
		if staffIDs[s.ID] {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Duplicate staff ID: " + s.ID})
			return
		}
		staffIDs[s.ID] = true
	}

	slots := scheduler.EnumerateSlots(input.Dates, input.Shifts)
	slotKeys := make(map[string]bool, len(slots))
	for _, sl := range slots {
		if slotKeys[sl.Key()] {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Duplicate slot: " + sl.Key()})
			return
		}
		slotKeys[sl.Key()] = true
	}

	for staffID, prefs := range input.Preferences {
		if !staffIDs[staffID] {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Preferences for unknown staff ID: " + staffID})
			return
		}
		for key, tag := range prefs {
			if !slotKeys[key] || !tag.Valid() {
				c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Invalid preference " + key + " for " + staffID})
				return
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"staff_count": len(input.Staff),
			"slot_count":  len(slots),
		},
	})
}
