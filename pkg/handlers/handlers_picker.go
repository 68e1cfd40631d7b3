package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/arnavshah/shift-picker-go/pkg/database"
	"github.com/arnavshah/shift-picker-go/pkg/models"
	"github.com/arnavshah/shift-picker-go/pkg/picker"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const staffTokenHeader = "X-Staff-Token"

type submitRequest struct {
	PickerID    string             `json:"pickerId" binding:"required"`
	StaffID     string             `json:"staffId" binding:"required"`
	Preferences models.Preferences `json:"preferences" binding:"required"`
}

// pickerError maps service errors onto status codes and writes the JSON body
func (h *Handler) pickerError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, database.ErrPickerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, picker.ErrPickerExpired), errors.Is(err, picker.ErrPickerComplete):
		status = http.StatusGone
	case errors.Is(err, database.ErrAlreadySubmitted), errors.Is(err, picker.ErrNotComplete):
		status = http.StatusConflict
	case errors.Is(err, picker.ErrInvalidPicker),
		errors.Is(err, picker.ErrUnknownStaff),
		errors.Is(err, picker.ErrInvalidPreferences):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.Logger.Error("picker request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// SubmitPreferences records one staff member's preferences
func (h *Handler) SubmitPreferences(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	if h.Auth.StaffTokensEnabled() && !h.Auth.VerifyStaffToken(req.PickerID, req.StaffID, c.GetHeader(staffTokenHeader)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid staff token"})
		return
	}

	res, err := h.Pickers.Submit(c.Request.Context(), req.PickerID, req.StaffID, req.Preferences)
	if err != nil {
		h.pickerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"isComplete": res.IsComplete,
	})
}

// GetPicker returns a picker's state and, once complete, its allocation
func (h *Handler) GetPicker(c *gin.Context) {
	view, err := h.Pickers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.pickerError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ExportPicker downloads the allocation as CSV or XLSX
func (h *Handler) ExportPicker(c *gin.Context) {
	id := c.Param("id")
	format := c.DefaultQuery("format", picker.FormatCSV)

	var buf bytes.Buffer
	contentType, err := h.Pickers.Export(c.Request.Context(), id, format, &buf)
	if err != nil {
		h.pickerError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="allocation-%s.%s"`, id, format))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// CreatePicker opens a new allocation round
func (h *Handler) CreatePicker(c *gin.Context) {
	var in picker.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.Pickers.Create(c.Request.Context(), in, c.GetString("username"))
	if err != nil {
		h.pickerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// ListPickers returns the 50 most recent pickers
func (h *Handler) ListPickers(c *gin.Context) {
	pickers, err := h.Pickers.List(c.Request.Context(), 50)
	if err != nil {
		h.pickerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pickers": pickers})
}

// StaffTokens lists the submission token for every staff member of a picker
func (h *Handler) StaffTokens(c *gin.Context) {
	if !h.Auth.StaffTokensEnabled() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "staff tokens are not enabled"})
		return
	}

	view, err := h.Pickers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.pickerError(c, err)
		return
	}

	tokens := make(map[string]string, len(view.Staff))
	for _, st := range view.Staff {
		tokens[st.ID] = h.Auth.StaffToken(view.ID, st.ID)
	}
	c.JSON(http.StatusOK, gin.H{"picker_id": view.ID, "tokens": tokens})
}
