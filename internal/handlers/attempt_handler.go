package handlers

import (
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type AttemptHandler struct {
	BaseHandler
	attemptService      services.AttemptService
	importExportService services.ImportExportService
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	importExportService services.ImportExportService,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:         NewBaseHandler(logger),
		attemptService:      attemptService,
		importExportService: importExportService,
	}
}

// CreateAttempt records an attempt without grading it
// @Summary Record attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param attempt body models.CreateAttemptRequest true "Attempt data"
// @Success 200 {object} models.Attempt
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts [post]
func (h *AttemptHandler) CreateAttempt(c *gin.Context) {
	h.LogRequest(c, "Recording attempt")

	var req models.CreateAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid attempt data", nil, err.Error())
		return
	}

	attempt, err := h.attemptService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// ListAttempts returns the subject's attempts, newest first
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	subjectID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	attempts, err := h.attemptService.ListBySubject(c.Request.Context(), subjectID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempts)
}

// ExportAttempts downloads the subject's attempt history as .xlsx
func (h *AttemptHandler) ExportAttempts(c *gin.Context) {
	subjectID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	data, err := h.importExportService.ExportAttempts(c.Request.Context(), subjectID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	sendSpreadsheet(c, fmt.Sprintf("subject-%d-attempts.xlsx", subjectID), data)
}
