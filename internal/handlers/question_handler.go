package handlers

import (
	"fmt"
	"net/http"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	BaseHandler
	questionService     services.QuestionService
	importExportService services.ImportExportService
}

func NewQuestionHandler(
	questionService services.QuestionService,
	importExportService services.ImportExportService,
	logger utils.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:         NewBaseHandler(logger),
		questionService:     questionService,
		importExportService: importExportService,
	}
}

// ListQuestions returns the subject's questions without answers, in grading order
// @Summary List questions for play
// @Tags questions
// @Produce json
// @Param id path uint true "Subject ID"
// @Success 200 {array} models.PublicQuestion
// @Failure 404 {object} ErrorResponse
// @Router /subjects/{id}/questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	subjectID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Listing questions", "subject_id", subjectID)

	questions, err := h.questionService.ListPublic(c.Request.Context(), subjectID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// ListQuestionsAdmin returns full question records including answers
// @Summary List questions with answers
// @Tags questions
// @Produce json
// @Param id path uint true "Subject ID"
// @Success 200 {array} models.Question
// @Router /subjects/{id}/questions/admin [get]
func (h *QuestionHandler) ListQuestionsAdmin(c *gin.Context) {
	subjectID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	questions, err := h.questionService.ListAdmin(c.Request.Context(), subjectID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

// CreateQuestion adds a question to a subject
// @Summary Create question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "Subject ID"
// @Param question body models.CreateQuestionRequest true "Question data"
// @Success 201 {object} models.Question
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /subjects/{id}/questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	subjectID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Creating question", "subject_id", subjectID)

	var req models.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid question data", nil, err.Error())
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), subjectID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// ImportQuestions imports questions from an uploaded .csv or .xlsx file
// @Summary Import questions
// @Tags questions
// @Accept multipart/form-data
// @Produce json
// @Param id path uint true "Subject ID"
// @Param file formData file true "Spreadsheet"
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} ErrorResponse
// @Router /subjects/{id}/questions/import [post]
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	subjectID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "File is required", nil, err.Error())
		return
	}

	h.LogRequest(c, "Importing questions", "subject_id", subjectID, "filename", fileHeader.Filename, "size", fileHeader.Size)

	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Unable to read uploaded file", nil, err.Error())
		return
	}
	defer file.Close()

	result, err := h.importExportService.ImportQuestions(c.Request.Context(), subjectID, file, fileHeader.Filename)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportQuestions downloads the subject's questions as .xlsx
func (h *QuestionHandler) ExportQuestions(c *gin.Context) {
	subjectID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	data, err := h.importExportService.ExportQuestions(c.Request.Context(), subjectID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	sendSpreadsheet(c, fmt.Sprintf("subject-%d-questions.xlsx", subjectID), data)
}
