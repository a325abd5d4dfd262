package handlers

import (
	"errors"
	"net/http"

	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and error mapping for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// log returns the request-scoped logger when ContextLogger is installed
func (h *BaseHandler) log(c *gin.Context) utils.Logger {
	return utils.GetLoggerFromContext(c, h.logger)
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"remote_addr", c.ClientIP(),
	}
	fields = append(fields, additionalFields...)

	h.log(c).Debug(message, fields...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)

	h.log(c).LogError(err, message, fields...)
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error, details ...interface{}) {
	resp := ErrorResponse{Message: message}
	if len(details) > 0 {
		resp.Details = details[0]
	}

	if err != nil && statusCode >= http.StatusInternalServerError {
		h.LogError(c, err, message, "status_code", statusCode)
	} else {
		h.log(c).Warn(message, "status_code", statusCode, "path", c.Request.URL.Path)
	}

	c.JSON(statusCode, resp)
}

// handleServiceError maps service errors onto HTTP statuses. Unclassified errors
// are logged and answered with a generic message.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		message := "Validation failed"
		if len(validationErrors) == 1 {
			message = validationErrors[0].Message
		}
		h.RespondWithError(c, http.StatusBadRequest, message, nil, validationErrors)
		return
	}

	switch {
	case errors.Is(err, services.ErrSubjectNotFound):
		h.RespondWithError(c, http.StatusNotFound, "Subject not found", nil)
	case errors.Is(err, services.ErrNoQuestions):
		h.RespondWithError(c, http.StatusNotFound, "No questions found for subject", nil)
	case errors.Is(err, services.ErrSubjectNameTaken):
		h.RespondWithError(c, http.StatusConflict, "Subject name already exists", nil)
	case errors.Is(err, services.ErrQuestionOrderMismatch):
		h.RespondWithError(c, http.StatusConflict, "Question order changed, reload the quiz", nil)
	case errors.Is(err, services.ErrUnsupportedFileFormat):
		h.RespondWithError(c, http.StatusBadRequest, "Unsupported file format", nil, err.Error())
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", nil, err.Error())
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, "Resource not found", nil)
	case services.IsConflict(err):
		h.RespondWithError(c, http.StatusConflict, "Resource conflict", nil)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
