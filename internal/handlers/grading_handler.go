package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type GradingHandler struct {
	BaseHandler
	scoringService services.ScoringService
}

// checkPayload keeps answers raw so a non-array value can be told apart from a
// malformed body.
type checkPayload struct {
	Answers     json.RawMessage `json:"answers"`
	TimeSpent   *int            `json:"timeSpent"`
	UserID      *uint           `json:"userId"`
	QuestionIDs []uint          `json:"questionIds"`
}

func NewGradingHandler(scoringService services.ScoringService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		scoringService: scoringService,
	}
}

// CheckAnswers grades an answer sequence and records the attempt
// @Summary Check answers
// @Description Grades answers positionally against the subject's questions and stores one attempt
// @Tags grading
// @Accept json
// @Produce json
// @Param id path uint true "Subject ID"
// @Param body body models.CheckRequest true "Answers"
// @Success 200 {object} models.CheckResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /subjects/{id}/check [post]
func (h *GradingHandler) CheckAnswers(c *gin.Context) {
	subjectID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	h.LogRequest(c, "Checking answers", "subject_id", subjectID)

	var payload checkPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", nil, err.Error())
		return
	}

	answers, ok := decodeAnswers(payload.Answers)
	if !ok {
		h.RespondWithError(c, http.StatusBadRequest, "Answers must be an array", nil)
		return
	}

	resp, err := h.scoringService.Check(c.Request.Context(), subjectID, &models.CheckRequest{
		Answers:     answers,
		TimeSpent:   payload.TimeSpent,
		UserID:      payload.UserID,
		QuestionIDs: payload.QuestionIDs,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// maxExactInt bounds the integers a float64 represents exactly.
const maxExactInt = 1 << 53

// decodeAnswers accepts any JSON array. Numbers compare by value, so 1.0 and 1e0
// both select option 1. Entries that are not whole numbers decode to nil, which
// grades as wrong.
func decodeAnswers(raw json.RawMessage) ([]*int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}

	answers := make([]*int, len(items))
	for i, item := range items {
		if v, ok := wholeNumber(item); ok {
			answers[i] = &v
		}
	}
	return answers, true
}

func wholeNumber(item json.RawMessage) (int, bool) {
	dec := json.NewDecoder(bytes.NewReader(item))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := n.Int64(); err == nil && i > -maxExactInt && i < maxExactInt {
		return int(i), true
	}

	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) || math.Abs(f) >= maxExactInt {
		return 0, false
	}
	return int(f), true
}
