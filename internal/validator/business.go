package validator

import (
	"fmt"

	apperrors "github.com/SAP-F-2025/quiz-service/internal/errors"
	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// BusinessValidator checks cross-field rules struct tags cannot express
type BusinessValidator struct{}

func NewBusinessValidator() *BusinessValidator {
	return &BusinessValidator{}
}

func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	switch req := s.(type) {
	case *models.CreateQuestionRequest:
		return bv.validateCreateQuestion(req)
	case *models.CreateAttemptRequest:
		return bv.validateCreateAttempt(req)
	}
	return nil
}

func (bv *BusinessValidator) validateCreateQuestion(req *models.CreateQuestionRequest) ValidationErrors {
	var errs ValidationErrors
	if req.CorrectAnswer != nil && *req.CorrectAnswer >= len(req.Options) {
		errs = append(errs, *apperrors.NewValidationErrorWithRule(
			"correctAnswer",
			fmt.Sprintf("must be an index into options (0-%d)", len(req.Options)-1),
			"option_index",
			*req.CorrectAnswer,
		))
	}
	return errs
}

func (bv *BusinessValidator) validateCreateAttempt(req *models.CreateAttemptRequest) ValidationErrors {
	var errs ValidationErrors
	if req.CorrectAnswers > req.TotalQuestions {
		errs = append(errs, *apperrors.NewValidationErrorWithRule(
			"correctAnswers",
			"must not exceed totalQuestions",
			"correct_le_total",
			req.CorrectAnswers,
		))
	}
	if req.TotalQuestions > 0 && req.Score != models.Score(req.CorrectAnswers, req.TotalQuestions) {
		errs = append(errs, *apperrors.NewValidationErrorWithRule(
			"score",
			fmt.Sprintf("must equal round(100 * correctAnswers / totalQuestions) = %d", models.Score(req.CorrectAnswers, req.TotalQuestions)),
			"score_ratio",
			req.Score,
		))
	}
	if req.TotalQuestions == 0 && req.Score != 0 {
		errs = append(errs, *apperrors.NewValidationErrorWithRule("score", "must be 0 when totalQuestions is 0", "score_ratio", req.Score))
	}
	if len(req.Answers) > req.TotalQuestions {
		errs = append(errs, *apperrors.NewValidationErrorWithRule(
			"answers",
			"must not have more entries than totalQuestions",
			"answers_len",
			len(req.Answers),
		))
	}
	return errs
}
