package validator

import (
	"fmt"
	"strings"

	apperrors "github.com/SAP-F-2025/quiz-service/internal/errors"
	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// QuestionValidator validates stored question records, e.g. rows coming from a spreadsheet import
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

func (v *QuestionValidator) ValidateQuestion(q *models.Question) error {
	var errs ValidationErrors

	if strings.TrimSpace(q.Question) == "" {
		errs = append(errs, *apperrors.NewValidationErrorWithRule("question", "is required", "required", q.Question))
	}

	if len(q.Options) < models.MinOptions || len(q.Options) > models.MaxOptions {
		errs = append(errs, *apperrors.NewValidationErrorWithRule(
			"options",
			fmt.Sprintf("must have between %d and %d entries", models.MinOptions, models.MaxOptions),
			"options_len",
			len(q.Options),
		))
	}
	for i, option := range q.Options {
		if strings.TrimSpace(option) == "" {
			errs = append(errs, *apperrors.NewValidationErrorWithRule(fmt.Sprintf("options[%d]", i), "is required", "required", option))
		}
	}

	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		errs = append(errs, *apperrors.NewValidationErrorWithRule("correctAnswer", "must be an index into options", "option_index", q.CorrectAnswer))
	}

	if !q.Difficulty.IsValid() {
		errs = append(errs, *apperrors.NewValidationErrorWithRule("difficulty", "must be easy, medium, or hard", "difficulty_level", q.Difficulty))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
