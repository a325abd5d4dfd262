package validator

import (
	apperrors "github.com/SAP-F-2025/quiz-service/internal/errors"
)

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors
