package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

// AttemptService records attempts directly, bypassing grading
type AttemptService interface {
	Create(ctx context.Context, req *models.CreateAttemptRequest) (*models.Attempt, error)
	ListBySubject(ctx context.Context, subjectID uint) ([]models.Attempt, error)
}

type attemptService struct {
	deps Dependencies
	log  *ServiceLogger
}

func NewAttemptService(deps Dependencies) AttemptService {
	return &attemptService{
		deps: deps,
		log:  NewServiceLogger(deps.Logger, "attempt"),
	}
}

func (s *attemptService) Create(ctx context.Context, req *models.CreateAttemptRequest) (attempt *models.Attempt, err error) {
	done := s.log.Track(ctx, "create_attempt", "attempt")
	defer func() {
		var id uint
		if attempt != nil {
			id = attempt.ID
		}
		done(id, err)
	}()

	if err := s.deps.Validator.Validate(req); err != nil {
		return nil, err
	}
	if err := ensureSubject(ctx, s.deps.Repo, req.SubjectID); err != nil {
		return nil, err
	}

	attempt = &models.Attempt{
		SubjectID:      req.SubjectID,
		UserID:         req.UserID,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		CorrectAnswers: req.CorrectAnswers,
		TimeSpent:      req.TimeSpent,
		Answers:        req.Answers,
	}
	if err := s.deps.Repo.Attempt().Create(ctx, attempt); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	invalidateSubject(ctx, s.deps.Cache, s.deps.Logger, req.SubjectID)
	publishEvent(ctx, s.deps.Publisher, s.deps.Logger, events.NewEvent(events.EventAttemptRecorded, events.AttemptRecordedEvent{
		AttemptID:      attempt.ID,
		SubjectID:      attempt.SubjectID,
		UserID:         attempt.UserID,
		Score:          attempt.Score,
		CorrectAnswers: attempt.CorrectAnswers,
		TotalQuestions: attempt.TotalQuestions,
		TimeSpent:      attempt.TimeSpent,
		Via:            "direct",
	}))

	return attempt, nil
}

func (s *attemptService) ListBySubject(ctx context.Context, subjectID uint) ([]models.Attempt, error) {
	if err := ensureSubject(ctx, s.deps.Repo, subjectID); err != nil {
		return nil, err
	}

	attempts, err := s.deps.Repo.Attempt().ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	out := make([]models.Attempt, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, *a)
	}
	return out, nil
}
