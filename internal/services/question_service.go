package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

type QuestionService interface {
	// ListPublic returns the subject's questions without correct answers, in grading order.
	ListPublic(ctx context.Context, subjectID uint) ([]models.PublicQuestion, error)
	// ListAdmin returns the full question records.
	ListAdmin(ctx context.Context, subjectID uint) ([]models.Question, error)
	Create(ctx context.Context, subjectID uint, req *models.CreateQuestionRequest) (*models.Question, error)
}

type questionService struct {
	deps Dependencies
	log  *ServiceLogger
}

func NewQuestionService(deps Dependencies) QuestionService {
	return &questionService{
		deps: deps,
		log:  NewServiceLogger(deps.Logger, "question"),
	}
}

func (s *questionService) ListPublic(ctx context.Context, subjectID uint) ([]models.PublicQuestion, error) {
	var cached []models.PublicQuestion
	if err := s.deps.Cache.Get(ctx, cache.KeyPublicQuestions(subjectID), &cached); err == nil {
		return cached, nil
	}

	questions, err := s.ListAdmin(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	public := models.PublicQuestions(questions)
	if err := s.deps.Cache.Set(ctx, cache.KeyPublicQuestions(subjectID), public, s.deps.CacheTTL); err != nil {
		s.deps.Logger.WarnContext(ctx, "Question cache write failed", "subject_id", subjectID, "error", err)
	}
	return public, nil
}

func (s *questionService) ListAdmin(ctx context.Context, subjectID uint) ([]models.Question, error) {
	if err := ensureSubject(ctx, s.deps.Repo, subjectID); err != nil {
		return nil, err
	}

	questions, err := s.deps.Repo.Question().ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	out := make([]models.Question, 0, len(questions))
	for _, q := range questions {
		out = append(out, *q)
	}
	return out, nil
}

func (s *questionService) Create(ctx context.Context, subjectID uint, req *models.CreateQuestionRequest) (question *models.Question, err error) {
	done := s.log.Track(ctx, "create_question", "question")
	defer func() {
		var id uint
		if question != nil {
			id = question.ID
		}
		done(id, err)
	}()

	if err := s.deps.Validator.Validate(req); err != nil {
		return nil, err
	}
	if err := ensureSubject(ctx, s.deps.Repo, subjectID); err != nil {
		return nil, err
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}

	question = &models.Question{
		SubjectID:     subjectID,
		Question:      req.Question,
		Options:       req.Options,
		CorrectAnswer: *req.CorrectAnswer,
		Explanation:   req.Explanation,
		Difficulty:    difficulty,
	}
	if err := s.deps.Repo.Question().Create(ctx, question); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	invalidateSubject(ctx, s.deps.Cache, s.deps.Logger, subjectID)
	publishEvent(ctx, s.deps.Publisher, s.deps.Logger, events.NewEvent(events.EventQuestionCreated, events.QuestionCreatedEvent{
		QuestionID: question.ID,
		SubjectID:  subjectID,
		Source:     "api",
	}))

	return question, nil
}

func ensureSubject(ctx context.Context, repo repositories.Repository, subjectID uint) error {
	if _, err := repo.Subject().GetByID(ctx, subjectID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrSubjectNotFound
		}
		return fmt.Errorf("failed to get subject: %w", err)
	}
	return nil
}
