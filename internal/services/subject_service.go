package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

type SubjectService interface {
	List(ctx context.Context) ([]models.Subject, error)
	Get(ctx context.Context, id uint) (*models.Subject, error)
	Create(ctx context.Context, req *models.CreateSubjectRequest) (*models.Subject, error)
}

type subjectService struct {
	deps Dependencies
	log  *ServiceLogger
}

func NewSubjectService(deps Dependencies) SubjectService {
	return &subjectService{
		deps: deps,
		log:  NewServiceLogger(deps.Logger, "subject"),
	}
}

// List returns every subject with questionCount and bestScore recomputed.
func (s *subjectService) List(ctx context.Context) ([]models.Subject, error) {
	var cached []models.Subject
	if err := s.deps.Cache.Get(ctx, cache.KeySubjectList, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.deps.Logger.WarnContext(ctx, "Subject cache read failed", "error", err)
	}

	subjects, err := s.deps.Repo.Subject().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}

	result, err := s.withStats(ctx, subjects)
	if err != nil {
		return nil, err
	}

	if err := s.deps.Cache.Set(ctx, cache.KeySubjectList, result, s.deps.CacheTTL); err != nil {
		s.deps.Logger.WarnContext(ctx, "Subject cache write failed", "error", err)
	}
	return result, nil
}

func (s *subjectService) Get(ctx context.Context, id uint) (*models.Subject, error) {
	var cached models.Subject
	if err := s.deps.Cache.Get(ctx, cache.KeySubject(id), &cached); err == nil {
		return &cached, nil
	}

	subject, err := s.deps.Repo.Subject().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}

	result, err := s.withStats(ctx, []*models.Subject{subject})
	if err != nil {
		return nil, err
	}

	if err := s.deps.Cache.Set(ctx, cache.KeySubject(id), result[0], s.deps.CacheTTL); err != nil {
		s.deps.Logger.WarnContext(ctx, "Subject cache write failed", "error", err)
	}
	return &result[0], nil
}

func (s *subjectService) Create(ctx context.Context, req *models.CreateSubjectRequest) (subject *models.Subject, err error) {
	done := s.log.Track(ctx, "create_subject", "subject")
	defer func() {
		var id uint
		if subject != nil {
			id = subject.ID
		}
		done(id, err)
	}()

	req.Name = strings.TrimSpace(req.Name)
	if err := s.deps.Validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.deps.Repo.Subject().GetByName(ctx, req.Name); err == nil {
		return nil, ErrSubjectNameTaken
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check subject name: %w", err)
	}

	subject = &models.Subject{
		Name:        req.Name,
		Description: req.Description,
		Emoji:       req.Emoji,
		Color:       req.Color,
	}
	if err := s.deps.Repo.Subject().Create(ctx, subject); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrSubjectNameTaken
		}
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}

	invalidateSubject(ctx, s.deps.Cache, s.deps.Logger, subject.ID)
	publishEvent(ctx, s.deps.Publisher, s.deps.Logger, events.NewEvent(events.EventSubjectCreated, events.SubjectCreatedEvent{
		SubjectID: subject.ID,
		Name:      subject.Name,
	}))

	return subject, nil
}

func (s *subjectService) withStats(ctx context.Context, subjects []*models.Subject) ([]models.Subject, error) {
	ids := make([]uint, 0, len(subjects))
	for _, subject := range subjects {
		ids = append(ids, subject.ID)
	}

	stats, err := s.deps.Repo.Subject().Stats(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to compute subject stats: %w", err)
	}

	result := make([]models.Subject, 0, len(subjects))
	for _, subject := range subjects {
		result = append(result, subject.WithStats(stats[subject.ID]))
	}
	return result, nil
}
