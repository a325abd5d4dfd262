package services

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
)

type ServiceManager interface {
	Subject() SubjectService
	Question() QuestionService
	Scoring() ScoringService
	Attempt() AttemptService
	ImportExport() ImportExportService
	// ResetCache drops every cached subject and question view, for use after
	// the store was changed behind the services' back.
	ResetCache(ctx context.Context) error
}

// Dependencies are shared by every service
type Dependencies struct {
	Repo      repositories.Repository
	Cache     cache.CacheService
	Publisher events.EventPublisher
	Logger    utils.Logger
	Validator *validator.Validator
	CacheTTL  time.Duration
}

type serviceManager struct {
	subject      SubjectService
	question     QuestionService
	scoring      ScoringService
	attempt      AttemptService
	importExport ImportExportService

	cache  cache.CacheService
	logger utils.Logger
}

func NewServiceManager(deps Dependencies) ServiceManager {
	if deps.Cache == nil {
		deps.Cache = cache.NewNoopCache()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NewMockEventPublisher(deps.Logger)
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = 5 * time.Minute
	}

	return &serviceManager{
		subject:      NewSubjectService(deps),
		question:     NewQuestionService(deps),
		scoring:      NewScoringService(deps),
		attempt:      NewAttemptService(deps),
		importExport: NewImportExportService(deps),
		cache:        deps.Cache,
		logger:       deps.Logger,
	}
}

func (m *serviceManager) Subject() SubjectService           { return m.subject }
func (m *serviceManager) Question() QuestionService         { return m.question }
func (m *serviceManager) Scoring() ScoringService           { return m.scoring }
func (m *serviceManager) Attempt() AttemptService           { return m.attempt }
func (m *serviceManager) ImportExport() ImportExportService { return m.importExport }

func (m *serviceManager) ResetCache(ctx context.Context) error {
	var errs []error
	for _, pattern := range []string{cache.PatternSubjects, cache.PatternPublicQuestions} {
		if err := m.cache.DeletePattern(ctx, pattern); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "Cache reset")
	return nil
}

// ===== SHARED HELPERS =====

// invalidateSubject drops every cached view that embeds the subject's derived stats
// or question list. Cache failures are logged and never fail the write.
func invalidateSubject(ctx context.Context, c cache.CacheService, logger utils.Logger, subjectID uint) {
	for _, key := range []string{cache.KeySubjectList, cache.KeySubject(subjectID), cache.KeyPublicQuestions(subjectID)} {
		if err := c.Delete(ctx, key); err != nil {
			logger.WarnContext(ctx, "Failed to invalidate cache", "key", key, "error", err)
		}
	}
}

// publishEvent is best-effort; the write it describes has already committed.
func publishEvent(ctx context.Context, publisher events.EventPublisher, logger utils.Logger, event *events.Event) {
	if err := publisher.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "event_type", event.Type, "error", err)
	}
}
