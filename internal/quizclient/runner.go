// Package quizclient is the offline-first quiz client: it plays sessions over
// questions resolved by the offline coordinator, grades them remotely, and keeps
// a local attempt history.
package quizclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/localcache"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/offline"
	"github.com/SAP-F-2025/quiz-service/internal/remote"
	"github.com/SAP-F-2025/quiz-service/internal/session"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

const defaultMaxInvalidAnswers = 3

// Grader is the remote scoring endpoint.
type Grader interface {
	Check(ctx context.Context, subjectID uint, req *models.CheckRequest) (*models.CheckResponse, error)
}

// AttemptStore keeps finished runs. *localcache.Cache satisfies it.
type AttemptStore interface {
	Add(ctx context.Context, collection localcache.Collection, record any) (int64, error)
	GetByIndex(ctx context.Context, collection localcache.Collection, index string, value any, dest any) error
}

// LocalAttempt is a finished run as kept on this device.
type LocalAttempt struct {
	ID             int64     `json:"id,omitempty"`
	SubjectID      uint      `json:"subjectId"`
	RemoteID       uint      `json:"remoteId,omitempty"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	CorrectAnswers int       `json:"correctAnswers"`
	TimeSpent      int       `json:"timeSpent"`
	Answers        []*int    `json:"answers"`
	Degraded       bool      `json:"degraded"`
	CompletedAt    time.Time `json:"completedAt"`
}

// Result is the outcome of a submitted session. A degraded result was completed
// without the grader: it carries no score and no per-question results.
type Result struct {
	SubjectID      uint
	Score          int
	CorrectCount   int
	TotalQuestions int
	TimeSpent      int
	Results        []models.QuestionResult
	AttemptID      uint
	LocalID        int64
	Degraded       bool
}

type Config struct {
	UserID            *uint
	MaxInvalidAnswers int
	Clock             session.Clock
}

type Runner struct {
	coordinator *offline.Coordinator
	grader      Grader
	store       AttemptStore
	cfg         Config
	logger      utils.Logger
}

// NewRunner wires a client. store may be nil, in which case nothing is kept
// locally.
func NewRunner(coordinator *offline.Coordinator, grader Grader, store AttemptStore, cfg Config, logger utils.Logger) *Runner {
	if cfg.MaxInvalidAnswers <= 0 {
		cfg.MaxInvalidAnswers = defaultMaxInvalidAnswers
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Runner{
		coordinator: coordinator,
		grader:      grader,
		store:       store,
		cfg:         cfg,
		logger:      logger,
	}
}

// Start resolves the subject's questions and opens a session over them.
func (r *Runner) Start(ctx context.Context, subjectID uint) (*session.Engine, offline.Source) {
	res := r.coordinator.Questions(ctx, subjectID)
	return session.New(res.Data, session.WithClock(r.cfg.Clock)), res.Source
}

// Submit completes the session and grades it remotely. When the grader cannot
// be reached the run is completed locally as a degraded result. Either way the
// run is added to the local history.
func (r *Runner) Submit(ctx context.Context, subjectID uint, engine *session.Engine) (*Result, error) {
	engine.CompleteQuiz()

	questions := engine.Questions()
	ids := make([]uint, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	timeSpent := engine.TimeSpent()
	answers := engine.Answers()

	result := &Result{
		SubjectID:      subjectID,
		TotalQuestions: len(questions),
		TimeSpent:      timeSpent,
	}

	resp, err := r.grader.Check(ctx, subjectID, &models.CheckRequest{
		Answers:     answers,
		TimeSpent:   &timeSpent,
		UserID:      r.cfg.UserID,
		QuestionIDs: ids,
	})
	switch {
	case err == nil:
		result.Score = resp.Score
		result.CorrectCount = resp.CorrectCount
		result.TotalQuestions = resp.TotalQuestions
		result.Results = resp.Results
		result.AttemptID = resp.AttemptID
	case unreachable(err):
		r.logger.Warn("Grading unavailable, completing locally", "subject_id", subjectID, "error", err)
		result.Degraded = true
	default:
		return nil, fmt.Errorf("failed to submit answers: %w", err)
	}

	end, _ := engine.EndTime()
	result.LocalID = r.record(ctx, result, answers, end)
	return result, nil
}

func (r *Runner) record(ctx context.Context, result *Result, answers []*int, end time.Time) int64 {
	if r.store == nil {
		return 0
	}

	id, err := r.store.Add(ctx, localcache.Attempts, LocalAttempt{
		SubjectID:      result.SubjectID,
		RemoteID:       result.AttemptID,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		CorrectAnswers: result.CorrectCount,
		TimeSpent:      result.TimeSpent,
		Answers:        answers,
		Degraded:       result.Degraded,
		CompletedAt:    end.UTC(),
	})
	if err != nil {
		r.logger.Warn("Failed to save attempt locally", "subject_id", result.SubjectID, "error", err)
		return 0
	}
	return id
}

// Close waits for background cache writes so the store can be closed safely.
func (r *Runner) Close(ctx context.Context) error {
	return r.coordinator.Wait(ctx)
}

// History lists the runs kept for a subject, newest first. Without a local
// store it is always empty.
func (r *Runner) History(ctx context.Context, subjectID uint) ([]LocalAttempt, error) {
	if r.store == nil {
		return nil, nil
	}

	var attempts []LocalAttempt
	if err := r.store.GetByIndex(ctx, localcache.Attempts, localcache.IndexSubjectID, subjectID, &attempts); err != nil {
		return nil, fmt.Errorf("failed to read local history: %w", err)
	}
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].ID > attempts[j].ID })
	return attempts, nil
}

// unreachable reports whether err means the grader could not answer at all, as
// opposed to rejecting the submission.
func unreachable(err error) bool {
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	return errors.Is(err, remote.ErrNetwork)
}
