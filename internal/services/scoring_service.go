package services

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
)

// ScoringService grades a submitted answer sequence and records the attempt
type ScoringService interface {
	Check(ctx context.Context, subjectID uint, req *models.CheckRequest) (*models.CheckResponse, error)
}

type scoringService struct {
	deps Dependencies
	log  *ServiceLogger
}

func NewScoringService(deps Dependencies) ScoringService {
	return &scoringService{
		deps: deps,
		log:  NewServiceLogger(deps.Logger, "scoring"),
	}
}

// Check grades answers positionally against the subject's questions in id order.
// answers[i] is compared with the i-th question; missing or null entries are wrong.
// Every successful call stores a new attempt, so identical submissions produce
// distinct attempts.
func (s *scoringService) Check(ctx context.Context, subjectID uint, req *models.CheckRequest) (resp *models.CheckResponse, err error) {
	done := s.log.Track(ctx, "check_answers", "subject")
	defer func() { done(subjectID, err) }()

	if req == nil || req.Answers == nil {
		return nil, NewValidationError("answers", "Answers must be an array", nil)
	}
	if err := s.deps.Validator.Validate(req); err != nil {
		return nil, err
	}

	questions, err := s.deps.Repo.Question().ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	questionIDs := make([]uint, len(questions))
	for i, q := range questions {
		questionIDs[i] = q.ID
	}
	if req.QuestionIDs != nil && !sameOrder(req.QuestionIDs, questionIDs) {
		return nil, ErrQuestionOrderMismatch
	}

	results, correctCount := GradeAnswers(questions, req.Answers)
	score := models.Score(correctCount, len(questions))

	timeSpent := 0
	if req.TimeSpent != nil {
		timeSpent = *req.TimeSpent
	}

	attempt := &models.Attempt{
		SubjectID:      subjectID,
		UserID:         req.UserID,
		Score:          score,
		TotalQuestions: len(questions),
		CorrectAnswers: correctCount,
		TimeSpent:      timeSpent,
		Answers:        req.Answers,
	}
	if err := s.deps.Repo.Attempt().Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	invalidateSubject(ctx, s.deps.Cache, s.deps.Logger, subjectID)
	publishEvent(ctx, s.deps.Publisher, s.deps.Logger, events.NewEvent(events.EventAttemptRecorded, events.AttemptRecordedEvent{
		AttemptID:      attempt.ID,
		SubjectID:      subjectID,
		UserID:         attempt.UserID,
		Score:          score,
		CorrectAnswers: correctCount,
		TotalQuestions: len(questions),
		TimeSpent:      timeSpent,
		Via:            "check",
	}))

	return &models.CheckResponse{
		Results:        results,
		Score:          score,
		CorrectCount:   correctCount,
		TotalQuestions: len(questions),
		QuestionIDs:    questionIDs,
		AttemptID:      attempt.ID,
	}, nil
}

// GradeAnswers compares answers[i] with questions[i].CorrectAnswer for every question.
func GradeAnswers(questions []*models.Question, answers []*int) ([]models.QuestionResult, int) {
	results := make([]models.QuestionResult, len(questions))
	correctCount := 0

	for i, q := range questions {
		correct := i < len(answers) && answers[i] != nil && *answers[i] == q.CorrectAnswer
		if correct {
			correctCount++
		}
		results[i] = models.QuestionResult{
			QuestionID:    q.ID,
			Correct:       correct,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
	}

	return results, correctCount
}

func sameOrder(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
