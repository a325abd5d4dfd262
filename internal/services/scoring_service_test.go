package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestScoringService_Check(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	subject := env.subject(t, "JavaScript")
	var ids []uint
	for _, correct := range []int{0, 2, 1, 3} {
		ids = append(ids, env.question(t, subject.ID, correct).ID)
	}

	resp, err := env.manager.Scoring().Check(ctx, subject.ID, &models.CheckRequest{
		Answers:   answers(0, 1, 1, 3),
		TimeSpent: intPtr(42),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.CorrectCount)
	assert.Equal(t, 4, resp.TotalQuestions)
	assert.Equal(t, 75, resp.Score)
	assert.Equal(t, ids, resp.QuestionIDs)
	require.Len(t, resp.Results, 4)
	for i, want := range []bool{true, false, true, true} {
		assert.Equal(t, want, resp.Results[i].Correct, "result %d", i)
		assert.Equal(t, ids[i], resp.Results[i].QuestionID)
		require.NotNil(t, resp.Results[i].Explanation)
	}
	assert.Equal(t, 2, resp.Results[1].CorrectAnswer)

	attempts, err := env.repo.Attempt().ListBySubject(ctx, subject.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, resp.AttemptID, attempts[0].ID)
	assert.Equal(t, 75, attempts[0].Score)
	assert.Equal(t, 3, attempts[0].CorrectAnswers)
	assert.Equal(t, 4, attempts[0].TotalQuestions)
	assert.Equal(t, 42, attempts[0].TimeSpent)
	assert.Len(t, attempts[0].Answers, 4)
	assert.False(t, attempts[0].CompletedAt.IsZero())

	published := env.publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAttemptRecorded, published[0].Type)
	data, ok := published[0].Data.(events.AttemptRecordedEvent)
	require.True(t, ok)
	assert.Equal(t, "check", data.Via)
	assert.Equal(t, resp.AttemptID, data.AttemptID)
}

func TestScoringService_CheckGrading(t *testing.T) {
	tests := []struct {
		name        string
		correct     []int
		answers     []*int
		wantCorrect int
		wantScore   int
		wantResults []bool
	}{
		{
			name:        "all correct",
			correct:     []int{0, 1, 2},
			answers:     answers(0, 1, 2),
			wantCorrect: 3,
			wantScore:   100,
			wantResults: []bool{true, true, true},
		},
		{
			name:        "rounds two of three",
			correct:     []int{0, 1, 2},
			answers:     answers(0, 1, 0),
			wantCorrect: 2,
			wantScore:   67,
			wantResults: []bool{true, true, false},
		},
		{
			name:        "short answers count as wrong",
			correct:     []int{0, 1, 2},
			answers:     answers(0),
			wantCorrect: 1,
			wantScore:   33,
			wantResults: []bool{true, false, false},
		},
		{
			name:        "null entries count as wrong",
			correct:     []int{0, 1},
			answers:     []*int{nil, intPtr(1)},
			wantCorrect: 1,
			wantScore:   50,
			wantResults: []bool{false, true},
		},
		{
			name:        "empty answers",
			correct:     []int{0, 1},
			answers:     []*int{},
			wantCorrect: 0,
			wantScore:   0,
			wantResults: []bool{false, false},
		},
		{
			name:        "extra answers ignored",
			correct:     []int{1},
			answers:     answers(1, 0, 3),
			wantCorrect: 1,
			wantScore:   100,
			wantResults: []bool{true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			subject := env.subject(t, "React")
			for _, c := range tt.correct {
				env.question(t, subject.ID, c)
			}

			resp, err := env.manager.Scoring().Check(context.Background(), subject.ID, &models.CheckRequest{Answers: tt.answers})
			require.NoError(t, err)

			assert.Equal(t, tt.wantCorrect, resp.CorrectCount)
			assert.Equal(t, tt.wantScore, resp.Score)
			got := make([]bool, len(resp.Results))
			for i, r := range resp.Results {
				got[i] = r.Correct
			}
			assert.Equal(t, tt.wantResults, got)
		})
	}
}

func TestScoringService_CheckNoQuestions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	subject := env.subject(t, "Databases")

	resp, err := env.manager.Scoring().Check(ctx, subject.ID, &models.CheckRequest{Answers: answers(0)})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrNoQuestions)
	assert.True(t, IsNotFound(err))

	attempts, err := env.repo.Attempt().ListBySubject(ctx, subject.ID)
	require.NoError(t, err)
	assert.Empty(t, attempts)
	assert.Empty(t, env.publisher.GetPublishedEvents())
}

func TestScoringService_CheckUnknownSubject(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.manager.Scoring().Check(context.Background(), 99, &models.CheckRequest{Answers: answers(0)})
	assert.True(t, IsNotFound(err))
}

func TestScoringService_CheckRequiresAnswersArray(t *testing.T) {
	env := newTestEnv(t)
	subject := env.subject(t, "Node.js")
	env.question(t, subject.ID, 0)

	_, err := env.manager.Scoring().Check(context.Background(), subject.ID, &models.CheckRequest{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var ve ValidationErrors
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "answers", ve[0].Field)
	assert.Equal(t, "Answers must be an array", ve[0].Message)
}

func TestScoringService_CheckRejectsNegativeTimeSpent(t *testing.T) {
	env := newTestEnv(t)
	subject := env.subject(t, "Node.js")
	env.question(t, subject.ID, 0)

	_, err := env.manager.Scoring().Check(context.Background(), subject.ID, &models.CheckRequest{
		Answers:   answers(0),
		TimeSpent: intPtr(-1),
	})
	assert.True(t, IsValidation(err))
}

func TestScoringService_CheckRecordsEverySubmission(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	subject := env.subject(t, "Algorithms")
	env.question(t, subject.ID, 1)

	req := &models.CheckRequest{Answers: answers(1)}
	first, err := env.manager.Scoring().Check(ctx, subject.ID, req)
	require.NoError(t, err)
	second, err := env.manager.Scoring().Check(ctx, subject.ID, req)
	require.NoError(t, err)

	assert.NotEqual(t, first.AttemptID, second.AttemptID)

	attempts, err := env.repo.Attempt().ListBySubject(ctx, subject.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 2)
	for _, a := range attempts {
		assert.Equal(t, 0, a.TimeSpent)
	}
}

func TestScoringService_CheckQuestionOrderMismatch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	subject := env.subject(t, "System Design")
	q1 := env.question(t, subject.ID, 0)
	q2 := env.question(t, subject.ID, 1)

	_, err := env.manager.Scoring().Check(ctx, subject.ID, &models.CheckRequest{
		Answers:     answers(1, 0),
		QuestionIDs: []uint{q2.ID, q1.ID},
	})
	assert.ErrorIs(t, err, ErrQuestionOrderMismatch)
	assert.True(t, IsConflict(err))

	attempts, err := env.repo.Attempt().ListBySubject(ctx, subject.ID)
	require.NoError(t, err)
	assert.Empty(t, attempts)

	resp, err := env.manager.Scoring().Check(ctx, subject.ID, &models.CheckRequest{
		Answers:     answers(0, 1),
		QuestionIDs: []uint{q1.ID, q2.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.Score)
}

func TestScoringService_CheckAttemptWriteFailure(t *testing.T) {
	env := newTestEnv(t)
	subject := env.subject(t, "JavaScript")
	env.question(t, subject.ID, 0)

	attempts := &mockAttemptRepository{}
	attempts.On("Create", mock.Anything, mock.MatchedBy(func(a *models.Attempt) bool {
		return a.SubjectID == subject.ID && a.Score == 100
	})).Return(errors.New("disk full"))

	logger := utils.NewNopLogger()
	scoring := NewServiceManager(Dependencies{
		Repo:   repoWithAttempts{Repository: env.repo, attempts: attempts},
		Logger: logger,
	}).Scoring()

	resp, err := scoring.Check(context.Background(), subject.ID, &models.CheckRequest{Answers: answers(0)})
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	attempts.AssertExpectations(t)
}

func TestScoringService_CheckInvalidatesSubjectStats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	subject := env.subject(t, "JavaScript")
	env.question(t, subject.ID, 0)
	env.question(t, subject.ID, 1)

	before, err := env.manager.Subject().Get(ctx, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, before.BestScore)

	_, err = env.manager.Scoring().Check(ctx, subject.ID, &models.CheckRequest{Answers: answers(0, 0)})
	require.NoError(t, err)

	after, err := env.manager.Subject().Get(ctx, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, after.BestScore)
}

func TestGradeAnswers(t *testing.T) {
	questions := []*models.Question{
		{ID: 1, CorrectAnswer: 0},
		{ID: 2, CorrectAnswer: 2},
	}

	results, correct := GradeAnswers(questions, answers(0, 1))
	assert.Equal(t, 1, correct)
	assert.True(t, results[0].Correct)
	assert.False(t, results[1].Correct)
	assert.Equal(t, 2, results[1].CorrectAnswer)

	results, correct = GradeAnswers(questions, nil)
	assert.Equal(t, 0, correct)
	assert.Len(t, results, 2)
}
