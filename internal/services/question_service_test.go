package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionService_ListPublicHidesAnswers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	subject := env.subject(t, "JavaScript")
	first := env.question(t, subject.ID, 2)
	second := env.question(t, subject.ID, 1)

	questions, err := env.manager.Question().ListPublic(ctx, subject.ID)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, first.ID, questions[0].ID)
	assert.Equal(t, second.ID, questions[1].ID)
	assert.Equal(t, []string{"a", "b", "c", "d"}, questions[0].Options)

	raw, err := json.Marshal(questions[0])
	require.NoError(t, err)
	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "correctAnswer")
	assert.NotContains(t, fields, "explanation")
	assert.NotContains(t, fields, "subjectId")
}

func TestQuestionService_ListPublicUnknownSubject(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.manager.Question().ListPublic(context.Background(), 7)
	assert.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestQuestionService_ListPublicEmptySubject(t *testing.T) {
	env := newTestEnv(t)
	subject := env.subject(t, "Databases")

	questions, err := env.manager.Question().ListPublic(context.Background(), subject.ID)
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestQuestionService_Create(t *testing.T) {
	tests := []struct {
		name     string
		request  *models.CreateQuestionRequest
		checkErr func(error) bool
	}{
		{
			name: "defaults difficulty",
			request: &models.CreateQuestionRequest{
				Question: "What does typeof null return?", Options: []string{"object", "null"}, CorrectAnswer: intPtr(0),
			},
		},
		{
			name: "answer out of range",
			request: &models.CreateQuestionRequest{
				Question: "Pick", Options: []string{"a", "b"}, CorrectAnswer: intPtr(2),
			},
			checkErr: IsValidation,
		},
		{
			name: "too few options",
			request: &models.CreateQuestionRequest{
				Question: "Pick", Options: []string{"a"}, CorrectAnswer: intPtr(0),
			},
			checkErr: IsValidation,
		},
		{
			name: "unknown difficulty",
			request: &models.CreateQuestionRequest{
				Question: "Pick", Options: []string{"a", "b"}, CorrectAnswer: intPtr(0), Difficulty: "extreme",
			},
			checkErr: IsValidation,
		},
		{
			name: "missing correct answer",
			request: &models.CreateQuestionRequest{
				Question: "Pick", Options: []string{"a", "b"},
			},
			checkErr: IsValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			subject := env.subject(t, "JavaScript")

			question, err := env.manager.Question().Create(context.Background(), subject.ID, tt.request)
			if tt.checkErr != nil {
				require.Error(t, err)
				assert.True(t, tt.checkErr(err), "unexpected error class: %v", err)
				return
			}

			require.NoError(t, err)
			assert.NotZero(t, question.ID)
			assert.Equal(t, models.DifficultyMedium, question.Difficulty)
			assert.Equal(t, subject.ID, question.SubjectID)
		})
	}
}

func TestQuestionService_CreateUnknownSubject(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.manager.Question().Create(context.Background(), 3, &models.CreateQuestionRequest{
		Question: "Pick", Options: []string{"a", "b"}, CorrectAnswer: intPtr(1),
	})
	assert.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestQuestionService_CreateRefreshesPublicList(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	subject := env.subject(t, "React")
	env.question(t, subject.ID, 0)

	questions, err := env.manager.Question().ListPublic(ctx, subject.ID)
	require.NoError(t, err)
	require.Len(t, questions, 1)

	_, err = env.manager.Question().Create(ctx, subject.ID, &models.CreateQuestionRequest{
		Question: "What is JSX?", Options: []string{"Syntax extension", "Database"}, CorrectAnswer: intPtr(0),
	})
	require.NoError(t, err)

	questions, err = env.manager.Question().ListPublic(ctx, subject.ID)
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}
