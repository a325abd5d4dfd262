package services

import (
	"context"
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/cache"
	"github.com/SAP-F-2025/quiz-service/internal/events"
	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectService_ListDerivesStats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	js := env.subject(t, "JavaScript")
	react := env.subject(t, "React")
	for i := 0; i < 5; i++ {
		env.question(t, js.ID, 0)
	}

	for _, score := range []int{40, 80, 60} {
		require.NoError(t, env.repo.Attempt().Create(ctx, &models.Attempt{SubjectID: js.ID, Score: score, TotalQuestions: 5}))
	}

	subjects, err := env.manager.Subject().List(ctx)
	require.NoError(t, err)
	require.Len(t, subjects, 2)

	byID := map[uint]models.Subject{}
	for _, s := range subjects {
		byID[s.ID] = s
	}
	assert.Equal(t, 5, byID[js.ID].QuestionCount)
	assert.Equal(t, 80, byID[js.ID].BestScore)
	assert.Equal(t, 0, byID[react.ID].QuestionCount)
	assert.Equal(t, 0, byID[react.ID].BestScore)

	assert.True(t, env.cache.has(cache.KeySubjectList))
}

func TestSubjectService_Get(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	subject := env.subject(t, "Node.js")

	got, err := env.manager.Subject().Get(ctx, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, "Node.js", got.Name)
	assert.Equal(t, "#6366f1", got.Color)

	_, err = env.manager.Subject().Get(ctx, subject.ID+100)
	assert.ErrorIs(t, err, ErrSubjectNotFound)
	assert.True(t, IsNotFound(err))
}

func TestSubjectService_ListSurvivesCacheOutage(t *testing.T) {
	env := newTestEnv(t)
	env.subject(t, "Algorithms")
	env.cache.fail = true

	subjects, err := env.manager.Subject().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, subjects, 1)
}

func TestSubjectService_Create(t *testing.T) {
	tests := []struct {
		name      string
		request   *models.CreateSubjectRequest
		existing  string
		checkErr  func(error) bool
		wantEvent bool
	}{
		{
			name: "successful creation",
			request: &models.CreateSubjectRequest{
				Name: "  Go  ", Description: "Concurrency and interfaces", Emoji: "🐹", Color: "#00add8",
			},
			wantEvent: true,
		},
		{
			name: "duplicate name",
			request: &models.CreateSubjectRequest{
				Name: "JavaScript", Description: "again", Emoji: "⚡", Color: "#6366f1",
			},
			existing: "JavaScript",
			checkErr: IsConflict,
		},
		{
			name: "invalid color",
			request: &models.CreateSubjectRequest{
				Name: "Rust", Description: "Ownership", Emoji: "🦀", Color: "orange",
			},
			checkErr: IsValidation,
		},
		{
			name:     "missing fields",
			request:  &models.CreateSubjectRequest{},
			checkErr: IsValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if tt.existing != "" {
				env.subject(t, tt.existing)
			}

			subject, err := env.manager.Subject().Create(context.Background(), tt.request)
			if tt.checkErr != nil {
				require.Error(t, err)
				assert.True(t, tt.checkErr(err), "unexpected error class: %v", err)
				assert.Nil(t, subject)
				assert.Empty(t, env.publisher.GetPublishedEvents())
				return
			}

			require.NoError(t, err)
			assert.NotZero(t, subject.ID)
			assert.Equal(t, "Go", subject.Name)

			published := env.publisher.GetPublishedEvents()
			require.Len(t, published, 1)
			assert.Equal(t, events.EventSubjectCreated, published[0].Type)
		})
	}
}

func TestSubjectService_CreateInvalidatesList(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.subject(t, "JavaScript")

	_, err := env.manager.Subject().List(ctx)
	require.NoError(t, err)
	require.True(t, env.cache.has(cache.KeySubjectList))

	_, err = env.manager.Subject().Create(ctx, &models.CreateSubjectRequest{
		Name: "Databases", Description: "SQL and indexes", Emoji: "🗄️", Color: "#6366f1",
	})
	require.NoError(t, err)
	assert.False(t, env.cache.has(cache.KeySubjectList))

	subjects, err := env.manager.Subject().List(ctx)
	require.NoError(t, err)
	assert.Len(t, subjects, 2)
}
