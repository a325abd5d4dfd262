package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories/memory"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	repo   *memory.Repository
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := utils.NewNopLogger()
	repo := memory.NewRepository()
	manager := services.NewServiceManager(services.Dependencies{Repo: repo, Logger: logger})

	return &testServer{repo: repo, router: NewRouter(manager, logger)}
}

func (s *testServer) seedSubject(t *testing.T, correct ...int) *models.Subject {
	t.Helper()
	ctx := context.Background()
	subject := &models.Subject{Name: "JavaScript", Description: "Core language", Emoji: "⚡", Color: "#6366f1"}
	require.NoError(t, s.repo.Subject().Create(ctx, subject))
	for _, c := range correct {
		require.NoError(t, s.repo.Question().Create(ctx, &models.Question{
			SubjectID:     subject.ID,
			Question:      "Pick one",
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: c,
			Difficulty:    models.DifficultyMedium,
		}))
	}
	return subject
}

func (s *testServer) do(method, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"quiz-service"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(utils.RequestIDHeader))
}

func TestListSubjects(t *testing.T) {
	s := newTestServer(t)
	s.seedSubject(t, 0, 1)

	w := s.do(http.MethodGet, "/api/subjects", "")
	require.Equal(t, http.StatusOK, w.Code)

	var subjects []map[string]interface{}
	decode(t, w, &subjects)
	require.Len(t, subjects, 1)
	assert.Equal(t, "JavaScript", subjects[0]["name"])
	assert.EqualValues(t, 2, subjects[0]["questionCount"])
	assert.EqualValues(t, 0, subjects[0]["bestScore"])
}

func TestGetSubject(t *testing.T) {
	s := newTestServer(t)
	subject := s.seedSubject(t, 0)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"existing", "/api/subjects/1", http.StatusOK},
		{"unknown", "/api/subjects/42", http.StatusNotFound},
		{"malformed id", "/api/subjects/abc", http.StatusBadRequest},
		{"zero id", "/api/subjects/0", http.StatusBadRequest},
	}
	require.Equal(t, uint(1), subject.ID)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodGet, tt.path, "")
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestListQuestionsHidesAnswers(t *testing.T) {
	s := newTestServer(t)
	s.seedSubject(t, 2, 1)

	w := s.do(http.MethodGet, "/api/subjects/1/questions", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "correctAnswer")

	var questions []models.PublicQuestion
	decode(t, w, &questions)
	require.Len(t, questions, 2)
	assert.Less(t, questions[0].ID, questions[1].ID)

	w = s.do(http.MethodGet, "/api/subjects/1/questions/admin", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"correctAnswer":2`)
}

func TestCheckAnswers(t *testing.T) {
	s := newTestServer(t)
	s.seedSubject(t, 0, 2, 1, 3)

	w := s.do(http.MethodPost, "/api/subjects/1/check", `{"answers":[0,1,1,3],"timeSpent":30}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.CheckResponse
	decode(t, w, &resp)
	assert.Equal(t, 75, resp.Score)
	assert.Equal(t, 3, resp.CorrectCount)
	assert.Equal(t, 4, resp.TotalQuestions)
	require.Len(t, resp.Results, 4)
	assert.False(t, resp.Results[1].Correct)
	assert.Equal(t, 2, resp.Results[1].CorrectAnswer)

	w = s.do(http.MethodGet, "/api/subjects/1", "")
	var subject models.Subject
	decode(t, w, &subject)
	assert.Equal(t, 75, subject.BestScore)
}

func TestCheckAnswersErrors(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		body        string
		wantStatus  int
		wantMessage string
	}{
		{"answers is a string", "/api/subjects/1/check", `{"answers":"0,1"}`, http.StatusBadRequest, "Answers must be an array"},
		{"answers is null", "/api/subjects/1/check", `{"answers":null}`, http.StatusBadRequest, "Answers must be an array"},
		{"answers missing", "/api/subjects/1/check", `{"timeSpent":3}`, http.StatusBadRequest, "Answers must be an array"},
		{"malformed body", "/api/subjects/1/check", `{"answers":`, http.StatusBadRequest, "Invalid request payload"},
		{"subject without questions", "/api/subjects/2/check", `{"answers":[0]}`, http.StatusNotFound, "No questions found for subject"},
		{"order mismatch", "/api/subjects/1/check", `{"answers":[0,1],"questionIds":[2,1]}`, http.StatusConflict, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.seedSubject(t, 0, 1)
			require.NoError(t, s.repo.Subject().Create(context.Background(), &models.Subject{
				Name: "Databases", Description: "SQL", Emoji: "🗄️", Color: "#6366f1",
			}))

			w := s.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantMessage != "" {
				var resp ErrorResponse
				decode(t, w, &resp)
				assert.Equal(t, tt.wantMessage, resp.Message)
			}

			attempts, err := s.repo.Attempt().ListBySubject(context.Background(), 1)
			require.NoError(t, err)
			assert.Empty(t, attempts)
		})
	}
}

func TestCheckAnswersNonIntegerEntriesAreWrong(t *testing.T) {
	s := newTestServer(t)
	s.seedSubject(t, 0, 1, 2)

	w := s.do(http.MethodPost, "/api/subjects/1/check", `{"answers":[0,"1",null]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.CheckResponse
	decode(t, w, &resp)
	assert.Equal(t, 1, resp.CorrectCount)
	assert.Equal(t, 33, resp.Score)
}

func TestCheckAnswersWholeFloatsMatch(t *testing.T) {
	s := newTestServer(t)
	s.seedSubject(t, 0, 1, 1, 3)

	w := s.do(http.MethodPost, "/api/subjects/1/check", `{"answers":[0.0,2,1.0,3e0]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.CheckResponse
	decode(t, w, &resp)
	assert.Equal(t, 3, resp.CorrectCount)
	assert.Equal(t, 75, resp.Score)
	assert.True(t, resp.Results[0].Correct)
	assert.False(t, resp.Results[1].Correct)
	assert.True(t, resp.Results[2].Correct)
	assert.True(t, resp.Results[3].Correct)

	w = s.do(http.MethodGet, "/api/subjects/1/attempts", "")
	var attempts []models.Attempt
	decode(t, w, &attempts)
	require.Len(t, attempts, 1)
	assert.Equal(t, 75, attempts[0].Score)
}

func TestCreateAttempt(t *testing.T) {
	s := newTestServer(t)
	s.seedSubject(t, 0)

	w := s.do(http.MethodPost, "/api/attempts",
		`{"subjectId":1,"score":50,"totalQuestions":2,"correctAnswers":1,"timeSpent":20,"answers":[0,2]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var attempt models.Attempt
	decode(t, w, &attempt)
	assert.NotZero(t, attempt.ID)
	assert.Equal(t, 50, attempt.Score)

	w = s.do(http.MethodPost, "/api/attempts", `{"subjectId":1,"score":90,"totalQuestions":2,"correctAnswers":1,"answers":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/attempts", `{"subjectId":9,"score":0,"totalQuestions":0,"correctAnswers":0,"answers":[]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/subjects/1/attempts", "")
	require.Equal(t, http.StatusOK, w.Code)
	var attempts []models.Attempt
	decode(t, w, &attempts)
	assert.Len(t, attempts, 1)
}

func TestCreateSubjectAndQuestion(t *testing.T) {
	s := newTestServer(t)

	body := `{"name":"Go","description":"Goroutines","emoji":"🐹","color":"#00add8"}`
	w := s.do(http.MethodPost, "/api/subjects", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/subjects", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/subjects", `{"name":"Rust","description":"Ownership","emoji":"🦀","color":"red"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var errResp ErrorResponse
	decode(t, w, &errResp)
	assert.Contains(t, errResp.Message, "hex color")

	w = s.do(http.MethodPost, "/api/subjects/1/questions", `{"question":"What is a channel?","options":["A pipe","A struct"],"correctAnswer":0}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var question models.Question
	decode(t, w, &question)
	assert.Equal(t, models.DifficultyMedium, question.Difficulty)

	w = s.do(http.MethodPost, "/api/subjects/1/questions", `{"question":"Broken","options":["A"],"correctAnswer":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/subjects/7/questions", `{"question":"Orphan","options":["A","B"],"correctAnswer":0}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportAndExportQuestions(t *testing.T) {
	s := newTestServer(t)
	s.seedSubject(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "questions.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("question,option_a,option_b,correct_answer\nIs Go compiled?,Yes,No,A\nBroken,,,\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/subjects/1/questions/import", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result models.ImportResult
	decode(t, w, &result)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)

	w = s.do(http.MethodGet, "/api/subjects/1/questions/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "subject-1-questions.xlsx")
	assert.NotEmpty(t, w.Body.Bytes())

	w = s.do(http.MethodGet, "/api/subjects/1/attempts/export", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/subjects/1/questions/import", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDecodeAnswers(t *testing.T) {
	answers, ok := decodeAnswers(json.RawMessage(` [1, null, 2.5, "x", 3] `))
	require.True(t, ok)
	require.Len(t, answers, 5)
	assert.Equal(t, 1, *answers[0])
	assert.Nil(t, answers[1])
	assert.Nil(t, answers[2])
	assert.Nil(t, answers[3])
	assert.Equal(t, 3, *answers[4])

	answers, ok = decodeAnswers(json.RawMessage(`[0.0, 1.0, 1e0, 2.000, -0.0, 1e400, 9007199254740993, true]`))
	require.True(t, ok)
	require.Len(t, answers, 8)
	assert.Equal(t, 0, *answers[0])
	assert.Equal(t, 1, *answers[1])
	assert.Equal(t, 1, *answers[2])
	assert.Equal(t, 2, *answers[3])
	assert.Equal(t, 0, *answers[4])
	assert.Nil(t, answers[5])
	assert.Nil(t, answers[6])
	assert.Nil(t, answers[7])

	answers, ok = decodeAnswers(json.RawMessage(`[]`))
	require.True(t, ok)
	assert.NotNil(t, answers)

	_, ok = decodeAnswers(json.RawMessage(`{"0":1}`))
	assert.False(t, ok)
}
