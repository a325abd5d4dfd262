package models

// ===== SCORING =====

// CheckRequest is the body of POST /subjects/{id}/check.
type CheckRequest struct {
	Answers   []*int `json:"answers" validate:"required"`
	TimeSpent *int   `json:"timeSpent,omitempty" validate:"omitempty,min=0"`
	UserID    *uint  `json:"userId,omitempty"`

	// QuestionIDs optionally echoes the question order the client displayed.
	QuestionIDs []uint `json:"questionIds,omitempty"`
}

type QuestionResult struct {
	QuestionID    uint    `json:"questionId"`
	Correct       bool    `json:"correct"`
	CorrectAnswer int     `json:"correctAnswer"`
	Explanation   *string `json:"explanation"`
}

type CheckResponse struct {
	Results        []QuestionResult `json:"results"`
	Score          int              `json:"score"`
	CorrectCount   int              `json:"correctCount"`
	TotalQuestions int              `json:"totalQuestions"`
	QuestionIDs    []uint           `json:"questionIds"`
	AttemptID      uint             `json:"attemptId"`
}

// ===== AUTHORING =====

type CreateSubjectRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description" validate:"required,max=500"`
	Emoji       string `json:"emoji" validate:"required,max=16"`
	Color       string `json:"color" validate:"required,hexcolor"`
}

type CreateQuestionRequest struct {
	Question      string     `json:"question" validate:"required,min=1"`
	Options       []string   `json:"options" validate:"required,min=2,max=6,dive,required"`
	CorrectAnswer *int       `json:"correctAnswer" validate:"required,min=0"`
	Explanation   *string    `json:"explanation,omitempty"`
	Difficulty    Difficulty `json:"difficulty,omitempty" validate:"omitempty,difficulty_level"`
}

// ===== ATTEMPTS =====

// CreateAttemptRequest is an Attempt without its store-assigned id and timestamp.
type CreateAttemptRequest struct {
	SubjectID      uint   `json:"subjectId" validate:"required"`
	UserID         *uint  `json:"userId,omitempty"`
	Score          int    `json:"score" validate:"min=0,max=100"`
	TotalQuestions int    `json:"totalQuestions" validate:"min=0"`
	CorrectAnswers int    `json:"correctAnswers" validate:"min=0"`
	TimeSpent      int    `json:"timeSpent" validate:"min=0"`
	Answers        []*int `json:"answers" validate:"required"`
}
