package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventAttemptRecorded EventType = "attempt.recorded"
	EventSubjectCreated  EventType = "subject.created"
	EventQuestionCreated EventType = "question.created"
)

const (
	eventSource  = "quiz-service"
	eventVersion = "1.0"
)

// Event is the envelope for every published domain event
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"`
	Version   string         `json:"version"`
	Data      interface{}    `json:"data"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type AttemptRecordedEvent struct {
	AttemptID      uint   `json:"attemptId"`
	SubjectID      uint   `json:"subjectId"`
	UserID         *uint  `json:"userId,omitempty"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correctAnswers"`
	TotalQuestions int    `json:"totalQuestions"`
	TimeSpent      int    `json:"timeSpent"`
	Via            string `json:"via"` // "check" or "direct"
}

type SubjectCreatedEvent struct {
	SubjectID uint   `json:"subjectId"`
	Name      string `json:"name"`
}

type QuestionCreatedEvent struct {
	QuestionID uint   `json:"questionId"`
	SubjectID  uint   `json:"subjectId"`
	Source     string `json:"source"` // "api" or "import"
}

func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func GenerateEventID() string {
	return uuid.NewString()
}
