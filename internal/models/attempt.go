package models

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

// Attempt is the immutable record of one graded or directly recorded quiz run.
type Attempt struct {
	ID             uint                      `json:"id" gorm:"primaryKey"`
	SubjectID      uint                      `json:"subjectId" gorm:"not null;index"`
	UserID         *uint                     `json:"userId,omitempty" gorm:"index"`
	Score          int                       `json:"score" gorm:"not null"`
	TotalQuestions int                       `json:"totalQuestions" gorm:"not null"`
	CorrectAnswers int                       `json:"correctAnswers" gorm:"not null"`
	TimeSpent      int                       `json:"timeSpent" gorm:"not null;default:0"`
	Answers        datatypes.JSONSlice[*int] `json:"answers" gorm:"type:jsonb;not null"`
	CompletedAt    time.Time                 `json:"completedAt" gorm:"not null;autoCreateTime"`
}

func (Attempt) TableName() string {
	return "quiz_attempts"
}

// Score returns round(100 * correct / total), or 0 when total is 0.
func Score(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}
