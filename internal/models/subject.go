package models

import "time"

type Subject struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null;size:100;uniqueIndex"`
	Description string    `json:"description" gorm:"type:text;not null"`
	Emoji       string    `json:"emoji" gorm:"not null;size:16"`
	Color       string    `json:"color" gorm:"not null;size:16"`
	CreatedAt   time.Time `json:"createdAt"`

	// Computed fields (not stored)
	QuestionCount int `json:"questionCount" gorm:"-"`
	BestScore     int `json:"bestScore" gorm:"-"`
}

func (Subject) TableName() string {
	return "subjects"
}

// SubjectStats carries the derived fields of a subject, recomputed on every read.
type SubjectStats struct {
	SubjectID     uint
	QuestionCount int
	BestScore     int
}

// WithStats returns a copy of the subject with its derived fields set.
func (s Subject) WithStats(stats SubjectStats) Subject {
	s.QuestionCount = stats.QuestionCount
	s.BestScore = stats.BestScore
	return s
}
