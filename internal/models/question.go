package models

import "gorm.io/datatypes"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid reports whether d is one of the known difficulty levels.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

const (
	MinOptions = 2
	MaxOptions = 6
)

type Question struct {
	ID            uint                        `json:"id" gorm:"primaryKey"`
	SubjectID     uint                        `json:"subjectId" gorm:"not null;index"`
	Question      string                      `json:"question" gorm:"type:text;not null"`
	Options       datatypes.JSONSlice[string] `json:"options" gorm:"type:jsonb;not null"`
	CorrectAnswer int                         `json:"correctAnswer" gorm:"not null"`
	Explanation   *string                     `json:"explanation" gorm:"type:text"`
	Difficulty    Difficulty                  `json:"difficulty" gorm:"size:10;not null;default:medium"`
}

func (Question) TableName() string {
	return "questions"
}

// PublicQuestion is the reader-facing view of a question. It never carries the
// correct answer or the explanation.
type PublicQuestion struct {
	ID         uint       `json:"id"`
	Question   string     `json:"question"`
	Options    []string   `json:"options"`
	Difficulty Difficulty `json:"difficulty"`
}

func (q Question) Public() PublicQuestion {
	options := make([]string, len(q.Options))
	copy(options, q.Options)
	return PublicQuestion{
		ID:         q.ID,
		Question:   q.Question,
		Options:    options,
		Difficulty: q.Difficulty,
	}
}

// PublicQuestions strips every question in order.
func PublicQuestions(questions []Question) []PublicQuestion {
	out := make([]PublicQuestion, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.Public())
	}
	return out
}
