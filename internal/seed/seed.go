// Package seed holds the bundled quiz dataset. The server loads it into an empty
// store; the client uses it as the last fallback when both network and cache
// have nothing.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/SAP-F-2025/quiz-service/internal/validator"
	"gopkg.in/yaml.v3"
)

//go:embed dataset.yaml
var datasetYAML []byte

type Dataset struct {
	Subjects []SubjectSeed `yaml:"subjects"`
}

type SubjectSeed struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Emoji       string         `yaml:"emoji"`
	Color       string         `yaml:"color"`
	Questions   []QuestionSeed `yaml:"questions"`
}

type QuestionSeed struct {
	Question      string            `yaml:"question"`
	Options       []string          `yaml:"options"`
	CorrectAnswer int               `yaml:"correct_answer"`
	Explanation   string            `yaml:"explanation"`
	Difficulty    models.Difficulty `yaml:"difficulty"`
}

// Load parses the embedded dataset
func Load() (*Dataset, error) {
	return Parse(datasetYAML)
}

// Parse decodes a dataset and checks every question
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse seed dataset: %w", err)
	}

	qv := validator.NewQuestionValidator()
	for _, subject := range ds.Subjects {
		if subject.Name == "" {
			return nil, errors.New("seed subject without a name")
		}
		for i := range subject.Questions {
			q := subject.Questions[i].model(0)
			if err := qv.ValidateQuestion(q); err != nil {
				return nil, fmt.Errorf("seed question %d of %s: %w", i+1, subject.Name, err)
			}
		}
	}
	return &ds, nil
}

func (q QuestionSeed) model(subjectID uint) *models.Question {
	difficulty := q.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}
	question := &models.Question{
		SubjectID:     subjectID,
		Question:      q.Question,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		Difficulty:    difficulty,
	}
	if q.Explanation != "" {
		explanation := q.Explanation
		question.Explanation = &explanation
	}
	return question
}

// Apply loads the dataset into repo when it has no subjects yet. It reports
// whether anything was written.
func Apply(ctx context.Context, repo repositories.Repository, ds *Dataset, logger utils.Logger) (bool, error) {
	count, err := repo.Subject().Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count subjects: %w", err)
	}
	if count > 0 {
		logger.Info("Database already seeded", "subjects", count)
		return false, nil
	}

	questionTotal := 0
	err = repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		for _, s := range ds.Subjects {
			subject := &models.Subject{
				Name:        s.Name,
				Description: s.Description,
				Emoji:       s.Emoji,
				Color:       s.Color,
			}
			if err := tx.Subject().Create(ctx, subject); err != nil {
				return fmt.Errorf("failed to seed subject %s: %w", s.Name, err)
			}

			if len(s.Questions) == 0 {
				continue
			}
			questions := make([]*models.Question, 0, len(s.Questions))
			for _, q := range s.Questions {
				questions = append(questions, q.model(subject.ID))
			}
			if err := tx.Question().CreateBatch(ctx, questions); err != nil {
				return fmt.Errorf("failed to seed questions for %s: %w", s.Name, err)
			}
			questionTotal += len(questions)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	logger.Info("Database seeded", "subjects", len(ds.Subjects), "questions", questionTotal)
	return true, nil
}

// BundledSubjects numbers the subjects 1..n in file order, as a fresh store would.
func (ds *Dataset) BundledSubjects() []models.Subject {
	out := make([]models.Subject, 0, len(ds.Subjects))
	for i, s := range ds.Subjects {
		out = append(out, models.Subject{
			ID:            uint(i + 1),
			Name:          s.Name,
			Description:   s.Description,
			Emoji:         s.Emoji,
			Color:         s.Color,
			QuestionCount: len(s.Questions),
		})
	}
	return out
}

// BundledQuestions returns the public view of a subject's questions. Question ids
// are numbered across the whole dataset in file order. Unknown subjects yield nil.
func (ds *Dataset) BundledQuestions(subjectID uint) []models.PublicQuestion {
	var nextID uint
	for i, s := range ds.Subjects {
		if uint(i+1) != subjectID {
			nextID += uint(len(s.Questions))
			continue
		}
		out := make([]models.PublicQuestion, 0, len(s.Questions))
		for _, q := range s.Questions {
			nextID++
			m := q.model(subjectID)
			m.ID = nextID
			out = append(out, m.Public())
		}
		return out
	}
	return nil
}
