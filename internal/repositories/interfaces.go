package repositories

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/quiz-service/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate record")
)

// SubjectRepository stores subjects. Derived fields are never persisted; Stats
// recomputes them from the question and attempt tables.
type SubjectRepository interface {
	Create(ctx context.Context, subject *models.Subject) error
	GetByID(ctx context.Context, id uint) (*models.Subject, error)
	GetByName(ctx context.Context, name string) (*models.Subject, error)
	List(ctx context.Context) ([]*models.Subject, error)
	Count(ctx context.Context) (int64, error)
	Stats(ctx context.Context, ids []uint) (map[uint]models.SubjectStats, error)
}

// QuestionRepository stores questions. ListBySubject always returns ascending id
// order; grading is positional and depends on that order being stable.
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []*models.Question) error
	ListBySubject(ctx context.Context, subjectID uint) ([]*models.Question, error)
}

// AttemptRepository is append-only; attempts are never updated or deleted.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.Attempt) error
	ListBySubject(ctx context.Context, subjectID uint) ([]*models.Attempt, error)
}

type Repository interface {
	Subject() SubjectRepository
	Question() QuestionRepository
	Attempt() AttemptRepository

	// WithTransaction runs fn against a repository bound to one transaction.
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
}
