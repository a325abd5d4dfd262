// Package memory is an in-process implementation of the repositories, used by the
// memory storage driver and by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
)

type store struct {
	mu sync.RWMutex

	subjects  map[uint]models.Subject
	questions map[uint]models.Question
	attempts  map[uint]models.Attempt

	nextSubjectID  uint
	nextQuestionID uint
	nextAttemptID  uint

	now func() time.Time
}

type Repository struct {
	s *store
}

func NewRepository() *Repository {
	return &Repository{s: &store{
		subjects:  make(map[uint]models.Subject),
		questions: make(map[uint]models.Question),
		attempts:  make(map[uint]models.Attempt),
		now:       time.Now,
	}}
}

func (r *Repository) Subject() repositories.SubjectRepository   { return subjectRepo{r.s} }
func (r *Repository) Question() repositories.QuestionRepository { return questionRepo{r.s} }
func (r *Repository) Attempt() repositories.AttemptRepository   { return attemptRepo{r.s} }

// WithTransaction runs fn directly. Every single write is atomic on its own; no
// caller relies on multi-write rollback.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo repositories.Repository) error) error {
	return fn(r)
}

// ===== SUBJECTS =====

type subjectRepo struct{ s *store }

func (r subjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.subjects {
		if existing.Name == subject.Name {
			return repositories.ErrDuplicate
		}
	}
	r.s.nextSubjectID++
	subject.ID = r.s.nextSubjectID
	if subject.CreatedAt.IsZero() {
		subject.CreatedAt = r.s.now()
	}
	r.s.subjects[subject.ID] = *subject
	return nil
}

func (r subjectRepo) GetByID(ctx context.Context, id uint) (*models.Subject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	subject, ok := r.s.subjects[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &subject, nil
}

func (r subjectRepo) GetByName(ctx context.Context, name string) (*models.Subject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, subject := range r.s.subjects {
		if subject.Name == name {
			return &subject, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r subjectRepo) List(ctx context.Context) ([]*models.Subject, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Subject, 0, len(r.s.subjects))
	for _, subject := range r.s.subjects {
		subject := subject
		out = append(out, &subject)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r subjectRepo) Count(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.subjects)), nil
}

func (r subjectRepo) Stats(ctx context.Context, ids []uint) (map[uint]models.SubjectStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := make(map[uint]models.SubjectStats, len(ids))
	for _, id := range ids {
		if _, ok := r.s.subjects[id]; !ok {
			continue
		}
		stats[id] = models.SubjectStats{SubjectID: id}
	}
	for _, q := range r.s.questions {
		if st, ok := stats[q.SubjectID]; ok {
			st.QuestionCount++
			stats[q.SubjectID] = st
		}
	}
	for _, a := range r.s.attempts {
		if st, ok := stats[a.SubjectID]; ok && a.Score > st.BestScore {
			st.BestScore = a.Score
			stats[a.SubjectID] = st
		}
	}
	return stats, nil
}

// ===== QUESTIONS =====

type questionRepo struct{ s *store }

func (r questionRepo) Create(ctx context.Context, question *models.Question) error {
	return r.CreateBatch(ctx, []*models.Question{question})
}

func (r questionRepo) CreateBatch(ctx context.Context, questions []*models.Question) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, q := range questions {
		if _, ok := r.s.subjects[q.SubjectID]; !ok {
			return repositories.ErrNotFound
		}
	}
	for _, q := range questions {
		r.s.nextQuestionID++
		q.ID = r.s.nextQuestionID
		if q.Difficulty == "" {
			q.Difficulty = models.DifficultyMedium
		}
		r.s.questions[q.ID] = *q
	}
	return nil
}

func (r questionRepo) ListBySubject(ctx context.Context, subjectID uint) ([]*models.Question, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.Question
	for _, q := range r.s.questions {
		if q.SubjectID == subjectID {
			q := q
			out = append(out, &q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== ATTEMPTS =====

type attemptRepo struct{ s *store }

func (r attemptRepo) Create(ctx context.Context, attempt *models.Attempt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.subjects[attempt.SubjectID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.nextAttemptID++
	attempt.ID = r.s.nextAttemptID
	if attempt.CompletedAt.IsZero() {
		attempt.CompletedAt = r.s.now()
	}
	r.s.attempts[attempt.ID] = *attempt
	return nil
}

func (r attemptRepo) ListBySubject(ctx context.Context, subjectID uint) ([]*models.Attempt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.Attempt
	for _, a := range r.s.attempts {
		if a.SubjectID == subjectID {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
