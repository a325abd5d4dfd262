package postgres

import (
	"context"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type SubjectPostgreSQL struct {
	db *gorm.DB
}

func NewSubjectPostgreSQL(db *gorm.DB) repositories.SubjectRepository {
	return &SubjectPostgreSQL{db: db}
}

func (s *SubjectPostgreSQL) Create(ctx context.Context, subject *models.Subject) error {
	return translateError(s.db.WithContext(ctx).Create(subject).Error)
}

func (s *SubjectPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Subject, error) {
	var subject models.Subject
	if err := s.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &subject, nil
}

func (s *SubjectPostgreSQL) GetByName(ctx context.Context, name string) (*models.Subject, error) {
	var subject models.Subject
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&subject).Error; err != nil {
		return nil, translateError(err)
	}
	return &subject, nil
}

func (s *SubjectPostgreSQL) List(ctx context.Context) ([]*models.Subject, error) {
	var subjects []*models.Subject
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

func (s *SubjectPostgreSQL) Count(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Subject{}).Count(&total).Error
	return total, err
}

type subjectStatsRow struct {
	SubjectID     uint
	QuestionCount int
	BestScore     int
}

func (s *SubjectPostgreSQL) Stats(ctx context.Context, ids []uint) (map[uint]models.SubjectStats, error) {
	stats := make(map[uint]models.SubjectStats, len(ids))
	if len(ids) == 0 {
		return stats, nil
	}

	var rows []subjectStatsRow
	err := s.db.WithContext(ctx).Raw(`
		SELECT s.id AS subject_id,
			(SELECT COUNT(*) FROM questions q WHERE q.subject_id = s.id) AS question_count,
			COALESCE((SELECT MAX(a.score) FROM quiz_attempts a WHERE a.subject_id = s.id), 0) AS best_score
		FROM subjects s
		WHERE s.id IN ?`, ids).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		stats[row.SubjectID] = models.SubjectStats{
			SubjectID:     row.SubjectID,
			QuestionCount: row.QuestionCount,
			BestScore:     row.BestScore,
		}
	}
	return stats, nil
}
