package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/learning-gap-api/internal/models"
)

// ProgressUpdate carries a partial progress change. Nil fields are left
// untouched on existing rows and take their column default on insert.
type ProgressUpdate struct {
	StudentID       uint
	Subject         string
	TopicsCompleted *int
	AssessmentScore *float64
	MaterialsViewed *int
}

// ProgressRepository persists per-(student, subject) progress.
type ProgressRepository interface {
	Upsert(ctx context.Context, update ProgressUpdate) (models.Progress, error)
	Get(ctx context.Context, studentID uint, subject string) (models.Progress, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Progress, error)
}

type progressRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewProgressRepository constructs the repository.
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db, now: time.Now}
}

// Upsert inserts the row or updates only the supplied columns in a single
// statement keyed on idx_progress_student_subject.
func (r *progressRepository) Upsert(ctx context.Context, update ProgressUpdate) (models.Progress, error) {
	now := r.now().UTC()

	record := models.Progress{
		StudentID: update.StudentID,
		Subject:   update.Subject,
		UpdatedAt: now,
	}
	assignments := map[string]interface{}{"updated_at": now}

	if update.TopicsCompleted != nil {
		record.TopicsCompleted = *update.TopicsCompleted
		assignments["topics_completed"] = *update.TopicsCompleted
	}
	if update.AssessmentScore != nil {
		score := *update.AssessmentScore
		record.AssessmentScore = &score
		assignments["assessment_score"] = score
	}
	if update.MaterialsViewed != nil {
		record.MaterialsViewed = *update.MaterialsViewed
		record.LastAccessed = &now
		assignments["materials_viewed"] = *update.MaterialsViewed
		assignments["last_accessed"] = now
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "subject"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&record).Error
	if err != nil {
		return models.Progress{}, err
	}

	return r.Get(ctx, update.StudentID, update.Subject)
}

func (r *progressRepository) Get(ctx context.Context, studentID uint, subject string) (models.Progress, error) {
	var progress models.Progress
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND subject = ?", studentID, subject).
		First(&progress).Error
	if err != nil {
		return models.Progress{}, err
	}

	return progress, nil
}

func (r *progressRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Progress, error) {
	var records []models.Progress
	if err := r.db.WithContext(ctx).Where("student_id = ?", studentID).Order("subject ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}
