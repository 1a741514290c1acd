package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/learning-gap-api/internal/models"
)

// RiskAssessmentRepository persists risk prediction outcomes.
type RiskAssessmentRepository interface {
	Create(ctx context.Context, assessment *models.RiskAssessment) error
	ListByClass(ctx context.Context, className string, limit int) ([]models.RiskAssessment, error)
}

type riskAssessmentRepository struct {
	db *gorm.DB
}

// NewRiskAssessmentRepository constructs the repository.
func NewRiskAssessmentRepository(db *gorm.DB) RiskAssessmentRepository {
	return &riskAssessmentRepository{db: db}
}

func (r *riskAssessmentRepository) Create(ctx context.Context, assessment *models.RiskAssessment) error {
	return r.db.WithContext(ctx).Create(assessment).Error
}

func (r *riskAssessmentRepository) ListByClass(ctx context.Context, className string, limit int) ([]models.RiskAssessment, error) {
	query := r.db.WithContext(ctx).Where("class_name = ?", className).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var items []models.RiskAssessment
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}

	return items, nil
}
