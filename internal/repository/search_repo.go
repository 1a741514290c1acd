package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/learning-gap-api/internal/models"
)

// PopularSearchLimit is the size of the popular searches ranking.
const PopularSearchLimit = 10

// SearchRepository stores and aggregates search history.
type SearchRepository interface {
	Record(ctx context.Context, userID uint, query string) error
	Popular(ctx context.Context, limit int) ([]models.SearchCount, error)
}

type searchRepository struct {
	db *gorm.DB
}

// NewSearchRepository constructs a search history repository.
func NewSearchRepository(db *gorm.DB) SearchRepository {
	return &searchRepository{db: db}
}

func (r *searchRepository) Record(ctx context.Context, userID uint, query string) error {
	entry := models.SearchHistory{UserID: userID, Query: query}
	return r.db.WithContext(ctx).Create(&entry).Error
}

// Popular groups history by exact query text and ranks by frequency.
func (r *searchRepository) Popular(ctx context.Context, limit int) ([]models.SearchCount, error) {
	if limit <= 0 {
		limit = PopularSearchLimit
	}

	var rows []models.SearchCount
	err := r.db.WithContext(ctx).
		Model(&models.SearchHistory{}).
		Select("query, COUNT(*) AS count").
		Group("query").
		Order("count DESC").
		Order("query ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}
