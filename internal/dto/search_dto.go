package dto

import "github.com/noah-isme/learning-gap-api/internal/models"

// PopularSearch is one ranked query.
type PopularSearch struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// NewPopularSearchSlice converts aggregate rows to DTOs.
func NewPopularSearchSlice(rows []models.SearchCount) []PopularSearch {
	items := make([]PopularSearch, 0, len(rows))
	for _, row := range rows {
		items = append(items, PopularSearch{Query: row.Query, Count: row.Count})
	}
	return items
}
