package models

import "time"

// SearchHistory is an append-only record of a user's search query.
type SearchHistory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Query      string    `gorm:"size:255;not null;index" json:"query"`
	SearchedAt time.Time `gorm:"autoCreateTime" json:"searched_at"`
}

// TableName keeps the singular table name used by the schema.
func (SearchHistory) TableName() string {
	return "search_history"
}

// SearchCount is one row of the popular searches aggregate.
type SearchCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}
