package models

import "time"

// Progress aggregates a student's activity in one subject. There is exactly
// one row per (student, subject); the composite unique index backs the upsert.
type Progress struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	StudentID       uint       `gorm:"not null;uniqueIndex:idx_progress_student_subject" json:"student_id"`
	Subject         string     `gorm:"size:128;not null;uniqueIndex:idx_progress_student_subject" json:"subject"`
	TopicsCompleted int        `gorm:"not null;default:0" json:"topics_completed"`
	AssessmentScore *float64   `json:"assessment_score"`
	MaterialsViewed int        `gorm:"not null;default:0" json:"materials_viewed"`
	LastAccessed    *time.Time `json:"last_accessed"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName keeps the singular table name used by the schema.
func (Progress) TableName() string {
	return "progress"
}
