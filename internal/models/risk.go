package models

import (
	"time"

	"gorm.io/datatypes"
)

// RiskAssessment stores the outcome of a risk prediction request together
// with the feature vector the classifier saw.
type RiskAssessment struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	StudentName string            `gorm:"size:255;not null" json:"student_name"`
	ClassName   string            `gorm:"size:64;not null;index" json:"class_name"`
	Label       string            `gorm:"size:32;not null" json:"label"`
	Provider    string            `gorm:"size:32" json:"provider"`
	Features    datatypes.JSONMap `gorm:"type:json" json:"features"`
	CreatedAt   time.Time         `json:"created_at"`
}

// All returns every model managed by AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Assignment{},
		&Submission{},
		&Progress{},
		&SearchHistory{},
		&RiskAssessment{},
	}
}
