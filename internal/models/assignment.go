package models

import "time"

// Assignment is a piece of work a teacher sets for one class and subject.
// DueDate is kept as the string the teacher entered; it is never parsed.
type Assignment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TeacherID   uint      `gorm:"not null;index" json:"teacher_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Subject     string    `gorm:"size:128;not null" json:"subject"`
	ClassName   string    `gorm:"size:64;not null;index" json:"class_name"`
	DueDate     string    `gorm:"size:32;not null" json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
	Teacher     User      `gorm:"foreignKey:TeacherID" json:"-"`
}
