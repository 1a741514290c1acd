package models

import "time"

// Submission represents work handed in by a student for an assignment.
// Several submissions per (assignment, student) pair are allowed.
type Submission struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	AssignmentID   uint       `gorm:"not null;index" json:"assignment_id"`
	StudentID      uint       `gorm:"not null;index" json:"student_id"`
	SubmissionText string     `gorm:"type:text" json:"submission_text"`
	FilePath       string     `gorm:"size:512" json:"file_path"`
	Status         string     `gorm:"size:32;not null;default:submitted" json:"status"`
	SubmittedAt    time.Time  `gorm:"autoCreateTime" json:"submitted_at"`
	Assignment     Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student        User       `gorm:"foreignKey:StudentID" json:"-"`
}

// SubmissionStatusSubmitted is the status every new submission starts with.
const SubmissionStatusSubmitted = "submitted"
