package models

import "time"

const (
	// RoleTeacher identifies staff who publish material and assignments.
	RoleTeacher = "teacher"
	// RoleStudent identifies learners who consume material and submit work.
	RoleStudent = "student"
)

// Attendance values recorded by teachers on the class roster.
const (
	AttendancePresent = "Present"
	AttendanceAbsent  = "Absent"
)

// Risk levels a teacher can assign to a student on the class roster.
const (
	RiskLevelLow    = "Low"
	RiskLevelMedium = "Medium"
	RiskLevelHigh   = "High"
)

// User is a registered teacher or student account. Attendance, RiskLevel and
// LastActive only carry meaning for students.
type User struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Username   string     `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Password   string     `gorm:"size:255;not null" json:"-"`
	Email      string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role       string     `gorm:"size:16;not null" json:"role"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	ClassName  *string    `gorm:"size:64;index" json:"class_name"`
	Attendance string     `gorm:"size:16;not null;default:Absent" json:"attendance"`
	RiskLevel  string     `gorm:"size:16;not null;default:Low" json:"risk_level"`
	LastActive *time.Time `json:"last_active"`
	CreatedAt  time.Time  `json:"created_at"`
}

// IsTeacher reports whether the account belongs to a teacher.
func (u User) IsTeacher() bool {
	return u.Role == RoleTeacher
}
