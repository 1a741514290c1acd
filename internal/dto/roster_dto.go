package dto

import (
	"time"

	"github.com/noah-isme/learning-gap-api/internal/models"
)

// RosterStatusRequest updates a student's attendance and risk level. Omitted
// fields keep their stored value.
type RosterStatusRequest struct {
	Attendance *string `json:"attendance" validate:"omitempty,oneof=Present Absent"`
	RiskLevel  *string `json:"risk_level" validate:"omitempty,oneof=Low Medium High"`
}

// RosterStudent is one row of a class roster.
type RosterStudent struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	Username   string     `json:"username"`
	Attendance string     `json:"attendance"`
	RiskLevel  string     `json:"risk_level"`
	LastActive *time.Time `json:"last_active"`
	// PredictedRisk is the label of the newest risk prediction recorded under
	// the student's name in this class, when there is one.
	PredictedRisk string `json:"predicted_risk,omitempty"`
}

// ClassDashboard summarises a class for its teacher.
type ClassDashboard struct {
	Class         string               `json:"class"`
	TotalStudents int                  `json:"total_students"`
	PresentToday  int                  `json:"present_today"`
	AbsentToday   int                  `json:"absent_today"`
	Students      []RosterStudent      `json:"students"`
	Submissions   []SubmissionResponse `json:"submissions"`
}

// NewRosterStudent converts a student account into a roster row.
func NewRosterStudent(model models.User) RosterStudent {
	return RosterStudent{
		ID:         model.ID,
		Name:       model.Name,
		Username:   model.Username,
		Attendance: model.Attendance,
		RiskLevel:  model.RiskLevel,
		LastActive: model.LastActive,
	}
}
