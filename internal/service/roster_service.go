package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/learning-gap-api/internal/dto"
	"github.com/noah-isme/learning-gap-api/internal/models"
	"github.com/noah-isme/learning-gap-api/internal/repository"
)

var (
	// ErrStudentNotFound indicates the roster entry does not exist or is not a student.
	ErrStudentNotFound = errors.New("student not found")
	// ErrRosterUpdateEmpty indicates a status update changed nothing.
	ErrRosterUpdateEmpty = errors.New("attendance or risk_level is required")
)

// RosterService keeps the class roster teachers use to follow attendance and risk.
type RosterService interface {
	Dashboard(ctx context.Context, className string) (dto.ClassDashboard, error)
	UpdateStatus(ctx context.Context, studentID uint, payload dto.RosterStatusRequest) (dto.RosterStudent, error)
}

type rosterService struct {
	users       repository.UserRepository
	submissions repository.SubmissionRepository
	risks       repository.RiskAssessmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewRosterService constructs the roster service.
func NewRosterService(users repository.UserRepository, submissions repository.SubmissionRepository, risks repository.RiskAssessmentRepository, validate *validator.Validate, logger zerolog.Logger) RosterService {
	return &rosterService{
		users:       users,
		submissions: submissions,
		risks:       risks,
		validator:   validate,
		logger:      logger.With().Str("component", "roster_service").Logger(),
	}
}

func (s *rosterService) Dashboard(ctx context.Context, className string) (dto.ClassDashboard, error) {
	className = strings.TrimSpace(className)
	if className == "" {
		return dto.ClassDashboard{}, ErrClassRequired
	}

	students, err := s.users.ListStudentsByClass(ctx, className)
	if err != nil {
		return dto.ClassDashboard{}, err
	}

	submissions, err := s.submissions.ListByClass(ctx, className)
	if err != nil {
		return dto.ClassDashboard{}, err
	}

	assessments, err := s.risks.ListByClass(ctx, className, 0)
	if err != nil {
		return dto.ClassDashboard{}, err
	}
	latest := make(map[string]string, len(assessments))
	for _, assessment := range assessments {
		key := rosterNameKey(assessment.StudentName)
		if _, seen := latest[key]; !seen {
			latest[key] = assessment.Label
		}
	}

	dashboard := dto.ClassDashboard{
		Class:         className,
		TotalStudents: len(students),
		Students:      make([]dto.RosterStudent, 0, len(students)),
		Submissions:   dto.NewSubmissionResponseSlice(submissions),
	}
	for _, student := range students {
		if student.Attendance == models.AttendancePresent {
			dashboard.PresentToday++
		}
		row := dto.NewRosterStudent(student)
		row.PredictedRisk = latest[rosterNameKey(student.Name)]
		dashboard.Students = append(dashboard.Students, row)
	}
	dashboard.AbsentToday = dashboard.TotalStudents - dashboard.PresentToday

	return dashboard, nil
}

func (s *rosterService) UpdateStatus(ctx context.Context, studentID uint, payload dto.RosterStatusRequest) (dto.RosterStudent, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RosterStudent{}, err
	}
	if payload.Attendance == nil && payload.RiskLevel == nil {
		return dto.RosterStudent{}, ErrRosterUpdateEmpty
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RosterStudent{}, ErrStudentNotFound
		}
		return dto.RosterStudent{}, err
	}
	if student.IsTeacher() {
		return dto.RosterStudent{}, ErrStudentNotFound
	}

	err = s.users.UpdateRosterStatus(ctx, studentID, repository.RosterStatusUpdate{
		Attendance: payload.Attendance,
		RiskLevel:  payload.RiskLevel,
	})
	if err != nil {
		return dto.RosterStudent{}, err
	}

	updated, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return dto.RosterStudent{}, err
	}

	s.logger.Info().
		Uint("student_id", updated.ID).
		Str("attendance", updated.Attendance).
		Str("risk_level", updated.RiskLevel).
		Msg("roster status updated")

	return dto.NewRosterStudent(updated), nil
}

func rosterNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
