package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/learning-gap-api/internal/dto"
	"github.com/noah-isme/learning-gap-api/internal/events"
	"github.com/noah-isme/learning-gap-api/internal/models"
	"github.com/noah-isme/learning-gap-api/internal/observability"
	"github.com/noah-isme/learning-gap-api/internal/repository"
	"github.com/noah-isme/learning-gap-api/pkg/classifier"
)

const defaultRiskHistoryLimit = 50

var (
	// ErrRiskNamesRequired indicates the student name or class was missing.
	ErrRiskNamesRequired = errors.New("student name and class are required")
	// ErrNegativeFeatures indicates a feature value below zero.
	ErrNegativeFeatures = errors.New("feature values must be non-negative")
	// ErrNonNumericFeatures indicates a feature value that is NaN or infinite.
	ErrNonNumericFeatures = errors.New("feature values must be numeric")
	// ErrUnknownRiskLabel indicates the predictor answered with an unmapped label.
	ErrUnknownRiskLabel = errors.New("predictor returned an unknown risk label")
)

// RiskPredictor turns a feature vector into one of the risk labels.
type RiskPredictor interface {
	Predict(ctx context.Context, features classifier.Features) (string, error)
	Provider() string
}

type riskGuidance struct {
	Color           string
	Message         string
	Recommendations []string
}

var riskGuidanceByLabel = map[string]riskGuidance{
	"Low Risk": {
		Color:   "#28a745",
		Message: "Student is performing well. Continue regular monitoring.",
		Recommendations: []string{
			"Maintain current study habits",
			"Encourage peer mentoring",
			"Provide advanced materials",
		},
	},
	"Medium Risk": {
		Color:   "#ffc107",
		Message: "Student needs some attention. Intervention recommended.",
		Recommendations: []string{
			"Schedule one-on-one sessions",
			"Provide additional practice materials",
			"Encourage group study sessions",
			"Monitor attendance closely",
		},
	},
	"High Risk": {
		Color:   "#dc3545",
		Message: "Student requires immediate intervention. Action needed.",
		Recommendations: []string{
			"Urgent parent/guardian communication",
			"Assign a mentor or tutor",
			"Create personalized study plan",
			"Daily progress tracking",
			"Consider counseling services",
		},
	},
}

// RiskService predicts and records the learning-gap risk of students.
type RiskService interface {
	Predict(ctx context.Context, payload dto.RiskPredictionRequest) (dto.RiskPredictionResponse, error)
	History(ctx context.Context, className string, limit int) ([]dto.RiskPredictionResponse, error)
}

type riskService struct {
	predictor RiskPredictor
	repo      repository.RiskAssessmentRepository
	events    events.Publisher
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewRiskService constructs the risk service. publisher may be nil.
func NewRiskService(predictor RiskPredictor, repo repository.RiskAssessmentRepository, publisher events.Publisher, logger zerolog.Logger) RiskService {
	return &riskService{
		predictor: predictor,
		repo:      repo,
		events:    publisher,
		logger:    logger.With().Str("component", "risk_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/learning-gap-api/internal/service/risk"),
	}
}

func (s *riskService) Predict(ctx context.Context, payload dto.RiskPredictionRequest) (dto.RiskPredictionResponse, error) {
	studentName := strings.TrimSpace(payload.StudentName)
	className := strings.TrimSpace(payload.ClassName)
	if studentName == "" || className == "" {
		return dto.RiskPredictionResponse{}, ErrRiskNamesRequired
	}

	features, err := riskFeatures(payload)
	if err != nil {
		return dto.RiskPredictionResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "risk.predict", trace.WithAttributes(
		attribute.String("risk.class", className),
		attribute.String("risk.provider", s.predictor.Provider()),
	))
	defer span.End()

	label, err := s.predictor.Predict(ctx, features)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "prediction failed")
		return dto.RiskPredictionResponse{}, fmt.Errorf("predict risk: %w", err)
	}
	if _, ok := riskGuidanceByLabel[label]; !ok {
		span.SetStatus(codes.Error, "unknown label")
		return dto.RiskPredictionResponse{}, fmt.Errorf("%w: %q", ErrUnknownRiskLabel, label)
	}
	span.SetAttributes(attribute.String("risk.label", label))

	featureMap := datatypes.JSONMap{}
	for name, value := range features.Values() {
		featureMap[name] = value
	}

	assessment := models.RiskAssessment{
		StudentName: studentName,
		ClassName:   className,
		Label:       label,
		Provider:    s.predictor.Provider(),
		Features:    featureMap,
	}
	if err := s.repo.Create(ctx, &assessment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		return dto.RiskPredictionResponse{}, fmt.Errorf("store assessment: %w", err)
	}

	observability.RiskPredictions().WithLabelValues(label, assessment.Provider).Inc()

	s.logger.Info().
		Uint("assessment_id", assessment.ID).
		Str("class", className).
		Str("label", label).
		Str("provider", assessment.Provider).
		Msg("risk prediction generated")

	if s.events != nil {
		event := map[string]interface{}{
			"assessment_id": assessment.ID,
			"student_name":  studentName,
			"class_name":    className,
			"label":         label,
			"provider":      assessment.Provider,
		}
		if err := s.events.Publish(ctx, events.TypeRiskAssessed, event); err != nil {
			s.logger.Warn().Err(err).Uint("assessment_id", assessment.ID).Msg("failed to publish risk event")
		}
	}

	return newRiskPredictionResponse(assessment), nil
}

// History lists recent assessments for a class, newest first.
func (s *riskService) History(ctx context.Context, className string, limit int) ([]dto.RiskPredictionResponse, error) {
	className = strings.TrimSpace(className)
	if className == "" {
		return nil, ErrClassRequired
	}
	if limit <= 0 || limit > defaultRiskHistoryLimit {
		limit = defaultRiskHistoryLimit
	}

	items, err := s.repo.ListByClass(ctx, className, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.RiskPredictionResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, newRiskPredictionResponse(item))
	}
	return responses, nil
}

// riskFeatures reads the indicator values, treating absent ones as zero.
func riskFeatures(payload dto.RiskPredictionRequest) (classifier.Features, error) {
	values := []*float64{payload.DaysAbsent, payload.MissedTopics, payload.AvgMarks, payload.DifficultyScore}
	resolved := make([]float64, len(values))
	for i, value := range values {
		if value == nil {
			continue
		}
		if math.IsNaN(*value) || math.IsInf(*value, 0) {
			return classifier.Features{}, ErrNonNumericFeatures
		}
		if *value < 0 {
			return classifier.Features{}, ErrNegativeFeatures
		}
		resolved[i] = *value
	}

	return classifier.Features{
		DaysAbsent:      resolved[0],
		MissedTopics:    resolved[1],
		AvgMarks:        resolved[2],
		DifficultyScore: resolved[3],
	}, nil
}

func newRiskPredictionResponse(assessment models.RiskAssessment) dto.RiskPredictionResponse {
	guidance := riskGuidanceByLabel[assessment.Label]
	recommendations := make([]string, len(guidance.Recommendations))
	copy(recommendations, guidance.Recommendations)

	createdAt := assessment.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return dto.RiskPredictionResponse{
		AssessmentID:    assessment.ID,
		StudentName:     assessment.StudentName,
		ClassName:       assessment.ClassName,
		Prediction:      assessment.Label,
		Color:           guidance.Color,
		Message:         guidance.Message,
		Recommendations: recommendations,
		Provider:        assessment.Provider,
		CreatedAt:       createdAt,
	}
}
