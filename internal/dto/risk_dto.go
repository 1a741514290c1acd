package dto

import "time"

// RiskPredictionRequest carries the indicators of one student. Feature
// fields are pointers so that absent values can default to zero while
// negative ones are still rejected.
type RiskPredictionRequest struct {
	StudentName     string   `json:"student_name" form:"student_name"`
	ClassName       string   `json:"class_name" form:"class_name"`
	DaysAbsent      *float64 `json:"days_absent" form:"days_absent"`
	MissedTopics    *float64 `json:"missed_topics" form:"missed_topics"`
	AvgMarks        *float64 `json:"avg_marks" form:"avg_marks"`
	DifficultyScore *float64 `json:"difficulty_score" form:"difficulty_score"`
}

// RiskPredictionResponse presents a prediction with its guidance.
type RiskPredictionResponse struct {
	AssessmentID    uint      `json:"assessment_id"`
	StudentName     string    `json:"student_name"`
	ClassName       string    `json:"class_name"`
	Prediction      string    `json:"prediction"`
	Color           string    `json:"color"`
	Message         string    `json:"message"`
	Recommendations []string  `json:"recommendations"`
	Provider        string    `json:"provider"`
	CreatedAt       time.Time `json:"created_at"`
}
