package ai

import (
	"context"
	"errors"

	"github.com/noah-isme/learning-gap-api/pkg/classifier"
)

// ErrUnexpectedLabel reports a model answer outside the known risk labels.
var ErrUnexpectedLabel = errors.New("model returned an unknown risk label")

// RiskLabels are the only answers a risk classifier may give.
var RiskLabels = []string{"Low Risk", "Medium Risk", "High Risk"}

// RiskClassifier predicts a risk label for a student's feature vector.
type RiskClassifier interface {
	Predict(ctx context.Context, features classifier.Features) (string, error)
	Provider() string
}
