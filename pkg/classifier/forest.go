// Package classifier evaluates tree-ensemble risk models exported as JSON.
//
// An artifact lists the feature names it was trained on, the class labels,
// and one or more binary decision trees. Internal nodes send a sample left
// when its feature value is <= threshold; leaves carry a class index. The
// ensemble prediction is the majority vote, ties going to the lower index.
package classifier

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/afero"
)

// Feature names understood by the risk model.
const (
	FeatureDaysAbsent      = "days_absent"
	FeatureMissedTopics    = "missed_topics"
	FeatureAvgMarks        = "avg_marks"
	FeatureDifficultyScore = "difficulty_score"
)

// ProviderName identifies predictions made by a local artifact.
const ProviderName = "tree"

// ErrInvalidModel reports a structurally broken artifact.
var ErrInvalidModel = errors.New("invalid classifier model")

//go:embed default_model.json
var defaultModel []byte

// Features is the numeric input of one prediction.
type Features struct {
	DaysAbsent      float64 `json:"days_absent"`
	MissedTopics    float64 `json:"missed_topics"`
	AvgMarks        float64 `json:"avg_marks"`
	DifficultyScore float64 `json:"difficulty_score"`
}

// Values returns the features keyed by name.
func (f Features) Values() map[string]float64 {
	return map[string]float64{
		FeatureDaysAbsent:      f.DaysAbsent,
		FeatureMissedTopics:    f.MissedTopics,
		FeatureAvgMarks:        f.AvgMarks,
		FeatureDifficultyScore: f.DifficultyScore,
	}
}

// Node is one decision tree node.
type Node struct {
	Feature   string  `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      *Node   `json:"left,omitempty"`
	Right     *Node   `json:"right,omitempty"`
	Class     *int    `json:"class,omitempty"`
}

// Model is a decoded artifact.
type Model struct {
	Version  string   `json:"version"`
	Features []string `json:"features"`
	Classes  []string `json:"classes"`
	Trees    []Node   `json:"trees"`
}

// Forest predicts risk labels with a validated Model.
type Forest struct {
	model Model
}

// Default returns the forest bundled with the binary.
func Default() (*Forest, error) {
	return Parse(defaultModel)
}

// Load reads an artifact from fs.
func Load(fs afero.Fs, path string) (*Forest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read classifier model: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates an artifact.
func Parse(data []byte) (*Forest, error) {
	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if err := model.validate(); err != nil {
		return nil, err
	}
	return &Forest{model: model}, nil
}

// Version returns the artifact version string.
func (f *Forest) Version() string {
	return f.model.Version
}

// Provider identifies the prediction backend.
func (f *Forest) Provider() string {
	return ProviderName
}

// Predict returns the label voted by the majority of trees.
func (f *Forest) Predict(ctx context.Context, features Features) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	values := features.Values()
	votes := make([]int, len(f.model.Classes))
	for i := range f.model.Trees {
		votes[f.model.Trees[i].classify(values)]++
	}

	best := 0
	for class := 1; class < len(votes); class++ {
		if votes[class] > votes[best] {
			best = class
		}
	}
	return f.model.Classes[best], nil
}

func (n *Node) classify(values map[string]float64) int {
	node := n
	for node.Class == nil {
		if values[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return *node.Class
}

func (m Model) validate() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("%w: no classes", ErrInvalidModel)
	}
	if len(m.Trees) == 0 {
		return fmt.Errorf("%w: no trees", ErrInvalidModel)
	}

	known := make(map[string]struct{}, len(m.Features))
	for _, name := range m.Features {
		if _, ok := (Features{}).Values()[name]; !ok {
			return fmt.Errorf("%w: unknown feature %q", ErrInvalidModel, name)
		}
		known[name] = struct{}{}
	}

	for i := range m.Trees {
		if err := m.Trees[i].validate(known, len(m.Classes)); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func (n *Node) validate(known map[string]struct{}, classes int) error {
	if n.Class != nil {
		if *n.Class < 0 || *n.Class >= classes {
			return fmt.Errorf("%w: class index %d out of range", ErrInvalidModel, *n.Class)
		}
		return nil
	}
	if _, ok := known[n.Feature]; !ok {
		return fmt.Errorf("%w: split on undeclared feature %q", ErrInvalidModel, n.Feature)
	}
	if n.Left == nil || n.Right == nil {
		return fmt.Errorf("%w: split on %q is missing a branch", ErrInvalidModel, n.Feature)
	}
	if err := n.Left.validate(known, classes); err != nil {
		return err
	}
	return n.Right.validate(known, classes)
}
