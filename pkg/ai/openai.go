package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/learning-gap-api/pkg/classifier"
)

// ProviderName identifies predictions made through OpenAI.
const ProviderName = "openai"

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "learngap",
		Subsystem: "ai",
		Name:      "risk_prediction_duration_seconds",
		Help:      "Duration of AI risk prediction requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "learngap",
		Subsystem: "ai",
		Name:      "risk_prediction_failures_total",
		Help:      "Number of AI risk prediction failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI classifier.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIClassifier implements RiskClassifier against the chat completion API.
type OpenAIClassifier struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIClassifier builds a classifier using the provided configuration.
func NewOpenAIClassifier(cfg OpenAIConfig) (*OpenAIClassifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 64
	}

	tracer := otel.Tracer("github.com/noah-isme/learning-gap-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(config)

	return &OpenAIClassifier{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger.With().Str("component", "openai_classifier").Logger(),
	}, nil
}

// Provider identifies the prediction backend.
func (c *OpenAIClassifier) Provider() string {
	return ProviderName
}

// Predict asks the model to pick one of RiskLabels for the features.
func (c *OpenAIClassifier) Predict(parent context.Context, features classifier.Features) (string, error) {
	ctx, span := c.tracer.Start(parent, "openai.predict_risk", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: riskSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildUserPrompt(features),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := c.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(c.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", c.fail(span, fmt.Errorf("openai predict: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", c.fail(span, fmt.Errorf("no choices returned from openai"))
	}

	label, err := parseRiskResponse(strings.TrimSpace(resp.Choices[0].Message.Content))
	if err != nil {
		return "", c.fail(span, err)
	}

	span.SetAttributes(attribute.String("risk.label", label))
	c.logger.Debug().Str("label", label).Int("total_tokens", resp.Usage.TotalTokens).Msg("risk predicted")
	return label, nil
}

func (c *OpenAIClassifier) fail(span trace.Span, err error) error {
	aiFailures.WithLabelValues(c.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func riskSystemPrompt() string {
	return "You assess whether a school student is at risk of falling behind. Respond with a JSON object " +
		"containing a single field label whose value is exactly one of: " + strings.Join(RiskLabels, ", ") + "."
}

func buildUserPrompt(features classifier.Features) string {
	builder := strings.Builder{}
	builder.WriteString("# Student indicators\n")
	fmt.Fprintf(&builder, "- days absent: %g\n", features.DaysAbsent)
	fmt.Fprintf(&builder, "- missed topics: %g\n", features.MissedTopics)
	fmt.Fprintf(&builder, "- average marks: %g\n", features.AvgMarks)
	fmt.Fprintf(&builder, "- difficulty score: %g\n", features.DifficultyScore)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseRiskResponse(content string) (string, error) {
	var data struct {
		Label string `json:"label"`
	}
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return "", fmt.Errorf("parse risk json: %w", err)
	}

	answer := strings.TrimSpace(data.Label)
	for _, label := range RiskLabels {
		if strings.EqualFold(answer, label) {
			return label, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnexpectedLabel, data.Label)
}
