package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"triage/internal/classify"
	"triage/internal/config"
	"triage/internal/feedback"
	"triage/internal/services"
)

// Config captures the runtime settings required to talk to the API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	TimeoutSeconds int
}

// FromAppConfig maps the application classifier section onto adapter config.
func FromAppConfig(cfg *config.Config) Config {
	if cfg == nil {
		return Config{}
	}
	return Config{
		APIKey:         cfg.Classifier.APIKey,
		BaseURL:        cfg.Classifier.BaseURL,
		Model:          cfg.Classifier.Model,
		MaxTokens:      cfg.Classifier.MaxTokens,
		TimeoutSeconds: cfg.Classifier.TimeoutSeconds,
	}
}

// Client wraps the Anthropic Messages API behind the classify ports.
type Client struct {
	cfg    Config
	client sdk.Client
}

// Option customizes the client.
type Option func(*Client)

// NewClient constructs an adapter using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.BaseURL))
	}

	c := &Client{
		cfg:    cfg,
		client: sdk.NewClient(requestOpts...),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify implements classify.Classifier.
func (c *Client) Classify(ctx context.Context, req classify.Request) (classify.Outcome, error) {
	var empty classify.Outcome
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return empty, services.Wrap(services.ErrValidation, "classify", "request", "text required", nil)
	}

	userPrompt := buildClassifyPrompt(text, req.Source, req.Context)
	content, err := c.completeJSON(ctx, classificationSystemPrompt, userPrompt)
	if err != nil {
		return empty, services.Wrap(services.ErrClassification, "classify", "complete", "classification call failed", err)
	}

	var parsed struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		return empty, services.Wrap(services.ErrClassification, "classify", "decode", "parse payload", err)
	}

	category, ok := feedback.ParseCategory(parsed.Category)
	if !ok || category == feedback.CategoryFailed {
		return empty, services.Wrap(services.ErrClassification, "classify", "decode",
			fmt.Sprintf("unknown category %q", parsed.Category), nil)
	}

	return classify.Outcome{
		Category:   category,
		Confidence: clampConfidence(parsed.Confidence),
		Reasoning:  strings.TrimSpace(parsed.Reasoning),
	}, nil
}

// AnalyzeBug implements the Bug half of classify.Analyzer.
func (c *Client) AnalyzeBug(ctx context.Context, text string) (classify.BugAnalysis, error) {
	var empty classify.BugAnalysis
	text = strings.TrimSpace(text)
	if text == "" {
		return empty, services.Wrap(services.ErrValidation, "specialize", "bug", "text required", nil)
	}

	content, err := c.completeJSON(ctx, bugAnalysisSystemPrompt, text)
	if err != nil {
		return empty, services.Wrap(services.ErrAnalysis, "specialize", "bug", "analysis call failed", err)
	}

	var parsed struct {
		Platform              string `json:"platform"`
		StepsToReproduce      string `json:"steps_to_reproduce"`
		Severity              string `json:"severity"`
		AffectedFunctionality string `json:"affected_functionality"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		return empty, services.Wrap(services.ErrAnalysis, "specialize", "bug", "parse payload", err)
	}

	severity, ok := normalizeSeverity(parsed.Severity)
	if !ok {
		return empty, services.Wrap(services.ErrAnalysis, "specialize", "bug",
			fmt.Sprintf("unknown severity %q", parsed.Severity), nil)
	}

	return classify.BugAnalysis{
		Platform:              strings.TrimSpace(parsed.Platform),
		StepsToReproduce:      strings.TrimSpace(parsed.StepsToReproduce),
		Severity:              severity,
		AffectedFunctionality: strings.TrimSpace(parsed.AffectedFunctionality),
	}, nil
}

// AnalyzeFeature implements the Feature Request half of classify.Analyzer.
func (c *Client) AnalyzeFeature(ctx context.Context, text string) (classify.FeatureAnalysis, error) {
	var empty classify.FeatureAnalysis
	text = strings.TrimSpace(text)
	if text == "" {
		return empty, services.Wrap(services.ErrValidation, "specialize", "feature", "text required", nil)
	}

	content, err := c.completeJSON(ctx, featureAnalysisSystemPrompt, text)
	if err != nil {
		return empty, services.Wrap(services.ErrAnalysis, "specialize", "feature", "analysis call failed", err)
	}

	var parsed struct {
		Summary   string `json:"summary"`
		Impact    string `json:"impact"`
		PainPoint string `json:"pain_point"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		return empty, services.Wrap(services.ErrAnalysis, "specialize", "feature", "parse payload", err)
	}
	if strings.TrimSpace(parsed.Summary) == "" {
		return empty, services.Wrap(services.ErrAnalysis, "specialize", "feature", "empty summary", nil)
	}

	impact, ok := normalizeImpact(parsed.Impact)
	if !ok {
		return empty, services.Wrap(services.ErrAnalysis, "specialize", "feature",
			fmt.Sprintf("unknown impact %q", parsed.Impact), nil)
	}

	return classify.FeatureAnalysis{
		Summary:   strings.TrimSpace(parsed.Summary),
		Impact:    impact,
		PainPoint: strings.TrimSpace(parsed.PainPoint),
	}, nil
}

// HealthCheck verifies the API key and model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "classify", "health", "api key required", nil)
	}
	content, err := c.completeJSON(ctx, "You must respond with JSON only.", `Respond with {"ok":true}`)
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(content, &parsed); err != nil {
		return fmt.Errorf("classifier health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("classifier health: unexpected response")
	}
	return nil
}

func (c *Client) completeJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "classify", "complete", "api key required", nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	message, err := c.client.Messages.New(callCtx, sdk.MessageNewParams{
		Model:     sdk.Model(c.cfg.Model),
		MaxTokens: int64(c.cfg.MaxTokens),
		System: []sdk.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "classify", "complete", "call exceeded deadline", err)
		}
		return "", err
	}

	for _, block := range message.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return block.Text, nil
		}
	}
	return "", errors.New("no text content in response")
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func normalizeSeverity(value string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "critical":
		return classify.SeverityCritical, true
	case "high":
		return classify.SeverityHigh, true
	case "medium":
		return classify.SeverityMedium, true
	case "low":
		return classify.SeverityLow, true
	default:
		return "", false
	}
}

func normalizeImpact(value string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "high":
		return classify.SeverityHigh, true
	case "medium":
		return classify.SeverityMedium, true
	case "low":
		return classify.SeverityLow, true
	default:
		return "", false
	}
}
