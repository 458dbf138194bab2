package classifier

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/navigator/internal/common"
	"github.com/ternarybob/navigator/internal/interfaces"
)

// Service implements the ClassifierService interface using the Anthropic
// Claude API. Text tasks use the configured model; vision tasks use the
// vision model when one is configured.
type Service struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    *anthropic.Client
	timeout   time.Duration
	maxTokens int
}

// NewService creates a new Claude classifier service instance.
func NewService(config *common.ClaudeConfig, logger arbor.ILogger) (*Service, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required for the classifier (set via ANTHROPIC_API_KEY, NAVIGATOR_CLAUDE_API_KEY, or claude.api_key in config)")
	}

	if config.Model == "" {
		config.Model = "claude-sonnet-4-20250514"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	service := &Service{
		config:    config,
		logger:    logger,
		client:    &client,
		timeout:   timeout,
		maxTokens: maxTokens,
	}

	logger.Debug().
		Str("model", config.Model).
		Dur("timeout", timeout).
		Int("max_tokens", maxTokens).
		Msg("Claude classifier service initialized")

	return service, nil
}

// Classify runs one classification call. Model failures and garbled output
// degrade to VerdictUncertain; a non-nil error means the call itself failed
// and may be retried.
func (s *Service) Classify(ctx context.Context, req *interfaces.ClassifyRequest) (*interfaces.Classification, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := buildPrompt(req)

	var blocks []anthropic.ContentBlockParamUnion
	if len(req.Screenshot) > 0 {
		encoded := base64.StdEncoding.EncodeToString(req.Screenshot)
		blocks = append(blocks, anthropic.NewImageBlockBase64("image/jpeg", encoded))
	}
	blocks = append(blocks, anthropic.NewTextBlock(prompt))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(s.modelFor(req)),
		MaxTokens: int64(s.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	}
	if s.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(s.config.Temperature))
	}

	startTime := time.Now()
	resp, err := s.client.Messages.New(timeoutCtx, params)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("task", string(req.Task)).
			Str("url", req.PageURL).
			Msg("Classifier API call failed")
		return nil, fmt.Errorf("classifier call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	result := parseResponse(req.Task, text.String())

	s.logger.Debug().
		Str("task", string(req.Task)).
		Str("url", req.PageURL).
		Str("verdict", string(result.Verdict)).
		Str("confidence", string(result.Confidence)).
		Dur("duration", time.Since(startTime)).
		Msg("Classification completed")

	return result, nil
}

// modelFor selects the vision model for screenshot tasks when configured.
func (s *Service) modelFor(req *interfaces.ClassifyRequest) string {
	if len(req.Screenshot) > 0 && s.config.VisionModel != "" {
		return s.config.VisionModel
	}
	return s.config.Model
}

// HealthCheck verifies the Claude API is reachable with a minimal probe.
func (s *Service) HealthCheck(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := s.client.Messages.New(probeCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: 16,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("classifier probe failed: %w", err)
	}
	if len(resp.Content) == 0 {
		return fmt.Errorf("classifier probe returned empty response")
	}
	return nil
}

func (s *Service) Close() error {
	s.logger.Debug().Msg("Closing classifier service")
	return nil
}
