package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"jobpilot/internal/config"
	"jobpilot/internal/errors"
	"jobpilot/internal/types"
)

// Service handles one AI operation with its own provider and settings
type Service struct {
	Provider  Provider
	config    *config.OperationAIConfig
	operation string
	recorder  UsageRecorder
	logger    *errors.Logger
}

// NewService creates a new AI service instance with configuration for a specific operation
func NewService(cfg *config.OperationAIConfig, operation string, logger *errors.Logger) (*Service, error) {
	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation", operation,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries,
		"use_system_prompts", *cfg.UseSystemPrompts)

	if cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			fmt.Sprintf("AI API key is required for %s (set GEMINI_API_KEY or ai.apiKey)", operation), nil)
	}

	var provider Provider
	var err error
	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, operation, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create AI provider", err)
	}

	return NewServiceWithProvider(provider, cfg, operation, logger), nil
}

// NewServiceWithProvider wraps an existing provider
func NewServiceWithProvider(provider Provider, cfg *config.OperationAIConfig, operation string, logger *errors.Logger) *Service {
	return &Service{
		Provider:  provider,
		config:    cfg,
		operation: operation,
		logger:    logger,
	}
}

// SetRecorder attaches a recorder for durations and token usage
func (s *Service) SetRecorder(r UsageRecorder) {
	s.recorder = r
}

// Operation returns the operation name the service was built for
func (s *Service) Operation() string {
	return s.operation
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

func (s *Service) record(ctx context.Context, start time.Time, usage *TokenUsage, err error) {
	if s.recorder != nil {
		s.recorder.RecordAIOperation(ctx, s.operation, time.Since(start), usage, err)
	}
}

// ParseResume extracts structured fields from resume text
func (s *Service) ParseResume(ctx context.Context, text string) (*types.ParsedResume, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Resume text is required", nil)
	}

	start := time.Now()
	parsed, usage, err := s.Provider.ParseResume(ctx, types.ParseResumeInput{ResumeText: text})
	s.record(ctx, start, usage, err)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// AnalyzeJobs structures search results into job listings
func (s *Service) AnalyzeJobs(ctx context.Context, input types.AnalyzeJobsInput) (*types.JobAnalysis, error) {
	start := time.Now()
	analysis, usage, err := s.Provider.AnalyzeJobs(ctx, input)
	s.record(ctx, start, usage, err)
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// GenerateTest asks the model for a test. Role and test type are required.
func (s *Service) GenerateTest(ctx context.Context, input *types.GenerateTestInput) (*types.GeneratedTest, error) {
	if strings.TrimSpace(input.Role) == "" || input.TestType == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Role and test type are required", nil)
	}
	if !input.TestType.Valid() {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Unknown test type: %s", input.TestType), nil)
	}

	start := time.Now()
	generated, usage, err := s.Provider.GenerateTest(ctx, *input)
	s.record(ctx, start, usage, err)
	if err != nil {
		return nil, err
	}
	if len(generated.Questions) == 0 {
		return nil, errors.NewAIError(errors.ErrCodeInvalidFormat, "AI response contained no questions", nil)
	}

	s.logger.Debug("Generated test",
		"test_type", input.TestType,
		"role", input.Role,
		"questions", len(generated.Questions))
	return &generated, nil
}
