package ai

import (
	"context"
	"time"

	"jobpilot/internal/types"
)

// Provider is implemented by each AI backend. Every call reports token
// usage; callers can ignore it.
type Provider interface {
	ParseResume(ctx context.Context, input types.ParseResumeInput) (types.ParsedResume, *TokenUsage, error)
	AnalyzeJobs(ctx context.Context, input types.AnalyzeJobsInput) (types.JobAnalysis, *TokenUsage, error)
	GenerateTest(ctx context.Context, input types.GenerateTestInput) (types.GeneratedTest, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// UsageRecorder receives the outcome of every AI call
type UsageRecorder interface {
	RecordAIOperation(ctx context.Context, operation string, duration time.Duration, usage *TokenUsage, err error)
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
