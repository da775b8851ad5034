package ai

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"jobpilot/internal/config"
	"jobpilot/internal/errors"
	"jobpilot/internal/resilience"
	"jobpilot/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const modelCheckTimeout = 10 * time.Second

// generateFunc matches genai's Models.GenerateContent
type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client       *genai.Client
	generate     generateFunc
	config       *config.OperationAIConfig
	operation    string
	breaker      *resilience.Breaker[*genai.GenerateContentResponse]
	modelBreaker *resilience.Breaker[*genai.Model]
	retryDelay   time.Duration
	logger       *errors.Logger
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini provider for one operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operation string, logger *errors.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create Gemini client", err)
	}

	p := newGeminiProvider(cfg, operation, logger, client.Models.GenerateContent)
	p.client = client
	return p, nil
}

func newGeminiProvider(cfg *config.OperationAIConfig, operation string, logger *errors.Logger, generate generateFunc) *GeminiProvider {
	// model lookups are less critical, so their breaker is more lenient
	modelCB := cfg.CircuitBreaker
	modelCB.MinRequests = 5
	modelCB.FailureThreshold = 0.8

	return &GeminiProvider{
		generate:     generate,
		config:       cfg,
		operation:    operation,
		breaker:      resilience.NewBreaker[*genai.GenerateContentResponse]("AI-"+operation, cfg.CircuitBreaker, logger),
		modelBreaker: resilience.NewBreaker[*genai.Model]("AI-Model-"+operation, modelCB, logger),
		retryDelay:   time.Second,
		logger:       logger,
	}
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: g.config.Model}
	if g.client == nil {
		info.Error = "client not initialized"
		return info
	}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"operation", g.operation,
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version
	return info
}

// CircuitBreakerStats returns both breakers' statistics
func (g *GeminiProvider) CircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.breaker.Stats(),
		"model_operations": g.modelBreaker.Stats(),
		"overall_healthy":  g.breaker.Healthy() && g.modelBreaker.Healthy(),
	}
}

// isRetryableError reports whether err is transient: network failures and
// rate limit or server errors from the API
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	switch statusCode(err) {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// statusCode extracts the HTTP status from genai or googleapi errors
func statusCode(err error) int {
	var genaiErr genai.APIError
	if stderrors.As(err, &genaiErr) {
		return genaiErr.Code
	}
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// classifyError turns a failed call into the matching AppError
func classifyError(operation string, err error) *errors.AppError {
	switch {
	case statusCode(err) == http.StatusTooManyRequests:
		return errors.NewAIError(errors.ErrCodeAIRateLimited, "Rate limit exceeded for "+operation, err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewAIError(errors.ErrCodeAITimeout, "Timed out waiting for "+operation, err)
	default:
		return errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to generate content for "+operation, err)
	}
}

// executeAIOperation runs one structured generation with tracing, the
// circuit breaker and retries, and decodes the JSON reply into Out
func executeAIOperation[Out any](
	ctx context.Context,
	g *GeminiProvider,
	userPrompt string,
	systemPrompt string,
	schema *genai.Schema,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("jobpilot.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+g.operation)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if g.config.Timeout != nil && *g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *g.config.Timeout)
		defer cancel()
	}

	genaiConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if *g.config.Temperature > 0 {
		genaiConfig.Temperature = g.config.Temperature
	}
	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	policy := resilience.RetryPolicy{
		Operation:  g.operation,
		MaxRetries: *g.config.MaxRetries,
		BaseDelay:  g.retryDelay,
		MaxDelay:   30 * time.Second,
		Retryable:  isRetryableError,
		Logger:     g.logger,
	}
	result, err := g.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return resilience.Retry(ctx, policy, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
			return g.generate(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, classifyError(g.operation, err)
	}

	if err := json.Unmarshal([]byte(cleanJSON(result.Text())), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, errors.NewAIError(errors.ErrCodeInvalidFormat, "Failed to parse AI response for "+g.operation, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// cleanJSON strips a markdown code fence that some models wrap around JSON
// output even when a JSON response type is requested
func cleanJSON(text string) string {
	clean := strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(clean, "```json"); ok {
		clean = rest
	} else if rest, ok := strings.CutPrefix(clean, "```"); ok {
		clean = rest
	}
	clean = strings.TrimSuffix(strings.TrimSpace(clean), "```")
	return strings.TrimSpace(clean)
}

// ParseResume extracts skills, experience and education from resume text
func (g *GeminiProvider) ParseResume(ctx context.Context, input types.ParseResumeInput) (types.ParsedResume, *TokenUsage, error) {
	systemPrompt, userPrompt := parseResumePrompts(g.config.Prompts, input)

	output, usage, err := executeAIOperation[types.ParsedResume](ctx, g, userPrompt, systemPrompt,
		parseResumeSchema(),
		attribute.Int("input.resume_length", len(input.ResumeText)),
	)
	if err != nil {
		return types.ParsedResume{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("output.skills", len(output.Skills)))
	}
	return output, usage, nil
}

// AnalyzeJobs structures raw search results into job listings
func (g *GeminiProvider) AnalyzeJobs(ctx context.Context, input types.AnalyzeJobsInput) (types.JobAnalysis, *TokenUsage, error) {
	systemPrompt, userPrompt := analyzeJobsPrompts(g.config.Prompts, input)

	output, usage, err := executeAIOperation[types.JobAnalysis](ctx, g, userPrompt, systemPrompt,
		analyzeJobsSchema(),
		attribute.Int("input.results", len(input.Results)),
	)
	if err != nil {
		return types.JobAnalysis{}, nil, err
	}
	return output, usage, nil
}

// GenerateTest produces a quiz or a set of coding challenges
func (g *GeminiProvider) GenerateTest(ctx context.Context, input types.GenerateTestInput) (types.GeneratedTest, *TokenUsage, error) {
	systemPrompt, userPrompt := generateTestPrompts(g.config.Prompts, input)

	output, usage, err := executeAIOperation[types.GeneratedTest](ctx, g, userPrompt, systemPrompt,
		generateTestSchema(input.TestType),
		attribute.String("input.test_type", string(input.TestType)),
		attribute.Int("input.requirements", len(input.Requirements)),
	)
	if err != nil {
		return types.GeneratedTest{}, nil, err
	}
	return output, usage, nil
}

// Close implements Provider. The genai client holds no resources in
// single-shot mode.
func (g *GeminiProvider) Close() error {
	return nil
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
