package ai

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"jobpilot/internal/config"
	"jobpilot/internal/errors"
	"jobpilot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func ptr[T any](v T) *T { return &v }

var testLogger = errors.NewLoggerTo(io.Discard, slog.LevelError)

func testOperationConfig() *config.OperationAIConfig {
	return &config.OperationAIConfig{
		Provider:         "gemini",
		Model:            "gemini-2.0-flash",
		Timeout:          ptr(5 * time.Second),
		APIKey:           "test-key",
		MaxRetries:       ptr(2),
		Temperature:      ptr(float32(0.2)),
		UseSystemPrompts: ptr(true),
	}
}

func textResponse(body string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: body}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     120,
			CandidatesTokenCount: 30,
			TotalTokenCount:      150,
		},
	}
}

// scriptedGenerate replays errors then a final response, capturing the
// request config
type scriptedGenerate struct {
	errs     []error
	response *genai.GenerateContentResponse
	calls    int
	config   *genai.GenerateContentConfig
	prompt   string
}

func (s *scriptedGenerate) fn(_ context.Context, _ string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.calls++
	s.config = cfg
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		s.prompt = contents[0].Parts[0].Text
	}
	if s.calls <= len(s.errs) {
		return nil, s.errs[s.calls-1]
	}
	return s.response, nil
}

func newTestProvider(script *scriptedGenerate, cfg *config.OperationAIConfig) *GeminiProvider {
	p := newGeminiProvider(cfg, config.OperationGenerateTest, testLogger, script.fn)
	p.retryDelay = time.Millisecond
	return p
}

func TestGenerateTestDecodesResponse(t *testing.T) {
	script := &scriptedGenerate{response: textResponse(`{
		"title": "Backend Quiz",
		"description": "Go and SQL",
		"timeLimitMinutes": 15,
		"questions": [
			{"id": 1, "question": "What is a goroutine?", "difficulty": "easy",
			 "options": [{"id": "a", "text": "A thread"}, {"id": "b", "text": "A lightweight thread"}],
			 "correctAnswer": "b"}
		]
	}`)}
	p := newTestProvider(script, testOperationConfig())

	out, usage, err := p.GenerateTest(context.Background(), types.GenerateTestInput{
		Role:         "Backend Engineer",
		Company:      "Acme",
		Requirements: []string{"Go", "SQL"},
		TestType:     types.TestTypeQuiz,
	})
	require.NoError(t, err)
	assert.Equal(t, "Backend Quiz", out.Title)
	assert.Equal(t, 15, out.TimeLimitMinutes)
	require.Len(t, out.Questions, 1)
	assert.Equal(t, 1, out.Questions[0].ID)
	assert.Equal(t, "b", out.Questions[0].CorrectAnswer)

	require.NotNil(t, usage)
	assert.EqualValues(t, 150, usage.TotalTokens)

	assert.Equal(t, "application/json", script.config.ResponseMIMEType)
	require.NotNil(t, script.config.SystemInstruction)
	assert.Contains(t, script.config.ResponseSchema.Properties["questions"].Items.Properties, "correctAnswer")
	assert.Contains(t, script.prompt, "10 multiple choice questions for the Backend Engineer position at Acme")
	assert.Contains(t, script.prompt, "Key requirements: Go, SQL")
}

func TestParseResumeUsesConfiguredPrompts(t *testing.T) {
	cfg := testOperationConfig()
	cfg.UseSystemPrompts = ptr(false)
	cfg.Prompts = config.PromptConfig{User: "Extract from:\n%s"}

	script := &scriptedGenerate{response: textResponse(`{"skills":["Go"],"experience":[],"education":[],"summary":"Engineer"}`)}
	p := newTestProvider(script, cfg)

	out, _, err := p.ParseResume(context.Background(), types.ParseResumeInput{ResumeText: "Jane Doe, Go developer"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, out.Skills)
	assert.Equal(t, "Extract from:\nJane Doe, Go developer", script.prompt)
	assert.Nil(t, script.config.SystemInstruction)
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\r\n{\"a\":1}```", `{"a":1}`},
		{"surrounding space", "  \n```json {\"a\":1} ```\n ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.input))
		})
	}
}

func TestParseResumeAcceptsFencedJSON(t *testing.T) {
	script := &scriptedGenerate{response: textResponse("```json\n{\"skills\":[\"Go\",\"SQL\"],\"summary\":\"Engineer\"}\n```")}
	p := newTestProvider(script, testOperationConfig())

	out, _, err := p.ParseResume(context.Background(), types.ParseResumeInput{ResumeText: "Jane Doe"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "SQL"}, out.Skills)
	assert.Equal(t, "Engineer", out.Summary)
}

func TestAnalyzeJobsRendersResults(t *testing.T) {
	script := &scriptedGenerate{response: textResponse(`{"jobs":[{"company":"Acme","role":"SRE","url":"https://acme.io/jobs/1","isRealJob":true}],"summary":"1 job"}`)}
	p := newTestProvider(script, testOperationConfig())

	out, _, err := p.AnalyzeJobs(context.Background(), types.AnalyzeJobsInput{
		Query:   "Acme - SRE",
		Results: []types.SearchResult{{URL: "https://acme.io/jobs/1", Title: "SRE at Acme", Content: "We are hiring"}},
	})
	require.NoError(t, err)
	require.Len(t, out.Jobs, 1)
	assert.True(t, out.Jobs[0].IsRealJob)
	assert.Contains(t, script.prompt, "Search was for: Acme - SRE")
	assert.Contains(t, script.prompt, "--- Result 1 ---\nURL: https://acme.io/jobs/1")
}

func TestProviderErrors(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		response  *genai.GenerateContentResponse
		wantCode  string
		wantCalls int
	}{
		{
			name:      "retries transient errors",
			errs:      []error{genai.APIError{Code: http.StatusServiceUnavailable}},
			response:  textResponse(`{"skills":[],"experience":[],"education":[],"summary":""}`),
			wantCalls: 2,
		},
		{
			name:      "rate limit after retries",
			errs:      []error{genai.APIError{Code: 429}, genai.APIError{Code: 429}, genai.APIError{Code: 429}},
			wantCode:  errors.ErrCodeAIRateLimited,
			wantCalls: 3,
		},
		{
			name:      "client errors are not retried",
			errs:      []error{&googleapi.Error{Code: http.StatusBadRequest}},
			wantCode:  errors.ErrCodeAIServiceFailed,
			wantCalls: 1,
		},
		{
			name:      "malformed json",
			response:  textResponse(`not json`),
			wantCode:  errors.ErrCodeInvalidFormat,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := &scriptedGenerate{errs: tt.errs, response: tt.response}
			p := newTestProvider(script, testOperationConfig())

			_, _, err := p.ParseResume(context.Background(), types.ParseResumeInput{ResumeText: "text"})
			assert.Equal(t, tt.wantCalls, script.calls)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{stderrors.New("plain"), false},
		{genai.APIError{Code: 500}, true},
		{genai.APIError{Code: 404}, false},
		{&googleapi.Error{Code: 502}, true},
		{&googleapi.Error{Code: 401}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isRetryableError(tt.err), "%v", tt.err)
	}
}

func TestCircuitBreakerStats(t *testing.T) {
	cfg := testOperationConfig()
	cfg.CircuitBreaker = config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      3,
		FailureThreshold: 0.6,
	}
	p := newGeminiProvider(cfg, "generateTest", testLogger, (&scriptedGenerate{}).fn)

	stats := p.CircuitBreakerStats()
	aiStats := stats["ai_operations"].(map[string]any)
	modelStats := stats["model_operations"].(map[string]any)
	assert.Equal(t, "AI-generateTest", aiStats["name"])
	assert.Equal(t, "AI-Model-generateTest", modelStats["name"])
	assert.Equal(t, true, stats["overall_healthy"])
}

func TestTestBrief(t *testing.T) {
	coding := testBrief(types.GenerateTestInput{Role: "Data Engineer", TestType: types.TestTypeCoding})
	assert.True(t, strings.HasPrefix(coding, "Generate a test of 3 coding challenges for the Data Engineer position."))
	assert.Contains(t, coding, "Focus on skills relevant to: Data Engineer")
	assert.NotContains(t, coding, "Key requirements")

	system, _ := generateTestPrompts(config.PromptConfig{}, types.GenerateTestInput{TestType: types.TestTypeCoding})
	assert.Equal(t, defaultCodingSystem, system)
}
