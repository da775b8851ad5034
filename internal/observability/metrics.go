package observability

import (
	"context"
	"fmt"
	"time"

	"jobpilot/internal/ai"
	"jobpilot/internal/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the jobpilot_* instruments. A nil *Metrics records nothing.
type Metrics struct {
	custom config.CustomMetricsConfig

	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Lifecycle metrics
	ApplicationsCreated metric.Int64Counter
	TestsAcquired       metric.Int64Counter
	TestsSubmitted      metric.Int64Counter
	TestScore           metric.Int64Histogram
	StatusStale         metric.Int64Counter
	JobSearches         metric.Int64Counter
	ResumesUploaded     metric.Int64Counter

	// Infrastructure metrics
	RateLimitHits   metric.Int64Counter
	CertReloadCount metric.Int64Counter
}

// NewMetrics creates all instruments on meter
func NewMetrics(meter metric.Meter, custom config.CustomMetricsConfig) (*Metrics, error) {
	m := &Metrics{custom: custom}

	if err := m.createAIMetrics(meter); err != nil {
		return nil, err
	}
	if err := m.createLifecycleMetrics(meter); err != nil {
		return nil, err
	}
	if err := m.createInfrastructureMetrics(meter); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) createAIMetrics(meter metric.Meter) error {
	var err error

	m.AIProcessingTime, err = meter.Float64Histogram(
		"jobpilot_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	m.AIRequestCount, err = meter.Int64Counter(
		"jobpilot_ai_requests_total",
		metric.WithDescription("Total number of AI requests"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	m.AIErrorCount, err = meter.Int64Counter(
		"jobpilot_ai_errors_total",
		metric.WithDescription("Total number of AI request errors"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	m.AITokenUsage, err = meter.Int64Histogram(
		"jobpilot_ai_token_usage",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return fmt.Errorf("failed to create AI token usage metric: %w", err)
	}
	return nil
}

func (m *Metrics) createLifecycleMetrics(meter metric.Meter) error {
	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&m.ApplicationsCreated, "jobpilot_applications_created_total", "Total number of job applications created"},
		{&m.TestsAcquired, "jobpilot_tests_acquired_total", "Tests handed out, by type and mode"},
		{&m.TestsSubmitted, "jobpilot_tests_submitted_total", "Tests completed, by type and grade"},
		{&m.StatusStale, "jobpilot_status_stale_total", "Submissions whose application status could not be updated"},
		{&m.JobSearches, "jobpilot_job_searches_total", "Total number of job searches"},
		{&m.ResumesUploaded, "jobpilot_resumes_uploaded_total", "Total number of resumes uploaded"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.description))
		if err != nil {
			return fmt.Errorf("failed to create %s metric: %w", c.name, err)
		}
		*c.target = counter
	}

	var err error
	m.TestScore, err = meter.Int64Histogram(
		"jobpilot_test_score_percent",
		metric.WithDescription("Score of completed tests as a percentage"),
		metric.WithUnit("%"),
	)
	if err != nil {
		return fmt.Errorf("failed to create test score metric: %w", err)
	}
	return nil
}

func (m *Metrics) createInfrastructureMetrics(meter metric.Meter) error {
	var err error

	m.RateLimitHits, err = meter.Int64Counter(
		"jobpilot_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	m.CertReloadCount, err = meter.Int64Counter(
		"jobpilot_cert_reloads_total",
		metric.WithDescription("Total number of certificate reloads"),
	)
	if err != nil {
		return fmt.Errorf("failed to create certificate reload count metric: %w", err)
	}
	return nil
}

// RecordAIOperation records one AI call. It satisfies ai.UsageRecorder.
func (m *Metrics) RecordAIOperation(ctx context.Context, operation string, duration time.Duration, usage *ai.TokenUsage, err error) {
	if m == nil || !m.custom.AIOperations {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}
	m.AIProcessingTime.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}

	if usage == nil || !m.custom.TrackTokenUsage {
		return
	}
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		m.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", tt.tokenType),
		))
	}
}

// RecordApplicationCreated counts a new application
func (m *Metrics) RecordApplicationCreated(ctx context.Context) {
	if m == nil || !m.custom.Lifecycle {
		return
	}
	m.ApplicationsCreated.Add(ctx, 1)
}

// RecordTestAcquired counts a test handed out in mode (in_progress or review)
func (m *Metrics) RecordTestAcquired(ctx context.Context, testType, mode string) {
	if m == nil || !m.custom.Lifecycle {
		return
	}
	m.TestsAcquired.Add(ctx, 1, metric.WithAttributes(
		attribute.String("test_type", testType),
		attribute.String("mode", mode),
	))
}

// RecordTestSubmitted counts a completed test and its score
func (m *Metrics) RecordTestSubmitted(ctx context.Context, testType string, percentage int, grade string, stale bool) {
	if m == nil || !m.custom.Lifecycle {
		return
	}
	attrs := metric.WithAttributes(attribute.String("test_type", testType))
	m.TestsSubmitted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("test_type", testType),
		attribute.String("grade", grade),
	))
	m.TestScore.Record(ctx, int64(percentage), attrs)
	if stale {
		m.StatusStale.Add(ctx, 1, attrs)
	}
}

// RecordJobSearch counts a job search by kind (company_role or skills)
func (m *Metrics) RecordJobSearch(ctx context.Context, kind string, err error) {
	if m == nil || !m.custom.Lifecycle {
		return
	}
	m.JobSearches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("success", err == nil),
	))
}

// RecordResumeUpload counts an upload and whether parsing failed
func (m *Metrics) RecordResumeUpload(ctx context.Context, parseFailed bool) {
	if m == nil || !m.custom.Lifecycle {
		return
	}
	m.ResumesUploaded.Add(ctx, 1, metric.WithAttributes(attribute.Bool("parse_failed", parseFailed)))
}

// RecordRateLimitHit counts a rejected request
func (m *Metrics) RecordRateLimitHit(ctx context.Context, limitBy string) {
	if m == nil || !m.custom.Infrastructure {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limit_by", limitBy)))
}

// RecordCertReload counts a certificate reload attempt
func (m *Metrics) RecordCertReload(ctx context.Context, success bool) {
	if m == nil || !m.custom.Infrastructure {
		return
	}
	m.CertReloadCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}
