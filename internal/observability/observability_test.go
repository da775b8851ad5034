package observability

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"jobpilot/internal/ai"
	"jobpilot/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var allMetrics = config.CustomMetricsConfig{
	AIOperations:    true,
	Lifecycle:       true,
	Infrastructure:  true,
	TrackTokenUsage: true,
}

func newTestMetrics(t *testing.T, custom config.CustomMetricsConfig) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), custom)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func counterTotal(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_ImplementsUsageRecorder(t *testing.T) {
	var _ ai.UsageRecorder = (*Metrics)(nil)
}

func TestRecordAIOperation(t *testing.T) {
	m, reader := newTestMetrics(t, allMetrics)
	ctx := context.Background()

	usage := &ai.TokenUsage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150}
	m.RecordAIOperation(ctx, "generateTest", 2*time.Second, usage, nil)
	m.RecordAIOperation(ctx, "generateTest", time.Second, nil, stderrors.New("boom"))

	got := collect(t, reader)
	assert.Equal(t, int64(2), counterTotal(t, got["jobpilot_ai_requests_total"]))
	assert.Equal(t, int64(1), counterTotal(t, got["jobpilot_ai_errors_total"]))

	tokens, ok := got["jobpilot_ai_token_usage"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	assert.Len(t, tokens.DataPoints, 3)
}

func TestLifecycleMetrics(t *testing.T) {
	m, reader := newTestMetrics(t, allMetrics)
	ctx := context.Background()

	m.RecordApplicationCreated(ctx)
	m.RecordTestAcquired(ctx, "quiz", "in_progress")
	m.RecordTestSubmitted(ctx, "quiz", 70, "Good Job!", true)
	m.RecordJobSearch(ctx, "skills", nil)
	m.RecordResumeUpload(ctx, true)

	got := collect(t, reader)
	for _, name := range []string{
		"jobpilot_applications_created_total",
		"jobpilot_tests_acquired_total",
		"jobpilot_tests_submitted_total",
		"jobpilot_status_stale_total",
		"jobpilot_job_searches_total",
		"jobpilot_resumes_uploaded_total",
	} {
		assert.Equal(t, int64(1), counterTotal(t, got[name]), name)
	}
}

func TestMetrics_DisabledGroups(t *testing.T) {
	m, reader := newTestMetrics(t, config.CustomMetricsConfig{})
	ctx := context.Background()

	m.RecordAIOperation(ctx, "parseResume", time.Second, nil, nil)
	m.RecordApplicationCreated(ctx)
	m.RecordRateLimitHit(ctx, "ip")

	got := collect(t, reader)
	assert.NotContains(t, got, "jobpilot_ai_requests_total")
	assert.NotContains(t, got, "jobpilot_applications_created_total")
	assert.NotContains(t, got, "jobpilot_rate_limit_hits_total")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordAIOperation(ctx, "analyzeJobs", time.Second, nil, nil)
		m.RecordTestSubmitted(ctx, "coding", 100, "Excellent!", false)
		m.RecordCertReload(ctx, true)
	})
}

func TestDisabledManager(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{Enabled: false})
	require.NoError(t, err)

	assert.Nil(t, om.Metrics())
	assert.Nil(t, om.MetricsServer())
	assert.NotNil(t, om.Tracer("test"))
	assert.NoError(t, om.Shutdown(context.Background()))
}

func TestGetObservabilityConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.ServiceName = "jobpilot"
	cfg.Observability.Enabled = true
	cfg.Observability.Prometheus.Enabled = true
	cfg.Observability.Metrics.Enabled = false

	got := GetObservabilityConfig(cfg, "1.2.3")
	assert.Equal(t, "1.2.3", got.ServiceVersion)
	assert.False(t, got.Prometheus.Enabled, "prometheus follows metrics.enabled")

	fallback := GetObservabilityConfig(nil, "dev")
	assert.Equal(t, "jobpilot", fallback.ServiceName)
	assert.True(t, fallback.CustomMetrics.Lifecycle)
}
