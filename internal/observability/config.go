package observability

import (
	"jobpilot/internal/config"
)

// GetObservabilityConfig creates observability config from provided config
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			ServiceName:    "jobpilot",
			ServiceVersion: version,
			Enabled:        true,
			SampleRate:     1.0,
			CustomMetrics: config.CustomMetricsConfig{
				AIOperations:    true,
				Lifecycle:       true,
				Infrastructure:  true,
				TrackTokenUsage: true,
			},
			Prometheus: PrometheusConfig{Enabled: true, Endpoint: "/metrics", Port: "9090"},
		}
	}

	obs := cfg.Observability

	// Use app version if service version not specified
	serviceVersion := obs.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}

	return ObservabilityConfig{
		ServiceName:     obs.ServiceName,
		ServiceVersion:  serviceVersion,
		ServiceInstance: obs.ServiceInstance,
		Enabled:         obs.Enabled,
		ConsoleOutput:   obs.ConsoleOutput,
		PrettyPrint:     obs.Console.PrettyPrint,
		SampleRate:      obs.SampleRate,
		Interval:        obs.Metrics.CollectionInterval,
		CustomMetrics:   obs.CustomMetrics,
		Prometheus: PrometheusConfig{
			Enabled:  obs.Prometheus.Enabled && obs.Metrics.Enabled,
			Endpoint: obs.Prometheus.Endpoint,
			Port:     obs.Prometheus.Port,
		},
		OTLP: obs.OTLP,
	}
}
