package config

import (
	"time"

	"github.com/spf13/viper"
)

func setOperationDefaults(v *viper.Viper, op string, timeout time.Duration, retries int, temperature float64) {
	prefix := "ai." + op
	v.SetDefault(prefix+".provider", "gemini")
	v.SetDefault(prefix+".model", "")
	v.SetDefault(prefix+".timeout", timeout)
	v.SetDefault(prefix+".apiKey", "")
	v.SetDefault(prefix+".maxRetries", retries)
	v.SetDefault(prefix+".temperature", temperature)
	v.SetDefault(prefix+".useSystemPrompts", true)

	v.SetDefault(prefix+".circuitBreaker.enabled", true)
	v.SetDefault(prefix+".circuitBreaker.maxRequests", 3)
	v.SetDefault(prefix+".circuitBreaker.interval", 60*time.Second)
	v.SetDefault(prefix+".circuitBreaker.timeout", 60*time.Second)
	v.SetDefault(prefix+".circuitBreaker.minRequests", 3)
	v.SetDefault(prefix+".circuitBreaker.failureThreshold", 0.6)
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.maxRetries", 3)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.useSystemPrompts", true)

	setOperationDefaults(v, "parseResume", 60*time.Second, 2, 0.1)
	setOperationDefaults(v, "analyzeJobs", 75*time.Second, 2, 0.2)
	setOperationDefaults(v, "generateTest", 90*time.Second, 2, 0.7)

	// Database
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "file:jobpilot.db?_foreign_keys=on&_busy_timeout=5000")
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 30*time.Minute)
	v.SetDefault("database.autoMigrate", true)

	// Resume file storage
	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.localDir", "data/resumes")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.accessKeyId", "")
	v.SetDefault("storage.secretAccessKey", "")
	v.SetDefault("storage.publicBaseUrl", "")
	v.SetDefault("storage.maxUploadSize", 10*1024*1024)

	// Events
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.url", "")
	v.SetDefault("events.exchange", "application_updates")
	v.SetDefault("events.exchangeType", "topic")
	v.SetDefault("events.timeout", 5*time.Second)

	// Web search
	v.SetDefault("search.endpoint", "https://api.firecrawl.dev/v1/search")
	v.SetDefault("search.apiKey", "")
	v.SetDefault("search.limit", 10)
	v.SetDefault("search.contentLimit", 2000)
	v.SetDefault("search.timeRange", "qdr:m")
	v.SetDefault("search.timeout", 45*time.Second)
	v.SetDefault("search.circuitBreaker.enabled", true)
	v.SetDefault("search.circuitBreaker.maxRequests", 2)
	v.SetDefault("search.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("search.circuitBreaker.timeout", 30*time.Second)
	v.SetDefault("search.circuitBreaker.minRequests", 3)
	v.SetDefault("search.circuitBreaker.failureThreshold", 0.6)

	// Lifecycle
	v.SetDefault("lifecycle.generateTimeout", 2*time.Minute)
	v.SetDefault("lifecycle.storeTimeout", 10*time.Second)

	// Server
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 150*time.Second) // test generation can take a while
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 12*1024*1024)
	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.clientAuthPolicy", "require")
	v.SetDefault("server.tls.reload.enabled", true)
	v.SetDefault("server.tls.reload.debounceDelay", time.Second)
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "yaml", "text", "markdown"})

	// Vault
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")
	v.SetDefault("vault.secrets.searchKey", "")
	v.SetDefault("vault.secrets.database", "")
	v.SetDefault("vault.secrets.storage", "")
	v.SetDefault("vault.secrets.events", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "jobpilot")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.customMetrics.aiOperations", true)
	v.SetDefault("observability.customMetrics.lifecycle", true)
	v.SetDefault("observability.customMetrics.infrastructure", true)
	v.SetDefault("observability.customMetrics.trackTokenUsage", true)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
	v.SetDefault("observability.healthCheck.aiModelCheckTimeout", 10*time.Second)
}
