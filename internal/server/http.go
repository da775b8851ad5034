// Package server exposes the job search, resume and application lifecycle
// operations over HTTP.
package server

import (
	"context"
	"time"

	"jobpilot/internal/ai"
	"jobpilot/internal/config"
	"jobpilot/internal/errors"
	"jobpilot/internal/lifecycle"
	"jobpilot/internal/observability"
	"jobpilot/internal/resume"
	"jobpilot/internal/search"
	"jobpilot/internal/types"
)

// ParseResumeRequest is the body of POST /resumes/parse
type ParseResumeRequest struct {
	ResumeText string `json:"resumeText"`
}

// SuggestJobsRequest is the body of POST /jobs/suggest
type SuggestJobsRequest struct {
	ResumeID string `json:"resumeId"`
}

// UpdateStatusRequest is the body of PATCH /applications/{id}/status
type UpdateStatusRequest struct {
	Status types.ApplicationStatus `json:"status"`
}

// SubmitTestRequest is the body of POST /applications/{id}/tests/{type}/submit.
// Answer keys are question ids.
type SubmitTestRequest struct {
	Answers types.Answers `json:"answers"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Pinger checks that the database is reachable. *store.Store implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker reports the availability of an AI model. *ai.Service implements it.
type ModelChecker interface {
	GetModelInfo(ctx context.Context) *ai.ModelInfo
}

// Dependencies are the services the handlers call
type Dependencies struct {
	Applications *lifecycle.Manager
	Resumes      *resume.Service
	Jobs         *search.Service
	Generator    lifecycle.TestGenerator
	Database     Pinger
	Models       map[string]ModelChecker
	Breakers     map[string]func() map[string]any
	Metrics      *observability.Metrics
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	TLSConfig          config.TLSConfig
	CertificateManager *CertificateManager

	// API Authentication
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	deps   Dependencies
	Logger *errors.Logger
}

// NewServer creates a server for appCfg.Server
func NewServer(appCfg *config.Config, version string, deps Dependencies, logger *errors.Logger) *Server {
	cfg := appCfg.Server

	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	rateLimit := cfg.RateLimit
	var rateLimiter *RateLimiter
	if rateLimit.Enabled {
		rateLimiter = NewRateLimiter(rateLimit.RequestsPerMin, rateLimit.BurstCapacity, logger)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLS,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      &rateLimit,
		RateLimiter:    rateLimiter,
		deps:           deps,
		Logger:         logger,
	}
}
