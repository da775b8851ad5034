package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"jobpilot/internal/errors"
)

// healthHandler reports database, AI model, circuit breaker and certificate status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.healthCheckTimeout())
	defer cancel()

	healthy := true
	response := map[string]any{
		"status":  "healthy",
		"service": "jobpilot",
		"version": s.Version,
	}

	if s.deps.Database != nil {
		db := map[string]any{"available": true}
		if err := s.deps.Database.Ping(ctx); err != nil {
			db["available"] = false
			db["error"] = err.Error()
			healthy = false
		}
		response["database"] = db
	}

	if len(s.deps.Models) > 0 {
		models := make(map[string]any, len(s.deps.Models))
		for op, checker := range s.deps.Models {
			info := checker.GetModelInfo(ctx)
			models[op] = info
			if info == nil || !info.Available {
				healthy = false
			}
		}
		response["ai_models"] = models
	}

	if len(s.deps.Breakers) > 0 {
		breakers := make(map[string]any, len(s.deps.Breakers))
		for name, stats := range s.deps.Breakers {
			breakers[name] = stats()
		}
		response["circuit_breakers"] = breakers
	}

	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if ok, _ := certStatus["healthy"].(bool); !ok {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, response)
}

func (s *Server) healthCheckTimeout() time.Duration {
	if s.AppConfig != nil && s.AppConfig.Observability.HealthCheck.Timeout > 0 {
		return s.AppConfig.Observability.HealthCheck.Timeout
	}
	return 10 * time.Second
}

// checkCertificateHealth classifies the serving certificate by time to expiry
func (s *Server) checkCertificateHealth() map[string]any {
	if s.CertificateManager == nil {
		return nil
	}

	timeToExpiry, err := s.CertificateManager.CheckExpiry()
	if err != nil {
		return map[string]any{
			"healthy": false,
			"error":   fmt.Sprintf("Failed to check certificate expiry: %v", err),
		}
	}

	certStatus := map[string]any{
		"time_to_expiry_hours": int(timeToExpiry.Hours()),
		"auto_reload":          s.TLSConfig.Reload.Enabled,
		"metrics":              s.CertificateManager.Stats(),
	}
	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
	case timeToExpiry <= 24*time.Hour:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
	case timeToExpiry <= 7*24*time.Hour:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
	}
	return certStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "jobpilot",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"api_keys_configured":    len(s.APIKeys),
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if len(s.deps.Breakers) > 0 {
		breakers := make(map[string]any, len(s.deps.Breakers))
		for name, stats := range s.deps.Breakers {
			breakers[name] = stats()
		}
		response["circuit_breakers"] = breakers
	}

	s.writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest decodes a JSON body into v, rejecting unknown fields
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.LogError(err, "Failed to encode response")
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, r *http.Request, title, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:     title,
		Message:   message,
		RequestID: requestID(r.Context()),
	})
}

// writeAppError maps err to its HTTP status and user-facing message
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed", "path", r.URL.Path, "request_id", requestID(r.Context()))
	}

	title := http.StatusText(status)
	if appErr, ok := errors.AsAppError(err); ok {
		title = appErr.Code
	}
	writeErrorResponse(w, r, title, userMessage(err), status)
}

var codeStatus = map[string]int{
	errors.ErrCodeNotFound:          http.StatusNotFound,
	errors.ErrCodeFileNotFound:      http.StatusNotFound,
	errors.ErrCodeGenerationFailed:  http.StatusBadGateway,
	errors.ErrCodeAlreadyCompleted:  http.StatusConflict,
	errors.ErrCodePersistenceFailed: http.StatusInternalServerError,
	errors.ErrCodeStorageFailed:     http.StatusInternalServerError,
	errors.ErrCodeSearchFailed:      http.StatusBadGateway,
	errors.ErrCodeInvalidQuestion:   http.StatusBadRequest,
	errors.ErrCodeInvalidStatus:     http.StatusBadRequest,
	errors.ErrCodeInvalidRequest:    http.StatusBadRequest,
	errors.ErrCodeUnsupportedFile:   http.StatusUnsupportedMediaType,
	errors.ErrCodeAIServiceFailed:   http.StatusBadGateway,
	errors.ErrCodeInvalidFormat:     http.StatusBadGateway,
	errors.ErrCodeAITimeout:         http.StatusGatewayTimeout,
	errors.ErrCodeMissingAPIKey:     http.StatusServiceUnavailable,
}

// httpStatus picks the status for err. An upstream rate limit anywhere in
// the chain wins over the wrapping kind.
func httpStatus(err error) int {
	if errors.HasCode(err, errors.ErrCodeAIRateLimited) {
		return http.StatusTooManyRequests
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if status, ok := codeStatus[appErr.Code]; ok {
		return status
	}
	switch appErr.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeConflict:
		return http.StatusConflict
	case errors.ErrorTypeAI, errors.ErrorTypeNetwork:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// userMessage names the missing entity for NOT_FOUND errors
func userMessage(err error) string {
	appErr, ok := errors.AsAppError(err)
	if ok && appErr.Code == errors.ErrCodeNotFound && appErr.Message != "" {
		msg := appErr.Message
		return strings.ToUpper(msg[:1]) + msg[1:] + "."
	}
	return errors.UserMessage(err)
}
