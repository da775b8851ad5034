package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "jobpilot/internal/errors"
	"jobpilot/internal/lifecycle"
	"jobpilot/internal/observability"
	"jobpilot/internal/resume"
	"jobpilot/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func (s *Server) createUploadResumeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("jobpilot.api").Start(r.Context(), "api.resumes.upload")
		defer span.End()

		maxMemory := s.MaxRequestSize
		if maxMemory <= 0 {
			maxMemory = resume.DefaultMaxUploadSize
		}
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, r, "Invalid upload", "multipart form with a 'file' field is required", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, r, "Missing file", "multipart field 'file' is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, r, "Invalid upload", "failed to read uploaded file", http.StatusBadRequest)
			return
		}

		contentType := header.Header.Get("Content-Type")
		span.SetAttributes(
			attribute.String("resume.content_type", contentType),
			attribute.Int("resume.size", len(data)),
		)

		result, err := s.deps.Resumes.Upload(ctx, ownerID(ctx), resume.Upload{
			FileName:    header.Filename,
			ContentType: contentType,
			Data:        data,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "upload failed")
			s.writeAppError(w, r, err)
			return
		}

		s.deps.Metrics.RecordResumeUpload(ctx, result.ParseFailed)
		span.SetAttributes(attribute.Bool("resume.parse_failed", result.ParseFailed))
		s.writeJSON(w, http.StatusCreated, result)
	}
}

func (s *Server) listResumesHandler(w http.ResponseWriter, r *http.Request) {
	resumes, err := s.deps.Resumes.List(r.Context(), ownerID(r.Context()))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"resumes": resumes})
}

func (s *Server) deleteResumeHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Resumes.Delete(r.Context(), ownerID(r.Context()), r.PathValue("id")); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createParseResumeHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("jobpilot.api").Start(r.Context(), "api.resumes.parse")
		defer span.End()

		var req ParseResumeRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, r, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		span.SetAttributes(attribute.Int("request.resume_length", len(req.ResumeText)))

		parsed, err := s.deps.Resumes.Parse(ctx, req.ResumeText)
		if err != nil {
			span.RecordError(err)
			s.writeAppError(w, r, err)
			return
		}
		span.SetAttributes(attribute.Int("response.skills", len(parsed.Skills)))
		s.writeJSON(w, http.StatusOK, parsed)
	}
}

func (s *Server) createSearchJobsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("jobpilot.api").Start(r.Context(), "api.jobs.search")
		defer span.End()

		var req types.JobSearchRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, r, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		s.runSearch(w, r.WithContext(ctx), req)
	}
}

func (s *Server) createSuggestJobsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("jobpilot.api").Start(r.Context(), "api.jobs.suggest")
		defer span.End()

		var req SuggestJobsRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, r, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.ResumeID) == "" {
			writeErrorResponse(w, r, "Missing resume", "resumeId field is required", http.StatusBadRequest)
			return
		}

		res, err := s.deps.Resumes.Get(ctx, ownerID(ctx), req.ResumeID)
		if err != nil {
			span.RecordError(err)
			s.writeAppError(w, r, err)
			return
		}
		s.runSearch(w, r.WithContext(ctx), types.JobSearchRequest{Skills: res.Skills})
	}
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, req types.JobSearchRequest) {
	ctx := r.Context()
	kind := "skills"
	if req.Company != "" || req.Role != "" {
		kind = "company_role"
	}

	resp, err := s.deps.Jobs.Search(ctx, req)
	s.deps.Metrics.RecordJobSearch(ctx, kind, err)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createGenerateTestHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("jobpilot.api").Start(r.Context(), "api.tests.generate")
		defer span.End()

		var req types.GenerateTestInput
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, r, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		span.SetAttributes(
			attribute.String("test.type", string(req.TestType)),
			attribute.String("test.role", req.Role),
		)

		test, err := s.deps.Generator.GenerateTest(ctx, &req)
		if err != nil {
			span.RecordError(err)
			s.writeAppError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, test)
	}
}

func (s *Server) createApplicationHandler(w http.ResponseWriter, r *http.Request) {
	var req lifecycle.NewApplication
	if err := parseJSONRequest(r, &req); err != nil {
		writeErrorResponse(w, r, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	app, err := s.deps.Applications.CreateApplication(ctx, ownerID(ctx), req)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.deps.Metrics.RecordApplicationCreated(ctx)
	s.writeJSON(w, http.StatusCreated, app)
}

func (s *Server) listApplicationsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	views, err := s.deps.Applications.ListApplications(ctx, ownerID(ctx))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	for i := range views {
		for j := range views[i].Tests {
			views[i].Tests[j] = *redactTest(&views[i].Tests[j])
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"applications": views})
}

func (s *Server) updateStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := parseJSONRequest(r, &req); err != nil {
		writeErrorResponse(w, r, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if err := s.deps.Applications.UpdateStatus(ctx, ownerID(ctx), r.PathValue("id"), req.Status); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "status": req.Status})
}

func (s *Server) createAcquireTestHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("jobpilot.api").Start(r.Context(), "api.tests.acquire")
		defer span.End()

		testType := types.TestType(r.PathValue("type"))
		span.SetAttributes(
			attribute.String("application.id", r.PathValue("id")),
			attribute.String("test.type", string(testType)),
		)

		view, err := s.deps.Applications.AcquireTest(ctx, ownerID(ctx), r.PathValue("id"), testType)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "acquire failed")
			s.writeAppError(w, r, err)
			return
		}

		s.deps.Metrics.RecordTestAcquired(ctx, string(testType), string(view.Mode))
		span.SetAttributes(attribute.String("test.mode", string(view.Mode)))
		s.writeJSON(w, http.StatusOK, lifecycle.TestView{Mode: view.Mode, Test: redactTest(view.Test)})
	}
}

func (s *Server) createSubmitTestHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("jobpilot.api").Start(r.Context(), "api.tests.submit")
		defer span.End()

		var req SubmitTestRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, r, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		testType := types.TestType(r.PathValue("type"))
		if !testType.Valid() {
			s.writeAppError(w, r, apperrors.NewValidationError(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("unknown test type: %s", testType), nil))
			return
		}

		result, err := s.deps.Applications.SubmitTest(ctx, ownerID(ctx), r.PathValue("id"), testType, req.Answers)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "submit failed")
			s.writeAppError(w, r, err)
			return
		}

		s.deps.Metrics.RecordTestSubmitted(ctx, string(testType), result.Percentage, result.Grade, result.StatusStale)
		span.SetAttributes(
			attribute.Int("test.score", result.Score),
			attribute.Int("test.max_score", result.MaxScore),
			attribute.Bool("test.status_stale", result.StatusStale),
		)
		s.writeJSON(w, http.StatusOK, result)
	}
}

// redactTest hides quiz answers and explanations until the test is completed
func redactTest(t *types.Test) *types.Test {
	if t == nil || t.Completed() {
		return t
	}
	out := *t
	out.Questions = make([]types.Question, len(t.Questions))
	for i, q := range t.Questions {
		q.CorrectAnswer = ""
		q.Explanation = ""
		out.Questions[i] = q
	}
	return &out
}
