package search

import (
	"context"
	"time"

	"jobpilot/internal/errors"
	"jobpilot/internal/types"
)

// Searcher runs a raw web search
type Searcher interface {
	Search(ctx context.Context, query string) ([]types.SearchResult, error)
}

// Analyzer structures raw search results. *ai.Service implements it.
type Analyzer interface {
	AnalyzeJobs(ctx context.Context, input types.AnalyzeJobsInput) (*types.JobAnalysis, error)
}

// Service combines web search and AI analysis into a job search
type Service struct {
	searcher Searcher
	analyzer Analyzer
	logger   *errors.Logger
	now      func() time.Time
}

// NewService creates a job search service
func NewService(searcher Searcher, analyzer Analyzer, logger *errors.Logger) *Service {
	return &Service{
		searcher: searcher,
		analyzer: analyzer,
		logger:   logger,
		now:      time.Now,
	}
}

// Search finds job listings for req. Only listings the analysis marks as
// real jobs are returned and counted.
func (s *Service) Search(ctx context.Context, req types.JobSearchRequest) (*types.JobSearchResponse, error) {
	query, searchedFor, err := BuildQuery(req, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("Searching jobs", "query", query)
	results, err := s.searcher.Search(ctx, query)
	if err != nil {
		s.logger.LogError(err, "Job search failed", "query", query)
		return nil, errors.NewNetworkError(errors.ErrCodeSearchFailed, "job search failed", err)
	}
	s.logger.Info("Search results received", "count", len(results))

	analysis, err := s.analyzer.AnalyzeJobs(ctx, types.AnalyzeJobsInput{Query: searchedFor, Results: results})
	if err != nil {
		s.logger.LogError(err, "Job analysis failed", "query", query)
		return nil, errors.NewAIError(errors.ErrCodeSearchFailed, "job analysis failed", err)
	}

	jobs := RealJobs(analysis.Jobs)
	return &types.JobSearchResponse{
		Query:       query,
		Jobs:        jobs,
		TotalFound:  len(jobs),
		Summary:     analysis.Summary,
		Suggestions: analysis.Suggestions,
	}, nil
}

// RealJobs keeps listings flagged as real jobs, dropping repeats of the
// same company, role and URL
func RealJobs(listings []types.JobListing) []types.JobListing {
	jobs := make([]types.JobListing, 0, len(listings))
	seen := make(map[string]bool, len(listings))
	for _, job := range listings {
		if !job.IsRealJob {
			continue
		}
		key := normalizeKey(job.Company) + "|" + normalizeKey(job.Role) + "|" + normalizeKey(job.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		jobs = append(jobs, job)
	}
	return jobs
}
