// Package resume handles resume uploads: storing the file, extracting its
// text and recording the fields the AI parser pulls out of it.
package resume

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobpilot/internal/errors"
	"jobpilot/internal/extract"
	"jobpilot/internal/storage"
	"jobpilot/internal/store"
	"jobpilot/internal/types"
)

// DefaultMaxUploadSize bounds an uploaded file when no limit is configured
const DefaultMaxUploadSize int64 = 10 << 20

// Repository persists resume records. *store.Store implements it.
type Repository interface {
	CreateResume(ctx context.Context, r *types.Resume) error
	GetResume(ctx context.Context, ownerID, id string) (*types.Resume, error)
	ListResumes(ctx context.Context, ownerID string) ([]types.Resume, error)
	DeleteResume(ctx context.Context, ownerID, id string) error
}

// Parser extracts structured fields from resume text. *ai.Service implements it.
type Parser interface {
	ParseResume(ctx context.Context, text string) (*types.ParsedResume, error)
}

// Upload is a file received from a user
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// UploadResult reports the stored resume. ParseFailed is set when the file
// was saved but its fields could not be extracted.
type UploadResult struct {
	Resume      *types.Resume `json:"resume"`
	ParseFailed bool          `json:"parseFailed"`
	Message     string        `json:"message"`
}

// Service implements resume upload, listing and deletion
type Service struct {
	repo    Repository
	files   storage.Store
	parser  Parser
	logger  *errors.Logger
	baseURL string
	maxSize int64

	now   func() time.Time
	newID func() string
}

// NewService creates a resume service. baseURL is the storage public base
// URL used to map stored URLs back to object keys.
func NewService(repo Repository, files storage.Store, parser Parser, logger *errors.Logger, baseURL string, maxSize int64) *Service {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	return &Service{
		repo:    repo,
		files:   files,
		parser:  parser,
		logger:  logger,
		baseURL: baseURL,
		maxSize: maxSize,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Upload stores the file, extracts and parses its text, and saves the
// resume. A parse failure is not fatal: the resume is kept with empty
// fields and ParseFailed is reported.
func (s *Service) Upload(ctx context.Context, ownerID string, up Upload) (*UploadResult, error) {
	if !extract.Supported(up.ContentType) {
		return nil, errors.NewValidationError(errors.ErrCodeUnsupportedFile,
			"Please upload a PDF, Word document, or text file", nil).WithContext("content_type", up.ContentType)
	}
	if len(up.Data) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "file is empty", nil)
	}
	if int64(len(up.Data)) > s.maxSize {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("file exceeds the %d byte limit", s.maxSize), nil)
	}

	now := s.now()
	key := storage.ObjectKey(ownerID, extract.Extension(up.ContentType), now)
	url, err := s.files.Put(ctx, key, up.Data, up.ContentType)
	if err != nil {
		s.logger.LogError(err, "Resume upload failed", "key", key)
		return nil, err
	}

	res := &types.Resume{
		ID:         s.newID(),
		UserID:     ownerID,
		FileName:   fileName(up.FileName, key),
		FileURL:    url,
		Skills:     []string{},
		Experience: []types.Experience{},
		Education:  []types.Education{},
		CreatedAt:  now,
	}

	text, parsed, parseErr := s.extractAndParse(ctx, up)
	res.RawText = text
	if parseErr == nil {
		res.Skills = nonNil(parsed.Skills)
		res.Experience = nonNil(parsed.Experience)
		res.Education = nonNil(parsed.Education)
		res.Summary = parsed.Summary
	}

	if err := s.repo.CreateResume(ctx, res); err != nil {
		if delErr := s.files.Delete(ctx, key); delErr != nil {
			s.logger.LogError(delErr, "Failed to remove orphaned resume file", "key", key)
		}
		return nil, errors.NewStorageError(errors.ErrCodePersistenceFailed, "failed to save resume", err)
	}

	result := &UploadResult{Resume: res, Message: fmt.Sprintf("Extracted %d skills", len(res.Skills))}
	if parseErr != nil {
		s.logger.LogError(parseErr, "Resume saved without parsed fields", "resume_id", res.ID)
		result.ParseFailed = true
		result.Message = errors.UserMessage(errors.NewValidationError(errors.ErrCodeParseFailed, "", nil))
	}
	s.logger.Info("Resume uploaded", "resume_id", res.ID, "parse_failed", result.ParseFailed)
	return result, nil
}

func (s *Service) extractAndParse(ctx context.Context, up Upload) (string, *types.ParsedResume, error) {
	text, err := extract.Text(up.ContentType, up.Data)
	if err != nil {
		return "", nil, err
	}
	if text == "" {
		return "", nil, errors.NewValidationError(errors.ErrCodeParseFailed, "no text found in file", nil)
	}
	parsed, err := s.parser.ParseResume(ctx, text)
	if err != nil {
		return text, nil, errors.NewAIError(errors.ErrCodeParseFailed, "failed to parse resume", err)
	}
	return text, parsed, nil
}

// Parse extracts fields from text without storing anything
func (s *Service) Parse(ctx context.Context, text string) (*types.ParsedResume, error) {
	return s.parser.ParseResume(ctx, text)
}

// List returns ownerID's resumes, newest first
func (s *Service) List(ctx context.Context, ownerID string) ([]types.Resume, error) {
	resumes, err := s.repo.ListResumes(ctx, ownerID)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodePersistenceFailed, "failed to list resumes", err)
	}
	return resumes, nil
}

// Get returns one resume owned by ownerID
func (s *Service) Get(ctx context.Context, ownerID, id string) (*types.Resume, error) {
	res, err := s.repo.GetResume(ctx, ownerID, id)
	if err != nil {
		return nil, mapStoreError(err, id)
	}
	return res, nil
}

// Delete removes the resume record and then its file. A file that cannot
// be removed is logged; the record is already gone.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.repo.GetResume(ctx, ownerID, id)
	if err != nil {
		return mapStoreError(err, id)
	}
	if err := s.repo.DeleteResume(ctx, ownerID, id); err != nil {
		return mapStoreError(err, id)
	}

	key := storage.KeyFromURL(res.FileURL, s.baseURL)
	if err := s.files.Delete(ctx, key); err != nil {
		s.logger.LogError(err, "Failed to delete resume file", "resume_id", id, "key", key)
	}
	s.logger.Info("Resume deleted", "resume_id", id)
	return nil
}

func mapStoreError(err error, id string) error {
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.NewNotFoundError(errors.ErrCodeNotFound, "resume not found", err).WithContext("resume_id", id)
	}
	return errors.NewStorageError(errors.ErrCodePersistenceFailed, "resume lookup failed", err).
		WithContext("resume_id", id)
}

func fileName(name, key string) string {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." || name == "/" {
		return filepath.Base(key)
	}
	return name
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
