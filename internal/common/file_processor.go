package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"jobpilot/internal/errors"
	"jobpilot/internal/resume"
	"jobpilot/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger *errors.Logger
}

// NewFileProcessor creates a new file processor instance
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil && fp.logger != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return content, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ReadUpload validates a local resume file and packages it for upload.
// The content type comes from the file extension.
func (fp *FileProcessor) ReadUpload(filename string) (resume.Upload, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		return resume.Upload{}, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	contentType := utils.ContentType(filename)
	if contentType == "" {
		return resume.Upload{}, errors.NewValidationError(errors.ErrCodeUnsupportedFile,
			fmt.Sprintf("Unsupported file type: %s", filename), nil)
	}

	data, err := fp.ReadFile(filename)
	if err != nil {
		return resume.Upload{}, err
	}

	if fp.logger != nil {
		fp.logger.Debug("Read resume file", "filename", filename,
			"content_type", contentType, "size", utils.FormatFileSize(int64(len(data))))
	}
	return resume.Upload{
		FileName:    filepath.Base(filename),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
