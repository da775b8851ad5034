package common

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobpilot/internal/errors"
	"jobpilot/internal/extract"
	"jobpilot/internal/lifecycle"
)

func TestValidateOutputFormat(t *testing.T) {
	configured := []string{"json", "text", "markdown"}

	tests := []struct {
		name          string
		format        string
		supported     []string
		expectedError string
	}{
		{name: "json", format: "json", supported: configured},
		{name: "markdown", format: "markdown", supported: configured},
		{name: "yaml without restriction", format: "yaml"},
		{
			name:          "yaml not configured",
			format:        "yaml",
			supported:     configured,
			expectedError: "unsupported output format 'yaml'. Supported formats: [json text markdown]",
		},
		{
			name:          "case sensitive",
			format:        "JSON",
			supported:     configured,
			expectedError: "unsupported output format 'JSON'. Supported formats: [json text markdown]",
		},
		{
			name:          "configured but no formatter",
			format:        "xml",
			supported:     []string{"xml"},
			expectedError: "no formatter available for output format 'xml'",
		},
		{
			name:          "empty format",
			format:        "",
			expectedError: "no formatter available for output format ''",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.expectedError)
		})
	}
}

func TestGetSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json"}, GetSupportedFormats([]string{"json"}))
	assert.Equal(t, []string{"json", "markdown", "text", "yaml"}, GetSupportedFormats(nil))
}

func testLogger() *errors.Logger {
	return errors.NewLoggerTo(io.Discard, slog.LevelError)
}

func TestRunCommand(t *testing.T) {
	result := &lifecycle.SubmitResult{Score: 4, MaxScore: 5, Percentage: 80, Grade: "Excellent!"}
	op := func(context.Context) (*lifecycle.SubmitResult, error) { return result, nil }

	t.Run("stdout", func(t *testing.T) {
		var out bytes.Buffer
		err := RunCommand(context.Background(), testLogger(), CommandConfig{OutputFormat: "text"}, &out, op)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Grade: Excellent!")
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out", "result.json")
		var out bytes.Buffer
		err := RunCommand(context.Background(), testLogger(), CommandConfig{OutputFormat: "json", OutputFile: path}, &out, op)
		require.NoError(t, err)
		assert.Empty(t, out.String())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"grade": "Excellent!"`)
	})

	t.Run("operation error", func(t *testing.T) {
		var out bytes.Buffer
		failing := func(context.Context) (*lifecycle.SubmitResult, error) {
			return nil, errors.NewNotFoundError(errors.ErrCodeNotFound, "application not found", nil)
		}
		err := RunCommand(context.Background(), testLogger(), CommandConfig{OutputFormat: "text"}, &out, failing)
		assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
		assert.Empty(t, out.String())
	})
}

func TestReadUpload(t *testing.T) {
	dir := t.TempDir()
	fp := NewFileProcessor(testLogger())

	txt := filepath.Join(dir, "jane.md")
	require.NoError(t, os.WriteFile(txt, []byte("# Jane"), 0600))
	up, err := fp.ReadUpload(txt)
	require.NoError(t, err)
	assert.Equal(t, "jane.md", up.FileName)
	assert.Equal(t, extract.MimeText, up.ContentType)
	assert.Equal(t, []byte("# Jane"), up.Data)

	img := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(img, []byte{0x89}, 0600))
	_, err = fp.ReadUpload(img)
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnsupportedFile))

	_, err = fp.ReadUpload(filepath.Join(dir, "missing.pdf"))
	assert.True(t, errors.HasCode(err, "INVALID_INPUT_FILE"))
}
