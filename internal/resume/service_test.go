package resume

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobpilot/internal/config"
	"jobpilot/internal/errors"
	"jobpilot/internal/extract"
	"jobpilot/internal/storage"
	"jobpilot/internal/store"
	"jobpilot/internal/types"
)

type fakeParser struct {
	result *types.ParsedResume
	err    error
	texts  []string
}

func (f *fakeParser) ParseResume(_ context.Context, text string) (*types.ParsedResume, error) {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fixture struct {
	svc    *Service
	repo   *store.Store
	fs     afero.Fs
	parser *fakeParser
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repo, err := store.Open(ctx, config.DatabaseConfig{
		Driver: "sqlite3",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	require.NoError(t, repo.Migrate(ctx))

	fs := afero.NewMemMapFs()
	parser := &fakeParser{result: &types.ParsedResume{
		Skills:     []string{"Go", "SQL"},
		Experience: []types.Experience{{Company: "Acme", Role: "Engineer"}},
		Summary:    "Backend engineer",
	}}
	logger := errors.NewLoggerTo(io.Discard, slog.LevelError)
	svc := NewService(repo, storage.NewFSStoreOn(fs, ""), parser, logger, "", 1024)
	svc.now = func() time.Time { return time.UnixMilli(1718000000000) }
	return &fixture{svc: svc, repo: repo, fs: fs, parser: parser}
}

func TestUpload_TextResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.Upload(ctx, "user-1", Upload{
		FileName:    "jane.txt",
		ContentType: extract.MimeText,
		Data:        []byte("Jane Doe\nGo, SQL"),
	})
	require.NoError(t, err)

	assert.False(t, result.ParseFailed)
	assert.Equal(t, "Extracted 2 skills", result.Message)
	assert.Equal(t, "jane.txt", result.Resume.FileName)
	assert.Equal(t, "file:///user-1/1718000000000.txt", result.Resume.FileURL)
	assert.Equal(t, []string{"Jane Doe\nGo, SQL"}, f.parser.texts)

	exists, err := afero.Exists(f.fs, "user-1/1718000000000.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	stored, err := f.svc.Get(ctx, "user-1", result.Resume.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "SQL"}, stored.Skills)
	assert.Equal(t, "Backend engineer", stored.Summary)
}

func TestUpload_ParseFailureStillSaves(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		parserErr   error
	}{
		{"parser error", extract.MimeText, stderrors.New("model unavailable")},
		{"legacy word document", extract.MimeDoc, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.parser.err = tt.parserErr

			result, err := f.svc.Upload(context.Background(), "user-1", Upload{
				FileName:    "resume",
				ContentType: tt.contentType,
				Data:        []byte("some resume content"),
			})
			require.NoError(t, err)

			assert.True(t, result.ParseFailed)
			assert.Equal(t, "Resume saved, but it could not be parsed.", result.Message)
			assert.Empty(t, result.Resume.Skills)

			list, err := f.svc.List(context.Background(), "user-1")
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Empty(t, list[0].Skills)
		})
	}
}

func TestUpload_Rejects(t *testing.T) {
	tests := []struct {
		name string
		up   Upload
		code string
	}{
		{"image", Upload{FileName: "a.png", ContentType: "image/png", Data: []byte("x")}, errors.ErrCodeUnsupportedFile},
		{"empty", Upload{FileName: "a.txt", ContentType: extract.MimeText}, errors.ErrCodeInvalidRequest},
		{"too large", Upload{FileName: "a.txt", ContentType: extract.MimeText, Data: make([]byte, 2048)}, errors.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Upload(context.Background(), "user-1", tt.up)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
			assert.Empty(t, f.parser.texts)
		})
	}
}

func TestDelete_RemovesFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.Upload(ctx, "user-1", Upload{FileName: "cv.txt", ContentType: extract.MimeText, Data: []byte("cv")})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, "user-2", result.Resume.ID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound), "other users cannot delete")

	require.NoError(t, f.svc.Delete(ctx, "user-1", result.Resume.ID))

	exists, err := afero.Exists(f.fs, "user-1/1718000000000.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.svc.Get(ctx, "user-1", result.Resume.ID)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "cv.pdf", fileName("../../cv.pdf", "u/1.pdf"))
	assert.Equal(t, "1.pdf", fileName("", "u/1.pdf"))
}
