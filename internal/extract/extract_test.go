package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobpilot/internal/errors"
)

func TestSupported(t *testing.T) {
	tests := []struct {
		mime string
		want bool
		ext  string
	}{
		{MimePDF, true, "pdf"},
		{MimeDoc, true, "doc"},
		{MimeDocx, true, "docx"},
		{MimeText, true, "txt"},
		{"text/plain; charset=utf-8", true, "txt"},
		{"image/png", false, ""},
		{"", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, Supported(tt.mime))
			assert.Equal(t, tt.ext, Extension(tt.mime))
		})
	}
}

func TestText_PlainText(t *testing.T) {
	text, err := Text(MimeText, []byte("  Jane Doe\nGo developer\n"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nGo developer", text)
}

func TestText_Failures(t *testing.T) {
	tests := []struct {
		name string
		mime string
		data []byte
		code string
	}{
		{"unsupported type", "image/png", []byte("x"), errors.ErrCodeUnsupportedFile},
		{"legacy word", MimeDoc, []byte("x"), errors.ErrCodeParseFailed},
		{"corrupt pdf", MimePDF, []byte("not a pdf"), errors.ErrCodeParseFailed},
		{"corrupt docx", MimeDocx, []byte("not a zip"), errors.ErrCodeParseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Text(tt.mime, tt.data)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestStripWordXML(t *testing.T) {
	xml := `<w:document><w:body><w:p><w:r><w:t>Jane &amp; Co</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Senior Engineer</w:t></w:r></w:p></w:body></w:document>`

	assert.Equal(t, "Jane & Co\nSenior Engineer", stripWordXML(xml))
}
