// Package extract pulls plain text out of uploaded resume files.
package extract

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"jobpilot/internal/errors"
)

// Accepted resume content types
const (
	MimePDF  = "application/pdf"
	MimeDoc  = "application/msword"
	MimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
)

var extensions = map[string]string{
	MimePDF:  "pdf",
	MimeDoc:  "doc",
	MimeDocx: "docx",
	MimeText: "txt",
}

var (
	paragraphEnd = regexp.MustCompile(`</w:p>`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
	blankLines   = regexp.MustCompile(`\n{3,}`)
)

// Supported reports whether mime is an accepted resume type. Parameters
// such as "; charset=utf-8" are ignored.
func Supported(mime string) bool {
	_, ok := extensions[baseMime(mime)]
	return ok
}

// Extension returns the file extension stored for mime
func Extension(mime string) string {
	return extensions[baseMime(mime)]
}

// Text extracts the readable text of a resume. Legacy .doc files are
// accepted for storage but cannot be read, so they return a PARSE_FAILED
// error the caller can treat as non-fatal.
func Text(mime string, data []byte) (string, error) {
	switch baseMime(mime) {
	case MimeText:
		return strings.TrimSpace(string(data)), nil
	case MimePDF:
		return pdfText(data)
	case MimeDocx:
		return docxText(data)
	case MimeDoc:
		return "", errors.NewValidationError(errors.ErrCodeParseFailed,
			"legacy Word documents cannot be read", nil).WithContext("mime", mime)
	default:
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedFile,
			fmt.Sprintf("unsupported file type: %s", mime), nil)
	}
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeParseFailed, "failed to read pdf", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String()), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeParseFailed, "failed to parse docx", err)
	}
	defer doc.Close()

	return stripWordXML(doc.Editable().GetContent()), nil
}

// stripWordXML turns document.xml into plain text with one line per paragraph
func stripWordXML(content string) string {
	text := paragraphEnd.ReplaceAllString(content, "\n")
	text = xmlTag.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func baseMime(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}
