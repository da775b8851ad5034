package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"jobpilot/internal/lifecycle"
	"jobpilot/internal/resume"
	"jobpilot/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("yaml", "any", &YAMLFormatter{})

	for _, s := range []style{{}, {markdown: true}} {
		format := s.name()
		registry.RegisterFormatter(format, "Applications", &ApplicationsFormatter{s})
		registry.RegisterFormatter(format, "TestView", &TestViewFormatter{s})
		registry.RegisterFormatter(format, "SubmitResult", &SubmitResultFormatter{s})
		registry.RegisterFormatter(format, "JobSearchResponse", &JobSearchFormatter{s})
		registry.RegisterFormatter(format, "Resumes", &ResumesFormatter{s})
		registry.RegisterFormatter(format, "UploadResult", &UploadFormatter{s})
	}

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case []lifecycle.ApplicationView:
		return "Applications"
	case *lifecycle.TestView:
		return "TestView"
	case *lifecycle.SubmitResult:
		return "SubmitResult"
	case *types.JobSearchResponse:
		return "JobSearchResponse"
	case []types.Resume:
		return "Resumes"
	case *resume.UploadResult:
		return "UploadResult"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// YAMLFormatter renders any value as YAML using its JSON field names
type YAMLFormatter struct{}

func (yf *YAMLFormatter) Format(data any) (string, error) {
	// round-trip through JSON so the keys match the API output
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	var generic any
	if err := json.Unmarshal(jsonData, &generic); err != nil {
		return "", err
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (yf *YAMLFormatter) SupportedType() string {
	return "any"
}

// style switches the human-readable formatters between plain text and markdown
type style struct {
	markdown bool
}

func (s style) name() string {
	if s.markdown {
		return "markdown"
	}
	return "text"
}

func (s style) title(b *strings.Builder, text string) {
	if s.markdown {
		fmt.Fprintf(b, "# %s\n\n", text)
		return
	}
	fmt.Fprintf(b, "=== %s ===\n\n", strings.ToUpper(text))
}

func (s style) section(b *strings.Builder, text string) {
	if s.markdown {
		fmt.Fprintf(b, "## %s\n\n", text)
		return
	}
	fmt.Fprintf(b, "--- %s ---\n", text)
}

func (s style) field(b *strings.Builder, label string, value any) {
	if s.markdown {
		fmt.Fprintf(b, "**%s:** %v\n\n", label, value)
		return
	}
	fmt.Fprintf(b, "%s: %v\n", label, value)
}

func (s style) item(b *strings.Builder, text string) {
	fmt.Fprintf(b, "- %s\n", text)
}

// ApplicationsFormatter lists applications with their test results
type ApplicationsFormatter struct{ style }

func (f *ApplicationsFormatter) Format(data any) (string, error) {
	apps, ok := data.([]lifecycle.ApplicationView)
	if !ok {
		return "", fmt.Errorf("expected []lifecycle.ApplicationView, got %T", data)
	}

	var b strings.Builder
	f.title(&b, "Applications")
	if len(apps) == 0 {
		b.WriteString("No applications yet.\n")
		return b.String(), nil
	}

	for _, app := range apps {
		f.section(&b, fmt.Sprintf("%s at %s", app.RoleTitle, app.CompanyName))
		f.field(&b, "ID", app.ID)
		f.field(&b, "Status", app.Status)
		if app.JobURL != "" {
			f.field(&b, "URL", app.JobURL)
		}
		for _, test := range app.Tests {
			if test.Score != nil {
				pct := lifecycle.Percentage(*test.Score, test.MaxScore)
				f.item(&b, fmt.Sprintf("%s test: %d/%d (%d%%, %s)", test.TestType, *test.Score, test.MaxScore,
					pct, lifecycle.Grade(*test.Score, test.MaxScore)))
			} else {
				f.item(&b, fmt.Sprintf("%s test: in progress", test.TestType))
			}
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (f *ApplicationsFormatter) SupportedType() string {
	return "Applications"
}

// TestViewFormatter prints a test. Answers and explanations are shown only
// for review mode.
type TestViewFormatter struct{ style }

func (f *TestViewFormatter) Format(data any) (string, error) {
	view, ok := data.(*lifecycle.TestView)
	if !ok || view == nil || view.Test == nil {
		return "", fmt.Errorf("expected *lifecycle.TestView, got %T", data)
	}
	test := view.Test
	review := view.Mode == lifecycle.ModeReview

	var b strings.Builder
	title := test.Title
	if title == "" {
		title = string(test.TestType) + " test"
	}
	f.title(&b, title)
	if test.Description != "" {
		b.WriteString(test.Description)
		b.WriteString("\n\n")
	}
	f.field(&b, "Mode", view.Mode)
	if test.TimeLimit > 0 {
		f.field(&b, "Time limit", fmt.Sprintf("%d minutes", test.TimeLimit))
	}
	if review && test.Score != nil {
		f.field(&b, "Score", fmt.Sprintf("%d/%d", *test.Score, test.MaxScore))
	}
	b.WriteString("\n")

	for _, q := range test.Questions {
		f.writeQuestion(&b, q, test, review)
	}
	return b.String(), nil
}

func (f *TestViewFormatter) writeQuestion(b *strings.Builder, q types.Question, test *types.Test, review bool) {
	heading := q.Question
	if test.TestType == types.TestTypeCoding {
		heading = q.Title
	}
	f.section(b, fmt.Sprintf("%d. %s", q.ID, heading))

	if q.Description != "" {
		b.WriteString(q.Description)
		b.WriteString("\n\n")
	}
	for _, opt := range q.Options {
		f.item(b, fmt.Sprintf("%s) %s", opt.ID, opt.Text))
	}
	for _, ex := range q.Examples {
		f.item(b, fmt.Sprintf("input: %s -> output: %s", ex.Input, ex.Output))
	}
	if q.StarterCode != "" {
		if f.markdown {
			fmt.Fprintf(b, "\n```\n%s\n```\n", q.StarterCode)
		} else {
			fmt.Fprintf(b, "\n%s\n", q.StarterCode)
		}
	}

	if review {
		if answer, ok := test.Answers[q.ID]; ok {
			f.field(b, "Your answer", answer)
		}
		if q.CorrectAnswer != "" {
			f.field(b, "Correct answer", q.CorrectAnswer)
		}
		if q.Explanation != "" {
			f.field(b, "Explanation", q.Explanation)
		}
	}
	b.WriteString("\n")
}

func (f *TestViewFormatter) SupportedType() string {
	return "TestView"
}

// SubmitResultFormatter prints a graded submission
type SubmitResultFormatter struct{ style }

func (f *SubmitResultFormatter) Format(data any) (string, error) {
	result, ok := data.(*lifecycle.SubmitResult)
	if !ok || result == nil {
		return "", fmt.Errorf("expected *lifecycle.SubmitResult, got %T", data)
	}

	var b strings.Builder
	f.title(&b, "Test Result")
	f.field(&b, "Score", fmt.Sprintf("%d/%d", result.Score, result.MaxScore))
	f.field(&b, "Percentage", fmt.Sprintf("%d%%", result.Percentage))
	f.field(&b, "Grade", result.Grade)
	if result.StatusStale {
		b.WriteString("\nThe test was saved, but the application status could not be updated.\n")
	}
	return b.String(), nil
}

func (f *SubmitResultFormatter) SupportedType() string {
	return "SubmitResult"
}

// JobSearchFormatter prints the real listings of a search
type JobSearchFormatter struct{ style }

func (f *JobSearchFormatter) Format(data any) (string, error) {
	resp, ok := data.(*types.JobSearchResponse)
	if !ok || resp == nil {
		return "", fmt.Errorf("expected *types.JobSearchResponse, got %T", data)
	}

	var b strings.Builder
	f.title(&b, "Job Search")
	f.field(&b, "Query", resp.Query)
	f.field(&b, "Found", resp.TotalFound)
	if resp.Summary != "" {
		b.WriteString("\n")
		b.WriteString(resp.Summary)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, job := range resp.Jobs {
		f.section(&b, fmt.Sprintf("%d. %s at %s", i+1, job.Role, job.Company))
		if job.Location != "" {
			f.field(&b, "Location", job.Location)
		}
		if job.Salary != "" {
			f.field(&b, "Salary", job.Salary)
		}
		if job.URL != "" {
			f.field(&b, "URL", job.URL)
		}
		for _, req := range job.Requirements {
			f.item(&b, req)
		}
		b.WriteString("\n")
	}

	if len(resp.Suggestions) > 0 {
		f.section(&b, "Suggestions")
		for _, s := range resp.Suggestions {
			f.item(&b, s)
		}
	}
	return b.String(), nil
}

func (f *JobSearchFormatter) SupportedType() string {
	return "JobSearchResponse"
}

// ResumesFormatter lists stored resumes
type ResumesFormatter struct{ style }

func (f *ResumesFormatter) Format(data any) (string, error) {
	resumes, ok := data.([]types.Resume)
	if !ok {
		return "", fmt.Errorf("expected []types.Resume, got %T", data)
	}

	var b strings.Builder
	f.title(&b, "Resumes")
	if len(resumes) == 0 {
		b.WriteString("No resumes uploaded.\n")
		return b.String(), nil
	}
	for _, r := range resumes {
		f.section(&b, r.FileName)
		f.field(&b, "ID", r.ID)
		f.field(&b, "Uploaded", r.CreatedAt.Format("2006-01-02 15:04"))
		if len(r.Skills) > 0 {
			f.field(&b, "Skills", strings.Join(r.Skills, ", "))
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (f *ResumesFormatter) SupportedType() string {
	return "Resumes"
}

// UploadFormatter prints the outcome of a resume upload
type UploadFormatter struct{ style }

func (f *UploadFormatter) Format(data any) (string, error) {
	result, ok := data.(*resume.UploadResult)
	if !ok || result == nil || result.Resume == nil {
		return "", fmt.Errorf("expected *resume.UploadResult, got %T", data)
	}

	var b strings.Builder
	f.title(&b, "Resume Uploaded")
	f.field(&b, "ID", result.Resume.ID)
	f.field(&b, "File", result.Resume.FileURL)
	f.field(&b, "Result", result.Message)
	if len(result.Resume.Skills) > 0 {
		f.field(&b, "Skills", strings.Join(result.Resume.Skills, ", "))
	}
	return b.String(), nil
}

func (f *UploadFormatter) SupportedType() string {
	return "UploadResult"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
