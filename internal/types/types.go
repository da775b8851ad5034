package types

import "time"

// ParseResumeInput represents the input for parsing a resume
type ParseResumeInput struct {
	ResumeText string `json:"resumeText"`
}

// Experience is one position extracted from a resume
type Experience struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	Duration    string `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
}

// Education is one degree extracted from a resume
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field,omitempty"`
	Year        string `json:"year,omitempty"`
}

// ParsedResume represents the structured fields extracted from a resume
type ParsedResume struct {
	Skills     []string     `json:"skills"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Summary    string       `json:"summary"`
}

// SearchResult is a single hit returned by the web search API
type SearchResult struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// AnalyzeJobsInput represents the input for structuring raw search results
type AnalyzeJobsInput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// JobListing represents one job extracted from search results
type JobListing struct {
	Company      string   `json:"company"`
	Role         string   `json:"role"`
	Location     string   `json:"location,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
	Salary       string   `json:"salary,omitempty"`
	URL          string   `json:"url"`
	IsRealJob    bool     `json:"isRealJob"`
	Description  string   `json:"description,omitempty"`
}

// JobAnalysis represents the AI's structured view of the search results
type JobAnalysis struct {
	Jobs        []JobListing `json:"jobs"`
	Summary     string       `json:"summary"`
	Suggestions []string     `json:"suggestions,omitempty"`
}

// JobSearchRequest is either a company/role search or a skills search
type JobSearchRequest struct {
	Company string   `json:"company,omitempty"`
	Role    string   `json:"role,omitempty"`
	Skills  []string `json:"skills,omitempty"`
}

// JobSearchResponse holds only genuine listings
type JobSearchResponse struct {
	Query       string       `json:"query"`
	Jobs        []JobListing `json:"jobs"`
	TotalFound  int          `json:"totalFound"`
	Summary     string       `json:"summary"`
	Suggestions []string     `json:"suggestions,omitempty"`
}

// TestType is the kind of generated assessment
type TestType string

const (
	TestTypeQuiz   TestType = "quiz"
	TestTypeCoding TestType = "coding"
)

// Valid reports whether t is a known test type
func (t TestType) Valid() bool {
	return t == TestTypeQuiz || t == TestTypeCoding
}

// Option is one choice of a quiz question
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// CodeExample is an input/output pair for a coding challenge
type CodeExample struct {
	Input       string `json:"input"`
	Output      string `json:"output"`
	Explanation string `json:"explanation,omitempty"`
}

// Question carries either a quiz question or a coding challenge. Quiz
// questions use Question, Options and CorrectAnswer; coding challenges use
// Title, Description, Examples, StarterCode, ExpectedComplexity and Hints.
type Question struct {
	ID         int    `json:"id"`
	Difficulty string `json:"difficulty,omitempty"`

	Question      string   `json:"question,omitempty"`
	Options       []Option `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`

	Title              string        `json:"title,omitempty"`
	Description        string        `json:"description,omitempty"`
	Examples           []CodeExample `json:"examples,omitempty"`
	StarterCode        string        `json:"starterCode,omitempty"`
	ExpectedComplexity string        `json:"expectedComplexity,omitempty"`
	Hints              []string      `json:"hints,omitempty"`
}

// GenerateTestInput represents the input for generating a test
type GenerateTestInput struct {
	Role         string   `json:"role"`
	Company      string   `json:"company,omitempty"`
	Requirements []string `json:"requirements"`
	TestType     TestType `json:"testType"`
}

// GeneratedTest represents the output from the test generator
type GeneratedTest struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	TimeLimitMinutes int        `json:"timeLimitMinutes"`
	Questions        []Question `json:"questions"`
}

// ApplicationStatus is the application-level state tag
type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "pending"
	StatusApplied   ApplicationStatus = "applied"
	StatusTestTaken ApplicationStatus = "test_taken"
	StatusAccepted  ApplicationStatus = "accepted"
	StatusRejected  ApplicationStatus = "rejected"
)

// Valid reports whether s is a known status
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApplied, StatusTestTaken, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// JobApplication is a user's record of intent to pursue a listing
type JobApplication struct {
	ID             string            `json:"id"`
	UserID         string            `json:"userId"`
	ResumeID       *string           `json:"resumeId,omitempty"`
	CompanyName    string            `json:"companyName"`
	RoleTitle      string            `json:"roleTitle"`
	JobURL         string            `json:"jobUrl,omitempty"`
	JobDescription string            `json:"jobDescription,omitempty"`
	Requirements   []string          `json:"requirements"`
	Status         ApplicationStatus `json:"status"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// Answers maps question id to answer text
type Answers map[int]string

// Test is a generated assessment tied to one application and one type
type Test struct {
	ID            string     `json:"id"`
	ApplicationID string     `json:"applicationId"`
	UserID        string     `json:"userId"`
	TestType      TestType   `json:"testType"`
	Title         string     `json:"title,omitempty"`
	Description   string     `json:"description,omitempty"`
	TimeLimit     int        `json:"timeLimitMinutes,omitempty"`
	Questions     []Question `json:"questions"`
	Answers       Answers    `json:"answers,omitempty"`
	Score         *int       `json:"score,omitempty"`
	MaxScore      int        `json:"maxScore"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Completed reports whether the test has been submitted
func (t *Test) Completed() bool {
	return t.CompletedAt != nil
}

// Resume is an uploaded resume with its extracted fields
type Resume struct {
	ID         string       `json:"id"`
	UserID     string       `json:"userId"`
	FileName   string       `json:"fileName"`
	FileURL    string       `json:"fileUrl"`
	Skills     []string     `json:"skills"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Summary    string       `json:"summary,omitempty"`
	RawText    string       `json:"-"`
	CreatedAt  time.Time    `json:"createdAt"`
}
