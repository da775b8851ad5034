package ai

import (
	"fmt"
	"strings"

	"jobpilot/internal/config"
	"jobpilot/internal/types"
)

// Default system prompts. Custom prompts from config replace them.
const (
	defaultParseResumeSystem = `You are an expert resume parser. Extract structured information from resumes.

Return a JSON object with:
- skills: array of skill strings (technical and soft skills)
- experience: array of objects with {company, role, duration, description}
- education: array of objects with {institution, degree, field, year}
- summary: a brief 2-3 sentence professional summary

Be thorough and extract all relevant information. Never invent details that are not in the resume.`

	defaultAnalyzeJobsSystem = `You are a job search analyst. Analyze web search results and extract job listings.

For each job found, extract: company name, role title, location, requirements, salary (if available), and application URL.
Decide whether each result is a real, currently open job posting and set isRealJob accordingly. Aggregator pages, articles and
career advice are not real job postings.
Summarize what was found and, when few or no jobs were found, suggest how to improve the search.`

	defaultQuizSystem = `You are an expert interviewer. Generate multiple choice quiz questions for a job position.
Questions should test both technical knowledge and problem-solving skills.
Each question has exactly 4 options with ids "a", "b", "c" and "d", and only one correct answer.
correctAnswer holds the id of the correct option. Question ids are consecutive integers starting at 1.`

	defaultCodingSystem = `You are an expert technical interviewer. Generate coding challenges for a job position.
Create practical coding problems that test real-world skills.
Each problem has a clear problem statement, input/output examples, the expected time complexity and a starter code template.
Challenge ids are consecutive integers starting at 1.`
)

// Default user prompt templates. Each takes the placeholders documented on
// the builder that formats it.
const (
	defaultParseResumeUser = `Parse this resume and extract structured information:

%s`

	defaultAnalyzeJobsUser = `Analyze these search results and extract job listings.
Search was for: %s

Results:
%s`

	defaultGenerateTestUser = `%s
Make the questions progressively harder.`
)

// Question counts requested from the model
const (
	QuizQuestionCount   = 10
	CodingQuestionCount = 3
)

// resolvePrompt prefers the configured prompt over the built-in one
func resolvePrompt(fromConfig, fromDefault string) string {
	if strings.TrimSpace(fromConfig) != "" {
		return fromConfig
	}
	return fromDefault
}

// parseResumePrompts formats the user template with the resume text
func parseResumePrompts(p config.PromptConfig, input types.ParseResumeInput) (string, string) {
	system := resolvePrompt(p.System, defaultParseResumeSystem)
	user := fmt.Sprintf(resolvePrompt(p.User, defaultParseResumeUser), input.ResumeText)
	return system, user
}

// analyzeJobsPrompts formats the user template with the query and the
// rendered results
func analyzeJobsPrompts(p config.PromptConfig, input types.AnalyzeJobsInput) (string, string) {
	system := resolvePrompt(p.System, defaultAnalyzeJobsSystem)
	user := fmt.Sprintf(resolvePrompt(p.User, defaultAnalyzeJobsUser), input.Query, renderResults(input.Results))
	return system, user
}

// generateTestPrompts formats the user template with the test brief
func generateTestPrompts(p config.PromptConfig, input types.GenerateTestInput) (string, string) {
	fallback := defaultQuizSystem
	if input.TestType == types.TestTypeCoding {
		fallback = defaultCodingSystem
	}
	system := resolvePrompt(p.System, fallback)
	user := fmt.Sprintf(resolvePrompt(p.User, defaultGenerateTestUser), testBrief(input))
	return system, user
}

func renderResults(results []types.SearchResult) string {
	if len(results) == 0 {
		return "(no results)"
	}
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "--- Result %d ---\n", i+1)
		fmt.Fprintf(&b, "URL: %s\n", r.URL)
		fmt.Fprintf(&b, "Title: %s\n", r.Title)
		fmt.Fprintf(&b, "Description: %s\n", r.Description)
		fmt.Fprintf(&b, "Content: %s\n\n", r.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func testBrief(input types.GenerateTestInput) string {
	var b strings.Builder
	if input.TestType == types.TestTypeCoding {
		fmt.Fprintf(&b, "Generate a test of %d coding challenges", CodingQuestionCount)
	} else {
		fmt.Fprintf(&b, "Generate a test of %d multiple choice questions", QuizQuestionCount)
	}
	fmt.Fprintf(&b, " for the %s position", input.Role)
	if input.Company != "" {
		fmt.Fprintf(&b, " at %s", input.Company)
	}
	b.WriteString(".\n")

	focus := input.Role
	if len(input.Requirements) > 0 {
		focus = strings.Join(input.Requirements, ", ")
		fmt.Fprintf(&b, "Key requirements: %s\n", focus)
	}
	fmt.Fprintf(&b, "Focus on skills relevant to: %s", focus)
	return b.String()
}
