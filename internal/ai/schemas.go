package ai

import (
	"jobpilot/internal/types"

	"google.golang.org/genai"
)

func stringArray() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

var difficultySchema = &genai.Schema{
	Type: genai.TypeString,
	Enum: []string{"easy", "medium", "hard"},
}

func parseResumeSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"skills": stringArray(),
			"experience": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"company":     {Type: genai.TypeString},
						"role":        {Type: genai.TypeString},
						"duration":    {Type: genai.TypeString},
						"description": {Type: genai.TypeString},
					},
					Required: []string{"company", "role"},
				},
			},
			"education": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"institution": {Type: genai.TypeString},
						"degree":      {Type: genai.TypeString},
						"field":       {Type: genai.TypeString},
						"year":        {Type: genai.TypeString},
					},
					Required: []string{"institution", "degree"},
				},
			},
			"summary": {Type: genai.TypeString},
		},
		Required: []string{"skills", "experience", "education", "summary"},
	}
}

func analyzeJobsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"jobs": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"company":      {Type: genai.TypeString},
						"role":         {Type: genai.TypeString},
						"location":     {Type: genai.TypeString},
						"requirements": stringArray(),
						"salary":       {Type: genai.TypeString},
						"url":          {Type: genai.TypeString},
						"isRealJob":    {Type: genai.TypeBoolean},
						"description":  {Type: genai.TypeString},
					},
					Required: []string{"company", "role", "url", "isRealJob"},
				},
			},
			"suggestions": stringArray(),
			"summary":     {Type: genai.TypeString},
		},
		Required: []string{"jobs", "summary"},
	}
}

func quizQuestionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id":         {Type: genai.TypeInteger},
			"question":   {Type: genai.TypeString},
			"difficulty": difficultySchema,
			"options": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id":   {Type: genai.TypeString},
						"text": {Type: genai.TypeString},
					},
					Required: []string{"id", "text"},
				},
			},
			"correctAnswer": {Type: genai.TypeString},
			"explanation":   {Type: genai.TypeString},
		},
		Required: []string{"id", "question", "options", "correctAnswer"},
	}
}

func codingQuestionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id":          {Type: genai.TypeInteger},
			"title":       {Type: genai.TypeString},
			"difficulty":  difficultySchema,
			"description": {Type: genai.TypeString},
			"examples": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"input":       {Type: genai.TypeString},
						"output":      {Type: genai.TypeString},
						"explanation": {Type: genai.TypeString},
					},
				},
			},
			"starterCode":        {Type: genai.TypeString},
			"expectedComplexity": {Type: genai.TypeString},
			"hints":              stringArray(),
		},
		Required: []string{"id", "title", "difficulty", "description", "starterCode"},
	}
}

func generateTestSchema(testType types.TestType) *genai.Schema {
	question := quizQuestionSchema()
	if testType == types.TestTypeCoding {
		question = codingQuestionSchema()
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":            {Type: genai.TypeString},
			"description":      {Type: genai.TypeString},
			"timeLimitMinutes": {Type: genai.TypeInteger},
			"questions":        {Type: genai.TypeArray, Items: question},
		},
		Required: []string{"title", "description", "timeLimitMinutes", "questions"},
	}
}
