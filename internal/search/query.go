package search

import (
	"fmt"
	"strings"
	"time"

	"jobpilot/internal/errors"
	"jobpilot/internal/types"
)

// maxQuerySkills caps how many skills go into a skills search
const maxQuerySkills = 5

// BuildQuery turns a search request into the web search query and a short
// description of what was searched for. Company and role together take
// precedence over skills.
func BuildQuery(req types.JobSearchRequest, now time.Time) (query, searchedFor string, err error) {
	company := strings.TrimSpace(req.Company)
	role := strings.TrimSpace(req.Role)
	years := fmt.Sprintf("%d %d", now.Year()-1, now.Year())

	if company != "" && role != "" {
		query = fmt.Sprintf("%s %s job openings careers hiring %s", company, role, years)
		return query, company + " - " + role, nil
	}

	skills := make([]string, 0, len(req.Skills))
	for _, s := range req.Skills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	if len(skills) > 0 {
		top := skills[:min(len(skills), maxQuerySkills)]
		query = fmt.Sprintf("%s jobs hiring now careers %s", strings.Join(top, " "), years)
		return query, "Skills: " + strings.Join(skills, ", "), nil
	}

	return "", "", errors.NewValidationError(errors.ErrCodeInvalidRequest, "Either company/role or skills are required", nil)
}
