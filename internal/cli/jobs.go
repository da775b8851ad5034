package cli

import (
	"context"

	"jobpilot/internal/types"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Search the web for job openings",
}

var jobSearch types.JobSearchRequest

var jobsSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search by company and role, or by skills",
	Long: `Search for current openings. --company and --role together take precedence
over --skills. Only listings judged to be real jobs are shown.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, s *services) error {
			return printResult(cmd, func(ctx context.Context) (*types.JobSearchResponse, error) {
				return s.jobs.Search(ctx, jobSearch)
			})
		})
	},
}

var jobsSuggestCmd = &cobra.Command{
	Use:   "suggest <resume-id>",
	Short: "Search for jobs matching the skills of an uploaded resume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, s *services) error {
			return printResult(cmd, func(ctx context.Context) (*types.JobSearchResponse, error) {
				res, err := s.resumes.Get(ctx, userID, args[0])
				if err != nil {
					return nil, err
				}
				return s.jobs.Search(ctx, types.JobSearchRequest{Skills: res.Skills})
			})
		})
	},
}

func init() {
	jobsSearchCmd.Flags().StringVar(&jobSearch.Company, "company", "", "Company name")
	jobsSearchCmd.Flags().StringVar(&jobSearch.Role, "role", "", "Role title")
	jobsSearchCmd.Flags().StringSliceVar(&jobSearch.Skills, "skills", nil, "Comma-separated skills")

	addOutputFlags(jobsSearchCmd)
	addOutputFlags(jobsSuggestCmd)

	jobsCmd.AddCommand(jobsSearchCmd)
	jobsCmd.AddCommand(jobsSuggestCmd)
}
