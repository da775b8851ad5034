package cli

import (
	"context"
	"fmt"

	"jobpilot/internal/lifecycle"
	"jobpilot/internal/types"

	"github.com/spf13/cobra"
)

var applicationsCmd = &cobra.Command{
	Use:     "applications",
	Aliases: []string{"apps"},
	Short:   "Track job applications",
}

var newApplication lifecycle.NewApplication
var newApplicationResume string

var applicationsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a job you are applying to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if newApplicationResume != "" {
			newApplication.ResumeID = &newApplicationResume
		}
		return withServices(cmd, func(ctx context.Context, s *services) error {
			return printResult(cmd, func(ctx context.Context) ([]lifecycle.ApplicationView, error) {
				app, err := s.applications.CreateApplication(ctx, userID, newApplication)
				if err != nil {
					return nil, err
				}
				return []lifecycle.ApplicationView{{JobApplication: *app, Tests: []types.Test{}}}, nil
			})
		})
	},
}

var applicationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List applications with their test results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, s *services) error {
			return printResult(cmd, func(ctx context.Context) ([]lifecycle.ApplicationView, error) {
				return s.applications.ListApplications(ctx, userID)
			})
		})
	},
}

var applicationsStatusCmd = &cobra.Command{
	Use:   "status <application-id> <pending|applied|accepted|rejected>",
	Short: "Set the status of an application",
	Long: `Set the status of an application. test_taken is set automatically when a
test is submitted and cannot be chosen here.`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) != 1 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return []string{
			string(types.StatusPending), string(types.StatusApplied),
			string(types.StatusAccepted), string(types.StatusRejected),
		}, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		status := types.ApplicationStatus(args[1])
		return withServices(cmd, func(ctx context.Context, s *services) error {
			if err := s.applications.UpdateStatus(ctx, userID, args[0], status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Application %s is now %s\n", args[0], status)
			return nil
		})
	},
}

func init() {
	flags := applicationsAddCmd.Flags()
	flags.StringVar(&newApplication.CompanyName, "company", "", "Company name (required)")
	flags.StringVar(&newApplication.RoleTitle, "role", "", "Role title (required)")
	flags.StringVar(&newApplication.JobURL, "url", "", "Link to the listing")
	flags.StringVar(&newApplication.JobDescription, "description", "", "Job description")
	flags.StringSliceVar(&newApplication.Requirements, "requirement", nil, "Requirement, repeatable")
	flags.StringVar(&newApplicationResume, "resume", "", "Id of the resume sent with the application")
	_ = applicationsAddCmd.MarkFlagRequired("company")
	_ = applicationsAddCmd.MarkFlagRequired("role")

	addOutputFlags(applicationsAddCmd)
	addOutputFlags(applicationsListCmd)

	applicationsCmd.AddCommand(applicationsAddCmd)
	applicationsCmd.AddCommand(applicationsListCmd)
	applicationsCmd.AddCommand(applicationsStatusCmd)
}
