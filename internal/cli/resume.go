package cli

import (
	"context"
	"fmt"

	"jobpilot/internal/common"
	"jobpilot/internal/resume"
	"jobpilot/internal/types"

	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:     "resume",
	Aliases: []string{"resumes"},
	Short:   "Upload and manage resumes",
}

var resumeUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a resume and extract its skills",
	Long: `Upload a PDF, Word or text resume. The file is stored even when its text
cannot be parsed; the extracted skills are used by 'jobs suggest'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := getLoggerFromContext(cmd.Context())
		upload, err := common.NewFileProcessor(logger).ReadUpload(args[0])
		if err != nil {
			return err
		}
		return withServices(cmd, func(ctx context.Context, s *services) error {
			return printResult(cmd, func(ctx context.Context) (*resume.UploadResult, error) {
				return s.resumes.Upload(ctx, userID, upload)
			})
		})
	},
}

var resumeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded resumes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, s *services) error {
			return printResult(cmd, func(ctx context.Context) ([]types.Resume, error) {
				return s.resumes.List(ctx, userID)
			})
		})
	},
}

var resumeDeleteCmd = &cobra.Command{
	Use:   "delete <resume-id>",
	Short: "Delete a resume and its stored file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, s *services) error {
			if err := s.resumes.Delete(ctx, userID, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resume %s deleted\n", args[0])
			return nil
		})
	},
}

func init() {
	addOutputFlags(resumeUploadCmd)
	addOutputFlags(resumeListCmd)

	resumeCmd.AddCommand(resumeUploadCmd)
	resumeCmd.AddCommand(resumeListCmd)
	resumeCmd.AddCommand(resumeDeleteCmd)
}
