package cli

import (
	"context"
	"os"

	"jobpilot/internal/common"
	"jobpilot/internal/config"
	"jobpilot/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "jobpilot",
	Short: "A job search assistant with AI-generated skills tests",
	Long: `Jobpilot keeps track of your resumes and job applications. It searches the
web for matching openings, and for every application it generates a quiz or
coding test you can take once and review afterwards.`,
	SilenceUsage: true,
}

// userID owns every record created or read by the client commands
var userID string

// outputConfig is shared by the commands that print results
var outputConfig common.CommandConfig

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	setContext(rootCmd, ctx)
	return rootCmd.Execute()
}

// setContext replaces the context on cmd and every subcommand. Cobra only
// inherits the root context into subcommands that have none yet.
func setContext(cmd *cobra.Command, ctx context.Context) {
	cmd.SetContext(ctx)
	for _, sub := range cmd.Commands() {
		setContext(sub, ctx)
	}
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// addOutputFlags registers --output and --format on cmd and validates the
// format before the command runs
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&outputConfig.OutputFormat, "format", "", "Output format: json, yaml, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if outputConfig.OutputFormat == "" {
			outputConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(outputConfig.OutputFormat, cfg.App.SupportedFormats)
	}
}

func defaultUserID() string {
	if id := os.Getenv("JOBPILOT_USER"); id != "" {
		return id
	}
	return "local"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&userID, "user", defaultUserID(), "User id that owns resumes and applications (env JOBPILOT_USER)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(applicationsCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(jobsCmd)
}
