package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"jobpilot/internal/common"
	"jobpilot/internal/errors"
	"jobpilot/internal/lifecycle"
	"jobpilot/internal/types"

	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Take and review the tests generated for an application",
}

var answersFile string

var testTakeCmd = &cobra.Command{
	Use:   "take <application-id> <quiz|coding>",
	Short: "Take a test interactively, or submit answers from a file",
	Long: `Take the quiz or coding test of an application. The test is generated on
first use and can be submitted once. Taking a completed test shows the
stored result with the correct answers.

Answers are read from stdin unless --answers points to a JSON file mapping
question ids to answers, for example {"1": "a", "2": "c"}.`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeTestType,
	RunE:              runTakeTest,
}

var testShowCmd = &cobra.Command{
	Use:               "show <application-id> <quiz|coding>",
	Short:             "Show a test without answering it",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeTestType,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd, func(ctx context.Context, s *services) error {
			return printResult(cmd, func(ctx context.Context) (*lifecycle.TestView, error) {
				return s.applications.AcquireTest(ctx, userID, args[0], types.TestType(args[1]))
			})
		})
	},
}

func completeTestType(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 1 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{string(types.TestTypeQuiz), string(types.TestTypeCoding)}, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	testTakeCmd.Flags().StringVar(&answersFile, "answers", "", "JSON file with answers keyed by question id")

	addOutputFlags(testTakeCmd)
	addOutputFlags(testShowCmd)

	testCmd.AddCommand(testTakeCmd)
	testCmd.AddCommand(testShowCmd)
}

func runTakeTest(cmd *cobra.Command, args []string) error {
	applicationID, testType := args[0], types.TestType(args[1])
	logger := getLoggerFromContext(cmd.Context())

	return withServices(cmd, func(ctx context.Context, s *services) error {
		view, err := s.applications.AcquireTest(ctx, userID, applicationID, testType)
		if err != nil {
			return err
		}
		if view.Mode == lifecycle.ModeReview {
			fmt.Fprintln(cmd.ErrOrStderr(), "This test has already been completed. Showing your results.")
			return printResult(cmd, func(context.Context) (*lifecycle.TestView, error) { return view, nil })
		}

		if answersFile != "" {
			answers, err := readAnswers(common.NewFileProcessor(logger), answersFile)
			if err != nil {
				return err
			}
			return printResult(cmd, func(ctx context.Context) (*lifecycle.SubmitResult, error) {
				return s.applications.SubmitTest(ctx, userID, applicationID, testType, answers)
			})
		}

		session := view.Session()
		if err := collectAnswers(cmd.InOrStdin(), cmd.ErrOrStderr(), session); err != nil {
			return err
		}
		return printResult(cmd, func(ctx context.Context) (*lifecycle.SubmitResult, error) {
			return s.applications.Submit(ctx, userID, session)
		})
	})
}

func readAnswers(fp *common.FileProcessor, path string) (types.Answers, error) {
	data, err := fp.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var answers types.Answers
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Answers file %s must map question ids to answers", path), err)
	}
	return answers, nil
}

// solutionEnd terminates a multi-line coding answer
const solutionEnd = "."

// collectAnswers asks every question of the session's test on out and
// stages the answers read from in. An empty answer skips the question;
// end of input leaves the remaining questions unanswered.
func collectAnswers(in io.Reader, out io.Writer, session *lifecycle.TestSession) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	test := session.Test()
	if test.TimeLimit > 0 {
		fmt.Fprintf(out, "Time limit: %d minutes\n", test.TimeLimit)
	}

	for _, q := range test.Questions {
		var answer string
		var ok bool
		if test.TestType == types.TestTypeCoding {
			answer, ok = askCoding(scanner, out, q)
		} else {
			answer, ok = askQuiz(scanner, out, q)
		}
		if answer != "" {
			if err := session.RecordAnswer(q.ID, answer); err != nil {
				return err
			}
		}
		if !ok {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read answers", err)
	}
	return nil
}

// askQuiz prompts until the answer is empty or one of the option ids.
// ok is false once input is exhausted.
func askQuiz(scanner *bufio.Scanner, out io.Writer, q types.Question) (answer string, ok bool) {
	fmt.Fprintf(out, "\n%d. %s\n", q.ID, q.Question)
	ids := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		fmt.Fprintf(out, "  %s) %s\n", opt.ID, opt.Text)
		ids = append(ids, opt.ID)
	}

	for {
		fmt.Fprint(out, "Your answer (empty to skip): ")
		if !scanner.Scan() {
			return "", false
		}
		answer = strings.TrimSpace(scanner.Text())
		if answer == "" || len(ids) == 0 || slices.Contains(ids, answer) {
			return answer, true
		}
		if lower := strings.ToLower(answer); slices.Contains(ids, lower) {
			return lower, true
		}
		fmt.Fprintf(out, "Choose one of %s\n", strings.Join(ids, ", "))
	}
}

// askCoding reads a solution until a line holding only solutionEnd
func askCoding(scanner *bufio.Scanner, out io.Writer, q types.Question) (answer string, ok bool) {
	fmt.Fprintf(out, "\n%d. %s\n", q.ID, q.Title)
	if q.Description != "" {
		fmt.Fprintln(out, q.Description)
	}
	for _, ex := range q.Examples {
		fmt.Fprintf(out, "  input: %s -> output: %s\n", ex.Input, ex.Output)
	}
	if q.StarterCode != "" {
		fmt.Fprintf(out, "\n%s\n", q.StarterCode)
	}
	fmt.Fprintf(out, "Enter your solution and finish with a line containing only %q:\n", solutionEnd)

	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == solutionEnd {
			return strings.TrimRight(strings.Join(lines, "\n"), "\n"), true
		}
		lines = append(lines, line)
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n"), false
}
