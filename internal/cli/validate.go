package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/correlate/internal/compiler"
)

// ValidationIssue is one problem found in a rules directory, either a
// load/compile error (E0xx) or a semantic one (E1xx).
type ValidationIssue struct {
	Code    string `json:"code"`
	Context string `json:"context,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Contexts int               `json:"contexts"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rules-dir>",
		Short: "Compile and check correlation rules",
		Long: `Compile every context in a CUE rules directory and check the rule set
as a whole: unique uuids, sane timeouts, patterns for first_opens and
last_closes, and at least one action per context.

All problems are reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true, // we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, rulesDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result, issues := ValidateRulesDir(rulesDir)
	if result == nil {
		// Directory-level failure: nothing was compiled.
		first := issues[0]
		return outputValidateError(formatter, first.Code, first.Message)
	}

	formatter.VerboseLog("Compiled %d context(s) from %s", result.Contexts, rulesDir)

	if len(issues) > 0 {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// ValidateRulesDir loads, compiles and validates every context in dir.
// A nil result means the directory could not be loaded at all.
func ValidateRulesDir(dir string) (*ValidationResult, []ValidationIssue) {
	loaded, loadErrs := compiler.LoadRules(dir, compiler.LoadModeCollectAll)

	var issues []ValidationIssue
	for _, err := range loadErrs {
		issues = append(issues, loadIssue(err))
	}
	if loaded == nil {
		return nil, issues
	}

	for _, ve := range compiler.Validate(loaded.Configs) {
		issues = append(issues, ValidationIssue{
			Code:    ve.Code,
			Context: ve.Context,
			Field:   ve.Field,
			Message: ve.Message,
		})
	}

	return &ValidationResult{
		Valid:    len(issues) == 0,
		Contexts: len(loaded.Configs),
		Errors:   issues,
	}, issues
}

func loadIssue(err error) ValidationIssue {
	var le *compiler.LoadError
	if !errors.As(err, &le) {
		return ValidationIssue{Code: compiler.ErrCodeGeneric, Message: err.Error()}
	}
	issue := ValidationIssue{Code: le.Code, Context: le.Context, Message: le.Message}
	if le.Pos.IsValid() {
		issue.File = le.Pos.Filename()
		issue.Line = le.Pos.Line()
	}
	return issue
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result *ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All rules valid (%d contexts)\n", result.Contexts)
	return nil
}

// outputValidateError reports a directory-level failure.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every issue found.
func outputValidationErrors(formatter *OutputFormatter, result *ValidationResult) error {
	failed := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))

	if formatter.JSON() {
		first := result.Errors[0]
		if err := formatter.Fail(result, first.Code, first.Message); err != nil {
			return err
		}
		return failed
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range result.Errors {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s:%d\n", issue.File, issue.Line)
		}
		if issue.Context != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", issue.Code, issue.Context, issue.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
		}
	}

	return failed
}
