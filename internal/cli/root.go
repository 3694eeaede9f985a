// Package cli implements the codereview command tree.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/code-review-assistant/internal/config"
	"github.com/sakif/code-review-assistant/internal/llm"
	"github.com/sakif/code-review-assistant/internal/llm/openai"
	"github.com/sakif/code-review-assistant/internal/logging"
)

// Exit codes.
const (
	ExitSuccess      = 0
	ExitRuntimeError = 1
	ExitUsageError   = 2
)

// newModel builds the generative client from configuration. Tests replace it.
var newModel = func(cfg *config.Config, logger *slog.Logger) (llm.Client, error) {
	oc := openai.DefaultConfig()
	oc.APIKey = cfg.OpenAIAPIKey
	oc.Model = cfg.OpenAIModel
	oc.BaseURL = cfg.OpenAIBaseURL
	return openai.New(oc, logger)
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	envFile string
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "codereview",
		Short:         "AI code review service",
		Long:          "codereview reviews source files with a generative model and keeps each user's review history.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to seed the environment from")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newReviewCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newTokenCmd(opts))

	return root
}

// Run executes the command tree with args and returns an exit code.
func Run(ctx context.Context, args []string) int {
	root := NewRootCmd()
	root.SetArgs(args)

	cmd, err := root.ExecuteContextC(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if isUsageError(err) {
			fmt.Fprintln(os.Stderr, cmd.UsageString())
			return ExitUsageError
		}
		return ExitRuntimeError
	}
	return ExitSuccess
}

// usageError marks errors caused by bad invocation rather than failure.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func isUsageError(err error) bool {
	var ue usageError
	return errors.As(err, &ue)
}

// setup loads configuration and builds the logger. Logs go to stderr so
// JSON output on stdout stays clean.
func setup(opts *globalOptions, stderr io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(stderr, cfg.LogLevel, cfg.LogFormat), nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
