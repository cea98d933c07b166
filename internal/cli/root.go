// Package cli implements the phonetool command line, which runs the same
// split, check and unlock operations as the web server against local files.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wind-7274/seatlease-process/internal/core"
	"github.com/wind-7274/seatlease-process/internal/logging"
)

// NewRootCommand returns the phonetool command tree.
func NewRootCommand() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "phonetool",
		Short:         "Clean, validate and split Philippine phone numbers",
		Long:          "Split delimited phone number columns into one validated number per column, check single numbers, and remove known passwords from Excel workbooks.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, "text"))
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	cmd.AddCommand(newSplitCommand())
	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newUnlockCommand())

	return cmd
}

// ErrorMessage renders err for the terminal. Known failures get the same
// message and code the web pages show; anything else is printed as is.
func ErrorMessage(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}
