// Package cli builds the zhtp executable's cobra command tree: server,
// network, wallet, and isolation subcommands sharing one structured
// output format and one exit-code contract.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ExitCode is the process exit status contract every subcommand maps
// its errors onto.
type ExitCode int

const (
	ExitSuccess    ExitCode = 0
	ExitUserError  ExitCode = 1
	ExitNetworkError ExitCode = 2
	ExitInternalError ExitCode = 3
)

// OutputFormat selects how Render prints a result.
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatTable OutputFormat = "table"
)

var format string

// NewRootCommand builds the zhtp root command with its four
// subcommand families and the shared --format flag.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "zhtp",
		Short:         "ZHTP node and wallet control plane",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&format, "format", "table", "output format: json|yaml|table")

	root.AddCommand(ServerCmd)
	root.AddCommand(NetworkCmd)
	root.AddCommand(WalletCmd)
	root.AddCommand(IsolationCmd)
	return root
}

// Render writes v to w under the flag-selected format. Table format
// falls back to a %+v dump for arbitrary values — commands that need a
// nicer table emit one themselves before calling Render with nil.
func Render(w io.Writer, v any) error {
	if v == nil {
		return nil
	}
	switch OutputFormat(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		return yaml.NewEncoder(w).Encode(v)
	default:
		_, err := fmt.Fprintf(w, "%+v\n", v)
		return err
	}
}

// CommandError carries the exit code a CLI failure should surface,
// distinguishing a user mistake from a network fault from a genuine
// internal bug.
type CommandError struct {
	Code ExitCode
	Err  error
}

func (e *CommandError) Error() string { return e.Err.Error() }
func (e *CommandError) Unwrap() error { return e.Err }

// UserError wraps err as an exit-code-1 failure.
func UserError(err error) error { return &CommandError{Code: ExitUserError, Err: err} }

// NetworkError wraps err as an exit-code-2 failure.
func NetworkError(err error) error { return &CommandError{Code: ExitNetworkError, Err: err} }

// InternalError wraps err as an exit-code-3 failure.
func InternalError(err error) error { return &CommandError{Code: ExitInternalError, Err: err} }

// ExitCodeOf extracts the exit code a returned error maps to, treating
// any error not already a *CommandError as an internal error.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	if ce, ok := err.(*CommandError); ok {
		return ce.Code
	}
	return ExitInternalError
}
