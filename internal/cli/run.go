package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Version is reported by "wra version". It is set at build time via -ldflags.
var Version = "dev"

// Run is a high-level CLI entrypoint suitable for black-box tests.
// It accepts the argument slice (excluding argv[0]) and returns the semantic
// exit code plus any error. Command output goes to stdout; logs go to stderr.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) (CLIResult, error) {
	st := &runState{stdout: stdout, stderr: stderr}
	root := st.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if st.ran {
		return st.result, err
	}
	if err != nil {
		var invErr *InvocationError
		if !errors.As(err, &invErr) {
			err = &InvocationError{ExitCode: ExitInvalidInvocation, Message: err.Error()}
		}
		return CLIResult{ExitCode: ExitCode(err)}, err
	}
	// Help or version output only.
	return CLIResult{ExitCode: ExitSuccess}, nil
}

// runState carries one Run's flag values and outcome. Commands are built per
// Run so no flag state leaks between invocations.
type runState struct {
	stdout, stderr io.Writer

	common   commonFlags
	assemble assembleFlags
	pkg      packageFlags

	ran    bool
	result CLIResult
}

func (s *runState) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "wra",
		Short: "Assemble and package web resource archives",
		Long: "wra aggregates the JavaScript and CSS of every web resource archive (WRA)\n" +
			"in a dependency tree into two files, and packages a source directory\n" +
			"into a WRA.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return invalidInvocationf("%v", err)
	})
	s.common.bind(root.PersistentFlags())

	root.AddCommand(s.assembleCommand(), s.packageCommand(), s.versionCommand())
	return root
}

func (s *runState) assembleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Concatenate the JS and CSS of all WRA dependencies",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := resolveAssemble(cmd.Flags(), s.common)
			if err != nil {
				return s.finish(CLIResult{ExitCode: ExitCode(err)}, err)
			}
			logger := newLogger(inv.LogLevel, inv.LogFormat, s.stderr)
			return s.finish(ExecuteAssemble(cmd.Context(), inv, logger))
		},
	}
	s.assemble.bind(cmd.Flags())
	return cmd
}

func (s *runState) packageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Package a source directory into a WRA",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := resolvePackage(cmd.Flags(), s.common)
			if err != nil {
				return s.finish(CLIResult{ExitCode: ExitCode(err)}, err)
			}
			logger := newLogger(inv.LogLevel, inv.LogFormat, s.stderr)
			return s.finish(ExecutePackage(cmd.Context(), inv, logger, s.stdout))
		},
	}
	s.pkg.bind(cmd.Flags())
	return cmd
}

func (s *runState) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "wra %s\n", Version)
			return s.finish(CLIResult{ExitCode: ExitSuccess}, nil)
		},
	}
}

func (s *runState) finish(res CLIResult, err error) error {
	s.ran = true
	s.result = res
	return err
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return invalidInvocationf("%s: unexpected positional arguments: %q", cmd.CommandPath(), args)
	}
	return nil
}
