package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"metrology-records/internal/domain/certnumber"
)

type numberResult struct {
	Number   string `json:"number"`
	LastUsed string `json:"last_used,omitempty"`
}

type parseResult struct {
	Number   string `json:"number"`
	Semester string `json:"semester"`
	Sequence int    `json:"sequence"`
	Year     string `json:"year"`
}

func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

// fail escribe el error en el formato pedido y devuelve ExitFailure.
func fail(f *OutputFormatter, msg string, err error) error {
	_ = f.Error(fmt.Sprintf("%s: %v", msg, err))
	return WrapExitError(ExitFailure, msg, err)
}

func NewNextCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Print the candidate number for the next certificate",
		Long:  "Print the candidate number. The sequence does not advance; run increment once the certificate is saved.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(opts, cmd)
			svc, closeFn, err := opts.openService(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := svc.Generate(cmd.Context())
			if err != nil {
				return fail(f, "generate", err)
			}
			return f.Success(numberResult{Number: n}, n)
		},
	}
}

func NewLastCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Print the persisted number and the last number used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(opts, cmd)
			svc, closeFn, err := opts.openService(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := svc.Last(cmd.Context())
			if err != nil {
				return fail(f, "last", err)
			}
			used, err := svc.LastUsed(cmd.Context())
			if err != nil {
				return fail(f, "last used", err)
			}

			text := n
			if used != "" {
				text = fmt.Sprintf("%s (last used %s)", n, used)
			}
			return f.Success(numberResult{Number: n, LastUsed: used}, text)
		},
	}
}

func NewIncrementCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "increment",
		Short: "Advance the sequence by one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(opts, cmd)
			svc, closeFn, err := opts.openService(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Increment(cmd.Context()); err != nil {
				return fail(f, "increment", err)
			}
			n, err := svc.Last(cmd.Context())
			if err != nil {
				return fail(f, "last", err)
			}
			return f.Success(numberResult{Number: n}, n)
		},
	}
}

func NewOverrideCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "override <number>",
		Short: "Record a manually chosen number",
		Long:  "Record a manually chosen number. An SSNNNAA value also moves the sequence to it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(opts, cmd)
			svc, closeFn, err := opts.openService(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Override(cmd.Context(), args[0]); err != nil {
				return fail(f, "override", err)
			}
			used, err := svc.LastUsed(cmd.Context())
			if err != nil {
				return fail(f, "last used", err)
			}
			return f.Success(numberResult{Number: used, LastUsed: used}, used)
		},
	}
}

func NewParseCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <number>",
		Short: "Split an SSNNNAA number into its parts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatter(opts, cmd)

			n, err := certnumber.Parse(args[0])
			if err != nil {
				return fail(f, "parse", err)
			}
			res := parseResult{Number: n.String(), Semester: n.Semester, Sequence: n.Sequence, Year: n.Year}
			return f.Success(res, fmt.Sprintf("semester=%s sequence=%03d year=%s", n.Semester, n.Sequence, n.Year))
		},
	}
}
