package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	mem "metrology-records/internal/adapters/storage/memory"
	"metrology-records/internal/adapters/storage/sqlite"
	"metrology-records/internal/domain/certnumber"
	"metrology-records/internal/domain/validity"
	"metrology-records/internal/platform/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	State   string // ruta sqlite o "memory"
	Date    string // YYYY-MM-DD; vacío => hoy
	Format  string // "json" | "text"
	Verbose bool
}

var ValidFormats = []string{"text", "json"}

const DefaultStatePath = "certificate-numbers.db"

// NewRootCommand arma el CLI de numeración de certificados.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "certctl",
		Short: "Certificate number sequence (SSNNNAA)",
		Long: `Inspect and operate the calibration certificate sequence.

Numbers have the form SSNNNAA: semester (01|02), a three digit
sequence and the two digit year. The sequence restarts at 001 when
the semester or the year changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if _, err := opts.clock(); err != nil {
				return WrapExitError(ExitCommandError, "invalid --date", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.State, "state", DefaultStatePath, `sqlite file with the sequence state, or "memory"`)
	cmd.PersistentFlags().StringVar(&opts.Date, "date", "", "reference date YYYY-MM-DD (default today)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewNextCommand(opts))
	cmd.AddCommand(NewLastCommand(opts))
	cmd.AddCommand(NewIncrementCommand(opts))
	cmd.AddCommand(NewOverrideCommand(opts))
	cmd.AddCommand(NewParseCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) clock() (func() time.Time, error) {
	if strings.TrimSpace(o.Date) == "" {
		return time.Now, nil
	}
	d, err := validity.ParseDate(o.Date)
	if err != nil {
		return nil, err
	}
	return func() time.Time { return d }, nil
}

// openService abre el store según --state. El cierre lo hace el llamador.
func (o *RootOptions) openService(ctx context.Context, cmd *cobra.Command) (*certnumber.Service, func(), error) {
	now, err := o.clock()
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid --date", err)
	}

	log := logger.Nop()
	if o.Verbose {
		log = logger.NewWithWriter(cmd.ErrOrStderr(), logger.Options{Level: logger.Debug, App: "certctl"})
	}

	state := strings.TrimSpace(o.State)
	if state == "" || state == "memory" {
		return certnumber.NewService(mem.NewCertStateStore(), log).WithClock(now), func() {}, nil
	}

	store, err := sqlite.Open(ctx, state)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "open state", err)
	}
	return certnumber.NewService(store, log).WithClock(now), func() { _ = store.Close() }, nil
}
