package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msageha/abiprep/internal/journal"
	"github.com/msageha/abiprep/internal/logging"
	"github.com/msageha/abiprep/internal/model"
	"github.com/msageha/abiprep/internal/plan"
	"github.com/msageha/abiprep/internal/setup"
)

const version = "0.3.0"

// Process exit statuses.
const (
	exitFailure         = 1
	exitInvalidJob      = 2
	exitUnknownExitCode = 3
)

// app carries the global flags and what PersistentPreRunE builds from them.
type app struct {
	verbose     bool
	configPath  string
	journalPath string

	cfg    model.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: model.DefaultConfig(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "abiprep",
		Short: "Prepare Abinit calculations for remote execution",
		Long: `abiprep turns a job description (parameters, crystal structure, execution
options, optional restart parent) into a ready-to-stage sandbox: the composed
Abinit input file and an execution plan manifest (calcinfo.yaml) that tells an
orchestrator what to stage, run and retrieve.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.init,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: .abiprep/config.yaml of the enclosing project)")
	root.PersistentFlags().StringVar(&a.journalPath, "journal", "", "Append preparation outcomes to this JSON Lines file")

	root.AddCommand(
		newInitCmd(),
		newPrepareCmd(a),
		newBatchCmd(a),
		newWatchCmd(a),
		newExitCodesCmd(),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command, args []string) error {
	cfg, err := setup.ResolveConfig(a.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Logging, a.verbose)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// openJournal returns nil when no journal was requested.
func (a *app) openJournal() (*journal.Journal, error) {
	if a.journalPath == "" {
		return nil, nil
	}
	return journal.Open(a.journalPath, journal.DefaultMaxSize)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		// No config or logger needed.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "abiprep %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(report(err))
	}
}

// report prints err to stderr and returns the process exit status.
func report(err error) int {
	var verrs *plan.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		fmt.Fprint(os.Stderr, verrs.FormatStderr())
		return exitInvalidJob
	case errors.Is(err, model.ErrUnknownExitCode):
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitUnknownExitCode
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitFailure
	}
}
