package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msageha/abiprep/internal/jobfile"
	"github.com/msageha/abiprep/internal/plan"
	"github.com/msageha/abiprep/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var jobPath, outDir string

	cmd := &cobra.Command{
		Use:   "watch --job <file> --out <dir>",
		Short: "Prepare a job and prepare it again whenever its file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			jl, err := a.openJournal()
			if err != nil {
				return err
			}
			defer jl.Close()

			w := cmd.OutOrStdout()
			watcher, err := watch.New(watch.Options{
				JobPath:    jobPath,
				SandboxDir: outDir,
				Debounce:   time.Duration(a.cfg.Watcher.DebounceMs) * time.Millisecond,
				Load:       jobfile.Load,
				Preparer:   plan.NewPreparer(a.cfg, plan.WithLogger(a.logger)),
				Logger:     a.logger,
				OnPrepare: func(res *plan.PrepareResult, err error) {
					planID := ""
					if res != nil {
						planID = res.PlanID
					}
					if jerr := jl.Outcome(jobPath, "", outDir, planID, err); jerr != nil {
						a.logger.Warn("journal write failed", zap.Error(jerr))
					}
					if err != nil {
						fmt.Fprintf(w, "FAIL %s: %v\n", jobPath, err)
						return
					}
					fmt.Fprintf(w, "ok   %s -> %s (%s)\n", jobPath, res.InputPath, res.PlanID)
				},
			})
			if err != nil {
				return err
			}
			return watcher.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&jobPath, "job", "", "Job file to watch (.yaml, .yml or .hcl)")
	cmd.Flags().StringVar(&outDir, "out", "", "Sandbox directory to keep prepared")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
