package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msageha/abiprep/internal/batch"
	"github.com/msageha/abiprep/internal/jobfile"
	"github.com/msageha/abiprep/internal/plan"
)

func newBatchCmd(a *app) *cobra.Command {
	var outDir string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "batch --out <dir> <job files...>",
		Short: "Prepare many jobs concurrently, one sandbox per job under --out",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if concurrency <= 0 {
				concurrency = a.cfg.Batch.Concurrency
			}
			jl, err := a.openJournal()
			if err != nil {
				return err
			}
			defer jl.Close()

			p := plan.NewPreparer(a.cfg, plan.WithLogger(a.logger))
			results, err := batch.Run(ctx, p, args, batch.Options{
				OutDir:      outDir,
				Concurrency: concurrency,
				Load:        jobfile.Load,
				Logger:      a.logger,
			})

			w := cmd.OutOrStdout()
			for _, r := range results {
				if jerr := jl.Outcome(r.Source, r.JobName, r.SandboxDir, r.PlanID, r.Err); jerr != nil {
					a.logger.Warn("journal write failed", zap.Error(jerr))
				}
				if r.Err != nil {
					fmt.Fprintf(w, "FAIL %s: %v\n", r.Source, r.Err)
					continue
				}
				fmt.Fprintf(w, "ok   %s -> %s (%s)\n", r.Source, r.SandboxDir, r.PlanID)
			}
			if err != nil {
				return err
			}
			if n := batch.Failed(results); n > 0 {
				return fmt.Errorf("%d of %d jobs failed", n, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "Directory receiving one sandbox per job")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Jobs prepared in parallel (default: batch.concurrency from config)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
