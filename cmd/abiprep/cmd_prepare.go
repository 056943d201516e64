package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msageha/abiprep/internal/jobfile"
	"github.com/msageha/abiprep/internal/plan"
)

func newPrepareCmd(a *app) *cobra.Command {
	var jobPath, outDir string

	cmd := &cobra.Command{
		Use:   "prepare --job <file> --out <dir>",
		Short: "Compose the input file and write the execution plan for one job",
		Long: `Validates the job, writes the composed input file into the sandbox directory
and records the execution plan in calcinfo.yaml next to it. Use "-" as the job
file to read YAML from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jl, err := a.openJournal()
			if err != nil {
				return err
			}
			defer jl.Close()

			job, err := jobfile.Load(jobPath)
			if err != nil {
				_ = jl.Outcome(jobPath, "", outDir, "", err)
				return err
			}
			p := plan.NewPreparer(a.cfg, plan.WithLogger(a.logger))
			res, err := p.Prepare(cmd.Context(), plan.PrepareRequest{Job: job, SandboxDir: outDir})
			if err != nil {
				_ = jl.Outcome(jobPath, job.Name, outDir, "", err)
				return err
			}
			if err := jl.Outcome(jobPath, job.Name, outDir, res.PlanID, nil); err != nil {
				a.logger.Warn("journal write failed", zap.Error(err))
			}
			printPrepared(cmd.OutOrStdout(), job.Name, res)
			return nil
		},
	}
	cmd.Flags().StringVar(&jobPath, "job", "", "Job file (.yaml, .yml, .hcl or - for stdin)")
	cmd.Flags().StringVar(&outDir, "out", "", "Sandbox directory to prepare")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func printPrepared(w io.Writer, name string, res *plan.PrepareResult) {
	if name == "" {
		name = "job"
	}
	fmt.Fprintf(w, "prepared %s\n", name)
	fmt.Fprintf(w, "  plan:     %s\n", res.PlanID)
	fmt.Fprintf(w, "  input:    %s\n", res.InputPath)
	fmt.Fprintf(w, "  manifest: %s\n", res.ManifestPath)
	for _, e := range res.Plan.RemoteSymlinkList {
		fmt.Fprintf(w, "  symlink:  %s:%s -> %s\n", e.HostID, e.RemotePath, e.Alias)
	}
	for _, e := range res.Plan.RemoteCopyList {
		fmt.Fprintf(w, "  copy:     %s:%s -> %s\n", e.HostID, e.RemotePath, e.Alias)
	}
}
