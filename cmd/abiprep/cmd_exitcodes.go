package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/msageha/abiprep/internal/model"
)

func newExitCodesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:               "exit-codes",
		Short:             "List the exit codes a finished calculation can report",
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			codes := model.ExitCodes()
			if asJSON {
				views := make([]exitCodeView, 0, len(codes))
				for _, ec := range codes {
					views = append(views, viewOf(ec))
				}
				return writeJSON(cmd.OutOrStdout(), views)
			}
			return writeExitCodes(cmd.OutOrStdout(), codes)
		},
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Output as JSON")

	lookup := &cobra.Command{
		Use:   "lookup <code|name>",
		Short: "Resolve one exit code by number or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ec, err := lookupExitCode(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), viewOf(ec))
			}
			return writeExitCodes(cmd.OutOrStdout(), []model.ExitCode{ec})
		},
	}
	cmd.AddCommand(lookup)
	return cmd
}

type exitCodeView struct {
	model.ExitCode
	IsRetryable bool `json:"retryable"`
}

func viewOf(ec model.ExitCode) exitCodeView {
	return exitCodeView{ExitCode: ec, IsRetryable: ec.Retryable()}
}

func lookupExitCode(arg string) (model.ExitCode, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		return model.LookupExitCode(n)
	}
	return model.LookupExitCodeName(arg)
}

func writeExitCodes(w io.Writer, codes []model.ExitCode) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tBAND\tRETRYABLE\tMESSAGE")
	for _, ec := range codes {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\n", ec.Status, ec.Name, ec.Band, ec.Retryable(), ec.Message)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
