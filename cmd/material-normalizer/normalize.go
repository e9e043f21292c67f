// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/material-normalizer/internal/metrics"
	"github.com/pdiddy/material-normalizer/internal/pipeline"
	"github.com/pdiddy/material-normalizer/pkg/types"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Validate, merge, and write canonical material records",
	Long: `Normalize reads every record file under the input directory, splits it
into documents, validates each document, merges duplicate documents for the
same material, and writes one canonical record per material into the output
directory. Files whose canonical bytes are unchanged are left untouched.

The command fails when any error diagnostic is reported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNormalize(cmd, false)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate and merge records without writing anything",
	Long: `Check runs the same validation and merge as normalize but never writes
canonical records. It fails when any error diagnostic is reported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNormalize(cmd, true)
	},
}

func runNormalize(cmd *cobra.Command, dryRun bool) error {
	ncfg, err := normalizeConfig()
	if err != nil {
		return err
	}
	ncfg.DryRun = ncfg.DryRun || dryRun

	summary, err := pipeline.Run(cmd.Context(), ncfg, pipeline.Deps{
		Logger:  logger,
		Metrics: metrics.New(),
		Version: version,
	}, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d error(s) in %d document(s)", summary.Errors, summary.Documents)
	}
	return nil
}

// addNormalizeFlags registers the flags shared by normalize, check, and watch.
func addNormalizeFlags(cmd *cobra.Command) {
	d := types.NormalizeConfig{}.WithDefaults()
	f := cmd.Flags()
	f.String("input", d.InputDir, "directory of record files")
	f.String("output", d.OutputDir, "directory for canonical records")
	f.StringSlice("include", d.Include, "doublestar patterns of files to read, relative to --input")
	f.StringSlice("exclude", nil, "doublestar patterns of files to skip")
	f.String("delimiter", d.Delimiter, "line that separates concatenated documents")
	f.String("format", string(d.Format), "output format: yaml or md")
	f.String("precedence", string(d.Precedence), "merge rule for duplicates: newest or confidence")
	f.Bool("strict", false, "treat warnings as errors")
	f.Int("workers", d.Workers, "files processed concurrently")
	f.String("report", "", "write diagnostics to this file (.yaml or .json)")
	f.String("metrics-file", "", "write metrics in textfile exporter format")
}

func init() {
	addNormalizeFlags(normalizeCmd)
	addNormalizeFlags(checkCmd)

	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(checkCmd)
}
