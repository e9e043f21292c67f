// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/material-normalizer/internal/metrics"
	"github.com/pdiddy/material-normalizer/internal/pipeline"
	"github.com/pdiddy/material-normalizer/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run normalize whenever record files change",
	Long: `Watch runs normalize once, then again each time files under the input
directory change and stay quiet for the debounce period. Errors are reported
and the watch continues until interrupted.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ncfg, err := normalizeConfig()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dirs, err := pipeline.Watched(ncfg)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(ncfg.OutputDir)
	if err != nil {
		return fmt.Errorf("resolving output directory: %w", err)
	}

	rec := metrics.New()
	w := &watch.Watcher{
		Dirs:     dirs,
		Debounce: cfg.Watch.Debounce,
		Logger:   logger,
		Ignore: func(path string) bool {
			abs, err := filepath.Abs(path)
			return err == nil && (abs == out || strings.HasPrefix(abs, out+string(filepath.Separator)))
		},
	}
	return w.Run(cmd.Context(), func(ctx context.Context) error {
		summary, err := pipeline.Run(ctx, ncfg, pipeline.Deps{Logger: logger, Metrics: rec, Version: version}, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if summary.HasFailures() {
			return fmt.Errorf("%d error(s) in %d document(s)", summary.Errors, summary.Documents)
		}
		return nil
	})
}

func init() {
	addNormalizeFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before a re-run")

	rootCmd.AddCommand(watchCmd)
}
