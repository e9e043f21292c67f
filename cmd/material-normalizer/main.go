// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the material-normalizer CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/material-normalizer/internal/logging"
	"github.com/pdiddy/material-normalizer/internal/watch"
	"github.com/pdiddy/material-normalizer/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built from the log settings before any subcommand runs.
var logger = zap.NewNop()

// rootCmd is the base command for the material-normalizer CLI.
var rootCmd = &cobra.Command{
	Use:   "material-normalizer",
	Short: "Normalize and validate laser-cleaning material records",
	Long: `material-normalizer reads generated laser-cleaning material records
(YAML files and Markdown frontmatter, possibly several concatenated documents
per file), validates every document, merges duplicates for the same material
by a fixed precedence, and writes one canonical record per material.

Canonical records can be indexed into a SQLite catalog for search and export.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		bindFlags(cmd.Flags())
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		l, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		logger = l
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", zap.String("path", f))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./material-normalizer.yaml or ~/.config/material-normalizer/material-normalizer.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "console", "log format: console or json")
	pf.Bool("log-development", false, "enable development logging")

	setDefaults()
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("material-normalizer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "material-normalizer"))
		}
	}

	viper.SetEnvPrefix("MATERIAL_NORMALIZER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so environment variables such as
// MATERIAL_NORMALIZER_NORMALIZE_INPUT_DIR are seen by Unmarshal.
func setDefaults() {
	n := types.NormalizeConfig{}.WithDefaults()
	viper.SetDefault("normalize.input_dir", n.InputDir)
	viper.SetDefault("normalize.output_dir", n.OutputDir)
	viper.SetDefault("normalize.include", n.Include)
	viper.SetDefault("normalize.exclude", []string{})
	viper.SetDefault("normalize.delimiter", n.Delimiter)
	viper.SetDefault("normalize.format", string(n.Format))
	viper.SetDefault("normalize.precedence", string(n.Precedence))
	viper.SetDefault("normalize.strict", false)
	viper.SetDefault("normalize.workers", n.Workers)
	viper.SetDefault("normalize.dry_run", false)
	viper.SetDefault("normalize.report", "")
	viper.SetDefault("normalize.metrics_file", "")

	viper.SetDefault("catalog.catalog_dir", "catalog")
	viper.SetDefault("catalog.records_dir", n.OutputDir)
	viper.SetDefault("catalog.max_results", 20)

	viper.SetDefault("watch.debounce", watch.DefaultDebounce)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.development", false)
}

// flagKeys maps config keys to the flags that set them. Several commands
// share flag names, so binding happens for the running command only.
var flagKeys = map[string]string{
	"normalize.input_dir":    "input",
	"normalize.output_dir":   "output",
	"normalize.include":      "include",
	"normalize.exclude":      "exclude",
	"normalize.delimiter":    "delimiter",
	"normalize.format":       "format",
	"normalize.precedence":   "precedence",
	"normalize.strict":       "strict",
	"normalize.workers":      "workers",
	"normalize.report":       "report",
	"normalize.metrics_file": "metrics-file",
	"catalog.catalog_dir":    "catalog-dir",
	"catalog.records_dir":    "records-dir",
	"catalog.max_results":    "max-results",
	"watch.debounce":         "debounce",
	"log.level":              "log-level",
	"log.format":             "log-format",
	"log.development":        "log-development",
}

// bindFlags binds every known config key to its flag in fs, if present.
func bindFlags(fs *pflag.FlagSet) {
	for key, flag := range flagKeys {
		if f := fs.Lookup(flag); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				panic(fmt.Sprintf("binding %s: %v", flag, err))
			}
		}
	}
}

// loadConfig decodes the merged config file, environment, and flags.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// normalizeConfig returns the validated normalize settings.
func normalizeConfig() (types.NormalizeConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return types.NormalizeConfig{}, err
	}
	n := cfg.Normalize.WithDefaults()
	switch n.Format {
	case types.OutputYAML, types.OutputMarkdown:
	default:
		return n, fmt.Errorf("unsupported format %q: use yaml or md", n.Format)
	}
	switch n.Precedence {
	case types.PrecedenceNewest, types.PrecedenceConfidence:
	default:
		return n, fmt.Errorf("unsupported precedence %q: use newest or confidence", n.Precedence)
	}
	return n, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
