package types

import "time"

// OutputFormat selects how canonical records are written.
type OutputFormat string

const (
	OutputYAML     OutputFormat = "yaml"
	OutputMarkdown OutputFormat = "md"
)

// Precedence selects the rule used to merge duplicate documents.
type Precedence string

const (
	// PrecedenceNewest takes each field from the highest-ranked document
	// that sets it.
	PrecedenceNewest Precedence = "newest"

	// PrecedenceConfidence takes each measurement from the document that
	// states the highest confidence, falling back to rank on ties.
	PrecedenceConfidence Precedence = "confidence"
)

// DefaultDelimiter separates concatenated documents within one file.
const DefaultDelimiter = "<!-- z-beam:record -->"

// DefaultInclude matches the record file naming convention.
var DefaultInclude = []string{"**/*-laser-cleaning.{md,yaml,yml}"}

// NormalizeConfig holds settings for the normalize and check stages.
type NormalizeConfig struct {
	// InputDir is the root of the record tree.
	InputDir string `json:"input_dir" yaml:"input_dir" mapstructure:"input_dir"`

	// OutputDir receives one canonical file per material.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// Include lists doublestar patterns, relative to InputDir, of files to read.
	Include []string `json:"include" yaml:"include" mapstructure:"include"`

	// Exclude lists doublestar patterns of files to skip.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty" mapstructure:"exclude"`

	// Delimiter is the token line that separates concatenated documents.
	Delimiter string `json:"delimiter" yaml:"delimiter" mapstructure:"delimiter"`

	// Format selects yaml or md output.
	Format OutputFormat `json:"format" yaml:"format" mapstructure:"format"`

	// Precedence selects the merge rule for duplicate documents.
	Precedence Precedence `json:"precedence" yaml:"precedence" mapstructure:"precedence"`

	// Strict escalates warnings to errors.
	Strict bool `json:"strict" yaml:"strict" mapstructure:"strict"`

	// Workers bounds concurrent file processing (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// DryRun validates and merges without writing records.
	DryRun bool `json:"dry_run" yaml:"dry_run" mapstructure:"dry_run"`

	// ReportPath, when set, receives the diagnostics as YAML or JSON
	// depending on its extension.
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty" mapstructure:"report"`

	// MetricsPath, when set, receives metrics in textfile exporter format.
	MetricsPath string `json:"metrics_path,omitempty" yaml:"metrics_path,omitempty" mapstructure:"metrics_file"`
}

// WithDefaults fills zero fields with their defaults.
func (c NormalizeConfig) WithDefaults() NormalizeConfig {
	if c.InputDir == "" {
		c.InputDir = "records"
	}
	if c.OutputDir == "" {
		c.OutputDir = "normalized"
	}
	if len(c.Include) == 0 {
		c.Include = DefaultInclude
	}
	if c.Delimiter == "" {
		c.Delimiter = DefaultDelimiter
	}
	if c.Format == "" {
		c.Format = OutputYAML
	}
	if c.Precedence == "" {
		c.Precedence = PrecedenceNewest
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	return c
}

// CatalogConfig holds settings for the catalog stage.
type CatalogConfig struct {
	// CatalogDir holds catalog.db and export files.
	CatalogDir string `json:"catalog_dir" yaml:"catalog_dir" mapstructure:"catalog_dir"`

	// RecordsDir is the directory of canonical records to ingest.
	RecordsDir string `json:"records_dir" yaml:"records_dir" mapstructure:"records_dir"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// WatchConfig holds settings for watch mode.
type WatchConfig struct {
	// Debounce is the quiet period after the last change before a re-run.
	Debounce time.Duration `json:"debounce" yaml:"debounce" mapstructure:"debounce"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "console" or "json".
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// Development enables zap's development mode.
	Development bool `json:"development" yaml:"development" mapstructure:"development"`
}

// Config groups all stage configurations.
type Config struct {
	Normalize NormalizeConfig `json:"normalize" yaml:"normalize" mapstructure:"normalize"`
	Catalog   CatalogConfig   `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Watch     WatchConfig     `json:"watch" yaml:"watch" mapstructure:"watch"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
}
