// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the normalize and check stages over a record tree:
// discover files, split and validate them concurrently, merge accepted
// documents per material, and emit canonical records.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/material-normalizer/internal/document"
	"github.com/pdiddy/material-normalizer/internal/emit"
	"github.com/pdiddy/material-normalizer/internal/logging"
	"github.com/pdiddy/material-normalizer/internal/merge"
	"github.com/pdiddy/material-normalizer/internal/metrics"
	"github.com/pdiddy/material-normalizer/internal/validate"
	"github.com/pdiddy/material-normalizer/pkg/types"
)

// File outcomes written to the progress stream.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Deps carries the collaborators of a run. Zero fields get no-op defaults.
type Deps struct {
	Logger  *zap.Logger
	Metrics *metrics.Recorder
	Version string
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	return d
}

// Summary holds the counts of one run.
type Summary struct {
	Files     int `json:"files" yaml:"files"`
	Documents int `json:"documents" yaml:"documents"`
	Accepted  int `json:"accepted" yaml:"accepted"`
	Rejected  int `json:"rejected" yaml:"rejected"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Materials int `json:"materials" yaml:"materials"`
	Written   int `json:"written" yaml:"written"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
	Errors    int `json:"errors" yaml:"errors"`
	Warnings  int `json:"warnings" yaml:"warnings"`

	// Diagnostics lists every diagnostic of the run in file order.
	Diagnostics types.Diagnostics `json:"diagnostics" yaml:"diagnostics"`

	// Records are the merged canonical records, sorted by slug.
	Records []types.Record `json:"-" yaml:"-"`
}

// HasFailures reports whether any error diagnostic was raised.
func (s Summary) HasFailures() bool {
	return s.Errors > 0
}

// fileResult is the outcome of processing one file.
type fileResult struct {
	path     string
	outcome  string
	docs     []validate.Result
	fileDiag types.Diagnostics
	elapsed  time.Duration
}

// Run executes the pipeline and writes progress to w. With cfg.DryRun set
// it validates and merges but writes no records. The returned error covers
// operational failures only; validation problems are in the Summary.
func Run(ctx context.Context, cfg types.NormalizeConfig, deps Deps, w io.Writer) (Summary, error) {
	cfg = cfg.WithDefaults()
	deps = deps.withDefaults()
	log := deps.Logger
	deps.Metrics.RunsTotal.Inc()

	files, err := Discover(cfg)
	if err != nil {
		return Summary{}, err
	}
	log.Debug("discovered record files", zap.Int("files", len(files)), zap.String("input", cfg.InputDir))

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = processFile(cfg, rel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("processing files: %w", err)
	}

	var summary Summary
	var accepted []types.Record
	for _, r := range results {
		summary.Files++
		deps.Metrics.RecordFile(r.outcome, r.elapsed)
		summary.Diagnostics = append(summary.Diagnostics, r.fileDiag...)
		for _, res := range r.docs {
			summary.Documents++
			summary.Diagnostics = append(summary.Diagnostics, res.Diagnostics...)
			switch {
			case res.Accepted:
				summary.Accepted++
				accepted = append(accepted, res.Record)
				deps.Metrics.RecordDocument("accepted")
			case res.Skipped:
				summary.Skipped++
				deps.Metrics.RecordDocument("skipped")
			default:
				summary.Rejected++
				deps.Metrics.RecordDocument("rejected")
			}
		}
		writeProgress(w, r)
	}

	records, conflicts := merge.Merge(accepted, cfg.Precedence)
	if cfg.Strict {
		conflicts = conflicts.Escalate()
	}
	for _, d := range conflicts {
		fmt.Fprintf(w, "  %s\n", d.Error())
	}
	summary.Diagnostics = append(summary.Diagnostics, conflicts...)
	summary.Materials = len(records)
	summary.Records = records

	if !cfg.DryRun {
		writer := &emit.Writer{Dir: cfg.OutputDir, Format: cfg.Format, Version: deps.Version}
		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			status, err := writer.Write(rec)
			if err != nil {
				return summary, err
			}
			deps.Metrics.RecordRecord(string(status))
			switch status {
			case emit.StatusWritten:
				summary.Written++
				log.Debug("wrote record", zap.String("slug", rec.Slug), zap.String("path", writer.Path(rec)))
			case emit.StatusUnchanged:
				summary.Unchanged++
			}
		}
	}

	summary.Errors = summary.Diagnostics.Count(types.SeverityError)
	summary.Warnings = summary.Diagnostics.Count(types.SeverityWarning)
	deps.Metrics.RecordDiagnostics(summary.Diagnostics)
	for _, d := range summary.Diagnostics {
		if d.Severity == types.SeverityInfo {
			log.Debug(d.Message, logging.Diagnostic(d)...)
		}
	}

	fmt.Fprintln(w, summaryLine(summary, cfg.DryRun))
	log.Info("run finished",
		zap.Int("files", summary.Files),
		zap.Int("documents", summary.Documents),
		zap.Int("accepted", summary.Accepted),
		zap.Int("rejected", summary.Rejected),
		zap.Int("materials", summary.Materials),
		zap.Int("errors", summary.Errors),
		zap.Int("warnings", summary.Warnings),
	)

	if cfg.ReportPath != "" {
		if err := WriteReport(cfg.ReportPath, summary); err != nil {
			return summary, err
		}
	}
	if cfg.MetricsPath != "" {
		if err := deps.Metrics.WriteTextfile(cfg.MetricsPath); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// processFile splits and validates one file.
func processFile(cfg types.NormalizeConfig, rel string) fileResult {
	start := time.Now()
	f := document.ReadFile(cfg.InputDir, rel, cfg.Delimiter)
	r := fileResult{path: rel, outcome: OutcomeOK, fileDiag: f.Diagnostics}
	if cfg.Strict {
		r.fileDiag = r.fileDiag.Escalate()
	}
	if r.fileDiag.HasErrors() {
		r.outcome = OutcomeFailed
	}
	for _, doc := range f.Documents {
		res := validate.Document(doc, cfg.Strict)
		if res.Rejected() && r.outcome == OutcomeOK {
			r.outcome = OutcomeRejected
		}
		r.docs = append(r.docs, res)
	}
	r.elapsed = time.Since(start)
	return r
}

func writeProgress(w io.Writer, r fileResult) {
	rejected := 0
	for _, d := range r.docs {
		if d.Rejected() {
			rejected++
		}
	}
	switch r.outcome {
	case OutcomeFailed:
		fmt.Fprintf(w, "%-8s %s\n", r.outcome, r.path)
	case OutcomeRejected:
		fmt.Fprintf(w, "%-8s %s (%d of %d documents)\n", r.outcome, r.path, rejected, len(r.docs))
	default:
		fmt.Fprintf(w, "%-8s %s (%d documents)\n", r.outcome, r.path, len(r.docs))
	}
	for _, d := range r.fileDiag {
		fmt.Fprintf(w, "  %s\n", d.Error())
	}
	for _, res := range r.docs {
		for _, d := range res.Diagnostics {
			if d.Severity != types.SeverityInfo {
				fmt.Fprintf(w, "  %s\n", d.Error())
			}
		}
	}
}

func summaryLine(s Summary, dryRun bool) string {
	line := fmt.Sprintf("%d files, %d documents (%d accepted, %d rejected), %d materials",
		s.Files, s.Documents, s.Accepted, s.Rejected, s.Materials)
	if !dryRun {
		line += fmt.Sprintf(", %d written, %d unchanged", s.Written, s.Unchanged)
	}
	return line + fmt.Sprintf(", %d errors, %d warnings", s.Errors, s.Warnings)
}
