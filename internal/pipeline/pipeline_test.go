// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/material-normalizer/internal/emit"
	"github.com/pdiddy/material-normalizer/internal/metrics"
	"github.com/pdiddy/material-normalizer/pkg/types"
)

const bluestone = `---
name: Bluestone
category: stone
density: 2.6 g/cm³
---
First description.
<!-- z-beam:record -->
---
name: Bluestone
category: stone
density: 2.9 g/cm³
---
Second description.
`

const steel = `name: Stainless Steel
slug: steel
category: metal
properties:
  density:
    value: 7.9
    unit: g/cm³
machineSettings:
  powerRange: 20-100 W
`

func writeFixtures(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"stones/bluestone-laser-cleaning.md": bluestone,
		"metals/steel-laser-cleaning.yaml":   steel,
		"copper-laser-cleaning.yaml":         "name: \"Copper\ncategory: metal\n",
		"notes.txt":                          "not a record",
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func config(root string) types.NormalizeConfig {
	return types.NormalizeConfig{
		InputDir:  root,
		OutputDir: filepath.Join(root, "out"),
	}
}

func TestDiscover(t *testing.T) {
	root := writeFixtures(t)

	files, err := Discover(config(root))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"copper-laser-cleaning.yaml",
		"metals/steel-laser-cleaning.yaml",
		"stones/bluestone-laser-cleaning.md",
	}, files)

	cfg := config(root)
	cfg.Exclude = []string{"metals/**"}
	files, err = Discover(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"copper-laser-cleaning.yaml", "stones/bluestone-laser-cleaning.md"}, files)
}

func TestDiscoverSkipsOutputDir(t *testing.T) {
	root := writeFixtures(t)
	cfg := config(root)
	require.NoError(t, os.MkdirAll(cfg.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputDir, "steel-laser-cleaning.yaml"), []byte(steel), 0o644))

	files, err := Discover(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"copper-laser-cleaning.yaml",
		"metals/steel-laser-cleaning.yaml",
		"stones/bluestone-laser-cleaning.md",
	}, files)

	cfg.OutputDir = root
	_, err = Discover(cfg)
	assert.Error(t, err, "output may not be the input directory")
}

func TestDiscoverErrors(t *testing.T) {
	_, err := Discover(types.NormalizeConfig{InputDir: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)

	cfg := config(t.TempDir())
	cfg.Include = []string{"[unclosed"}
	_, err = Discover(cfg)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	root := writeFixtures(t)
	rec := metrics.New()
	var out bytes.Buffer

	summary, err := Run(context.Background(), config(root), Deps{Metrics: rec, Version: "1.0.0"}, &out)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Files)
	assert.Equal(t, 4, summary.Documents)
	assert.Equal(t, 3, summary.Accepted)
	assert.Equal(t, 1, summary.Rejected)
	assert.Equal(t, 2, summary.Materials)
	assert.Equal(t, 2, summary.Written)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 1, summary.Warnings, "the bluestone density conflict")
	assert.True(t, summary.HasFailures())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "rejected copper-laser-cleaning.yaml (1 of 1 documents)"), lines[0])
	assert.Contains(t, out.String(), "ok       metals/steel-laser-cleaning.yaml (1 documents)")
	assert.Contains(t, out.String(), "ok       stones/bluestone-laser-cleaning.md (2 documents)")
	assert.Contains(t, out.String(), "[merge-conflict]")
	assert.Equal(t, "3 files, 4 documents (3 accepted, 1 rejected), 2 materials, 2 written, 0 unchanged, 1 errors, 1 warnings", lines[len(lines)-1])

	got, err := emit.ReadFile(filepath.Join(root, "out", "bluestone-laser-cleaning.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 2.9, *got.Properties["density"].Value, "the later document of one file wins")
	assert.Len(t, got.Sources, 2)

	got, err = emit.ReadFile(filepath.Join(root, "out", "steel-laser-cleaning.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 20.0, *got.Settings["power"].Min)
	assert.Equal(t, 100.0, *got.Settings["power"].Max)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.FilesTotal.WithLabelValues(OutcomeRejected)))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.FilesTotal.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 3.0, testutil.ToFloat64(rec.DocumentsTotal.WithLabelValues("accepted")))
}

func TestRunIsIdempotent(t *testing.T) {
	root := writeFixtures(t)
	cfg := config(root)

	_, err := Run(context.Background(), cfg, Deps{}, &bytes.Buffer{})
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(cfg.OutputDir, "steel-laser-cleaning.yaml"))
	require.NoError(t, err)

	cfg.Workers = 1
	summary, err := Run(context.Background(), cfg, Deps{}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Written)
	assert.Equal(t, 2, summary.Unchanged)

	again, err := os.ReadFile(filepath.Join(cfg.OutputDir, "steel-laser-cleaning.yaml"))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(again))
}

func TestRunDryRunWritesNothing(t *testing.T) {
	root := writeFixtures(t)
	cfg := config(root)
	cfg.DryRun = true
	var out bytes.Buffer

	summary, err := Run(context.Background(), cfg, Deps{}, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Materials)
	assert.Equal(t, 0, summary.Written)
	assert.NotContains(t, out.String(), "written")

	_, err = os.Stat(cfg.OutputDir)
	assert.True(t, os.IsNotExist(err))
}

func TestRunStrict(t *testing.T) {
	root := writeFixtures(t)
	require.NoError(t, os.Remove(filepath.Join(root, "copper-laser-cleaning.yaml")))
	cfg := config(root)
	cfg.Strict = true

	summary, err := Run(context.Background(), cfg, Deps{}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Warnings)
	assert.Equal(t, 1, summary.Errors, "the merge conflict becomes an error")
	assert.True(t, summary.HasFailures())
}

func TestRunCancelled(t *testing.T) {
	root := writeFixtures(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, config(root), Deps{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWritesReportAndMetrics(t *testing.T) {
	root := writeFixtures(t)
	for _, name := range []string{"report.json", "report.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg := config(root)
			cfg.DryRun = true
			cfg.ReportPath = filepath.Join(t.TempDir(), name)
			cfg.MetricsPath = filepath.Join(t.TempDir(), "normalizer.prom")

			summary, err := Run(context.Background(), cfg, Deps{}, &bytes.Buffer{})
			require.NoError(t, err)

			got, err := ReadReport(cfg.ReportPath)
			require.NoError(t, err)
			assert.Equal(t, summary.Errors, got.Errors)
			assert.Equal(t, summary.Documents, got.Documents)
			assert.Len(t, got.Diagnostics, len(summary.Diagnostics))

			prom, err := os.ReadFile(cfg.MetricsPath)
			require.NoError(t, err)
			assert.Contains(t, string(prom), "material_normalizer_files_total")
		})
	}
}

func TestWatched(t *testing.T) {
	root := writeFixtures(t)
	dirs, err := Watched(config(root))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{root, root + "/metals", root + "/stones"}, dirs)
}
