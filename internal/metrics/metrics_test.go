// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/material-normalizer/pkg/types"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.RecordFile("ok", 2*time.Millisecond)
	r.RecordFile("ok", time.Millisecond)
	r.RecordFile("rejected", time.Millisecond)
	r.RecordDocument("accepted")
	r.RecordDiagnostics(types.Diagnostics{
		{Code: types.CodeRangeOrder, Severity: types.SeverityError},
		{Code: types.CodeRangeOrder, Severity: types.SeverityError},
		{Code: types.CodeImplausible, Severity: types.SeverityWarning},
	})
	r.RecordRecord("written")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.FilesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.FilesTotal.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.DocumentsTotal.WithLabelValues("accepted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.DiagnosticsTotal.WithLabelValues("range-order", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.DiagnosticsTotal.WithLabelValues("implausible", "warning")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RecordsTotal.WithLabelValues("written")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.FileDuration))
}

func TestRecordersAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RunsTotal.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.RunsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RunsTotal))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.RunsTotal.Inc()
	path := filepath.Join(t.TempDir(), "normalizer.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "material_normalizer_runs_total 1")
}
