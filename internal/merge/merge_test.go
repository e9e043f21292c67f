// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/material-normalizer/internal/document"
	"github.com/pdiddy/material-normalizer/internal/schema"
	"github.com/pdiddy/material-normalizer/pkg/types"
)

func src(path string, doc int, version string, generated string) types.Provenance {
	p := types.Provenance{Path: path, Document: doc, Version: version}
	if generated != "" {
		t, err := time.Parse("2006-01-02", generated)
		if err != nil {
			panic(err)
		}
		p.Generated = t
	}
	return p
}

func meas(v float64, unit string) types.Measurement {
	return types.Measurement{Value: types.Float(v), Unit: unit}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.10.0", "1.9.3", 1},
		{"2", "10", -1},
		{"1.2", "1.2.0", 0},
		{"v1.4.2", "1.4.2", 0},
		{"", "0.1", -1},
		{"1.0", "", 1},
		{"1.0.rc1", "1.0.1", -1},
		{"", "", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
		assert.Equal(t, -tt.want, CompareVersions(tt.b, tt.a), "%q vs %q", tt.b, tt.a)
	}
}

func TestLess(t *testing.T) {
	tests := []struct {
		name string
		a, b types.Provenance
	}{
		{"higher version first", src("b.yaml", 0, "2.0", ""), src("a.yaml", 0, "1.9", "2030-01-01")},
		{"newer generation first", src("b.yaml", 0, "1.0", "2025-02-01"), src("a.yaml", 0, "1.0", "2025-01-01")},
		{"later document of one file first", src("a.yaml", 2, "", ""), src("a.yaml", 1, "", "")},
		{"path ascending last", src("a.yaml", 0, "", ""), src("b.yaml", 5, "", "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Less(tt.a, tt.b))
			assert.False(t, Less(tt.b, tt.a))
		})
	}
}

func TestGroupNewest(t *testing.T) {
	older := types.Record{
		Name: "Bluestone", Slug: "bluestone", Category: "stone", Formula: "CaCO3",
		Properties:   map[string]types.Measurement{"density": meas(2.6, "g/cm³"), "hardness": meas(4, "Mohs")},
		Applications: []string{"Paving", "Restoration"},
		Sources:      []types.Provenance{src("bluestone-laser-cleaning.md", 0, "1.0", "")},
		Body:         "old body",
	}
	newer := types.Record{
		Name: "Bluestone", Slug: "bluestone",
		Properties:   map[string]types.Measurement{"density": meas(2.9, "g/cm³")},
		Settings:     map[string]types.Measurement{"power": meas(100, "W")},
		Applications: []string{"restoration", "Monuments"},
		Sources:      []types.Provenance{src("bluestone-laser-cleaning.md", 1, "1.1", "")},
		Body:         "new body",
	}

	got, diags := Group([]types.Record{older, newer}, types.PrecedenceNewest)

	assert.Equal(t, "stone", got.Category, "empty fields fall through to lower ranks")
	assert.Equal(t, "CaCO3", got.Formula)
	assert.Equal(t, 2.9, *got.Properties["density"].Value)
	assert.Equal(t, 4.0, *got.Properties["hardness"].Value)
	assert.Equal(t, 100.0, *got.Settings["power"].Value)
	assert.Equal(t, []string{"restoration", "Monuments", "Paving"}, got.Applications)
	assert.Equal(t, "new body", got.Body)
	require.Len(t, got.Sources, 2)
	assert.Equal(t, 1, got.Sources[0].Document)
	assert.Equal(t, 0, got.Sources[1].Document)

	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, types.CodeMergeConflict, d.Code)
	assert.Equal(t, types.SeverityWarning, d.Severity)
	assert.Equal(t, "properties.density", d.Field)
	assert.Equal(t, 0, d.Document, "the diagnostic points at the discarded document")
	assert.Contains(t, d.Message, "bluestone-laser-cleaning.md#1")
	assert.Contains(t, d.Message, "bluestone-laser-cleaning.md#0")
}

func TestGroupRanksByBannerVersion(t *testing.T) {
	files := map[string]string{
		"a/iron-laser-cleaning.yaml": "name: Iron\ncategory: metal\ndensity: 7.5 g/cm³\n# Generated by Z-Beam v1.0.0\n",
		"b/iron-laser-cleaning.yaml": "name: Iron\ncategory: metal\ndensity: 7.87 g/cm³\n# Generated by Z-Beam v2.0.0\n",
	}
	var records []types.Record
	for _, path := range []string{"a/iron-laser-cleaning.yaml", "b/iron-laser-cleaning.yaml"} {
		f := document.Split(path, []byte(files[path]), types.DefaultDelimiter)
		require.Len(t, f.Documents, 1)
		rec, _ := schema.FromNode(f.Documents[0])
		records = append(records, rec)
	}

	got, diags := Group(records, types.PrecedenceNewest)
	assert.Equal(t, 7.87, *got.Properties["density"].Value)
	require.Len(t, got.Sources, 2)
	assert.Equal(t, "b/iron-laser-cleaning.yaml", got.Sources[0].Path)
	assert.Equal(t, "2.0.0", got.Sources[0].Version)
	assert.Equal(t, "Z-Beam", got.Sources[0].Generator)
	require.Len(t, diags, 1)
	assert.Equal(t, "a/iron-laser-cleaning.yaml", diags[0].Path)
}

func TestGroupConfidence(t *testing.T) {
	sure := meas(2.6, "g/cm³")
	sure.Confidence = types.Float(0.95)
	unsure := meas(2.9, "g/cm³")
	unsure.Confidence = types.Float(0.6)
	unstated := meas(3.1, "g/cm³")

	a := types.Record{Slug: "x", Properties: map[string]types.Measurement{"density": sure}, Sources: []types.Provenance{src("x.yaml", 0, "1.0", "")}}
	b := types.Record{Slug: "x", Properties: map[string]types.Measurement{"density": unsure}, Sources: []types.Provenance{src("x.yaml", 1, "2.0", "")}}
	c := types.Record{Slug: "x", Properties: map[string]types.Measurement{"density": unstated}, Sources: []types.Provenance{src("x.yaml", 2, "3.0", "")}}

	got, diags := Group([]types.Record{a, b, c}, types.PrecedenceConfidence)
	assert.Equal(t, 2.6, *got.Properties["density"].Value)
	assert.Len(t, diags, 2)

	got, _ = Group([]types.Record{a, b, c}, types.PrecedenceNewest)
	assert.Equal(t, 3.1, *got.Properties["density"].Value)
}

func TestGroupConfidenceTieKeepsRank(t *testing.T) {
	x := meas(1, "W")
	x.Confidence = types.Float(0.8)
	y := meas(2, "W")
	y.Confidence = types.Float(0.8)
	a := types.Record{Slug: "s", Settings: map[string]types.Measurement{"power": x}, Sources: []types.Provenance{src("a.yaml", 0, "", "")}}
	b := types.Record{Slug: "s", Settings: map[string]types.Measurement{"power": y}, Sources: []types.Provenance{src("b.yaml", 0, "", "")}}

	got, _ := Group([]types.Record{b, a}, types.PrecedenceConfidence)
	assert.Equal(t, 1.0, *got.Settings["power"].Value)
}

func TestDiffer(t *testing.T) {
	assert.False(t, Differ(meas(1, "W"), meas(1+1e-12, "W")))
	assert.True(t, Differ(meas(1, "W"), meas(1.001, "W")))
	assert.True(t, Differ(meas(1, "HV"), meas(1, "HB")))
	assert.True(t, Differ(meas(1, "W"), types.Measurement{Min: types.Float(1), Unit: "W"}))
	assert.False(t, Differ(meas(0, "W"), meas(0, "W")))
}

// Merging the same documents in any order yields the same records and
// diagnostics.
func TestMergeIsOrderIndependent(t *testing.T) {
	var records []types.Record
	for i, slug := range []string{"oak", "oak", "oak", "granite", "granite", "steel"} {
		records = append(records, types.Record{
			Name: slug,
			Slug: slug,
			Properties: map[string]types.Measurement{
				"density": meas(float64(i)+0.5, "g/cm³"),
			},
			Applications: []string{"A", "b", "B"},
			Extra:        map[string]any{"note": i},
			Sources:      []types.Provenance{src(slug+"-laser-cleaning.yaml", i%2, "1."+string(rune('0'+i%3)), "")},
		})
	}

	want, wantDiags := Merge(records, types.PrecedenceNewest)
	require.Len(t, want, 3)
	assert.Equal(t, []string{"granite", "oak", "steel"}, []string{want[0].Slug, want[1].Slug, want[2].Slug})

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]types.Record(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, gotDiags := Merge(shuffled, types.PrecedenceNewest)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("records differ after shuffle (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(wantDiags, gotDiags); diff != "" {
			t.Fatalf("diagnostics differ after shuffle (-want +got):\n%s", diff)
		}
	}
}

func TestMergeSingleDocumentUnchanged(t *testing.T) {
	r := types.Record{Name: "Tin", Slug: "tin", Sources: []types.Provenance{src("tin.yaml", 0, "", "")}}
	got, diags := Merge([]types.Record{r}, types.PrecedenceNewest)
	assert.Empty(t, diags)
	require.Len(t, got, 1)
	if diff := cmp.Diff(r, got[0]); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
