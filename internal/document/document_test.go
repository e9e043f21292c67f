// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/material-normalizer/pkg/types"
)

const delim = types.DefaultDelimiter

func TestSplitMarkdownFrontmatter(t *testing.T) {
	src := `---
name: Aluminum
category: metal
density: 2.7 g/cm³
---

# Aluminum laser cleaning

Body text.
`
	f := Split("aluminum-laser-cleaning.md", []byte(src), delim)
	require.Len(t, f.Documents, 1)

	doc := f.Documents[0]
	require.NotNil(t, doc.Root)
	assert.Empty(t, doc.Diagnostics)
	assert.Equal(t, 2, doc.Line)
	assert.Equal(t, "# Aluminum laser cleaning\n\nBody text.", doc.Body)
	assert.Equal(t, "name", doc.Root.Content[0].Value)
	assert.Equal(t, 2, doc.FileLine(doc.Root.Content[0]))
	assert.Equal(t, 4, doc.FileLine(doc.Root.Content[4]))
}

func TestSplitDelimitedDocuments(t *testing.T) {
	src := strings.Join([]string{
		"---",
		"name: Bluestone",
		"density: 2.6 g/cm³",
		"---",
		"first body",
		delim,
		"---",
		"name: Bluestone",
		"density: 2.9 g/cm³",
		"---",
		"second body",
	}, "\n")

	f := Split("bluestone-laser-cleaning.md", []byte(src), delim)
	require.Len(t, f.Documents, 2)
	assert.Equal(t, 0, f.Documents[0].Index)
	assert.Equal(t, 1, f.Documents[1].Index)
	assert.Equal(t, 2, f.Documents[0].Line)
	assert.Equal(t, 8, f.Documents[1].Line)
	assert.Equal(t, "first body", f.Documents[0].Body)
	assert.Equal(t, "second body", f.Documents[1].Body)
}

func TestSplitYAMLStream(t *testing.T) {
	src := `name: Oak
category: wood
---
name: Oak
category: wood
density: 0.75 g/cm³
# Generated by Z-Beam v1.4.2
# Generated: 2025-03-01
`
	f := Split("oak-laser-cleaning.yaml", []byte(src), delim)
	require.Len(t, f.Documents, 2)
	assert.Equal(t, 1, f.Documents[0].Line)
	assert.Equal(t, 4, f.Documents[1].Line)

	p := f.Documents[1].Provenance
	assert.Equal(t, "Z-Beam", p.Generator)
	assert.Equal(t, "1.4.2", p.Version)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), p.Generated)
	assert.Equal(t, "oak-laser-cleaning.yaml", p.Path)
	assert.Equal(t, 1, p.Document)
}

func TestSplitBannerAfterMarker(t *testing.T) {
	src := "name: Granite\n---\n# Generated by Z-Beam 2.0\n"
	f := Split("granite-laser-cleaning.yaml", []byte(src), delim)
	require.Len(t, f.Documents, 1)
	assert.Equal(t, "2.0", f.Documents[0].Provenance.Version)
}

func TestSplitRejectsMalformedYAML(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unbalanced quote", "name: \"Copper\ncategory: metal\n"},
		{"bad indentation", "name: Copper\n  category: metal\n density: 8.96\n"},
		{"truncated flow mapping", "name: Copper\nproperties: {density: 8.96\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "# header\nname: Ok\n---\n" + tt.src
			f := Split("copper-laser-cleaning.yaml", []byte(src), delim)
			require.Len(t, f.Documents, 2)

			ok := f.Documents[0]
			assert.False(t, ok.Rejected())

			bad := f.Documents[1]
			assert.True(t, bad.Rejected())
			require.Len(t, bad.Diagnostics, 1)
			d := bad.Diagnostics[0]
			assert.Equal(t, types.CodeYAMLSyntax, d.Code)
			assert.Equal(t, types.SeverityError, d.Severity)
			assert.Equal(t, "copper-laser-cleaning.yaml", d.Path)
			assert.Equal(t, 1, d.Document)
			assert.GreaterOrEqual(t, d.Line, 4, "line must be offset into the file")
			assert.NotEmpty(t, d.Message)
		})
	}
}

func TestSplitUnclosedFrontmatter(t *testing.T) {
	f := Split("tin-laser-cleaning.md", []byte("---\nname: Tin\n"), delim)
	require.Len(t, f.Documents, 1)
	d := f.Documents[0]
	assert.True(t, d.Rejected())
	require.Len(t, d.Diagnostics, 1)
	assert.Equal(t, types.CodeYAMLSyntax, d.Diagnostics[0].Code)
	assert.Equal(t, 1, d.Diagnostics[0].Line)
}

func TestSplitDuplicateKeys(t *testing.T) {
	src := `name: Slate
density: 2.7 g/cm³
properties:
  hardness: 3 Mohs
  hardness: 4 Mohs
density: 2.8 g/cm³
`
	f := Split("slate-laser-cleaning.yaml", []byte(src), delim)
	require.Len(t, f.Documents, 1)
	doc := f.Documents[0]
	require.NotNil(t, doc.Root)
	assert.False(t, doc.Rejected(), "duplicate keys are warnings")

	require.Len(t, doc.Diagnostics, 2)
	for _, d := range doc.Diagnostics {
		assert.Equal(t, types.CodeDuplicateKey, d.Code)
		assert.Equal(t, types.SeverityWarning, d.Severity)
	}
	assert.Equal(t, "density", doc.Diagnostics[0].Field)
	assert.Equal(t, 2, doc.Diagnostics[0].Line)
	assert.Contains(t, doc.Diagnostics[0].Message, "line 6")
	assert.Equal(t, "properties.hardness", doc.Diagnostics[1].Field)

	// The last occurrence wins and the earlier one is gone.
	keys := map[string]string{}
	for i := 0; i+1 < len(doc.Root.Content); i += 2 {
		keys[doc.Root.Content[i].Value] = doc.Root.Content[i+1].Value
	}
	assert.Equal(t, "2.8 g/cm³", keys["density"])
	props := doc.Root.Content[3]
	require.Len(t, props.Content, 2)
	assert.Equal(t, "4 Mohs", props.Content[1].Value)
}

func TestSplitEmptyAndNonMappingDocuments(t *testing.T) {
	src := "name: A\n---\n---\n- just\n- a list\n"
	f := Split("a-laser-cleaning.yaml", []byte(src), delim)
	require.Len(t, f.Documents, 3)

	assert.False(t, f.Documents[0].Rejected())

	empty := f.Documents[1]
	require.Len(t, empty.Diagnostics, 1)
	assert.Equal(t, types.CodeEmptyDocument, empty.Diagnostics[0].Code)
	assert.Equal(t, types.SeverityWarning, empty.Diagnostics[0].Severity)

	list := f.Documents[2]
	require.Len(t, list.Diagnostics, 1)
	assert.Equal(t, types.CodeTypeMismatch, list.Diagnostics[0].Code)
	assert.Equal(t, "sequence", list.Diagnostics[0].Actual)
}

func TestSplitCRLFAndBOM(t *testing.T) {
	src := "\xef\xbb\xbf---\r\nname: Glass\r\n---\r\nbody\r\n"
	f := Split("glass-laser-cleaning.md", []byte(src), delim)
	require.Len(t, f.Documents, 1)
	require.NotNil(t, f.Documents[0].Root)
	assert.Equal(t, "Glass", f.Documents[0].Root.Content[1].Value)
	assert.Equal(t, "body", f.Documents[0].Body)
}

func TestReadFileMissing(t *testing.T) {
	f := ReadFile(t.TempDir(), "nope-laser-cleaning.yaml", delim)
	require.Len(t, f.Diagnostics, 1)
	assert.Equal(t, types.CodeReadFailed, f.Diagnostics[0].Code)
	assert.Len(t, f.AllDiagnostics(), 1)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "metals"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metals", "iron-laser-cleaning.yaml"), []byte("name: Iron\n"), 0o644))

	f := ReadFile(dir, "metals/iron-laser-cleaning.yaml", delim)
	require.Len(t, f.Documents, 1)
	assert.Equal(t, "metals/iron-laser-cleaning.yaml", f.Documents[0].Path)
}

func TestSlugFromPath(t *testing.T) {
	assert.Equal(t, "aluminum", SlugFromPath("metals/aluminum-laser-cleaning.md"))
	assert.Equal(t, "oak", SlugFromPath("oak-laser-cleaning.yaml"))
	assert.Equal(t, "notes", SlugFromPath("notes.yml"))
}

func TestReadBanner(t *testing.T) {
	p := readBanner([]string{
		"name: x",
		"<!-- Generated by Z-Beam Generator 3.1 -->",
		"# Generated at: 2025-06-01T10:00:00Z",
	})
	assert.Equal(t, "Z-Beam Generator", p.Generator)
	assert.Equal(t, "3.1", p.Version)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), p.Generated)
}

func TestReadBannerGeneratorLines(t *testing.T) {
	tests := []struct {
		line      string
		generator string
		version   string
	}{
		{"# Generated by Z-Beam v1.4.2", "Z-Beam", "1.4.2"},
		{"# generated by Z-Beam V2.0", "Z-Beam", "2.0"},
		{"# Generated by Z-Beam 2.0", "Z-Beam", "2.0"},
		{"# Generated with Z-Beam Generator v3.1.0", "Z-Beam Generator", "3.1.0"},
		{"# Generated by Z-Beam", "Z-Beam", ""},
		{"# Generated by material-normalizer dev. Do not edit.", "material-normalizer", ""},
		{"# Generated by material-normalizer 1.2.0. Do not edit.", "material-normalizer", "1.2.0"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			p := readBanner([]string{tt.line})
			assert.Equal(t, tt.generator, p.Generator)
			assert.Equal(t, tt.version, p.Version)
		})
	}
}
