// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package emit writes canonical material records.
//
// Output is byte-stable: keys are written in a fixed order, map keys are
// sorted, and numbers use the shortest form that parses back exactly.
// Writing a record whose file already holds the same bytes leaves the file
// untouched.
package emit

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/material-normalizer/internal/units"
	"github.com/pdiddy/material-normalizer/pkg/types"
)

// Generator names this tool in output headers.
const Generator = "material-normalizer"

// Suffix is the file name suffix of canonical records.
const Suffix = "-laser-cleaning"

// Status reports what Write did with a record.
type Status string

const (
	StatusWritten   Status = "written"
	StatusUnchanged Status = "unchanged"
)

// Writer writes canonical records into Dir.
type Writer struct {
	Dir     string
	Format  types.OutputFormat
	Version string
}

// FileName returns the canonical file name for a slug.
func FileName(slug string, format types.OutputFormat) string {
	ext := ".yaml"
	if format == types.OutputMarkdown {
		ext = ".md"
	}
	return slug + Suffix + ext
}

// Path returns the output path for rec.
func (w *Writer) Path(rec types.Record) string {
	return filepath.Join(w.Dir, FileName(rec.Slug, w.Format))
}

// Write renders rec and writes it unless the file already holds the same
// bytes.
func (w *Writer) Write(rec types.Record) (Status, error) {
	data, err := Render(rec, w.Format, w.Version)
	if err != nil {
		return "", err
	}
	path := w.Path(rec)

	existing, err := os.ReadFile(path)
	switch {
	case err == nil && bytes.Equal(existing, data):
		return StatusUnchanged, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return StatusWritten, nil
}

// Render returns the canonical bytes of rec.
func Render(rec types.Record, format types.OutputFormat, version string) ([]byte, error) {
	var buf bytes.Buffer
	if format == types.OutputMarkdown {
		buf.WriteString("---\n")
	}
	writeHeader(&buf, rec, version)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(recordNode(rec)); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", rec.Slug, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", rec.Slug, err)
	}

	if format == types.OutputMarkdown {
		buf.WriteString("---\n")
		if body := strings.Trim(rec.Body, "\n"); body != "" {
			buf.WriteString("\n")
			buf.WriteString(body)
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

func writeHeader(buf *bytes.Buffer, rec types.Record, version string) {
	gen := Generator
	if version != "" {
		gen += " " + version
	}
	fmt.Fprintf(buf, "# Generated by %s. Do not edit.\n", gen)
	buf.WriteString("# Sources:\n")
	for _, s := range rec.Sources {
		fmt.Fprintf(buf, "#   %s#%d", s.Path, s.Document)
		if s.Version != "" {
			fmt.Fprintf(buf, " (v%s)", s.Version)
		}
		buf.WriteString("\n")
	}
}

// recordNode builds the mapping in canonical key order.
func recordNode(rec types.Record) *yaml.Node {
	m := mapping()
	addString(m, "name", rec.Name)
	addString(m, "slug", rec.Slug)
	addString(m, "category", rec.Category)
	addString(m, "subcategory", rec.Subcategory)
	addString(m, "formula", rec.Formula)
	addString(m, "symbol", rec.Symbol)
	addMeasurements(m, "properties", rec.Properties)
	addMeasurements(m, "settings", rec.Settings)
	addString(m, "beam_profile", rec.BeamProfile)
	addList(m, "applications", rec.Applications)
	addList(m, "industries", rec.Industries)

	if a := rec.Author; a != nil {
		am := mapping()
		addString(am, "name", a.Name)
		addString(am, "title", a.Title)
		addString(am, "country", a.Country)
		addList(am, "expertise", a.Expertise)
		add(m, "author", am)
	}

	if len(rec.Extra) > 0 {
		em := mapping()
		for _, k := range sortedKeys(rec.Extra) {
			v := &yaml.Node{}
			if err := v.Encode(rec.Extra[k]); err != nil {
				v = str(fmt.Sprint(rec.Extra[k]))
			}
			add(em, k, v)
		}
		add(m, "extra", em)
	}

	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, s := range rec.Sources {
		sm := mapping()
		addString(sm, "path", s.Path)
		add(sm, "document", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(s.Document)})
		addString(sm, "generator", s.Generator)
		addString(sm, "version", s.Version)
		if !s.Generated.IsZero() {
			add(sm, "generated", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: s.Generated.UTC().Format(time.RFC3339)})
		}
		seq.Content = append(seq.Content, sm)
	}
	add(m, "sources", seq)
	return m
}

func addMeasurements(m *yaml.Node, key string, ms map[string]types.Measurement) {
	if len(ms) == 0 {
		return
	}
	group := mapping()
	for _, name := range sortedKeys(ms) {
		meas := ms[name]
		mm := mapping()
		addFloat(mm, "value", meas.Value)
		addFloat(mm, "min", meas.Min)
		addFloat(mm, "max", meas.Max)
		addString(mm, "unit", meas.Unit)
		addFloat(mm, "confidence", meas.Confidence)
		add(group, name, mm)
	}
	add(m, key, group)
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func add(m *yaml.Node, key string, v *yaml.Node) {
	m.Content = append(m.Content, str(key), v)
}

func addString(m *yaml.Node, key, v string) {
	if v != "" {
		add(m, key, str(v))
	}
}

func addFloat(m *yaml.Node, key string, v *float64) {
	if v != nil {
		// No tag: "237" must stay a plain number, not "!!float 237".
		add(m, key, &yaml.Node{Kind: yaml.ScalarNode, Value: units.Format(*v, "")})
	}
}

func addList(m *yaml.Node, key string, items []string) {
	if len(items) == 0 {
		return
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, s := range items {
		seq.Content = append(seq.Content, str(s))
	}
	add(m, key, seq)
}

func str(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
