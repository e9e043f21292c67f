// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate checks mapped records and decides which documents are
// accepted for merging.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/material-normalizer/internal/document"
	"github.com/pdiddy/material-normalizer/internal/schema"
	"github.com/pdiddy/material-normalizer/pkg/types"
)

// Categories is the set of known material categories.
var Categories = []string{
	"ceramic", "composite", "glass", "masonry", "metal",
	"plastic", "rare-earth", "semiconductor", "stone", "wood",
}

// Bounds is a closed interval of physically plausible values.
type Bounds struct {
	Min, Max float64
}

// plausible holds bounds per measurement in its canonical unit.
var plausible = map[string]Bounds{
	"density":              {0.01, 25},
	"melting_point":        {-273.15, 4500},
	"thermal_conductivity": {0.001, 5000},
	"youngs_modulus":       {0.0001, 1300},
	"tensile_strength":     {0.1, 10000},
	"specific_heat":        {50, 20000},
	"thermal_expansion":    {-50, 300},

	"power":           {0.001, 100000},
	"wavelength":      {100, 20000},
	"pulse_duration":  {1e-6, 1e9},
	"spot_size":       {1, 100000},
	"repetition_rate": {1e-6, 100000},
	"fluence":         {1e-4, 1000},
	"scan_speed":      {0.01, 100000},
	"pulse_energy":    {1e-6, 100000},
}

// hardnessBounds holds bounds per hardness scale.
var hardnessBounds = map[string]Bounds{
	"Mohs":    {1, 10},
	"HV":      {1, 10000},
	"HB":      {1, 1000},
	"HRC":     {0, 100},
	"HRB":     {0, 130},
	"Shore D": {0, 100},
	"Shore A": {0, 100},
}

// Result is the outcome of checking one document.
type Result struct {
	Record types.Record

	// Diagnostics holds every diagnostic of the document: parse, mapping,
	// and rule checks, escalated in strict mode.
	Diagnostics types.Diagnostics

	// Accepted is true when the document takes part in the merge.
	Accepted bool

	// Skipped is true for empty documents that are neither accepted nor
	// rejected.
	Skipped bool
}

// Rejected reports whether the document failed validation.
func (r Result) Rejected() bool {
	return !r.Accepted && !r.Skipped
}

// Document maps doc onto a Record and checks it. In strict mode every
// warning is escalated to an error.
func Document(doc *document.Document, strict bool) Result {
	rec, mapped := schema.FromNode(doc)

	diags := append(types.Diagnostics{}, doc.Diagnostics...)
	diags = append(diags, mapped...)
	if doc.Root != nil {
		diags = append(diags, Record(rec, locator(doc))...)
	}
	if strict {
		diags = diags.Escalate()
	}
	diags.Sort()

	res := Result{Record: rec, Diagnostics: diags}
	switch {
	case diags.HasErrors():
	case doc.Root == nil:
		res.Skipped = true
	default:
		res.Accepted = true
	}
	return res
}

// Locator returns a diagnostic for a field of the record being checked.
type Locator func(code types.DiagnosticCode, sev types.Severity, field, format string, args ...any) types.Diagnostic

func locator(doc *document.Document) Locator {
	return func(code types.DiagnosticCode, sev types.Severity, field, format string, args ...any) types.Diagnostic {
		var n *yaml.Node
		if field != "" {
			n = schema.Locate(doc.Root, field)
		}
		return doc.Diag(code, sev, n, field, format, args...)
	}
}

// Record runs every rule on rec.
func Record(rec types.Record, diag Locator) types.Diagnostics {
	var out types.Diagnostics

	if strings.TrimSpace(rec.Name) == "" {
		out = append(out, diag(types.CodeMissingField, types.SeverityError, "name", "name is required"))
	}
	switch {
	case rec.Category == "":
		out = append(out, diag(types.CodeMissingField, types.SeverityWarning, "category", "category is recommended"))
	case !knownCategory(rec.Category):
		d := diag(types.CodeUnknownCategory, types.SeverityWarning, "category", "category %q is not a known category", rec.Category)
		d.Expected = Categories
		d.Actual = rec.Category
		out = append(out, d)
	}

	out = append(out, measurements(schema.GroupProperty, rec.Properties, diag)...)
	out = append(out, measurements(schema.GroupSetting, rec.Settings, diag)...)
	return out
}

func measurements(group schema.Group, ms map[string]types.Measurement, diag Locator) types.Diagnostics {
	names := make([]string, 0, len(ms))
	for name := range ms {
		names = append(names, name)
	}
	sort.Strings(names)

	var out types.Diagnostics
	for _, name := range names {
		out = append(out, Measurement(string(group)+"."+name, name, ms[name], diag)...)
	}
	return out
}

// Measurement checks one measurement. field is its diagnostic path and
// name its canonical name.
func Measurement(field, name string, m types.Measurement, diag Locator) types.Diagnostics {
	var out types.Diagnostics

	if m.Min != nil && m.Max != nil && *m.Min > *m.Max {
		d := diag(types.CodeRangeOrder, types.SeverityError, field, "min %s is greater than max %s", num(*m.Min), num(*m.Max))
		d.Actual = num(*m.Min) + " > " + num(*m.Max)
		out = append(out, d)
	}
	if m.Value != nil {
		v := *m.Value
		if (m.Min != nil && v < *m.Min) || (m.Max != nil && v > *m.Max) {
			d := diag(types.CodeValueOutOfRange, types.SeverityError, field, "value %s lies outside its own range %s", num(v), rangeText(m))
			d.Actual = num(v)
			out = append(out, d)
		}
	}
	if m.Confidence != nil && (*m.Confidence < 0 || *m.Confidence > 1) {
		d := diag(types.CodeConfidenceRange, types.SeverityError, field, "confidence %s is outside 0..1", num(*m.Confidence))
		d.Expected = []string{"0..1", "1..100%"}
		d.Actual = num(*m.Confidence)
		out = append(out, d)
	}

	b, ok := boundsFor(name, m.Unit)
	if !ok {
		return out
	}
	for _, p := range []*float64{m.Value, m.Min, m.Max} {
		if p == nil {
			continue
		}
		if *p < b.Min || *p > b.Max {
			d := diag(types.CodeImplausible, types.SeverityWarning, field, "%s %s is outside the plausible range %s to %s %s",
				name, num(*p), num(b.Min), num(b.Max), m.Unit)
			d.Expected = []string{num(b.Min) + ".." + num(b.Max) + " " + m.Unit}
			d.Actual = num(*p)
			out = append(out, d)
			break
		}
	}
	return out
}

func boundsFor(name, unit string) (Bounds, bool) {
	if name == "hardness" {
		b, ok := hardnessBounds[unit]
		return b, ok
	}
	b, ok := plausible[name]
	return b, ok
}

func knownCategory(c string) bool {
	i := sort.SearchStrings(Categories, c)
	return i < len(Categories) && Categories[i] == c
}

func rangeText(m types.Measurement) string {
	lo, hi := "-inf", "+inf"
	if m.Min != nil {
		lo = num(*m.Min)
	}
	if m.Max != nil {
		hi = num(*m.Max)
	}
	return fmt.Sprintf("[%s, %s]", lo, hi)
}

func num(v float64) string {
	return fmt.Sprintf("%g", v)
}
