// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Severity ranks a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// DiagnosticCode identifies the rule that produced a diagnostic.
type DiagnosticCode string

const (
	// CodeYAMLSyntax marks a document the YAML parser rejected.
	CodeYAMLSyntax DiagnosticCode = "yaml-syntax"
	// CodeDuplicateKey marks a mapping key that appears more than once.
	CodeDuplicateKey DiagnosticCode = "duplicate-key"
	// CodeEmptyDocument marks a document with no content.
	CodeEmptyDocument DiagnosticCode = "empty-document"
	// CodeReadFailed marks a file that could not be read.
	CodeReadFailed DiagnosticCode = "read-failed"

	// CodeMissingField marks an absent required or recommended field.
	CodeMissingField DiagnosticCode = "missing-field"
	// CodeTypeMismatch marks a mapping where a scalar was expected, or the reverse.
	CodeTypeMismatch DiagnosticCode = "type-mismatch"
	// CodeUnknownKey marks a key outside the canonical schema.
	CodeUnknownKey DiagnosticCode = "unknown-key"
	// CodeUnitUnparseable marks a value or unit that could not be parsed.
	CodeUnitUnparseable DiagnosticCode = "unit-unparseable"
	// CodeUnitDimension marks a unit of the wrong dimension for its property.
	CodeUnitDimension DiagnosticCode = "unit-dimension"

	// CodeRangeOrder marks min > max.
	CodeRangeOrder DiagnosticCode = "range-order"
	// CodeValueOutOfRange marks a value outside its own [min, max].
	CodeValueOutOfRange DiagnosticCode = "value-out-of-range"
	// CodeConfidenceRange marks a confidence outside 0..1.
	CodeConfidenceRange DiagnosticCode = "confidence-range"
	// CodeImplausible marks a value outside physical bounds for its property.
	CodeImplausible DiagnosticCode = "implausible"
	// CodeUnknownCategory marks a category outside the known set.
	CodeUnknownCategory DiagnosticCode = "unknown-category"

	// CodeMergeConflict marks duplicate documents that disagree.
	CodeMergeConflict DiagnosticCode = "merge-conflict"
)

// Diagnostic reports one problem found in one document.
type Diagnostic struct {
	Code     DiagnosticCode `json:"code" yaml:"code"`
	Severity Severity       `json:"severity" yaml:"severity"`
	Path     string         `json:"path" yaml:"path"`
	Document int            `json:"document" yaml:"document"`
	Line     int            `json:"line,omitempty" yaml:"line,omitempty"`
	Column   int            `json:"column,omitempty" yaml:"column,omitempty"`
	Field    string         `json:"field,omitempty" yaml:"field,omitempty"`
	Message  string         `json:"message" yaml:"message"`
	Expected []string       `json:"expected,omitempty" yaml:"expected,omitempty"`
	Actual   string         `json:"actual,omitempty" yaml:"actual,omitempty"`
}

// Error formats the diagnostic as "path:line: severity [code] field: message".
func (d Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString(d.Path)
	if d.Line > 0 {
		fmt.Fprintf(&b, ":%d", d.Line)
		if d.Column > 0 {
			fmt.Fprintf(&b, ":%d", d.Column)
		}
	}
	fmt.Fprintf(&b, ": %s [%s]", d.Severity, d.Code)
	if d.Field != "" {
		fmt.Fprintf(&b, " %s:", d.Field)
	}
	b.WriteString(" ")
	b.WriteString(d.Message)
	if len(d.Expected) > 0 {
		fmt.Fprintf(&b, " (expected: %s)", strings.Join(d.Expected, ", "))
	}
	if d.Actual != "" {
		fmt.Fprintf(&b, " (actual: %s)", d.Actual)
	}
	return b.String()
}

// Diagnostics is an ordered list of diagnostics. It implements error so a
// rejected document can be returned as one value.
type Diagnostics []Diagnostic

// Error returns a compact summary of the list.
func (ds Diagnostics) Error() string {
	switch len(ds) {
	case 0:
		return "no diagnostics"
	case 1:
		return ds[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more)", ds[0].Error(), len(ds)-1)
	}
}

// HasErrors reports whether any diagnostic has error severity.
func (ds Diagnostics) HasErrors() bool {
	return ds.Count(SeverityError) > 0
}

// Count returns the number of diagnostics with the given severity.
func (ds Diagnostics) Count(sev Severity) int {
	n := 0
	for _, d := range ds {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// Errors returns only the error-severity diagnostics.
func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Escalate returns a copy in which warnings become errors.
func (ds Diagnostics) Escalate() Diagnostics {
	out := make(Diagnostics, len(ds))
	for i, d := range ds {
		if d.Severity == SeverityWarning {
			d.Severity = SeverityError
		}
		out[i] = d
	}
	return out
}

// Sort orders diagnostics by path, document, line, code, then field.
func (ds Diagnostics) Sort() {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Document != b.Document {
			return a.Document < b.Document
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Field < b.Field
	})
}

// AsDiagnostics extracts a diagnostic list from err.
func AsDiagnostics(err error) (Diagnostics, bool) {
	if err == nil {
		return nil, false
	}
	var list Diagnostics
	if errors.As(err, &list) {
		return list, true
	}
	var one Diagnostic
	if errors.As(err, &one) {
		return Diagnostics{one}, true
	}
	return nil, false
}
