// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Measurement is a numeric property expressed in its canonical unit. Any of
// Value, Min, and Max may be absent; a bare range carries only Min and Max.
type Measurement struct {
	// Value is the nominal value.
	Value *float64 `json:"value,omitempty" yaml:"value,omitempty"`

	// Min is the lower bound of the stated range.
	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`

	// Max is the upper bound of the stated range.
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`

	// Unit is the canonical unit symbol (e.g. "g/cm³", "°C", "nm").
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`

	// Confidence is the generator's stated confidence, scaled to 0..1.
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`

	// Source is the text the measurement was parsed from. It is kept for
	// diagnostics and never written to canonical output.
	Source string `json:"-" yaml:"-"`
}

// IsZero reports whether the measurement carries no numbers at all.
func (m Measurement) IsZero() bool {
	return m.Value == nil && m.Min == nil && m.Max == nil
}

// Float returns a pointer to v. It keeps literal construction of
// Measurements short.
func Float(v float64) *float64 {
	return &v
}

// Author is the attributed author of a record.
type Author struct {
	Name      string   `json:"name" yaml:"name"`
	Title     string   `json:"title,omitempty" yaml:"title,omitempty"`
	Country   string   `json:"country,omitempty" yaml:"country,omitempty"`
	Expertise []string `json:"expertise,omitempty" yaml:"expertise,omitempty"`
}

// Provenance identifies where a document came from.
type Provenance struct {
	// Path is the source file, relative to the input directory.
	Path string `json:"path" yaml:"path"`

	// Document is the zero-based index of the document within Path.
	Document int `json:"document" yaml:"document"`

	// Generator is the tool named in the trailing banner, if any.
	Generator string `json:"generator,omitempty" yaml:"generator,omitempty"`

	// Version is the generator version named in the banner.
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Generated is the generation time named in the banner.
	Generated time.Time `json:"generated,omitempty" yaml:"generated,omitempty"`
}

// Record is the canonical form of one material document.
type Record struct {
	Name        string `json:"name" yaml:"name"`
	Slug        string `json:"slug" yaml:"slug"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	Formula     string `json:"formula,omitempty" yaml:"formula,omitempty"`
	Symbol      string `json:"symbol,omitempty" yaml:"symbol,omitempty"`

	// Properties maps canonical physical property names to measurements.
	Properties map[string]Measurement `json:"properties,omitempty" yaml:"properties,omitempty"`

	// Settings maps canonical laser machine setting names to measurements.
	Settings map[string]Measurement `json:"settings,omitempty" yaml:"settings,omitempty"`

	BeamProfile  string   `json:"beam_profile,omitempty" yaml:"beam_profile,omitempty"`
	Applications []string `json:"applications,omitempty" yaml:"applications,omitempty"`
	Industries   []string `json:"industries,omitempty" yaml:"industries,omitempty"`
	Author       *Author  `json:"author,omitempty" yaml:"author,omitempty"`

	// Extra holds keys the schema does not know, kept verbatim.
	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`

	// Sources lists every document that contributed to the record. A record
	// produced from a single document has exactly one entry.
	Sources []Provenance `json:"sources" yaml:"sources"`

	// Body is the Markdown body that followed the frontmatter, if any.
	Body string `json:"-" yaml:"-"`
}

// Primary returns the provenance of the highest-ranked source.
func (r *Record) Primary() Provenance {
	if len(r.Sources) == 0 {
		return Provenance{}
	}
	return r.Sources[0]
}
