// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schema maps parsed record documents onto the canonical Record.
//
// Generated records spell the same field many ways: meltingPoint,
// melting_point, and "Melting Point" are one field. Keys are matched after
// folding case and dropping separators, then looked up in the tables below.
package schema

import (
	"strings"
	"unicode"

	"github.com/pdiddy/material-normalizer/internal/units"
)

// Group says where a measurement lands in the Record.
type Group string

const (
	GroupProperty Group = "properties"
	GroupSetting  Group = "settings"
)

// Field describes one canonical measurement.
type Field struct {
	Name      string
	Group     Group
	Dimension units.Dimension

	// Canonical is the unit values are converted to. Hardness has none;
	// each scale is kept as written.
	Canonical string

	Aliases []string
}

// Fields lists every canonical measurement.
var Fields = []Field{
	{Name: "density", Group: GroupProperty, Dimension: units.Density, Canonical: "g/cm³",
		Aliases: []string{"mass_density", "specific_gravity_density"}},
	{Name: "melting_point", Group: GroupProperty, Dimension: units.Temperature, Canonical: "°C",
		Aliases: []string{"melting_temperature", "melt_point", "melting_temp", "melting_range"}},
	{Name: "thermal_conductivity", Group: GroupProperty, Dimension: units.ThermalConductivity, Canonical: "W/(m·K)",
		Aliases: []string{"conductivity_thermal", "heat_conductivity"}},
	{Name: "hardness", Group: GroupProperty, Dimension: units.Hardness,
		Aliases: []string{"hardness_value", "mohs_hardness", "vickers_hardness"}},
	{Name: "youngs_modulus", Group: GroupProperty, Dimension: units.Pressure, Canonical: "GPa",
		Aliases: []string{"young_modulus", "young's_modulus", "elastic_modulus", "modulus_of_elasticity", "tensile_modulus"}},
	{Name: "tensile_strength", Group: GroupProperty, Dimension: units.Pressure, Canonical: "MPa",
		Aliases: []string{"ultimate_tensile_strength", "uts"}},
	{Name: "specific_heat", Group: GroupProperty, Dimension: units.SpecificHeat, Canonical: "J/(kg·K)",
		Aliases: []string{"specific_heat_capacity", "heat_capacity"}},
	{Name: "thermal_expansion", Group: GroupProperty, Dimension: units.ThermalExpansion, Canonical: "µm/(m·K)",
		Aliases: []string{"coefficient_of_thermal_expansion", "thermal_expansion_coefficient", "cte"}},

	{Name: "power", Group: GroupSetting, Dimension: units.Power, Canonical: "W",
		Aliases: []string{"laser_power", "average_power", "power_range", "powerRange"}},
	{Name: "wavelength", Group: GroupSetting, Dimension: units.Length, Canonical: "nm",
		Aliases: []string{"laser_wavelength", "wave_length"}},
	{Name: "pulse_duration", Group: GroupSetting, Dimension: units.Duration, Canonical: "ns",
		Aliases: []string{"pulse_width", "pulse_length"}},
	{Name: "spot_size", Group: GroupSetting, Dimension: units.Length, Canonical: "µm",
		Aliases: []string{"spot_diameter", "beam_diameter", "spot"}},
	{Name: "repetition_rate", Group: GroupSetting, Dimension: units.Frequency, Canonical: "kHz",
		Aliases: []string{"rep_rate", "pulse_frequency", "frequency", "repetition_frequency"}},
	{Name: "fluence", Group: GroupSetting, Dimension: units.Fluence, Canonical: "J/cm²",
		Aliases: []string{"energy_density", "fluence_range", "laser_fluence"}},
	{Name: "scan_speed", Group: GroupSetting, Dimension: units.Speed, Canonical: "mm/s",
		Aliases: []string{"scanning_speed", "scan_rate", "speed"}},
	{Name: "pulse_energy", Group: GroupSetting, Dimension: units.Energy, Canonical: "mJ",
		Aliases: []string{"energy_per_pulse"}},
}

// scalar fields of the Record identity.
const (
	keyName         = "name"
	keySlug         = "slug"
	keyCategory     = "category"
	keySubcategory  = "subcategory"
	keyFormula      = "formula"
	keySymbol       = "symbol"
	keyBeamProfile  = "beam_profile"
	keyApplications = "applications"
	keyIndustries   = "industries"
	keyAuthor       = "author"
)

var identityAliases = map[string][]string{
	keyName:         {"material", "material_name", "materialName"},
	keySlug:         {"id", "material_slug"},
	keyCategory:     {"material_category", "materialCategory", "material_type"},
	keySubcategory:  {"sub_category", "material_subcategory"},
	keyFormula:      {"chemical_formula", "chemicalFormula"},
	keySymbol:       {"chemical_symbol", "element_symbol"},
	keyBeamProfile:  {"beam_mode", "beam_shape"},
	keyApplications: {"application", "use_cases", "uses"},
	keyIndustries:   {"industry", "industry_applications", "sectors"},
	keyAuthor:       {"author_info", "authorInfo", "author_object"},
}

// containers hold measurements under one key.
var containers = map[string]Group{
	fold("properties"):          GroupProperty,
	fold("materialProperties"):  GroupProperty,
	fold("physical_properties"): GroupProperty,
	fold("machineSettings"):     GroupSetting,
	fold("laser_parameters"):    GroupSetting,
	fold("settings"):            GroupSetting,
}

// measurement subkeys.
var (
	valueKeys      = keySet("value", "numeric", "nominal", "typical")
	unitKeys       = keySet("unit", "units")
	minKeys        = keySet("min", "minimum", "low")
	maxKeys        = keySet("max", "maximum", "high")
	confidenceKeys = keySet("confidence", "confidence_score")
)

var (
	fieldIndex    = map[string]*Field{}
	identityIndex = map[string]string{}
)

func init() {
	for i := range Fields {
		f := &Fields[i]
		fieldIndex[fold(f.Name)] = f
		for _, a := range f.Aliases {
			fieldIndex[fold(a)] = f
		}
	}
	for canon, aliases := range identityAliases {
		identityIndex[fold(canon)] = canon
		for _, a := range aliases {
			identityIndex[fold(a)] = canon
		}
	}
}

// Lookup finds the canonical measurement for a key in any spelling.
func Lookup(key string) (*Field, bool) {
	f, ok := fieldIndex[fold(key)]
	return f, ok
}

// CanonicalUnit returns the canonical unit of f, or nil for hardness.
func (f *Field) CanonicalUnit() *units.Unit {
	if f.Canonical == "" {
		return nil
	}
	return units.MustLookup(f.Canonical)
}

// Path returns the dotted field path used in diagnostics.
func (f *Field) Path() string {
	return string(f.Group) + "." + f.Name
}

// fold lower-cases a key and drops everything that is not a letter or digit.
func fold(key string) string {
	var b strings.Builder
	for _, r := range key {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func keySet(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[fold(k)] = true
	}
	return m
}

// Slugify turns a material name into a file-name-safe slug.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}
