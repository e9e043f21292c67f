// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package units parses physical quantities written in free text and converts
// them between units of the same dimension.
//
// Every accepted unit maps onto the base unit of its dimension through
// base = v*mul/div + offset. Converted values are rounded to 12 significant
// digits; values that are not converted are never touched, so formatting a
// canonical value and parsing it back yields the identical float64.
package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dimension groups units that measure the same physical quantity.
type Dimension string

const (
	Density             Dimension = "density"
	Temperature         Dimension = "temperature"
	ThermalConductivity Dimension = "thermal_conductivity"
	Hardness            Dimension = "hardness"
	Pressure            Dimension = "pressure"
	SpecificHeat        Dimension = "specific_heat"
	ThermalExpansion    Dimension = "thermal_expansion"
	Power               Dimension = "power"
	Length              Dimension = "length"
	Duration            Dimension = "duration"
	Frequency           Dimension = "frequency"
	Fluence             Dimension = "fluence"
	Speed               Dimension = "speed"
	Energy              Dimension = "energy"
)

// significantDigits bounds the precision kept after a conversion.
const significantDigits = 12

var (
	// ErrNoNumber is returned when the text holds no leading number.
	ErrNoNumber = errors.New("no numeric value")

	// ErrUnknownUnit is returned for unit text that matches no known unit.
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrIncompatible is returned when converting across dimensions or
	// between hardness scales.
	ErrIncompatible = errors.New("incompatible units")
)

// Unit is one accepted unit of measure.
type Unit struct {
	// Symbol is the display form written to canonical output.
	Symbol string

	// Dimension is the physical quantity the unit measures.
	Dimension Dimension

	mul, div, offset float64

	// scale marks units that are their own scale within a dimension and
	// cannot be converted to siblings (hardness scales).
	scale bool
}

func (u *Unit) String() string {
	if u == nil {
		return ""
	}
	return u.Symbol
}

// Quantity is the result of parsing a value expression. Unit is nil when
// the text carried no unit.
type Quantity struct {
	Value *float64
	Min   *float64
	Max   *float64
	Unit  *Unit
}

// IsRange reports whether the quantity carries a bound.
func (q Quantity) IsRange() bool {
	return q.Min != nil || q.Max != nil
}

// Convert converts v from one unit to another of the same dimension.
func Convert(v float64, from, to *Unit) (float64, error) {
	if from == nil || to == nil {
		return 0, fmt.Errorf("%w: missing unit", ErrIncompatible)
	}
	if from == to || from.Symbol == to.Symbol {
		return v, nil
	}
	if from.Dimension != to.Dimension {
		return 0, fmt.Errorf("%w: %s is %s, %s is %s", ErrIncompatible, from.Symbol, from.Dimension, to.Symbol, to.Dimension)
	}
	if from.scale || to.scale {
		return 0, fmt.Errorf("%w: %s and %s are different %s scales", ErrIncompatible, from.Symbol, to.Symbol, from.Dimension)
	}
	base := v*from.mul/from.div + from.offset
	return roundSig((base-to.offset)*to.div/to.mul, significantDigits), nil
}

// To converts every number in q to unit u. A quantity without a unit is
// returned unchanged with its unit set to u.
func (q Quantity) To(u *Unit) (Quantity, error) {
	if q.Unit == nil {
		q.Unit = u
		return q, nil
	}
	conv := func(p *float64) (*float64, error) {
		if p == nil {
			return nil, nil
		}
		v, err := Convert(*p, q.Unit, u)
		if err != nil {
			return nil, err
		}
		return &v, nil
	}
	var out Quantity
	var err error
	if out.Value, err = conv(q.Value); err != nil {
		return Quantity{}, err
	}
	if out.Min, err = conv(q.Min); err != nil {
		return Quantity{}, err
	}
	if out.Max, err = conv(q.Max); err != nil {
		return Quantity{}, err
	}
	out.Unit = u
	return out, nil
}

// Format renders v followed by the unit symbol using the shortest decimal
// that parses back to exactly v.
func Format(v float64, unit string) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if unit == "" {
		return s
	}
	return s + " " + unit
}

// FormatRange renders a closed range as "min to max unit".
func FormatRange(lo, hi float64, unit string) string {
	return Format(lo, "") + " to " + Format(hi, unit)
}

// FormatQuantity renders q for display.
func FormatQuantity(q Quantity) string {
	sym := q.Unit.String()
	switch {
	case q.Value != nil && q.Min != nil && q.Max != nil:
		return fmt.Sprintf("%s (%s)", Format(*q.Value, sym), FormatRange(*q.Min, *q.Max, sym))
	case q.Value != nil:
		return Format(*q.Value, sym)
	case q.Min != nil && q.Max != nil:
		return FormatRange(*q.Min, *q.Max, sym)
	case q.Min != nil:
		return ">= " + Format(*q.Min, sym)
	case q.Max != nil:
		return "up to " + Format(*q.Max, sym)
	}
	return ""
}

func roundSig(v float64, digits int) float64 {
	if v == 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', digits, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// normalizeUnitText folds the spelling variants of a unit into a lookup key.
// Case is preserved; the caller decides whether to fold it.
func normalizeUnitText(s string) string {
	s = strings.TrimSpace(s)
	r := strings.NewReplacer(
		"µ", "u", "μ", "u",
		"³", "3", "²", "2", "⁻", "-", "¹", "1", "⁶", "6", "⁵", "5", "⁴", "4",
		"°", "deg", "º", "deg",
		"×", "x", "·", "", "⋅", "", "*", "", " ", "", "(", "", ")", "",
		"^", "",
	)
	s = r.Replace(s)
	s = strings.ReplaceAll(s, "per", "/")
	// "W/m-K" and "J/kg-K" use a hyphen as a product sign.
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i] + strings.ReplaceAll(s[i:], "-K", "K")
		s = strings.ReplaceAll(s, "-degC", "degC")
	}
	return s
}
