// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package units

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numberPattern matches a leading decimal number, optionally signed, with
// an optional exponent.
var numberPattern = regexp.MustCompile(`^[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)

// digitRunPattern matches a run of digits and commas; thousandsPattern is
// the only shape of such a run whose commas are thousands separators.
var (
	digitRunPattern  = regexp.MustCompile(`\d[\d,]*\d`)
	thousandsPattern = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
)

// multiplierPattern matches a "x10^N" prefix on unit text.
var multiplierPattern = regexp.MustCompile(`^[x×]\s*10\^?(-?\d+)\s*`)

var approxPrefixes = []string{"approximately", "approx.", "approx", "about", "around", "ca.", "circa", "~", "≈", "≃"}

var (
	upperPrefixes = []string{"up to", "upto", "max.", "maximum", "max", "below", "under", "<=", "≤", "<"}
	lowerPrefixes = []string{"at least", "min.", "minimum", "min", "above", "over", ">=", "≥", ">"}
)

// rangeSeparators are tried in order after the first number.
var rangeSeparators = []string{" to ", "–", "—", "~", "-"}

// Parse reads a value expression such as "7.85 g/cm³", "10-100 ns",
// "-40 to 120 °C", "7.8 ± 0.1", or "up to 100 W". The returned quantity is
// in the unit written in the text; call Quantity.To to convert it.
func Parse(text string) (Quantity, error) {
	s := clean(text)
	if s == "" {
		return Quantity{}, fmt.Errorf("%w in %q", ErrNoNumber, text)
	}

	if rest, ok := cutPrefix(s, upperPrefixes); ok {
		v, unit, err := single(rest, text)
		if err != nil {
			return Quantity{}, err
		}
		return Quantity{Max: &v, Unit: unit}, nil
	}
	if rest, ok := cutPrefix(s, lowerPrefixes); ok {
		v, unit, err := single(rest, text)
		if err != nil {
			return Quantity{}, err
		}
		return Quantity{Min: &v, Unit: unit}, nil
	}

	v1, rest, ok := leadingNumber(s)
	if !ok {
		return Quantity{}, fmt.Errorf("%w in %q", ErrNoNumber, text)
	}
	rest = strings.TrimSpace(rest)

	// Tolerance: "v ± t unit".
	if tail, ok := cutPrefix(rest, []string{"±", "+/-", "+-"}); ok {
		tol, unitText, ok := leadingNumber(tail)
		if !ok {
			return Quantity{}, fmt.Errorf("%w after ± in %q", ErrNoNumber, text)
		}
		unit, scale, err := parseUnit(unitText)
		if err != nil {
			return Quantity{}, err
		}
		v, t := v1*scale, math.Abs(tol*scale)
		lo, hi := v-t, v+t
		return Quantity{Value: &v, Min: &lo, Max: &hi, Unit: unit}, nil
	}

	if q, ok, err := parseRange(v1, rest, text); ok || err != nil {
		return q, err
	}

	unit, scale, err := parseUnit(rest)
	if err != nil {
		return Quantity{}, err
	}
	v := v1 * scale
	return Quantity{Value: &v, Unit: unit}, nil
}

// ParseUnit resolves unit text on its own.
func ParseUnit(text string) (*Unit, error) {
	u, scale, err := parseUnit(text)
	if err != nil {
		return nil, err
	}
	if scale != 1 {
		return nil, fmt.Errorf("%w: %q carries a multiplier", ErrUnknownUnit, text)
	}
	return u, nil
}

// parseRange looks for a separator in rest such that a number follows it.
// Text between the first number and the separator is the unit of the lower
// bound; it must agree with the unit after the second number when both exist.
func parseRange(lo float64, rest, text string) (Quantity, bool, error) {
	padded := " " + rest + " "
	for _, sep := range rangeSeparators {
		from := 0
		for {
			i := strings.Index(padded[from:], sep)
			if i < 0 {
				break
			}
			i += from
			from = i + len(sep)

			before := strings.TrimSpace(padded[:i])
			after := strings.TrimSpace(padded[i+len(sep):])
			// A bare hyphen is only a separator directly after the number
			// or when spaced; "W/m-K" and "10^-6" keep theirs.
			if sep == "-" && before != "" && !(strings.HasSuffix(padded[:i], " ") && strings.HasPrefix(padded[i+1:], " ")) {
				continue
			}
			hi, unitText, ok := leadingNumber(after)
			if !ok {
				continue
			}
			unitText = strings.TrimSpace(unitText)
			if before != "" && unitText != "" && normalizeUnitText(before) != normalizeUnitText(unitText) {
				return Quantity{}, true, fmt.Errorf("%w: range %q mixes %q and %q", ErrIncompatible, text, before, unitText)
			}
			if unitText == "" {
				unitText = before
			}
			unit, scale, err := parseUnit(unitText)
			if err != nil {
				return Quantity{}, true, err
			}
			a, b := lo*scale, hi*scale
			return Quantity{Min: &a, Max: &b, Unit: unit}, true, nil
		}
	}
	return Quantity{}, false, nil
}

func single(s, text string) (float64, *Unit, error) {
	v, rest, ok := leadingNumber(s)
	if !ok {
		return 0, nil, fmt.Errorf("%w in %q", ErrNoNumber, text)
	}
	unit, scale, err := parseUnit(rest)
	if err != nil {
		return 0, nil, err
	}
	return v * scale, unit, nil
}

// parseUnit resolves unit text, returning a nil unit for empty text and a
// scale factor for a "x10^N" prefix that is not itself a known unit.
func parseUnit(text string) (*Unit, float64, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil, 1, nil
	}
	if u, ok := Lookup(t); ok {
		return u, 1, nil
	}
	if m := multiplierPattern.FindStringSubmatch(t); m != nil {
		exp, err := strconv.Atoi(m[1])
		if err == nil {
			u, ok := Lookup(t[len(m[0]):])
			if ok {
				return u, math.Pow(10, float64(exp)), nil
			}
		}
	}
	// Trailing remarks such as "g/cm³ (at 20 °C)".
	if i := strings.Index(t, " ("); i > 0 && strings.HasSuffix(t, ")") {
		return parseUnit(t[:i])
	}
	return nil, 0, fmt.Errorf("%w %q", ErrUnknownUnit, t)
}

func leadingNumber(s string) (float64, string, bool) {
	s = strings.TrimSpace(s)
	loc := numberPattern.FindStringIndex(s)
	if loc == nil {
		return 0, s, false
	}
	v, err := strconv.ParseFloat(s[:loc[1]], 64)
	if err != nil {
		return 0, s, false
	}
	return v, s[loc[1]:], true
}

func cutPrefix(s string, prefixes []string) (string, bool) {
	lower := strings.ToLower(s)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p) {
			return strings.TrimSpace(s[len(p):]), true
		}
	}
	return s, false
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "−", "-")
	s = strings.ReplaceAll(s, " ", " ")
	s = stripThousands(s)
	if rest, ok := cutPrefix(s, approxPrefixes); ok {
		s = rest
	}
	return strings.TrimSpace(s)
}

// stripThousands removes commas from digit runs grouped as thousands
// ("12,500"). Other comma runs ("1064,532") and runs inside a decimal
// fraction are left alone, so they fail to parse instead of being misread.
func stripThousands(s string) string {
	var b strings.Builder
	last := 0
	for _, loc := range digitRunPattern.FindAllStringIndex(s, -1) {
		run := s[loc[0]:loc[1]]
		if !thousandsPattern.MatchString(run) || (loc[0] > 0 && s[loc[0]-1] == '.') {
			continue
		}
		b.WriteString(s[last:loc[0]])
		b.WriteString(strings.ReplaceAll(run, ",", ""))
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}
