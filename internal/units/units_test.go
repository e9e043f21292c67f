// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package units

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		value    *float64
		min, max *float64
		unit     string
	}{
		{name: "value with unit", in: "7.85 g/cm³", value: f(7.85), unit: "g/cm³"},
		{name: "no space before unit", in: "1538°C", value: f(1538), unit: "°C"},
		{name: "ascii exponent", in: "7.85 g/cm3", value: f(7.85), unit: "g/cm³"},
		{name: "thousands separator", in: "1,538 °C", value: f(1538), unit: "°C"},
		{name: "several thousands groups", in: "1,250,000 Hz", value: f(1250000), unit: "Hz"},
		{name: "upper-case kilo", in: "2 KW", value: f(2), unit: "kW"},
		{name: "approximate", in: "~2.7 g/cm³", value: f(2.7), unit: "g/cm³"},
		{name: "hyphen range", in: "10-100 ns", min: f(10), max: f(100), unit: "ns"},
		{name: "en dash range", in: "0.5 – 2.0 J/cm²", min: f(0.5), max: f(2), unit: "J/cm²"},
		{name: "to range with negative", in: "-40 to 120 °C", min: f(-40), max: f(120), unit: "°C"},
		{name: "unit on both ends", in: "10 ns - 100 ns", min: f(10), max: f(100), unit: "ns"},
		{name: "upper bound", in: "up to 100 W", max: f(100), unit: "W"},
		{name: "lower bound", in: ">= 2 kHz", min: f(2), unit: "kHz"},
		{name: "hyphenated unit is not a range", in: "237 W/m-K", value: f(237), unit: "W/(m·K)"},
		{name: "parenthesized unit", in: "237 W/(m·K)", value: f(237), unit: "W/(m·K)"},
		{name: "expansion alias", in: "12 x10^-6/K", value: f(12), unit: "µm/(m·K)"},
		{name: "micro sign variants", in: "1.064 μm", value: f(1.064), unit: "µm"},
		{name: "trailing remark", in: "7.85 g/cm³ (at 20 °C)", value: f(7.85), unit: "g/cm³"},
		{name: "bare number", in: "42", value: f(42)},
		{name: "hardness scale with space", in: "50 Shore D", value: f(50), unit: "Shore D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.in)
			require.NoError(t, err)
			assertFloat(t, "value", tt.value, q.Value)
			assertFloat(t, "min", tt.min, q.Min)
			assertFloat(t, "max", tt.max, q.Max)
			assert.Equal(t, tt.unit, q.Unit.String())
		})
	}
}

func TestParseTolerance(t *testing.T) {
	q, err := Parse("7.8 ± 0.1 g/cm³")
	require.NoError(t, err)
	require.NotNil(t, q.Value)
	assert.Equal(t, 7.8, *q.Value)
	assert.InDelta(t, 7.7, *q.Min, 1e-12)
	assert.InDelta(t, 7.9, *q.Max, 1e-12)
	assert.Equal(t, "g/cm³", q.Unit.Symbol)
}

func TestParseMultiplier(t *testing.T) {
	q, err := Parse("1.2e-5 /K")
	require.NoError(t, err)
	canon, err := q.To(MustLookup("µm/(m·K)"))
	require.NoError(t, err)
	assert.Equal(t, 12.0, *canon.Value)

	q, err = Parse("1.2 x10^-5 /K")
	require.NoError(t, err)
	assert.Equal(t, "1/K", q.Unit.Symbol)
	assert.InDelta(t, 1.2e-5, *q.Value, 1e-18)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "   ", ErrNoNumber},
		{"words only", "very dense", ErrNoNumber},
		{"unknown unit", "5 furlongs", ErrUnknownUnit},
		{"mixed range units", "10 ns - 100 µs", ErrIncompatible},
		{"tolerance without number", "5 ± g", ErrNoNumber},
		{"prefix case changes magnitude", "5 MW", ErrUnknownUnit},
		{"comma list is not thousands", "1064,532 nm", ErrUnknownUnit},
		{"comma inside a fraction", "1.234,567 g/cm³", ErrUnknownUnit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		v        float64
		from, to string
		want     float64
	}{
		{"kg/m3 to g/cm3", 7850, "kg/m³", "g/cm³", 7.85},
		{"kelvin to celsius", 1811, "K", "°C", 1537.85},
		{"fahrenheit to celsius", 212, "°F", "°C", 100},
		{"celsius to fahrenheit", -40, "°C", "°F", -40},
		{"micron to nm", 1.064, "µm", "nm", 1064},
		{"nm to micron", 50000, "nm", "µm", 50},
		{"GPa to MPa", 0.2, "GPa", "MPa", 200},
		{"MPa to GPa", 200000, "MPa", "GPa", 200},
		{"ps to ns", 500, "ps", "ns", 0.5},
		{"Hz to kHz", 20000, "Hz", "kHz", 20},
		{"mJ/cm2 to J/cm2", 250, "mJ/cm²", "J/cm²", 0.25},
		{"m/min to mm/s", 6, "m/min", "mm/s", 100},
		{"J/gK to J/kgK", 0.9, "kJ/(kg·K)", "J/(kg·K)", 900},
		{"identity", 3.3, "W", "W", 3.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.v, MustLookup(tt.from), MustLookup(tt.to))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertIncompatible(t *testing.T) {
	_, err := Convert(200, MustLookup("HV"), MustLookup("HB"))
	assert.ErrorIs(t, err, ErrIncompatible)

	_, err = Convert(1064, MustLookup("nm"), MustLookup("°C"))
	assert.ErrorIs(t, err, ErrIncompatible)
}

// Every canonical value survives Format then Parse unchanged.
func TestFormatParseRoundTrip(t *testing.T) {
	values := []float64{0, 7.85, 1538, 0.1, 1e-7, 123456.789, -40, 2.0000000000000004, 1.0 / 3.0}
	for _, d := range definitions {
		for _, v := range values {
			text := Format(v, d.symbol)
			q, err := Parse(text)
			require.NoError(t, err, "parse %q", text)
			require.NotNil(t, q.Value, "parse %q", text)
			assert.Equal(t, v, *q.Value, "value of %q", text)
			assert.Equal(t, d.symbol, q.Unit.String(), "unit of %q", text)
		}
	}
}

func TestFormatRangeRoundTrip(t *testing.T) {
	for _, r := range [][2]float64{{10, 100}, {-40, 120}, {-200, -10}, {0.5, 2}} {
		text := FormatRange(r[0], r[1], "°C")
		q, err := Parse(text)
		require.NoError(t, err, text)
		assert.Equal(t, r[0], *q.Min, text)
		assert.Equal(t, r[1], *q.Max, text)
	}
}

func TestFormatQuantity(t *testing.T) {
	u := MustLookup("ns")
	assert.Equal(t, "10 to 100 ns", FormatQuantity(Quantity{Min: f(10), Max: f(100), Unit: u}))
	assert.Equal(t, "up to 5 ns", FormatQuantity(Quantity{Max: f(5), Unit: u}))
	assert.Equal(t, "8 ns (5 to 10 ns)", FormatQuantity(Quantity{Value: f(8), Min: f(5), Max: f(10), Unit: u}))
}

func TestLookupAmbiguityFolding(t *testing.T) {
	mw, ok := Lookup("mW")
	require.True(t, ok)
	assert.Equal(t, "mW", mw.Symbol)

	mpa, ok := Lookup("MPA")
	require.True(t, ok)
	assert.Equal(t, "MPa", mpa.Symbol)

	_, ok = Lookup("")
	assert.False(t, ok)

	for _, text := range []string{"MW", "mhz", "mpa"} {
		_, ok = Lookup(text)
		assert.False(t, ok, "%s must not fold onto another prefix", text)
	}
	mohs, ok := Lookup("MOHS")
	require.True(t, ok)
	assert.Equal(t, "Mohs", mohs.Symbol)
}

func TestUnitsOf(t *testing.T) {
	assert.Equal(t, []string{"°C", "K", "°F"}, UnitsOf(Temperature))
}

func f(v float64) *float64 { return &v }

func assertFloat(t *testing.T, name string, want, got *float64) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got, name)
		return
	}
	if assert.NotNil(t, got, name) {
		assert.Equal(t, *want, *got, name)
	}
}
