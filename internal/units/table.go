// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package units

import "strings"

// unitDef describes a unit and the spellings that refer to it.
type unitDef struct {
	symbol  string
	dim     Dimension
	mul     float64
	div     float64
	offset  float64
	scale   bool
	aliases []string
}

// definitions lists every accepted unit. The first unit of each dimension
// with mul=div=1 and no offset is that dimension's base.
var definitions = []unitDef{
	// Density, base g/cm³.
	{symbol: "g/cm³", dim: Density, mul: 1, div: 1, aliases: []string{"g/cm3", "g/cc", "g/ml", "g/mL", "gcm-3", "g cm-3"}},
	{symbol: "kg/m³", dim: Density, mul: 1, div: 1000, aliases: []string{"kg/m3", "kgm-3", "kg m-3"}},
	{symbol: "lb/ft³", dim: Density, mul: 0.0160184634, div: 1, aliases: []string{"lb/ft3", "lbs/ft3", "pcf"}},
	{symbol: "lb/in³", dim: Density, mul: 27.6799047, div: 1, aliases: []string{"lb/in3", "lbs/in3"}},

	// Temperature, base °C.
	{symbol: "°C", dim: Temperature, mul: 1, div: 1, aliases: []string{"C", "degC", "deg C", "celsius", "Celsius"}},
	{symbol: "K", dim: Temperature, mul: 1, div: 1, offset: -273.15, aliases: []string{"kelvin", "Kelvin"}},
	{symbol: "°F", dim: Temperature, mul: 5, div: 9, offset: -160.0 / 9.0, aliases: []string{"F", "degF", "fahrenheit", "Fahrenheit"}},

	// Thermal conductivity, base W/(m·K).
	{symbol: "W/(m·K)", dim: ThermalConductivity, mul: 1, div: 1, aliases: []string{
		"W/mK", "W/m·K", "W/m-K", "W/(m K)", "W/m/K", "W/(m·°C)", "W/m°C", "Wm-1K-1", "W m-1 K-1",
	}},
	{symbol: "BTU/(h·ft·°F)", dim: ThermalConductivity, mul: 1.730735, div: 1, aliases: []string{"BTU/hr·ft·°F", "BTU/(hr·ft·°F)", "Btu/h·ft·°F"}},

	// Hardness scales are not interconvertible.
	{symbol: "HV", dim: Hardness, mul: 1, div: 1, scale: true, aliases: []string{"Vickers", "vickers", "HV10", "HV30"}},
	{symbol: "HB", dim: Hardness, mul: 1, div: 1, scale: true, aliases: []string{"BHN", "Brinell", "brinell", "HBW"}},
	{symbol: "HRC", dim: Hardness, mul: 1, div: 1, scale: true, aliases: []string{"Rockwell C"}},
	{symbol: "HRB", dim: Hardness, mul: 1, div: 1, scale: true, aliases: []string{"Rockwell B"}},
	{symbol: "Mohs", dim: Hardness, mul: 1, div: 1, scale: true, aliases: []string{"mohs", "Mohs scale"}},
	{symbol: "Shore D", dim: Hardness, mul: 1, div: 1, scale: true, aliases: []string{"ShoreD", "Shore-D"}},
	{symbol: "Shore A", dim: Hardness, mul: 1, div: 1, scale: true, aliases: []string{"ShoreA", "Shore-A"}},

	// Pressure, base MPa.
	{symbol: "MPa", dim: Pressure, mul: 1, div: 1, aliases: []string{"N/mm2", "N/mm²", "MN/m2"}},
	{symbol: "GPa", dim: Pressure, mul: 1000, div: 1, aliases: []string{"kN/mm2"}},
	{symbol: "kPa", dim: Pressure, mul: 1, div: 1000},
	{symbol: "Pa", dim: Pressure, mul: 1, div: 1e6, aliases: []string{"N/m2"}},
	{symbol: "psi", dim: Pressure, mul: 0.00689475729, div: 1},
	{symbol: "ksi", dim: Pressure, mul: 6.89475729, div: 1},

	// Specific heat, base J/(kg·K).
	{symbol: "J/(kg·K)", dim: SpecificHeat, mul: 1, div: 1, aliases: []string{
		"J/kgK", "J/kg·K", "J/kg-K", "J/(kg K)", "J/kg/K", "J/kg°C", "J/(kg·°C)", "Jkg-1K-1",
	}},
	{symbol: "kJ/(kg·K)", dim: SpecificHeat, mul: 1000, div: 1, aliases: []string{"kJ/kgK", "kJ/kg·K", "kJ/kg-K", "J/gK", "J/g·K", "J/(g·K)", "J/g°C"}},

	// Thermal expansion, base µm/(m·K) (10⁻⁶/K).
	{symbol: "µm/(m·K)", dim: ThermalExpansion, mul: 1, div: 1, aliases: []string{
		"um/mK", "µm/m·K", "um/m-K", "ppm/K", "ppm/°C", "10^-6/K", "x10^-6/K", "×10⁻⁶/K", "10⁻⁶/K", "1e-6/K", "10^-6/°C", "x10^-6/°C",
	}},
	{symbol: "1/K", dim: ThermalExpansion, mul: 1e6, div: 1, aliases: []string{"/K", "K-1", "K^-1", "1/°C", "/°C"}},

	// Power, base W.
	{symbol: "W", dim: Power, mul: 1, div: 1, aliases: []string{"watt", "watts", "Watt", "Watts"}},
	{symbol: "kW", dim: Power, mul: 1000, div: 1},
	{symbol: "mW", dim: Power, mul: 1, div: 1000},

	// Length, base nm.
	{symbol: "nm", dim: Length, mul: 1, div: 1, aliases: []string{"nanometer", "nanometers", "nanometre"}},
	{symbol: "µm", dim: Length, mul: 1000, div: 1, aliases: []string{"um", "micron", "microns", "micrometer", "micrometers"}},
	{symbol: "mm", dim: Length, mul: 1e6, div: 1, aliases: []string{"millimeter", "millimeters"}},
	{symbol: "cm", dim: Length, mul: 1e7, div: 1},
	{symbol: "m", dim: Length, mul: 1e9, div: 1},

	// Duration, base ns.
	{symbol: "ns", dim: Duration, mul: 1, div: 1, aliases: []string{"nanosecond", "nanoseconds", "nsec"}},
	{symbol: "ps", dim: Duration, mul: 1, div: 1000, aliases: []string{"picosecond", "picoseconds"}},
	{symbol: "fs", dim: Duration, mul: 1, div: 1e6, aliases: []string{"femtosecond", "femtoseconds"}},
	{symbol: "µs", dim: Duration, mul: 1000, div: 1, aliases: []string{"us", "microsecond", "microseconds", "usec"}},
	{symbol: "ms", dim: Duration, mul: 1e6, div: 1, aliases: []string{"millisecond", "milliseconds", "msec"}},
	{symbol: "s", dim: Duration, mul: 1e9, div: 1, aliases: []string{"sec", "second", "seconds"}},

	// Frequency, base kHz.
	{symbol: "kHz", dim: Frequency, mul: 1, div: 1, aliases: []string{"KHz", "khz"}},
	{symbol: "Hz", dim: Frequency, mul: 1, div: 1000},
	{symbol: "MHz", dim: Frequency, mul: 1000, div: 1},

	// Fluence, base J/cm².
	{symbol: "J/cm²", dim: Fluence, mul: 1, div: 1, aliases: []string{"J/cm2", "Jcm-2", "J cm-2"}},
	{symbol: "mJ/cm²", dim: Fluence, mul: 1, div: 1000, aliases: []string{"mJ/cm2"}},
	{symbol: "J/m²", dim: Fluence, mul: 1, div: 10000, aliases: []string{"J/m2"}},

	// Speed, base mm/s.
	{symbol: "mm/s", dim: Speed, mul: 1, div: 1, aliases: []string{"mm/sec", "mms-1"}},
	{symbol: "m/s", dim: Speed, mul: 1000, div: 1, aliases: []string{"m/sec"}},
	{symbol: "cm/s", dim: Speed, mul: 10, div: 1},
	{symbol: "m/min", dim: Speed, mul: 1000, div: 60},

	// Pulse energy, base mJ.
	{symbol: "mJ", dim: Energy, mul: 1, div: 1, aliases: []string{"millijoule", "millijoules"}},
	{symbol: "J", dim: Energy, mul: 1000, div: 1, aliases: []string{"joule", "joules"}},
	{symbol: "µJ", dim: Energy, mul: 1, div: 1000, aliases: []string{"uJ", "microjoule", "microjoules"}},
}

var (
	bySymbol = map[string]*Unit{}
	// exact is keyed by normalized, case-preserved spelling.
	exact = map[string]*Unit{}
	// folded is keyed by lower-cased spelling; ambiguous keys are removed.
	folded = map[string]foldedUnit{}
)

// foldedUnit remembers the spelling a case-folded key came from.
type foldedUnit struct {
	unit     *Unit
	spelling string
}

func init() {
	ambiguous := map[string]bool{}
	for _, d := range definitions {
		u := &Unit{Symbol: d.symbol, Dimension: d.dim, mul: d.mul, div: d.div, offset: d.offset, scale: d.scale}
		bySymbol[d.symbol] = u
		for _, spelling := range append([]string{d.symbol}, d.aliases...) {
			key := normalizeUnitText(spelling)
			exact[key] = u
			lk := strings.ToLower(key)
			if prev, ok := folded[lk]; ok && prev.unit != u {
				ambiguous[lk] = true
			}
			folded[lk] = foldedUnit{unit: u, spelling: key}
		}
	}
	for k := range ambiguous {
		delete(folded, k)
	}
}

// Lookup finds a unit by any accepted spelling.
func Lookup(text string) (*Unit, bool) {
	key := normalizeUnitText(text)
	if key == "" {
		return nil, false
	}
	if u, ok := exact[key]; ok {
		return u, true
	}
	f, ok := folded[strings.ToLower(key)]
	if !ok || prefixCaseDiffers(key, f.spelling) {
		return nil, false
	}
	return f.unit, true
}

// siPrefixes are the case-sensitive SI prefix letters, with "u" for micro.
const siPrefixes = "QRYZEPTGMkhdcmunpfazyrq"

// prefixCaseDiffers reports whether folding key onto spelling would read one
// SI prefix as another, as in "MW" against "mW".
func prefixCaseDiffers(key, spelling string) bool {
	if key[0] == spelling[0] || len(spelling) < 2 || !strings.ContainsRune(siPrefixes, rune(key[0])) {
		return false
	}
	_, isUnit := exact[spelling[1:]]
	return isUnit
}

// MustLookup is Lookup for symbols known at compile time.
func MustLookup(symbol string) *Unit {
	u, ok := bySymbol[symbol]
	if !ok {
		panic("units: unknown symbol " + symbol)
	}
	return u
}

// UnitsOf lists the symbols of a dimension in table order.
func UnitsOf(dim Dimension) []string {
	var out []string
	for _, d := range definitions {
		if d.dim == dim {
			out = append(out, d.symbol)
		}
	}
	return out
}
