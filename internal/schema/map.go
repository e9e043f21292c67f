// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/material-normalizer/internal/document"
	"github.com/pdiddy/material-normalizer/internal/units"
	"github.com/pdiddy/material-normalizer/pkg/types"
)

// mapper carries the state of one FromNode call.
type mapper struct {
	doc   *document.Document
	rec   types.Record
	diags types.Diagnostics
	// seen maps a measurement path to the file line that set it.
	seen map[string]int
}

// FromNode maps a parsed document onto a Record. A rejected document maps
// to an empty Record with only its provenance set.
func FromNode(doc *document.Document) (types.Record, types.Diagnostics) {
	m := &mapper{
		doc:  doc,
		seen: map[string]int{},
		rec: types.Record{
			Sources: []types.Provenance{doc.Provenance},
			Body:    doc.Body,
		},
	}
	if doc.Root == nil {
		return m.rec, nil
	}

	m.mapping(doc.Root, "", "")

	switch {
	case m.rec.Slug != "":
		m.rec.Slug = Slugify(m.rec.Slug)
	case m.rec.Name != "":
		m.rec.Slug = Slugify(m.rec.Name)
	default:
		m.rec.Slug = Slugify(document.SlugFromPath(doc.Path))
	}
	return m.rec, m.diags
}

// mapping walks a mapping node. group is set inside a measurement
// container; prefix is the source path of n.
func (m *mapper) mapping(n *yaml.Node, group Group, prefix string) {
	unitsFor := siblingUnits(n)

	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], resolve(n.Content[i+1])
		path := join(prefix, key.Value)
		folded := fold(key.Value)

		if _, ok := unitsFor.owner[folded]; ok {
			continue
		}

		if group == "" {
			if canon, ok := identityIndex[folded]; ok {
				m.identity(canon, key, val)
				continue
			}
			if g, ok := containers[folded]; ok {
				if val.Kind != yaml.MappingNode {
					m.mismatch(key, val, path, "mapping")
					continue
				}
				m.mapping(val, g, path)
				continue
			}
		}

		if f, ok := fieldIndex[folded]; ok {
			m.measurement(f, key, val, unitsFor.units[folded])
			continue
		}

		// Inside a container, a mapping that is not a measurement may be a
		// labelled group of measurements.
		if group != "" && val.Kind == yaml.MappingNode && holdsMeasurements(val) {
			m.mapping(val, group, path)
			continue
		}

		m.unknown(key, val, path)
	}
}

func (m *mapper) identity(canon string, key, val *yaml.Node) {
	switch canon {
	case keyApplications:
		m.rec.Applications = append(m.rec.Applications, m.list(key, val, canon)...)
	case keyIndustries:
		m.rec.Industries = append(m.rec.Industries, m.list(key, val, canon)...)
	case keyAuthor:
		m.author(key, val)
	default:
		if val.Kind != yaml.ScalarNode {
			m.mismatch(key, val, canon, "scalar")
			return
		}
		v := strings.TrimSpace(val.Value)
		switch canon {
		case keyName:
			m.rec.Name = v
		case keySlug:
			m.rec.Slug = v
		case keyCategory:
			m.rec.Category = strings.ToLower(v)
		case keySubcategory:
			m.rec.Subcategory = v
		case keyFormula:
			m.rec.Formula = v
		case keySymbol:
			m.rec.Symbol = v
		case keyBeamProfile:
			m.rec.BeamProfile = v
		}
	}
}

// list reads a sequence of scalars or a comma-separated string.
func (m *mapper) list(key, val *yaml.Node, field string) []string {
	var out []string
	switch val.Kind {
	case yaml.ScalarNode:
		for _, s := range strings.Split(val.Value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case yaml.SequenceNode:
		for i, item := range val.Content {
			item = resolve(item)
			if item.Kind != yaml.ScalarNode {
				m.mismatch(item, item, field+"["+strconv.Itoa(i)+"]", "scalar")
				continue
			}
			if s := strings.TrimSpace(item.Value); s != "" {
				out = append(out, s)
			}
		}
	default:
		m.mismatch(key, val, field, "sequence", "scalar")
	}
	return out
}

func (m *mapper) author(key, val *yaml.Node) {
	switch val.Kind {
	case yaml.ScalarNode:
		if name := strings.TrimSpace(val.Value); name != "" {
			m.rec.Author = &types.Author{Name: name}
		}
	case yaml.MappingNode:
		a := &types.Author{}
		for i := 0; i+1 < len(val.Content); i += 2 {
			k, v := val.Content[i], resolve(val.Content[i+1])
			path := keyAuthor + "." + k.Value
			switch fold(k.Value) {
			case "name":
				a.Name = m.scalar(k, v, path)
			case "title":
				a.Title = m.scalar(k, v, path)
			case "country":
				a.Country = m.scalar(k, v, path)
			case "expertise", "specialty", "specialties":
				a.Expertise = append(a.Expertise, m.list(k, v, path)...)
			default:
				m.unknown(k, v, path)
			}
		}
		m.rec.Author = a
	default:
		m.mismatch(key, val, keyAuthor, "mapping", "scalar")
	}
}

func (m *mapper) scalar(key, val *yaml.Node, path string) string {
	if val.Kind != yaml.ScalarNode {
		m.mismatch(key, val, path, "scalar")
		return ""
	}
	return strings.TrimSpace(val.Value)
}

// measurement reads any accepted value shape for f and stores it in its
// canonical unit. unitNode is the value of a sibling "<name>_unit" key.
func (m *mapper) measurement(f *Field, key, val, unitNode *yaml.Node) {
	path := f.Path()
	var (
		q    units.Quantity
		conf *float64
		src  string
		err  error
	)

	switch val.Kind {
	case yaml.ScalarNode:
		src = val.Value
		if isNull(val) {
			return
		}
		q, err = units.Parse(val.Value)
		if err != nil {
			m.unparseable(val, path, val.Value, err)
			return
		}
	case yaml.MappingNode:
		var ok bool
		q, conf, src, ok = m.measurementMapping(f, val, path)
		if !ok {
			return
		}
	default:
		m.mismatch(key, val, path, "scalar", "mapping")
		return
	}

	if unitNode != nil && q.Unit == nil {
		u, err := units.ParseUnit(unitNode.Value)
		if err != nil {
			m.unparseable(unitNode, path, unitNode.Value, err)
			return
		}
		q.Unit = u
		src = strings.TrimSpace(src + " " + unitNode.Value)
	}

	if q.Value == nil && q.Min == nil && q.Max == nil {
		return
	}

	if q.Unit != nil && q.Unit.Dimension != f.Dimension {
		d := m.doc.Diag(types.CodeUnitDimension, types.SeverityError, val, path,
			"unit %s measures %s, not %s", q.Unit.Symbol, q.Unit.Dimension, f.Dimension)
		d.Expected = units.UnitsOf(f.Dimension)
		d.Actual = q.Unit.Symbol
		m.diags = append(m.diags, d)
		return
	}

	if canon := f.CanonicalUnit(); canon != nil {
		q, err = q.To(canon)
		if err != nil {
			m.unparseable(val, path, src, err)
			return
		}
	}

	meas := types.Measurement{
		Value:      q.Value,
		Min:        q.Min,
		Max:        q.Max,
		Unit:       q.Unit.String(),
		Confidence: conf,
		Source:     strings.TrimSpace(src),
	}

	line := m.doc.FileLine(key)
	if prev, ok := m.seen[path]; ok {
		m.diags = append(m.diags, m.doc.Diag(types.CodeDuplicateKey, types.SeverityWarning, key, path,
			"%s is also given at line %d; the later value is used", f.Name, prev))
	}
	m.seen[path] = line

	target := &m.rec.Properties
	if f.Group == GroupSetting {
		target = &m.rec.Settings
	}
	if *target == nil {
		*target = map[string]types.Measurement{}
	}
	(*target)[f.Name] = meas
}

// measurementMapping reads the {value, unit, min, max, confidence} shape.
func (m *mapper) measurementMapping(f *Field, n *yaml.Node, path string) (units.Quantity, *float64, string, bool) {
	var (
		q        units.Quantity
		conf     *float64
		unitText string
		unitNode *yaml.Node
		parts    []string
	)
	type bound struct {
		node *yaml.Node
		dst  **float64
	}
	var bounds []bound

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], resolve(n.Content[i+1])
		sub := path + "." + k.Value
		folded := fold(k.Value)
		switch {
		case valueKeys[folded]:
			if v.Kind != yaml.ScalarNode {
				m.mismatch(k, v, sub, "scalar")
				return q, nil, "", false
			}
			if isNull(v) {
				continue
			}
			parsed, err := units.Parse(v.Value)
			if err != nil {
				m.unparseable(v, path, v.Value, err)
				return q, nil, "", false
			}
			q.Value, q.Unit = parsed.Value, parsed.Unit
			if parsed.IsRange() {
				q.Min, q.Max = parsed.Min, parsed.Max
			}
			parts = append(parts, v.Value)
		case unitKeys[folded]:
			if v.Kind != yaml.ScalarNode {
				m.mismatch(k, v, sub, "scalar")
				return q, nil, "", false
			}
			unitText, unitNode = strings.TrimSpace(v.Value), v
		case minKeys[folded]:
			bounds = append(bounds, bound{v, &q.Min})
		case maxKeys[folded]:
			bounds = append(bounds, bound{v, &q.Max})
		case confidenceKeys[folded]:
			c, ok := m.confidence(v, sub)
			if !ok {
				return q, nil, "", false
			}
			conf = c
		default:
			m.unknown(k, v, sub)
		}
	}

	var unit *units.Unit
	if unitText != "" {
		u, err := units.ParseUnit(unitText)
		if err != nil {
			m.unparseable(unitNode, path, unitText, err)
			return q, nil, "", false
		}
		unit = u
	}

	if q.Unit == nil {
		q.Unit = unit
	} else if unit != nil && unit != q.Unit {
		// "value: 7.85 g/cm³" with "unit: kg/m³" disagrees with itself.
		d := m.doc.Diag(types.CodeUnitUnparseable, types.SeverityError, unitNode, path,
			"value is written in %s but unit says %s", q.Unit.Symbol, unit.Symbol)
		d.Expected = []string{q.Unit.Symbol}
		d.Actual = unit.Symbol
		m.diags = append(m.diags, d)
		return q, nil, "", false
	}

	// Bounds may carry their own unit; they are converted to the value's.
	for _, b := range bounds {
		if b.node.Kind != yaml.ScalarNode {
			m.mismatch(b.node, b.node, path, "scalar")
			return q, nil, "", false
		}
		if isNull(b.node) {
			continue
		}
		parsed, err := units.Parse(b.node.Value)
		if err != nil || parsed.Value == nil {
			if err == nil {
				err = units.ErrNoNumber
			}
			m.unparseable(b.node, path, b.node.Value, err)
			return q, nil, "", false
		}
		v := *parsed.Value
		if parsed.Unit != nil && q.Unit != nil && parsed.Unit != q.Unit {
			cv, err := units.Convert(v, parsed.Unit, q.Unit)
			if err != nil {
				m.unparseable(b.node, path, b.node.Value, err)
				return q, nil, "", false
			}
			v = cv
		} else if q.Unit == nil {
			q.Unit = parsed.Unit
		}
		*b.dst = &v
		parts = append(parts, b.node.Value)
	}

	if unitText != "" {
		parts = append(parts, unitText)
	}
	return q, conf, strings.Join(parts, " "), true
}

// confidence reads a 0..1 fraction, a 1..100 percentage, or "85%".
func (m *mapper) confidence(n *yaml.Node, path string) (*float64, bool) {
	if n.Kind != yaml.ScalarNode {
		m.mismatch(n, n, path, "scalar")
		return nil, false
	}
	if isNull(n) {
		return nil, true
	}
	text := strings.TrimSpace(n.Value)
	percent := strings.HasSuffix(text, "%")
	text = strings.TrimSpace(strings.TrimSuffix(text, "%"))
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		m.unparseable(n, path, n.Value, err)
		return nil, false
	}
	if percent || (v > 1 && v <= 100) {
		v /= 100
	}
	return &v, true
}

func (m *mapper) unknown(key, val *yaml.Node, path string) {
	m.diags = append(m.diags, m.doc.Diag(types.CodeUnknownKey, types.SeverityInfo, key, path,
		"key is not part of the canonical schema; kept under extra"))
	var v any
	if err := val.Decode(&v); err != nil {
		v = val.Value
	}
	v = StringKeys(v)
	if m.rec.Extra == nil {
		m.rec.Extra = map[string]any{}
	}
	m.rec.Extra[path] = v
}

func (m *mapper) mismatch(key, val *yaml.Node, path string, expected ...string) {
	d := m.doc.Diag(types.CodeTypeMismatch, types.SeverityError, key, path,
		"expected %s, found %s", strings.Join(expected, " or "), kindName(val))
	d.Expected = expected
	d.Actual = kindName(val)
	m.diags = append(m.diags, d)
}

// unparseable reports a value that could not be read. The measurement is
// dropped; the rest of the document is still usable.
func (m *mapper) unparseable(n *yaml.Node, path, text string, err error) {
	d := m.doc.Diag(types.CodeUnitUnparseable, types.SeverityWarning, n, path,
		"cannot read %q: %v", text, err)
	d.Actual = text
	if errors.Is(err, units.ErrIncompatible) {
		d.Severity = types.SeverityError
	}
	m.diags = append(m.diags, d)
}

// StringKeys rewrites the map[any]any values yaml.v3 decodes for mappings
// with non-string keys ("2020: 1.5") into map[string]any, so extra values
// encode as JSON.
func StringKeys(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = StringKeys(e)
		}
		return out
	case map[string]any:
		for k, e := range t {
			t[k] = StringKeys(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = StringKeys(e)
		}
		return t
	}
	return v
}

// siblings maps "<name>_unit" keys onto the measurement they qualify. A unit
// key whose measurement is absent from the mapping is left as an ordinary
// key.
type siblings struct {
	// units is keyed by the folded measurement key.
	units map[string]*yaml.Node
	// owner is keyed by the folded unit key.
	owner map[string]string
}

func siblingUnits(n *yaml.Node) siblings {
	s := siblings{units: map[string]*yaml.Node{}, owner: map[string]string{}}
	present := make(map[string]bool, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		present[fold(n.Content[i].Value)] = true
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := fold(n.Content[i].Value)
		base, ok := strings.CutSuffix(k, "unit")
		if !ok {
			base, ok = strings.CutSuffix(k, "units")
		}
		if !ok || base == "" {
			continue
		}
		if _, known := fieldIndex[base]; !known || !present[base] {
			continue
		}
		if v := resolve(n.Content[i+1]); v.Kind == yaml.ScalarNode {
			s.units[base] = v
			s.owner[k] = base
		}
	}
	return s
}

func holdsMeasurements(n *yaml.Node) bool {
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := fold(n.Content[i].Value)
		if _, ok := fieldIndex[k]; ok {
			return true
		}
		if v := resolve(n.Content[i+1]); v.Kind == yaml.MappingNode && holdsMeasurements(v) {
			return true
		}
	}
	return false
}

// resolve follows YAML aliases to the anchored node.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Tag == "!!null" || strings.TrimSpace(n.Value) == "" && n.Style == 0 && n.Tag != "!!str"
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	}
	return "unknown"
}

// Locate finds the key node that set a field, for diagnostics raised after
// mapping. path is a Record field ("name") or a measurement path
// ("properties.density"). It returns nil when the field is absent.
func Locate(root *yaml.Node, path string) *yaml.Node {
	if root == nil || root.Kind != yaml.MappingNode {
		return nil
	}
	if canon, ok := identityIndex[fold(path)]; ok {
		var found *yaml.Node
		for i := 0; i+1 < len(root.Content); i += 2 {
			if identityIndex[fold(root.Content[i].Value)] == canon {
				found = root.Content[i]
			}
		}
		return found
	}
	return locateMeasurement(root, path)
}

func locateMeasurement(n *yaml.Node, path string) *yaml.Node {
	var found *yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], resolve(n.Content[i+1])
		if f, ok := fieldIndex[fold(key.Value)]; ok && f.Path() == path {
			found = key
			continue
		}
		if val.Kind == yaml.MappingNode {
			if k := locateMeasurement(val, path); k != nil {
				found = k
			}
		}
	}
	return found
}
