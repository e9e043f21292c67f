// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge combines the accepted documents of one material into a
// single record.
//
// Documents are ranked by a total order, so the merged result depends only
// on the set of documents and never on the order they were read in.
package merge

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/material-normalizer/pkg/types"
)

// relTolerance is the relative difference above which two values disagree.
const relTolerance = 1e-9

// Merge groups records by slug and merges each group. The result is sorted
// by slug. Diagnostics report every disagreement the merge resolved.
func Merge(records []types.Record, precedence types.Precedence) ([]types.Record, types.Diagnostics) {
	groups := map[string][]types.Record{}
	for _, r := range records {
		groups[r.Slug] = append(groups[r.Slug], r)
	}
	slugs := make([]string, 0, len(groups))
	for s := range groups {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)

	out := make([]types.Record, 0, len(slugs))
	var diags types.Diagnostics
	for _, s := range slugs {
		rec, d := Group(groups[s], precedence)
		out = append(out, rec)
		diags = append(diags, d...)
	}
	diags.Sort()
	return out, diags
}

// Group merges records that share one slug.
func Group(records []types.Record, precedence types.Precedence) (types.Record, types.Diagnostics) {
	ranked := append([]types.Record(nil), records...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Less(ranked[i].Primary(), ranked[j].Primary())
	})
	if len(ranked) == 1 {
		return ranked[0], nil
	}

	top := ranked[0]
	out := types.Record{Slug: top.Slug}
	for _, r := range ranked {
		first(&out.Name, r.Name)
		first(&out.Category, r.Category)
		first(&out.Subcategory, r.Subcategory)
		first(&out.Formula, r.Formula)
		first(&out.Symbol, r.Symbol)
		first(&out.BeamProfile, r.BeamProfile)
		first(&out.Body, r.Body)
		if out.Author == nil && r.Author != nil {
			a := *r.Author
			out.Author = &a
		}
		out.Applications = union(out.Applications, r.Applications)
		out.Industries = union(out.Industries, r.Industries)
		for k, v := range r.Extra {
			if out.Extra == nil {
				out.Extra = map[string]any{}
			}
			if _, ok := out.Extra[k]; !ok {
				out.Extra[k] = v
			}
		}
		out.Sources = append(out.Sources, r.Sources...)
	}

	var diags types.Diagnostics
	out.Properties, diags = measurements(ranked, "properties", precedence, func(r types.Record) map[string]types.Measurement {
		return r.Properties
	})
	settings, d := measurements(ranked, "settings", precedence, func(r types.Record) map[string]types.Measurement {
		return r.Settings
	})
	out.Settings = settings
	return out, append(diags, d...)
}

// measurements merges one measurement map across ranked records.
func measurements(ranked []types.Record, group string, precedence types.Precedence, get func(types.Record) map[string]types.Measurement) (map[string]types.Measurement, types.Diagnostics) {
	names := map[string]bool{}
	for _, r := range ranked {
		for n := range get(r) {
			names[n] = true
		}
	}
	if len(names) == 0 {
		return nil, nil
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	out := make(map[string]types.Measurement, len(sorted))
	var diags types.Diagnostics
	for _, name := range sorted {
		// Candidates in rank order.
		var cands []candidate
		for _, r := range ranked {
			if m, ok := get(r)[name]; ok && !m.IsZero() {
				cands = append(cands, candidate{m: m, src: r.Primary()})
			}
		}
		if len(cands) == 0 {
			continue
		}
		keep := 0
		if precedence == types.PrecedenceConfidence {
			keep = mostConfident(cands)
		}
		out[name] = cands[keep].m

		field := group + "." + name
		for i, c := range cands {
			if i == keep || !Differ(cands[keep].m, c.m) {
				continue
			}
			diags = append(diags, conflict(field, cands[keep], c))
		}
	}
	return out, diags
}

type candidate struct {
	m   types.Measurement
	src types.Provenance
}

// mostConfident returns the index of the candidate with the highest
// confidence; an absent confidence ranks below any stated one. Ties keep
// rank order.
func mostConfident(cands []candidate) int {
	best, bestConf := 0, confidenceOf(cands[0].m)
	for i := 1; i < len(cands); i++ {
		if c := confidenceOf(cands[i].m); c > bestConf {
			best, bestConf = i, c
		}
	}
	return best
}

func confidenceOf(m types.Measurement) float64 {
	if m.Confidence == nil {
		return math.Inf(-1)
	}
	return *m.Confidence
}

func conflict(field string, kept, dropped candidate) types.Diagnostic {
	return types.Diagnostic{
		Code:     types.CodeMergeConflict,
		Severity: types.SeverityWarning,
		Path:     dropped.src.Path,
		Document: dropped.src.Document,
		Field:    field,
		Message: fmt.Sprintf("kept %s from %s, discarded %s from %s",
			describe(kept.m), sourceName(kept.src), describe(dropped.m), sourceName(dropped.src)),
		Expected: []string{describe(kept.m)},
		Actual:   describe(dropped.m),
	}
}

func sourceName(p types.Provenance) string {
	return fmt.Sprintf("%s#%d", p.Path, p.Document)
}

func describe(m types.Measurement) string {
	var parts []string
	if m.Value != nil {
		parts = append(parts, strconv.FormatFloat(*m.Value, 'f', -1, 64))
	}
	if m.Min != nil || m.Max != nil {
		lo, hi := "", ""
		if m.Min != nil {
			lo = strconv.FormatFloat(*m.Min, 'f', -1, 64)
		}
		if m.Max != nil {
			hi = strconv.FormatFloat(*m.Max, 'f', -1, 64)
		}
		parts = append(parts, "["+lo+", "+hi+"]")
	}
	if m.Unit != "" {
		parts = append(parts, m.Unit)
	}
	return strings.Join(parts, " ")
}

// Differ reports whether two measurements disagree: a different unit, a
// number present in one and not the other, or a relative difference above
// 1e-9.
func Differ(a, b types.Measurement) bool {
	if a.Unit != b.Unit {
		return true
	}
	return differ(a.Value, b.Value) || differ(a.Min, b.Min) || differ(a.Max, b.Max)
}

func differ(a, b *float64) bool {
	if a == nil || b == nil {
		return (a == nil) != (b == nil)
	}
	x, y := *a, *b
	if x == y {
		return false
	}
	scale := math.Max(math.Abs(x), math.Abs(y))
	return math.Abs(x-y) > relTolerance*scale
}

func first(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

// union appends the items of b missing from a, comparing case-insensitively.
func union(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	for _, s := range a {
		seen[strings.ToLower(s)] = true
	}
	for _, s := range b {
		k := strings.ToLower(s)
		if !seen[k] {
			seen[k] = true
			a = append(a, s)
		}
	}
	return a
}
