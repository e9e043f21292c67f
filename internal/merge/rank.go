// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"strconv"
	"strings"

	"github.com/pdiddy/material-normalizer/pkg/types"
)

// Less reports whether a ranks before b. The keys, in turn: higher version,
// newer generation time, then source path ascending with later documents
// of one file first.
func Less(a, b types.Provenance) bool {
	if c := CompareVersions(a.Version, b.Version); c != 0 {
		return c > 0
	}
	if !a.Generated.Equal(b.Generated) {
		return a.Generated.After(b.Generated)
	}
	if a.Path == b.Path {
		return a.Document > b.Document
	}
	return a.Path < b.Path
}

// CompareVersions compares dotted numeric versions such as "1.10.2". It
// returns -1, 0 or 1. A missing version sorts below any present one;
// missing components count as zero; a non-numeric component compares as
// text after the numeric ones.
func CompareVersions(a, b string) int {
	a, b = trimV(a), trimV(b)
	switch {
	case a == b:
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}
	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(pa) || i < len(pb); i++ {
		x, y := "0", "0"
		if i < len(pa) {
			x = pa[i]
		}
		if i < len(pb) {
			y = pb[i]
		}
		if c := compareComponent(x, y); c != 0 {
			return c
		}
	}
	return 0
}

func compareComponent(x, y string) int {
	nx, errx := strconv.ParseUint(x, 10, 64)
	ny, erry := strconv.ParseUint(y, 10, 64)
	switch {
	case errx == nil && erry == nil:
		switch {
		case nx < ny:
			return -1
		case nx > ny:
			return 1
		}
		return 0
	case errx == nil:
		return 1
	case erry == nil:
		return -1
	}
	return strings.Compare(x, y)
}

func trimV(v string) string {
	v = strings.TrimSpace(v)
	return strings.TrimPrefix(strings.TrimPrefix(v, "v"), "V")
}
