// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/material-normalizer/pkg/types"
)

var (
	// The generator name is one word, optionally followed by a capitalized
	// word ("Z-Beam Generator"). Dots are kept only inside a word.
	generatedByPattern = regexp.MustCompile(`(?i:generated\s+(?:by|with))\s+([A-Za-z][\w-]*(?:\.\w[\w-]*)*(?:\s[A-Z][A-Za-z][\w-]*)?)(?:\s+[vV]?(\d+(?:\.\d+)*))?`)
	versionPattern     = regexp.MustCompile(`(?i)^version\s*[:=]\s*v?(\d+(?:\.\d+)*)`)
	generatedAtPattern = regexp.MustCompile(`(?i)^generated(?:\s+(?:at|on))?\s*[:=]\s*(.+)$`)
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// readBanner scans comment lines ("# ..." or "<!-- ... -->") for the
// generator, version, and generation time.
func readBanner(lines []string) types.Provenance {
	var p types.Provenance
	for _, line := range lines {
		text, ok := commentText(line)
		if !ok {
			continue
		}
		if m := versionPattern.FindStringSubmatch(text); m != nil {
			p.Version = m[1]
			continue
		}
		if m := generatedAtPattern.FindStringSubmatch(text); m != nil {
			if t, ok := parseTime(m[1]); ok {
				p.Generated = t
				continue
			}
		}
		if m := generatedByPattern.FindStringSubmatch(text); m != nil {
			p.Generator = strings.TrimSpace(m[1])
			if m[2] != "" && p.Version == "" {
				p.Version = m[2]
			}
		}
	}
	return p
}

func commentText(line string) (string, bool) {
	t := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(t, "#"):
		return strings.TrimSpace(strings.TrimLeft(t, "#")), true
	case strings.HasPrefix(t, "<!--") && strings.HasSuffix(t, "-->"):
		return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(t, "<!--"), "-->")), true
	}
	return "", false
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
