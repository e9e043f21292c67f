// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document splits record files into individual YAML documents.
//
// A record file is either Markdown with a YAML frontmatter block or plain
// YAML. Several records may be concatenated in one file, separated by a
// delimiter token on a line of its own; a plain YAML segment may also hold
// a "---" separated stream. Each document is parsed with the yaml.v3 Node
// API so duplicate keys stay visible and every node keeps its line number.
package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/material-normalizer/pkg/types"
)

// recordSuffix is the file name suffix of the record naming convention.
const recordSuffix = "-laser-cleaning"

// Document is one parsed record document.
type Document struct {
	// Path is the source file path, relative to the input directory.
	Path string

	// Index is the zero-based position of the document within the file.
	Index int

	// Line is the 1-based file line of the document's first YAML line.
	Line int

	// Root is the top-level mapping. It is nil for rejected documents.
	Root *yaml.Node

	// Body is the Markdown that followed the frontmatter.
	Body string

	// Provenance holds what the trailing banner said about the document.
	Provenance types.Provenance

	// Diagnostics lists problems found while splitting and parsing.
	Diagnostics types.Diagnostics
}

// Rejected reports whether the document cannot be mapped.
func (d *Document) Rejected() bool {
	return d.Root == nil || d.Diagnostics.HasErrors()
}

// FileLine converts a node line, which is relative to the document, into
// a line of the source file.
func (d *Document) FileLine(n *yaml.Node) int {
	if n == nil || n.Line == 0 {
		return d.Line
	}
	return d.Line + n.Line - 1
}

// Diag builds a diagnostic located at node n of this document.
func (d *Document) Diag(code types.DiagnosticCode, sev types.Severity, n *yaml.Node, field, format string, args ...any) types.Diagnostic {
	diag := types.Diagnostic{
		Code:     code,
		Severity: sev,
		Path:     d.Path,
		Document: d.Index,
		Line:     d.FileLine(n),
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	}
	if n != nil {
		diag.Column = n.Column
	}
	return diag
}

// File is the result of splitting one record file.
type File struct {
	Path      string
	Documents []*Document
	// Diagnostics holds file-level problems, such as a read failure.
	Diagnostics types.Diagnostics
}

// AllDiagnostics returns file and document diagnostics together.
func (f *File) AllDiagnostics() types.Diagnostics {
	out := append(types.Diagnostics{}, f.Diagnostics...)
	for _, d := range f.Documents {
		out = append(out, d.Diagnostics...)
	}
	return out
}

// ReadFile reads root/rel and splits it.
func ReadFile(root, rel, delimiter string) *File {
	data, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		return &File{
			Path: rel,
			Diagnostics: types.Diagnostics{{
				Code:     types.CodeReadFailed,
				Severity: types.SeverityError,
				Path:     rel,
				Message:  err.Error(),
			}},
		}
	}
	return Split(rel, data, delimiter)
}

// Split divides data into documents. Markdown files (.md, .markdown) are
// read as frontmatter plus body; everything else as a YAML stream.
func Split(path string, data []byte, delimiter string) *File {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	ext := strings.ToLower(filepath.Ext(path))
	markdown := ext == ".md" || ext == ".markdown"

	f := &File{Path: path}
	for _, seg := range segments(lines, delimiter) {
		if isBlank(seg.lines) {
			continue
		}
		var parts []part
		if markdown && firstContentLine(seg.lines) >= 0 && isDocMarker(seg.lines[firstContentLine(seg.lines)]) {
			p, diag := frontmatter(seg, path, len(f.Documents))
			if diag != nil {
				f.Documents = append(f.Documents, &Document{
					Path: path, Index: len(f.Documents), Line: seg.start,
					Diagnostics: types.Diagnostics{*diag},
				})
				continue
			}
			parts = []part{p}
		} else {
			parts = stream(seg)
		}
		for _, p := range parts {
			doc := parse(path, len(f.Documents), p)
			if doc == nil {
				continue
			}
			f.Documents = append(f.Documents, doc)
		}
	}
	return f
}

// SlugFromPath derives a material slug from a record file name, e.g.
// "metals/aluminum-laser-cleaning.md" gives "aluminum".
func SlugFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSuffix(base, recordSuffix)
}

// segment is a run of lines between delimiter lines.
type segment struct {
	start int // 1-based line of lines[0]
	lines []string
}

// part is the YAML text of one document plus any body that followed it.
type part struct {
	start int
	yaml  []string
	body  string
	// banner holds comment lines outside the YAML text, such as a banner
	// after the closing frontmatter fence.
	banner []string
}

func segments(lines []string, delimiter string) []segment {
	var out []segment
	cur := segment{start: 1}
	for i, line := range lines {
		if delimiter != "" && strings.TrimSpace(line) == delimiter {
			out = append(out, cur)
			cur = segment{start: i + 2}
			continue
		}
		cur.lines = append(cur.lines, line)
	}
	return append(out, cur)
}

// frontmatter extracts the block between the opening and closing "---".
func frontmatter(seg segment, path string, index int) (part, *types.Diagnostic) {
	open := firstContentLine(seg.lines)
	for i := open + 1; i < len(seg.lines); i++ {
		if isDocMarker(seg.lines[i]) || strings.TrimSpace(seg.lines[i]) == "..." {
			body := strings.Join(seg.lines[i+1:], "\n")
			return part{
				start:  seg.start + open + 1,
				yaml:   seg.lines[open+1 : i],
				body:   strings.Trim(body, "\n"),
				banner: bannerLines(seg.lines[i+1:]),
			}, nil
		}
	}
	return part{}, &types.Diagnostic{
		Code:     types.CodeYAMLSyntax,
		Severity: types.SeverityError,
		Path:     path,
		Document: index,
		Line:     seg.start + open,
		Message:  "frontmatter opened with --- is never closed",
	}
}

// stream splits a plain YAML segment on document markers.
func stream(seg segment) []part {
	var out []part
	cur := part{start: seg.start}
	for i, line := range seg.lines {
		if isDocMarker(line) || strings.TrimSpace(line) == "..." {
			out = append(out, cur)
			cur = part{start: seg.start + i + 1}
			continue
		}
		cur.yaml = append(cur.yaml, line)
	}
	out = append(out, cur)

	// Comment-only parts carry banners for the document before them.
	var merged []part
	for i, p := range out {
		if isBlank(p.yaml) {
			// An empty document between two markers is reported; blank
			// space before the first or after the last marker is not.
			if i > 0 && i < len(out)-1 {
				merged = append(merged, p)
			}
			continue
		}
		if isCommentOnly(p.yaml) {
			if len(merged) > 0 {
				merged[len(merged)-1].banner = append(merged[len(merged)-1].banner, p.yaml...)
			}
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

// bannerLines keeps the HTML comment lines of a Markdown body; "#" lines
// there are headings, not comments.
func bannerLines(lines []string) []string {
	var out []string
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if strings.HasPrefix(t, "<!--") && strings.HasSuffix(t, "-->") {
			out = append(out, t)
		}
	}
	return out
}

func isDocMarker(line string) bool {
	t := strings.TrimRight(line, " \t")
	return t == "---" || strings.HasPrefix(t, "--- #")
}

func firstContentLine(lines []string) int {
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			return i
		}
	}
	return -1
}

func isBlank(lines []string) bool {
	return firstContentLine(lines) < 0
}

func isCommentOnly(lines []string) bool {
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t != "" && !strings.HasPrefix(t, "#") {
			return false
		}
	}
	return true
}
