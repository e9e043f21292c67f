// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/material-normalizer/pkg/types"
)

// yamlErrorLine extracts the position from a yaml.v3 error message.
var yamlErrorLine = regexp.MustCompile(`line (\d+)(?:, column (\d+))?`)

// parse turns one part into a Document. Syntax errors reject the document
// with a yaml-syntax diagnostic carrying the absolute file line.
func parse(path string, index int, p part) *Document {
	doc := &Document{Path: path, Index: index, Line: p.start, Body: p.body}
	text := strings.Join(p.yaml, "\n")
	doc.Provenance = readBanner(append(append([]string{}, p.yaml...), p.banner...))
	doc.Provenance.Path = path
	doc.Provenance.Document = index

	if strings.TrimSpace(text) == "" {
		doc.Diagnostics = append(doc.Diagnostics, doc.Diag(types.CodeEmptyDocument, types.SeverityWarning, nil, "", "document is empty"))
		return doc
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(text), &node); err != nil {
		doc.Diagnostics = append(doc.Diagnostics, syntaxDiagnostic(doc, err))
		return doc
	}

	root := content(&node)
	if root == nil {
		doc.Diagnostics = append(doc.Diagnostics, doc.Diag(types.CodeEmptyDocument, types.SeverityWarning, nil, "", "document has no content"))
		return doc
	}
	if root.Kind != yaml.MappingNode {
		d := doc.Diag(types.CodeTypeMismatch, types.SeverityError, root, "", "document root must be a mapping")
		d.Expected = []string{"mapping"}
		d.Actual = kindName(root)
		doc.Diagnostics = append(doc.Diagnostics, d)
		return doc
	}

	doc.Diagnostics = append(doc.Diagnostics, dedupe(doc, root, "")...)
	doc.Root = root
	return doc
}

// syntaxDiagnostic converts a yaml.v3 error into a located diagnostic.
func syntaxDiagnostic(doc *Document, err error) types.Diagnostic {
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	d := types.Diagnostic{
		Code:     types.CodeYAMLSyntax,
		Severity: types.SeverityError,
		Path:     doc.Path,
		Document: doc.Index,
		Line:     doc.Line,
		Message:  msg,
	}
	if m := yamlErrorLine.FindStringSubmatch(msg); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			d.Line = doc.Line + n - 1
		}
		if m[2] != "" {
			d.Column, _ = strconv.Atoi(m[2])
		}
		d.Message = strings.TrimSpace(yamlErrorLine.ReplaceAllString(msg, ""))
		d.Message = strings.TrimLeft(d.Message, ": ")
	}
	return d
}

// content returns the root value of a parsed document, or nil when the
// document is empty or null.
func content(n *yaml.Node) *yaml.Node {
	if n == nil || n.Kind == 0 {
		return nil
	}
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return nil
		}
		n = n.Content[0]
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil
	}
	if n.Kind == yaml.MappingNode && len(n.Content) == 0 {
		return nil
	}
	return n
}

// dedupe reports duplicate keys in every mapping below n and removes all
// but the last occurrence of each, so later stages see a clean mapping.
func dedupe(doc *Document, n *yaml.Node, prefix string) types.Diagnostics {
	var diags types.Diagnostics
	switch n.Kind {
	case yaml.MappingNode:
		last := map[string]int{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			last[n.Content[i].Value] = i
		}
		kept := make([]*yaml.Node, 0, len(n.Content))
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			field := join(prefix, key.Value)
			if j := last[key.Value]; j != i {
				winner := n.Content[j]
				diags = append(diags, doc.Diag(types.CodeDuplicateKey, types.SeverityWarning, key, field,
					"key %q is defined again at line %d; the later value is used", key.Value, doc.FileLine(winner)))
				continue
			}
			diags = append(diags, dedupe(doc, val, field)...)
			kept = append(kept, key, val)
		}
		n.Content = kept
	case yaml.SequenceNode:
		for i, c := range n.Content {
			diags = append(diags, dedupe(doc, c, fmt.Sprintf("%s[%d]", prefix, i))...)
		}
	}
	return diags
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
	case yaml.AliasNode:
		return "alias"
	}
	return "unknown"
}
