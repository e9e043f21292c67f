// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package emit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/material-normalizer/internal/document"
	"github.com/pdiddy/material-normalizer/internal/schema"
	"github.com/pdiddy/material-normalizer/pkg/types"
)

// ReadFile loads a canonical record written by Write.
func ReadFile(path string) (types.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Record{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Decode(filepath.Base(path), data)
}

// Decode parses canonical record bytes. name is used for format detection
// and error messages.
func Decode(name string, data []byte) (types.Record, error) {
	f := document.Split(name, data, "")
	if len(f.Documents) != 1 {
		return types.Record{}, fmt.Errorf("%s: expected one canonical document, found %d", name, len(f.Documents))
	}
	doc := f.Documents[0]
	if doc.Rejected() {
		return types.Record{}, fmt.Errorf("%s: %w", name, doc.Diagnostics)
	}

	var rec types.Record
	if err := doc.Root.Decode(&rec); err != nil {
		return types.Record{}, fmt.Errorf("decoding %s: %w", name, err)
	}
	for k, v := range rec.Extra {
		rec.Extra[k] = schema.StringKeys(v)
	}
	rec.Body = doc.Body
	return rec, nil
}
