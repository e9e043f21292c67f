// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/material-normalizer/pkg/types"
)

// WriteReport writes the summary and its diagnostics to path, as JSON when
// the extension is .json and YAML otherwise.
func WriteReport(path string, s Summary) error {
	if s.Diagnostics == nil {
		s.Diagnostics = types.Diagnostics{}
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(s, "", "  ")
		data = append(data, '\n')
	default:
		data, err = yaml.Marshal(s)
	}
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, fmt.Errorf("reading report: %w", err)
	}
	var s Summary
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &s)
	} else {
		err = yaml.Unmarshal(data, &s)
	}
	if err != nil {
		return Summary{}, fmt.Errorf("decoding report: %w", err)
	}
	return s, nil
}
