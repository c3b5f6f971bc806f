// Package store reads and writes observation batches: JSON array, NDJSON and
// YAML files, plus a sqlite archive keyed by observation identity.
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/custody/pkg/constants"
	"github.com/agentstation/custody/pkg/errors"
	"github.com/agentstation/custody/pkg/observation"
)

// Format is a batch file encoding.
type Format string

// Supported formats.
const (
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatNDJSON, FormatYAML}
}

// ParseFormat parses a format name. "jsonl" and "yml" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "ndjson", "jsonl":
		return FormatNDJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.NewValidationError("format", s, "must be one of json, ndjson, yaml")
}

// FormatFor guesses the format from a file extension, defaulting to JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl":
		return FormatNDJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Decode reads a batch. A JSON document holding a single object decodes to a
// batch of one.
func Decode(r io.Reader, f Format) (observation.Batch, error) {
	switch f {
	case FormatNDJSON:
		return decodeNDJSON(r)
	case FormatYAML:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return observation.Batch{}, nil
		}
		// numbers and nested maps end up in the same shapes a JSON batch has
		js, err := yaml.YAMLToJSON(data)
		if err != nil {
			return nil, err
		}
		return decodeJSON(js)
	case FormatJSON, "":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return decodeJSON(data)
	}
	return nil, errors.NewValidationError("format", string(f), "unsupported format")
}

func decodeJSON(data []byte) (observation.Batch, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return observation.Batch{}, nil
	}
	if data[0] == '{' {
		var obs observation.Observation
		if err := json.Unmarshal(data, &obs); err != nil {
			return nil, err
		}
		return observation.Batch{obs}, nil
	}
	var batch observation.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, err
	}
	return batch, nil
}

func decodeNDJSON(r io.Reader) (observation.Batch, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), constants.ReadBufferSize)

	batch := observation.Batch{}
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var obs observation.Observation
		if err := json.Unmarshal(text, &obs); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, obs)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return batch, nil
}

// Encode writes items in the given format. Anything JSON-encodable works, so
// the same call writes batches and derived query lists.
func Encode[T any](w io.Writer, f Format, items []T) error {
	switch f {
	case FormatNDJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for _, item := range items {
			if err := enc.Encode(item); err != nil {
				return err
			}
		}
		return nil
	case FormatYAML:
		if items == nil {
			items = []T{}
		}
		data, err := yaml.Marshal(items)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatJSON, "":
		if items == nil {
			items = []T{}
		}
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	return errors.NewValidationError("format", string(f), "unsupported format")
}

// ReadFile decodes a batch file. An empty format is guessed from the extension.
func ReadFile(path string, f Format) (observation.Batch, error) {
	if f == "" {
		f = FormatFor(path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer file.Close()

	batch, err := Decode(file, f)
	if err != nil {
		return nil, errors.NewParseError(string(f), path, err.Error(), err)
	}
	return batch, nil
}

// WriteFile encodes items to path, creating parent directories.
func WriteFile[T any](path string, f Format, items []T) error {
	if f == "" {
		f = FormatFor(path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.WrapIO("create", dir, err)
		}
	}

	var buf bytes.Buffer
	if err := Encode(&buf, f, items); err != nil {
		return errors.WrapParse(string(f), path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
