// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package acl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format is the on-disk encoding of a permission or capability file.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
	FormatTOML  Format = "toml"
	FormatYAML  Format = "yaml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonc", ".json5":
		return FormatJSONC, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%s: unsupported file extension (want .json, .jsonc, .toml, .yaml)", path)
	}
}

// ParsePermissionFile decodes and validates one permission file. Every
// permission's scope values are normalized.
func ParsePermissionFile(data []byte, format Format) (*PermissionFile, error) {
	document, err := toJSON(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing permission file: %w", err)
	}

	var file PermissionFile
	if err := decodeStrict(document, &file); err != nil {
		return nil, fmt.Errorf("parsing permission file: %w", err)
	}

	for i := range file.Permissions {
		permission := &file.Permissions[i]
		if err := permission.Validate(); err != nil {
			return nil, err
		}
		if err := permission.Scope.normalize(); err != nil {
			return nil, fmt.Errorf("permission %q: %w", permission.Identifier, err)
		}
	}
	for i := range file.Sets {
		if err := file.Sets[i].Validate(); err != nil {
			return nil, err
		}
	}
	if file.Default != nil {
		for _, member := range file.Default.Permissions {
			if _, err := ParseIdentifier(member); err != nil {
				return nil, fmt.Errorf("default permission: %w", err)
			}
		}
	}
	return &file, nil
}

// ReadPermissionFile reads a permission file, choosing the format from
// its extension.
func ReadPermissionFile(path string) (*PermissionFile, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	file, err := ParsePermissionFile(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// ParseCapabilityFile decodes and validates one capability file. TOML
// is accepted for symmetry with permission files.
func ParseCapabilityFile(data []byte, format Format) ([]Capability, error) {
	document, err := toJSON(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing capability file: %w", err)
	}

	var file CapabilityFile
	if err := json.Unmarshal(document, &file); err != nil {
		return nil, fmt.Errorf("parsing capability file: %w", err)
	}
	for i := range file.Capabilities {
		if err := file.Capabilities[i].Validate(); err != nil {
			return nil, err
		}
	}
	return file.Capabilities, nil
}

// ReadCapabilityFile reads a capability file, choosing the format from
// its extension.
func ReadCapabilityFile(path string) ([]Capability, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	capabilities, err := ParseCapabilityFile(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return capabilities, nil
}

// ReadCapabilityDir reads every capability file directly inside dir, in
// lexical file order. Files with unrecognized extensions are skipped.
// Duplicate capability identifiers across files are an error.
func ReadCapabilityDir(dir string) ([]Capability, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading capability directory: %w", err)
	}

	var capabilities []Capability
	origin := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if _, err := FormatOf(path); err != nil {
			continue
		}
		parsed, err := ReadCapabilityFile(path)
		if err != nil {
			return nil, err
		}
		for _, capability := range parsed {
			if previous, exists := origin[capability.Identifier]; exists {
				return nil, fmt.Errorf("capability %q defined in both %s and %s", capability.Identifier, previous, path)
			}
			origin[capability.Identifier] = path
			capabilities = append(capabilities, capability)
		}
	}
	return capabilities, nil
}

// toJSON converts a document in any supported format into plain JSON.
// TOML and YAML are decoded generically, normalized, and re-encoded so
// that a single strict JSON decode handles every format.
func toJSON(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return data, nil
	case FormatJSONC:
		return jsonc.ToJSON(data), nil
	case FormatTOML:
		var document map[string]any
		if err := toml.Unmarshal(data, &document); err != nil {
			return nil, err
		}
		return marshalGeneric(document)
	case FormatYAML:
		var document any
		if err := yaml.Unmarshal(data, &document); err != nil {
			return nil, err
		}
		if document == nil {
			return nil, errors.New("empty document")
		}
		return marshalGeneric(document)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func marshalGeneric(document any) ([]byte, error) {
	normalized, err := NormalizeValue(document)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

// decodeStrict decodes exactly one JSON value into v, rejecting unknown
// fields and preserving number precision for scope values.
func decodeStrict(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		return err
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected trailing data after document")
	}
	return nil
}
