// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package acl

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Value is an opaque scope value. The authority never interprets it;
// the command implementation decodes it into its own type. After
// NormalizeValue, a Value is one of: nil, bool, int64, float64, string,
// []Value, or map[string]Value.
type Value = any

// NormalizeValue converts a decoded document value into the canonical
// Value form. TOML, YAML, and JSON decoders produce different concrete
// types for the same logical data (int vs int64 vs json.Number,
// map[string]any vs map[any]any); normalizing them makes resolved
// tables encode identically regardless of the source format.
func NormalizeValue(value any) (Value, error) {
	switch v := value.(type) {
	case nil, bool, string:
		return v, nil
	case json.Number:
		if integer, err := v.Int64(); err == nil {
			return integer, nil
		}
		float, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", v.String(), err)
		}
		return float, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return uintValue(uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return uintValue(v)
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case time.Time:
		// TOML datetimes have no JSON equivalent. Carry them as
		// RFC 3339 strings.
		return v.Format(time.RFC3339Nano), nil
	case []any:
		list := make([]Value, len(v))
		for i, item := range v {
			normalized, err := NormalizeValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			list[i] = normalized
		}
		return list, nil
	case map[string]any:
		object := make(map[string]Value, len(v))
		for key, item := range v {
			normalized, err := NormalizeValue(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			object[key] = normalized
		}
		return object, nil
	case map[any]any:
		object := make(map[string]Value, len(v))
		for key, item := range v {
			name, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("scope map key %v is not a string", key)
			}
			normalized, err := NormalizeValue(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			object[name] = normalized
		}
		return object, nil
	case encoding.TextMarshaler:
		// TOML local dates and times.
		text, err := v.MarshalText()
		if err != nil {
			return nil, err
		}
		return string(text), nil
	default:
		return nil, fmt.Errorf("unsupported scope value type %T", value)
	}
}

// NormalizeValues normalizes every element of values. A nil slice
// stays nil.
func NormalizeValues(values []Value) ([]Value, error) {
	if values == nil {
		return nil, nil
	}
	result := make([]Value, len(values))
	for i, value := range values {
		normalized, err := NormalizeValue(value)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		result[i] = normalized
	}
	return result, nil
}

func uintValue(v uint64) (Value, error) {
	if v > math.MaxInt64 {
		return nil, fmt.Errorf("integer %d overflows int64", v)
	}
	return int64(v), nil
}
