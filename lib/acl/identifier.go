// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package acl

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// AppManifestKey is the manifest key of app-local permissions.
	// Bare identifiers (no prefix) resolve against this manifest. The
	// underscores make it unreachable from a valid identifier prefix,
	// so no plugin can claim the app namespace.
	AppManifestKey = "__app__"

	// CorePrefix marks built-in plugins: "core:window" refers to the
	// plugin registered as "core:window", whose commands are exposed
	// as "plugin:window|<command>".
	CorePrefix = "core:"

	// DefaultPermissionName is the reserved permission name selecting
	// a manifest's default permission.
	DefaultPermissionName = "default"

	identifierSeparator = ':'

	// reservedPluginPrefix is the package-name prefix of plugin
	// crates. Identifiers must use the short plugin name.
	reservedPluginPrefix = "plugin-host-"

	maxPrefixLength     = 64 - len(reservedPluginPrefix)
	maxBaseLength       = 64
	maxIdentifierLength = maxPrefixLength + 1 + maxBaseLength
)

// Identifier errors. ParseIdentifier wraps these with the offending
// input so callers can match with errors.Is.
var (
	ErrIdentifierEmpty              = errors.New("identifiers cannot be empty")
	ErrIdentifierTooLong            = fmt.Errorf("identifiers cannot be longer than %d bytes", maxIdentifierLength)
	ErrIdentifierReservedPrefix     = fmt.Errorf("identifiers cannot start with %q", reservedPluginPrefix)
	ErrIdentifierFormat             = errors.New("identifiers can only include lowercase ASCII, hyphens which are not leading or trailing, and a single colon if using a prefix")
	ErrIdentifierMultipleSeparators = errors.New("identifiers can only include a single ':' separator")
	ErrIdentifierTrailingHyphen     = errors.New("identifiers cannot have a trailing hyphen")
	ErrIdentifierPrefixWithoutBase  = errors.New("identifiers cannot have a prefix without a base")
)

// Identifier is a validated permission identifier: either "prefix:base"
// or a bare "base". The zero value is not valid; construct with
// ParseIdentifier.
type Identifier struct {
	value string

	// separator is the byte index of the last ':' in value, or -1.
	// "core:window:allow-close" splits into "core:window" and "allow-close".
	separator int
}

// ParseIdentifier validates s and returns the identifier. Matching is
// exact: "FS:read" is rejected, never folded to "fs:read".
func ParseIdentifier(s string) (Identifier, error) {
	if err := validateIdentifier(s); err != nil {
		return Identifier{}, fmt.Errorf("invalid identifier %q: %w", s, err)
	}
	return Identifier{value: s, separator: strings.LastIndexByte(s, identifierSeparator)}, nil
}

// MustParseIdentifier is like ParseIdentifier but panics on error. For
// tests and compile-time constants only.
func MustParseIdentifier(s string) Identifier {
	identifier, err := ParseIdentifier(s)
	if err != nil {
		panic(err)
	}
	return identifier
}

// String returns the identifier as written.
func (id Identifier) String() string {
	return id.value
}

// IsZero reports whether the identifier is the zero value.
func (id Identifier) IsZero() bool {
	return id.value == ""
}

// Prefix returns the part before the last ':' and true, or "" and false for a
// bare identifier.
func (id Identifier) Prefix() (string, bool) {
	if id.separator < 0 {
		return "", false
	}
	return id.value[:id.separator], true
}

// Base returns the part after ':' (or the whole identifier when bare).
func (id Identifier) Base() string {
	if id.separator < 0 {
		return id.value
	}
	return id.value[id.separator+1:]
}

// ManifestKey returns the manifest this identifier resolves against:
// the prefix, or AppManifestKey for a bare identifier. A "core:"
// identifier keeps its full "core:name" key because built-in plugins
// are registered under that name.
func (id Identifier) ManifestKey() string {
	prefix, ok := id.Prefix()
	if !ok {
		return AppManifestKey
	}
	return prefix
}

// validateIdentifier walks the bytes once, tracking the class of the
// previous byte. A hyphen may not precede or follow the separator and
// may not end the identifier.
func validateIdentifier(s string) error {
	if s == "" {
		return ErrIdentifierEmpty
	}
	if strings.HasPrefix(s, reservedPluginPrefix) {
		return ErrIdentifierReservedPrefix
	}
	if len(s) > maxIdentifierLength {
		return ErrIdentifierTooLong
	}

	// "core:" identifiers carry a second separator: "core:window:allow-close".
	// Validate the remainder as a regular identifier.
	if strings.HasPrefix(s, CorePrefix) && strings.Count(s, ":") == 2 {
		rest := s[len(CorePrefix):]
		if rest == "" {
			return ErrIdentifierPrefixWithoutBase
		}
		return validateIdentifier(rest)
	}

	const (
		classByte = iota
		classHyphen
		classSeparator
	)

	if !isLowerAlphanumeric(s[0]) {
		return ErrIdentifierFormat
	}
	previous := classByte
	separators := 0

	for i := 1; i < len(s); i++ {
		b := s[i]
		switch {
		case b == identifierSeparator:
			if previous == classHyphen {
				return ErrIdentifierFormat
			}
			separators++
			if separators > 1 {
				return ErrIdentifierMultipleSeparators
			}
			previous = classSeparator
		case b == '-':
			if previous != classByte {
				return ErrIdentifierFormat
			}
			previous = classHyphen
		case isLowerAlphanumeric(b):
			previous = classByte
		default:
			return ErrIdentifierFormat
		}
	}

	switch previous {
	case classSeparator:
		return ErrIdentifierPrefixWithoutBase
	case classHyphen:
		return ErrIdentifierTrailingHyphen
	}
	return nil
}

func isLowerAlphanumeric(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
