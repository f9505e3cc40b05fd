// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package acl

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
)

// Platform is a target operating system for which a capability or
// permission is active.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformMacOS   Platform = "macOS"
	PlatformWindows Platform = "windows"
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "iOS"
)

// CurrentPlatform returns the platform of the running process.
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case "darwin":
		return PlatformMacOS
	case "windows":
		return PlatformWindows
	case "android":
		return PlatformAndroid
	case "ios":
		return PlatformIOS
	default:
		return PlatformLinux
	}
}

// activeOn reports whether a platform list admits target. An empty
// list means every platform.
func activeOn(platforms []Platform, target Platform) bool {
	return len(platforms) == 0 || slices.Contains(platforms, target)
}

// Commands lists command names a permission allows and denies. Names
// are compared by exact string match. Deny always wins on overlap, and
// an empty Allow with a non-empty Deny allows nothing.
type Commands struct {
	Allow []string `json:"allow,omitempty"`
	Deny  []string `json:"deny,omitempty"`
}

// IsEmpty reports whether neither list has entries. A permission with
// empty commands contributes only to its plugin's global scope.
func (c Commands) IsEmpty() bool {
	return len(c.Allow) == 0 && len(c.Deny) == 0
}

// Scopes carries opaque allow/deny values passed through to the
// command implementation. Nil and empty are distinct: nil means the
// permission declares no scope on that side.
type Scopes struct {
	Allow []Value `json:"allow,omitempty"`
	Deny  []Value `json:"deny,omitempty"`
}

// IsEmpty reports whether neither side is declared.
func (s Scopes) IsEmpty() bool {
	return s.Allow == nil && s.Deny == nil
}

// Merge appends other's values to s, preserving declaration order.
func (s Scopes) Merge(other Scopes) Scopes {
	if other.Allow != nil {
		s.Allow = append(slices.Clone(s.Allow), other.Allow...)
		if s.Allow == nil {
			s.Allow = []Value{}
		}
	}
	if other.Deny != nil {
		s.Deny = append(slices.Clone(s.Deny), other.Deny...)
		if s.Deny == nil {
			s.Deny = []Value{}
		}
	}
	return s
}

func (s *Scopes) normalize() error {
	var err error
	if s.Allow, err = NormalizeValues(s.Allow); err != nil {
		return fmt.Errorf("scope.allow%w", err)
	}
	if s.Deny, err = NormalizeValues(s.Deny); err != nil {
		return fmt.Errorf("scope.deny%w", err)
	}
	return nil
}

// Permission is a named allow/deny command list plus a scope. The
// identifier is the bare name inside its manifest; the manifest key
// supplies the namespace.
type Permission struct {
	// Version is an optional revision number, at least 1 when set.
	Version *uint64 `json:"version,omitempty"`

	Identifier  string     `json:"identifier"`
	Description string     `json:"description,omitempty"`
	Commands    Commands   `json:"commands"`
	Scope       Scopes     `json:"scope"`
	Platforms   []Platform `json:"platforms,omitempty"`
}

// ActiveOn reports whether the permission applies on target.
func (p *Permission) ActiveOn(target Platform) bool {
	return activeOn(p.Platforms, target)
}

// Validate checks the permission's structure. Command names must be
// non-empty; the identifier must be bare and valid.
func (p *Permission) Validate() error {
	if err := validateBareIdentifier(p.Identifier); err != nil {
		return fmt.Errorf("permission: %w", err)
	}
	if p.Identifier == DefaultPermissionName {
		return fmt.Errorf("permission %q: the name %q is reserved for the default permission", p.Identifier, DefaultPermissionName)
	}
	if p.Version != nil && *p.Version == 0 {
		return fmt.Errorf("permission %q: version must be at least 1", p.Identifier)
	}
	for _, command := range p.Commands.Allow {
		if err := validateCommandName(command); err != nil {
			return fmt.Errorf("permission %q: commands.allow: %w", p.Identifier, err)
		}
	}
	for _, command := range p.Commands.Deny {
		if err := validateCommandName(command); err != nil {
			return fmt.Errorf("permission %q: commands.deny: %w", p.Identifier, err)
		}
	}
	return nil
}

// validateCommandName rejects names that could address another
// namespace once qualified. The owning manifest supplies the
// namespace, so a permission only names the bare command.
func validateCommandName(command string) error {
	if command == "" {
		return fmt.Errorf("empty command name")
	}
	if strings.ContainsAny(command, ":|") {
		return fmt.Errorf("command name %q must not contain ':' or '|'", command)
	}
	return nil
}

// PermissionSet groups permission references. Members may name
// permissions or sets of the same manifest, the manifest's "default",
// or "plugin:name" references into other manifests.
type PermissionSet struct {
	Identifier  string   `json:"identifier"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

// Validate checks the set's identifier and member references.
func (s *PermissionSet) Validate() error {
	if err := validateBareIdentifier(s.Identifier); err != nil {
		return fmt.Errorf("permission set: %w", err)
	}
	for _, member := range s.Permissions {
		if _, err := ParseIdentifier(member); err != nil {
			return fmt.Errorf("permission set %q: %w", s.Identifier, err)
		}
	}
	return nil
}

// DefaultPermission is the [default] table of a permission file. It is
// stored in the manifest as a PermissionSet named "default".
type DefaultPermission struct {
	Version     *uint64  `json:"version,omitempty"`
	Description string   `json:"description,omitempty"`
	Permissions []string `json:"permissions"`
}

// PermissionFile is one permission definition file. A plugin's manifest
// is assembled from all of its permission files.
type PermissionFile struct {
	// Schema is the optional "$schema" reference editors use for
	// completion. Ignored.
	Schema string `json:"$schema,omitempty"`

	Default     *DefaultPermission `json:"default,omitempty"`
	Sets        []PermissionSet    `json:"set,omitempty"`
	Permissions []Permission       `json:"permission,omitempty"`
}

func validateBareIdentifier(name string) error {
	identifier, err := ParseIdentifier(name)
	if err != nil {
		return err
	}
	if _, prefixed := identifier.Prefix(); prefixed {
		return fmt.Errorf("identifier %q must not carry a plugin prefix inside its own manifest", name)
	}
	return nil
}
