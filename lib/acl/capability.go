// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package acl

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RemoteConfig lists the remote origins a capability applies to.
type RemoteConfig struct {
	// URLs are origin patterns matched with MatchPattern, for example
	// "https://*.example.com".
	URLs []string `json:"urls"`
}

// Capability grants a list of permissions to windows and webviews
// whose labels match its patterns, under the local context, one or more
// remote contexts, or both.
type Capability struct {
	// Schema is the optional "$schema" reference. Ignored.
	Schema string `json:"$schema,omitempty"`

	Identifier  string `json:"identifier"`
	Description string `json:"description,omitempty"`

	// Local enables the capability for app-origin content. Defaults to
	// true when decoded from a file.
	Local bool `json:"local"`

	// Remote enables the capability for content loaded from matching
	// remote origins.
	Remote *RemoteConfig `json:"remote,omitempty"`

	Windows     []string          `json:"windows,omitempty"`
	Webviews    []string          `json:"webviews,omitempty"`
	Permissions []PermissionEntry `json:"permissions"`
	Platforms   []Platform        `json:"platforms,omitempty"`
}

// UnmarshalJSON decodes a capability strictly, defaulting Local to
// true when the field is absent.
func (c *Capability) UnmarshalJSON(data []byte) error {
	type plain Capability
	decoded := plain{Local: true}
	if err := decodeStrict(data, &decoded); err != nil {
		return err
	}
	*c = Capability(decoded)
	return nil
}

// ActiveOn reports whether the capability applies on target.
func (c *Capability) ActiveOn(target Platform) bool {
	return activeOn(c.Platforms, target)
}

// Contexts returns the execution contexts the capability grants under:
// local first when enabled, then one remote context per URL pattern in
// declaration order.
func (c *Capability) Contexts() []ExecutionContext {
	var contexts []ExecutionContext
	if c.Local {
		contexts = append(contexts, LocalContext())
	}
	if c.Remote != nil {
		for _, url := range c.Remote.URLs {
			contexts = append(contexts, RemoteContext(url))
		}
	}
	return contexts
}

// Validate checks identifiers and patterns. It does not check that the
// referenced permissions exist; that is the resolver's job.
func (c *Capability) Validate() error {
	if err := validateBareIdentifier(c.Identifier); err != nil {
		return fmt.Errorf("capability: %w", err)
	}
	for _, pattern := range c.Windows {
		if err := ValidatePattern(pattern); err != nil {
			return fmt.Errorf("capability %q: windows: %w", c.Identifier, err)
		}
	}
	for _, pattern := range c.Webviews {
		if err := ValidatePattern(pattern); err != nil {
			return fmt.Errorf("capability %q: webviews: %w", c.Identifier, err)
		}
	}
	if c.Remote != nil {
		for _, url := range c.Remote.URLs {
			if err := RemoteContext(url).Validate(); err != nil {
				return fmt.Errorf("capability %q: remote.urls: %w", c.Identifier, err)
			}
		}
	}
	for i := range c.Permissions {
		if _, err := ParseIdentifier(c.Permissions[i].Identifier); err != nil {
			return fmt.Errorf("capability %q: permissions[%d]: %w", c.Identifier, i, err)
		}
	}
	return nil
}

// PermissionEntry is one element of a capability's permission list:
// either a bare identifier string, or an object attaching an extra
// scope to the referenced permission.
type PermissionEntry struct {
	Identifier string

	// Scope is prepended to the scope of every permission the
	// identifier expands to.
	Scope Scopes
}

// extendedEntry is the object form of a PermissionEntry.
type extendedEntry struct {
	Identifier string  `json:"identifier"`
	Allow      []Value `json:"allow,omitempty"`
	Deny       []Value `json:"deny,omitempty"`
}

// MarshalJSON writes the string form when there is no extra scope.
func (e PermissionEntry) MarshalJSON() ([]byte, error) {
	if e.Scope.IsEmpty() {
		return json.Marshal(e.Identifier)
	}
	return json.Marshal(extendedEntry{
		Identifier: e.Identifier,
		Allow:      e.Scope.Allow,
		Deny:       e.Scope.Deny,
	})
}

// UnmarshalJSON accepts the string or the object form.
func (e *PermissionEntry) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var identifier string
		if err := json.Unmarshal(trimmed, &identifier); err != nil {
			return err
		}
		*e = PermissionEntry{Identifier: identifier}
		return nil
	}
	var extended extendedEntry
	if err := decodeStrict(trimmed, &extended); err != nil {
		return fmt.Errorf("permission entry: %w", err)
	}
	if extended.Identifier == "" {
		return fmt.Errorf("permission entry: identifier is required")
	}
	scope := Scopes{Allow: extended.Allow, Deny: extended.Deny}
	if err := scope.normalize(); err != nil {
		return fmt.Errorf("permission entry %q: %w", extended.Identifier, err)
	}
	*e = PermissionEntry{Identifier: extended.Identifier, Scope: scope}
	return nil
}

// CapabilityFile is the content of one capability file: a single
// capability, a bare list, or an object with a "capabilities" list.
type CapabilityFile struct {
	Capabilities []Capability
}

// UnmarshalJSON accepts all three layouts.
func (f *CapabilityFile) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []Capability
		if err := decodeStrict(trimmed, &list); err != nil {
			return err
		}
		f.Capabilities = list
		return nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return err
	}
	if raw, ok := probe["capabilities"]; ok {
		if len(probe) != 1 {
			if _, hasSchema := probe["$schema"]; !hasSchema || len(probe) != 2 {
				return fmt.Errorf("capability list object must only contain \"capabilities\"")
			}
		}
		var list []Capability
		if err := decodeStrict(raw, &list); err != nil {
			return err
		}
		f.Capabilities = list
		return nil
	}

	var single Capability
	if err := single.UnmarshalJSON(trimmed); err != nil {
		return err
	}
	f.Capabilities = []Capability{single}
	return nil
}
