// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/tauri-apps/tauri-sub008/lib/acl"
)

// Options controls resolution.
type Options struct {
	// Platform filters capabilities and permissions by their platforms
	// list. Zero means the running platform.
	Platform acl.Platform

	// ApplyDefaults grants each plugin's default permission, to every
	// window under the local context, when no capability references
	// that plugin at all.
	ApplyDefaults bool

	// KnownWindows, when non-empty, lists the window labels the
	// application is known to create. Window patterns that match none
	// of them are logged as warnings. Matching at call time is
	// unaffected: windows created later still match their patterns.
	KnownWindows []string

	// Logger receives warnings about suspicious but valid
	// configuration. Nil discards.
	Logger *slog.Logger
}

func (o Options) platform() acl.Platform {
	if o.Platform == "" {
		return acl.CurrentPlatform()
	}
	return o.Platform
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// Resolve expands capabilities against manifests into a table. Any
// configuration error aborts resolution; the returned error wraps a
// typed error (UnknownManifestError, UnknownPermissionError,
// SetPermissionNotFoundError, PermissionSetCycleError,
// EmptyContextError) inside a *CapabilityError naming the capability.
func Resolve(manifests acl.Manifests, capabilities []acl.Capability, options Options) (*Table, error) {
	platform := options.platform()
	logger := options.logger()

	active, err := activeCapabilities(capabilities, platform)
	if err != nil {
		return nil, err
	}

	if options.ApplyDefaults {
		defaults, err := defaultCapabilities(manifests, active)
		if err != nil {
			return nil, err
		}
		for _, capability := range defaults {
			logger.Info("granting default permission of unreferenced plugin",
				"permission", capability.Permissions[0].Identifier,
				"capability", capability.Identifier,
			)
		}
		active = append(active, defaults...)
		sortCapabilities(active)
	}

	builder := newBuilder(manifests, platform)
	for i := range active {
		capability := &active[i]
		warnUnmatchedWindows(logger, capability, options.KnownWindows)
		if err := builder.add(capability); err != nil {
			return nil, &CapabilityError{Capability: capability.Identifier, Err: err}
		}
	}
	return builder.table(), nil
}

// activeCapabilities validates every capability, rejects duplicate
// identifiers, drops capabilities inactive on platform, and returns
// the rest sorted by identifier.
func activeCapabilities(capabilities []acl.Capability, platform acl.Platform) ([]acl.Capability, error) {
	seen := make(map[string]bool, len(capabilities))
	var active []acl.Capability
	for i := range capabilities {
		capability := &capabilities[i]
		if err := capability.Validate(); err != nil {
			return nil, err
		}
		if seen[capability.Identifier] {
			return nil, fmt.Errorf("capability %q defined more than once", capability.Identifier)
		}
		seen[capability.Identifier] = true
		if capability.ActiveOn(platform) {
			active = append(active, *capability)
		}
	}
	sortCapabilities(active)
	return active, nil
}

func sortCapabilities(capabilities []acl.Capability) {
	slices.SortFunc(capabilities, func(a, b acl.Capability) int {
		return cmp.Compare(a.Identifier, b.Identifier)
	})
}

// defaultCapabilities synthesizes one capability per plugin whose
// default permission no active capability references. The default is
// a fallback, never an addition: a single explicit reference to any of
// the plugin's permissions suppresses it, including one reached through
// a set of another manifest.
func defaultCapabilities(manifests acl.Manifests, active []acl.Capability) ([]acl.Capability, error) {
	taken := make(map[string]bool, len(active))
	for _, capability := range active {
		taken[capability.Identifier] = true
	}
	referenced := referencedKeys(manifests, active)

	var defaults []acl.Capability
	for _, key := range manifests.Keys() {
		manifest := manifests[key]
		if key == acl.AppManifestKey || manifest.Default == nil {
			continue
		}
		if referenced[key] {
			continue
		}
		identifier := DefaultCapabilityPrefix + strings.ReplaceAll(key, ":", "-")
		if taken[identifier] {
			return nil, fmt.Errorf("capability %q collides with the synthesized default capability of %s", identifier, key)
		}
		defaults = append(defaults, acl.Capability{
			Identifier:  identifier,
			Description: "Default permission of " + key + ".",
			Local:       true,
			Windows:     []string{"*"},
			Permissions: []acl.PermissionEntry{{Identifier: key + ":" + acl.DefaultPermissionName}},
		})
	}
	return defaults, nil
}

// referencedKeys collects the manifest keys that active capabilities
// address, directly by prefix or through set expansion. References that
// fail to expand count only by prefix; resolution reports them later.
func referencedKeys(manifests acl.Manifests, active []acl.Capability) map[string]bool {
	referenced := make(map[string]bool)
	for _, capability := range active {
		for _, entry := range capability.Permissions {
			identifier, err := acl.ParseIdentifier(entry.Identifier)
			if err != nil {
				continue
			}
			referenced[identifier.ManifestKey()] = true

			x := &expander{manifests: manifests}
			permissions, err := x.expand(entry.Identifier)
			if err != nil {
				continue
			}
			for _, reached := range permissions {
				referenced[reached.key] = true
			}
		}
	}
	return referenced
}

// DefaultCapabilityPrefix prefixes the identifiers of synthesized
// default capabilities.
const DefaultCapabilityPrefix = "default-"

func warnUnmatchedWindows(logger *slog.Logger, capability *acl.Capability, known []string) {
	if len(capability.Windows) == 0 && len(capability.Webviews) == 0 {
		logger.Warn("capability matches no window or webview", "capability", capability.Identifier)
		return
	}
	if len(known) == 0 {
		return
	}
	for _, pattern := range capability.Windows {
		if !slices.ContainsFunc(known, func(label string) bool { return acl.MatchPattern(pattern, label) }) {
			logger.Warn("window pattern matches no known window",
				"capability", capability.Identifier,
				"pattern", pattern,
			)
		}
	}
}

// builder accumulates grants and scopes across capabilities.
type builder struct {
	manifests acl.Manifests
	platform  acl.Platform

	grants        []Grant
	commandScopes map[string]Scope
	globalScopes  map[string]Scope
}

func newBuilder(manifests acl.Manifests, platform acl.Platform) *builder {
	return &builder{
		manifests:     manifests,
		platform:      platform,
		commandScopes: make(map[string]Scope),
		globalScopes:  make(map[string]Scope),
	}
}

// add expands one capability into grants.
func (b *builder) add(capability *acl.Capability) error {
	contexts := capability.Contexts()
	if len(contexts) == 0 {
		return &EmptyContextError{Capability: capability.Identifier}
	}
	windows := sortedUnion(capability.Windows, nil)
	webviews := sortedUnion(capability.Webviews, nil)

	x := &expander{manifests: b.manifests}
	for _, entry := range capability.Permissions {
		permissions, err := x.expand(entry.Identifier)
		if err != nil {
			return fmt.Errorf("permission %q: %w", entry.Identifier, err)
		}

		for _, reached := range permissions {
			permission := reached.permission
			if !permission.ActiveOn(b.platform) {
				continue
			}
			// The entry's extra scope comes first, then the
			// permission's own.
			scope := entry.Scope.Merge(permission.Scope)

			if permission.Commands.IsEmpty() {
				b.globalScopes[reached.key] = appendScope(b.globalScopes[reached.key], toScope(scope))
				continue
			}

			var scopes []string
			if !scope.IsEmpty() {
				resolved := toScope(scope)
				key, err := scopeKey(resolved)
				if err != nil {
					return fmt.Errorf("permission %q: %w", reached.identifier(), err)
				}
				b.commandScopes[key] = resolved
				scopes = []string{key}
			}

			command := Command{
				Windows:      windows,
				Webviews:     webviews,
				Scopes:       scopes,
				ReferencedBy: []Reference{{Capability: capability.Identifier, Permission: reached.identifier()}},
			}
			for _, context := range contexts {
				for _, name := range permission.Commands.Deny {
					b.grants = append(b.grants, Grant{
						Key:     CommandKey{Name: acl.QualifiedCommand(reached.key, name), Context: context},
						Deny:    true,
						Command: command,
					})
				}
				for _, name := range permission.Commands.Allow {
					b.grants = append(b.grants, Grant{
						Key:     CommandKey{Name: acl.QualifiedCommand(reached.key, name), Context: context},
						Command: command,
					})
				}
			}
		}
	}
	return nil
}

func (b *builder) table() *Table {
	allowed, denied := Merge(b.grants)
	return newTable(b.platform, allowed, denied, b.commandScopes, b.globalScopes)
}

// toScope drops the declared-but-empty distinction, which only matters
// while deciding whether a permission has a scope at all.
func toScope(scopes acl.Scopes) Scope {
	var scope Scope
	if len(scopes.Allow) > 0 {
		scope.Allow = scopes.Allow
	}
	if len(scopes.Deny) > 0 {
		scope.Deny = scopes.Deny
	}
	return scope
}
