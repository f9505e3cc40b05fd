// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package acl

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Manifest is one plugin's permission namespace: its default
// permission, its permissions, and its permission sets, assembled from
// all of the plugin's permission files. Immutable after construction.
type Manifest struct {
	// Key is the namespace key: a plugin name, "core:<name>" for a
	// built-in plugin, or AppManifestKey.
	Key string `json:"key"`

	// Default is the default permission, stored as a set named
	// "default". Nil when the plugin declares none.
	Default *PermissionSet `json:"default,omitempty"`

	Permissions map[string]Permission    `json:"permissions"`
	Sets        map[string]PermissionSet `json:"sets"`
}

// NewManifest assembles a manifest from permission files. Duplicate
// identifiers across files, a permission and a set sharing a name, and
// more than one [default] table are errors.
func NewManifest(key string, files ...*PermissionFile) (*Manifest, error) {
	if err := validateManifestKey(key); err != nil {
		return nil, err
	}

	manifest := &Manifest{
		Key:         key,
		Permissions: make(map[string]Permission),
		Sets:        make(map[string]PermissionSet),
	}

	for _, file := range files {
		if file.Default != nil {
			if manifest.Default != nil {
				return nil, fmt.Errorf("manifest %s: more than one default permission", DisplayKey(key))
			}
			manifest.Default = &PermissionSet{
				Identifier:  DefaultPermissionName,
				Description: file.Default.Description,
				Permissions: slices.Clone(file.Default.Permissions),
			}
		}
		for _, permission := range file.Permissions {
			if err := permission.Validate(); err != nil {
				return nil, fmt.Errorf("manifest %s: %w", DisplayKey(key), err)
			}
			if _, exists := manifest.Permissions[permission.Identifier]; exists {
				return nil, fmt.Errorf("manifest %s: permission %q defined more than once", DisplayKey(key), permission.Identifier)
			}
			manifest.Permissions[permission.Identifier] = permission
		}
		for _, set := range file.Sets {
			if _, exists := manifest.Sets[set.Identifier]; exists {
				return nil, fmt.Errorf("manifest %s: permission set %q defined more than once", DisplayKey(key), set.Identifier)
			}
			manifest.Sets[set.Identifier] = set
		}
	}

	for name := range manifest.Sets {
		if _, exists := manifest.Permissions[name]; exists {
			return nil, fmt.Errorf("manifest %s: %q is both a permission and a permission set", DisplayKey(key), name)
		}
	}
	return manifest, nil
}

// ReadManifestDir walks dir for permission files and assembles them
// into a manifest under key. Files are read in lexical path order.
func ReadManifestDir(key, dir string) (*Manifest, error) {
	var files []*PermissionFile
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		if _, formatErr := FormatOf(path); formatErr != nil {
			return nil
		}
		file, err := ReadPermissionFile(path)
		if err != nil {
			return err
		}
		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", DisplayKey(key), err)
	}
	return NewManifest(key, files...)
}

// CommandNamespace returns the plugin name used in qualified command
// names: "core:window" and "window" both yield "window". The app
// manifest has no namespace.
func (m *Manifest) CommandNamespace() string {
	return commandNamespace(m.Key)
}

// PermissionNames returns every permission and set name, sorted, with
// "default" first when present.
func (m *Manifest) PermissionNames() []string {
	names := make([]string, 0, len(m.Permissions)+len(m.Sets)+1)
	for name := range m.Permissions {
		names = append(names, name)
	}
	for name := range m.Sets {
		names = append(names, name)
	}
	slices.Sort(names)
	if m.Default != nil {
		names = append([]string{DefaultPermissionName}, names...)
	}
	return names
}

// QualifiedCommand maps a command declared in the manifest under key to
// the name invocations use. App commands keep their name; plugin
// commands become "plugin:<plugin>|<command>", with any "core:" prefix
// dropped from the plugin name.
func QualifiedCommand(key, command string) string {
	if key == AppManifestKey {
		return command
	}
	return "plugin:" + commandNamespace(key) + "|" + command
}

// SplitCommand is the inverse of QualifiedCommand: it returns the plugin
// namespace ("" for app commands) and the bare command name.
func SplitCommand(qualified string) (plugin, command string) {
	rest, ok := strings.CutPrefix(qualified, "plugin:")
	if !ok {
		return "", qualified
	}
	plugin, command, ok = strings.Cut(rest, "|")
	if !ok {
		return "", qualified
	}
	return plugin, command
}

// DisplayKey renders a manifest key for messages.
func DisplayKey(key string) string {
	if key == AppManifestKey {
		return "app manifest"
	}
	return key
}

func commandNamespace(key string) string {
	if key == AppManifestKey {
		return ""
	}
	return strings.TrimPrefix(key, CorePrefix)
}

func validateManifestKey(key string) error {
	if key == AppManifestKey {
		return nil
	}
	name := strings.TrimPrefix(key, CorePrefix)
	if name == "" || strings.Contains(name, ":") {
		return fmt.Errorf("invalid manifest key %q", key)
	}
	// A valid key is usable as an identifier prefix.
	if _, err := ParseIdentifier(key + ":" + DefaultPermissionName); err != nil {
		return fmt.Errorf("invalid manifest key %q: %w", key, err)
	}
	return nil
}

// Manifests is the aggregated permission namespace, keyed by manifest
// key. Build it with Aggregate.
type Manifests map[string]*Manifest

// CollisionError reports two manifests claiming the same namespace.
type CollisionError struct {
	Namespace string
	First     string
	Second    string
}

func (e *CollisionError) Error() string {
	if e.First == e.Second {
		return fmt.Sprintf("manifest %s registered more than once", DisplayKey(e.First))
	}
	return fmt.Sprintf("manifests %s and %s both claim the command namespace %q", e.First, e.Second, e.Namespace)
}

// Aggregate builds the global namespace from per-plugin manifests. Two
// manifests with the same key, or whose command namespaces coincide
// ("core:window" and "window"), are rejected with a *CollisionError.
// The app manifest occupies its own namespace and never collides.
func Aggregate(manifests ...*Manifest) (Manifests, error) {
	result := make(Manifests, len(manifests))
	namespaces := make(map[string]string)
	for _, manifest := range manifests {
		if _, exists := result[manifest.Key]; exists {
			return nil, &CollisionError{Namespace: manifest.CommandNamespace(), First: manifest.Key, Second: manifest.Key}
		}
		result[manifest.Key] = manifest
		if manifest.Key == AppManifestKey {
			continue
		}
		namespace := manifest.CommandNamespace()
		if previous, exists := namespaces[namespace]; exists {
			return nil, &CollisionError{Namespace: namespace, First: previous, Second: manifest.Key}
		}
		namespaces[namespace] = manifest.Key
	}
	return result, nil
}

// Keys returns the manifest keys in sorted order.
func (m Manifests) Keys() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// ReadPluginsDir aggregates one manifest per subdirectory of dir, keyed
// by the subdirectory name. A subdirectory named "core-<name>" is
// registered as "core:<name>".
func ReadPluginsDir(dir string) ([]*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading plugin directory: %w", err)
	}
	var manifests []*Manifest
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		key := entry.Name()
		if name, ok := strings.CutPrefix(key, "core-"); ok {
			key = CorePrefix + name
		}
		manifest, err := ReadManifestDir(key, filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, manifest)
	}
	return manifests, nil
}
