// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package acl

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func permissionFile(t *testing.T, document string) *PermissionFile {
	t.Helper()
	file, err := ParsePermissionFile([]byte(document), FormatJSON)
	if err != nil {
		t.Fatalf("ParsePermissionFile: %v", err)
	}
	return file
}

func TestNewManifest(t *testing.T) {
	first := permissionFile(t, `{
		"default": {"permissions": ["allow-read"]},
		"permission": [{"identifier": "allow-read", "commands": {"allow": ["read_file"]}}]
	}`)
	second := permissionFile(t, `{
		"set": [{"identifier": "read-all", "description": "", "permissions": ["allow-read", "allow-stat"]}],
		"permission": [{"identifier": "allow-stat", "commands": {"allow": ["stat"]}}]
	}`)

	manifest, err := NewManifest("fs", first, second)
	if err != nil {
		t.Fatalf("NewManifest: %v", err)
	}
	if manifest.Default == nil || manifest.Default.Identifier != DefaultPermissionName {
		t.Fatalf("Default = %+v", manifest.Default)
	}
	if len(manifest.Permissions) != 2 || len(manifest.Sets) != 1 {
		t.Errorf("Permissions = %d, Sets = %d", len(manifest.Permissions), len(manifest.Sets))
	}
	want := []string{"default", "allow-read", "allow-stat", "read-all"}
	if got := manifest.PermissionNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("PermissionNames() = %v, want %v", got, want)
	}
}

func TestNewManifestRejects(t *testing.T) {
	read := `{"permission": [{"identifier": "allow-read", "commands": {"allow": ["read_file"]}}]}`
	defaults := `{"default": {"permissions": []}}`
	setNamedRead := `{"set": [{"identifier": "allow-read", "description": "", "permissions": []}]}`

	tests := []struct {
		name  string
		key   string
		files []string
	}{
		{"duplicate permission", "fs", []string{read, read}},
		{"duplicate default", "fs", []string{defaults, defaults}},
		{"permission and set share a name", "fs", []string{read, setNamedRead}},
		{"invalid key", "FS", []string{read}},
		{"core without name", "core:", []string{read}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var files []*PermissionFile
			for _, document := range test.files {
				files = append(files, permissionFile(t, document))
			}
			if _, err := NewManifest(test.key, files...); err == nil {
				t.Error("NewManifest succeeded, want error")
			}
		})
	}
}

func TestNewManifestRejectsForeignCommand(t *testing.T) {
	// Built directly, bypassing ParsePermissionFile.
	file := &PermissionFile{
		Permissions: []Permission{{
			Identifier: "sneaky",
			Commands:   Commands{Allow: []string{"plugin:fs|write_file"}},
		}},
	}
	if _, err := NewManifest(AppManifestKey, file); err == nil {
		t.Fatal("app manifest accepted a command in the fs namespace")
	}
	if _, err := NewManifest("shell", file); err == nil {
		t.Fatal("shell manifest accepted a command in the fs namespace")
	}
}

func TestAggregateCollisions(t *testing.T) {
	mustManifest := func(key string) *Manifest {
		t.Helper()
		manifest, err := NewManifest(key)
		if err != nil {
			t.Fatalf("NewManifest(%q): %v", key, err)
		}
		return manifest
	}

	manifests, err := Aggregate(mustManifest(AppManifestKey), mustManifest("fs"), mustManifest("core:window"))
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got := manifests.Keys(); !reflect.DeepEqual(got, []string{AppManifestKey, "core:window", "fs"}) {
		t.Errorf("Keys() = %v", got)
	}

	var collision *CollisionError
	_, err = Aggregate(mustManifest("fs"), mustManifest("fs"))
	if !errors.As(err, &collision) {
		t.Errorf("duplicate key: err = %v, want *CollisionError", err)
	}
	_, err = Aggregate(mustManifest("core:window"), mustManifest("window"))
	if !errors.As(err, &collision) || collision.Namespace != "window" {
		t.Errorf("namespace clash: err = %v, want *CollisionError for window", err)
	}
}

func TestQualifiedCommand(t *testing.T) {
	tests := []struct {
		key, command, want string
	}{
		{AppManifestKey, "greet", "greet"},
		{"fs", "read_file", "plugin:fs|read_file"},
		{"core:window", "close", "plugin:window|close"},
	}
	for _, test := range tests {
		got := QualifiedCommand(test.key, test.command)
		if got != test.want {
			t.Errorf("QualifiedCommand(%q, %q) = %q, want %q", test.key, test.command, got, test.want)
		}
		plugin, command := SplitCommand(got)
		if command != test.command || plugin != commandNamespace(test.key) {
			t.Errorf("SplitCommand(%q) = %q, %q", got, plugin, command)
		}
	}
}

func TestReadPluginsDir(t *testing.T) {
	root := t.TempDir()
	write := func(path, content string) {
		t.Helper()
		full := filepath.Join(root, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("fs/default.toml", "[default]\npermissions = [\"allow-read\"]\n")
	write("fs/autogenerated/read.toml", "[[permission]]\nidentifier = \"allow-read\"\ncommands.allow = [\"read_file\"]\n")
	write("core-window/window.json", `{"permission": [{"identifier": "allow-close", "commands": {"allow": ["close"]}}]}`)

	manifests, err := ReadPluginsDir(root)
	if err != nil {
		t.Fatalf("ReadPluginsDir: %v", err)
	}
	if len(manifests) != 2 {
		t.Fatalf("got %d manifests, want 2", len(manifests))
	}
	byKey := map[string]*Manifest{}
	for _, manifest := range manifests {
		byKey[manifest.Key] = manifest
	}
	if _, ok := byKey["core:window"].Permissions["allow-close"]; !ok {
		t.Error("core:window missing allow-close")
	}
	if fs := byKey["fs"]; fs == nil || fs.Default == nil || len(fs.Permissions) != 1 {
		t.Errorf("fs manifest = %+v", fs)
	}
}
