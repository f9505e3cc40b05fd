// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "aclctl.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if !cfg.Resolve.ApplyDefaults {
		t.Error("expected apply_defaults=true for development")
	}
	if cfg.Snapshot.Compression != "zstd" {
		t.Errorf("expected compression=zstd, got %s", cfg.Snapshot.Compression)
	}
}

func TestLoad_RequiresConfigVariable(t *testing.T) {
	t.Setenv("ACLCTL_CONFIG", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when ACLCTL_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "ACLCTL_CONFIG environment variable not set") {
		t.Errorf("unexpected error message %q", err.Error())
	}
}

func TestLoad_WithConfigVariable(t *testing.T) {
	configPath := writeConfig(t, `
paths:
  root: /app
`)
	t.Setenv("ACLCTL_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Paths.Capabilities != "/app/capabilities" {
		t.Errorf("expected capabilities=/app/capabilities, got %s", cfg.Paths.Capabilities)
	}
}

func TestLoadFile(t *testing.T) {
	configPath := writeConfig(t, `
environment: development

paths:
  root: /custom/root
  capabilities: ${ACLCTL_ROOT}/src-tauri/capabilities
  plugins: /opt/plugins

resolve:
  platform: macOS
  apply_defaults: false
  known_windows: [main, settings]

snapshot:
  compression: lz4

serve:
  socket_path: /run/acl/ipc.sock
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.Capabilities != "/custom/root/src-tauri/capabilities" {
		t.Errorf("expected expanded capabilities path, got %s", cfg.Paths.Capabilities)
	}
	if cfg.Paths.AppPermissions != "/custom/root/permissions" {
		t.Errorf("expected default app_permissions under root, got %s", cfg.Paths.AppPermissions)
	}
	if cfg.Paths.Plugins != "/opt/plugins" {
		t.Errorf("expected plugins=/opt/plugins, got %s", cfg.Paths.Plugins)
	}
	if cfg.Resolve.Platform != "macOS" {
		t.Errorf("expected platform=macOS, got %s", cfg.Resolve.Platform)
	}
	if cfg.Resolve.ApplyDefaults {
		t.Error("expected apply_defaults=false")
	}
	if len(cfg.Resolve.KnownWindows) != 2 {
		t.Errorf("expected two known windows, got %v", cfg.Resolve.KnownWindows)
	}
	if cfg.Snapshot.Compression != "lz4" {
		t.Errorf("expected compression=lz4, got %s", cfg.Snapshot.Compression)
	}
	if cfg.Serve.SocketPath != "/run/acl/ipc.sock" {
		t.Errorf("expected socket_path=/run/acl/ipc.sock, got %s", cfg.Serve.SocketPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFileRelativeRoot(t *testing.T) {
	configPath := writeConfig(t, "environment: development\n")

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	want := filepath.Join(filepath.Dir(configPath), "capabilities")
	if cfg.Paths.Capabilities != want {
		t.Errorf("expected capabilities=%s, got %s", want, cfg.Paths.Capabilities)
	}
}

func TestLoadFileRejectsMalformedYAML(t *testing.T) {
	configPath := writeConfig(t, "paths: [unclosed\n")
	if _, err := LoadFile(configPath); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	configPath := writeConfig(t, `
environment: production

paths:
  root: /default/root

resolve:
  apply_defaults: true
  platform: linux

production:
  paths:
    root: /prod/root
  resolve:
    apply_defaults: false
  snapshot:
    compression: none
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.Root != "/prod/root" {
		t.Errorf("expected root=/prod/root, got %s", cfg.Paths.Root)
	}
	if cfg.Paths.Capabilities != "/prod/root/capabilities" {
		t.Errorf("expected capabilities under the production root, got %s", cfg.Paths.Capabilities)
	}
	if cfg.Resolve.ApplyDefaults {
		t.Error("expected apply_defaults=false from production override")
	}
	if cfg.Resolve.Platform != "linux" {
		t.Errorf("expected platform=linux kept from base, got %s", cfg.Resolve.Platform)
	}
	if cfg.Snapshot.Compression != "none" {
		t.Errorf("expected compression=none, got %s", cfg.Snapshot.Compression)
	}
}

func TestProductionDefaults(t *testing.T) {
	configPath := writeConfig(t, `
environment: production
paths:
  root: /app
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Resolve.ApplyDefaults {
		t.Error("production without overrides should disable apply_defaults")
	}
}

func TestDevelopmentOverrideKeepsUnsetBool(t *testing.T) {
	configPath := writeConfig(t, `
environment: development
paths:
  root: /app
development:
  serve:
    socket_path: /tmp/dev.sock
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if !cfg.Resolve.ApplyDefaults {
		t.Error("an override without resolve must not reset apply_defaults")
	}
	if cfg.Serve.SocketPath != "/tmp/dev.sock" {
		t.Errorf("expected socket_path=/tmp/dev.sock, got %s", cfg.Serve.SocketPath)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/app",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/app",
		},
		{
			input:    "${MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid environment",
			modify: func(c *Config) {
				c.Environment = "staging"
			},
			wantErr: true,
		},
		{
			name: "empty capabilities path",
			modify: func(c *Config) {
				c.Paths.Capabilities = ""
			},
			wantErr: true,
		},
		{
			name: "unknown platform",
			modify: func(c *Config) {
				c.Resolve.Platform = "beos"
			},
			wantErr: true,
		},
		{
			name: "unknown compression",
			modify: func(c *Config) {
				c.Snapshot.Compression = "gzip"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnsurePaths(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Paths.Snapshot = filepath.Join(tmpDir, "gen", "acl.snapshot")
	cfg.Serve.SocketPath = filepath.Join(tmpDir, "run", "ipc.sock")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	for _, path := range []string{filepath.Join(tmpDir, "gen"), filepath.Join(tmpDir, "run")} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("path %s not created: %v", path, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("path %s is not a directory", path)
		}
	}
}
