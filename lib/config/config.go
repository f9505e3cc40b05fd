// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Production is for release builds.
	Production Environment = "production"
)

// Config is the aclctl configuration.
type Config struct {
	// Environment selects which override section applies.
	Environment Environment `yaml:"environment"`

	// Paths locates the configuration inputs and outputs.
	Paths PathsConfig `yaml:"paths"`

	// Resolve controls resolution.
	Resolve ResolveConfig `yaml:"resolve"`

	// Snapshot controls snapshot output.
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Serve configures the dry-run IPC host.
	Serve ServeConfig `yaml:"serve"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths    *PathsConfig      `yaml:"paths,omitempty"`
	Resolve  *ResolveOverrides `yaml:"resolve,omitempty"`
	Snapshot *SnapshotConfig   `yaml:"snapshot,omitempty"`
	Serve    *ServeConfig      `yaml:"serve,omitempty"`
}

// PathsConfig locates configuration inputs and outputs.
type PathsConfig struct {
	// Root is the application directory. Other paths usually derive
	// from it through ${ACLCTL_ROOT}.
	Root string `yaml:"root"`

	// Capabilities is the directory of capability files.
	Capabilities string `yaml:"capabilities"`

	// AppPermissions is the directory of the application's own
	// permission files. Optional.
	AppPermissions string `yaml:"app_permissions"`

	// Plugins is a directory with one subdirectory of permission
	// files per plugin. A subdirectory named "core-<name>" provides
	// the built-in plugin "core:<name>".
	Plugins string `yaml:"plugins"`

	// Snapshot is where aclctl resolve writes the resolved table.
	Snapshot string `yaml:"snapshot"`
}

// ResolveConfig controls resolution.
type ResolveConfig struct {
	// Platform is the target platform (linux, macOS, windows,
	// android, iOS). Empty means the platform aclctl runs on.
	Platform string `yaml:"platform"`

	// ApplyDefaults grants the default permission of every plugin no
	// capability references.
	ApplyDefaults bool `yaml:"apply_defaults"`

	// KnownWindows lists the window labels the application creates.
	// Window patterns matching none of them are reported.
	KnownWindows []string `yaml:"known_windows"`
}

// ResolveOverrides mirrors ResolveConfig with optional fields so that
// an override can turn ApplyDefaults off.
type ResolveOverrides struct {
	Platform      string   `yaml:"platform,omitempty"`
	ApplyDefaults *bool    `yaml:"apply_defaults,omitempty"`
	KnownWindows  []string `yaml:"known_windows,omitempty"`
}

// SnapshotConfig controls snapshot output.
type SnapshotConfig struct {
	// Compression is none, lz4, or zstd.
	Compression string `yaml:"compression"`
}

// ServeConfig configures aclctl serve.
type ServeConfig struct {
	// SocketPath is the Unix socket the dry-run host listens on.
	SocketPath string `yaml:"socket_path"`
}

// Default returns the default configuration. These defaults are a base
// before loading the config file; the config file is still required.
func Default() *Config {
	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:           ".",
			Capabilities:   "${ACLCTL_ROOT}/capabilities",
			AppPermissions: "${ACLCTL_ROOT}/permissions",
			Plugins:        "${ACLCTL_ROOT}/plugins",
			Snapshot:       "${ACLCTL_ROOT}/gen/acl.snapshot",
		},
		Resolve: ResolveConfig{
			ApplyDefaults: true,
		},
		Snapshot: SnapshotConfig{
			Compression: "zstd",
		},
		Serve: ServeConfig{
			SocketPath: "${ACLCTL_ROOT}/gen/ipc.sock",
		},
	}
}

// Load loads configuration from the ACLCTL_CONFIG environment variable.
// There are no fallbacks: if ACLCTL_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("ACLCTL_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("ACLCTL_CONFIG environment variable not set; " +
			"set it to the path of your aclctl.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. A relative
// paths.root is taken relative to the directory holding the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()

	if !filepath.IsAbs(cfg.Paths.Root) && !varPattern.MatchString(cfg.Paths.Root) {
		cfg.Paths.Root = filepath.Join(filepath.Dir(path), cfg.Paths.Root)
	}
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		// Production defaults: every grant must be explicit.
		if overrides == nil {
			disabled := false
			overrides = &ConfigOverrides{
				Resolve: &ResolveOverrides{ApplyDefaults: &disabled},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Capabilities != "" {
			c.Paths.Capabilities = overrides.Paths.Capabilities
		}
		if overrides.Paths.AppPermissions != "" {
			c.Paths.AppPermissions = overrides.Paths.AppPermissions
		}
		if overrides.Paths.Plugins != "" {
			c.Paths.Plugins = overrides.Paths.Plugins
		}
		if overrides.Paths.Snapshot != "" {
			c.Paths.Snapshot = overrides.Paths.Snapshot
		}
	}

	if overrides.Resolve != nil {
		if overrides.Resolve.Platform != "" {
			c.Resolve.Platform = overrides.Resolve.Platform
		}
		if overrides.Resolve.ApplyDefaults != nil {
			c.Resolve.ApplyDefaults = *overrides.Resolve.ApplyDefaults
		}
		if len(overrides.Resolve.KnownWindows) > 0 {
			c.Resolve.KnownWindows = overrides.Resolve.KnownWindows
		}
	}

	if overrides.Snapshot != nil && overrides.Snapshot.Compression != "" {
		c.Snapshot.Compression = overrides.Snapshot.Compression
	}

	if overrides.Serve != nil && overrides.Serve.SocketPath != "" {
		c.Serve.SocketPath = overrides.Serve.SocketPath
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"ACLCTL_ROOT": c.Paths.Root,
		"HOME":        os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["ACLCTL_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Capabilities = expandVars(c.Paths.Capabilities, vars)
	c.Paths.AppPermissions = expandVars(c.Paths.AppPermissions, vars)
	c.Paths.Plugins = expandVars(c.Paths.Plugins, vars)
	c.Paths.Snapshot = expandVars(c.Paths.Snapshot, vars)
	c.Serve.SocketPath = expandVars(c.Serve.SocketPath, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var (
	platforms    = []string{"linux", "macOS", "windows", "android", "iOS"}
	compressions = []string{"none", "lz4", "zstd"}
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Capabilities == "" {
		errs = append(errs, fmt.Errorf("paths.capabilities is required"))
	}

	if c.Resolve.Platform != "" && !slices.Contains(platforms, c.Resolve.Platform) {
		errs = append(errs, fmt.Errorf("resolve.platform must be one of: %v", platforms))
	}

	if !slices.Contains(compressions, c.Snapshot.Compression) {
		errs = append(errs, fmt.Errorf("snapshot.compression must be one of: %v", compressions))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the directories aclctl writes into.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Snapshot, c.Serve.SocketPath} {
		if path == "" {
			continue
		}
		directory := filepath.Dir(path)
		if err := os.MkdirAll(directory, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", directory, err)
		}
	}
	return nil
}
