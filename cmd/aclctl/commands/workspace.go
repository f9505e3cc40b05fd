// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/tauri-apps/tauri-sub008/lib/acl"
	"github.com/tauri-apps/tauri-sub008/lib/authority"
	"github.com/tauri-apps/tauri-sub008/lib/config"
	"github.com/tauri-apps/tauri-sub008/lib/resolve"
	"github.com/tauri-apps/tauri-sub008/lib/snapshot"
)

// configParams is embedded by every command that reads the aclctl
// configuration.
type configParams struct {
	ConfigPath string `json:"config" flag:"config,c" desc:"path to aclctl.yaml (default: $ACLCTL_CONFIG)"`
}

// load reads and validates the configuration.
func (p *configParams) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if p.ConfigPath != "" {
		cfg, err = config.LoadFile(p.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// workspace is the resolution input named by a configuration.
type workspace struct {
	config       *config.Config
	manifests    acl.Manifests
	capabilities []acl.Capability
}

// loadWorkspace reads the app permissions, plugin manifests, and
// capabilities the configuration points at. The app permission and
// plugin directories are optional; the capability directory is not.
func loadWorkspace(cfg *config.Config) (*workspace, error) {
	var list []*acl.Manifest

	if exists, err := directoryExists(cfg.Paths.AppPermissions); err != nil {
		return nil, err
	} else if exists {
		manifest, err := acl.ReadManifestDir(acl.AppManifestKey, cfg.Paths.AppPermissions)
		if err != nil {
			return nil, err
		}
		list = append(list, manifest)
	}

	if exists, err := directoryExists(cfg.Paths.Plugins); err != nil {
		return nil, err
	} else if exists {
		plugins, err := acl.ReadPluginsDir(cfg.Paths.Plugins)
		if err != nil {
			return nil, err
		}
		list = append(list, plugins...)
	}

	manifests, err := acl.Aggregate(list...)
	if err != nil {
		return nil, err
	}

	capabilities, err := acl.ReadCapabilityDir(cfg.Paths.Capabilities)
	if err != nil {
		return nil, err
	}

	return &workspace{config: cfg, manifests: manifests, capabilities: capabilities}, nil
}

func directoryExists(path string) (bool, error) {
	if path == "" {
		return false, nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%s is not a directory", path)
	}
	return true, nil
}

// options returns the resolver options of the configuration.
func (w *workspace) options(logger *slog.Logger) resolve.Options {
	return resolve.Options{
		Platform:      acl.Platform(w.config.Resolve.Platform),
		ApplyDefaults: w.config.Resolve.ApplyDefaults,
		KnownWindows:  w.config.Resolve.KnownWindows,
		Logger:        logger,
	}
}

// resolve resolves the workspace.
func (w *workspace) resolve(logger *slog.Logger) (*resolve.Table, error) {
	return resolve.Resolve(w.manifests, w.capabilities, w.options(logger))
}

// authorityParams selects where check, explain, and serve get their
// table: a fresh resolution, or the snapshot aclctl resolve wrote.
type authorityParams struct {
	configParams
	FromSnapshot bool `json:"from_snapshot" flag:"from-snapshot" desc:"load the table from the configured snapshot instead of resolving"`
}

// authority builds an authority per the params. Manifests are always
// loaded so that explanations can list permissions.
func (p *authorityParams) authority(logger *slog.Logger) (*authority.Authority, *workspace, error) {
	cfg, err := p.load()
	if err != nil {
		return nil, nil, err
	}
	work, err := loadWorkspace(cfg)
	if err != nil {
		return nil, nil, err
	}

	if p.FromSnapshot {
		table, header, err := snapshot.ReadFile(cfg.Paths.Snapshot)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("loaded snapshot",
			"path", cfg.Paths.Snapshot,
			"fingerprint", header.Fingerprint(),
		)
		result, err := authority.FromTable(work.manifests, table)
		if err != nil {
			return nil, nil, err
		}
		result.SetLogger(logger)
		return result, work, nil
	}

	result, err := authority.New(work.manifests, work.capabilities, work.options(logger))
	if err != nil {
		return nil, nil, err
	}
	return result, work, nil
}

// callerParams describe the invocation being checked.
type callerParams struct {
	Window  string `json:"window"  flag:"window,w"  desc:"window label of the caller" default:"main"`
	Webview string `json:"webview" flag:"webview"   desc:"webview label of the caller"`
	Origin  string `json:"origin"  flag:"origin,o"  desc:"caller origin: local or a URL" default:"local"`
}

func (p *callerParams) origin() (acl.Origin, error) {
	origin, err := acl.ParseOrigin(p.Origin)
	if err != nil {
		return acl.Origin{}, fmt.Errorf("--origin: %w", err)
	}
	return origin, nil
}
