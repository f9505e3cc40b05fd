// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tauri-apps/tauri-sub008/cmd/aclctl/cli"
	"github.com/tauri-apps/tauri-sub008/lib/resolve"
	"github.com/tauri-apps/tauri-sub008/lib/snapshot"
)

type resolveParams struct {
	configParams
	cli.JSONOutput
	Output      string `json:"output"      flag:"output"      desc:"snapshot path (default: paths.snapshot from config)"`
	Compression string `json:"compression" flag:"compression" desc:"snapshot compression: none, lz4, zstd (default: snapshot.compression from config)"`
}

// resolveResult is the --json output of aclctl resolve.
type resolveResult struct {
	Path        string       `json:"path"`
	Fingerprint string       `json:"fingerprint"`
	Compression string       `json:"compression"`
	Size        uint32       `json:"size"`
	PayloadSize uint32       `json:"payload_size"`
	Allowed     int          `json:"allowed"`
	Denied      int          `json:"denied"`
	Changes     *diffSummary `json:"changes,omitempty"`
}

func resolveCommand() *cli.Command {
	var params resolveParams

	return &cli.Command{
		Name:    "resolve",
		Summary: "Resolve capabilities into a snapshot",
		Description: `Resolve every capability against the app and plugin permission
manifests and write the resolved table to the snapshot path.

Resolution fails on any configuration error: an unknown manifest or
permission, a permission set cycle, a capability with no execution
context, or a malformed window or URL pattern. Nothing is written in
that case.

When a previous snapshot exists, the grants and denials that changed
are reported.`,
		Usage: "aclctl resolve [flags]",
		Examples: []cli.Example{
			{
				Description: "Resolve using ACLCTL_CONFIG",
				Command:     "aclctl resolve",
			},
			{
				Description: "Write an uncompressed snapshot for a different config",
				Command:     "aclctl resolve --config app/aclctl.yaml --compression none",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("resolve takes no positional arguments, got %q", args[0])
			}
			cfg, err := params.load()
			if err != nil {
				return err
			}

			path := cfg.Paths.Snapshot
			if params.Output != "" {
				path = params.Output
			}
			compressionName := cfg.Snapshot.Compression
			if params.Compression != "" {
				compressionName = params.Compression
			}
			compression, err := snapshot.ParseCompression(compressionName)
			if err != nil {
				return err
			}

			work, err := loadWorkspace(cfg)
			if err != nil {
				return err
			}
			table, err := work.resolve(logger)
			if err != nil {
				return err
			}

			previous, err := readPrevious(path, logger)
			if err != nil {
				return err
			}

			if err := cfg.EnsurePaths(); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("creating snapshot directory: %w", err)
			}
			header, err := snapshot.WriteFile(path, table, compression)
			if err != nil {
				return err
			}

			result := resolveResult{
				Path:        path,
				Fingerprint: header.Fingerprint(),
				Compression: header.Compression.String(),
				Size:        header.Size,
				PayloadSize: header.PayloadSize,
				Allowed:     len(table.Allowed),
				Denied:      len(table.Denied),
			}
			if previous != nil {
				result.Changes = summarize(resolve.Compare(previous, table))
			}

			logger.Info("resolved",
				"path", path,
				"fingerprint", result.Fingerprint,
				"allowed", result.Allowed,
				"denied", result.Denied,
			)

			if done, err := params.EmitJSON(result); done {
				return err
			}

			fmt.Fprintf(cli.Stdout, "%s %s\n", cli.HeaderStyle.Render("fingerprint"), result.Fingerprint)
			fmt.Fprintf(cli.Stdout, "wrote %s (%s, %d bytes, %d uncompressed)\n",
				path, result.Compression, header.PayloadSize, header.Size)
			fmt.Fprintf(cli.Stdout, "%d allowed, %d denied\n", result.Allowed, result.Denied)
			if result.Changes != nil {
				printDiff(result.Changes)
			}
			return nil
		},
	}
}

// readPrevious loads the snapshot at path for comparison. A missing
// snapshot is not an error. An unreadable one is logged and ignored,
// since the new snapshot replaces it.
func readPrevious(path string, logger *slog.Logger) (*resolve.Table, error) {
	table, _, err := snapshot.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		logger.Warn("ignoring unreadable previous snapshot", "path", path, "error", err)
		return nil, nil
	}
	return table, nil
}

// diffSummary is the printable form of a resolve.Diff.
type diffSummary struct {
	Granted       []string `json:"granted"`
	Revoked       []string `json:"revoked"`
	Denied        []string `json:"denied"`
	Undenied      []string `json:"undenied"`
	Changed       []string `json:"changed"`
	ScopesChanged bool     `json:"scopes_changed"`
}

func summarize(diff *resolve.Diff) *diffSummary {
	return &diffSummary{
		Granted:       keyStrings(diff.Granted),
		Revoked:       keyStrings(diff.Revoked),
		Denied:        keyStrings(diff.Denied),
		Undenied:      keyStrings(diff.Undenied),
		Changed:       keyStrings(diff.Changed),
		ScopesChanged: diff.ScopesChanged,
	}
}

func (s *diffSummary) empty() bool {
	return len(s.Granted) == 0 && len(s.Revoked) == 0 && len(s.Denied) == 0 &&
		len(s.Undenied) == 0 && len(s.Changed) == 0 && !s.ScopesChanged
}

func keyStrings(keys []resolve.CommandKey) []string {
	result := make([]string, len(keys))
	for i, key := range keys {
		result[i] = key.String()
	}
	return result
}

// printDiff writes one line per changed key, prefixed the way a unified
// diff would mark it.
func printDiff(summary *diffSummary) {
	if summary.empty() {
		fmt.Fprintln(cli.Stdout, cli.MutedStyle.Render("no changes"))
		return
	}
	sections := []struct {
		marker string
		label  string
		keys   []string
	}{
		{"+", "granted", summary.Granted},
		{"-", "revoked", summary.Revoked},
		{"!", "denied", summary.Denied},
		{"~", "undenied", summary.Undenied},
		{"*", "changed", summary.Changed},
	}
	for _, section := range sections {
		for _, key := range section.keys {
			line := fmt.Sprintf("%s %s %s", section.marker, section.label, key)
			switch section.marker {
			case "+":
				line = cli.AllowStyle.Render(line)
			case "-", "!":
				line = cli.DenyStyle.Render(line)
			}
			fmt.Fprintln(cli.Stdout, line)
		}
	}
	if summary.ScopesChanged {
		fmt.Fprintln(cli.Stdout, "* global scopes changed")
	}
}

// joinOrDash joins values, or returns "-" for an empty list.
func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
