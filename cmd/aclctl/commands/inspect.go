// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/tauri-apps/tauri-sub008/cmd/aclctl/cli"
	"github.com/tauri-apps/tauri-sub008/lib/codec"
	"github.com/tauri-apps/tauri-sub008/lib/resolve"
	"github.com/tauri-apps/tauri-sub008/lib/snapshot"
)

type inspectParams struct {
	configParams
	cli.JSONOutput
	Diagnostic bool `json:"diagnostic" flag:"diag"    desc:"print the table in CBOR diagnostic notation"`
	Members    bool `json:"members"    flag:"members" desc:"print per-member resolutions instead of entries"`
}

// inspectResult is the --json output of aclctl inspect.
type inspectResult struct {
	Path        string         `json:"path"`
	Version     uint8          `json:"version"`
	Compression string         `json:"compression"`
	Fingerprint string         `json:"fingerprint"`
	Size        uint32         `json:"size"`
	PayloadSize uint32         `json:"payload_size"`
	Table       *resolve.Table `json:"table"`
}

func inspectCommand() *cli.Command {
	var params inspectParams

	return &cli.Command{
		Name:    "inspect",
		Summary: "Show the contents of a snapshot",
		Description: `Read a snapshot, verify its digest, and print the header and the
resolved entries. With no argument the configured snapshot path is
used; the config is not read when a path is given.

--diag prints the canonical CBOR of the table in RFC 8949 diagnostic
notation, which is what the fingerprint is computed over.`,
		Usage: "aclctl inspect [snapshot] [flags]",
		Examples: []cli.Example{
			{
				Description: "List the entries of the configured snapshot",
				Command:     "aclctl inspect",
			},
			{
				Description: "Show which permissions each plugin contributed",
				Command:     "aclctl inspect gen/acl.snapshot --members",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			var path string
			switch len(args) {
			case 0:
				cfg, err := params.load()
				if err != nil {
					return err
				}
				path = cfg.Paths.Snapshot
			case 1:
				path = args[0]
			default:
				return fmt.Errorf("inspect takes at most one snapshot path")
			}

			table, header, err := snapshot.ReadFile(path)
			if err != nil {
				return err
			}

			if params.Diagnostic {
				data, err := table.Encode()
				if err != nil {
					return err
				}
				notation, err := codec.Diagnose(data)
				if err != nil {
					return fmt.Errorf("formatting diagnostic notation: %w", err)
				}
				fmt.Fprintln(cli.Stdout, notation)
				return nil
			}

			result := inspectResult{
				Path:        path,
				Version:     header.Version,
				Compression: header.Compression.String(),
				Fingerprint: header.Fingerprint(),
				Size:        header.Size,
				PayloadSize: header.PayloadSize,
				Table:       table,
			}
			if done, err := params.EmitJSON(result); done {
				return err
			}

			fmt.Fprintf(cli.Stdout, "%s  version %d, %s, %d bytes (%d uncompressed), platform %s\n",
				cli.HeaderStyle.Render(path), header.Version, result.Compression,
				header.PayloadSize, header.Size, table.Platform)
			fmt.Fprintf(cli.Stdout, "fingerprint %s\n\n", result.Fingerprint)

			if params.Members {
				fmt.Fprintln(cli.Stdout, memberTable(table))
				return nil
			}
			fmt.Fprintln(cli.Stdout, entryTable(table))
			if len(table.GlobalScopes) > 0 {
				keys := make([]string, 0, len(table.GlobalScopes))
				for key := range table.GlobalScopes {
					keys = append(keys, key)
				}
				slices.Sort(keys)
				fmt.Fprintf(cli.Stdout, "\nglobal scopes: %s\n", strings.Join(keys, ", "))
			}
			return nil
		},
	}
}

// entryTable renders every allowed and denied entry, denials first.
func entryTable(table *resolve.Table) string {
	var rows [][]string
	add := func(verdict string, entries []resolve.Entry) {
		for _, entry := range entries {
			rows = append(rows, []string{
				verdict,
				entry.Key.Name,
				entry.Key.Context.String(),
				joinOrDash(entry.Command.Windows),
				joinOrDash(entry.Command.Webviews),
				referenceList(entry.Command.ReferencedBy),
			})
		}
	}
	add(cli.DenyStyle.Render("deny"), table.Denied)
	add(cli.AllowStyle.Render("allow"), table.Allowed)
	return cli.Table([]string{"", "command", "context", "windows", "webviews", "referenced by"}, rows)
}

// memberTable renders the member resolutions in key order.
func memberTable(table *resolve.Table) string {
	keys := make([]string, 0, len(table.Members))
	for key := range table.Members {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		member := table.Members[key]
		rows = append(rows, []string{
			key,
			joinOrDash(member.Allowed),
			joinOrDash(member.Denied),
			joinOrDash(member.Features),
		})
	}
	return cli.Table([]string{"member", "allowed", "denied", "features"}, rows)
}
