// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tauri-apps/tauri-sub008/cmd/aclctl/cli"
	"github.com/tauri-apps/tauri-sub008/lib/resolve"
	"github.com/tauri-apps/tauri-sub008/lib/snapshot"
)

type diffParams struct {
	cli.JSONOutput
}

func diffCommand() *cli.Command {
	var params diffParams

	return &cli.Command{
		Name:    "diff",
		Summary: "Compare two snapshots",
		Description: `Report the grants and denials that differ between two snapshots:
commands newly granted or revoked, newly denied or no longer denied,
and grants whose windows, webviews, or scopes changed.

Exits 0 when the snapshots are equivalent and 1 when they differ.
Snapshots with equal fingerprints are equivalent without decoding
further.`,
		Usage: "aclctl diff <old> <new> [flags]",
		Examples: []cli.Example{
			{
				Description: "Compare a release snapshot against the working tree",
				Command:     "aclctl diff release/acl.snapshot gen/acl.snapshot",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 2 {
				return fmt.Errorf("diff takes exactly two snapshot paths")
			}
			old, oldHeader, err := snapshot.ReadFile(args[0])
			if err != nil {
				return err
			}
			updated, newHeader, err := snapshot.ReadFile(args[1])
			if err != nil {
				return err
			}

			summary := summarize(&resolve.Diff{})
			if oldHeader.Digest != newHeader.Digest {
				summary = summarize(resolve.Compare(old, updated))
			}

			if done, err := params.EmitJSON(summary); done {
				if err != nil {
					return err
				}
				return verdictError(summary.empty())
			}
			printDiff(summary)
			return verdictError(summary.empty())
		},
	}
}
