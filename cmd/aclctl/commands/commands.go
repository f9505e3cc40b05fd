// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the aclctl command tree.
//
// aclctl is the build-time side of command access control: it resolves
// an application's capability files against the permission manifests
// of the app and its plugins, writes the resolved table as a snapshot,
// and answers questions about it. The serve and invoke commands run a
// dry-run host over the IPC protocol so that a configuration can be
// exercised end to end without the application.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tauri-apps/tauri-sub008/cmd/aclctl/cli"
	"github.com/tauri-apps/tauri-sub008/lib/version"
)

// Root builds and returns the complete aclctl command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "aclctl",
		Description: `aclctl: command access control tooling.

Resolve capability files against plugin permission manifests into a
deterministic access table, inspect and compare the result, and check
or explain individual invocations.

Configuration is read from --config or ACLCTL_CONFIG.`,
		Subcommands: []*cli.Command{
			resolveCommand(),
			checkCommand(),
			explainCommand(),
			inspectCommand(),
			diffCommand(),
			watchCommand(),
			serveCommand(),
			invokeCommand(),
			versionCommand(),
		},
	}
}

type versionParams struct {
	Short bool `json:"short" flag:"short" desc:"print only the version number"`
}

func versionCommand() *cli.Command {
	var params versionParams

	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Params:  func() any { return &params },
		Run: func(context.Context, []string, *slog.Logger) error {
			if params.Short {
				fmt.Fprintln(cli.Stdout, version.Short())
				return nil
			}
			fmt.Fprintf(cli.Stdout, "aclctl %s\n", version.Full())
			return nil
		},
	}
}
