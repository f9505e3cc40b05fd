// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tauri-apps/tauri-sub008/cmd/aclctl/cli"
)

type explainParams struct {
	authorityParams
	callerParams
}

func explainCommand() *cli.Command {
	var params explainParams

	return &cli.Command{
		Name:    "explain",
		Summary: "Explain why a command is allowed or denied",
		Description: `Print the diagnostic the host logs when an invocation is denied: the
capability and permission behind an explicit denial, the windows a
grant covers when the caller's window is not among them, the contexts
a grant exists for when the origin does not match, or the permissions
that would allow the command when nothing grants it.

These messages name capabilities and permissions. The host never sends
them to web content.`,
		Usage: "aclctl explain <command> [flags]",
		Examples: []cli.Example{
			{
				Description: "Explain a denial for the settings window",
				Command:     "aclctl explain 'plugin:fs|write_file' --window settings",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("explain takes exactly one command name")
			}
			origin, err := params.origin()
			if err != nil {
				return err
			}
			access, _, err := params.authority(logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(cli.Stdout, access.Explain(args[0], params.Window, params.Webview, origin))
			return nil
		},
	}
}
