// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tauri-apps/tauri-sub008/cmd/aclctl/cli"
	"github.com/tauri-apps/tauri-sub008/lib/resolve"
)

type checkParams struct {
	authorityParams
	callerParams
	cli.JSONOutput
}

// checkResult is the --json output of aclctl check.
type checkResult struct {
	Command string         `json:"command"`
	Window  string         `json:"window"`
	Webview string         `json:"webview,omitempty"`
	Origin  string         `json:"origin"`
	Allowed bool           `json:"allowed"`
	Reason  string         `json:"reason,omitempty"`
	Grant   *resolve.Entry `json:"grant,omitempty"`
	Denial  *resolve.Entry `json:"denial,omitempty"`
	Explain string         `json:"explain,omitempty"`
}

func checkCommand() *cli.Command {
	var params checkParams

	return &cli.Command{
		Name:    "check",
		Summary: "Check whether a command is allowed for a caller",
		Description: `Evaluate one invocation against the resolved table and print the
decision. App commands are named as registered ("greet"); plugin
commands use their qualified name ("plugin:fs|read_file").

Exits 0 when the command is allowed and 1 when it is denied, so
build scripts can assert on their configuration.`,
		Usage: "aclctl check <command> [flags]",
		Examples: []cli.Example{
			{
				Description: "Check a plugin command from the main window",
				Command:     "aclctl check 'plugin:fs|read_file' --window main",
			},
			{
				Description: "Check an app command for remote content",
				Command:     "aclctl check greet --origin https://app.example.com",
			},
		},
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("check takes exactly one command name")
			}
			command := args[0]
			origin, err := params.origin()
			if err != nil {
				return err
			}
			access, _, err := params.authority(logger)
			if err != nil {
				return err
			}

			decision := access.Check(command, params.Window, params.Webview, origin)
			result := checkResult{
				Command: command,
				Window:  params.Window,
				Webview: params.Webview,
				Origin:  origin.Wire(),
				Allowed: decision.Allowed(),
				Grant:   decision.MatchedGrant,
				Denial:  decision.MatchedDenial,
			}
			if !decision.Allowed() {
				result.Reason = decision.Reason.String()
				result.Explain = access.Explain(command, params.Window, params.Webview, origin)
			}

			if done, err := params.EmitJSON(result); done {
				if err != nil {
					return err
				}
				return verdictError(result.Allowed)
			}

			fmt.Fprintf(cli.Stdout, "%s %s\n", command, cli.Verdict(result.Allowed))
			if result.Allowed {
				printEntry("granted by", decision.MatchedGrant)
			} else {
				fmt.Fprintf(cli.Stdout, "reason: %s\n", result.Reason)
				printEntry("denied by", decision.MatchedDenial)
				fmt.Fprintln(cli.Stdout, cli.MutedStyle.Render(result.Explain))
			}
			return verdictError(result.Allowed)
		},
	}
}

func verdictError(allowed bool) error {
	if allowed {
		return nil
	}
	return &cli.ExitError{Code: 1}
}

func printEntry(label string, entry *resolve.Entry) {
	if entry == nil {
		return
	}
	fmt.Fprintf(cli.Stdout, "%s: %s\n", label, referenceList(entry.Command.ReferencedBy))
	fmt.Fprintf(cli.Stdout, "  context: %s\n", entry.Key.Context)
	fmt.Fprintf(cli.Stdout, "  windows: %s\n", joinOrDash(entry.Command.Windows))
	fmt.Fprintf(cli.Stdout, "  webviews: %s\n", joinOrDash(entry.Command.Webviews))
	if len(entry.Command.Scopes) > 0 {
		fmt.Fprintf(cli.Stdout, "  scopes: %s\n", joinOrDash(entry.Command.Scopes))
	}
}

func referenceList(references []resolve.Reference) string {
	parts := make([]string, len(references))
	for i, reference := range references {
		parts[i] = reference.Capability + "/" + reference.Permission
	}
	return joinOrDash(parts)
}
