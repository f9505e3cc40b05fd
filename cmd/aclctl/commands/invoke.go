// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tauri-apps/tauri-sub008/cmd/aclctl/cli"
	"github.com/tauri-apps/tauri-sub008/lib/codec"
	"github.com/tauri-apps/tauri-sub008/lib/ipc"
)

type invokeParams struct {
	configParams
	callerParams
	SocketPath string        `json:"socket"  flag:"socket"  desc:"socket path (default: serve.socket_path from config)"`
	Payload    string        `json:"payload" flag:"payload" desc:"invocation payload as JSON"`
	Timeout    time.Duration `json:"timeout" flag:"timeout" desc:"give up after this long" default:"10s"`
}

func invokeCommand() *cli.Command {
	var params invokeParams

	return &cli.Command{
		Name:    "invoke",
		Summary: "Send an invocation to a running aclctl serve",
		Description: `Send one invocation to the dry-run host and print the response data
as JSON. The caller's window, webview, and origin are sent as given;
the host decides, exactly as the application would.

A denied invocation fails with "command not allowed" and exit code 1.
The reason is in the host's log, not in the response.`,
		Usage: "aclctl invoke <command> [flags]",
		Examples: []cli.Example{
			{
				Description: "Invoke a plugin command with a payload",
				Command:     `aclctl invoke 'plugin:fs|read_file' --payload '{"path": "$HOME/notes.txt"}'`,
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("invoke takes exactly one command name")
			}
			if _, err := params.origin(); err != nil {
				return err
			}

			socketPath := params.SocketPath
			if socketPath == "" {
				cfg, err := params.load()
				if err != nil {
					return err
				}
				socketPath = cfg.Serve.SocketPath
			}

			request := ipc.Request{
				Command: args[0],
				Window:  params.Window,
				Webview: params.Webview,
				Origin:  params.Origin,
			}
			if params.Payload != "" {
				var payload any
				if err := json.Unmarshal([]byte(params.Payload), &payload); err != nil {
					return fmt.Errorf("--payload is not valid JSON: %w", err)
				}
				data, err := codec.Marshal(payload)
				if err != nil {
					return fmt.Errorf("encoding payload: %w", err)
				}
				request.Payload = data
			}

			ctx, cancel := context.WithTimeout(ctx, params.Timeout)
			defer cancel()

			var result any
			err := ipc.NewClient(socketPath).Invoke(ctx, request, &result)
			var invokeErr *ipc.InvokeError
			if errors.As(err, &invokeErr) {
				fmt.Fprintf(cli.Stdout, "%s %s\n", request.Command, cli.DenyStyle.Render(invokeErr.Message))
				return &cli.ExitError{Code: 1}
			}
			if err != nil {
				return err
			}
			return cli.WriteJSON(result)
		},
	}
}
