// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tauri-apps/tauri-sub008/cmd/aclctl/cli"
	"github.com/tauri-apps/tauri-sub008/lib/acl"
	"github.com/tauri-apps/tauri-sub008/lib/authority"
	"github.com/tauri-apps/tauri-sub008/lib/ipc"
)

type serveParams struct {
	authorityParams
	SocketPath string   `json:"socket"        flag:"socket"        desc:"socket path (default: serve.socket_path from config)"`
	Allow      []string `json:"allow_command" flag:"allow-command" desc:"grant a command on every window for local content, as the host does for commands it registers itself"`
}

// echoResult is what every dry-run handler returns: the invocation as
// the host saw it, and the scopes attached to the grant.
type echoResult struct {
	Command      string                    `cbor:"command"`
	Window       string                    `cbor:"window"`
	Webview      string                    `cbor:"webview,omitempty"`
	Origin       string                    `cbor:"origin"`
	ReferencedBy []string                  `cbor:"referenced_by,omitempty"`
	Scope        authority.ScopeValue[any] `cbor:"scope"`
	GlobalScope  authority.ScopeValue[any] `cbor:"global_scope"`
	Payload      any                       `cbor:"payload,omitempty"`
}

func serveCommand() *cli.Command {
	var params serveParams

	return &cli.Command{
		Name:    "serve",
		Summary: "Run a dry-run host over the IPC protocol",
		Description: `Start a host that answers invocations on a Unix socket using the
resolved table, without running the application. Every allowed command
gets a handler that echoes the invocation and the scopes attached to
its grant; denied and unknown commands fail exactly as they would in
the application.

Use "aclctl invoke" (or any client speaking the protocol) to send
invocations. Runs until interrupted.`,
		Usage: "aclctl serve [flags]",
		Examples: []cli.Example{
			{
				Description: "Serve the configured snapshot",
				Command:     "aclctl serve --from-snapshot",
			},
			{
				Description: "Serve with an extra host-registered command",
				Command:     "aclctl serve --allow-command app_ready",
			},
		},
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("serve takes no positional arguments, got %q", args[0])
			}
			access, work, err := params.authority(logger)
			if err != nil {
				return err
			}
			for _, command := range params.Allow {
				if err := access.AllowCommand(command, acl.LocalContext()); err != nil {
					return err
				}
			}

			socketPath := work.config.Serve.SocketPath
			if params.SocketPath != "" {
				socketPath = params.SocketPath
			}
			if err := work.config.EnsurePaths(); err != nil {
				return err
			}

			dispatcher := newEchoDispatcher(access, work.manifests, logger)
			server := ipc.NewServer(socketPath, dispatcher, logger)
			return server.Serve(ctx)
		},
	}
}

// newEchoDispatcher returns a dispatcher with an echo handler for every
// command the authority allows in any context, and the authority
// installed.
func newEchoDispatcher(a *authority.Authority, manifests acl.Manifests, logger *slog.Logger) *ipc.Dispatcher {
	dispatcher := ipc.NewDispatcher(logger)
	registered := make(map[string]bool)
	for _, entry := range a.Table().Allowed {
		if registered[entry.Key.Name] {
			continue
		}
		registered[entry.Key.Name] = true
		ipc.HandleTyped(dispatcher, entry.Key.Name, echoHandler(manifestKey(manifests, entry.Key.Name)))
	}
	dispatcher.SetAuthority(a)
	logger.Info("dry-run host ready", "commands", len(registered))
	return dispatcher
}

func echoHandler(globalKey string) func(context.Context, *ipc.Invocation, any) (any, error) {
	return func(_ context.Context, invocation *ipc.Invocation, payload any) (any, error) {
		scope, err := authority.CommandScope[any](invocation.Authority, invocation.Grant.ScopeKeys()...)
		if err != nil {
			return nil, err
		}
		global, err := authority.GlobalScope[any](invocation.Authority, globalKey)
		if err != nil {
			return nil, err
		}
		result := echoResult{
			Command:     invocation.Command,
			Window:      invocation.Window,
			Webview:     invocation.Webview,
			Origin:      invocation.Origin.Wire(),
			Scope:       scope,
			GlobalScope: global,
			Payload:     payload,
		}
		if grant := invocation.Grant.MatchedGrant; grant != nil {
			for _, reference := range grant.Command.ReferencedBy {
				result.ReferencedBy = append(result.ReferencedBy, reference.Capability+"/"+reference.Permission)
			}
		}
		return result, nil
	}
}

// manifestKey maps a qualified command to the key of the manifest that
// declares it, which is what global scopes are keyed by. Plugin
// commands of a manifest that is not loaded map to their namespace.
func manifestKey(manifests acl.Manifests, command string) string {
	plugin, _ := acl.SplitCommand(command)
	if plugin == "" {
		return acl.AppManifestKey
	}
	for key, manifest := range manifests {
		if key != acl.AppManifestKey && manifest.CommandNamespace() == plugin {
			return key
		}
	}
	return plugin
}
