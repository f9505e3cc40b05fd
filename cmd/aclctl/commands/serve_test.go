// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tauri-apps/tauri-sub008/lib/acl"
	"github.com/tauri-apps/tauri-sub008/lib/authority"
	"github.com/tauri-apps/tauri-sub008/lib/config"
	"github.com/tauri-apps/tauri-sub008/lib/ipc"
	"github.com/tauri-apps/tauri-sub008/lib/testutil"
)

// startEchoHost resolves the test workspace and serves it on a fresh
// socket until the test ends. extra commands are granted with
// AllowCommand before the dispatcher is built.
func startEchoHost(t *testing.T, extra ...string) string {
	t.Helper()
	cfg, err := config.LoadFile(writeWorkspace(t))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	work, err := loadWorkspace(cfg)
	if err != nil {
		t.Fatalf("loadWorkspace: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	access, err := authority.New(work.manifests, work.capabilities, work.options(logger))
	if err != nil {
		t.Fatalf("authority.New: %v", err)
	}
	for _, command := range extra {
		if err := access.AllowCommand(command, acl.LocalContext()); err != nil {
			t.Fatalf("AllowCommand(%s): %v", command, err)
		}
	}

	socketPath := filepath.Join(testutil.SocketDir(t), "ipc.sock")
	server := ipc.NewServer(socketPath, newEchoDispatcher(access, work.manifests, logger), logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := testutil.RequireReceive(t, done, 5*time.Second, "server shutdown"); err != nil {
			t.Errorf("Serve: %v", err)
		}
	})
	testutil.RequireClosed(t, server.Ready(), 5*time.Second, "server ready")
	return socketPath
}

func TestInvokeEchoesGrantAndScope(t *testing.T) {
	socketPath := startEchoHost(t)

	output, err := runCommand(t, "invoke", "--socket", socketPath,
		"plugin:fs|read_file", "--payload", `{"path": "/tmp/notes.txt"}`)
	if err != nil {
		t.Fatalf("invoke: %v\n%s", err, output)
	}
	for _, want := range []string{`"plugin:fs|read_file"`, `"/tmp/notes.txt"`, `"main/fs:allow-read"`, `"path": "/tmp"`} {
		if !strings.Contains(output, want) {
			t.Errorf("invoke output missing %s:\n%s", want, output)
		}
	}
}

func TestInvokeDenied(t *testing.T) {
	socketPath := startEchoHost(t)

	tests := []struct {
		name string
		args []string
	}{
		{"explicit denial", []string{"plugin:fs|list_dir"}},
		{"window not granted", []string{"greet", "--window", "settings"}},
		{"remote origin", []string{"greet", "--origin", "https://example.com"}},
		{"unknown command", []string{"plugin:fs|delete_everything"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			args := append([]string{"invoke", "--socket", socketPath}, test.args...)
			output, err := runCommand(t, args...)
			if code := exitCode(err); code != 1 {
				t.Fatalf("exit code = %d (err %v), want 1", code, err)
			}
			if !strings.Contains(output, "command not allowed") {
				t.Errorf("output = %q, want command not allowed", output)
			}
		})
	}
}

func TestInvokeHostRegisteredCommand(t *testing.T) {
	socketPath := startEchoHost(t, "app_ready")

	output, err := runCommand(t, "invoke", "--socket", socketPath, "app_ready", "--window", "any-window")
	if err != nil {
		t.Fatalf("invoke: %v\n%s", err, output)
	}
	if !strings.Contains(output, `"app_ready"`) {
		t.Errorf("output = %q", output)
	}
}

func TestInvokeRejectsBadPayload(t *testing.T) {
	_, err := runCommand(t, "invoke", "--socket", "/nonexistent.sock", "greet", "--payload", "{not json")
	if err == nil || !strings.Contains(err.Error(), "--payload") {
		t.Errorf("error = %v, want payload error", err)
	}
}

func TestManifestKey(t *testing.T) {
	cfg, err := config.LoadFile(writeWorkspace(t))
	if err != nil {
		t.Fatal(err)
	}
	work, err := loadWorkspace(cfg)
	if err != nil {
		t.Fatal(err)
	}
	tests := map[string]string{
		"greet":                 acl.AppManifestKey,
		"plugin:fs|read_file":   "fs",
		"plugin:event|listen":   "core:event",
		"plugin:absent|command": "absent",
	}
	for command, want := range tests {
		if got := manifestKey(work.manifests, command); got != want {
			t.Errorf("manifestKey(%q) = %q, want %q", command, got, want)
		}
	}
}
