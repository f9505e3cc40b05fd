// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/tauri-apps/tauri-sub008/lib/acl"
	"github.com/tauri-apps/tauri-sub008/lib/authority"
	"github.com/tauri-apps/tauri-sub008/lib/codec"
	"github.com/tauri-apps/tauri-sub008/lib/resolve"
)

const appPermissions = `{
	"permission": [
		{"identifier": "greet", "commands": {"allow": ["greet"]}},
		{"identifier": "files", "commands": {"allow": ["read_note", "orphan"]}, "scope": {"allow": [{"path": "/notes"}]}},
		{"identifier": "deny-orphan", "commands": {"deny": ["secret"]}}
	]
}`

func testAuthority(t *testing.T) *authority.Authority {
	t.Helper()
	file, err := acl.ParsePermissionFile([]byte(appPermissions), acl.FormatJSON)
	if err != nil {
		t.Fatalf("ParsePermissionFile: %v", err)
	}
	manifest, err := acl.NewManifest(acl.AppManifestKey, file)
	if err != nil {
		t.Fatalf("NewManifest: %v", err)
	}
	manifests, err := acl.Aggregate(manifest)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	a, err := authority.New(manifests, []acl.Capability{{
		Identifier:  "main",
		Local:       true,
		Windows:     []string{"main"},
		Permissions: []acl.PermissionEntry{{Identifier: "greet"}, {Identifier: "files"}, {Identifier: "deny-orphan"}},
	}}, resolve.Options{Platform: acl.PlatformLinux})
	if err != nil {
		t.Fatalf("authority.New: %v", err)
	}
	return a
}

type greetPayload struct {
	Name string `cbor:"name"`
}

type greeting struct {
	Message string `cbor:"message"`
}

func payload(t *testing.T, v any) codec.RawMessage {
	t.Helper()
	data, err := codec.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return data
}

func newTestDispatcher(t *testing.T, logs *bytes.Buffer) *Dispatcher {
	t.Helper()
	var logger *slog.Logger
	if logs != nil {
		logger = slog.New(slog.NewTextHandler(logs, nil))
	}
	dispatcher := NewDispatcher(logger)
	HandleTyped(dispatcher, "greet", func(ctx context.Context, invocation *Invocation, p greetPayload) (any, error) {
		return greeting{Message: "hello " + p.Name + " from " + invocation.Window}, nil
	})
	dispatcher.Handle("read_note", func(ctx context.Context, invocation *Invocation) (any, error) {
		scope, err := authority.CommandScope[struct {
			Path string `json:"path"`
		}](invocation.Authority, invocation.Grant.ScopeKeys()...)
		if err != nil {
			return nil, err
		}
		return []string{scope.Allow[0].Path}, nil
	})
	dispatcher.Handle("secret", func(ctx context.Context, invocation *Invocation) (any, error) {
		t.Error("handler for a denied command ran")
		return nil, nil
	})
	return dispatcher
}

func TestDispatchBeforeAuthority(t *testing.T) {
	dispatcher := newTestDispatcher(t, nil)
	_, err := dispatcher.Dispatch(context.Background(), Request{Command: "greet", Window: "main", Origin: "local"})
	if !errors.Is(err, ErrAuthorityNotReady) {
		t.Fatalf("Dispatch error = %v, want ErrAuthorityNotReady", err)
	}
}

func TestDispatchAllowed(t *testing.T) {
	dispatcher := newTestDispatcher(t, nil)
	dispatcher.SetAuthority(testAuthority(t))

	result, err := dispatcher.Dispatch(context.Background(), Request{
		Command: "greet",
		Window:  "main",
		Origin:  "local",
		Payload: payload(t, map[string]string{"name": "ada"}),
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got := result.(greeting).Message; got != "hello ada from main" {
		t.Errorf("Message = %q", got)
	}
}

func TestDispatchScopedHandler(t *testing.T) {
	dispatcher := newTestDispatcher(t, nil)
	dispatcher.SetAuthority(testAuthority(t))

	result, err := dispatcher.Dispatch(context.Background(), Request{Command: "read_note", Window: "main", Origin: "local"})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if paths := result.([]string); len(paths) != 1 || paths[0] != "/notes" {
		t.Errorf("result = %v, want [/notes]", paths)
	}
}

func TestDispatchDenied(t *testing.T) {
	tests := []struct {
		name    string
		request Request
		reason  string
	}{
		{"explicit denial", Request{Command: "secret", Window: "main", Origin: "local"}, "explicit denial"},
		{"wrong window", Request{Command: "greet", Window: "settings", Origin: "local"}, "window not granted"},
		{"remote origin", Request{Command: "greet", Window: "main", Origin: "https://evil.example"}, "origin not granted"},
		{"no grant", Request{Command: "plugin:fs|read_file", Window: "main", Origin: "local"}, "no matching grant"},
		{"empty origin", Request{Command: "greet", Window: "main"}, "invalid origin"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var logs bytes.Buffer
			dispatcher := newTestDispatcher(t, &logs)
			dispatcher.SetAuthority(testAuthority(t))

			_, err := dispatcher.Dispatch(context.Background(), test.request)
			if !errors.Is(err, ErrNotAllowed) {
				t.Fatalf("Dispatch error = %v, want ErrNotAllowed", err)
			}
			if err.Error() != "command not allowed" {
				t.Errorf("caller-visible error = %q leaks detail", err.Error())
			}
			if !strings.Contains(logs.String(), test.reason) {
				t.Errorf("host log missing %q:\n%s", test.reason, logs.String())
			}
		})
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	dispatcher := newTestDispatcher(t, nil)
	dispatcher.SetAuthority(testAuthority(t))

	_, err := dispatcher.Dispatch(context.Background(), Request{Command: "orphan", Window: "main", Origin: "local"})
	if !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("Dispatch error = %v, want ErrUnknownCommand", err)
	}
}

func TestDispatchBadPayload(t *testing.T) {
	dispatcher := newTestDispatcher(t, nil)
	dispatcher.SetAuthority(testAuthority(t))

	_, err := dispatcher.Dispatch(context.Background(), Request{
		Command: "greet",
		Window:  "main",
		Origin:  "local",
		Payload: payload(t, []int{1, 2, 3}),
	})
	if err == nil {
		t.Fatal("Dispatch accepted a payload of the wrong shape")
	}
}

func TestHandleDuplicatePanics(t *testing.T) {
	dispatcher := NewDispatcher(nil)
	dispatcher.Handle("greet", func(context.Context, *Invocation) (any, error) { return nil, nil })
	defer func() {
		if recover() == nil {
			t.Error("duplicate Handle did not panic")
		}
	}()
	dispatcher.Handle("greet", func(context.Context, *Invocation) (any, error) { return nil, nil })
}
