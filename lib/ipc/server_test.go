// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tauri-apps/tauri-sub008/lib/codec"
	"github.com/tauri-apps/tauri-sub008/lib/testutil"
)

// startServer runs a server for the test's lifetime and returns its
// socket path.
func startServer(t *testing.T, dispatcher *Dispatcher) string {
	t.Helper()
	socketPath := filepath.Join(testutil.SocketDir(t), "ipc.sock")
	server := NewServer(socketPath, dispatcher, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var wait sync.WaitGroup
	wait.Add(1)
	go func() {
		defer wait.Done()
		if err := server.Serve(ctx); err != nil {
			t.Errorf("Serve: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		wait.Wait()
	})

	testutil.RequireClosed(t, server.Ready(), 5*time.Second, "server ready")
	return socketPath
}

func TestServerInvoke(t *testing.T) {
	dispatcher := newTestDispatcher(t, nil)
	dispatcher.SetAuthority(testAuthority(t))
	client := NewClient(startServer(t, dispatcher))

	var result greeting
	err := client.Invoke(context.Background(), Request{
		Command: "greet",
		Window:  "main",
		Origin:  "local",
		Payload: payload(t, greetPayload{Name: "ada"}),
	}, &result)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result.Message != "hello ada from main" {
		t.Errorf("Message = %q", result.Message)
	}
}

func TestServerDenied(t *testing.T) {
	dispatcher := newTestDispatcher(t, nil)
	dispatcher.SetAuthority(testAuthority(t))
	client := NewClient(startServer(t, dispatcher))

	err := client.Invoke(context.Background(), Request{Command: "secret", Window: "main", Origin: "local"}, nil)
	var invokeError *InvokeError
	if !errors.As(err, &invokeError) {
		t.Fatalf("Invoke error = %v, want *InvokeError", err)
	}
	if invokeError.Message != ErrNotAllowed.Error() {
		t.Errorf("Message = %q, want %q", invokeError.Message, ErrNotAllowed.Error())
	}
}

func TestServerNotReady(t *testing.T) {
	client := NewClient(startServer(t, newTestDispatcher(t, nil)))

	err := client.Invoke(context.Background(), Request{Command: "greet", Window: "main", Origin: "local"}, nil)
	var invokeError *InvokeError
	if !errors.As(err, &invokeError) || invokeError.Message != ErrAuthorityNotReady.Error() {
		t.Fatalf("Invoke error = %v, want %q", err, ErrAuthorityNotReady)
	}
}

func TestServerMissingCommand(t *testing.T) {
	dispatcher := newTestDispatcher(t, nil)
	dispatcher.SetAuthority(testAuthority(t))
	socketPath := startServer(t, dispatcher)

	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer conn.Close()
	if err := codec.NewEncoder(conn).Encode(map[string]string{"window": "main"}); err != nil {
		t.Fatalf("writing request: %v", err)
	}
	var response Response
	if err := codec.NewDecoder(conn).Decode(&response); err != nil {
		t.Fatalf("reading response: %v", err)
	}
	if response.OK || response.Error != "missing required field: cmd" {
		t.Errorf("response = %+v", response)
	}
}
