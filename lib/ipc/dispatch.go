// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tauri-apps/tauri-sub008/lib/acl"
	"github.com/tauri-apps/tauri-sub008/lib/authority"
	"github.com/tauri-apps/tauri-sub008/lib/codec"
)

var (
	// ErrAuthorityNotReady is returned for every invocation that
	// arrives before SetAuthority.
	ErrAuthorityNotReady = errors.New("authority not ready")

	// ErrNotAllowed is the only thing a denied caller learns.
	ErrNotAllowed = errors.New("command not allowed")

	// ErrUnknownCommand is returned for an allowed command that has no
	// handler.
	ErrUnknownCommand = errors.New("unknown command")
)

// Invocation is an authorized call, as seen by a handler.
type Invocation struct {
	Command string
	Window  string
	Webview string
	Origin  acl.Origin
	Payload codec.RawMessage

	// Authority is the authority that allowed the call and Grant its
	// decision. Handlers pass both to authority.CommandScope to read
	// the scopes attached to the grant.
	Authority *authority.Authority
	Grant     authority.Result
}

// Decode unmarshals the payload into v. An empty payload leaves v
// unchanged.
func (i *Invocation) Decode(v any) error {
	if len(i.Payload) == 0 {
		return nil
	}
	if err := codec.Unmarshal(i.Payload, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", i.Command, err)
	}
	return nil
}

// HandlerFunc processes one authorized invocation. A nil result yields
// {ok: true}; otherwise the result is encoded into the response's data
// field.
type HandlerFunc func(ctx context.Context, invocation *Invocation) (any, error)

// Dispatcher routes invocations to handlers after checking them
// against the installed authority.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	authority atomic.Pointer[authority.Authority]
	logger    *slog.Logger
}

// NewDispatcher returns a dispatcher with no handlers and no authority.
// Nil logger discards.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// Handle registers handler for a qualified command name. Panics if the
// command is already registered.
func (d *Dispatcher) Handle(command string, handler HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.handlers[command]; exists {
		panic(fmt.Sprintf("ipc.Dispatcher: duplicate handler for command %q", command))
	}
	d.handlers[command] = handler
}

// HandleTyped registers a handler whose payload is decoded into P
// before it runs. A payload that does not decode is rejected without
// calling the handler.
func HandleTyped[P any](d *Dispatcher, command string, handler func(ctx context.Context, invocation *Invocation, payload P) (any, error)) {
	d.Handle(command, func(ctx context.Context, invocation *Invocation) (any, error) {
		var payload P
		if err := invocation.Decode(&payload); err != nil {
			return nil, err
		}
		return handler(ctx, invocation, payload)
	})
}

// SetAuthority installs the authority. Invocations are refused until
// the first call.
func (d *Dispatcher) SetAuthority(a *authority.Authority) {
	d.authority.Store(a)
}

// Authority returns the installed authority, or nil.
func (d *Dispatcher) Authority() *authority.Authority {
	return d.authority.Load()
}

// Dispatch authorizes request and runs its handler. The returned error
// is safe to show to the caller: denials collapse to ErrNotAllowed.
func (d *Dispatcher) Dispatch(ctx context.Context, request Request) (any, error) {
	current := d.authority.Load()
	if current == nil {
		d.logger.Warn("invocation refused before authority was installed", "command", request.Command)
		return nil, ErrAuthorityNotReady
	}

	origin, err := acl.ParseOrigin(request.Origin)
	if err != nil {
		d.logger.Warn("invocation with invalid origin",
			"command", request.Command,
			"window", request.Window,
			"error", err,
		)
		return nil, ErrNotAllowed
	}

	result := current.Check(request.Command, request.Window, request.Webview, origin)
	if !result.Allowed() {
		d.logger.Warn("command denied",
			"command", request.Command,
			"window", request.Window,
			"webview", request.Webview,
			"origin", origin.String(),
			"reason", result.Reason.String(),
			"detail", current.Explain(request.Command, request.Window, request.Webview, origin),
		)
		return nil, ErrNotAllowed
	}

	d.mu.RLock()
	handler, exists := d.handlers[request.Command]
	d.mu.RUnlock()
	if !exists {
		return nil, ErrUnknownCommand
	}

	return handler(ctx, &Invocation{
		Command:   request.Command,
		Window:    request.Window,
		Webview:   request.Webview,
		Origin:    origin,
		Payload:   request.Payload,
		Authority: current,
		Grant:     result,
	})
}
