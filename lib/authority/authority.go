// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/tauri-apps/tauri-sub008/lib/acl"
	"github.com/tauri-apps/tauri-sub008/lib/resolve"
)

// Authority holds the resolved table and answers access checks. It
// supports concurrent checks with serialized runtime registration.
//
// Read operations (IsAllowed, Check, Explain, CommandScope,
// GlobalScope, Table) acquire a read lock only long enough to load the
// current state; the state itself is never modified after it is
// installed. Write operations (AddCapability, AllowCommand) are
// serialized by writeMu, build the next state without holding mu, and
// take the write lock only to swap it in.
type Authority struct {
	mu    sync.RWMutex
	state *state

	writeMu   sync.Mutex
	manifests acl.Manifests
	platform  acl.Platform
	logger    *slog.Logger
}

// state is an immutable snapshot of the table with per-command
// indexes. Scope caches live here so that installing a new state
// discards them.
type state struct {
	table *resolve.Table

	// allowed and denied index the table's entries by command name,
	// preserving table order.
	allowed map[string][]*resolve.Entry
	denied  map[string][]*resolve.Entry

	scopes sync.Map // scopeCacheKey -> any
}

func newState(table *resolve.Table) *state {
	s := &state{
		table:   table,
		allowed: make(map[string][]*resolve.Entry),
		denied:  make(map[string][]*resolve.Entry),
	}
	for i := range table.Allowed {
		entry := &table.Allowed[i]
		s.allowed[entry.Key.Name] = append(s.allowed[entry.Key.Name], entry)
	}
	for i := range table.Denied {
		entry := &table.Denied[i]
		s.denied[entry.Key.Name] = append(s.denied[entry.Key.Name], entry)
	}
	return s
}

// New resolves capabilities against manifests and returns an authority
// over the result. Any configuration error aborts construction: there
// is no partially built authority.
func New(manifests acl.Manifests, capabilities []acl.Capability, options resolve.Options) (*Authority, error) {
	table, err := resolve.Resolve(manifests, capabilities, options)
	if err != nil {
		return nil, err
	}
	authority, err := FromTable(manifests, table)
	if err != nil {
		return nil, err
	}
	if options.Logger != nil {
		authority.logger = options.Logger
	}
	return authority, nil
}

// FromTable returns an authority over a previously resolved table, for
// example one loaded from a snapshot. The table is validated first and
// must not be modified afterwards. Manifests are needed only for
// runtime registration and Explain; nil is allowed.
func FromTable(manifests acl.Manifests, table *resolve.Table) (*Authority, error) {
	if table == nil {
		return nil, fmt.Errorf("authority: nil resolved table")
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Authority{
		state:     newState(table),
		manifests: manifests,
		platform:  table.Platform,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// SetLogger replaces the logger used for runtime registration
// warnings. Nil discards.
func (a *Authority) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	a.logger = logger
}

// current returns the installed state.
func (a *Authority) current() *state {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// install swaps in a new state.
func (a *Authority) install(next *state) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = next
}

// Table returns the current resolved table. The caller must not modify
// it.
func (a *Authority) Table() *resolve.Table {
	return a.current().table
}

// IsAllowed reports whether command may run in window for origin. It
// never fails: a nil authority, an unknown command, and an unknown
// window all answer false.
func (a *Authority) IsAllowed(command, window string, origin acl.Origin) bool {
	return a.Check(command, window, "", origin).Allowed()
}

// Check evaluates command for the caller's window and webview labels
// and origin, returning the decision and the entries that produced it.
// The webview label may be empty when the caller has none.
func (a *Authority) Check(command, window, webview string, origin acl.Origin) Result {
	if a == nil {
		return Result{Decision: Deny, Reason: ReasonNotReady}
	}
	return a.current().evaluate(command, window, webview, origin)
}

// AddCapability resolves capability against the authority's manifests
// and merges it into the running table. The capability goes through
// the same resolver and merge as startup configuration: a command
// denied before stays denied, and a denial added here revokes any
// existing grant for its command and context. Conflicts are logged as
// warnings. On error the authority is unchanged.
func (a *Authority) AddCapability(capability acl.Capability) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	addition, err := resolve.Resolve(a.manifests, []acl.Capability{capability}, resolve.Options{
		Platform: a.platform,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}
	a.merge(addition, "capability", capability.Identifier)
	return nil
}

// AllowCommand grants command on every window and webview under
// context. It is the narrow post-hoc grant the host uses for commands
// it registers itself. A command already denied under context stays
// denied.
func (a *Authority) AllowCommand(command string, context acl.ExecutionContext) error {
	if command == "" {
		return fmt.Errorf("authority: empty command name")
	}
	if err := context.Validate(); err != nil {
		return fmt.Errorf("authority: allowing %s: %w", command, err)
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	allowed, denied := resolve.Merge([]resolve.Grant{{
		Key: resolve.CommandKey{Name: command, Context: context},
		Command: resolve.Command{
			Windows:  []string{"*"},
			Webviews: []string{"*"},
		},
	}})
	addition := &resolve.Table{Platform: a.platform, Allowed: allowed, Denied: denied}
	a.merge(addition, "command", command)
	return nil
}

// merge combines addition into the current table and installs the
// result. The caller holds writeMu, so the current state cannot change
// underneath.
func (a *Authority) merge(addition *resolve.Table, kind, name string) {
	base := a.current().table
	for _, entry := range addition.Allowed {
		if _, denied := base.Lookup(entry.Key); denied != nil {
			a.logger.Warn("runtime grant overridden by existing denial",
				kind, name,
				"command", entry.Key.Name,
				"context", entry.Key.Context.String(),
			)
		}
	}
	for _, entry := range addition.Denied {
		if allowed, _ := base.Lookup(entry.Key); allowed != nil {
			a.logger.Warn("runtime denial revokes existing grant",
				kind, name,
				"command", entry.Key.Name,
				"context", entry.Key.Context.String(),
			)
		}
	}

	a.install(newState(resolve.Combine(base, addition)))
}
