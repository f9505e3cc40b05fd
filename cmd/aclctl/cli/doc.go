// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for aclctl.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a parameter struct bound to a
// [pflag.FlagSet], and a Run function. Commands are assembled into a tree
// by the commands package and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and structured help output
// with examples.
//
// Parameter structs declare flags with struct tags (see [BindFlags]).
// Embedding [JSONOutput] adds --json. Commands whose outcome is a verdict
// rather than an error (aclctl check reporting a denial) return an
// [ExitError] after printing their own output.
//
// When a user types an unknown subcommand or flag, the framework computes
// Levenshtein edit distance against all known names and suggests the
// closest match (threshold: distance <= 3).
//
// Human-readable tables are rendered with lipgloss (see style.go); they
// degrade to plain text when stdout is not a terminal.
package cli
