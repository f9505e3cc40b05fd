// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTree(calls *[]string) *Command {
	type greetParams struct {
		Name  string `flag:"name,n" desc:"who to greet" default:"world"`
		Times int    `flag:"times" desc:"repetitions" default:"1"`
	}
	var params greetParams
	return &Command{
		Name: "aclctl",
		Subcommands: []*Command{
			{
				Name:   "greet",
				Params: func() any { return &params },
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					*calls = append(*calls, strings.Repeat(params.Name, params.Times))
					*calls = append(*calls, args...)
					return nil
				},
			},
			{
				Name: "fail",
				Run: func(context.Context, []string, *slog.Logger) error {
					return &ExitError{Code: 3}
				},
			},
		},
	}
}

func TestExecuteDispatch(t *testing.T) {
	var calls []string
	root := testTree(&calls)

	if err := root.ExecuteContext(context.Background(), []string{"greet", "--name", "ab", "--times", "2", "extra"}, discardLogger()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(calls) != 2 || calls[0] != "abab" || calls[1] != "extra" {
		t.Errorf("calls = %v", calls)
	}
}

func TestExecuteDefaults(t *testing.T) {
	var calls []string
	root := testTree(&calls)

	if err := root.ExecuteContext(context.Background(), []string{"greet"}, discardLogger()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(calls) != 1 || calls[0] != "world" {
		t.Errorf("calls = %v", calls)
	}
}

func TestExecuteUnknownCommandSuggests(t *testing.T) {
	var calls []string
	err := testTree(&calls).ExecuteContext(context.Background(), []string{"gret"}, discardLogger())
	if err == nil || !strings.Contains(err.Error(), `did you mean "greet"`) {
		t.Errorf("error = %v, want suggestion", err)
	}
}

func TestExecuteUnknownFlagSuggests(t *testing.T) {
	var calls []string
	err := testTree(&calls).ExecuteContext(context.Background(), []string{"greet", "--nam", "x"}, discardLogger())
	if err == nil || !strings.Contains(err.Error(), "did you mean --name") {
		t.Errorf("error = %v, want flag suggestion", err)
	}
}

func TestExecuteExitError(t *testing.T) {
	var calls []string
	err := testTree(&calls).ExecuteContext(context.Background(), []string{"fail"}, discardLogger())
	var coder interface{ ExitCode() int }
	if !errors.As(err, &coder) || coder.ExitCode() != 3 {
		t.Errorf("error = %v, want exit code 3", err)
	}
}

func TestExecuteLoggerScopedToCommand(t *testing.T) {
	var buffer bytes.Buffer
	root := &Command{
		Name: "aclctl",
		Subcommands: []*Command{{
			Name: "resolve",
			Run: func(_ context.Context, _ []string, logger *slog.Logger) error {
				logger.Info("resolved")
				return nil
			},
		}},
	}
	logger := slog.New(slog.NewTextHandler(&buffer, nil))
	if err := root.ExecuteContext(context.Background(), []string{"resolve"}, logger); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(buffer.String(), "command=resolve") {
		t.Errorf("log = %q, want command=resolve", buffer.String())
	}
}

func TestPrintHelp(t *testing.T) {
	var calls []string
	root := testTree(&calls)
	greet := root.Subcommands[0]
	greet.parent = root
	greet.Examples = []Example{{Description: "Greet twice", Command: "aclctl greet --times 2"}}

	var buffer bytes.Buffer
	greet.PrintHelp(&buffer)
	help := buffer.String()
	for _, want := range []string{"aclctl greet [flags]", "--name", "who to greet", "# Greet twice"} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"resolve", "resolve", 0},
		{"resovle", "resolve", 2},
		{"chek", "check", 1},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for name, want := range tests {
		if got := parseLevel(name); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", name, got, want)
		}
	}
}
