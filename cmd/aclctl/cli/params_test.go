// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestBindFlags(t *testing.T) {
	type params struct {
		JSONOutput
		Window   string        `flag:"window,w" desc:"window label" default:"main"`
		Verbose  bool          `flag:"verbose" desc:"verbose output"`
		Count    int           `flag:"count" desc:"count" default:"5"`
		Timeout  time.Duration `flag:"timeout" desc:"timeout" default:"10s"`
		Windows  []string      `flag:"windows" desc:"known windows"`
		Untagged string
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if p.Window != "main" || p.Count != 5 || p.Timeout != 10*time.Second {
		t.Errorf("defaults not applied: %+v", p)
	}

	err := flagSet.Parse([]string{"-w", "settings", "--verbose", "--json", "--windows", "a,b", "--timeout", "1m"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Window != "settings" || !p.Verbose || !p.OutputJSON || p.Timeout != time.Minute {
		t.Errorf("parsed params = %+v", p)
	}
	if len(p.Windows) != 2 || p.Windows[0] != "a" || p.Windows[1] != "b" {
		t.Errorf("Windows = %v", p.Windows)
	}
}

func TestBindFlagsErrors(t *testing.T) {
	type unsupported struct {
		Ratio float32 `flag:"ratio"`
	}
	type badDefault struct {
		Count int `flag:"count" default:"many"`
	}

	tests := []struct {
		name   string
		params any
		want   string
	}{
		{"not a pointer", struct{}{}, "pointer to a struct"},
		{"unsupported type", &unsupported{}, "unsupported type"},
		{"bad default", &badDefault{}, "default for --count"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := BindFlags(test.params, pflag.NewFlagSet("test", pflag.ContinueOnError))
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("BindFlags error = %v, want containing %q", err, test.want)
			}
		})
	}
}

func TestEmitJSON(t *testing.T) {
	var buffer bytes.Buffer
	previous := Stdout
	Stdout = &buffer
	t.Cleanup(func() { Stdout = previous })

	output := JSONOutput{}
	if done, _ := output.EmitJSON([]string{"x"}); done {
		t.Fatal("EmitJSON without --json reported done")
	}

	output.OutputJSON = true
	var empty []string
	done, err := output.EmitJSON(empty)
	if !done || err != nil {
		t.Fatalf("EmitJSON = %v, %v", done, err)
	}
	if got := strings.TrimSpace(buffer.String()); got != "[]" {
		t.Errorf("nil slice encoded as %q, want []", got)
	}
}

func TestTablePadsRows(t *testing.T) {
	rendered := Table([]string{"command", "context", "windows"}, [][]string{{"greet", "local"}})
	for _, want := range []string{"command", "greet", "local"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("table missing %q:\n%s", want, rendered)
		}
	}
}
