// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Styles for human-readable output. lipgloss drops the colors when
// stdout is not a terminal.
var (
	AllowStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	DenyStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	HeaderStyle = lipgloss.NewStyle().Bold(true)
	MutedStyle  = lipgloss.NewStyle().Faint(true)
)

// Verdict renders "allowed" or "denied" in the matching style.
func Verdict(allowed bool) string {
	if allowed {
		return AllowStyle.Render("allowed")
	}
	return DenyStyle.Render("denied")
}

// Table renders rows under headers with a rounded border. Rows shorter
// than headers are padded with empty cells.
func Table(headers []string, rows [][]string) string {
	padded := make([][]string, len(rows))
	for i, row := range rows {
		padded[i] = make([]string, max(len(row), len(headers)))
		copy(padded[i], row)
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(MutedStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(padded...).
		String()
}
