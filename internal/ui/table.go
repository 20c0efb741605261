package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Table renders aligned rows without borders. The first column can carry
// its own style; cells are plain text otherwise.
type Table struct {
	display    *DisplayContext
	headers    []string
	rows       [][]string
	firstStyle lipgloss.Style
}

// NewTable creates a table with the given column headers. Pass no headers
// for a headerless list.
func NewTable(display *DisplayContext, headers ...string) *Table {
	if display == nil {
		display = NewDisplayContext()
	}
	return &Table{display: display, headers: headers}
}

// StyleFirstColumn applies style to every cell of the first column.
func (t *Table) StyleFirstColumn(style lipgloss.Style) *Table {
	t.firstStyle = style
	return t
}

// AddRow adds a row. Missing cells render empty; extra cells are dropped
// when headers were given.
func (t *Table) AddRow(cells ...string) {
	if n := len(t.headers); n > 0 {
		row := make([]string, n)
		copy(row, cells)
		cells = row
	}
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows added.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render returns the table, or "" when it has no rows. Long cells are
// truncated to fit the terminal width.
func (t *Table) Render() string {
	if len(t.rows) == 0 {
		return ""
	}
	maxCell := t.display.AvailableWidth(4)

	rows := make([][]string, len(t.rows))
	for i, row := range t.rows {
		out := make([]string, len(row))
		for j, cell := range row {
			out[j] = TruncateWithEllipsis(cell, maxCell)
		}
		rows[i] = out
	}

	tbl := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().PaddingRight(2)
			switch {
			case row == table.HeaderRow:
				style = style.Inherit(Muted)
			case col == 0:
				style = style.Inherit(t.firstStyle)
			}
			return style
		}).
		Rows(rows...)
	if len(t.headers) > 0 {
		tbl = tbl.Headers(t.headers...)
	}
	return strings.TrimRight(tbl.Render(), "\n") + "\n"
}

// TruncateWithEllipsis truncates a string to maxLen, adding ellipsis if needed.
// It tries to break at word boundaries.
func TruncateWithEllipsis(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}

	truncated := s[:maxLen-3]
	lastSpace := strings.LastIndex(truncated, " ")
	if lastSpace > maxLen/2 {
		truncated = truncated[:lastSpace]
	}
	return truncated + "..."
}
