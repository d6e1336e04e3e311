package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	skipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// OK prints a success line.
func OK(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, okStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

func Warn(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, warnStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

func Fail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, failStyle.Render("❌ "+fmt.Sprintf(format, args...)))
}

func Skip(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, skipStyle.Render("⊘ "+fmt.Sprintf(format, args...)))
}

func Header(w io.Writer, text string) {
	fmt.Fprintln(w, headerStyle.Render(text))
}

// NewTable returns a bordered table with a bold header row.
func NewTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Inherit(cellStyle)
			}
			return cellStyle
		})
}
