// Package display renders results and notices for the terminal.
package display

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes styled output to a terminal or plain writer. Colors are
// dropped automatically when w is not a terminal.
type Printer struct {
	out io.Writer
	s   styles
}

type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	dim     lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	box     lipgloss.Style
}

// NewPrinter creates a printer for w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		out: w,
		s: styles{
			title: r.NewStyle().
				Foreground(lipgloss.Color("34")).
				Bold(true),
			label: r.NewStyle().
				Foreground(lipgloss.Color("245")),
			value: r.NewStyle().
				Foreground(lipgloss.Color("231")).
				Bold(true),
			dim: r.NewStyle().
				Foreground(lipgloss.Color("245")),
			success: r.NewStyle().
				Foreground(lipgloss.Color("46")).
				Bold(true),
			warning: r.NewStyle().
				Foreground(lipgloss.Color("226")).
				Bold(true),
			failure: r.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true),
			box: r.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("28")).
				Padding(0, 2),
		},
	}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, args ...interface{}) {
	fmt.Fprintln(p.out, p.s.success.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Info prints a neutral line.
func (p *Printer) Info(format string, args ...interface{}) {
	fmt.Fprintln(p.out, p.s.dim.Render(fmt.Sprintf(format, args...)))
}

// Warn prints a warning line.
func (p *Printer) Warn(format string, args ...interface{}) {
	fmt.Fprintln(p.out, p.s.warning.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Error prints the user-facing notice for err.
func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(p.out, p.s.failure.Render("✗ "+Notice(err)))
}

func (p *Printer) row(label, value string) string {
	return p.s.label.Render(fmt.Sprintf("%-14s", label)) + " " + p.s.value.Render(value)
}
