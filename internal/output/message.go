package output

import (
	"fmt"
	"io"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

// Printer writes one-line status messages.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter returns a printer writing to w, with ANSI color when color is set.
func NewPrinter(w io.Writer, color bool) *Printer {
	return &Printer{w: w, color: color}
}

// Infof prints an informational message.
func (p *Printer) Infof(format string, args ...any) {
	p.line("ℹ️  ", ansiCyan, format, args...)
}

// Warnf prints a warning.
func (p *Printer) Warnf(format string, args ...any) {
	p.line("⚠️  ", ansiYellow, format, args...)
}

// Successf prints a success message.
func (p *Printer) Successf(format string, args ...any) {
	p.line("✅ ", ansiGreen, format, args...)
}

func (p *Printer) line(prefix, color, format string, args ...any) {
	if p == nil || p.w == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if p.color {
		msg = color + msg + ansiReset
	}
	_, _ = fmt.Fprintln(p.w, prefix+msg)
}
