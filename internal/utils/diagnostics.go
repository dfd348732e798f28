package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// DiagnosticLevel represents the level of diagnostic output
type DiagnosticLevel int

const (
	DiagnosticSilent DiagnosticLevel = iota
	DiagnosticError
	DiagnosticWarn
	DiagnosticInfo
	DiagnosticVerbose
	DiagnosticDebug
)

// Stat is one labelled line of a Summary
type Stat struct {
	Label string
	Value any
}

// DiagnosticSystem provides structured, user-friendly console output
type DiagnosticSystem struct {
	level     DiagnosticLevel
	useColors bool
	showTime  bool
	output    io.Writer
	errorOut  io.Writer
}

// NewDiagnosticSystem creates a diagnostic system writing to stdout and stderr
func NewDiagnosticSystem(level DiagnosticLevel) *DiagnosticSystem {
	return &DiagnosticSystem{
		level:     level,
		useColors: !color.NoColor,
		showTime:  level >= DiagnosticVerbose,
		output:    os.Stdout,
		errorOut:  os.Stderr,
	}
}

// NewQuietDiagnostics creates a diagnostic system that only shows errors
func NewQuietDiagnostics() *DiagnosticSystem {
	return NewDiagnosticSystem(DiagnosticError)
}

// NewVerboseDiagnostics creates a diagnostic system with full output
func NewVerboseDiagnostics() *DiagnosticSystem {
	return NewDiagnosticSystem(DiagnosticVerbose)
}

// WithWriters redirects output, disabling colors and timestamps. Tests use it
// to capture what the CLI prints.
func (d *DiagnosticSystem) WithWriters(out, errOut io.Writer) *DiagnosticSystem {
	d.output = out
	d.errorOut = errOut
	d.useColors = false
	d.showTime = false
	return d
}

// Level returns the configured level
func (d *DiagnosticSystem) Level() DiagnosticLevel {
	return d.level
}

func (d *DiagnosticSystem) Error(format string, args ...any) {
	if d.level >= DiagnosticError {
		d.writeMessage(d.errorOut, "ERROR", color.FgRed, format, args...)
	}
}

func (d *DiagnosticSystem) Warn(format string, args ...any) {
	if d.level >= DiagnosticWarn {
		d.writeMessage(d.output, "WARN", color.FgYellow, format, args...)
	}
}

func (d *DiagnosticSystem) Info(format string, args ...any) {
	if d.level >= DiagnosticInfo {
		d.writeMessage(d.output, "INFO", color.FgBlue, format, args...)
	}
}

// Success outputs success messages with emphasis
func (d *DiagnosticSystem) Success(format string, args ...any) {
	if d.level >= DiagnosticInfo {
		d.writeMessage(d.output, "SUCCESS", color.FgGreen, format, args...)
	}
}

// Verbose outputs detailed messages (verbose mode only)
func (d *DiagnosticSystem) Verbose(format string, args ...any) {
	if d.level >= DiagnosticVerbose {
		d.writeMessage(d.output, "VERBOSE", color.FgHiBlack, format, args...)
	}
}

func (d *DiagnosticSystem) Debug(format string, args ...any) {
	if d.level >= DiagnosticDebug {
		d.writeMessage(d.output, "DEBUG", color.FgMagenta, format, args...)
	}
}

// Suggest prints a fix hint under the previous error
func (d *DiagnosticSystem) Suggest(format string, args ...any) {
	if d.level >= DiagnosticError {
		fmt.Fprintf(d.errorOut, "  hint: %s\n", fmt.Sprintf(format, args...))
	}
}

// Header outputs the tool banner
func (d *DiagnosticSystem) Header(message string) {
	if d.level >= DiagnosticInfo {
		fmt.Fprintln(d.output, d.paint(color.FgCyan, "Castor: "+message))
	}
}

// Section creates a section header
func (d *DiagnosticSystem) Section(title string) {
	if d.level >= DiagnosticInfo {
		fmt.Fprintf(d.output, "\n%s:\n", d.paint(color.FgBlue, title))
	}
}

// List outputs a bulleted list item
func (d *DiagnosticSystem) List(format string, args ...any) {
	if d.level >= DiagnosticInfo {
		fmt.Fprintf(d.output, "- %s\n", fmt.Sprintf(format, args...))
	}
}

// Item outputs a completed step with a checkmark
func (d *DiagnosticSystem) Item(format string, args ...any) {
	if d.level >= DiagnosticInfo {
		fmt.Fprintf(d.output, "%s %s\n", d.paint(color.FgGreen, "✓"), fmt.Sprintf(format, args...))
	}
}

// Summary outputs a final summary with statistics in the given order
func (d *DiagnosticSystem) Summary(title string, stats []Stat) {
	if d.level < DiagnosticInfo {
		return
	}
	fmt.Fprintf(d.output, "\n%s\n", title)
	for _, s := range stats {
		fmt.Fprintf(d.output, "   %s: %v\n", s.Label, s.Value)
	}
	fmt.Fprintln(d.output)
}

func (d *DiagnosticSystem) writeMessage(w io.Writer, level string, attr color.Attribute, format string, args ...any) {
	var b strings.Builder
	if d.showTime {
		b.WriteString(time.Now().Format("15:04:05 "))
	}
	b.WriteString(d.paint(attr, "["+level+"]"))
	b.WriteByte(' ')
	b.WriteString(fmt.Sprintf(format, args...))
	b.WriteByte('\n')
	fmt.Fprint(w, b.String())
}

func (d *DiagnosticSystem) paint(attr color.Attribute, s string) string {
	if !d.useColors {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}
