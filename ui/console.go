package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"

	"github.com/fossillogic/fossil-test/assert"
	"github.com/fossillogic/fossil-test/types"
)

const (
	DryRunNotice        = "Dry run mode enabled. No tests will be executed."
	DryRunSummaryNotice = "Dry run mode enabled. No tests were executed or evaluated."
)

var (
	colorPass    = text.Colors{text.FgGreen}
	colorFail    = text.Colors{text.FgRed}
	colorTimeout = text.Colors{text.FgHiYellow}
	colorName    = text.Colors{text.FgBlue}
	colorNotice  = text.Colors{text.FgMagenta}
	colorInfo    = text.Colors{text.FgCyan}
	colorWarn    = text.Colors{text.FgYellow}
)

// Console prints the live status lines of a run. It is safe for concurrent
// use.
//
// Failure, timeout and assertion lines are printed unless quiet. Suite
// lines and the PASS, SKIP and EMPTY lines additionally need showInfo.
// Notices are always printed.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	color    bool
	showInfo bool
	quiet    bool
}

// NewConsole creates a console writing to out. In ColorAuto mode color is
// enabled only when out is a terminal.
func NewConsole(out io.Writer, mode types.ColorMode, showInfo, quiet bool) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{
		out:      out,
		color:    ResolveColor(mode, out),
		showInfo: showInfo,
		quiet:    quiet,
	}
}

// NewConsoleFromOptions creates a console honoring the color, info and
// quiet options
func NewConsoleFromOptions(out io.Writer, opts types.Options) *Console {
	return NewConsole(out, opts.Color, opts.ShowInfo, opts.Quiet)
}

// ResolveColor decides whether output to w should be colored
func ResolveColor(mode types.ColorMode, w io.Writer) bool {
	switch mode {
	case types.ColorOn:
		return true
	case types.ColorOff:
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Colored reports whether the console emits ANSI colors
func (c *Console) Colored() bool {
	return c.color
}

func (c *Console) paint(colors text.Colors, s string) string {
	if !c.color {
		return s
	}
	return colors.Sprint(s)
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

// Notice prints a line regardless of quiet mode
func (c *Console) Notice(msg string) {
	c.println(c.paint(colorNotice, msg))
}

func (c *Console) verbose() bool {
	return c.showInfo && !c.quiet
}

// Info prints a line when info output is enabled and not quiet
func (c *Console) Info(format string, args ...any) {
	if !c.verbose() {
		return
	}
	c.println(c.paint(colorInfo, fmt.Sprintf(format, args...)))
}

func (c *Console) SuiteStarted(name string) {
	if !c.verbose() {
		return
	}
	c.println(c.paint(colorName, "Running suite: "+name))
}

func (c *Console) SuiteFinished(s *types.Suite) {
	c.Info("Total execution time for suite %s: %.3f seconds", s.Name, s.TotalExecutionTime.Seconds())
}

// AssertionFailed reports a failing assertion, or a repeat of the previous
// one when duplicate is set.
func (c *Console) AssertionFailed(f *assert.Failure, duplicate bool, anomalies int) {
	if c.quiet {
		return
	}
	if duplicate {
		c.println(c.paint(colorWarn, fmt.Sprintf(
			"Duplicate or similar assertion detected: %s (%s) [Anomaly Count: %d]", f.Message, f.Location(), anomalies)))
		return
	}
	c.println(c.paint(colorFail, fmt.Sprintf("Assertion failed: %s (%s)", f.Message, f.Location())))
}

// CaseFinished prints the status line of a case
func (c *Console) CaseFinished(tc *types.Case) {
	if c.quiet {
		return
	}
	name := c.paint(colorName, tc.Name)
	switch tc.Status {
	case types.StatusFail:
		c.println(c.paint(colorFail, "FAILED: ") + name)
		c.println(c.paint(colorFail, "Failure Message: "+tc.FailureMessage))
	case types.StatusTimeout:
		c.println(c.paint(colorTimeout, "TIMEOUT: ") + name)
	case types.StatusPass:
		if c.showInfo {
			c.println(fmt.Sprintf("%s%s (%.3f seconds)", c.paint(colorPass, "PASSED: "), name, tc.ExecutionTime.Seconds()))
		}
	case types.StatusSkip:
		if c.showInfo {
			c.println(c.paint(colorWarn, "SKIPPED: ") + name)
		}
	case types.StatusEmpty:
		if c.showInfo {
			c.println(c.paint(colorWarn, "EMPTY: ") + name)
		}
	}
}
