// Package benchmark times repeated sections of a test body and checks them
// against a duration budget.
package benchmark

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/optimism/op-service/clock"

	"github.com/fossillogic/fossil-test/assert"
)

// Clock is the subset of clock.Clock a Mark needs
type Clock interface {
	Now() time.Time
}

// Mark accumulates timing samples. A sample is the time between Start and
// the following Stop. It is safe for concurrent use.
type Mark struct {
	name  string
	clock Clock

	mu      sync.Mutex
	running bool
	started time.Time
	samples int
	total   time.Duration
	min     time.Duration
	max     time.Duration
}

type Option func(*Mark)

// WithClock replaces the system clock, mostly for tests
func WithClock(c Clock) Option {
	return func(m *Mark) {
		m.clock = c
	}
}

func New(name string, opts ...Option) *Mark {
	m := &Mark{name: name, clock: clock.SystemClock}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Mark) Name() string {
	return m.name
}

// Start begins a sample. It does nothing when a sample is already running.
func (m *Mark) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.started = m.clock.Now()
	m.running = true
}

// Stop ends the running sample and returns its duration. Without a running
// sample it returns zero and records nothing.
func (m *Mark) Stop() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return 0
	}
	elapsed := m.clock.Now().Sub(m.started)
	m.running = false

	if m.samples == 0 || elapsed < m.min {
		m.min = elapsed
	}
	if elapsed > m.max {
		m.max = elapsed
	}
	m.total += elapsed
	m.samples++
	return elapsed
}

// Scope starts a sample and returns the function that stops it:
//
//	defer mark.Scope()()
func (m *Mark) Scope() func() {
	m.Start()
	return func() { m.Stop() }
}

// Measure records one sample around fn and returns its duration
func (m *Mark) Measure(fn func()) time.Duration {
	m.Start()
	fn()
	return m.Stop()
}

// Reset drops all samples. A running sample keeps running.
func (m *Mark) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = 0
	m.total, m.min, m.max = 0, 0, 0
}

// Stats is a snapshot of the recorded samples
type Stats struct {
	Name    string
	Samples int
	Total   time.Duration
	Min     time.Duration
	Max     time.Duration
	Mean    time.Duration
}

func (m *Mark) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Stats{
		Name:    m.name,
		Samples: m.samples,
		Total:   m.total,
		Min:     m.min,
		Max:     m.max,
	}
	if m.samples > 0 {
		s.Mean = m.total / time.Duration(m.samples)
	}
	return s
}

// Report writes the statistics of the given marks as a table
func Report(w io.Writer, color bool, marks ...*Mark) error {
	tw := table.NewWriter()
	tw.SetTitle("Benchmarks")
	tw.AppendHeader(table.Row{"Name", "Samples", "Total", "Min", "Max", "Mean"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Samples", Align: text.AlignRight},
		{Name: "Total", Align: text.AlignRight},
		{Name: "Min", Align: text.AlignRight},
		{Name: "Max", Align: text.AlignRight},
		{Name: "Mean", Align: text.AlignRight},
	})
	tw.SetStyle(table.StyleLight)
	if color {
		tw.SetStyle(table.StyleColoredCyanWhiteOnBlack)
	}
	for _, m := range marks {
		s := m.Stats()
		tw.AppendRow(table.Row{s.Name, s.Samples, s.Total, s.Min, s.Max, s.Mean})
	}
	_, err := io.WriteString(w, tw.Render()+"\n")
	return err
}

// Within fails the case through the assumption family when elapsed exceeds
// budget. The failure is reported at the caller.
func Within(t *assert.T, elapsed, budget time.Duration) {
	t.Check(assert.ClassAssume, elapsed <= budget, 0, "benchmark took %s, budget %s", elapsed, budget)
}

// WithinUnit is Within with the budget given as an amount of a named unit,
// for example WithinUnit(t, elapsed, "milliseconds", 250).
func WithinUnit(t *assert.T, elapsed time.Duration, unit string, amount float64) {
	u, err := ParseUnit(unit)
	if err != nil {
		t.Check(assert.ClassAssume, false, 0, "%v", err)
	}
	t.Check(assert.ClassAssume, elapsed <= time.Duration(amount*float64(u)), 0,
		"benchmark took %s, budget %g %s", elapsed, amount, unit)
}

var units = map[string]time.Duration{
	"minutes":      time.Minute,
	"seconds":      time.Second,
	"milliseconds": time.Millisecond,
	"microseconds": time.Microsecond,
	"nanoseconds":  time.Nanosecond,
}

// ParseUnit returns the length of a named duration unit. Units below a
// nanosecond cannot be measured and are rejected.
func ParseUnit(name string) (time.Duration, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "picoseconds", "femtoseconds", "attoseconds", "zeptoseconds", "yoctoseconds":
		return 0, fmt.Errorf("unit %q is below clock resolution", name)
	default:
		if u, ok := units[n]; ok {
			return u, nil
		}
	}
	return 0, fmt.Errorf("unknown duration unit %q", name)
}
