package types

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Counters aggregates case outcomes for a run
type Counters struct {
	Pass       int `json:"pass"`
	Fail       int `json:"fail"`
	Skip       int `json:"skip"`
	Empty      int `json:"empty"`
	Timeout    int `json:"timeout"`
	Unexpected int `json:"unexpected"`
	Total      int `json:"total"`
}

// Record increments the counter matching s and the total. Statuses that
// are not terminal are counted as unexpected.
func (c *Counters) Record(s Status) {
	switch s {
	case StatusPass:
		c.Pass++
	case StatusFail:
		c.Fail++
	case StatusSkip:
		c.Skip++
	case StatusEmpty:
		c.Empty++
	case StatusTimeout:
		c.Timeout++
	default:
		c.Unexpected++
	}
	c.Total++
}

// Environment is the root of a test program: the options, the registered
// suites and the counters accumulated across runs.
type Environment struct {
	Options   Options
	Counters  Counters
	StartTime time.Time
	EndTime   time.Time
	RunID     string

	suites []*Suite
}

func NewEnvironment(opts Options) *Environment {
	return &Environment{
		Options: opts,
		RunID:   uuid.New().String(),
	}
}

// RegisterSuite puts s at the front of the suite list, so the most
// recently registered suite runs first.
func (e *Environment) RegisterSuite(s *Suite) {
	e.suites = slices.Insert(e.suites, 0, s)
}

// Suites returns the suites in execution order
func (e *Environment) Suites() []*Suite {
	return e.suites
}

// Reset zeroes the counters and run times. Case results are left alone.
func (e *Environment) Reset() {
	e.Counters = Counters{}
	e.StartTime = time.Time{}
	e.EndTime = time.Time{}
}

// Snapshot returns a copy of the counters
func (e *Environment) Snapshot() Counters {
	return e.Counters
}

// Duration is the wall-clock span of the run, zero before it finished
func (e *Environment) Duration() time.Duration {
	if e.StartTime.IsZero() || e.EndTime.Before(e.StartTime) {
		return 0
	}
	return e.EndTime.Sub(e.StartTime)
}

// HasOnly reports whether any registered case is marked only
func (e *Environment) HasOnly() bool {
	for _, s := range e.suites {
		for _, c := range s.cases {
			if c.Mark == MarkOnly {
				return true
			}
		}
	}
	return false
}

// CaseCount returns the number of registered cases across all suites
func (e *Environment) CaseCount() int {
	n := 0
	for _, s := range e.suites {
		n += s.Len()
	}
	return n
}
