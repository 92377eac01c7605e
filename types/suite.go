package types

import (
	"slices"
	"time"

	"github.com/fossillogic/fossil-test/assert"
)

// Suite is an ordered collection of cases with optional setup and teardown
// hooks that run once around the whole collection.
type Suite struct {
	Name     string
	Setup    func()
	Teardown func()

	// TotalExecutionTime is the wall-clock time of the last run, covering
	// suite setup, every case and suite teardown.
	TotalExecutionTime time.Duration

	cases []*Case
}

func NewSuite(name string) *Suite {
	return &Suite{Name: name}
}

// AddCase puts c at the front of the suite. Cases therefore run in reverse
// registration order unless the run reverses them.
func (s *Suite) AddCase(c *Case) {
	s.cases = slices.Insert(s.cases, 0, c)
}

// Add creates a case and registers it
func (s *Suite) Add(name string, body func(*assert.T), opts ...CaseOption) *Case {
	c := NewCase(name, body, opts...)
	s.AddCase(c)
	return c
}

// Cases returns the cases in execution order. The slice is the suite's own
// storage: reordering it in place reorders the suite.
func (s *Suite) Cases() []*Case {
	return s.cases
}

// RemoveCase drops c from the suite. It reports whether c was present.
func (s *Suite) RemoveCase(c *Case) bool {
	i := slices.Index(s.cases, c)
	if i < 0 {
		return false
	}
	s.cases = slices.Delete(s.cases, i, i+1)
	return true
}

func (s *Suite) Len() int {
	return len(s.cases)
}

// Find returns the first case named name in execution order
func (s *Suite) Find(name string) *Case {
	for _, c := range s.cases {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Stats counts the suite's case statuses. It does not touch any counters
// maintained by the runner.
func (s *Suite) Stats() Counters {
	var c Counters
	for _, tc := range s.cases {
		if tc.Status == StatusPending {
			continue
		}
		c.Record(tc.Status)
	}
	return c
}
