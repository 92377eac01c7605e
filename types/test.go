package types

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fossillogic/fossil-test/assert"
)

// Status represents the state of a test case. The zero value is StatusPending.
type Status uint8

const (
	StatusPending Status = iota
	StatusPass
	StatusFail
	StatusSkip
	StatusEmpty
	StatusTimeout
)

var statusNames = map[Status]string{
	StatusPending: "PENDING",
	StatusPass:    "PASS",
	StatusFail:    "FAIL",
	StatusSkip:    "SKIP",
	StatusEmpty:   "EMPTY",
	StatusTimeout: "TIMEOUT",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
}

// MarshalText encodes the status by name for JSON and YAML output
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether s is one of the statuses a finished case ends in
func (s Status) Terminal() bool {
	switch s {
	case StatusPass, StatusFail, StatusSkip, StatusEmpty, StatusTimeout:
		return true
	}
	return false
}

const (
	DefaultPriority = 50
	MinPriority     = 1
	MaxPriority     = 100
)

// Case is a single named test case. It is owned by exactly one Suite.
type Case struct {
	Name     string
	Body     func(*assert.T)
	Setup    func()
	Teardown func()
	Tags     []Tag
	Mark     Mark
	Priority int

	// Populated by the runner
	Status         Status
	FailureMessage string
	Failure        *assert.Failure
	ExecutionTime  time.Duration
	Assertions     int
	Iterations     int
}

// CaseOption configures a Case at construction
type CaseOption func(*Case)

func WithSetup(fn func()) CaseOption {
	return func(c *Case) { c.Setup = fn }
}

func WithTeardown(fn func()) CaseOption {
	return func(c *Case) { c.Teardown = fn }
}

func WithTags(tags ...Tag) CaseOption {
	return func(c *Case) { c.Tags = append(c.Tags, tags...) }
}

func WithMark(m Mark) CaseOption {
	return func(c *Case) { c.Mark = m }
}

func WithPriority(p int) CaseOption {
	return func(c *Case) { c.SetPriority(p) }
}

// NewCase creates a case with the default priority. A nil body is allowed
// and yields an EMPTY result when run.
func NewCase(name string, body func(*assert.T), opts ...CaseOption) *Case {
	c := &Case{
		Name:     name,
		Body:     body,
		Priority: DefaultPriority,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetPriority sets the priority, clamped to [MinPriority, MaxPriority]
func (c *Case) SetPriority(p int) {
	c.Priority = min(max(p, MinPriority), MaxPriority)
}

func (c *Case) HasTag(tag Tag) bool {
	return slices.Contains(c.Tags, tag)
}

// HasAnyTag reports whether the case carries at least one of tags
func (c *Case) HasAnyTag(tags []Tag) bool {
	return slices.ContainsFunc(tags, c.HasTag)
}

// ResetResult clears everything the runner populated
func (c *Case) ResetResult() {
	c.Status = StatusPending
	c.FailureMessage = ""
	c.Failure = nil
	c.ExecutionTime = 0
	c.Assertions = 0
	c.Iterations = 0
}

// Location returns where the case failed, or an empty string
func (c *Case) Location() string {
	if c.Failure == nil {
		return ""
	}
	return c.Failure.Location()
}

// TagList renders the tags as a comma separated list
func (c *Case) TagList() string {
	names := make([]string, len(c.Tags))
	for i, t := range c.Tags {
		names[i] = string(t)
	}
	return strings.Join(names, ",")
}
