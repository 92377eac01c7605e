package types

import (
	"fmt"
	"strings"
)

// Tag classifies a case
type Tag string

const (
	TagFast          Tag = "fast"
	TagSlow          Tag = "slow"
	TagBug           Tag = "bug"
	TagFeature       Tag = "feature"
	TagSecurity      Tag = "security"
	TagPerformance   Tag = "performance"
	TagStress        Tag = "stress"
	TagRegression    Tag = "regression"
	TagCompatibility Tag = "compatibility"
	TagUsability     Tag = "usability"
	TagRobustness    Tag = "robustness"
	TagCornerCase    Tag = "corner_case"
)

var knownTags = []Tag{
	TagFast, TagSlow, TagBug, TagFeature, TagSecurity, TagPerformance,
	TagStress, TagRegression, TagCompatibility, TagUsability, TagRobustness,
	TagCornerCase,
}

// ParseTag returns the tag named s. Matching is case-insensitive.
func ParseTag(s string) (Tag, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, t := range knownTags {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tag %q", s)
}

// ParseTags parses a comma separated tag list. Empty elements are ignored.
func ParseTags(list string) ([]Tag, error) {
	var tags []Tag
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := ParseTag(part)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// Mark changes how a case is scheduled or how its outcome is judged.
// The zero value behaves like MarkDefault.
type Mark string

const (
	MarkDefault Mark = "default"
	MarkNone    Mark = "none"
	MarkPass    Mark = "pass"
	// MarkSkip never runs the case
	MarkSkip Mark = "skip"
	// MarkFail expects the case to fail; PASS and FAIL are swapped
	MarkFail Mark = "fail"
	// MarkTimeout expects the case to time out
	MarkTimeout Mark = "timeout"
	// MarkError expects the body to panic with something other than an
	// assertion failure
	MarkError Mark = "error"
	// MarkOnly restricts the run to cases carrying this mark
	MarkOnly Mark = "only"
)

var knownMarks = []Mark{
	MarkDefault, MarkNone, MarkPass, MarkSkip, MarkFail, MarkTimeout, MarkError, MarkOnly,
}

func ParseMark(s string) (Mark, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return MarkDefault, nil
	}
	for _, m := range knownMarks {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mark %q", s)
}
