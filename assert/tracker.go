package assert

import "strings"

// Tracker detects repeated failures raised from the same call site. It is
// owned by a single runner and is not safe for concurrent use.
type Tracker struct {
	last      *Failure
	anomalies int
}

// Observe compares f with the previously observed failure. A failure is a
// duplicate when it comes from the same file, line and function and its
// message contains the previous message. Each duplicate increments the
// anomaly count; anything else resets the count and becomes the new
// reference.
func (tr *Tracker) Observe(f *Failure) (duplicate bool, anomalies int) {
	if f == nil {
		return false, tr.anomalies
	}
	if tr.last != nil &&
		tr.last.File == f.File &&
		tr.last.Line == f.Line &&
		tr.last.Func == f.Func &&
		strings.Contains(f.Message, tr.last.Message) {
		tr.anomalies++
		return true, tr.anomalies
	}
	tr.anomalies = 0
	tr.last = f
	return false, 0
}

// Anomalies returns the current anomaly count
func (tr *Tracker) Anomalies() int {
	return tr.anomalies
}

// Reset forgets the reference failure
func (tr *Tracker) Reset() {
	tr.last = nil
	tr.anomalies = 0
}
