// Package assert provides the execution context handed to every test body and
// the assertion families that signal a failure back to the runner.
//
// A failing assertion panics with a *Failure. The runner recovers it at the
// single boundary it establishes around each body invocation, so the rest of
// the body never executes. There is exactly one active handler per case;
// nested handlers are not supported.
package assert

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Class identifies the assertion family that raised a failure
type Class string

const (
	ClassAssert Class = "assert"
	ClassExpect Class = "expect"
	ClassAssume Class = "assume"
	ClassExcept Class = "except"
	ClassSanity Class = "sanity"
)

// Failure is the signal raised by a failing assertion. It carries the
// message and the call site of the assertion.
type Failure struct {
	Class   Class
	Message string
	File    string
	Line    int
	Func    string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s (%s)", f.Message, f.Location())
}

// Location returns the call site formatted as file:line in func
func (f *Failure) Location() string {
	return fmt.Sprintf("%s:%d in %s", f.File, f.Line, f.Func)
}

// SkipSignal is raised by T.Skip to stop a body and mark the case skipped
type SkipSignal struct {
	Reason string
}

func (s *SkipSignal) Error() string {
	return "skipped: " + s.Reason
}

// T is the per-case execution context. It is created by the runner for each
// case run and must not be retained after the body returns.
type T struct {
	name       string
	iteration  int
	assertions int
	failure    *Failure
}

// NewT creates the context for the named case
func NewT(name string) *T {
	return &T{name: name}
}

// Name returns the name of the running case
func (t *T) Name() string {
	return t.name
}

// Iteration returns the zero-based repeat iteration currently executing
func (t *T) Iteration() int {
	return t.iteration
}

// SetIteration is used by the runner before each repeat iteration
func (t *T) SetIteration(i int) {
	t.iteration = i
}

// Assertions returns how many assertions were evaluated so far
func (t *T) Assertions() int {
	return t.assertions
}

// Failure returns the failure raised in this context, if any
func (t *T) Failure() *Failure {
	return t.failure
}

// Assert aborts the case when cond is false.
func (t *T) Assert(cond bool, msg string, args ...any) {
	t.check(ClassAssert, cond, msg, args, 3)
}

// Expect is the expectation family. It aborts the case like Assert.
func (t *T) Expect(cond bool, msg string, args ...any) {
	t.check(ClassExpect, cond, msg, args, 3)
}

// Assume is the assumption family.
func (t *T) Assume(cond bool, msg string, args ...any) {
	t.check(ClassAssume, cond, msg, args, 3)
}

// Except is the exception family, used for conditions around error paths.
func (t *T) Except(cond bool, msg string, args ...any) {
	t.check(ClassExcept, cond, msg, args, 3)
}

// Sanity is the sanity-check family.
func (t *T) Sanity(cond bool, msg string, args ...any) {
	t.check(ClassSanity, cond, msg, args, 3)
}

// Fail aborts the case unconditionally
func (t *T) Fail(msg string, args ...any) {
	t.check(ClassAssert, false, msg, args, 3)
}

// Check evaluates cond in the given family on behalf of a helper function.
// The failure is reported at the helper's caller, or skip frames further up
// for helpers that are themselves wrapped.
func (t *T) Check(class Class, cond bool, skip int, msg string, args ...any) {
	t.check(class, cond, msg, args, 4+skip)
}

// Skip stops the body and marks the case as skipped
func (t *T) Skip(reason string) {
	panic(&SkipSignal{Reason: reason})
}

func (t *T) check(class Class, cond bool, msg string, args []any, skip int) {
	t.assertions++
	if cond {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	t.raise(class, msg, skip)
}

// raise records the failure and unwinds to the runner. skip is the
// runtime.Caller depth of the user's call site as seen from raise.
func (t *T) raise(class Class, msg string, skip int) {
	f := &Failure{Class: class, Message: msg, File: "unknown", Func: "unknown"}
	if pc, file, line, ok := runtime.Caller(skip); ok {
		f.File = filepath.Base(file)
		f.Line = line
		if fn := runtime.FuncForPC(pc); fn != nil {
			f.Func = shortFuncName(fn.Name())
		}
	}
	t.failure = f
	panic(f)
}

// shortFuncName strips the import path from a fully qualified function name
func shortFuncName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
