package assert

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// helperDepth is the runtime.Caller depth of the user's call site when a
// typed helper calls check: raise, check, helper, caller.
const helperDepth = 3

func message(custom []string, format string, args ...any) string {
	if len(custom) > 0 && custom[0] != "" {
		return strings.Join(custom, " ")
	}
	return fmt.Sprintf(format, args...)
}

// Equal asserts that got equals want.
func Equal[V comparable](t *T, want, got V, msg ...string) {
	t.check(ClassAssert, want == got, message(msg, "expected %v, got %v", want, got), nil, helperDepth)
}

func NotEqual[V comparable](t *T, notWant, got V, msg ...string) {
	t.check(ClassAssert, notWant != got, message(msg, "expected value other than %v", notWant), nil, helperDepth)
}

func True(t *T, cond bool, msg ...string) {
	t.check(ClassAssert, cond, message(msg, "expected true"), nil, helperDepth)
}

func False(t *T, cond bool, msg ...string) {
	t.check(ClassAssert, !cond, message(msg, "expected false"), nil, helperDepth)
}

// Nil asserts that v is nil, including typed nil pointers held in an interface.
func Nil(t *T, v any, msg ...string) {
	t.check(ClassAssert, isNil(v), message(msg, "expected nil, got %v", v), nil, helperDepth)
}

func NotNil(t *T, v any, msg ...string) {
	t.check(ClassAssert, !isNil(v), message(msg, "expected non-nil value"), nil, helperDepth)
}

func NoError(t *T, err error, msg ...string) {
	t.check(ClassExcept, err == nil, message(msg, "unexpected error: %v", err), nil, helperDepth)
}

// ErrorIs asserts that err matches target through errors.Is.
func ErrorIs(t *T, err, target error, msg ...string) {
	t.check(ClassExcept, errors.Is(err, target), message(msg, "expected error %v, got %v", target, err), nil, helperDepth)
}

// Contains asserts that s contains substr.
func Contains(t *T, s, substr string, msg ...string) {
	t.check(ClassAssert, strings.Contains(s, substr), message(msg, "%q does not contain %q", s, substr), nil, helperDepth)
}

// InDelta asserts that want and got differ by at most delta.
func InDelta(t *T, want, got, delta float64, msg ...string) {
	ok := !math.IsNaN(got) && math.Abs(want-got) <= delta
	t.check(ClassAssert, ok, message(msg, "expected %v within %v of %v", got, delta, want), nil, helperDepth)
}

func Less[V cmp.Ordered](t *T, a, b V, msg ...string) {
	t.check(ClassAssert, cmp.Less(a, b), message(msg, "expected %v < %v", a, b), nil, helperDepth)
}

func Greater[V cmp.Ordered](t *T, a, b V, msg ...string) {
	t.check(ClassAssert, cmp.Less(b, a), message(msg, "expected %v > %v", a, b), nil, helperDepth)
}

// Len asserts the length of a slice, map, string, array or channel.
func Len(t *T, v any, n int, msg ...string) {
	l, ok := length(v)
	t.check(ClassAssert, ok && l == n, message(msg, "expected length %d, got %d", n, l), nil, helperDepth)
}

// Panics asserts that fn panics. Assertion failures raised inside fn are
// not treated as panics and propagate to the runner unchanged.
func Panics(t *T, fn func(), msg ...string) {
	t.check(ClassExcept, didPanic(fn), message(msg, "expected function to panic"), nil, helperDepth)
}

func didPanic(fn func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			switch r.(type) {
			case *Failure, *SkipSignal:
				panic(r)
			}
			panicked = true
		}
	}()
	fn()
	return false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

func length(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array, reflect.Chan, reflect.Map, reflect.Slice, reflect.String:
		return rv.Len(), true
	}
	return 0, false
}
