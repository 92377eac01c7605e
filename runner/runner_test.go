package runner

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/ethereum-optimism/optimism/op-service/clock"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fassert "github.com/fossillogic/fossil-test/assert"
	"github.com/fossillogic/fossil-test/logging"
	"github.com/fossillogic/fossil-test/types"
	"github.com/fossillogic/fossil-test/ui"
)

type testHarness struct {
	env     *types.Environment
	clock   *clock.DeterministicClock
	out     *bytes.Buffer
	runner  *runner
	journal []string
}

func newHarness(t *testing.T, mutate func(o *types.Options)) *testHarness {
	t.Helper()
	opts := types.DefaultOptions()
	opts.Color = types.ColorOff
	opts.ShowInfo = true
	opts.HasSeed = true
	opts.Seed = 42
	if mutate != nil {
		mutate(&opts)
	}

	h := &testHarness{
		env:   types.NewEnvironment(opts),
		clock: clock.NewDeterministicClock(time.Unix(1_700_000_000, 0)),
		out:   &bytes.Buffer{},
	}
	tr, err := NewTestRunner(Config{
		Environment: h.env,
		Log:         log.NewLogger(log.DiscardHandler()),
		Clock:       h.clock,
		Console:     ui.NewConsole(h.out, types.ColorOff, true, false),
	})
	require.NoError(t, err)
	h.runner = tr.(*runner)
	return h
}

// record returns a body that appends name to the journal
func (h *testHarness) record(name string) func(*fassert.T) {
	return func(t *fassert.T) {
		h.journal = append(h.journal, name)
		t.Assert(true, "always")
	}
}

func (h *testHarness) suite(name string, caseNames ...string) *types.Suite {
	s := types.NewSuite(name)
	for _, n := range caseNames {
		s.Add(n, h.record(n))
	}
	h.env.RegisterSuite(s)
	return s
}

func TestNewTestRunnerValidation(t *testing.T) {
	_, err := NewTestRunner(Config{})
	assert.Error(t, err)

	opts := types.DefaultOptions()
	opts.RepeatCount = 0
	_, err = NewTestRunner(Config{Environment: types.NewEnvironment(opts)})
	assert.ErrorContains(t, err, "invalid options")

	tr, err := NewTestRunner(Config{Environment: types.NewEnvironment(types.DefaultOptions()), Log: log.NewLogger(log.DiscardHandler())})
	require.NoError(t, err)
	assert.NotNil(t, tr)
}

// TestABCScenario runs a suite with a passing, a failing and an empty case
func TestABCScenario(t *testing.T) {
	h := newHarness(t, nil)
	s := types.NewSuite("abc")
	a := s.Add("A", func(t *fassert.T) { t.Assert(1+1 == 2, "math works") })
	b := s.Add("B", func(t *fassert.T) { t.Assert(false, "boom") })
	c := s.Add("C", nil)
	h.env.RegisterSuite(s)

	require.NoError(t, h.runner.RunAll(context.Background()))

	assert.Equal(t, types.Counters{Pass: 1, Fail: 1, Empty: 1, Total: 3}, h.env.Counters)
	assert.Equal(t, types.StatusPass, a.Status)
	assert.Equal(t, types.StatusFail, b.Status)
	assert.Equal(t, "boom", b.FailureMessage)
	require.NotNil(t, b.Failure)
	assert.Equal(t, "runner_test.go", b.Failure.File)
	assert.Equal(t, types.StatusEmpty, c.Status)
	assert.Equal(t, 1, a.Assertions)

	out := h.out.String()
	assert.Contains(t, out, "Assertion failed: boom")
	assert.Contains(t, out, "FAILED: B")
	assert.Contains(t, out, "PASSED: A")
}

func TestLastRegisteredRunsFirst(t *testing.T) {
	h := newHarness(t, nil)
	h.suite("s1", "a", "b", "c")
	h.suite("s2", "x", "y")

	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Equal(t, []string{"y", "x", "c", "b", "a"}, h.journal)
}

func TestReverseRestoresRegistrationOrder(t *testing.T) {
	h := newHarness(t, func(o *types.Options) { o.Reverse = true })
	h.suite("s", "a", "b", "c")

	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Equal(t, []string{"a", "b", "c"}, h.journal)
}

func TestShuffleWithSeedIsReproducible(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	run := func() []string {
		h := newHarness(t, func(o *types.Options) { o.Shuffle = true; o.Seed = 7 })
		h.suite("s", names...)
		require.NoError(t, h.runner.RunAll(context.Background()))
		return h.journal
	}
	first := run()
	assert.Equal(t, first, run())
	assert.ElementsMatch(t, names, first)
}

func TestSkipMark(t *testing.T) {
	h := newHarness(t, nil)
	calls := 0
	s := types.NewSuite("s")
	tc := s.Add("skipped", func(*fassert.T) { calls++ },
		types.WithMark(types.MarkSkip),
		types.WithSetup(func() { calls++ }),
		types.WithTeardown(func() { calls++ }),
	)
	h.env.RegisterSuite(s)
	h.clock.AdvanceTime(time.Hour)

	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Equal(t, 0, calls)
	assert.Equal(t, types.StatusSkip, tc.Status)
	assert.Zero(t, tc.ExecutionTime)
	assert.Equal(t, types.Counters{Skip: 1, Total: 1}, h.env.Counters)
}

func TestFailingAssertionStopsRepeats(t *testing.T) {
	h := newHarness(t, func(o *types.Options) { o.Repeat = true; o.RepeatCount = 5 })
	calls := 0
	s := types.NewSuite("s")
	tc := s.Add("fails", func(t *fassert.T) {
		calls++
		t.Assert(false, "nope")
		calls += 100
	})
	h.env.RegisterSuite(s)

	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, tc.Iterations)
	assert.Equal(t, types.StatusFail, tc.Status)
}

func TestPassingBodyRepeatsAndAccumulatesTime(t *testing.T) {
	h := newHarness(t, func(o *types.Options) { o.Repeat = true; o.RepeatCount = 4 })
	calls := 0
	s := types.NewSuite("s")
	tc := s.Add("repeats", func(t *fassert.T) {
		calls++
		t.Assert(t.Iteration() == calls-1, "iteration index")
		h.clock.AdvanceTime(time.Second)
	})
	h.env.RegisterSuite(s)

	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Equal(t, 4, calls)
	assert.Equal(t, 4, tc.Iterations)
	assert.Equal(t, 4, tc.Assertions)
	assert.Equal(t, 4*time.Second, tc.ExecutionTime)
	assert.Equal(t, types.StatusPass, tc.Status)
	assert.Equal(t, 4*time.Second, s.TotalExecutionTime)
}

func TestTimeoutBetweenIterations(t *testing.T) {
	h := newHarness(t, func(o *types.Options) { o.Repeat = true; o.RepeatCount = 5 })
	s := types.NewSuite("s")
	slow := s.Add("slow", func(*fassert.T) { h.clock.AdvanceTime(100 * time.Second) })
	expected := s.Add("expected", func(*fassert.T) { h.clock.AdvanceTime(100 * time.Second) },
		types.WithMark(types.MarkTimeout))
	h.env.RegisterSuite(s)

	require.NoError(t, h.runner.RunAll(context.Background()))

	// the check runs after each iteration, 200s > 180s after the second one
	assert.Equal(t, types.StatusTimeout, slow.Status)
	assert.Equal(t, 2, slow.Iterations)
	assert.Equal(t, 200*time.Second, slow.ExecutionTime)
	assert.Equal(t, types.StatusPass, expected.Status)
	assert.Equal(t, types.Counters{Pass: 1, Timeout: 1, Total: 2}, h.env.Counters)
	assert.Contains(t, h.out.String(), "TIMEOUT: slow")
}

func TestConfigurableTimeout(t *testing.T) {
	h := newHarness(t, func(o *types.Options) { o.Timeout = time.Second })
	s := types.NewSuite("s")
	tc := s.Add("slow", func(*fassert.T) { h.clock.AdvanceTime(2 * time.Second) })
	h.env.RegisterSuite(s)

	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Equal(t, types.StatusTimeout, tc.Status)
}

func TestRunAllTwiceDoublesCounters(t *testing.T) {
	h := newHarness(t, nil)
	s := types.NewSuite("s")
	s.Add("pass", func(*fassert.T) {})
	s.Add("fail", func(t *fassert.T) { t.Fail("x") })
	s.Add("empty", nil)
	h.env.RegisterSuite(s)

	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Equal(t, types.Counters{Pass: 1, Fail: 1, Empty: 1, Total: 3}, h.env.Snapshot())
	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Equal(t, types.Counters{Pass: 2, Fail: 2, Empty: 2, Total: 6}, h.env.Counters)
	// the second pass does not flag the first pass's failure as a duplicate
	assert.NotContains(t, h.out.String(), "Duplicate")
}

func TestDryRun(t *testing.T) {
	h := newHarness(t, func(o *types.Options) { o.DryRun = true })
	h.suite("s", "a", "b")

	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Empty(t, h.journal)
	assert.Equal(t, types.Counters{}, h.env.Counters)
	assert.Contains(t, h.out.String(), ui.DryRunNotice)

	// a direct RunCase call honors dry-run too
	s := h.env.Suites()[0]
	h.runner.RunCase(context.Background(), s, s.Cases()[0])
	assert.Empty(t, h.journal)
	assert.Equal(t, types.StatusPending, s.Cases()[0].Status)
}

func TestOnlyMark(t *testing.T) {
	h := newHarness(t, nil)
	s := types.NewSuite("s")
	s.Add("other", h.record("other"))
	focused := s.Add("focused", h.record("focused"), types.WithMark(types.MarkOnly))
	h.env.RegisterSuite(s)
	h.suite("elsewhere", "z")

	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Equal(t, []string{"focused"}, h.journal)
	assert.Equal(t, types.StatusPass, focused.Status)
	assert.Equal(t, types.Counters{Pass: 1, Skip: 2, Total: 3}, h.env.Counters)
}

func TestOnlyTags(t *testing.T) {
	h := newHarness(t, func(o *types.Options) { o.OnlyTags = []types.Tag{types.TagSecurity} })
	s := types.NewSuite("s")
	s.Add("plain", h.record("plain"))
	s.Add("secure", h.record("secure"), types.WithTags(types.TagSecurity))
	h.env.RegisterSuite(s)

	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Equal(t, []string{"secure"}, h.journal)
	assert.Equal(t, 1, h.env.Counters.Skip)
}

func TestExpectationMarks(t *testing.T) {
	h := newHarness(t, nil)
	s := types.NewSuite("s")
	expectedFail := s.Add("expected-fail", func(t *fassert.T) { t.Assert(false, "broken") }, types.WithMark(types.MarkFail))
	unexpectedPass := s.Add("unexpected-pass", func(*fassert.T) {}, types.WithMark(types.MarkFail))
	expectedPanic := s.Add("expected-panic", func(*fassert.T) { panic("kaboom") }, types.WithMark(types.MarkError))
	assertionNotPanic := s.Add("assertion-not-panic", func(t *fassert.T) { t.Fail("plain failure") }, types.WithMark(types.MarkError))
	h.env.RegisterSuite(s)

	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Equal(t, types.StatusPass, expectedFail.Status)
	assert.Empty(t, expectedFail.FailureMessage)
	assert.Equal(t, types.StatusFail, unexpectedPass.Status)
	assert.Equal(t, "expected failure did not occur", unexpectedPass.FailureMessage)
	assert.Equal(t, types.StatusPass, expectedPanic.Status)
	assert.Empty(t, expectedPanic.FailureMessage)
	assert.Equal(t, types.StatusFail, assertionNotPanic.Status)
	assert.Equal(t, "plain failure", assertionNotPanic.FailureMessage)
}

func TestUnmetExpectationsFail(t *testing.T) {
	h := newHarness(t, nil)
	s := types.NewSuite("s")
	noTimeout := s.Add("no-timeout", func(*fassert.T) {}, types.WithMark(types.MarkTimeout))
	noPanic := s.Add("no-panic", func(*fassert.T) {}, types.WithMark(types.MarkError))
	failedInstead := s.Add("failed-instead", func(t *fassert.T) { t.Fail("wrong") }, types.WithMark(types.MarkTimeout))
	h.env.RegisterSuite(s)

	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Equal(t, types.StatusFail, noTimeout.Status)
	assert.Equal(t, "expected timeout did not occur", noTimeout.FailureMessage)
	assert.Equal(t, types.StatusFail, noPanic.Status)
	assert.Equal(t, "expected error did not occur", noPanic.FailureMessage)
	assert.Equal(t, types.StatusFail, failedInstead.Status)
	assert.Equal(t, "wrong", failedInstead.FailureMessage)
	assert.Equal(t, types.Counters{Fail: 3, Total: 3}, h.env.Counters)
}

func TestPanicsAndHooks(t *testing.T) {
	h := newHarness(t, nil)
	var teardowns []string
	bodyCalled := false

	s := types.NewSuite("s")
	setupPanic := s.Add("setup-panic", func(*fassert.T) { bodyCalled = true },
		types.WithSetup(func() { panic("no database") }),
		types.WithTeardown(func() { teardowns = append(teardowns, "setup-panic") }),
	)
	bodyPanic := s.Add("body-panic", func(*fassert.T) { panic(errors.New("nil map")) },
		types.WithTeardown(func() { teardowns = append(teardowns, "body-panic") }),
	)
	teardownPanic := s.Add("teardown-panic", func(*fassert.T) {},
		types.WithTeardown(func() { panic("leak") }),
	)
	h.env.RegisterSuite(s)

	require.NoError(t, h.runner.RunAll(context.Background()))

	assert.False(t, bodyCalled)
	assert.Equal(t, types.StatusFail, setupPanic.Status)
	assert.Equal(t, "setup panic: no database", setupPanic.FailureMessage)
	assert.Equal(t, types.StatusFail, bodyPanic.Status)
	assert.Equal(t, "panic: nil map", bodyPanic.FailureMessage)
	assert.Equal(t, types.StatusFail, teardownPanic.Status)
	assert.Equal(t, "teardown panic: leak", teardownPanic.FailureMessage)
	assert.ElementsMatch(t, []string{"setup-panic", "body-panic"}, teardowns)
	assert.Equal(t, 3, h.env.Counters.Fail)
}

func TestRuntimeSkip(t *testing.T) {
	h := newHarness(t, func(o *types.Options) { o.Repeat = true; o.RepeatCount = 3 })
	calls := 0
	s := types.NewSuite("s")
	tc := s.Add("skips", func(t *fassert.T) {
		calls++
		t.Skip("requires network")
	})
	h.env.RegisterSuite(s)

	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Equal(t, 1, calls)
	assert.Equal(t, types.StatusSkip, tc.Status)
	assert.Equal(t, types.Counters{Skip: 1, Total: 1}, h.env.Counters)
}

func TestSuiteHooks(t *testing.T) {
	h := newHarness(t, nil)
	var events []string
	s := h.suite("s", "a")
	s.Setup = func() { events = append(events, "setup") }
	s.Teardown = func() { events = append(events, "teardown") }
	s.Cases()[0].Body = func(*fassert.T) { events = append(events, "a") }

	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Equal(t, []string{"setup", "a", "teardown"}, events)
}

func TestSuiteSetupFailureFailsEveryCase(t *testing.T) {
	h := newHarness(t, nil)
	tornDown := false
	s := h.suite("s", "a", "b")
	s.Setup = func() { panic("fixture missing") }
	s.Teardown = func() { tornDown = true }

	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Empty(t, h.journal)
	assert.True(t, tornDown)
	assert.Equal(t, types.Counters{Fail: 2, Total: 2}, h.env.Counters)
	for _, tc := range s.Cases() {
		assert.Equal(t, "suite setup failed: panic: fixture missing", tc.FailureMessage)
	}
}

func TestSuiteSetupFailureKeepsExcludedCasesSkipped(t *testing.T) {
	h := newHarness(t, func(o *types.Options) { o.OnlyTags = []types.Tag{types.TagFast} })
	s := types.NewSuite("s")
	s.Setup = func() { panic("boom") }
	marked := s.Add("marked", h.record("marked"), types.WithMark(types.MarkSkip), types.WithTags(types.TagFast))
	untagged := s.Add("untagged", h.record("untagged"))
	tagged := s.Add("tagged", h.record("tagged"), types.WithTags(types.TagFast))
	h.env.RegisterSuite(s)

	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Empty(t, h.journal)
	assert.Equal(t, types.StatusSkip, marked.Status)
	assert.Empty(t, marked.FailureMessage)
	assert.Zero(t, marked.ExecutionTime)
	assert.Equal(t, types.StatusSkip, untagged.Status)
	assert.Equal(t, types.StatusFail, tagged.Status)
	assert.Equal(t, "suite setup failed: panic: boom", tagged.FailureMessage)
	assert.Equal(t, types.Counters{Fail: 1, Skip: 2, Total: 3}, h.env.Counters)
}

func TestShuffleThenReverse(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	run := func(reverse bool) []string {
		h := newHarness(t, func(o *types.Options) {
			o.Shuffle = true
			o.Seed = 11
			o.Reverse = reverse
		})
		h.suite("s", names...)
		require.NoError(t, h.runner.RunAll(context.Background()))
		return h.journal
	}

	shuffled := run(false)
	want := slices.Clone(shuffled)
	slices.Reverse(want)
	assert.Equal(t, want, run(true))
}

func TestSuiteTimeIncludesHooks(t *testing.T) {
	h := newHarness(t, nil)
	s := types.NewSuite("s")
	s.Setup = func() { h.clock.AdvanceTime(2 * time.Second) }
	s.Teardown = func() { h.clock.AdvanceTime(3 * time.Second) }
	a := s.Add("a", func(*fassert.T) { h.clock.AdvanceTime(time.Second) })
	b := s.Add("b", func(*fassert.T) { h.clock.AdvanceTime(time.Second) })
	h.env.RegisterSuite(s)

	require.NoError(t, h.runner.RunAll(context.Background()))
	caseTime := a.ExecutionTime + b.ExecutionTime
	assert.Equal(t, 2*time.Second, caseTime)
	assert.Greater(t, s.TotalExecutionTime, caseTime)
	assert.Equal(t, 7*time.Second, s.TotalExecutionTime)
}

func TestDuplicateFailuresAreReported(t *testing.T) {
	h := newHarness(t, nil)
	s := types.NewSuite("s")
	shared := func(t *fassert.T) { t.Assert(false, "same spot") }
	s.Add("first", shared)
	s.Add("second", shared)
	h.env.RegisterSuite(s)

	require.NoError(t, h.runner.RunAll(context.Background()))
	out := h.out.String()
	assert.Contains(t, out, "Assertion failed: same spot")
	assert.Contains(t, out, "Duplicate or similar assertion detected: same spot")
	assert.Contains(t, out, "[Anomaly Count: 1]")
}

func TestCancelledContextStopsBetweenSuites(t *testing.T) {
	h := newHarness(t, nil)
	h.suite("s", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := h.runner.RunAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.journal)
	assert.Zero(t, h.env.Counters.Total)
	assert.False(t, h.env.EndTime.IsZero())
}

func TestCaseResultsReachFileLogger(t *testing.T) {
	opts := types.DefaultOptions()
	env := types.NewEnvironment(opts)
	fl, err := logging.NewFileLogger(t.TempDir(), env.RunID)
	require.NoError(t, err)

	var out bytes.Buffer
	tr, err := NewTestRunner(Config{
		Environment: env,
		Log:         log.NewLogger(log.DiscardHandler()),
		Console:     ui.NewConsole(&out, types.ColorOff, false, true),
		FileLogger:  fl,
	})
	require.NoError(t, err)

	s := types.NewSuite("s")
	s.Add("a", func(*fassert.T) {})
	env.RegisterSuite(s)
	require.NoError(t, tr.RunAll(context.Background()))
	require.NoError(t, fl.Complete(env.RunID))

	assert.FileExists(t, fl.Dir()+"/passed/0001_s_a.log")
	assert.NotContains(t, out.String(), "PASSED")
}

func TestStartAndEndTimes(t *testing.T) {
	h := newHarness(t, nil)
	s := types.NewSuite("s")
	s.Add("tick", func(*fassert.T) { h.clock.AdvanceTime(3 * time.Second) })
	h.env.RegisterSuite(s)

	require.NoError(t, h.runner.RunAll(context.Background()))
	start := h.env.StartTime
	assert.Equal(t, 3*time.Second, h.env.Duration())

	require.NoError(t, h.runner.RunAll(context.Background()))
	assert.Equal(t, start, h.env.StartTime, "start time is kept across runs")
	assert.Equal(t, 6*time.Second, h.env.Duration())
}
