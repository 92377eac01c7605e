package reporting

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fassert "github.com/fossillogic/fossil-test/assert"
	"github.com/fossillogic/fossil-test/types"
)

var fixtureStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func finish(env *types.Environment, tc *types.Case, status types.Status, elapsed time.Duration) {
	tc.Status = status
	tc.ExecutionTime = elapsed
	if status != types.StatusSkip && status != types.StatusEmpty {
		tc.Iterations = 1
		tc.Assertions = 1
	}
	env.Counters.Record(status)
}

// fixtureEnv builds a finished run with one case of every outcome:
// math runs divides (FAIL) then adds (PASS), io runs waits (TIMEOUT), writes
// (EMPTY) then reads (SKIP).
func fixtureEnv() *types.Environment {
	env := types.NewEnvironment(types.DefaultOptions())
	env.RunID = "run-1"
	env.StartTime = fixtureStart
	env.EndTime = fixtureStart.Add(3 * time.Second)

	math := types.NewSuite("math")
	adds := math.Add("adds", func(*fassert.T) {})
	divides := math.Add("divides", func(*fassert.T) {}, types.WithTags(types.TagBug))
	math.TotalExecutionTime = 10 * time.Millisecond
	env.RegisterSuite(math)

	io := types.NewSuite("io")
	reads := io.Add("reads", func(*fassert.T) {}, types.WithMark(types.MarkSkip))
	writes := io.Add("writes", nil)
	waits := io.Add("waits", func(*fassert.T) {}, types.WithTags(types.TagSlow))
	io.TotalExecutionTime = 181 * time.Second
	env.RegisterSuite(io)

	finish(env, waits, types.StatusTimeout, 181*time.Second)
	finish(env, writes, types.StatusEmpty, 0)
	finish(env, reads, types.StatusSkip, 0)
	finish(env, divides, types.StatusFail, 3*time.Millisecond)
	divides.FailureMessage = "division by zero"
	divides.Failure = &fassert.Failure{Class: fassert.ClassAssert, Message: "division by zero", File: "math_test.go", Line: 12, Func: "divides"}
	finish(env, adds, types.StatusPass, 2*time.Millisecond)
	return env
}

func testBuilder() *ReportBuilder {
	return NewReportBuilder().WithRand(rand.New(rand.NewPCG(1, 2))).WithVersion("v1.1.8")
}

func TestBuildFromEnvironment(t *testing.T) {
	data := testBuilder().Build(fixtureEnv())

	assert.Equal(t, "run-1", data.RunID)
	assert.Equal(t, "v1.1.8", data.Version)
	assert.Equal(t, fixtureStart.Add(3*time.Second), data.Timestamp)
	assert.Equal(t, 3*time.Second, data.Duration)
	assert.Equal(t, "3s", data.DurationText)

	assert.Equal(t, ReportStats{Total: 5, Passed: 1, Failed: 1, Skipped: 1, Empty: 1, Timeouts: 1, PassRate: 20}, data.Stats)
	assert.Equal(t, "20.00%", data.PassRateText)
	assert.True(t, data.HasFailures)
	assert.True(t, data.HasTimeouts)

	require.Len(t, data.Suites, 2)
	assert.Equal(t, "io", data.Suites[0].Name)
	assert.Equal(t, types.StatusTimeout, data.Suites[0].Status)
	assert.Equal(t, 181*time.Second, data.Suites[0].Duration)
	assert.Equal(t, "math", data.Suites[1].Name)
	assert.Equal(t, types.StatusFail, data.Suites[1].Status)
	assert.Equal(t, 2, data.Suites[1].Stats.Total)
	assert.Equal(t, 50.0, data.Suites[1].Stats.PassRate)

	names := make([]string, len(data.AllCases))
	for i, c := range data.AllCases {
		names[i] = c.Name
		assert.Equal(t, i+1, c.ExecutionOrder)
	}
	assert.Equal(t, []string{"waits", "writes", "reads", "divides", "adds"}, names)

	assert.Equal(t, []string{"divides"}, data.FailedCaseNames)
	assert.Equal(t, []string{"waits"}, data.TimeoutCaseNames)
	require.Len(t, data.FailedCases, 1)
	failed := data.FailedCases[0]
	assert.Equal(t, "math", failed.Suite)
	assert.Equal(t, "division by zero", failed.FailureMessage)
	assert.Equal(t, "math_test.go:12 in divides", failed.Location)
	assert.Equal(t, "bug", failed.Tags)

	assert.Equal(t, mixedComment, data.Comment)
	assert.Contains(t, failureSuggestions, data.Suggestion)
	assert.Equal(t, insightLong, data.Insight)
	assert.Equal(t, TimeBreakdown{Seconds: 3}, data.Breakdown)
}

func TestBuildDoesNotModifyRun(t *testing.T) {
	env := fixtureEnv()
	before := env.Snapshot()
	statuses := map[string]types.Status{}
	for _, s := range env.Suites() {
		for _, c := range s.Cases() {
			statuses[c.Name] = c.Status
		}
	}

	testBuilder().Build(env)
	testBuilder().Build(env)

	assert.Equal(t, before, env.Counters)
	for _, s := range env.Suites() {
		for _, c := range s.Cases() {
			assert.Equal(t, statuses[c.Name], c.Status, c.Name)
		}
	}
}

func TestBuildDryRun(t *testing.T) {
	opts := types.DefaultOptions()
	opts.DryRun = true
	env := types.NewEnvironment(opts)
	env.RegisterSuite(types.NewSuite("untouched"))

	data := testBuilder().Build(env)
	assert.True(t, data.DryRun)
	assert.Empty(t, data.Comment)
	assert.Empty(t, data.Suggestion)
	assert.Empty(t, data.Insight)
	assert.False(t, data.Timestamp.IsZero())
	require.Len(t, data.Suites, 1)
	assert.Equal(t, types.StatusPending, data.Suites[0].Status)
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name     string
		counters types.Counters
		expected Analysis
	}{
		{
			name:     "nothing rated",
			counters: types.Counters{Empty: 3, Total: 3},
			expected: Analysis{},
		},
		{
			name:     "all passed",
			counters: types.Counters{Pass: 4, Total: 4},
			expected: Analysis{SuccessRate: 100, Probability: 1, Average: 25, Prediction: 100},
		},
		{
			name:     "empty cases are not rated",
			counters: types.Counters{Pass: 1, Fail: 1, Skip: 1, Timeout: 1, Empty: 6, Total: 10},
			expected: Analysis{SuccessRate: 25, FailureRate: 25, SkipRate: 25, TimeoutRate: 25, Probability: 0.25, Average: 25, Prediction: 25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Analyze(tt.counters))
		})
	}
}

func TestCommentSelection(t *testing.T) {
	tests := []struct {
		name     string
		counters types.Counters
		pool     []string
	}{
		{"nothing ran", types.Counters{Skip: 2}, sarcasticComments},
		{"all passed", types.Counters{Pass: 2, Skip: 1}, greatNewsComments},
		{"failures", types.Counters{Pass: 2, Fail: 1}, humorousComments},
		{"timeouts", types.Counters{Pass: 2, Timeout: 1}, timeoutComments},
		{"failures and timeouts", types.Counters{Fail: 1, Timeout: 1}, []string{mixedComment}},
	}

	rb := testBuilder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.pool, rb.comment(tt.counters))
		})
	}
}

func TestSuggestionSelection(t *testing.T) {
	tests := []struct {
		name     string
		counters types.Counters
		pool     []string
	}{
		{"only empty", types.Counters{Empty: 2}, emptySuiteSuggestions},
		{"failures", types.Counters{Pass: 1, Fail: 1, Timeout: 1}, failureSuggestions},
		{"timeouts", types.Counters{Pass: 1, Timeout: 1}, timeoutSuggestions},
		{"passes", types.Counters{Pass: 3, Skip: 1}, successSuggestions},
		{"only skips", types.Counters{Skip: 3}, []string{skippedSuggestion}},
	}

	rb := testBuilder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.pool, rb.suggestion(tt.counters))
		})
	}
}

func TestInsight(t *testing.T) {
	assert.Equal(t, insightVeryLong, insight(6*time.Second))
	assert.Equal(t, insightLong, insight(5*time.Second))
	assert.Equal(t, "", insight(time.Second))
	assert.Equal(t, "", insight(200*time.Millisecond))
	assert.Equal(t, insightShort, insight(199*time.Millisecond))
}

func TestTimeBreakdown(t *testing.T) {
	d := time.Second + 234*time.Millisecond + 567*time.Microsecond + 890*time.Nanosecond
	b := NewTimeBreakdown(d)
	assert.Equal(t, TimeBreakdown{Seconds: 1, Milliseconds: 234, Microseconds: 567, Nanoseconds: 890}, b)
	assert.Equal(t, "(01) sec, (234) ms, (000567) us, (000000890) ns", b.String())
}

func TestDetermineStatus(t *testing.T) {
	assert.Equal(t, types.StatusPending, determineStatus(ReportStats{}))
	assert.Equal(t, types.StatusFail, determineStatus(ReportStats{Total: 2, Failed: 1, Timeouts: 1}))
	assert.Equal(t, types.StatusTimeout, determineStatus(ReportStats{Total: 2, Passed: 1, Timeouts: 1}))
	assert.Equal(t, types.StatusPass, determineStatus(ReportStats{Total: 2, Passed: 1, Skipped: 1}))
	assert.Equal(t, types.StatusSkip, determineStatus(ReportStats{Total: 2, Skipped: 1, Empty: 1}))
	assert.Equal(t, types.StatusEmpty, determineStatus(ReportStats{Total: 1, Empty: 1}))
}
