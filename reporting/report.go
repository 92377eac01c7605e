package reporting

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/fossillogic/fossil-test/types"
)

// ReportStats contains aggregated outcome counts for a run or a suite
type ReportStats struct {
	Total      int
	Passed     int
	Failed     int
	Skipped    int
	Empty      int
	Timeouts   int
	Unexpected int
	PassRate   float64
}

// Analysis holds the derived rates of a run. Rates are percentages over the
// cases that produced a verdict (pass, fail, skip, timeout); empty cases do
// not take part.
type Analysis struct {
	SuccessRate float64
	FailureRate float64
	SkipRate    float64
	TimeoutRate float64
	Probability float64 // pass ratio in [0,1]
	Average     float64 // mean of the four rates
	Prediction  float64 // expected future success rate
}

// TimeBreakdown splits a duration into its second, millisecond, microsecond
// and nanosecond components
type TimeBreakdown struct {
	Seconds      int64
	Milliseconds int64
	Microseconds int64
	Nanoseconds  int64
}

// ReportCaseItem represents a single case in the report
type ReportCaseItem struct {
	Name           string
	Suite          string
	Status         types.Status
	Mark           types.Mark
	Tags           string
	Priority       int
	Duration       time.Duration
	Iterations     int
	Assertions     int
	FailureMessage string
	Location       string
	ExecutionOrder int
}

// ReportSuite represents a suite and its cases in execution order
type ReportSuite struct {
	Name     string
	Status   types.Status
	Duration time.Duration
	Stats    ReportStats
	Cases    []ReportCaseItem
}

// ReportData contains all the structured data needed for any report format
type ReportData struct {
	// Run information
	RunID        string
	Version      string
	Timestamp    time.Time
	Duration     time.Duration
	DurationText string
	DryRun       bool

	// Overall statistics
	Stats        ReportStats
	Analysis     Analysis
	PassRateText string
	HasFailures  bool
	HasTimeouts  bool

	Suites []ReportSuite

	// Flat lists
	AllCases     []ReportCaseItem
	FailedCases  []ReportCaseItem
	TimeoutCases []ReportCaseItem

	FailedCaseNames  []string
	TimeoutCaseNames []string

	// Commentary
	Comment    string
	Suggestion string
	Insight    string
	Breakdown  TimeBreakdown
}

// ReportBuilder constructs ReportData from an Environment
type ReportBuilder struct {
	rng     *rand.Rand
	version string
}

// NewReportBuilder creates a new report builder
func NewReportBuilder() *ReportBuilder {
	seed := uint64(time.Now().UnixNano())
	return &ReportBuilder{
		rng: rand.New(rand.NewPCG(seed, seed>>1)),
	}
}

// WithRand sets the source used to pick comments and suggestions
func (rb *ReportBuilder) WithRand(rng *rand.Rand) *ReportBuilder {
	rb.rng = rng
	return rb
}

// WithVersion sets the framework version shown in reports
func (rb *ReportBuilder) WithVersion(version string) *ReportBuilder {
	rb.version = version
	return rb
}

// Build creates a ReportData from a finished run. Overall counts come from
// the environment counters; per-suite rows are derived by scanning case
// statuses, and neither the environment nor the cases are modified.
func (rb *ReportBuilder) Build(env *types.Environment) *ReportData {
	data := &ReportData{
		RunID:     env.RunID,
		Version:   rb.version,
		Timestamp: env.EndTime,
		Duration:  env.Duration(),
		DryRun:    env.Options.DryRun,
		Stats:     statsFromCounters(env.Counters),
		Analysis:  Analyze(env.Counters),
	}
	if data.Timestamp.IsZero() {
		data.Timestamp = time.Now()
	}
	data.DurationText = formatDuration(data.Duration)
	data.PassRateText = fmt.Sprintf("%.2f%%", data.Stats.PassRate)
	data.HasFailures = data.Stats.Failed > 0
	data.HasTimeouts = data.Stats.Timeouts > 0
	data.Breakdown = NewTimeBreakdown(data.Duration)

	order := 0
	for _, suite := range env.Suites() {
		rs := ReportSuite{
			Name:     suite.Name,
			Duration: suite.TotalExecutionTime,
			Stats:    statsFromCounters(suite.Stats()),
		}
		for _, tc := range suite.Cases() {
			order++
			item := rb.createCaseItem(suite.Name, tc, order)
			rs.Cases = append(rs.Cases, item)
			data.AllCases = append(data.AllCases, item)

			switch tc.Status {
			case types.StatusFail:
				data.FailedCases = append(data.FailedCases, item)
				data.FailedCaseNames = append(data.FailedCaseNames, item.Name)
			case types.StatusTimeout:
				data.TimeoutCases = append(data.TimeoutCases, item)
				data.TimeoutCaseNames = append(data.TimeoutCaseNames, item.Name)
			}
		}
		rs.Status = determineStatus(rs.Stats)
		data.Suites = append(data.Suites, rs)
	}

	if !data.DryRun {
		data.Comment = rb.comment(env.Counters)
		data.Suggestion = rb.suggestion(env.Counters)
		data.Insight = insight(data.Duration)
	}
	return data
}

func (rb *ReportBuilder) createCaseItem(suite string, tc *types.Case, order int) ReportCaseItem {
	return ReportCaseItem{
		Name:           tc.Name,
		Suite:          suite,
		Status:         tc.Status,
		Mark:           tc.Mark,
		Tags:           tc.TagList(),
		Priority:       tc.Priority,
		Duration:       tc.ExecutionTime,
		Iterations:     tc.Iterations,
		Assertions:     tc.Assertions,
		FailureMessage: tc.FailureMessage,
		Location:       tc.Location(),
		ExecutionOrder: order,
	}
}

func (rb *ReportBuilder) pick(pool []string) string {
	return pool[rb.rng.IntN(len(pool))]
}

func (rb *ReportBuilder) comment(c types.Counters) string {
	switch {
	case c.Pass == 0 && c.Fail == 0 && c.Timeout == 0:
		return rb.pick(sarcasticComments)
	case c.Fail > 0 && c.Timeout > 0:
		return mixedComment
	case c.Fail > 0:
		return rb.pick(humorousComments)
	case c.Timeout > 0:
		return rb.pick(timeoutComments)
	default:
		return rb.pick(greatNewsComments)
	}
}

func (rb *ReportBuilder) suggestion(c types.Counters) string {
	switch {
	case c.Pass == 0 && c.Fail == 0 && c.Skip == 0 && c.Timeout == 0:
		return rb.pick(emptySuiteSuggestions)
	case c.Fail > 0:
		return rb.pick(failureSuggestions)
	case c.Timeout > 0:
		return rb.pick(timeoutSuggestions)
	case c.Pass > 0:
		return rb.pick(successSuggestions)
	default:
		return skippedSuggestion
	}
}

func insight(d time.Duration) string {
	switch {
	case d > 5*time.Second:
		return insightVeryLong
	case d > 2*time.Second:
		return insightLong
	case d < 200*time.Millisecond:
		return insightShort
	}
	return ""
}

// Analyze computes the run rates from the counters. With nothing to rate
// every value is zero.
func Analyze(c types.Counters) Analysis {
	rated := c.Pass + c.Fail + c.Skip + c.Timeout
	if rated == 0 {
		return Analysis{}
	}
	pct := func(n int) float64 { return float64(n) / float64(rated) * 100 }

	a := Analysis{
		SuccessRate: pct(c.Pass),
		FailureRate: pct(c.Fail),
		SkipRate:    pct(c.Skip),
		TimeoutRate: pct(c.Timeout),
		Probability: float64(c.Pass) / float64(rated),
	}
	a.Average = (a.SuccessRate + a.FailureRate + a.SkipRate + a.TimeoutRate) / 4
	a.Prediction = a.SuccessRate
	return a
}

// NewTimeBreakdown splits d into its components
func NewTimeBreakdown(d time.Duration) TimeBreakdown {
	return TimeBreakdown{
		Seconds:      int64(d / time.Second),
		Milliseconds: int64(d % time.Second / time.Millisecond),
		Microseconds: int64(d % time.Millisecond / time.Microsecond),
		Nanoseconds:  int64(d % time.Microsecond),
	}
}

func (b TimeBreakdown) String() string {
	return fmt.Sprintf("(%02d) sec, (%03d) ms, (%06d) us, (%09d) ns",
		b.Seconds, b.Milliseconds, b.Microseconds, b.Nanoseconds)
}

func statsFromCounters(c types.Counters) ReportStats {
	s := ReportStats{
		Total:      c.Total,
		Passed:     c.Pass,
		Failed:     c.Fail,
		Skipped:    c.Skip,
		Empty:      c.Empty,
		Timeouts:   c.Timeout,
		Unexpected: c.Unexpected,
	}
	if s.Total > 0 {
		s.PassRate = float64(s.Passed) / float64(s.Total) * 100
	}
	return s
}

// determineStatus collapses suite stats into a single status
func determineStatus(stats ReportStats) types.Status {
	switch {
	case stats.Failed > 0:
		return types.StatusFail
	case stats.Timeouts > 0:
		return types.StatusTimeout
	case stats.Total == 0:
		return types.StatusPending
	case stats.Passed > 0:
		return types.StatusPass
	case stats.Skipped > 0:
		return types.StatusSkip
	default:
		return types.StatusEmpty
	}
}
