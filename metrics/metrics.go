package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/fossillogic/fossil-test/types"
)

const (
	MetricsNamespace = "fossil_test"
)

// Registry holds every runner metric. It is served by the metrics server and
// dumped by WriteTextfile.
var Registry = opmetrics.NewRegistry()

var (
	factory = promauto.With(Registry)

	Debug                bool = true
	validResults              = []types.Status{types.StatusPass, types.StatusFail, types.StatusSkip, types.StatusEmpty, types.StatusTimeout}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	casesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "cases_total",
		Help:      "Count of executed test cases",
	}, []string{
		"run_id",
		"suite",
		"result",
	})

	caseDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "case_duration_seconds",
		Help:      "Execution time of test cases",
		Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 0.2, 1, 2, 5, 30, 180},
	}, []string{
		"suite",
	})

	duplicateFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "duplicate_failures_total",
		Help:      "Count of assertion failures repeated from the same call site",
	}, []string{
		"run_id",
	})

	runResults = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Outcome counts of the last run",
	}, []string{
		"run_id",
		"result",
	})

	runDuration = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of the last run",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordCase counts a finished case and observes its execution time
func RecordCase(runID string, suite string, result types.Status, elapsed time.Duration) {
	if !isValidResult(result) {
		log.Error("RecordCase - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "cases_total",
			"run_id", runID,
			"suite", suite,
			"result", result)
	}
	casesTotal.WithLabelValues(runID, suite, strings.ToLower(result.String())).Inc()
	caseDuration.WithLabelValues(suite).Observe(elapsed.Seconds())
}

func RecordDuplicateFailure(runID string) {
	duplicateFailures.WithLabelValues(runID).Inc()
}

// RecordRun publishes the counters of a finished run
func RecordRun(runID string, counters types.Counters, duration time.Duration) {
	runResults.WithLabelValues(runID, "pass").Set(float64(counters.Pass))
	runResults.WithLabelValues(runID, "fail").Set(float64(counters.Fail))
	runResults.WithLabelValues(runID, "skip").Set(float64(counters.Skip))
	runResults.WithLabelValues(runID, "empty").Set(float64(counters.Empty))
	runResults.WithLabelValues(runID, "timeout").Set(float64(counters.Timeout))
	runResults.WithLabelValues(runID, "unexpected").Set(float64(counters.Unexpected))
	runResults.WithLabelValues(runID, "total").Set(float64(counters.Total))
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

// WriteTextfile dumps Registry in the node-exporter textfile format
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		RecordErrorDetails("metrics_textfile", err)
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

func isValidResult(result types.Status) bool {
	return slices.Contains(validResults, result)
}
