package fossil

import (
	"github.com/ethereum/go-ethereum/log"

	"github.com/fossillogic/fossil-test/metrics"
	"github.com/fossillogic/fossil-test/types"
)

// MetricsReporter is responsible for exporting metrics of a finished run.
type MetricsReporter interface {
	ReportResults(env *types.Environment)
}

// DefaultMetricsReporter implements the MetricsReporter interface.
type DefaultMetricsReporter struct {
	textfile string
	logger   log.Logger
}

// NewDefaultMetricsReporter creates a new DefaultMetricsReporter. When
// textfile is not empty the registry is written there after each run.
func NewDefaultMetricsReporter(textfile string, logger log.Logger) *DefaultMetricsReporter {
	return &DefaultMetricsReporter{
		textfile: textfile,
		logger:   logger,
	}
}

// ReportResults writes the textfile holding the metrics of the run. A failed
// write is logged and does not affect the run outcome.
func (r *DefaultMetricsReporter) ReportResults(env *types.Environment) {
	if r.textfile == "" {
		return
	}
	if err := metrics.WriteTextfile(r.textfile); err != nil {
		r.logger.Warn("Failed to write metrics textfile", "path", r.textfile, "error", err)
		return
	}
	r.logger.Debug("Wrote metrics textfile", "path", r.textfile, "run_id", env.RunID)
}
