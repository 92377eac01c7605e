package fossil

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/log"

	"github.com/fossillogic/fossil-test/reporting"
	"github.com/fossillogic/fossil-test/types"
	"github.com/fossillogic/fossil-test/ui"
)

// ResultFormatter is responsible for formatting and displaying test results.
type ResultFormatter interface {
	FormatResults(env *types.Environment) (*reporting.ReportData, error)
}

// ConsoleResultFormatter implements the ResultFormatter interface.
type ConsoleResultFormatter struct {
	logger    log.Logger
	generator *reporting.ReportGenerator
}

// NewConsoleResultFormatter creates a formatter printing the summary of a
// run to out in the format selected by the options.
func NewConsoleResultFormatter(logger log.Logger, out io.Writer, opts types.Options, version string) (*ConsoleResultFormatter, error) {
	formatter, err := reporting.NewFormatter(opts.Format, ui.ResolveColor(opts.Color, out))
	if err != nil {
		return nil, err
	}
	builder := reporting.NewReportBuilder().WithVersion(version)
	return &ConsoleResultFormatter{
		logger:    logger,
		generator: reporting.NewReportGenerator(builder, formatter, reporting.NewStreamWriter(out)),
	}, nil
}

// FormatResults formats and displays the summary of a finished run.
func (f *ConsoleResultFormatter) FormatResults(env *types.Environment) (*reporting.ReportData, error) {
	f.logger.Debug("Printing results...", "format", env.Options.Format)
	data, err := f.generator.Generate(env)
	if err != nil {
		return nil, fmt.Errorf("failed to print summary: %w", err)
	}
	return data, nil
}
