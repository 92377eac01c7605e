package reporting

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/fossillogic/fossil-test/types"
	"github.com/fossillogic/fossil-test/ui"
)

const summaryTitle = "Fossil Test Summary"

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Millisecond).String()
}

// ReportFormatter defines the interface for different report output formats
type ReportFormatter interface {
	Format(data *ReportData) (string, error)
}

// NewFormatter returns the formatter for the given summary format
func NewFormatter(format types.Format, color bool) (ReportFormatter, error) {
	switch format {
	case types.FormatPlain, "":
		return NewTextSummaryFormatter(true), nil
	case types.FormatTable:
		return NewTableFormatter(summaryTitle, true, color), nil
	case types.FormatChart:
		return NewChartFormatter(color), nil
	case types.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case types.FormatJellyfish:
		return NewJellyfishFormatter(), nil
	}
	return nil, fmt.Errorf("no formatter for format %q", format)
}

// ReportWriter defines the interface for writing reports to various destinations
type ReportWriter interface {
	Write(content string) error
}

// FileWriter writes reports to a file
type FileWriter struct {
	path string
}

// NewFileWriter creates a new file writer
func NewFileWriter(path string) *FileWriter {
	return &FileWriter{path: path}
}

// Write writes the content to the file
func (fw *FileWriter) Write(content string) error {
	return os.WriteFile(fw.path, []byte(content), 0644)
}

// StreamWriter writes reports to an output stream
type StreamWriter struct {
	out io.Writer
}

// NewStreamWriter creates a writer that prints reports to out
func NewStreamWriter(out io.Writer) *StreamWriter {
	return &StreamWriter{out: out}
}

// Write writes the content to the stream
func (sw *StreamWriter) Write(content string) error {
	_, err := io.WriteString(sw.out, content)
	return err
}

// writeAnalysis appends the rate section shared by the text based formats.
// Rate lines with nothing to report are left out.
func writeAnalysis(sb *strings.Builder, data *ReportData, indent string) {
	a, s := data.Analysis, data.Stats
	if s.Passed > 0 {
		fmt.Fprintf(sb, "%sSuccess rate: %.2f%%\n", indent, a.SuccessRate)
	}
	if s.Failed > 0 {
		fmt.Fprintf(sb, "%sFailure rate: %.2f%%\n", indent, a.FailureRate)
	}
	if s.Timeouts > 0 {
		fmt.Fprintf(sb, "%sTimeout tests: %.2f%% (%d tests)\n", indent, a.TimeoutRate, s.Timeouts)
	}
	if s.Skipped > 0 {
		fmt.Fprintf(sb, "%sSkipped tests: %.2f%% (%d tests)\n", indent, a.SkipRate, s.Skipped)
	}
	fmt.Fprintf(sb, "%sProbability of success: %.2f\n", indent, a.Probability)
	fmt.Fprintf(sb, "%sAverage test rate: %.2f%%\n", indent, a.Average)
	fmt.Fprintf(sb, "%sPrediction (Future Success Rate): %.2f%%\n", indent, a.Prediction)
	if s.Skipped > 0 {
		fmt.Fprintf(sb, "%sNote: %d tests were skipped.\n", indent, s.Skipped)
	}
}

// TextSummaryFormatter formats reports as plain text summaries
type TextSummaryFormatter struct {
	includeDetails bool
}

// NewTextSummaryFormatter creates a new text summary formatter
func NewTextSummaryFormatter(includeDetails bool) *TextSummaryFormatter {
	return &TextSummaryFormatter{
		includeDetails: includeDetails,
	}
}

// Format formats the report data as a text summary
func (tsf *TextSummaryFormatter) Format(data *ReportData) (string, error) {
	var summary strings.Builder

	fmt.Fprintf(&summary, "%s\n", summaryTitle)
	fmt.Fprintf(&summary, "%s\n", strings.Repeat("=", len(summaryTitle)))
	fmt.Fprintf(&summary, "Run ID: %s\n", data.RunID)
	if data.Version != "" {
		fmt.Fprintf(&summary, "Version: %s\n", data.Version)
	}
	fmt.Fprintf(&summary, "Time: %s\n", data.Timestamp.Format(time.RFC3339))

	if data.DryRun {
		fmt.Fprintf(&summary, "\n%s\n", ui.DryRunSummaryNotice)
		return summary.String(), nil
	}
	fmt.Fprintf(&summary, "Duration: %s\n\n", data.DurationText)

	if data.HasTimeouts {
		fmt.Fprintf(&summary, "WARNING: %d TEST(S) TIMED OUT!\n\n", data.Stats.Timeouts)
	}

	fmt.Fprintf(&summary, "Results:\n")
	fmt.Fprintf(&summary, "  Total:    %d\n", data.Stats.Total)
	fmt.Fprintf(&summary, "  Passed:   %d\n", data.Stats.Passed)
	fmt.Fprintf(&summary, "  Failed:   %d\n", data.Stats.Failed)
	fmt.Fprintf(&summary, "  Skipped:  %d\n", data.Stats.Skipped)
	fmt.Fprintf(&summary, "  Empty:    %d\n", data.Stats.Empty)
	fmt.Fprintf(&summary, "  Timeouts: %d\n", data.Stats.Timeouts)
	if data.Stats.Unexpected > 0 {
		fmt.Fprintf(&summary, "  Unexpected: %d\n", data.Stats.Unexpected)
	}
	fmt.Fprintf(&summary, "\n")

	fmt.Fprintf(&summary, "Analysis:\n")
	writeAnalysis(&summary, data, "  ")
	fmt.Fprintf(&summary, "\n")

	if len(data.TimeoutCases) > 0 {
		fmt.Fprintf(&summary, "Timed out cases:\n")
		for _, tc := range data.TimeoutCases {
			fmt.Fprintf(&summary, "  - %s (%s)\n", tc.Name, formatDuration(tc.Duration))
		}
		fmt.Fprintf(&summary, "\n")
	}

	if len(data.FailedCases) > 0 {
		fmt.Fprintf(&summary, "Failed cases:\n")
		for _, tc := range data.FailedCases {
			fmt.Fprintf(&summary, "  Test '%s' failed: %s\n", tc.Name, tc.FailureMessage)
			if tc.Location != "" {
				fmt.Fprintf(&summary, "    at %s\n", tc.Location)
			}
		}
		fmt.Fprintf(&summary, "\n")
	}

	if tsf.includeDetails && len(data.Suites) > 0 {
		fmt.Fprintf(&summary, "Details:\n")
		for i, suite := range data.Suites {
			lastSuite := i == len(data.Suites)-1
			fmt.Fprintf(&summary, "%s%s (%s) [%s]\n",
				ui.BuildTreePrefix(1, lastSuite, nil), suite.Name, formatDuration(suite.Duration), suite.Status)
			for j, tc := range suite.Cases {
				prefix := ui.BuildTreePrefix(2, j == len(suite.Cases)-1, []bool{lastSuite})
				fmt.Fprintf(&summary, "%s%s (%s) [%s]\n", prefix, tc.Name, formatDuration(tc.Duration), tc.Status)
			}
		}
		fmt.Fprintf(&summary, "\n")
	}

	fmt.Fprintf(&summary, "Execution time: %s\n", data.Breakdown)
	if data.Insight != "" {
		fmt.Fprintf(&summary, "Insight: %s\n", data.Insight)
	}
	fmt.Fprintf(&summary, "Comment: %s\n", data.Comment)
	fmt.Fprintf(&summary, "Suggestion: %s\n", data.Suggestion)

	return summary.String(), nil
}

// TableFormatter formats reports as ASCII tables
type TableFormatter struct {
	showCases bool
	title     string
	color     bool
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(title string, showCases, color bool) *TableFormatter {
	return &TableFormatter{
		showCases: showCases,
		title:     title,
		color:     color,
	}
}

// Format formats the report data as an ASCII table followed by the analysis
func (tf *TableFormatter) Format(data *ReportData) (string, error) {
	if data.DryRun {
		return fmt.Sprintf("%s\n%s\n", tf.title, ui.DryRunSummaryNotice), nil
	}

	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(tf.title)

	t.AppendHeader(table.Row{
		"Type", "Name", "Duration", "Cases", "Passed", "Failed", "Skipped", "Timeouts", "Status",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "Name", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Cases", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Timeouts", Align: text.AlignRight},
	})

	for _, suite := range data.Suites {
		t.AppendRow(table.Row{
			"Suite",
			suite.Name,
			formatDuration(suite.Duration),
			suite.Stats.Total,
			suite.Stats.Passed,
			suite.Stats.Failed,
			suite.Stats.Skipped,
			suite.Stats.Timeouts,
			suite.Status.String(),
		})

		if tf.showCases {
			for i, tc := range suite.Cases {
				t.AppendRow(table.Row{
					"Case",
					ui.BuildTreePrefix(1, i == len(suite.Cases)-1, nil) + tc.Name,
					formatDuration(tc.Duration),
					"-",
					boolToInt(tc.Status == types.StatusPass),
					boolToInt(tc.Status == types.StatusFail),
					boolToInt(tc.Status == types.StatusSkip),
					boolToInt(tc.Status == types.StatusTimeout),
					tc.Status.String(),
				})
			}
		}
		t.AppendSeparator()
	}

	t.SetStyle(tf.style(data))

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		data.DurationText,
		data.Stats.Total,
		data.Stats.Passed,
		data.Stats.Failed,
		data.Stats.Skipped,
		data.Stats.Timeouts,
		overallStatus(data),
	})

	t.Render()

	var analysis strings.Builder
	writeAnalysis(&analysis, data, "")
	fmt.Fprintf(&analysis, "Comment: %s\n", data.Comment)
	fmt.Fprintf(&analysis, "Suggestion: %s\n", data.Suggestion)
	buf.WriteString(analysis.String())

	return buf.String(), nil
}

// style picks the table style from the overall result when color is enabled
func (tf *TableFormatter) style(data *ReportData) table.Style {
	if !tf.color {
		return table.StyleLight
	}
	switch {
	case data.HasFailures || data.HasTimeouts:
		return table.StyleColoredBlackOnRedWhite
	case data.Stats.Skipped > 0:
		return table.StyleColoredBlackOnYellowWhite
	default:
		return table.StyleColoredBlackOnGreenWhite
	}
}

func overallStatus(data *ReportData) string {
	switch {
	case data.HasFailures:
		return types.StatusFail.String()
	case data.HasTimeouts:
		return types.StatusTimeout.String()
	case data.Stats.Passed == 0 && data.Stats.Skipped > 0:
		return types.StatusSkip.String()
	}
	return types.StatusPass.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// chartWidth is the length of a full bar
const chartWidth = 40

// ChartFormatter renders the outcome distribution as horizontal bars
type ChartFormatter struct {
	color bool
}

// NewChartFormatter creates a new chart formatter
func NewChartFormatter(color bool) *ChartFormatter {
	return &ChartFormatter{color: color}
}

// Format formats the report data as a bar chart of outcomes and suites
func (cf *ChartFormatter) Format(data *ReportData) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n\n", summaryTitle, data.RunID)
	if data.DryRun {
		fmt.Fprintf(&sb, "%s\n", ui.DryRunSummaryNotice)
		return sb.String(), nil
	}

	rows := []struct {
		label  string
		count  int
		colors text.Colors
	}{
		{"PASS", data.Stats.Passed, text.Colors{text.FgGreen}},
		{"FAIL", data.Stats.Failed, text.Colors{text.FgRed}},
		{"SKIP", data.Stats.Skipped, text.Colors{text.FgYellow}},
		{"EMPTY", data.Stats.Empty, text.Colors{text.FgCyan}},
		{"TIMEOUT", data.Stats.Timeouts, text.Colors{text.FgHiYellow}},
	}
	for _, r := range rows {
		fmt.Fprintf(&sb, "%-8s |%s %d (%.1f%%)\n", r.label,
			cf.bar(r.count, data.Stats.Total, r.colors), r.count, percent(r.count, data.Stats.Total))
	}

	if len(data.Suites) > 0 {
		fmt.Fprintf(&sb, "\nPass rate per suite:\n")
		for _, suite := range data.Suites {
			fmt.Fprintf(&sb, "%-24s |%s %.1f%%\n", truncate(suite.Name, 24),
				cf.bar(suite.Stats.Passed, suite.Stats.Total, text.Colors{text.FgGreen}), suite.Stats.PassRate)
		}
	}

	fmt.Fprintf(&sb, "\nDuration: %s\n", data.DurationText)
	fmt.Fprintf(&sb, "Comment: %s\n", data.Comment)
	return sb.String(), nil
}

func (cf *ChartFormatter) bar(count, total int, colors text.Colors) string {
	n := 0
	if total > 0 {
		n = count * chartWidth / total
	}
	filled := strings.Repeat("█", n)
	if cf.color && n > 0 {
		filled = colors.Sprint(filled)
	}
	return filled + strings.Repeat(" ", chartWidth-n)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// MarkdownFormatter formats reports as markdown documents
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format formats the report data as markdown
func (mf *MarkdownFormatter) Format(data *ReportData) (string, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", summaryTitle)
	fmt.Fprintf(&sb, "- **Run ID**: `%s`\n", data.RunID)
	fmt.Fprintf(&sb, "- **Time**: %s\n", data.Timestamp.Format(time.RFC3339))
	if data.DryRun {
		fmt.Fprintf(&sb, "\n> %s\n", ui.DryRunSummaryNotice)
		return sb.String(), nil
	}
	fmt.Fprintf(&sb, "- **Duration**: %s\n", data.DurationText)
	fmt.Fprintf(&sb, "- **Pass rate**: %s\n\n", data.PassRateText)

	fmt.Fprintf(&sb, "## Suites\n\n")
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Suite", "Status", "Duration", "Cases", "Passed", "Failed", "Skipped", "Empty", "Timeouts"})
	for _, suite := range data.Suites {
		t.AppendRow(table.Row{
			suite.Name,
			suite.Status.String(),
			formatDuration(suite.Duration),
			suite.Stats.Total,
			suite.Stats.Passed,
			suite.Stats.Failed,
			suite.Stats.Skipped,
			suite.Stats.Empty,
			suite.Stats.Timeouts,
		})
	}
	t.AppendFooter(table.Row{
		"Total",
		overallStatus(data),
		data.DurationText,
		data.Stats.Total,
		data.Stats.Passed,
		data.Stats.Failed,
		data.Stats.Skipped,
		data.Stats.Empty,
		data.Stats.Timeouts,
	})
	sb.WriteString(t.RenderMarkdown())
	sb.WriteString("\n\n")

	if len(data.FailedCases) > 0 {
		fmt.Fprintf(&sb, "## Failed cases\n\n")
		for _, tc := range data.FailedCases {
			fmt.Fprintf(&sb, "- `%s` (%s): %s", tc.Name, tc.Suite, tc.FailureMessage)
			if tc.Location != "" {
				fmt.Fprintf(&sb, " at `%s`", tc.Location)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(data.TimeoutCases) > 0 {
		fmt.Fprintf(&sb, "## Timed out cases\n\n")
		for _, tc := range data.TimeoutCases {
			fmt.Fprintf(&sb, "- `%s` (%s) after %s\n", tc.Name, tc.Suite, formatDuration(tc.Duration))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "## Analysis\n\n")
	var analysis strings.Builder
	writeAnalysis(&analysis, data, "- ")
	sb.WriteString(analysis.String())
	if data.Insight != "" {
		fmt.Fprintf(&sb, "- %s\n", data.Insight)
	}
	fmt.Fprintf(&sb, "\n> %s\n>\n> %s\n", data.Comment, data.Suggestion)

	return sb.String(), nil
}

// jellyfishWidth is the outer width of the jellyfish summary box
const jellyfishWidth = 64

// JellyfishFormatter renders a boxed summary under a jellyfish
type JellyfishFormatter struct{}

// NewJellyfishFormatter creates a new jellyfish formatter
func NewJellyfishFormatter() *JellyfishFormatter {
	return &JellyfishFormatter{}
}

// Format formats the report data as a jellyfish summary
func (jf *JellyfishFormatter) Format(data *ReportData) (string, error) {
	var sb strings.Builder

	sb.WriteString("      .-\"\"\"-.\n")
	sb.WriteString("     /       \\\n")
	sb.WriteString("    |  o   o  |\n")
	sb.WriteString("     \\  ___  /\n")
	sb.WriteString("      '-...-'\n")
	sb.WriteString("      ( ( ( (\n")
	sb.WriteString("       ) ) ) )\n")

	sb.WriteString(ui.BuildBoxHeader(summaryTitle, jellyfishWidth))
	sb.WriteString(ui.BuildBoxLine("run: "+data.RunID, jellyfishWidth))
	if data.DryRun {
		sb.WriteString(ui.BuildBoxLine(ui.DryRunSummaryNotice, jellyfishWidth))
		sb.WriteString(ui.BuildBoxFooter(jellyfishWidth))
		return sb.String(), nil
	}

	lines := []string{
		fmt.Sprintf("pass: %d  fail: %d  skip: %d  empty: %d  timeout: %d",
			data.Stats.Passed, data.Stats.Failed, data.Stats.Skipped, data.Stats.Empty, data.Stats.Timeouts),
		fmt.Sprintf("total: %d  success: %.2f%%", data.Stats.Total, data.Analysis.SuccessRate),
		"time: " + data.Breakdown.String(),
	}
	for _, suite := range data.Suites {
		lines = append(lines, fmt.Sprintf("~ %s [%s] %d/%d", suite.Name, suite.Status, suite.Stats.Passed, suite.Stats.Total))
	}
	for _, tc := range data.FailedCases {
		lines = append(lines, fmt.Sprintf("x %s: %s", tc.Name, tc.FailureMessage))
	}
	for _, l := range lines {
		sb.WriteString(ui.BuildBoxLine(l, jellyfishWidth))
	}
	sb.WriteString(ui.BuildBoxFooter(jellyfishWidth))
	fmt.Fprintf(&sb, "  %s\n", data.Comment)

	return sb.String(), nil
}

// ReportGenerator combines builder, formatter, and writer for easy report generation
type ReportGenerator struct {
	builder   *ReportBuilder
	formatter ReportFormatter
	writer    ReportWriter
}

// NewReportGenerator creates a new report generator
func NewReportGenerator(builder *ReportBuilder, formatter ReportFormatter, writer ReportWriter) *ReportGenerator {
	return &ReportGenerator{
		builder:   builder,
		formatter: formatter,
		writer:    writer,
	}
}

// Generate builds a report from a finished run, formats it and writes it
func (rg *ReportGenerator) Generate(env *types.Environment) (*ReportData, error) {
	data := rg.builder.Build(env)
	return data, rg.GenerateReport(data)
}

// GenerateReport generates a report from pre-built report data
func (rg *ReportGenerator) GenerateReport(reportData *ReportData) error {
	content, err := rg.formatter.Format(reportData)
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}

	if err := rg.writer.Write(content); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}
