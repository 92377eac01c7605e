package flags

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/fossillogic/fossil-test/types"
)

const EnvVarPrefix = "FOSSIL_TEST"

var (
	Info = &cli.BoolFlag{
		Name:    "info",
		Usage:   "Show suite lines and passing, skipped and empty cases while running",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "INFO"),
	}
	Reverse = &cli.BoolFlag{
		Name:    "reverse",
		Usage:   "Run the cases of every suite in reverse order",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REVERSE"),
	}
	Shuffle = &cli.BoolFlag{
		Name:    "shuffle",
		Usage:   "Run the cases of every suite in random order",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SHUFFLE"),
	}
	Seed = &cli.Uint64Flag{
		Name:    "seed",
		Usage:   "Seed for --shuffle. A clock based seed is used when unset",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SEED"),
	}
	Repeat = &cli.IntFlag{
		Name:    "repeat",
		Usage:   fmt.Sprintf("Run every case this many times (%d-%d)", types.MinRepeat, types.MaxRepeat),
		Value:   types.MinRepeat,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPEAT"),
		Action:  validateRepeat,
	}
	DryRun = &cli.BoolFlag{
		Name:    "dry-run",
		Usage:   "Announce the run without executing any case",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "DRY_RUN"),
	}
	FailFast = &cli.BoolFlag{
		Name:    "fail-fast",
		Usage:   "Accepted for compatibility, the run always continues after a failure",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FAIL_FAST"),
	}
	Quiet = &cli.BoolFlag{
		Name:    "quiet",
		Usage:   "Print only notices and the summary",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "QUIET"),
	}
	Color = &cli.StringFlag{
		Name:    "color",
		Usage:   "Colored console output: auto, on or off",
		Value:   string(types.ColorAuto),
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "COLOR"),
		Action:  validateColor,
	}
	Format = &cli.StringFlag{
		Name:    "format",
		Usage:   fmt.Sprintf("Summary format: %s", formatNames()),
		Value:   string(types.FormatPlain),
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "FORMAT"),
		Action:  validateFormat,
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Usage:   "Per-case time limit, checked between repeat iterations",
		Value:   types.DefaultTimeout,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TIMEOUT"),
		Action:  validateTimeout,
	}
	OnlyTags = &cli.StringFlag{
		Name:    "only-tags",
		Usage:   "Comma separated tags. Cases without one of them are skipped",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "ONLY_TAGS"),
		Action:  validateTags,
	}
	Groups = &cli.StringSliceFlag{
		Name:    "group",
		Usage:   "Import only the named test groups. All registered groups are imported when unset",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "GROUP"),
	}
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Usage:   "Path to a yaml or toml file with run options",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONFIG"),
	}
	LogDir = &cli.StringFlag{
		Name:    "log-dir",
		Usage:   "Directory for per-run artifacts (case logs, results.jsonl, summary). Disabled when empty",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOG_DIR"),
	}
	MetricsFile = &cli.StringFlag{
		Name:    "metrics-file",
		Usage:   "Write the run metrics to this file in the prometheus textfile format. Disabled when empty",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "METRICS_FILE"),
	}
	ShowProgress = &cli.BoolFlag{
		Name:    "progress",
		Usage:   "Log periodic progress updates while the run is in flight",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PROGRESS"),
	}
	ProgressInterval = &cli.DurationFlag{
		Name:    "progress-interval",
		Usage:   "Interval between progress updates when --progress is set",
		Value:   30 * time.Second,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PROGRESS_INTERVAL"),
	}
)

var optionalFlags = []cli.Flag{
	Info,
	Reverse,
	Shuffle,
	Seed,
	Repeat,
	DryRun,
	FailFast,
	Quiet,
	Color,
	Format,
	Timeout,
	OnlyTags,
	Groups,
	ConfigFile,
	LogDir,
	MetricsFile,
	ShowProgress,
	ProgressInterval,
}

var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = optionalFlags
}

func validateRepeat(_ *cli.Context, v int) error {
	if v < types.MinRepeat || v > types.MaxRepeat {
		return fmt.Errorf("repeat must be between %d and %d, got %d", types.MinRepeat, types.MaxRepeat, v)
	}
	return nil
}

func validateColor(_ *cli.Context, v string) error {
	_, err := types.ParseColorMode(v)
	return err
}

func validateFormat(_ *cli.Context, v string) error {
	_, err := types.ParseFormat(v)
	return err
}

func validateTimeout(_ *cli.Context, v time.Duration) error {
	if v <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", v)
	}
	return nil
}

func validateTags(_ *cli.Context, v string) error {
	_, err := types.ParseTags(v)
	return err
}

func formatNames() string {
	names := make([]string, len(types.Formats))
	for i, f := range types.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
