package fossil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/fossillogic/fossil-test/flags"
	"github.com/fossillogic/fossil-test/types"
)

// Config holds the application configuration
type Config struct {
	Options          types.Options
	Groups           []string      // Test groups to import, all when empty
	ConfigFile       string        // Config file the options were read from, if any
	LogDir           string        // Directory for run artifacts, disabled when empty
	MetricsFile      string        // Prometheus textfile written after the run, disabled when empty
	ShowProgress     bool          // Whether to log periodic progress updates
	ProgressInterval time.Duration // Interval between progress updates
	MetricsConfig    opmetrics.CLIConfig
	Log              log.Logger
}

// FileConfig is the layout of a yaml or toml config file. Unset keys leave
// the defaults alone.
type FileConfig struct {
	Info        *bool    `yaml:"info" toml:"info"`
	Reverse     *bool    `yaml:"reverse" toml:"reverse"`
	Shuffle     *bool    `yaml:"shuffle" toml:"shuffle"`
	Seed        *uint64  `yaml:"seed" toml:"seed"`
	Repeat      *int     `yaml:"repeat" toml:"repeat"`
	DryRun      *bool    `yaml:"dry_run" toml:"dry_run"`
	FailFast    *bool    `yaml:"fail_fast" toml:"fail_fast"`
	Quiet       *bool    `yaml:"quiet" toml:"quiet"`
	Color       string   `yaml:"color" toml:"color"`
	Format      string   `yaml:"format" toml:"format"`
	Timeout     string   `yaml:"timeout" toml:"timeout"`
	OnlyTags    []string `yaml:"only_tags" toml:"only_tags"`
	Groups      []string `yaml:"groups" toml:"groups"`
	LogDir      string   `yaml:"log_dir" toml:"log_dir"`
	MetricsFile string   `yaml:"metrics_file" toml:"metrics_file"`
}

// LoadFileConfig reads a config file. The format is picked from the
// extension: .yaml/.yml or .toml.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("failed to parse yaml config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &fc); err != nil {
			return nil, fmt.Errorf("failed to parse toml config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (want .yaml, .yml or .toml)", ext)
	}
	return &fc, nil
}

// Apply overlays the file settings onto cfg
func (fc *FileConfig) Apply(cfg *Config) error {
	opts := &cfg.Options
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setBool(&opts.ShowInfo, fc.Info)
	setBool(&opts.Reverse, fc.Reverse)
	setBool(&opts.Shuffle, fc.Shuffle)
	setBool(&opts.DryRun, fc.DryRun)
	setBool(&opts.FailFast, fc.FailFast)
	setBool(&opts.Quiet, fc.Quiet)

	if fc.Seed != nil {
		opts.Seed = *fc.Seed
		opts.HasSeed = true
	}
	if fc.Repeat != nil {
		opts.Repeat = true
		opts.RepeatCount = *fc.Repeat
	}
	if fc.Color != "" {
		mode, err := types.ParseColorMode(fc.Color)
		if err != nil {
			return err
		}
		opts.Color = mode
	}
	if fc.Format != "" {
		format, err := types.ParseFormat(fc.Format)
		if err != nil {
			return err
		}
		opts.Format = format
	}
	if fc.Timeout != "" {
		timeout, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", fc.Timeout, err)
		}
		opts.Timeout = timeout
	}
	if len(fc.OnlyTags) > 0 {
		tags, err := types.ParseTags(strings.Join(fc.OnlyTags, ","))
		if err != nil {
			return err
		}
		opts.OnlyTags = tags
	}
	if len(fc.Groups) > 0 {
		cfg.Groups = fc.Groups
	}
	if fc.LogDir != "" {
		cfg.LogDir = fc.LogDir
	}
	if fc.MetricsFile != "" {
		cfg.MetricsFile = fc.MetricsFile
	}
	return nil
}

// NewConfig creates a new Config from cli context. Settings are layered as
// defaults, then the config file, then positional commands, then flags that
// were set explicitly.
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	cfg := &Config{
		Options:          types.DefaultOptions(),
		ProgressInterval: flags.ProgressInterval.Value,
		Log:              log,
	}

	if path := ctx.String(flags.ConfigFile.Name); path != "" {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return nil, err
		}
		if err := fc.Apply(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
	}

	commands, err := flags.ParseCommands(ctx.Args().Slice())
	if err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}
	commands.Apply(&cfg.Options)

	if err := applyFlags(ctx, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	cfg.MetricsConfig = opmetrics.ReadCLIConfig(ctx)
	if err := cfg.MetricsConfig.Check(); err != nil {
		return nil, fmt.Errorf("invalid metrics config: %w", err)
	}

	if cfg.LogDir != "" {
		cfg.LogDir, err = filepath.Abs(cfg.LogDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", cfg.LogDir, err)
		}
	}
	return cfg, nil
}

// applyFlags copies the explicitly set flags onto cfg
func applyFlags(ctx *cli.Context, cfg *Config) error {
	opts := &cfg.Options
	bools := []struct {
		flag *cli.BoolFlag
		dst  *bool
	}{
		{flags.Info, &opts.ShowInfo},
		{flags.Reverse, &opts.Reverse},
		{flags.Shuffle, &opts.Shuffle},
		{flags.DryRun, &opts.DryRun},
		{flags.FailFast, &opts.FailFast},
		{flags.Quiet, &opts.Quiet},
		{flags.ShowProgress, &cfg.ShowProgress},
	}
	for _, b := range bools {
		if ctx.IsSet(b.flag.Name) {
			*b.dst = ctx.Bool(b.flag.Name)
		}
	}

	if ctx.IsSet(flags.Seed.Name) {
		opts.Seed = ctx.Uint64(flags.Seed.Name)
		opts.HasSeed = true
	}
	if ctx.IsSet(flags.Repeat.Name) {
		opts.Repeat = true
		opts.RepeatCount = ctx.Int(flags.Repeat.Name)
	}
	if ctx.IsSet(flags.Color.Name) {
		mode, err := types.ParseColorMode(ctx.String(flags.Color.Name))
		if err != nil {
			return err
		}
		opts.Color = mode
	}
	if ctx.IsSet(flags.Format.Name) {
		format, err := types.ParseFormat(ctx.String(flags.Format.Name))
		if err != nil {
			return err
		}
		opts.Format = format
	}
	if ctx.IsSet(flags.Timeout.Name) {
		opts.Timeout = ctx.Duration(flags.Timeout.Name)
	}
	if ctx.IsSet(flags.OnlyTags.Name) {
		tags, err := types.ParseTags(ctx.String(flags.OnlyTags.Name))
		if err != nil {
			return err
		}
		opts.OnlyTags = tags
	}
	if ctx.IsSet(flags.Groups.Name) {
		cfg.Groups = ctx.StringSlice(flags.Groups.Name)
	}
	if ctx.IsSet(flags.LogDir.Name) {
		cfg.LogDir = ctx.String(flags.LogDir.Name)
	}
	if ctx.IsSet(flags.MetricsFile.Name) {
		cfg.MetricsFile = ctx.String(flags.MetricsFile.Name)
	}
	if ctx.IsSet(flags.ProgressInterval.Name) {
		cfg.ProgressInterval = ctx.Duration(flags.ProgressInterval.Name)
	}
	return nil
}
