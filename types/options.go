package types

import (
	"fmt"
	"strings"
	"time"
)

// Format selects the summary renderer
type Format string

const (
	FormatPlain     Format = "plain"
	FormatChart     Format = "chart"
	FormatTable     Format = "table"
	FormatJellyfish Format = "jellyfish"
	FormatMarkdown  Format = "markdown"
)

var Formats = []Format{FormatPlain, FormatChart, FormatTable, FormatJellyfish, FormatMarkdown}

func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if strings.EqualFold(string(f), strings.TrimSpace(s)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of %s)", s, joinFormats())
}

func joinFormats() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// ColorMode controls colored console output
type ColorMode string

const (
	ColorAuto ColorMode = "auto"
	ColorOn   ColorMode = "on"
	ColorOff  ColorMode = "off"
)

func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ColorAuto, ColorOn, ColorOff:
		return m, nil
	case "":
		return ColorAuto, nil
	}
	return "", fmt.Errorf("unknown color mode %q", s)
}

const (
	DefaultTimeout = 180 * time.Second
	MinRepeat      = 1
	MaxRepeat      = 100
)

// Options is the runtime configuration of an Environment
type Options struct {
	ShowVersion bool
	ShowHelp    bool
	ShowInfo    bool

	Reverse     bool
	Repeat      bool
	RepeatCount int
	Shuffle     bool
	// Seed drives the shuffle when HasSeed is set; otherwise the runner
	// seeds from the current time.
	Seed    uint64
	HasSeed bool
	DryRun  bool
	// FailFast is accepted and stored but does not stop a run
	FailFast bool
	Quiet    bool
	Color    ColorMode
	Format   Format
	Timeout  time.Duration
	OnlyTags []Tag
}

func DefaultOptions() Options {
	return Options{
		RepeatCount: MinRepeat,
		Color:       ColorAuto,
		Format:      FormatPlain,
		Timeout:     DefaultTimeout,
	}
}

// Repeats returns how many times each body runs
func (o Options) Repeats() int {
	if !o.Repeat {
		return 1
	}
	return o.RepeatCount
}

func (o Options) Validate() error {
	if o.RepeatCount < MinRepeat || o.RepeatCount > MaxRepeat {
		return fmt.Errorf("repeat count %d out of range [%d, %d]", o.RepeatCount, MinRepeat, MaxRepeat)
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", o.Timeout)
	}
	if _, err := ParseFormat(string(o.Format)); err != nil {
		return err
	}
	if _, err := ParseColorMode(string(o.Color)); err != nil {
		return err
	}
	return nil
}
