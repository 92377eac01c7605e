package flags

import (
	"fmt"
	"strconv"

	"github.com/fossillogic/fossil-test/types"
)

// Commands are the positional words accepted after the flags, for example
// `reverse enable repeat 3 format table`. Nil fields were not given.
type Commands struct {
	Reverse     *bool
	Shuffle     *bool
	DryRun      *bool
	FailFast    *bool
	Quiet       *bool
	Repeat      *bool
	RepeatCount *int
	Color       *types.ColorMode
	Format      *types.Format
}

// ParseCommands parses positional commands. Every word must be a known
// command followed by a valid value.
func ParseCommands(args []string) (Commands, error) {
	var c Commands
	for i := 0; i < len(args); i++ {
		word := args[i]
		next := func() (string, bool) {
			if i+1 < len(args) {
				i++
				return args[i], true
			}
			return "", false
		}

		var err error
		switch word {
		case "reverse":
			c.Reverse, err = parseToggle(word, next)
		case "shuffle":
			c.Shuffle, err = parseToggle(word, next)
		case "dry-run":
			c.DryRun, err = parseToggle(word, next)
		case "fail-fast":
			c.FailFast, err = parseToggle(word, next)
		case "quiet":
			c.Quiet, err = parseToggle(word, next)
		case "repeat":
			err = c.parseRepeat(args, &i)
		case "color":
			v, ok := next()
			if !ok {
				return c, fmt.Errorf("color requires a value (auto, on or off)")
			}
			mode, perr := types.ParseColorMode(v)
			if perr != nil || v == "" {
				return c, fmt.Errorf("invalid color value %q: want auto, on or off", v)
			}
			c.Color = &mode
		case "format":
			v, ok := next()
			if !ok {
				return c, fmt.Errorf("format requires a value (%s)", formatNames())
			}
			f, perr := types.ParseFormat(v)
			if perr != nil {
				return c, perr
			}
			c.Format = &f
		default:
			return c, fmt.Errorf("unknown command %q", word)
		}
		if err != nil {
			return c, err
		}
	}
	return c, nil
}

func parseToggle(word string, next func() (string, bool)) (*bool, error) {
	v, ok := next()
	if !ok {
		return nil, fmt.Errorf("%s requires enable or disable", word)
	}
	switch v {
	case "enable":
		return ptr(true), nil
	case "disable":
		return ptr(false), nil
	}
	return nil, fmt.Errorf("invalid %s value %q: want enable or disable", word, v)
}

// parseRepeat handles `repeat`, `repeat <n>`, `repeat enable [<n>]` and
// `repeat disable`
func (c *Commands) parseRepeat(args []string, i *int) error {
	c.Repeat = ptr(true)
	if *i+1 >= len(args) {
		return nil
	}
	switch args[*i+1] {
	case "disable":
		*i++
		c.Repeat = ptr(false)
		return nil
	case "enable":
		*i++
	}
	if *i+1 >= len(args) {
		return nil
	}
	n, err := strconv.Atoi(args[*i+1])
	if err != nil {
		// not a count, leave the word for the next command
		return nil
	}
	*i++
	if n < types.MinRepeat || n > types.MaxRepeat {
		return fmt.Errorf("repeat count must be between %d and %d, got %d", types.MinRepeat, types.MaxRepeat, n)
	}
	c.RepeatCount = &n
	return nil
}

// Apply copies the given commands onto opts
func (c Commands) Apply(opts *types.Options) {
	if c.Reverse != nil {
		opts.Reverse = *c.Reverse
	}
	if c.Shuffle != nil {
		opts.Shuffle = *c.Shuffle
	}
	if c.DryRun != nil {
		opts.DryRun = *c.DryRun
	}
	if c.FailFast != nil {
		opts.FailFast = *c.FailFast
	}
	if c.Quiet != nil {
		opts.Quiet = *c.Quiet
	}
	if c.Repeat != nil {
		opts.Repeat = *c.Repeat
	}
	if c.RepeatCount != nil {
		opts.RepeatCount = *c.RepeatCount
	}
	if c.Color != nil {
		opts.Color = *c.Color
	}
	if c.Format != nil {
		opts.Format = *c.Format
	}
}

func ptr[T any](v T) *T {
	return &v
}
