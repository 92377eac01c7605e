package flags

import (
	"strings"

	"github.com/urfave/cli/v2"
)

// HoistFlags moves known flags that follow positional commands in front of
// them. urfave stops parsing flags at the first positional word, so without
// this `reverse enable --info` would hand `--info` to ParseCommands. args[0]
// is the program name. Tokens after a bare `--` are left alone.
func HoistFlags(args []string, fs []cli.Flag) []string {
	if len(args) < 2 {
		return args
	}
	takesValue := make(map[string]bool)
	for _, f := range append([]cli.Flag{cli.HelpFlag, cli.VersionFlag}, fs...) {
		if f == nil {
			continue
		}
		value := true
		if d, ok := f.(cli.DocGenerationFlag); ok {
			value = d.TakesValue()
		}
		for _, name := range f.Names() {
			takesValue[name] = value
		}
	}

	out := []string{args[0]}
	var positional []string
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		tok := rest[i]
		if tok == "--" {
			positional = append(positional, rest[i:]...)
			break
		}
		name, inline := flagName(tok)
		value, known := takesValue[name]
		if name == "" || !known {
			positional = append(positional, tok)
			continue
		}
		out = append(out, tok)
		if value && !inline && i+1 < len(rest) {
			i++
			out = append(out, rest[i])
		}
	}
	return append(out, positional...)
}

// flagName returns the name of a `-name`, `--name` or `--name=value` token
// and whether the value is inline
func flagName(tok string) (string, bool) {
	if len(tok) < 2 || tok[0] != '-' {
		return "", false
	}
	name := strings.TrimLeft(tok, "-")
	if len(tok)-len(name) > 2 {
		return "", false
	}
	if k, _, ok := strings.Cut(name, "="); ok {
		return k, true
	}
	return name, false
}
