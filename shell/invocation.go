package shell

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
)

// Invocation is the transient value built for one launch: the encoded option
// arguments, positional arguments, input payload, working directory and
// environment. It is assembled by LaunchOptions and not retained after the
// process starts.
type Invocation struct {
	options []string
	args    []string

	input  []byte
	stdin  io.Reader
	dir    string
	env    []string
	envSet bool

	logger *slog.Logger
}

// LaunchOption configures a single launch.
// Options are applied in the order given; encoded option arguments always
// precede positional arguments in the final argument vector.
type LaunchOption func(*Invocation)

// Args appends positional arguments. Values are stringified in call order;
// nil values are skipped entirely.
func Args(values ...any) LaunchOption {
	return func(inv *Invocation) {
		for _, v := range values {
			if s, ok := formatValue(v); ok {
				inv.args = append(inv.args, s)
			}
		}
	}
}

// Flag appends a boolean option. When on is true the flag is emitted with no
// attached value; when false nothing is emitted.
func Flag(name string, on bool) LaunchOption {
	return func(inv *Invocation) {
		if on {
			inv.options = append(inv.options, flagSpelling(name))
		}
	}
}

// Opt appends a valued option. Long flags are joined with "=", single
// character flags have the value concatenated directly ("-kVALUE").
// A nil value emits nothing.
func Opt(name string, value any) LaunchOption {
	return func(inv *Invocation) {
		inv.appendValued(name, value)
	}
}

// OptList appends a valued option once per element, preserving element order.
// Nil elements are skipped.
func OptList(name string, values ...any) LaunchOption {
	return func(inv *Invocation) {
		for _, v := range values {
			inv.appendValued(name, v)
		}
	}
}

// Stdin supplies a text payload for the child's standard input. The payload
// is written as UTF-8 bytes and the pipe is closed so the child observes
// end-of-input.
func Stdin(text string) LaunchOption {
	return func(inv *Invocation) {
		inv.input = []byte(text)
		inv.stdin = nil
	}
}

// StdinBytes supplies a byte payload for the child's standard input.
func StdinBytes(data []byte) LaunchOption {
	return func(inv *Invocation) {
		inv.input = data
		inv.stdin = nil
	}
}

// StdinFrom connects a pre-opened stream directly to the child's standard
// input. The stream is not buffered by this package.
func StdinFrom(r io.Reader) LaunchOption {
	return func(inv *Invocation) {
		inv.stdin = r
		inv.input = nil
	}
}

// Dir sets the child's working directory. The default is the caller's
// current directory.
func Dir(dir string) LaunchOption {
	return func(inv *Invocation) {
		inv.dir = dir
	}
}

// Env replaces the child's environment wholesale. Without this option the
// full current process environment is inherited; with it, only the given
// variables are present.
func Env(env map[string]string) LaunchOption {
	return func(inv *Invocation) {
		pairs := make([]string, 0, len(env))
		for k, v := range env {
			pairs = append(pairs, k+"="+v)
		}
		sort.Strings(pairs)
		inv.env = pairs
		inv.envSet = true
	}
}

// Logger sets the logger used by the disposal safety net for this launch.
// Defaults to slog.Default.
func Logger(logger *slog.Logger) LaunchOption {
	return func(inv *Invocation) {
		inv.logger = logger
	}
}

func (inv *Invocation) appendValued(name string, value any) {
	s, ok := formatValue(value)
	if !ok {
		return
	}
	if b, isBool := value.(bool); isBool {
		// Booleans passed as values keep flag semantics.
		if b {
			inv.options = append(inv.options, flagSpelling(name))
		}
		return
	}
	flag := flagSpelling(name)
	if strings.HasPrefix(flag, "--") {
		inv.options = append(inv.options, flag+"="+s)
	} else {
		inv.options = append(inv.options, flag+s)
	}
}

// argv builds the final argument vector for the given executable path:
// options in registration order, then positionals.
func (inv *Invocation) argv(path string) []string {
	out := make([]string, 0, 1+len(inv.options)+len(inv.args))
	out = append(out, path)
	out = append(out, inv.options...)
	out = append(out, inv.args...)
	return out
}

// flagSpelling translates an option name to its command-line spelling:
// underscores become dashes, single-character names get a single dash and
// longer names a double dash.
func flagSpelling(name string) string {
	name = strings.ReplaceAll(name, "_", "-")
	if len(name) == 1 {
		return "-" + name
	}
	return "--" + name
}

// formatValue stringifies an argument value. The second return is false for
// nil values, which are skipped rather than spelled out.
func formatValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		if v {
			return "true", true
		}
		return "false", true
	case Command:
		return v.Path(), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}
