package cli

import (
	"context"

	ucli "github.com/urfave/cli/v3"

	"github.com/scriptkit/go/errors"
)

// Action is the function an entry runs once its options are parsed.
type Action func(ctx context.Context, v *Values) error

// Entry declares one entry point: its name, the options it accepts and the
// action to run.
type Entry struct {
	Name    string
	Usage   string
	Options []Option
	Action  Action
}

// App assembles entries into a runnable command-line application. With one
// entry the application is a flat command; with several, each entry becomes
// a subcommand named after it.
type App struct {
	name    string
	usage   string
	entries []Entry
}

// New creates an App from the given entries.
func New(name, usage string, entries ...Entry) *App {
	return &App{
		name:    name,
		usage:   usage,
		entries: entries,
	}
}

// Run parses argv and runs the selected entry. The first element of argv is
// the program name, as in os.Args.
func (a *App) Run(ctx context.Context, argv []string) error {
	root, err := a.build()
	if err != nil {
		return err
	}
	return root.Run(ctx, argv)
}

// build assembles the urfave/cli command tree.
func (a *App) build() (*ucli.Command, error) {
	if len(a.entries) == 0 {
		return nil, errors.New(errors.CodeInvalidConfig, "application has no entries")
	}

	if len(a.entries) == 1 {
		cmd, err := a.entries[0].command()
		if err != nil {
			return nil, err
		}
		cmd.Name = a.name
		if a.usage != "" {
			cmd.Usage = a.usage
		}
		return cmd, nil
	}

	root := &ucli.Command{
		Name:  a.name,
		Usage: a.usage,
	}
	seen := make(map[string]bool, len(a.entries))
	for _, entry := range a.entries {
		if seen[entry.Name] {
			return nil, errors.Newf(errors.CodeInvalidConfig, "duplicate entry name: %s", entry.Name)
		}
		seen[entry.Name] = true
		cmd, err := entry.command()
		if err != nil {
			return nil, err
		}
		root.Commands = append(root.Commands, cmd)
	}
	return root, nil
}

// command converts an entry into a urfave/cli command.
func (e Entry) command() (*ucli.Command, error) {
	if e.Name == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "entry has no name")
	}
	if e.Action == nil {
		return nil, errors.Newf(errors.CodeInvalidConfig, "entry %s has no action", e.Name)
	}

	flags := make([]ucli.Flag, 0, len(e.Options))
	seen := make(map[string]bool, len(e.Options))
	for _, opt := range e.Options {
		if seen[opt.Name] {
			return nil, errors.Newf(errors.CodeInvalidConfig, "entry %s: duplicate option %s", e.Name, opt.Name)
		}
		seen[opt.Name] = true
		flag, err := opt.flag()
		if err != nil {
			return nil, err
		}
		flags = append(flags, flag)
	}

	action := e.Action
	return &ucli.Command{
		Name:  flagName(e.Name),
		Usage: e.Usage,
		Flags: flags,
		Action: func(ctx context.Context, cmd *ucli.Command) error {
			return action(ctx, &Values{cmd: cmd})
		},
	}, nil
}
