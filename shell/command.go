package shell

import (
	osexec "os/exec"
	"path/filepath"
	"strings"

	"github.com/scriptkit/go/errors"
)

// Command is an immutable handle to a resolved executable.
// Two Commands are equal when they resolve to the same absolute path, so
// Command values can be used directly as map keys.
type Command struct {
	path string
}

// Resolve searches the executable search path for name and returns a Command
// holding its absolute path. The lookup happens exactly once; the returned
// value never needs re-resolving.
//
// Returns an error with code CodeNotFound if the executable does not exist.
func Resolve(name string) (Command, error) {
	path, err := osexec.LookPath(name)
	if err != nil {
		return Command{}, errors.Newf(errors.CodeNotFound, "command not found: %s", name)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Command{}, errors.Wrapf(err, errors.CodeNotFound, "command not found: %s", name)
	}
	return Command{path: abs}, nil
}

// Require resolves every name and reports all the missing ones at once.
// It is intended for scripts that want to fail fast before doing any work.
func Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, err := Resolve(name); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errors.Newf(errors.CodeNotFound, "missing required commands: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Path returns the absolute path of the resolved executable.
func (c Command) Path() string {
	return c.path
}

// Name returns the base name of the resolved executable.
func (c Command) Name() string {
	return filepath.Base(c.path)
}

// String returns the absolute path of the resolved executable.
func (c Command) String() string {
	return c.path
}
