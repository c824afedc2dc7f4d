package shell

import (
	"bytes"
	"log/slog"
	osexec "os/exec"
	"strings"
	"sync"

	"github.com/scriptkit/go/errors"
)

// stdbufPath locates the stdbuf binary once per process. When present the
// child's stdout is forced into line-buffered mode so that large block
// buffering cannot skew the interleaving observed by the multiplex loop.
var stdbufPath = sync.OnceValue(func() string {
	path, err := osexec.LookPath("stdbuf")
	if err != nil {
		return ""
	}
	return path
})

// Start launches the command with the given options and returns a
// RunningCommand owning the live process. Start is non-blocking: it returns
// as soon as the process has started, and the child runs concurrently with
// the caller from that moment on. Execution failures are not reported here;
// they surface when the RunningCommand is consumed.
func (c Command) Start(opts ...LaunchOption) (*RunningCommand, error) {
	inv := &Invocation{logger: slog.Default()}
	for _, opt := range opts {
		opt(inv)
	}

	argv := inv.argv(c.path)
	display := strings.Join(argv, " ")

	full := argv
	if sb := stdbufPath(); sb != "" {
		full = append([]string{sb, "-oL"}, argv...)
	}

	cmd := osexec.Command(full[0], full[1:]...)
	cmd.Dir = inv.dir
	if inv.envSet {
		cmd.Env = inv.env
	}
	switch {
	case inv.stdin != nil:
		cmd.Stdin = inv.stdin
	case len(inv.input) > 0:
		// The payload is written to the child's input pipe and the pipe is
		// closed afterwards so the child observes end-of-input. The default
		// is an empty payload, which the child sees as immediate EOF.
		cmd.Stdin = bytes.NewReader(inv.input)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeIOFailed, "failed to open stdout pipe for %s", c.Name())
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeIOFailed, "failed to open stderr pipe for %s", c.Name())
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, errors.CodeIOFailed, "failed to start %s", c.Name())
	}

	outC := make(chan []byte)
	errC := make(chan []byte)
	go readPipe(stdout, outC)
	go readPipe(stderr, errC)

	p := &proc{
		name:    display,
		cmd:     cmd,
		logger:  inv.logger,
		outC:    outC,
		errC:    errC,
		outOpen: true,
		errOpen: true,
	}
	return newRunningCommand(p), nil
}

// Run launches the command and waits for it to complete, draining all output.
// It returns the execution failure, if any.
func (c Command) Run(opts ...LaunchOption) error {
	rc, err := c.Start(opts...)
	if err != nil {
		return err
	}
	return rc.Wait()
}

// Output launches the command, waits for it to complete and returns its full
// standard output as text.
func (c Command) Output(opts ...LaunchOption) (string, error) {
	rc, err := c.Start(opts...)
	if err != nil {
		return "", err
	}
	return rc.Text()
}
