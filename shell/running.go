package shell

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	osexec "os/exec"
	"runtime"
	"strings"
	"syscall"

	"github.com/scriptkit/go/errors"
)

// chunkSize bounds how much is read from a pipe at a time, which in turn
// bounds how far stdout/stderr interleaving can drift.
const chunkSize = 8192

// readPipe drains one OS pipe in bounded chunks and hands them to the
// multiplex loop. The channel is closed on end-of-stream.
func readPipe(r io.ReadCloser, ch chan<- []byte) {
	defer close(ch)
	defer r.Close()
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			ch <- chunk
		}
		if err != nil {
			return
		}
	}
}

// proc holds the state of one running command. It is separate from
// RunningCommand so the disposal cleanup can reap the process after the
// handle itself has become unreachable.
type proc struct {
	name   string
	cmd    *osexec.Cmd
	logger *slog.Logger

	outC, errC       chan []byte
	outOpen, errOpen bool

	stdout  bytes.Buffer
	stderr  bytes.Buffer
	lineOff int

	closed   bool
	exitCode int
	err      error

	// cleanup is the disposal safety net registered at construction. It is
	// stopped as soon as a consumer starts draining so the net can never run
	// concurrently with a live consumer.
	cleanup runtime.Cleanup
}

// pump is the multiplex loop. It waits until at least one stream has data or
// has ended, appends whatever arrived to the corresponding buffer, and, when
// a consumer is iterating lazily, emits newly completed stdout lines through
// emit. It returns false if emit stopped the iteration early; otherwise it
// runs until both streams report end-of-stream.
func (p *proc) pump(emit func(string) bool) bool {
	for p.outOpen || p.errOpen {
		var outC, errC chan []byte
		if p.outOpen {
			outC = p.outC
		}
		if p.errOpen {
			errC = p.errC
		}
		select {
		case chunk, ok := <-outC:
			if !ok {
				p.outOpen = false
				continue
			}
			p.stdout.Write(chunk)
			if emit != nil && !p.emitLines(emit) {
				return false
			}
		case chunk, ok := <-errC:
			if !ok {
				p.errOpen = false
				continue
			}
			p.stderr.Write(chunk)
		}
	}
	if emit != nil {
		// A final line without a terminator is still a line.
		if p.lineOff < p.stdout.Len() {
			line := string(p.stdout.Bytes()[p.lineOff:])
			p.lineOff = p.stdout.Len()
			if !emit(line) {
				return false
			}
		}
	}
	return true
}

// emitLines yields every completed line buffered since the last call,
// without the trailing newline.
func (p *proc) emitLines(emit func(string) bool) bool {
	for {
		data := p.stdout.Bytes()
		idx := bytes.IndexByte(data[p.lineOff:], '\n')
		if idx < 0 {
			return true
		}
		line := string(data[p.lineOff : p.lineOff+idx])
		p.lineOff += idx + 1
		if !emit(line) {
			return false
		}
	}
}

// poll performs one non-blocking sweep of both streams, absorbing whatever
// data is immediately available.
func (p *proc) poll() {
	for p.outOpen || p.errOpen {
		var outC, errC chan []byte
		if p.outOpen {
			outC = p.outC
		}
		if p.errOpen {
			errC = p.errC
		}
		select {
		case chunk, ok := <-outC:
			if !ok {
				p.outOpen = false
				continue
			}
			p.stdout.Write(chunk)
		case chunk, ok := <-errC:
			if !ok {
				p.errOpen = false
				continue
			}
			p.stderr.Write(chunk)
		default:
			return
		}
	}
}

// finish drains both streams to end-of-stream, collects the exit status and
// transitions the proc to its closed state. Once closed the buffers are
// immutable and the classification result is final. finish is idempotent.
func (p *proc) finish() {
	if p.closed {
		return
	}
	p.cleanup.Stop()
	p.pump(nil)
	waitErr := p.cmd.Wait()
	p.exitCode = -1
	if p.cmd.ProcessState != nil {
		p.exitCode = p.cmd.ProcessState.ExitCode()
	}
	p.err = p.classify(waitErr)
	p.closed = true
}

// classify maps the raw wait outcome onto the exit-code contract: zero is
// success, death by SIGTERM or SIGINT is caller-directed shutdown and
// reported as success, and every other non-zero status becomes an ExitError
// carrying the fully drained stderr text.
func (p *proc) classify(waitErr error) error {
	if waitErr == nil {
		return nil
	}
	var exitErr *osexec.ExitError
	if !stderrors.As(waitErr, &exitErr) {
		return errors.Wrapf(waitErr, errors.CodeIOFailed, "waiting for %s failed", p.name)
	}
	type signaled interface {
		Signaled() bool
		Signal() syscall.Signal
	}
	if status, ok := exitErr.Sys().(signaled); ok && status.Signaled() {
		if sig := status.Signal(); sig == syscall.SIGTERM || sig == syscall.SIGINT {
			return nil
		}
	}
	failure := &ExitError{
		Name:   p.name,
		Code:   exitErr.ExitCode(),
		Stderr: p.stderr.String(),
	}
	return errors.WrapWithContext(failure, errors.CodeExecutionFailed, failure.Error(), map[string]interface{}{
		"command":   p.name,
		"exit_code": failure.Code,
	})
}

// splitLines reproduces, from the closed buffer, the exact line sequence a
// live iteration would have produced.
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := strings.Split(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// RunningCommand owns a live child process together with its two output
// pipes. It is created by Start, already running, and transitions to its
// closed state the first time any consuming operation fully drains it. All
// consuming operations are idempotent after closing: they replay the
// buffered result without touching the process again.
//
// A RunningCommand is not safe for concurrent use by multiple goroutines.
type RunningCommand struct {
	p *proc
}

func newRunningCommand(p *proc) *RunningCommand {
	rc := &RunningCommand{p: p}
	p.cleanup = runtime.AddCleanup(rc, reapAbandoned, p)
	return rc
}

// reapAbandoned is the disposal safety net. A RunningCommand discarded while
// still open leaks a child process and silently loses its exit status and
// stderr, so the cleanup drains and reaps it in the background and logs
// either the real failure or a discarded-without-waiting diagnostic naming
// the command. This is best-effort: the deterministic path is Close.
//
// The handle may become unreachable while one of its own methods is still
// executing, so every method that touches proc state keeps the handle alive
// with runtime.KeepAlive until it is done; finish additionally stops the
// cleanup outright. Without both, a collection during a long drain could run
// this net concurrently with the consumer.
func reapAbandoned(p *proc) {
	if p.closed {
		return
	}
	go func() {
		p.finish()
		if p.err != nil {
			p.logger.Error("abandoned command failed",
				slog.String("command", p.name),
				slog.Any("error", p.err))
			return
		}
		ignored := errors.Wrap(&IgnoredError{Name: p.name}, errors.CodeCommandIgnored,
			"running command discarded while open")
		p.logger.Error("command discarded without being waited",
			slog.String("command", p.name),
			slog.Any("error", ignored))
	}()
}

// Name returns the command's display name: the executable path followed by
// the built arguments.
func (c *RunningCommand) Name() string {
	return c.p.name
}

// Lines returns the command's standard output as a lazy sequence of decoded
// lines, without their trailing newlines. Consuming the sequence drives the
// multiplex loop, so lines are yielded as soon as the child completes them.
// When the output is exhausted the command is closed and, if it failed, the
// failure is yielded as the final pair.
//
// Iterating an already closed command replays the buffered output line by
// line, ending with the same stored failure. Breaking out of the loop early
// drains the command to completion in the background of the current call and
// closes it; any failure is then available from Wait.
func (c *RunningCommand) Lines() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		defer runtime.KeepAlive(c)
		p := c.p
		if p.closed {
			for _, line := range splitLines(p.stdout.Bytes()) {
				if !yield(line, nil) {
					return
				}
			}
			if p.err != nil {
				yield("", p.err)
			}
			return
		}
		completed := p.pump(func(line string) bool {
			return yield(line, nil)
		})
		p.finish()
		if completed && p.err != nil {
			yield("", p.err)
		}
	}
}

// Text drains all remaining output, closes the command and returns the full
// standard output as a string. The error reports the command's execution
// failure, if any; the text is returned either way.
func (c *RunningCommand) Text() (string, error) {
	defer runtime.KeepAlive(c)
	c.p.finish()
	return c.p.stdout.String(), c.p.err
}

// Bytes drains all remaining output, closes the command and returns a copy
// of the full standard output.
func (c *RunningCommand) Bytes() ([]byte, error) {
	defer runtime.KeepAlive(c)
	c.p.finish()
	return bytes.Clone(c.p.stdout.Bytes()), c.p.err
}

// Ok drains all remaining output, closes the command and reports whether the
// exit code was exactly zero. It never returns an error: a failed command
// simply reports false.
func (c *RunningCommand) Ok() bool {
	defer runtime.KeepAlive(c)
	c.p.finish()
	return c.p.exitCode == 0
}

// Wait drains all remaining output, closes the command and returns its
// execution failure, if any. Calling Wait on a closed command returns the
// stored result.
func (c *RunningCommand) Wait() error {
	defer runtime.KeepAlive(c)
	c.p.finish()
	return c.p.err
}

// Close implements the scoped-use discipline: if the command is still open
// it is fully drained and its failure, if any, is returned. Closing an
// already closed command is a no-op. Use it with defer so the command is
// reaped even on early return.
func (c *RunningCommand) Close() error {
	defer runtime.KeepAlive(c)
	if c.p.closed {
		return nil
	}
	c.p.finish()
	return c.p.err
}

// Terminate sends SIGTERM to the process without draining or closing. The
// caller must still consume or Close the command to reap it; the resulting
// termination status is classified as success.
func (c *RunningCommand) Terminate() error {
	defer runtime.KeepAlive(c)
	if err := c.p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return errors.Wrapf(err, errors.CodeIOFailed, "failed to terminate %s", c.p.name)
	}
	return nil
}

// Done reports, without blocking, whether the command has finished producing
// output on both streams.
func (c *RunningCommand) Done() bool {
	defer runtime.KeepAlive(c)
	if c.p.closed {
		return true
	}
	c.p.poll()
	return !c.p.outOpen && !c.p.errOpen
}

// ExitCode drains the command to completion and returns its exit code.
// A command killed by a signal reports -1.
func (c *RunningCommand) ExitCode() int {
	defer runtime.KeepAlive(c)
	c.p.finish()
	return c.p.exitCode
}

// Stderr returns the standard error text captured so far. After the command
// is closed this is the complete stderr output.
func (c *RunningCommand) Stderr() string {
	defer runtime.KeepAlive(c)
	return c.p.stderr.String()
}

// Print copies the command's output to standard output line by line,
// returning the execution failure, if any.
func (c *RunningCommand) Print() error {
	for line, err := range c.Lines() {
		if err != nil {
			return err
		}
		fmt.Println(line)
	}
	return nil
}

// Parse drains the command and parses its full output into a Parsed value.
func (c *RunningCommand) Parse() (Parsed, error) {
	text, err := c.Text()
	if err != nil {
		return Parsed{}, err
	}
	return Parse(text), nil
}
