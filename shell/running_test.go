package shell

import (
	"bytes"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/scriptkit/go/errors"
)

func mustResolve(t *testing.T, name string) Command {
	t.Helper()
	cmd, err := Resolve(name)
	if err != nil {
		t.Fatalf("failed to resolve %s: %v", name, err)
	}
	return cmd
}

func TestTextSuccess(t *testing.T) {
	echo := mustResolve(t, "echo")
	rc, err := echo.Start(Args("hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := rc.Text()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello\n" {
		t.Errorf("expected 'hello\\n', got: %q", text)
	}
	if !rc.Ok() {
		t.Error("expected Ok to report true")
	}
}

func TestOk(t *testing.T) {
	sh := mustResolve(t, "sh")

	rc, err := sh.Start(Args("-c", "exit 0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rc.Ok() {
		t.Error("expected true for exit 0")
	}

	rc, err = sh.Start(Args("-c", "exit 3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rc.Ok() {
		t.Error("expected false for exit 3")
	}
}

func TestTextIdempotentAfterClose(t *testing.T) {
	sh := mustResolve(t, "sh")
	rc, err := sh.Start(Args("-c", "printf 'a\\nb\\n'"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, err := rc.Text()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := rc.Text()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("expected identical results, got %q then %q", first, second)
	}
	if first != "a\nb\n" {
		t.Errorf("unexpected output: %q", first)
	}
}

func TestFailureCarriesStderr(t *testing.T) {
	sh := mustResolve(t, "sh")
	rc, err := sh.Start(Args("-c", "printf 'boom\\n' >&2; exit 2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitErr := rc.Wait()
	if waitErr == nil {
		t.Fatal("expected error, got nil")
	}

	var exitErr *ExitError
	if !errors.As(waitErr, &exitErr) {
		t.Fatalf("expected ExitError, got: %T", waitErr)
	}
	if exitErr.Code != 2 {
		t.Errorf("expected exit code 2, got: %d", exitErr.Code)
	}
	if exitErr.Stderr != "boom\n" {
		t.Errorf("expected full stderr 'boom\\n', got: %q", exitErr.Stderr)
	}
	// The short message has newlines flattened away.
	if exitErr.Error() != "boom" {
		t.Errorf("expected short message 'boom', got: %q", exitErr.Error())
	}

	if errors.GetCode(waitErr) != errors.CodeExecutionFailed {
		t.Errorf("expected EXECUTION_FAILED code, got: %s", errors.GetCode(waitErr))
	}

	// Waiting again returns the same stored failure.
	if again := rc.Wait(); again == nil || again.Error() != waitErr.Error() {
		t.Errorf("expected identical stored failure, got: %v", again)
	}
}

func TestFailureWithoutStderrHasGenericMessage(t *testing.T) {
	sh := mustResolve(t, "sh")
	rc, err := sh.Start(Args("-c", "exit 3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitErr := rc.Wait()
	if waitErr == nil {
		t.Fatal("expected error, got nil")
	}

	var exitErr *ExitError
	if !errors.As(waitErr, &exitErr) {
		t.Fatalf("expected ExitError, got: %T", waitErr)
	}
	if exitErr.Stderr != "" {
		t.Errorf("expected empty stderr, got: %q", exitErr.Stderr)
	}
	// With no stderr to flatten, the message falls back to naming the
	// command and its exit code.
	msg := exitErr.Error()
	if !strings.Contains(msg, "failed with exit code 3") {
		t.Errorf("expected generic exit-code message, got: %q", msg)
	}
	if !strings.Contains(msg, "sh") {
		t.Errorf("expected message to name the command, got: %q", msg)
	}
}

func TestSuccessWithStderrIsNotAFailure(t *testing.T) {
	sh := mustResolve(t, "sh")
	rc, err := sh.Start(Args("-c", "printf 'warning\\n' >&2; printf 'ok\\n'"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := rc.Text()
	if err != nil {
		t.Fatalf("expected no error for exit 0 with stderr, got: %v", err)
	}
	if text != "ok\n" {
		t.Errorf("unexpected stdout: %q", text)
	}
	if rc.Stderr() != "warning\n" {
		t.Errorf("unexpected stderr: %q", rc.Stderr())
	}
}

func TestLines(t *testing.T) {
	sh := mustResolve(t, "sh")
	rc, err := sh.Start(Args("-c", "printf 'a\\nb\\nc\\n'"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var lines []string
	for line, err := range rc.Lines() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines = append(lines, line)
	}

	want := []string{"a", "b", "c"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestLinesWithoutTrailingNewline(t *testing.T) {
	sh := mustResolve(t, "sh")
	rc, err := sh.Start(Args("-c", "printf 'a\\nb'"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var lines []string
	for line, err := range rc.Lines() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines = append(lines, line)
	}

	if len(lines) != 2 || lines[0] != "a" || lines[1] != "b" {
		t.Errorf("expected [a b], got: %v", lines)
	}
}

func TestLinesReplayAfterClose(t *testing.T) {
	sh := mustResolve(t, "sh")
	rc, err := sh.Start(Args("-c", "printf 'a\\nb\\n'"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := rc.Text(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The command is closed; iterating replays the buffered output.
	var replayed []string
	for line, err := range rc.Lines() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		replayed = append(replayed, line)
	}

	if len(replayed) != 2 || replayed[0] != "a" || replayed[1] != "b" {
		t.Errorf("expected replay [a b], got: %v", replayed)
	}
}

func TestLinesYieldFailureLast(t *testing.T) {
	sh := mustResolve(t, "sh")
	rc, err := sh.Start(Args("-c", "printf 'partial\\n'; printf 'bad\\n' >&2; exit 1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var lines []string
	var iterErr error
	for line, err := range rc.Lines() {
		if err != nil {
			iterErr = err
			break
		}
		lines = append(lines, line)
	}

	if len(lines) != 1 || lines[0] != "partial" {
		t.Errorf("expected [partial], got: %v", lines)
	}
	if iterErr == nil {
		t.Fatal("expected iteration to surface the failure")
	}

	var exitErr *ExitError
	if !errors.As(iterErr, &exitErr) || exitErr.Stderr != "bad\n" {
		t.Errorf("expected ExitError with stderr 'bad\\n', got: %v", iterErr)
	}
}

func TestLinesBreakDrainsAndCloses(t *testing.T) {
	sh := mustResolve(t, "sh")
	rc, err := sh.Start(Args("-c", "printf 'a\\nb\\nc\\n'; exit 1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for range rc.Lines() {
		break
	}

	// Breaking early still reaped the command; the failure is stored.
	if rc.Wait() == nil {
		t.Error("expected stored failure after early break")
	}
}

func TestStdinPayload(t *testing.T) {
	cat := mustResolve(t, "cat")
	rc, err := cat.Start(Stdin("hello stdin"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := rc.Text()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello stdin" {
		t.Errorf("expected payload echoed back, got: %q", text)
	}
}

func TestStdinBytes(t *testing.T) {
	cat := mustResolve(t, "cat")
	rc, err := cat.Start(StdinBytes([]byte{0x01, 0x02, 0x03}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := rc.Bytes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(data, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("expected bytes echoed back, got: %v", data)
	}
}

func TestStdinFrom(t *testing.T) {
	cat := mustResolve(t, "cat")
	rc, err := cat.Start(StdinFrom(strings.NewReader("streamed")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := rc.Text()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "streamed" {
		t.Errorf("expected streamed input echoed back, got: %q", text)
	}
}

func TestEnvReplacement(t *testing.T) {
	sh := mustResolve(t, "sh")
	rc, err := sh.Start(
		Args("-c", "echo ${FOO:-unset} ${HOME:-gone}"),
		Env(map[string]string{"FOO": "bar"}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := rc.Text()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// FOO comes from the override; HOME is absent because the replacement
	// is wholesale, not a merge.
	if strings.TrimSpace(text) != "bar gone" {
		t.Errorf("expected 'bar gone', got: %q", text)
	}
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	sh := mustResolve(t, "sh")
	rc, err := sh.Start(Args("-c", "pwd"), Dir(dir))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := rc.Text()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, dir) {
		t.Errorf("expected pwd output to contain %q, got: %q", dir, text)
	}
}

func TestTerminateClassifiedAsSuccess(t *testing.T) {
	sleep := mustResolve(t, "sleep")
	rc, err := sleep.Start(Args(30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := rc.Terminate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := rc.Wait(); err != nil {
		t.Errorf("expected SIGTERM death to be ignored, got: %v", err)
	}
	// The exit code is still non-zero, so the boolean check reports false.
	if rc.Ok() {
		t.Error("expected Ok to report false for a terminated command")
	}
}

func TestInterruptClassifiedAsSuccess(t *testing.T) {
	sleep := mustResolve(t, "sleep")
	rc, err := sleep.Start(Args(30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := rc.p.cmd.Process.Signal(syscall.SIGINT); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := rc.Wait(); err != nil {
		t.Errorf("expected SIGINT death to be ignored, got: %v", err)
	}
	if rc.Ok() {
		t.Error("expected Ok to report false for an interrupted command")
	}
}

func TestDoneTransitionsAfterExit(t *testing.T) {
	sh := mustResolve(t, "sh")
	rc, err := sh.Start(Args("-c", "sleep 0.3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rc.Done() {
		t.Error("expected Done to report false while the child is running")
	}

	deadline := time.Now().Add(5 * time.Second)
	for !rc.Done() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !rc.Done() {
		t.Fatal("expected Done to report true after the child exited")
	}

	if err := rc.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Closed commands are trivially done.
	if !rc.Done() {
		t.Error("expected Done to report true after close")
	}
}

func TestCloseReportsFailureOnce(t *testing.T) {
	sh := mustResolve(t, "sh")
	rc, err := sh.Start(Args("-c", "exit 7"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := rc.Close(); err == nil {
		t.Error("expected Close on an open failed command to report the failure")
	}
	if err := rc.Close(); err != nil {
		t.Errorf("expected second Close to be a no-op, got: %v", err)
	}
}

func TestMultiplexBothStreams(t *testing.T) {
	// The child fills stderr well past the OS pipe buffer while stdout is
	// consumed to exhaustion; without multiplexing this deadlocks.
	sh := mustResolve(t, "sh")
	script := "i=0; while [ $i -lt 2000 ]; do echo 'eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee' >&2; i=$((i+1)); done; echo done"
	rc, err := sh.Start(Args("-c", script))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text, err := rc.Text()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "done\n" {
		t.Errorf("expected 'done\\n', got: %q", text)
	}
	if len(rc.Stderr()) < 2000*40 {
		t.Errorf("expected full stderr capture, got %d bytes", len(rc.Stderr()))
	}
}

func TestParseCommandOutput(t *testing.T) {
	sh := mustResolve(t, "sh")
	rc, err := sh.Start(Args("-c", "printf '10 20\\n30\\n'"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parsed, err := rc.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	values := parsed.Values()
	if len(values) != 2 {
		t.Fatalf("expected 2 values, got: %d", len(values))
	}
	if !values[0].IsRow() || values[0].Row[0] != IntScalar(10) || values[0].Row[1] != IntScalar(20) {
		t.Errorf("unexpected first value: %+v", values[0])
	}
	if values[1].IsRow() || values[1].Scalar != IntScalar(30) {
		t.Errorf("unexpected second value: %+v", values[1])
	}
}

func TestRunAndOutput(t *testing.T) {
	echo := mustResolve(t, "echo")

	out, err := echo.Output(Args("hi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "hi\n" {
		t.Errorf("expected 'hi\\n', got: %q", out)
	}

	sh := mustResolve(t, "sh")
	if err := sh.Run(Args("-c", "exit 0")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := sh.Run(Args("-c", "exit 1")); err == nil {
		t.Error("expected error for exit 1")
	}
}

// syncBuffer is a goroutine-safe log sink for the disposal diagnostic test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startAndAbandon(t *testing.T, logger *slog.Logger) {
	t.Helper()
	echo := mustResolve(t, "echo")
	rc, err := echo.Start(Args("abandoned"), Logger(logger))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = rc // Dropped without being consumed.
}

func TestDrainingCommandIsNotReaped(t *testing.T) {
	// Collections during a long blocking drain must not trigger the disposal
	// net against the consumer: the net is stopped once draining starts and
	// the handle is kept alive through each consuming call.
	sink := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(sink, nil))
	sh := mustResolve(t, "sh")

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				runtime.GC()
			}
		}
	}()

	for i := 0; i < 8; i++ {
		rc, err := sh.Start(Args("-c", "sleep 0.05; echo slow"), Logger(logger))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		text, err := rc.Text()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "slow\n" {
			t.Errorf("expected 'slow\\n', got: %q", text)
		}
	}

	close(stop)
	wg.Wait()
	runtime.GC()

	if logged := sink.String(); logged != "" {
		t.Errorf("expected no disposal diagnostics for consumed commands, got: %q", logged)
	}
}

func TestAbandonedCommandIsDiagnosed(t *testing.T) {
	sink := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(sink, nil))

	startAndAbandon(t, logger)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		runtime.GC()
		if strings.Contains(sink.String(), "discarded without being waited") {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	logged := sink.String()
	if !strings.Contains(logged, "discarded without being waited") {
		t.Fatalf("expected disposal diagnostic, got: %q", logged)
	}
	if !strings.Contains(logged, "abandoned") {
		t.Errorf("expected diagnostic to name the command, got: %q", logged)
	}
}
