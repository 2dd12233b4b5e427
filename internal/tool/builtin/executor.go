package builtin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/hualet/deepin-term-agent/internal/config"
)

// ErrCommandTimeout is returned when a command exceeds its wall-clock budget.
var ErrCommandTimeout = errors.New("command timeout")

// execResult is the raw outcome of one shell invocation.
type execResult struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Truncated bool
}

// commandExecutor runs shell commands with bounded output and a hard timeout.
// Commands run in their own process group so a timeout kills the whole tree,
// not just the immediate child.
type commandExecutor struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newCommandExecutor(cfg *config.Config, logger *slog.Logger) *commandExecutor {
	return &commandExecutor{cfg: cfg, logger: logger}
}

// RunShell executes command through the shell with the given timeout.
// On overrun it signals SIGINT, waits a short grace window, then kills the
// process group and returns ErrCommandTimeout alongside whatever output was
// captured.
func (e *commandExecutor) RunShell(ctx context.Context, command string, timeout time.Duration) (*execResult, error) {
	cmd := exec.Command("/bin/sh", "-c", command)
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	pgid := cmd.Process.Pid

	var stdout, stderr string
	var truncated bool
	collectDone := make(chan struct{})
	go func() {
		stdout, stderr, truncated = e.collectOutput(stdoutPipe, stderrPipe)
		close(collectDone)
	}()

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var execErr error
	select {
	case err := <-done:
		execErr = err
	case <-ctx.Done():
		e.killGroup(pgid)
		<-done
		execErr = ctx.Err()
	case <-time.After(timeout):
		// Graceful interrupt first, then kill the whole group.
		_ = syscall.Kill(-pgid, syscall.SIGINT)
		grace := time.Duration(e.cfg.Tools.GracefulShutdownMs) * time.Millisecond
		select {
		case <-done:
		case <-time.After(grace):
			e.killGroup(pgid)
			<-done
		}
		execErr = ErrCommandTimeout
	}

	<-collectDone

	exitCode := 0
	if execErr != nil {
		exitCode = exitCodeOf(execErr)
	}

	return &execResult{
		Stdout:    stdout,
		Stderr:    stderr,
		ExitCode:  exitCode,
		Truncated: truncated,
	}, execErr
}

func (e *commandExecutor) killGroup(pgid int) {
	if err := syscall.Kill(-pgid, syscall.SIGKILL); err != nil {
		e.logger.Debug("failed to kill process group", "pgid", pgid, "err", err)
	}
}

func (e *commandExecutor) collectOutput(stdout, stderr io.Reader) (string, string, bool) {
	maxBytes := e.cfg.Tools.MaxCommandOutputBytes

	stdoutCollector := newCollector(maxBytes)
	stderrCollector := newCollector(maxBytes)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(stdoutCollector, stdout)
	}()
	go func() {
		defer wg.Done()
		_, _ = io.Copy(stderrCollector, stderr)
	}()
	wg.Wait()

	truncated := stdoutCollector.Truncated() || stderrCollector.Truncated()
	return stdoutCollector.String(), stderrCollector.String(), truncated
}

func exitCodeOf(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// collector captures command output up to a byte cap. Writes past the cap are
// consumed and dropped so the child never blocks on a full pipe.
type collector struct {
	buffer    bytes.Buffer
	maxBytes  int
	truncated bool
}

func newCollector(maxBytes int) *collector {
	return &collector{maxBytes: maxBytes}
}

func (c *collector) Write(p []byte) (int, error) {
	remaining := c.maxBytes - c.buffer.Len()
	if remaining <= 0 {
		c.truncated = true
		return len(p), nil
	}
	toWrite := p
	if len(toWrite) > remaining {
		toWrite = toWrite[:remaining]
		c.truncated = true
	}
	if _, err := c.buffer.Write(toWrite); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *collector) String() string  { return c.buffer.String() }
func (c *collector) Truncated() bool { return c.truncated }
