package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

const (
	initialLineBuffer = 64 * 1024
	maxLineSize       = 1024 * 1024
)

// LineFunc receives one line of process output without its line terminator.
type LineFunc func(line string)

// ExitFunc receives the outcome of a run. It is called exactly once per run.
type ExitFunc func(status ExitStatus)

// ExitStatus describes how a run ended.
type ExitStatus struct {
	Code    int           // Code is the process exit code, or -1 when unknown.
	Elapsed time.Duration // Elapsed is measured from spawn to reaping the process.
	Aborted bool          // Aborted is set when the run was cancelled before the process exited.
	Err     error         // Err holds spawn, wait and callback failures.
}

// Success reports whether the process ran to completion with exit code 0.
func (s ExitStatus) Success() bool {
	return s.Err == nil && !s.Aborted && s.Code == 0
}

// Runner executes one external process at a time. Starting a new run aborts
// and joins the previous one.
type Runner struct {
	// Dir is the working directory of spawned processes. Empty means the current directory.
	Dir string

	logger  hclog.Logger
	mu      sync.Mutex
	current *Handle
}

// New creates a Runner tracing failures to logger.
func New(logger hclog.Logger) *Runner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Runner{logger: logger}
}

// Handle tracks a single run.
type Handle struct {
	id     uuid.UUID
	cancel context.CancelFunc
	done   chan struct{}
	status ExitStatus
}

// ID returns the unique id of the run.
func (h *Handle) ID() uuid.UUID {
	return h.id
}

// Done is closed once the run has finished and its exit handler has returned.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the run has finished and returns its exit status.
func (h *Handle) Wait() ExitStatus {
	<-h.done
	return h.status
}

// Run aborts any previous run, then starts executable with args in the background.
// Output lines of stdout and stderr are passed to onLine; the order is preserved
// within each stream only. onExit is called once when the run ends, whatever the cause.
// Spawn failures are reported through onExit, not returned.
// Run and Abort block on the current run, so onLine and onExit must not call them.
func (r *Runner) Run(ctx context.Context, executable string, args []string, onLine LineFunc, onExit ExitFunc) (*Handle, error) {
	if strings.TrimSpace(executable) == "" {
		return nil, fmt.Errorf("%w: empty executable path", ErrInvalidArgument)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: empty argument list", ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.abortLocked()

	runCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		id:     uuid.New(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.current = h

	go r.work(runCtx, h, executable, args, onLine, onExit)
	return h, nil
}

// Abort cancels the current run, if any, and waits for it to finish.
func (r *Runner) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.abortLocked()
}

func (r *Runner) abortLocked() {
	if r.current == nil {
		return
	}
	r.current.cancel()
	<-r.current.done
	r.current = nil
}

func (r *Runner) work(ctx context.Context, h *Handle, executable string, args []string, onLine LineFunc, onExit ExitFunc) {
	logger := r.logger.With("run", h.id.String())
	start := time.Now()
	status := ExitStatus{Code: -1}

	defer close(h.done)
	defer h.cancel()
	defer func() {
		status.Elapsed = time.Since(start)
		h.status = status
		if onExit == nil {
			return
		}
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("exit handler panicked", "panic", rec)
			}
		}()
		onExit(status)
	}()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("analyzer run panicked", "panic", rec, "stack", string(debug.Stack()))
			status.Err = fmt.Errorf("%w: %v", ErrPanic, rec)
		}
	}()

	cmd := exec.Command(executable, args...)
	cmd.Dir = r.Dir
	prepare(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		status.Err = fmt.Errorf("%w: stdout pipe: %w", ErrStartFailure, err)
		logger.Error("unable to create stdout pipe", "error", err)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdout.Close()
		status.Err = fmt.Errorf("%w: stderr pipe: %w", ErrStartFailure, err)
		logger.Error("unable to create stderr pipe", "error", err)
		return
	}

	if err := cmd.Start(); err != nil {
		status.Err = fmt.Errorf("%w %q: %w", ErrStartFailure, executable, err)
		logger.Error("unable to start analyzer", "executable", executable, "error", err)
		return
	}
	pid := cmd.Process.Pid
	logger.Debug("analyzer started", "executable", executable, "pid", pid, "args", args)

	if err := lowerPriority(cmd.Process); err != nil {
		logger.Debug("unable to lower analyzer priority", "pid", pid, "error", err)
	}

	var (
		lineMu      sync.Mutex
		callbackErr error
	)
	deliver := func(line string) {
		lineMu.Lock()
		defer lineMu.Unlock()
		if onLine == nil || ctx.Err() != nil {
			return
		}
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("line handler panicked", "panic", rec)
				if callbackErr == nil {
					callbackErr = fmt.Errorf("%w: %v", ErrPanic, rec)
				}
			}
		}()
		onLine(line)
	}

	var readers errgroup.Group
	readers.Go(func() error { return scanLines(stdout, deliver) })
	readers.Go(func() error { return scanLines(stderr, deliver) })

	exited := make(chan error, 1)
	go func() {
		readErr := readers.Wait()
		if readErr != nil && ctx.Err() == nil {
			logger.Warn("failed to read analyzer output", "error", readErr)
		}
		exited <- cmd.Wait()
	}()

	var waitErr error
	select {
	case waitErr = <-exited:
	case <-ctx.Done():
		status.Aborted = true
		logger.Debug("aborting analyzer", "pid", pid)
		if err := kill(cmd.Process); err != nil {
			logger.Warn("unable to kill analyzer", "pid", pid, "error", err)
		}
		stdout.Close()
		stderr.Close()
		waitErr = <-exited
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		status.Code = 0
	case errors.As(waitErr, &exitErr):
		status.Code = exitErr.ExitCode()
	case !status.Aborted:
		status.Err = fmt.Errorf("failed to wait for analyzer: %w", waitErr)
		logger.Error("failed to wait for analyzer", "pid", pid, "error", waitErr)
	}

	lineMu.Lock()
	if callbackErr != nil && status.Err == nil {
		status.Err = callbackErr
	}
	lineMu.Unlock()

	logger.Debug("analyzer finished", "pid", pid, "code", status.Code, "aborted", status.Aborted)
}

func scanLines(r io.Reader, deliver func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineSize)
	for scanner.Scan() {
		deliver(strings.TrimSuffix(scanner.Text(), "\r"))
	}

	err := scanner.Err()
	if err == nil || errors.Is(err, os.ErrClosed) {
		return nil
	}
	// keep the child from blocking on a full pipe
	_, _ = io.Copy(io.Discard, r)
	return err
}
