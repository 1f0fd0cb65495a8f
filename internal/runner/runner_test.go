package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shell = "/bin/sh"

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not available on windows")
	}
	if _, err := os.Stat(shell); err != nil {
		t.Skipf("%s not found: %v", shell, err)
	}
}

type recorder struct {
	mu    sync.Mutex
	lines []string
	exits []ExitStatus
}

func (r *recorder) onLine(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func (r *recorder) onExit(status ExitStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exits = append(r.exits, status)
}

func (r *recorder) snapshot() ([]string, []ExitStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...), append([]ExitStatus(nil), r.exits...)
}

func TestRunInvalidArguments(t *testing.T) {
	r := New(nil)

	_, err := r.Run(context.Background(), "", []string{"-c", "true"}, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = r.Run(context.Background(), "  ", []string{"-c", "true"}, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	_, err = r.Run(context.Background(), shell, nil, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestRunDeliversLinesInOrder(t *testing.T) {
	skipWithoutShell(t)

	rec := &recorder{}
	h, err := New(nil).Run(context.Background(), shell, []string{"-c", `printf 'line1\nline2\r\n'`}, rec.onLine, rec.onExit)
	require.NoError(t, err)

	status := h.Wait()
	lines, exits := rec.snapshot()

	assert.Equal(t, []string{"line1", "line2"}, lines)
	require.Len(t, exits, 1)
	assert.Equal(t, 0, status.Code)
	assert.True(t, status.Success())
	assert.False(t, status.Aborted)
	assert.NoError(t, status.Err)
	assert.Equal(t, status, exits[0])
}

func TestRunCapturesStderr(t *testing.T) {
	skipWithoutShell(t)

	rec := &recorder{}
	h, err := New(nil).Run(context.Background(), shell, []string{"-c", `echo out; echo err 1>&2`}, rec.onLine, rec.onExit)
	require.NoError(t, err)
	h.Wait()

	lines, _ := rec.snapshot()
	assert.ElementsMatch(t, []string{"out", "err"}, lines)
}

func TestRunReportsExitCode(t *testing.T) {
	skipWithoutShell(t)

	rec := &recorder{}
	h, err := New(nil).Run(context.Background(), shell, []string{"-c", "exit 7"}, rec.onLine, rec.onExit)
	require.NoError(t, err)

	status := h.Wait()
	assert.Equal(t, 7, status.Code)
	assert.NoError(t, status.Err)
	assert.False(t, status.Success())

	_, exits := rec.snapshot()
	assert.Len(t, exits, 1)
}

func TestRunSpawnFailure(t *testing.T) {
	rec := &recorder{}
	missing := filepath.Join(t.TempDir(), "no-such-analyzer")

	h, err := New(nil).Run(context.Background(), missing, []string{"--version"}, rec.onLine, rec.onExit)
	require.NoError(t, err)

	status := h.Wait()
	assert.True(t, errors.Is(status.Err, ErrStartFailure), "got %v", status.Err)
	assert.Equal(t, -1, status.Code)

	lines, exits := rec.snapshot()
	assert.Empty(t, lines)
	assert.Len(t, exits, 1)
}

func TestAbortKillsProcess(t *testing.T) {
	skipWithoutShell(t)

	rec := &recorder{}
	r := New(nil)
	h, err := r.Run(context.Background(), shell, []string{"-c", "echo started; sleep 30; echo late"}, rec.onLine, rec.onExit)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		lines, _ := rec.snapshot()
		return len(lines) == 1
	}, 5*time.Second, 10*time.Millisecond)

	begin := time.Now()
	r.Abort()
	assert.Less(t, time.Since(begin), 10*time.Second)

	select {
	case <-h.Done():
	default:
		t.Fatal("run is still active after Abort returned")
	}

	status := h.Wait()
	assert.True(t, status.Aborted)
	assert.False(t, status.Success())

	lines, exits := rec.snapshot()
	assert.Equal(t, []string{"started"}, lines)
	assert.Len(t, exits, 1)
}

func TestRunReplacesPreviousRun(t *testing.T) {
	skipWithoutShell(t)

	first := &recorder{}
	second := &recorder{}
	r := New(nil)

	h1, err := r.Run(context.Background(), shell, []string{"-c", "sleep 30 & echo $!; wait; echo first"}, first.onLine, first.onExit)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		lines, _ := first.snapshot()
		return len(lines) == 1
	}, 5*time.Second, 10*time.Millisecond)
	firstLines, _ := first.snapshot()
	sleepPid, err := strconv.Atoi(firstLines[0])
	require.NoError(t, err)

	h2, err := r.Run(context.Background(), shell, []string{"-c", "echo second"}, second.onLine, second.onExit)
	require.NoError(t, err)

	select {
	case <-h1.Done():
	default:
		t.Fatal("previous run was not joined before the new one started")
	}
	assert.True(t, h1.Wait().Aborted)
	assert.NotEqual(t, h1.ID(), h2.ID())

	h2.Wait()
	firstLines, firstExits := first.snapshot()
	secondLines, _ := second.snapshot()
	assert.Len(t, firstLines, 1)
	assert.Len(t, firstExits, 1)
	assert.Equal(t, []string{"second"}, secondLines)

	if _, err := os.Stat("/proc/self/stat"); err != nil {
		t.Skip("procfs is not available")
	}
	assert.Eventually(t, func() bool { return processTerminated(sleepPid) }, 5*time.Second, 10*time.Millisecond,
		"child %d of the previous run is still alive", sleepPid)
}

// processTerminated reports whether pid is gone or a zombie waiting to be reaped.
func processTerminated(pid int) bool {
	content, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat"))
	if err != nil {
		return errors.Is(err, os.ErrNotExist)
	}
	stat := string(content)
	fields := strings.Fields(stat[strings.LastIndex(stat, ")")+1:])
	return len(fields) > 0 && fields[0] == "Z"
}

func TestContextCancellationAbortsRun(t *testing.T) {
	skipWithoutShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	h, err := New(nil).Run(ctx, shell, []string{"-c", "sleep 30"}, nil, nil)
	require.NoError(t, err)

	cancel()
	select {
	case <-h.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("run did not stop after context cancellation")
	}
	assert.True(t, h.Wait().Aborted)
}

func TestLineHandlerPanicIsContained(t *testing.T) {
	skipWithoutShell(t)

	var exits []ExitStatus
	var mu sync.Mutex
	h, err := New(nil).Run(context.Background(), shell, []string{"-c", "echo boom; echo after"},
		func(line string) {
			if line == "boom" {
				panic("handler failure")
			}
		},
		func(status ExitStatus) {
			mu.Lock()
			defer mu.Unlock()
			exits = append(exits, status)
		})
	require.NoError(t, err)

	status := h.Wait()
	assert.True(t, errors.Is(status.Err, ErrPanic), "got %v", status.Err)
	assert.Equal(t, 0, status.Code)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, exits, 1)
}

func TestWorkingDirectory(t *testing.T) {
	skipWithoutShell(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), nil, 0644))

	rec := &recorder{}
	r := New(nil)
	r.Dir = dir
	h, err := r.Run(context.Background(), shell, []string{"-c", "ls"}, rec.onLine, rec.onExit)
	require.NoError(t, err)
	h.Wait()

	lines, _ := rec.snapshot()
	assert.Contains(t, lines, "marker.txt")
}
