package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
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

	"github.com/codeman001/cppcheck-vs-addin/internal/analyzer"
	"github.com/codeman001/cppcheck-vs-addin/internal/findings"
	"github.com/codeman001/cppcheck-vs-addin/internal/progress"
	"github.com/codeman001/cppcheck-vs-addin/internal/runner"
	"github.com/codeman001/cppcheck-vs-addin/internal/suppression"
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

// scriptAnalyzer runs a shell script and understands lines of the form
// "P|file|line|id|message" and "progress N".
type scriptAnalyzer struct {
	executable string
	script     string
	mu         sync.Mutex
	lastInfo   suppression.Info
	lastFiles  []string
	buildErr   error
}

func (a *scriptAnalyzer) Name() string       { return "script" }
func (a *scriptAnalyzer) Executable() string { return a.executable }

func (a *scriptAnalyzer) BuildArguments(req analyzer.Request, info suppression.Info) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.buildErr != nil {
		return nil, a.buildErr
	}
	a.lastInfo = info
	a.lastFiles = append([]string(nil), req.Files...)
	return []string{"-c", a.script}, nil
}

func (a *scriptAnalyzer) ParseOutput(line string) []findings.Problem {
	parts := strings.Split(line, "|")
	if len(parts) != 5 || parts[0] != "P" {
		return nil
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil
	}
	return []findings.Problem{{File: parts[1], Line: n, ID: parts[3], Message: parts[4], Severity: findings.SeverityWarning}}
}

func (a *scriptAnalyzer) ParseProgress(line string) (progress.Event, bool) {
	rest, ok := strings.CutPrefix(line, "progress ")
	if !ok {
		return progress.Event{}, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 || n > 100 {
		return progress.Event{}, false
	}
	return progress.Event{Percent: n}, true
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Split(strings.TrimRight(b.buf.String(), "\n"), "\n")
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	orch      *Orchestrator
	an        *scriptAnalyzer
	sink      *findings.Collector
	text      *syncBuffer
	project   suppression.Project
	mu        sync.Mutex
	percents  []int
	lastEvent progress.Event
}

func newFixture(t *testing.T, script string) *fixture {
	t.Helper()
	skipWithoutShell(t)

	root := t.TempDir()
	projectDir := filepath.Join(root, "project")
	require.NoError(t, os.MkdirAll(projectDir, 0755))

	f := &fixture{
		an:      &scriptAnalyzer{executable: shell, script: script},
		sink:    findings.NewCollector(),
		text:    &syncBuffer{},
		project: suppression.Project{BasePath: projectDir, Name: "core"},
	}
	locator := suppression.Locator{GlobalFolder: filepath.Join(root, "global")}

	orch, err := New(f.an, Options{
		Registry: suppression.NewRegistry(locator, nil),
		Sink:     f.sink,
		Text:     f.text,
	})
	require.NoError(t, err)
	orch.Progress().Subscribe(func(e progress.Event) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.percents = append(f.percents, e.Percent)
		f.lastEvent = e
	})
	t.Cleanup(func() { _ = orch.Close() })

	f.orch = orch
	return f
}

func (f *fixture) request(files ...string) analyzer.Request {
	return analyzer.Request{Files: files, Type: analyzer.ProjectAnalysis, Project: f.project}
}

func (f *fixture) progress() ([]int, progress.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.percents...), f.lastEvent
}

func TestNewRequiresAnalyzer(t *testing.T) {
	_, err := New(nil, Options{})
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestAnalyzeRequiresFiles(t *testing.T) {
	f := newFixture(t, "true")
	err := f.orch.Analyze(context.Background(), f.request())
	assert.True(t, errors.Is(err, analyzer.ErrNoFiles))
	assert.Equal(t, Idle, f.orch.State())
}

func TestAnalyzeCompletes(t *testing.T) {
	script := `echo "P|/src/a.cpp|3|nullPointer|Null pointer"; echo "progress 50"; echo "P|/src/b.cpp|9|uninitvar|Uninitialized" 1>&2`
	f := newFixture(t, script)

	require.NoError(t, f.orch.Analyze(context.Background(), f.request("/src/a.cpp", "/src/b.cpp")))
	status := f.orch.Wait()
	assert.True(t, status.Success())
	assert.Equal(t, Completed, f.orch.State())

	assert.ElementsMatch(t, []findings.Problem{
		{File: "/src/a.cpp", Line: 3, ID: "nullPointer", Message: "Null pointer", Severity: findings.SeverityWarning},
		{File: "/src/b.cpp", Line: 9, ID: "uninitvar", Message: "Uninitialized", Severity: findings.SeverityWarning},
	}, f.sink.Problems())

	lines := f.text.Lines()
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, "Starting analyzer with arguments: -c "+script, lines[0])
	assert.Contains(t, lines, "progress 50")
	assert.Contains(t, lines, "P|/src/b.cpp|9|uninitvar|Uninitialized")
	assert.Regexp(t, `^Analysis completed in \d+\.\d{3} seconds$`, lines[len(lines)-1])

	percents, last := f.progress()
	assert.Equal(t, []int{0, 50, 100}, percents)
	assert.Equal(t, progress.Event{Percent: 100, FilesChecked: 2, TotalFiles: 2}, last)
}

func TestAnalyzeNonZeroExit(t *testing.T) {
	f := newFixture(t, `echo "P|/src/a.cpp|1|x|y"; exit 3`)

	require.NoError(t, f.orch.Analyze(context.Background(), f.request("/src/a.cpp")))
	status := f.orch.Wait()
	assert.Equal(t, 3, status.Code)
	assert.Equal(t, Completed, f.orch.State())
	assert.Len(t, f.sink.Problems(), 1)

	lines := f.text.Lines()
	assert.Equal(t, shell+" has exited with code 3", lines[len(lines)-1])
}

func TestAnalyzeSpawnFailure(t *testing.T) {
	f := newFixture(t, "true")
	f.an.executable = filepath.Join(t.TempDir(), "no-such-analyzer")

	require.NoError(t, f.orch.Analyze(context.Background(), f.request("/src/a.cpp")))
	status := f.orch.Wait()
	require.Error(t, status.Err)
	assert.Equal(t, Faulted, f.orch.State())
	assert.Empty(t, f.sink.Problems())
	assert.Contains(t, f.text.String(), "Failed to start script: ")

	percents, _ := f.progress()
	assert.Equal(t, []int{0, 100}, percents)
}

func TestAbortStopsRun(t *testing.T) {
	f := newFixture(t, `echo "P|/src/a.cpp|1|first|x"; sleep 30; echo "P|/src/a.cpp|2|late|x"`)

	require.NoError(t, f.orch.Analyze(context.Background(), f.request("/src/a.cpp")))
	require.Eventually(t, func() bool { return len(f.sink.Problems()) == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, Running, f.orch.State())

	start := time.Now()
	f.orch.Abort()
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Equal(t, Idle, f.orch.State())

	status := f.orch.Wait()
	assert.True(t, status.Aborted)
	assert.NotContains(t, f.text.String(), "Analysis completed")
	assert.NotContains(t, f.text.String(), "has exited with code")

	percents, _ := f.progress()
	assert.Equal(t, 100, percents[len(percents)-1])
}

func TestAnalyzeReplacesRunningAnalysis(t *testing.T) {
	f := newFixture(t, `echo "P|/src/a.cpp|1|old|x"; sleep 30`)

	require.NoError(t, f.orch.Analyze(context.Background(), f.request("/src/a.cpp")))
	require.Eventually(t, func() bool { return len(f.sink.Problems()) == 1 }, 5*time.Second, 10*time.Millisecond)

	f.an.script = `echo "P|/src/b.cpp|2|new|y"`
	require.NoError(t, f.orch.Analyze(context.Background(), f.request("/src/b.cpp")))
	f.orch.Wait()

	assert.Equal(t, Completed, f.orch.State())
	assert.Equal(t, []findings.Problem{
		{File: "/src/b.cpp", Line: 2, ID: "new", Message: "y", Severity: findings.SeverityWarning},
	}, f.sink.Problems())
}

func TestAnalyzeContextCancel(t *testing.T) {
	f := newFixture(t, "sleep 30")
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, f.orch.Analyze(ctx, f.request("/src/a.cpp")))
	cancel()

	status := f.orch.Wait()
	assert.True(t, status.Aborted)
	assert.Equal(t, Idle, f.orch.State())
}

func TestAnalyzeAppliesSuppressions(t *testing.T) {
	f := newFixture(t, `echo "P|/src/a.cpp|3|nullPointer|x"; echo "P|/src/a.cpp|4|uninitvar|y"; echo "P|/inc/lib.h|5|shadow|z"`)

	require.NoError(t, f.orch.SuppressProblem(
		findings.Problem{File: "/src/a.cpp", Line: 3, ID: "nullPointer"}, suppression.ThisMessage, f.project))

	path, err := f.orch.registry.Locator().PathForStorage(suppression.StorageProject, f.project)
	require.NoError(t, err)
	info, err := suppression.LoadInfo(path)
	require.NoError(t, err)
	info.SkippedIncludes = []string{`^/inc/`}
	info.SkippedFiles = []string{`generated`}
	require.NoError(t, suppression.SaveInfo(path, info))

	require.NoError(t, f.orch.Analyze(context.Background(), f.request("/src/a.cpp", "/src/generated.cpp")))
	f.orch.Wait()

	assert.Equal(t, []findings.Problem{
		{File: "/src/a.cpp", Line: 4, ID: "uninitvar", Message: "y", Severity: findings.SeverityWarning},
	}, f.sink.Problems())
	assert.Equal(t, []string{"/src/a.cpp"}, f.an.lastFiles)
	assert.Len(t, f.an.lastInfo.Suppressions, 1)

	stored, err := f.orch.ReadSuppressions(suppression.StorageProject, f.project)
	require.NoError(t, err)
	assert.Len(t, stored.Suppressions, 1)
}

func TestAnalyzeEverythingSkipped(t *testing.T) {
	f := newFixture(t, `echo "P|/src/a.cpp|3|x|y"`)

	path, err := f.orch.registry.Locator().PathForStorage(suppression.StorageProject, f.project)
	require.NoError(t, err)
	require.NoError(t, suppression.SaveInfo(path, suppression.Info{SkippedFiles: []string{`.*`}}))

	require.NoError(t, f.orch.Analyze(context.Background(), f.request("/src/a.cpp")))
	f.orch.Wait()

	assert.Equal(t, Completed, f.orch.State())
	assert.Empty(t, f.sink.Problems())
	assert.Nil(t, f.an.lastFiles)

	percents, _ := f.progress()
	assert.Equal(t, []int{0, 100}, percents)
}

func TestAnalyzeEarlyExitResetsLastStatus(t *testing.T) {
	buildErr := errors.New("bad project")

	tests := []struct {
		name      string
		prepare   func(t *testing.T, f *fixture)
		file      string
		wantErr   error
		wantState RunState
	}{
		{
			name: "everything skipped",
			prepare: func(t *testing.T, f *fixture) {
				path, err := f.orch.registry.Locator().PathForStorage(suppression.StorageProject, f.project)
				require.NoError(t, err)
				require.NoError(t, suppression.SaveInfo(path, suppression.Info{SkippedFiles: []string{`skipped`}}))
			},
			file:      "/src/skipped.cpp",
			wantState: Completed,
		},
		{
			name: "arguments cannot be built",
			prepare: func(t *testing.T, f *fixture) {
				f.an.mu.Lock()
				defer f.an.mu.Unlock()
				f.an.buildErr = buildErr
			},
			file:      "/src/a.cpp",
			wantErr:   buildErr,
			wantState: Faulted,
		},
		{
			name: "runner rejects arguments",
			prepare: func(t *testing.T, f *fixture) {
				f.an.executable = ""
			},
			file:      "/src/a.cpp",
			wantErr:   runner.ErrInvalidArgument,
			wantState: Faulted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, `echo "P|/src/a.cpp|1|old|x"; sleep 30`)
			require.NoError(t, f.orch.Analyze(context.Background(), f.request("/src/a.cpp")))
			require.Eventually(t, func() bool { return len(f.sink.Problems()) == 1 }, 5*time.Second, 10*time.Millisecond)

			tt.prepare(t, f)
			err := f.orch.Analyze(context.Background(), f.request(tt.file))
			status := f.orch.Wait()

			assert.Equal(t, tt.wantState, f.orch.State())
			assert.False(t, status.Aborted)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.True(t, status.Success(), fmt.Sprintf("%+v", status))
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Equal(t, -1, status.Code)
			assert.True(t, errors.Is(status.Err, tt.wantErr), "got %v", status.Err)
		})
	}
}

func TestAnalyzeDropsEmptyLines(t *testing.T) {
	f := newFixture(t, `echo a; echo; echo b`)

	require.NoError(t, f.orch.Analyze(context.Background(), f.request("/src/a.cpp")))
	f.orch.Wait()

	lines := f.text.Lines()
	assert.NotContains(t, lines, "")
	assert.Equal(t, []string{"a", "b"}, lines[1:3])
}

func TestProgressHandlerMayQueryState(t *testing.T) {
	f := newFixture(t, `echo "progress 50"`)

	var mu sync.Mutex
	var states []RunState
	f.orch.Progress().Subscribe(func(progress.Event) {
		state := f.orch.State()
		mu.Lock()
		defer mu.Unlock()
		states = append(states, state)
	})

	require.NoError(t, f.orch.Analyze(context.Background(), f.request("/src/a.cpp")))
	done := make(chan struct{})
	go func() {
		f.orch.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("run did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, states, 3)
}

func TestRunStateString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "state(9)", RunState(9).String())
	assert.True(t, Completed.Terminal())
	assert.False(t, Aborting.Terminal())
}
