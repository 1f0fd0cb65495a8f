// Package orchestrator runs one analyzer at a time and routes its output to
// the diagnostics sink, the text sink and the progress subscribers.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/codeman001/cppcheck-vs-addin/internal/analyzer"
	"github.com/codeman001/cppcheck-vs-addin/internal/findings"
	"github.com/codeman001/cppcheck-vs-addin/internal/progress"
	"github.com/codeman001/cppcheck-vs-addin/internal/runner"
	"github.com/codeman001/cppcheck-vs-addin/internal/suppression"
)

const bannerPrefix = "Starting analyzer with arguments: "

// Options holds the collaborators of an Orchestrator. Nil fields get defaults.
type Options struct {
	Runner   *runner.Runner
	Registry *suppression.Registry
	Sink     findings.Sink
	Text     io.Writer
	Notifier *progress.Notifier
	Masks    *suppression.MaskMatcher
	Logger   hclog.Logger
}

// Orchestrator is the entry point for running analyses and managing suppressions.
type Orchestrator struct {
	analyzer analyzer.Analyzer
	runner   *runner.Runner
	registry *suppression.Registry
	sink     findings.Sink
	text     io.Writer
	notifier *progress.Notifier
	masks    *suppression.MaskMatcher
	logger   hclog.Logger

	analyzeMu sync.Mutex // serializes Analyze, Abort and Close

	mu      sync.Mutex // guards the fields below
	state   RunState
	current *runContext
	handle  *runner.Handle
	last    runner.ExitStatus
}

// runContext is shared by the callbacks of a single run.
type runContext struct {
	id         uuid.UUID
	mu         sync.Mutex // serializes writes to the sinks
	req        analyzer.Request
	info       suppression.Info
	totalFiles int
}

// New creates an Orchestrator driving an.
func New(an analyzer.Analyzer, opts Options) (*Orchestrator, error) {
	if an == nil {
		return nil, fmt.Errorf("%w: analyzer is required", ErrInvalidArgument)
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.Runner == nil {
		opts.Runner = runner.New(opts.Logger.Named("runner"))
	}
	if opts.Registry == nil {
		opts.Registry = suppression.NewRegistry(suppression.Locator{}, opts.Logger.Named("suppression"))
	}
	if opts.Sink == nil {
		opts.Sink = findings.NewCollector()
	}
	if opts.Text == nil {
		opts.Text = io.Discard
	}
	if opts.Notifier == nil {
		opts.Notifier = progress.NewNotifier()
	}
	if opts.Masks == nil {
		opts.Masks = suppression.NewMaskMatcher(0)
	}

	return &Orchestrator{
		analyzer: an,
		runner:   opts.Runner,
		registry: opts.Registry,
		sink:     opts.Sink,
		text:     opts.Text,
		notifier: opts.Notifier,
		masks:    opts.Masks,
		logger:   opts.Logger,
		state:    Idle,
	}, nil
}

// Progress returns the notifier progress events are emitted on.
func (o *Orchestrator) Progress() *progress.Notifier {
	return o.notifier
}

// State reports the current run state.
func (o *Orchestrator) State() RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Analyze aborts the current run, if any, and starts the analyzer on req.Files.
// It returns once the analyzer has been started; use Wait to join the run.
// Spawn failures are reported on the text sink and through the Faulted state.
// It must not be called from a sink, text writer or progress handler of a run,
// since it joins the worker that is delivering that callback.
func (o *Orchestrator) Analyze(ctx context.Context, req analyzer.Request) error {
	if len(req.Files) == 0 {
		return analyzer.ErrNoFiles
	}

	o.analyzeMu.Lock()
	defer o.analyzeMu.Unlock()

	o.abortCurrent(Aborting)
	o.sink.Clear()

	info := o.registry.LoadAll(req.Project)
	files := o.masks.Filter(req.Files, info.SkippedFiles)
	if skipped := len(req.Files) - len(files); skipped > 0 {
		o.logger.Debug("files skipped by masks", "skipped", skipped)
	}

	rc := &runContext{
		id:         uuid.New(),
		req:        req,
		info:       info,
		totalFiles: len(files),
	}
	rc.req.Files = files
	logger := o.logger.With("run", rc.id.String(), "analyzer", o.analyzer.Name())

	if len(files) == 0 {
		o.writeLine(rc, "No files to analyze: every file matches a skipped files mask")
		o.notifier.Emit(0, 0, 0)
		o.notifier.Emit(100, 0, 0)
		o.finish(Completed, runner.ExitStatus{})
		logger.Info("nothing to analyze")
		return nil
	}

	args, err := o.analyzer.BuildArguments(rc.req, info)
	if err != nil {
		err = fmt.Errorf("failed to build %s arguments: %w", o.analyzer.Name(), err)
		o.finish(Faulted, runner.ExitStatus{Code: -1, Err: err})
		return err
	}

	o.writeLine(rc, bannerPrefix+strings.Join(args, " "))
	o.notifier.Emit(0, 0, rc.totalFiles)

	o.mu.Lock()
	o.current = rc
	o.state = Running
	o.mu.Unlock()

	logger.Info("starting analysis", "type", req.Type.String(), "files", rc.totalFiles)
	handle, err := o.runner.Run(ctx, o.analyzer.Executable(), args,
		func(line string) { o.onLine(rc, line) },
		func(status runner.ExitStatus) { o.onExit(rc, status) },
	)
	if err != nil {
		err = fmt.Errorf("failed to start %s: %w", o.analyzer.Name(), err)
		o.mu.Lock()
		o.current = nil
		o.mu.Unlock()
		o.finish(Faulted, runner.ExitStatus{Code: -1, Err: err})
		o.notifier.Emit(100, 0, rc.totalFiles)
		return err
	}

	o.mu.Lock()
	o.handle = handle
	o.mu.Unlock()
	return nil
}

// Wait blocks until the latest run has finished and returns its exit status.
func (o *Orchestrator) Wait() runner.ExitStatus {
	o.mu.Lock()
	h := o.handle
	o.mu.Unlock()
	if h == nil {
		o.mu.Lock()
		defer o.mu.Unlock()
		return o.last
	}
	return h.Wait()
}

// Abort cancels the current run and joins it. The state becomes Idle.
// Like Analyze, it must not be called from the callbacks of a run.
func (o *Orchestrator) Abort() {
	o.analyzeMu.Lock()
	defer o.analyzeMu.Unlock()
	o.abortCurrent(Idle)
}

// Close aborts the current run and releases the analyzer.
func (o *Orchestrator) Close() error {
	o.Abort()
	if closer, ok := o.analyzer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SuppressProblem stores a rule suppressing p at the given scope.
func (o *Orchestrator) SuppressProblem(p findings.Problem, scope suppression.Scope, project suppression.Project) error {
	return o.registry.SuppressProblem(p, scope, project)
}

// ReadSuppressions returns the rules stored in the given tier.
func (o *Orchestrator) ReadSuppressions(storage suppression.Storage, project suppression.Project) (suppression.Info, error) {
	return o.registry.ReadSuppressions(storage, project)
}

// abortCurrent detaches the current run before joining it, so its late
// callbacks see a stale run and leave the state alone.
func (o *Orchestrator) abortCurrent(next RunState) {
	o.mu.Lock()
	active := o.current != nil
	o.current = nil
	if active {
		o.state = Aborting
	}
	o.mu.Unlock()

	o.runner.Abort()

	o.mu.Lock()
	if active || next == Idle {
		o.state = next
	}
	o.mu.Unlock()
}

func (o *Orchestrator) isCurrent(rc *runContext) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current == rc
}

// finish records the outcome of a run that never reached the runner.
func (o *Orchestrator) finish(s RunState, status runner.ExitStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = s
	o.handle = nil
	o.last = status
}

func (o *Orchestrator) setState(s RunState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = s
}

func (o *Orchestrator) onLine(rc *runContext, line string) {
	if line == "" || !o.isCurrent(rc) {
		return
	}

	problems := o.analyzer.ParseOutput(line)

	rc.mu.Lock()
	defer rc.mu.Unlock()

	for _, p := range problems {
		if rc.info.Suppresses(p) {
			continue
		}
		if p.File != "" && o.masks.MatchAny(p.File, rc.info.SkippedIncludes) {
			continue
		}
		o.sink.Add(p)
	}
	fmt.Fprintln(o.text, line)

	if pp, ok := o.analyzer.(analyzer.ProgressParser); ok {
		if ev, ok := pp.ParseProgress(line); ok {
			total := ev.TotalFiles
			if total == 0 {
				total = rc.totalFiles
			}
			o.notifier.Emit(ev.Percent, ev.FilesChecked, total)
		}
	}
}

func (o *Orchestrator) onExit(rc *runContext, status runner.ExitStatus) {
	logger := o.logger.With("run", rc.id.String(), "analyzer", o.analyzer.Name())
	defer o.notifier.Emit(100, rc.totalFiles, rc.totalFiles)

	o.mu.Lock()
	current := o.current == rc
	if current {
		o.current = nil
	}
	o.last = status
	o.mu.Unlock()

	if !current || status.Aborted {
		logger.Debug("analysis aborted", "elapsed", status.Elapsed)
		if current {
			o.setState(Idle)
		}
		return
	}

	next := Completed
	switch {
	case errors.Is(status.Err, runner.ErrStartFailure):
		next = Faulted
		o.writeLine(rc, fmt.Sprintf("Failed to start %s: %v", o.analyzer.Name(), status.Err))
		logger.Error("analyzer failed to start", "error", status.Err)
	case status.Err != nil:
		next = Faulted
		o.writeLine(rc, fmt.Sprintf("%s failed: %v", o.analyzer.Name(), status.Err))
		logger.Error("analysis failed", "error", status.Err)
	case status.Code != 0:
		o.writeLine(rc, fmt.Sprintf("%s has exited with code %d", o.analyzer.Executable(), status.Code))
		logger.Warn("analyzer exited with non-zero code", "code", status.Code)
	default:
		o.writeLine(rc, fmt.Sprintf("Analysis completed in %.3f seconds", status.Elapsed.Seconds()))
		logger.Info("analysis completed", "elapsed", status.Elapsed)
	}

	o.setState(next)
}

func (o *Orchestrator) writeLine(rc *runContext, line string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	fmt.Fprintln(o.text, line)
}
