package analyse

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"

	"github.com/codeman001/cppcheck-vs-addin/internal/analyzer"
	"github.com/codeman001/cppcheck-vs-addin/internal/findings"
	"github.com/codeman001/cppcheck-vs-addin/internal/git"
	"github.com/codeman001/cppcheck-vs-addin/internal/suppression"
	"github.com/codeman001/cppcheck-vs-addin/pkg/shared"
	"github.com/codeman001/cppcheck-vs-addin/pkg/shared/files"
)

// SourceExtensions are the files picked up when a folder is analysed.
var SourceExtensions = []string{"c", "cc", "cpp", "cxx", "c++"}

// analysisTargets is the resolved file set of one analyse invocation.
type analysisTargets struct {
	Files        []string
	Type         analyzer.AnalysisType
	SourceFolder string
	Repository   *git.RepositoryState
}

// Request builds the analyzer request for the targets.
func (t analysisTargets) Request(options *RunOptionsAnalyse) analyzer.Request {
	req := analyzer.Request{
		Files:        t.Files,
		IncludePaths: options.IncludePaths,
		Macros:       options.Macros,
		Is64Bit:      options.Is64Bit,
		IsDebug:      !options.Release,
		Type:         t.Type,
	}
	if options.ProjectDir != "" {
		req.Project = suppression.Project{BasePath: options.ProjectDir, Name: options.ProjectName}
	}
	return req
}

// prepareTargets resolves the files to analyse from the validated options.
func prepareTargets(options *RunOptionsAnalyse, logger hclog.Logger) (analysisTargets, error) {
	if options.OnSave != "" {
		file, err := files.AbsPath(options.OnSave)
		if err != nil {
			return analysisTargets{}, err
		}
		return analysisTargets{
			Files:        []string{file},
			Type:         analyzer.DocumentSavedAnalysis,
			SourceFolder: sourceFolder(options, filepath.Dir(file)),
		}, nil
	}

	if options.Changed {
		root := "."
		if len(options.Targets) > 0 {
			root = options.Targets[0]
		} else if options.ProjectDir != "" {
			root = options.ProjectDir
		}
		changed, repo, err := git.ChangedFiles(root, SourceExtensions)
		if err != nil {
			return analysisTargets{}, fmt.Errorf("failed to list changed files: %w", err)
		}
		logger.Debug("changed files collected", "root", repo.RootFolder, "branch", repo.BranchName, "commit", repo.CommitHash, "files", len(changed))
		return analysisTargets{
			Files:        changed,
			Type:         analyzer.ProjectAnalysis,
			SourceFolder: sourceFolder(options, repo.RootFolder),
			Repository:   repo,
		}, nil
	}

	perTarget := make([][]string, len(options.Targets))
	targetErrs := make([]error, len(options.Targets))
	shared.ForEveryStringWithBoundedGoroutines(runtime.NumCPU(), options.Targets, func(i int, target string) {
		perTarget[i], targetErrs[i] = collectTarget(target)
	})

	var collected []string
	for i := range options.Targets {
		if targetErrs[i] != nil {
			return analysisTargets{}, targetErrs[i]
		}
		collected = append(collected, perTarget[i]...)
	}

	fallback := ""
	if len(options.Targets) > 0 {
		fallback, _ = files.AbsPath(options.Targets[0])
	}
	return analysisTargets{
		Files:        dedup(collected),
		Type:         analyzer.ProjectAnalysis,
		SourceFolder: sourceFolder(options, fallback),
	}, nil
}

// collectTarget returns the source files of a folder, or the file itself.
func collectTarget(target string) ([]string, error) {
	abs, err := files.AbsPath(target)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("the target path does not exist: %v", target)
	}
	if !info.IsDir() {
		return []string{abs}, nil
	}
	return files.FindByExt(abs, SourceExtensions)
}

func sourceFolder(options *RunOptionsAnalyse, fallback string) string {
	if options.ProjectDir != "" {
		if abs, err := files.AbsPath(options.ProjectDir); err == nil {
			return abs
		}
	}
	return fallback
}

func dedup(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// consoleSink prints problems as they arrive, colored by severity.
type consoleSink struct {
	mu     sync.Mutex
	out    io.Writer
	colors map[findings.Severity]*color.Color
	plain  *color.Color
}

func newConsoleSink(out io.Writer, enableColor bool) *consoleSink {
	s := &consoleSink{
		out: out,
		colors: map[findings.Severity]*color.Color{
			findings.SeverityError:       color.New(color.FgRed, color.Bold),
			findings.SeverityWarning:     color.New(color.FgYellow, color.Bold),
			findings.SeverityStyle:       color.New(color.FgCyan),
			findings.SeverityPerformance: color.New(color.FgMagenta),
			findings.SeverityPortability: color.New(color.FgMagenta),
			findings.SeverityInformation: color.New(color.FgBlue),
			findings.SeverityNote:        color.New(color.FgBlue),
		},
		plain: color.New(color.Reset),
	}
	if !enableColor {
		for _, c := range s.colors {
			c.DisableColor()
		}
		s.plain.DisableColor()
	}
	return s
}

func (s *consoleSink) Clear() {}

func (s *consoleSink) Add(p findings.Problem) {
	c, ok := s.colors[p.Severity]
	if !ok {
		c = s.plain
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "%s:%d: %s %s [%s]\n", p.File, p.Line, c.Sprint(string(p.Severity)+":"), p.Message, p.ID)
}
