// Package analyzer builds command lines for external static analyzers and
// parses their output into problems.
package analyzer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/codeman001/cppcheck-vs-addin/internal/config"
	"github.com/codeman001/cppcheck-vs-addin/internal/findings"
	"github.com/codeman001/cppcheck-vs-addin/internal/progress"
	"github.com/codeman001/cppcheck-vs-addin/internal/suppression"
)

const (
	NameCppcheck  = "cppcheck"
	NameClangTidy = "clang-tidy"
	NameCustom    = "custom"
)

var (
	ErrUnknownAnalyzer = errors.New("unknown analyzer")
	ErrNoFiles         = errors.New("no files to analyze")
)

// AnalysisType tells whether a single saved document or a whole project is analyzed.
type AnalysisType int

const (
	DocumentSavedAnalysis AnalysisType = iota
	ProjectAnalysis
)

func (t AnalysisType) String() string {
	switch t {
	case DocumentSavedAnalysis:
		return "document"
	case ProjectAnalysis:
		return "project"
	default:
		return fmt.Sprintf("analysis(%d)", int(t))
	}
}

// Request describes one batch of files to analyze.
type Request struct {
	Files        []string
	IncludePaths []string
	Macros       []string
	Is64Bit      bool
	IsDebug      bool
	Type         AnalysisType
	Project      suppression.Project
}

// Analyzer is one external analysis tool.
type Analyzer interface {
	Name() string
	Executable() string
	BuildArguments(req Request, info suppression.Info) ([]string, error)
	// ParseOutput is safe for concurrent use and never panics on malformed input.
	ParseOutput(line string) []findings.Problem
}

// ProgressParser is implemented by analyzers that report their own progress.
type ProgressParser interface {
	ParseProgress(line string) (progress.Event, bool)
}

// New returns the analyzer registered under name, configured from cfg.
func New(name string, cfg *config.Config, logger hclog.Logger) (Analyzer, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameCppcheck:
		return NewCppcheck(cfg.Cppcheck, config.CppcheckJobs(cfg)), nil
	case NameClangTidy:
		return NewClangTidy(cfg.ClangTidy), nil
	case NameCustom:
		return NewCustom(cfg.Custom, cfg.Addin.PluginsFolder, logger.Named("parser"))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnalyzer, name)
	}
}

// includePaths returns the request include paths followed by the configured ones.
// Relative configured paths are resolved against the project folder.
func includePaths(req Request, info suppression.Info) []string {
	paths := append([]string(nil), req.IncludePaths...)
	for _, p := range info.IncludePaths {
		if !filepath.IsAbs(p) && req.Project.BasePath != "" {
			p = filepath.Join(req.Project.BasePath, p)
		}
		paths = appendMissing(paths, p)
	}
	return paths
}

func appendMissing(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}
