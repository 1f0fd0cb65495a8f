package analyzer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/codeman001/cppcheck-vs-addin/internal/config"
	"github.com/codeman001/cppcheck-vs-addin/internal/findings"
	"github.com/codeman001/cppcheck-vs-addin/internal/suppression"
)

var clangTidyProblemRe = regexp.MustCompile(`^(.+):(\d+):(\d+): (warning|error|note): (.*?)(?: \[([^\]]+)\])?$`)

// ClangTidy runs clang-tidy. Compiler flags are passed after "--" so that no
// compilation database is needed.
type ClangTidy struct {
	cfg config.ClangTidy
}

func NewClangTidy(cfg config.ClangTidy) *ClangTidy {
	return &ClangTidy{cfg: cfg}
}

func (c *ClangTidy) Name() string {
	return NameClangTidy
}

func (c *ClangTidy) Executable() string {
	return config.SetThen(c.cfg.Path, config.DefaultClangTidyPath)
}

func (c *ClangTidy) BuildArguments(req Request, info suppression.Info) ([]string, error) {
	if len(req.Files) == 0 {
		return nil, ErrNoFiles
	}

	var args []string
	if c.cfg.Checks != "" {
		args = append(args, "--checks="+c.cfg.Checks)
	}
	args = append(args, c.cfg.AdditionalArgs...)
	args = append(args, req.Files...)

	args = append(args, "--")
	if req.IsDebug {
		args = append(args, "-D_DEBUG")
	} else {
		args = append(args, "-DNDEBUG")
	}
	for _, macro := range req.Macros {
		args = append(args, "-D"+macro)
	}
	for _, include := range includePaths(req, info) {
		args = append(args, "-I"+include)
	}
	return args, nil
}

func (c *ClangTidy) ParseOutput(line string) []findings.Problem {
	m := clangTidyProblemRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return nil
	}
	return []findings.Problem{{
		File:     m[1],
		Line:     n,
		Severity: findings.ParseSeverity(m[4]),
		Message:  m[5],
		ID:       m[6],
	}}
}
