package analyzer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/codeman001/cppcheck-vs-addin/internal/config"
	"github.com/codeman001/cppcheck-vs-addin/internal/findings"
	"github.com/codeman001/cppcheck-vs-addin/internal/progress"
	"github.com/codeman001/cppcheck-vs-addin/internal/suppression"
)

// CppcheckTemplate is the output format requested from cppcheck.
const CppcheckTemplate = "[{file}:{line}]: ({severity}) [{id}] {message}"

var (
	cppcheckProblemRe  = regexp.MustCompile(`^\[(.+):(\d+)\]: \((\w+)\) \[([^\]]+)\] (.*)$`)
	cppcheckProgressRe = regexp.MustCompile(`^(\d+)/(\d+) files checked (\d+)% done`)

	defaultCppcheckChecks = []string{"warning", "style", "performance", "portability"}
)

// Cppcheck runs cppcheck.
type Cppcheck struct {
	cfg  config.Cppcheck
	jobs int
}

// NewCppcheck creates the cppcheck analyzer. jobs is used for project analysis only.
func NewCppcheck(cfg config.Cppcheck, jobs int) *Cppcheck {
	return &Cppcheck{cfg: cfg, jobs: jobs}
}

func (c *Cppcheck) Name() string {
	return NameCppcheck
}

func (c *Cppcheck) Executable() string {
	return config.SetThen(c.cfg.Path, config.DefaultCppcheckPath)
}

func (c *Cppcheck) BuildArguments(req Request, info suppression.Info) ([]string, error) {
	if len(req.Files) == 0 {
		return nil, ErrNoFiles
	}

	args := []string{"--template=" + CppcheckTemplate}
	args = append(args, "--enable="+strings.Join(config.SetThen(c.cfg.Enable, defaultCppcheckChecks), ","))
	if config.GetBoolValue(c.cfg, "Inconclusive", false) {
		args = append(args, "--inconclusive")
	}
	args = append(args, "--platform="+c.platform(req))

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
	for _, entry := range info.Suppressions {
		if s, ok := suppressArgument(entry); ok {
			args = append(args, s)
		}
	}
	if req.Type == ProjectAnalysis && c.jobs > 1 {
		args = append(args, "-j", strconv.Itoa(c.jobs))
	}

	args = append(args, c.cfg.AdditionalArgs...)
	args = append(args, req.Files...)
	return args, nil
}

func (c *Cppcheck) platform(req Request) string {
	if c.cfg.Platform != "" {
		return c.cfg.Platform
	}
	if req.Is64Bit {
		return "win64"
	}
	return "win32A"
}

// suppressArgument renders an entry as --suppress=id[:file[:line]]. Entries
// without an id are applied to the output instead.
func suppressArgument(e suppression.Entry) (string, bool) {
	if e.ID == "" {
		return "", false
	}
	arg := "--suppress=" + e.ID
	if e.File != "" {
		arg += ":" + e.File
		if e.Line > 0 {
			arg += ":" + strconv.Itoa(e.Line)
		}
	}
	return arg, true
}

func (c *Cppcheck) ParseOutput(line string) []findings.Problem {
	m := cppcheckProblemRe.FindStringSubmatch(strings.TrimSpace(line))
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
		Severity: findings.ParseSeverity(m[3]),
		ID:       m[4],
		Message:  m[5],
	}}
}

// ParseProgress recognizes lines like "3/10 files checked 30% done".
func (c *Cppcheck) ParseProgress(line string) (progress.Event, bool) {
	m := cppcheckProgressRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return progress.Event{}, false
	}
	checked, err1 := strconv.Atoi(m[1])
	total, err2 := strconv.Atoi(m[2])
	percent, err3 := strconv.Atoi(m[3])
	if err1 != nil || err2 != nil || err3 != nil {
		return progress.Event{}, false
	}
	return progress.Event{
		Percent:      clampPercent(percent),
		FilesChecked: checked,
		TotalFiles:   total,
	}, true
}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

func (c *Cppcheck) String() string {
	return fmt.Sprintf("%s (%s)", c.Name(), c.Executable())
}
