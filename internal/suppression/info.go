package suppression

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/codeman001/cppcheck-vs-addin/internal/findings"
)

// Entry is one suppression rule. Empty fields act as wildcards: an entry with
// only an ID matches that ID everywhere, one with only a File matches every
// problem in that file. Message is informational and never matched.
type Entry struct {
	ID      string `yaml:"id,omitempty"`
	File    string `yaml:"file,omitempty"`
	Line    int    `yaml:"line,omitempty"`
	Message string `yaml:"message,omitempty"`
}

// EntryFor builds the entry that suppresses p at the granularity of scope.
func EntryFor(p findings.Problem, scope Scope) Entry {
	file := cleanPath(p.File)
	switch scope.Granularity() {
	case GranularityTypeInFile:
		return Entry{ID: p.ID, File: file}
	case GranularityType:
		return Entry{ID: p.ID}
	case GranularityFile:
		return Entry{File: file}
	default:
		return Entry{ID: p.ID, File: file, Line: p.Line, Message: p.Message}
	}
}

// Matches reports whether the entry suppresses p.
func (e Entry) Matches(p findings.Problem) bool {
	if e.ID == "" && e.File == "" {
		return false
	}
	if e.ID != "" && e.ID != p.ID {
		return false
	}
	if e.File != "" && !samePath(e.File, p.File) {
		return false
	}
	if e.Line > 0 && e.Line != p.Line {
		return false
	}
	return true
}

// Same reports whether two entries describe the same rule.
func (e Entry) Same(other Entry) bool {
	return e.ID == other.ID && e.Line == other.Line && samePath(e.File, other.File)
}

// Info is the content of one suppressions file, or the merge of several.
type Info struct {
	Suppressions    []Entry  `yaml:"suppressions,omitempty"`
	SkippedFiles    []string `yaml:"skipped_files,omitempty"`
	SkippedIncludes []string `yaml:"skipped_includes,omitempty"`
	IncludePaths    []string `yaml:"include_paths,omitempty"`
}

// IsEmpty reports whether the info holds no rules at all.
func (i Info) IsEmpty() bool {
	return len(i.Suppressions) == 0 && len(i.SkippedFiles) == 0 && len(i.SkippedIncludes) == 0 && len(i.IncludePaths) == 0
}

// Add appends e unless an equal entry is already present. It reports whether e was added.
func (i *Info) Add(e Entry) bool {
	for _, existing := range i.Suppressions {
		if existing.Same(e) {
			return false
		}
	}
	i.Suppressions = append(i.Suppressions, e)
	return true
}

// Merge adds the rules of other that are not present yet.
func (i *Info) Merge(other Info) {
	for _, e := range other.Suppressions {
		i.Add(e)
	}
	i.SkippedFiles = appendUnique(i.SkippedFiles, other.SkippedFiles...)
	i.SkippedIncludes = appendUnique(i.SkippedIncludes, other.SkippedIncludes...)
	i.IncludePaths = appendUnique(i.IncludePaths, other.IncludePaths...)
}

// Suppresses reports whether any entry matches p.
func (i Info) Suppresses(p findings.Problem) bool {
	for _, e := range i.Suppressions {
		if e.Matches(p) {
			return true
		}
	}
	return false
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}

func cleanPath(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}

func samePath(a, b string) bool {
	a, b = cleanPath(a), cleanPath(b)
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
