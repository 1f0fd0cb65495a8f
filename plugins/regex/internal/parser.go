package internal

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/codeman001/cppcheck-vs-addin/pkg/shared"
)

// Patterns is an ordered list of compiled output patterns. The first pattern
// matching a line wins.
type Patterns []*regexp.Regexp

// Compile compiles raw patterns. Callers validate them first.
func Compile(raw []string) (Patterns, error) {
	patterns := make(Patterns, 0, len(raw))
	for _, p := range raw {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}

// ParseLine returns the diagnostic described by line, if any pattern matches it.
func (p Patterns) ParseLine(line string) (shared.Diagnostic, bool) {
	line = strings.TrimRight(line, "\r\n")
	for _, re := range p {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		d := shared.Diagnostic{
			File:     group(re, m, "file"),
			Severity: strings.ToLower(group(re, m, "severity")),
			Message:  group(re, m, "message"),
			ID:       group(re, m, "id"),
		}
		n, err := strconv.Atoi(group(re, m, "line"))
		if err != nil || d.File == "" {
			continue
		}
		d.Line = n
		if d.Severity == "" {
			d.Severity = "warning"
		}
		return d, true
	}
	return shared.Diagnostic{}, false
}

// Parse returns the diagnostics found in lines, in order.
func (p Patterns) Parse(lines []string) []shared.Diagnostic {
	var out []shared.Diagnostic
	for _, line := range lines {
		if d, ok := p.ParseLine(line); ok {
			out = append(out, d)
		}
	}
	return out
}

func group(re *regexp.Regexp, m []string, name string) string {
	i := re.SubexpIndex(name)
	if i < 0 || i >= len(m) {
		return ""
	}
	return strings.TrimSpace(m[i])
}
