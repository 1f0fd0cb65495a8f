package findings

import (
	"fmt"
	"sync"
)

// Severity is the category an analyzer assigns to a problem.
type Severity string

const (
	SeverityError       Severity = "error"
	SeverityWarning     Severity = "warning"
	SeverityStyle       Severity = "style"
	SeverityPerformance Severity = "performance"
	SeverityPortability Severity = "portability"
	SeverityInformation Severity = "information"
	SeverityNote        Severity = "note"
)

// ParseSeverity maps a tool-reported severity string onto a known Severity.
// Unknown values are reported as information.
func ParseSeverity(raw string) Severity {
	switch Severity(raw) {
	case SeverityError, SeverityWarning, SeverityStyle, SeverityPerformance, SeverityPortability, SeverityInformation, SeverityNote:
		return Severity(raw)
	default:
		return SeverityInformation
	}
}

// Problem is a single finding reported by an external analyzer.
// It is passed around by value and never modified after parsing.
type Problem struct {
	File     string   `json:"file" yaml:"file"`
	Line     int      `json:"line" yaml:"line"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
	ID       string   `json:"id" yaml:"id"`
}

// String renders the problem the way most compilers print diagnostics.
func (p Problem) String() string {
	return fmt.Sprintf("%s:%d: %s: %s [%s]", p.File, p.Line, p.Severity, p.Message, p.ID)
}

// Sink receives the problems of the current analysis run.
// Implementations must tolerate concurrent calls to Add.
type Sink interface {
	Clear()
	Add(p Problem)
}

// Collector is an in-memory Sink.
type Collector struct {
	mu       sync.Mutex
	problems []Problem
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.problems = nil
}

func (c *Collector) Add(p Problem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.problems = append(c.problems, p)
}

// Problems returns a copy of the collected problems in arrival order.
func (c *Collector) Problems() []Problem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Problem, len(c.problems))
	copy(out, c.problems)
	return out
}

// MultiSink fans every call out to all wrapped sinks.
type MultiSink []Sink

func (m MultiSink) Clear() {
	for _, s := range m {
		if s != nil {
			s.Clear()
		}
	}
}

func (m MultiSink) Add(p Problem) {
	for _, s := range m {
		if s != nil {
			s.Add(p)
		}
	}
}
