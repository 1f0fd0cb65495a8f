package sarif

import (
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/codeman001/cppcheck-vs-addin/internal/findings"
	"github.com/codeman001/cppcheck-vs-addin/pkg/shared/files"
)

// DefaultReportName is used when the report path is a folder.
const DefaultReportName = "analysis.sarif"

type ToolMetadata struct {
	Name           string
	Version        string
	InformationURI string
}

// Sink collects the problems of a run and renders them as a SARIF 2.1.0 report.
type Sink struct {
	tool         ToolMetadata
	sourceFolder string
	logger       hclog.Logger

	mu       sync.Mutex
	problems []findings.Problem
}

// NewSink creates a Sink. Artifact URIs under sourceFolder are written relative to it.
func NewSink(tool ToolMetadata, sourceFolder string, logger hclog.Logger) *Sink {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Sink{tool: tool, sourceFolder: sourceFolder, logger: logger}
}

func (s *Sink) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.problems = nil
}

func (s *Sink) Add(p findings.Problem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.problems = append(s.problems, p)
}

// Len returns the number of collected problems.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.problems)
}

// Build renders the collected problems. Rules are added once per problem id.
func (s *Sink) Build() (*Report, error) {
	s.mu.Lock()
	problems := append([]findings.Problem(nil), s.problems...)
	s.mu.Unlock()

	reportSarif, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(s.tool.Name, s.tool.InformationURI)
	if s.tool.Version != "" {
		version := s.tool.Version
		run.Tool.Driver.Version = &version
	}

	rules := map[string]*sarif.ReportingDescriptor{}
	for _, p := range problems {
		ruleID := p.ID
		if ruleID == "" {
			ruleID = unclassifiedRuleID
		}
		level := toSarifLevel(p.Severity)

		rule, ok := rules[ruleID]
		if !ok {
			rule = run.AddRule(ruleID).
				WithDescription(p.Message).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{
					Level: level,
				})
			rules[ruleID] = rule
		}

		uri := artifactURI(p.File, s.sourceFolder)
		region := sarif.NewRegion()
		if p.Line > 0 {
			region = region.WithStartLine(p.Line)
		}
		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(uri)).
				WithRegion(region),
		)

		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(p.Message)).
			WithLevel(level).
			WithLocations([]*sarif.Location{location})
		result.Properties = sarif.Properties{
			"severity":    string(p.Severity),
			"fingerprint": fingerprint(p, uri),
		}
		run.AddResult(result)
	}
	reportSarif.AddRun(run)

	return &Report{Report: reportSarif, logger: s.logger, sourceFolder: s.sourceFolder}, nil
}

// WriteReport writes the report to path. A path without extension is treated
// as a folder and DefaultReportName is used. It returns the written file.
func (s *Sink) WriteReport(path string) (string, error) {
	filePath, folder, err := files.DetermineFileFullPath(path, DefaultReportName)
	if err != nil {
		return "", err
	}
	if err := files.CreateFolderIfNotExists(folder); err != nil {
		return "", err
	}

	report, err := s.Build()
	if err != nil {
		return "", err
	}
	report.SortResultsByLevel()

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return filePath, fmt.Errorf("error writing SARIF report: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := report.PrettyWrite(file); err != nil {
		return filePath, err
	}
	s.logger.Info("SARIF report saved", "path", filePath, "results", len(report.Runs[0].Results))
	return filePath, nil
}
