package sarif

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/codeman001/cppcheck-vs-addin/internal/findings"
)

type Report struct {
	*sarif.Report
	logger       hclog.Logger
	sourceFolder string
}

// ReadReport loads a SARIF report. Relative artifact URIs are resolved against sourceFolder.
func ReadReport(inputPath string, logger hclog.Logger, sourceFolder string) (*Report, error) {
	content, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, err
	}

	var sarifReport sarif.Report
	if err := json.Unmarshal(content, &sarifReport); err != nil {
		return nil, fmt.Errorf("failed to parse SARIF report %q: %w", inputPath, err)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Report{
		Report:       &sarifReport,
		logger:       logger,
		sourceFolder: sourceFolder,
	}, nil
}

// function that collects information about amount of low, medium and high severity issues
// returns a map with this information, and a total amount of issues
func (r Report) CollectSeverityInfo() map[string]int {
	severityInfo := map[string]int{
		"low":    0,
		"medium": 0,
		"high":   0,
		"total":  0,
	}

	for _, run := range r.Runs {
		for _, result := range run.Results {
			switch resultLevel(result) {
			case "error":
				severityInfo["high"]++
			case "warning":
				severityInfo["medium"]++
			default:
				severityInfo["low"]++
			}
			severityInfo["total"]++
		}
	}

	return severityInfo
}

// SortResultsByLevel sorts results by level: error, warning, note, none.
// Results of the same level keep their order.
func (r Report) SortResultsByLevel() {
	levelOrder := map[string]int{
		"error":   0,
		"warning": 1,
		"note":    2,
		"none":    3,
	}

	for _, run := range r.Runs {
		sort.SliceStable(run.Results, func(i, j int) bool {
			return rank(levelOrder, resultLevel(run.Results[i])) < rank(levelOrder, resultLevel(run.Results[j]))
		})
	}
}

// Problems converts the results of all runs back to problems.
func (r Report) Problems() []findings.Problem {
	var problems []findings.Problem
	for _, run := range r.Runs {
		for _, result := range run.Results {
			p := findings.Problem{Severity: findings.SeverityInformation}
			if result.RuleID != nil && *result.RuleID != unclassifiedRuleID {
				p.ID = *result.RuleID
			}
			if result.Message.Text != nil {
				p.Message = *result.Message.Text
			}
			if severity, ok := result.Properties["severity"].(string); ok {
				p.Severity = findings.ParseSeverity(severity)
			}
			if len(result.Locations) > 0 && result.Locations[0].PhysicalLocation != nil {
				loc := result.Locations[0].PhysicalLocation
				if loc.ArtifactLocation != nil && loc.ArtifactLocation.URI != nil {
					p.File = r.localPath(*loc.ArtifactLocation.URI)
				}
				if loc.Region != nil && loc.Region.StartLine != nil {
					p.Line = *loc.Region.StartLine
				}
			}
			problems = append(problems, p)
		}
	}
	return problems
}

func (r Report) localPath(uri string) string {
	path := filepath.FromSlash(uri)
	if filepath.IsAbs(path) || r.sourceFolder == "" {
		return path
	}
	return filepath.Join(r.sourceFolder, path)
}

func resultLevel(result *sarif.Result) string {
	if result.Level != nil {
		return *result.Level
	}
	return "none"
}

func rank(order map[string]int, level string) int {
	if n, ok := order[level]; ok {
		return n
	}
	return len(order)
}
