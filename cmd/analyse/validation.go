package analyse

import (
	"fmt"
	"os"
	"strings"

	"github.com/codeman001/cppcheck-vs-addin/internal/analyzer"
)

// validateAnalyseArgs validates the arguments provided to the analyse command.
func validateAnalyseArgs(options *RunOptionsAnalyse, args []string) error {
	options.Targets = args

	switch strings.ToLower(options.Analyzer) {
	case "", analyzer.NameCppcheck, analyzer.NameClangTidy, analyzer.NameCustom:
	default:
		return fmt.Errorf("unsupported analyzer %q", options.Analyzer)
	}

	if (options.ProjectDir == "") != (options.ProjectName == "") {
		return fmt.Errorf("the 'project-dir' and 'project-name' flags must be specified together")
	}
	if options.ProjectDir != "" {
		if info, err := os.Stat(options.ProjectDir); err != nil || !info.IsDir() {
			return fmt.Errorf("the project folder does not exist: %v", options.ProjectDir)
		}
	}

	if options.OnSave != "" {
		if options.Changed || len(args) > 0 {
			return fmt.Errorf("you cannot use an 'on-save' flag together with 'changed' or target paths")
		}
		if info, err := os.Stat(options.OnSave); err != nil || info.IsDir() {
			return fmt.Errorf("the saved document does not exist: %v", options.OnSave)
		}
		return nil
	}

	if options.Changed {
		if len(args) > 1 {
			return fmt.Errorf("the 'changed' flag accepts at most one repository path")
		}
	} else if len(args) == 0 {
		return fmt.Errorf("either 'on-save', 'changed' or a target path must be specified")
	}

	for _, target := range args {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			return fmt.Errorf("the target path does not exist: %v", target)
		}
	}
	return nil
}
