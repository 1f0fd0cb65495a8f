package suppress

import (
	"fmt"

	"github.com/codeman001/cppcheck-vs-addin/internal/suppression"
)

// validateSuppressArgs validates the arguments provided to the suppress command.
func validateSuppressArgs(options *RunOptionsSuppress) (suppression.Scope, error) {
	if options.Scope == "" {
		return suppression.ThisMessage, fmt.Errorf("the 'scope' flag must be specified")
	}
	scope, err := suppression.ParseScope(options.Scope)
	if err != nil {
		return scope, err
	}

	if options.Line < 0 {
		return scope, fmt.Errorf("the 'line' flag must not be negative")
	}
	if scope.Storage() == suppression.StorageProject && (options.ProjectDir == "" || options.ProjectName == "") {
		return scope, fmt.Errorf("scope %q requires the 'project-dir' and 'project-name' flags", scope)
	}

	if options.FromSarif != "" {
		if options.ID != "" || options.File != "" || options.Line != 0 {
			return scope, fmt.Errorf("the 'from-sarif' flag cannot be combined with 'id', 'file' or 'line'")
		}
		return scope, nil
	}

	switch scope.Granularity() {
	case suppression.GranularityFile:
		if options.File == "" {
			return scope, fmt.Errorf("scope %q requires the 'file' flag", scope)
		}
	case suppression.GranularityType:
		if options.ID == "" {
			return scope, fmt.Errorf("scope %q requires the 'id' flag", scope)
		}
	case suppression.GranularityTypeInFile:
		if options.ID == "" || options.File == "" {
			return scope, fmt.Errorf("scope %q requires the 'id' and 'file' flags", scope)
		}
	default:
		if options.ID == "" || options.File == "" || options.Line == 0 {
			return scope, fmt.Errorf("scope %q requires the 'id', 'file' and 'line' flags", scope)
		}
	}
	return scope, nil
}
