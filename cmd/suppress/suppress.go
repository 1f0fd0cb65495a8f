package suppress

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/codeman001/cppcheck-vs-addin/internal/config"
	"github.com/codeman001/cppcheck-vs-addin/internal/findings"
	"github.com/codeman001/cppcheck-vs-addin/internal/logger"
	"github.com/codeman001/cppcheck-vs-addin/internal/sarif"
	"github.com/codeman001/cppcheck-vs-addin/internal/suppression"
	"github.com/codeman001/cppcheck-vs-addin/pkg/shared"
	"github.com/codeman001/cppcheck-vs-addin/pkg/shared/files"
)

// RunOptionsSuppress holds the arguments for the suppress command.
type RunOptionsSuppress struct {
	Scope       string
	ID          string
	File        string
	Line        int
	Message     string
	ProjectDir  string
	ProjectName string
	FromSarif   string
	Index       int
}

var (
	AppConfig            *config.Config
	suppressOptions      RunOptionsSuppress
	exampleSuppressUsage = `  # Suppress one message in the project suppressions file
  cppcheck-addin suppress --scope message --id nullPointer --file src/main.cpp --line 42 --project-dir . --project-name core

  # Suppress a message type everywhere
  cppcheck-addin suppress --scope type-global --id variableScope

  # Suppress every message of a file in the solution suppressions file
  cppcheck-addin suppress --scope file-solution --file src/generated.cpp

  # Suppress the second result of a SARIF report written by analyse
  cppcheck-addin suppress --scope type-global --from-sarif reports/analysis.sarif --index 2`
)

// SuppressCmd represents the suppress command.
var SuppressCmd = &cobra.Command{
	Use:                   "suppress --scope SCOPE [--id ID] [--file PATH] [--line N] [--project-dir DIR --project-name NAME]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleSuppressUsage,
	Short:                 "Stores a rule suppressing a problem at the given scope",
	Long:                  longDescription(),
	RunE:                  runSuppressCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

func runSuppressCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	logger := logger.NewLogger(AppConfig, "core-suppress")

	scope, err := validateSuppressArgs(&suppressOptions)
	if err != nil {
		logger.Error("invalid suppress arguments", "error", err)
		return err
	}

	problem, err := problemFromOptions(&suppressOptions, logger)
	if err != nil {
		logger.Error("failed to resolve the problem to suppress", "error", err)
		return err
	}

	project := suppression.Project{BasePath: suppressOptions.ProjectDir, Name: suppressOptions.ProjectName}
	registry := suppression.NewRegistry(suppression.LocatorFromConfig(AppConfig), logger.Named("suppression"))
	if err := registry.SuppressProblem(problem, scope, project); err != nil {
		logger.Error("failed to store suppression", "scope", scope.String(), "error", err)
		return err
	}

	path, _ := registry.Locator().PathForScope(scope, project)
	fmt.Fprintf(cmd.OutOrStdout(), "Suppression stored in %s\n", path)
	return nil
}

// problemFromOptions returns the problem described by the flags, or the
// selected result of a SARIF report.
func problemFromOptions(options *RunOptionsSuppress, logger hclog.Logger) (findings.Problem, error) {
	if options.FromSarif != "" {
		sourceFolder := options.ProjectDir
		if sourceFolder == "" {
			sourceFolder = "."
		}
		sourceFolder, err := files.AbsPath(sourceFolder)
		if err != nil {
			return findings.Problem{}, err
		}
		report, err := sarif.ReadReport(options.FromSarif, logger, sourceFolder)
		if err != nil {
			return findings.Problem{}, err
		}
		problems := report.Problems()
		if options.Index < 1 || options.Index > len(problems) {
			return findings.Problem{}, fmt.Errorf("result index %d is out of range, the report holds %d results", options.Index, len(problems))
		}
		return problems[options.Index-1], nil
	}

	problem := findings.Problem{
		ID:      options.ID,
		Line:    options.Line,
		Message: options.Message,
	}
	if options.File != "" {
		file, err := files.AbsPath(options.File)
		if err != nil {
			return findings.Problem{}, err
		}
		problem.File = file
	}
	return problem, nil
}

func longDescription() string {
	names := make([]string, 0, len(suppression.Scopes))
	for _, s := range suppression.Scopes {
		names = append(names, fmt.Sprintf("%-14s stored in the %s suppressions file", s.String(), s.Storage()))
	}
	return fmt.Sprintf(`Stores a rule suppressing a problem at the given scope.

Supported scopes:
  %s`, strings.Join(names, "\n  "))
}

func init() {
	SuppressCmd.Flags().StringVarP(&suppressOptions.Scope, "scope", "s", "", "Suppression scope, see the list of supported scopes.")
	SuppressCmd.Flags().StringVar(&suppressOptions.ID, "id", "", "Problem identifier, e.g. nullPointer.")
	SuppressCmd.Flags().StringVarP(&suppressOptions.File, "file", "f", "", "File the problem was reported in.")
	SuppressCmd.Flags().IntVarP(&suppressOptions.Line, "line", "l", 0, "Line the problem was reported at.")
	SuppressCmd.Flags().StringVarP(&suppressOptions.Message, "message", "m", "", "Problem message, stored for reference.")
	SuppressCmd.Flags().StringVar(&suppressOptions.ProjectDir, "project-dir", "", "Folder of the project for project scopes.")
	SuppressCmd.Flags().StringVar(&suppressOptions.ProjectName, "project-name", "", "Name of the project for project scopes.")
	SuppressCmd.Flags().StringVar(&suppressOptions.FromSarif, "from-sarif", "", "Take the problem from a SARIF report instead of the id, file and line flags.")
	SuppressCmd.Flags().IntVar(&suppressOptions.Index, "index", 1, "1-based index of the result in the SARIF report.")
	SuppressCmd.Flags().BoolP("help", "h", false, "Show help for the suppress command.")
}
