package suppressions

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/codeman001/cppcheck-vs-addin/internal/config"
	"github.com/codeman001/cppcheck-vs-addin/internal/logger"
	"github.com/codeman001/cppcheck-vs-addin/internal/suppression"
)

// RunOptionsSuppressions holds the arguments for the suppressions command.
type RunOptionsSuppressions struct {
	Storage     string
	ProjectDir  string
	ProjectName string
	Format      string
	Merged      bool
}

var (
	AppConfig                *config.Config
	suppressionsOptions      RunOptionsSuppressions
	exampleSuppressionsUsage = `  # Print the global suppressions
  cppcheck-addin suppressions --storage global

  # Print the suppressions of a project as JSON
  cppcheck-addin suppressions --storage project --project-dir . --project-name core --format json

  # Print the rules applied to a project run: global, solution and project merged
  cppcheck-addin suppressions --merged --project-dir . --project-name core`
)

// SuppressionsCmd represents the suppressions command.
var SuppressionsCmd = &cobra.Command{
	Use:                   "suppressions {--storage project|solution|global | --merged} [--project-dir DIR --project-name NAME] [--format yaml|json]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleSuppressionsUsage,
	Short:                 "Prints the suppression rules of a storage tier",
	RunE:                  runSuppressionsCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

func runSuppressionsCommand(cmd *cobra.Command, args []string) error {
	logger := logger.NewLogger(AppConfig, "core-suppressions")

	if err := validateSuppressionsArgs(&suppressionsOptions); err != nil {
		logger.Error("invalid suppressions arguments", "error", err)
		return err
	}

	project := suppression.Project{BasePath: suppressionsOptions.ProjectDir, Name: suppressionsOptions.ProjectName}
	registry := suppression.NewRegistry(suppression.LocatorFromConfig(AppConfig), logger.Named("suppression"))

	var info suppression.Info
	if suppressionsOptions.Merged {
		info = registry.LoadAll(project)
	} else {
		storage, err := suppression.ParseStorage(suppressionsOptions.Storage)
		if err != nil {
			return err
		}
		if info, err = registry.ReadSuppressions(storage, project); err != nil {
			logger.Error("failed to read suppressions", "storage", storage.String(), "error", err)
			return err
		}
	}

	return printInfo(cmd.OutOrStdout(), info, suppressionsOptions.Format)
}

func printInfo(out io.Writer, info suppression.Info, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(info, "", "    ")
		if err != nil {
			return fmt.Errorf("error marshaling suppressions: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	default:
		data, err := yaml.Marshal(info)
		if err != nil {
			return fmt.Errorf("error marshaling suppressions: %w", err)
		}
		_, err = out.Write(data)
		return err
	}
}

// validateSuppressionsArgs validates the arguments provided to the suppressions command.
func validateSuppressionsArgs(options *RunOptionsSuppressions) error {
	if options.Merged == (options.Storage != "") {
		return fmt.Errorf("exactly one of the 'storage' and 'merged' flags must be specified")
	}
	if options.Format != "" && options.Format != "yaml" && options.Format != "json" {
		return fmt.Errorf("unsupported format %q", options.Format)
	}
	if (options.ProjectDir == "") != (options.ProjectName == "") {
		return fmt.Errorf("the 'project-dir' and 'project-name' flags must be specified together")
	}
	return nil
}

func init() {
	SuppressionsCmd.Flags().StringVar(&suppressionsOptions.Storage, "storage", "", "Storage tier to print: project, solution or global.")
	SuppressionsCmd.Flags().BoolVar(&suppressionsOptions.Merged, "merged", false, "Print the merged rules applied to an analysis run.")
	SuppressionsCmd.Flags().StringVar(&suppressionsOptions.ProjectDir, "project-dir", "", "Folder of the project.")
	SuppressionsCmd.Flags().StringVar(&suppressionsOptions.ProjectName, "project-name", "", "Name of the project.")
	SuppressionsCmd.Flags().StringVarP(&suppressionsOptions.Format, "format", "f", "yaml", "Output format: yaml or json.")
	SuppressionsCmd.Flags().BoolP("help", "h", false, "Show help for the suppressions command.")
}
