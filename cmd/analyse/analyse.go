package analyse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/codeman001/cppcheck-vs-addin/internal/analyzer"
	"github.com/codeman001/cppcheck-vs-addin/internal/config"
	"github.com/codeman001/cppcheck-vs-addin/internal/findings"
	"github.com/codeman001/cppcheck-vs-addin/internal/logger"
	"github.com/codeman001/cppcheck-vs-addin/internal/orchestrator"
	"github.com/codeman001/cppcheck-vs-addin/internal/progress"
	"github.com/codeman001/cppcheck-vs-addin/internal/runner"
	"github.com/codeman001/cppcheck-vs-addin/internal/sarif"
	"github.com/codeman001/cppcheck-vs-addin/internal/suppression"
	"github.com/codeman001/cppcheck-vs-addin/pkg/shared"
	"github.com/codeman001/cppcheck-vs-addin/pkg/shared/artifacts"
	errs "github.com/codeman001/cppcheck-vs-addin/pkg/shared/errors"
)

// RunOptionsAnalyse holds the arguments for the analyse command.
type RunOptionsAnalyse struct {
	Analyzer     string   `json:"analyzer"`
	ProjectDir   string   `json:"project_dir,omitempty"`
	ProjectName  string   `json:"project_name,omitempty"`
	OnSave       string   `json:"on_save,omitempty"`
	Changed      bool     `json:"changed,omitempty"`
	IncludePaths []string `json:"include_paths,omitempty"`
	Macros       []string `json:"macros,omitempty"`
	Is64Bit      bool     `json:"is_64_bit"`
	Release      bool     `json:"release,omitempty"`
	SarifOutput  string   `json:"sarif_output,omitempty"`
	Quiet        bool     `json:"quiet,omitempty"`
	NoColor      bool     `json:"no_color,omitempty"`
	Targets      []string `json:"targets,omitempty"`
}

// RunResult is stored in the run artifact.
type RunResult struct {
	Files    []string           `json:"files"`
	Problems []findings.Problem `json:"problems"`
	ExitCode int                `json:"exit_code"`
	Elapsed  float64            `json:"elapsed_seconds"`
	State    string             `json:"state"`
	Branch   string             `json:"branch,omitempty"`
	Commit   string             `json:"commit,omitempty"`
	Report   string             `json:"sarif_report,omitempty"`
}

// Global variables for configuration and command arguments
var (
	AppConfig           *config.Config
	analyseOptions      RunOptionsAnalyse
	exampleAnalyseUsage = `  # Analyse every C and C++ source file of a folder with cppcheck
  cppcheck-addin analyse /path/to/project

  # Analyse a project, applying its suppressions file
  cppcheck-addin analyse --project-dir /path/to/project --project-name core /path/to/project/src

  # Analyse the document that has just been saved
  cppcheck-addin analyse --on-save /path/to/project/src/main.cpp

  # Analyse the files changed in the git worktree and write a SARIF report
  cppcheck-addin analyse --changed --sarif /path/to/reports/ /path/to/project

  # Use clang-tidy with extra include paths and macros
  cppcheck-addin analyse --analyzer clang-tidy -I include -D USE_SSL=1 /path/to/project/src`
)

// AnalyseCmd represents the analyse command.
var AnalyseCmd = &cobra.Command{
	Use:                   "analyse [--analyzer/-a NAME] [--project-dir DIR --project-name NAME] {--on-save FILE | --changed | PATH...}",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleAnalyseUsage,
	Short:                 "Runs a static analyzer on files and reports the problems it finds",
	RunE:                  runAnalyseCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runAnalyseCommand executes the analyse command.
func runAnalyseCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !shared.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	logger := logger.NewLogger(AppConfig, "core-analyse")

	if err := validateAnalyseArgs(&analyseOptions, args); err != nil {
		logger.Error("invalid analyse arguments", "error", err)
		return err
	}
	if analyseOptions.Analyzer == "" {
		analyseOptions.Analyzer = config.AnalyzerName(AppConfig)
	}

	targets, err := prepareTargets(&analyseOptions, logger)
	if err != nil {
		logger.Error("failed to prepare analysis targets", "error", err)
		return err
	}
	if len(targets.Files) == 0 {
		if analyseOptions.Changed {
			logger.Info("no changed source files to analyse")
			saveArtifact(logger, RunResult{State: orchestrator.Completed.String()}, shared.StatusNoChange, "no changed source files")
			return nil
		}
		return fmt.Errorf("no C or C++ source files found in %s", strings.Join(analyseOptions.Targets, ", "))
	}

	an, err := analyzer.New(analyseOptions.Analyzer, AppConfig, logger)
	if err != nil {
		logger.Error("failed to create analyzer", "analyzer", analyseOptions.Analyzer, "error", err)
		return err
	}

	collector := findings.NewCollector()
	sinks := findings.MultiSink{collector, newConsoleSink(cmd.OutOrStdout(), !analyseOptions.NoColor)}
	var sarifSink *sarif.Sink
	if analyseOptions.SarifOutput != "" {
		sarifSink = sarif.NewSink(sarif.ToolMetadata{Name: an.Name()}, targets.SourceFolder, logger.Named("sarif"))
		sinks = append(sinks, sarifSink)
	}

	var text io.Writer = cmd.ErrOrStderr()
	if analyseOptions.Quiet {
		text = io.Discard
	}

	orch, err := orchestrator.New(an, orchestrator.Options{
		Runner:   runner.New(logger.Named("runner")),
		Registry: suppression.NewRegistry(suppression.LocatorFromConfig(AppConfig), logger.Named("suppression")),
		Sink:     sinks,
		Text:     text,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := orch.Close(); err != nil {
			logger.Warn("failed to release analyzer", "error", err)
		}
	}()
	orch.Progress().Subscribe(func(e progress.Event) {
		logger.Debug("analysis progress", "percent", e.Percent, "checked", e.FilesChecked, "total", e.TotalFiles)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := orch.Analyze(ctx, targets.Request(&analyseOptions)); err != nil {
		logger.Error("failed to start analysis", "error", err)
		return err
	}
	status := orch.Wait()
	state := orch.State()

	problems := collector.Problems()
	result := RunResult{
		Files:    targets.Files,
		Problems: problems,
		ExitCode: status.Code,
		Elapsed:  status.Elapsed.Seconds(),
		State:    state.String(),
	}
	if targets.Repository != nil {
		result.Branch = targets.Repository.BranchName
		result.Commit = targets.Repository.CommitHash
	}

	if sarifSink != nil && !status.Aborted {
		path, err := sarifSink.WriteReport(analyseOptions.SarifOutput)
		if err != nil {
			logger.Error("failed to write SARIF report", "error", err)
			return err
		}
		result.Report = path
		if report, err := sarif.ReadReport(path, logger, targets.SourceFolder); err == nil {
			logger.Info("SARIF report summary", "severity", report.CollectSeverityInfo())
		}
	}

	runErr := runOutcome(status, state, len(problems))
	if runErr != nil {
		artifactStatus := shared.StatusFailed
		if status.Aborted {
			artifactStatus = shared.StatusAborted
		}
		saveArtifact(logger, result, artifactStatus, runErr.Error())
		logger.Error("analyse command failed", "error", runErr)
		return runErr
	}

	saveArtifact(logger, result, shared.StatusOK, "")
	logger.Info("analyse command completed successfully", "problems", len(problems))
	return nil
}

// runOutcome maps the end of a run onto the command error.
func runOutcome(status runner.ExitStatus, state orchestrator.RunState, problems int) error {
	switch {
	case status.Aborted:
		return errs.NewRunError(errors.New("analysis aborted"), 130, problems)
	case state == orchestrator.Faulted:
		err := status.Err
		if err == nil {
			err = errors.New("analysis failed")
		}
		return errs.NewRunError(err, 2, problems)
	case status.Code != 0:
		return errs.NewRunError(fmt.Errorf("analyzer exited with code %d", status.Code), status.Code, problems)
	}
	return nil
}

func saveArtifact(logger hclog.Logger, result RunResult, status, message string) {
	if AppConfig == nil || AppConfig.Addin.ArtifactsFolder == "" {
		return
	}
	generic := shared.GenericResult{
		Args:    analyseOptions,
		Result:  result,
		Status:  status,
		Message: message,
	}
	if _, err := artifacts.SaveArtifactJSON(AppConfig.Addin.ArtifactsFolder, logger, "analyse", analyseOptions.Analyzer, generic); err != nil {
		logger.Warn("failed to save run artifact", "error", err)
	}
}

// Initialize flags for the analyse command.
func init() {
	AnalyseCmd.Flags().StringVarP(&analyseOptions.Analyzer, "analyzer", "a", "", "Analyzer to run: cppcheck, clang-tidy or custom. Defaults to the configured analyzer.")
	AnalyseCmd.Flags().StringVar(&analyseOptions.ProjectDir, "project-dir", "", "Folder of the project the files belong to. Its suppressions file is applied.")
	AnalyseCmd.Flags().StringVar(&analyseOptions.ProjectName, "project-name", "", "Name of the project the files belong to.")
	AnalyseCmd.Flags().StringVar(&analyseOptions.OnSave, "on-save", "", "Analyse a single saved document.")
	AnalyseCmd.Flags().BoolVar(&analyseOptions.Changed, "changed", false, "Analyse the files changed in the git worktree of the target folder.")
	AnalyseCmd.Flags().StringArrayVarP(&analyseOptions.IncludePaths, "include", "I", nil, "Additional include path. Can be repeated.")
	AnalyseCmd.Flags().StringArrayVarP(&analyseOptions.Macros, "define", "D", nil, "Preprocessor macro definition. Can be repeated.")
	AnalyseCmd.Flags().BoolVar(&analyseOptions.Is64Bit, "x64", true, "Analyse for a 64-bit platform.")
	AnalyseCmd.Flags().BoolVar(&analyseOptions.Release, "release", false, "Analyse the release configuration instead of debug.")
	AnalyseCmd.Flags().StringVar(&analyseOptions.SarifOutput, "sarif", "", "Path to the SARIF report file or folder.")
	AnalyseCmd.Flags().BoolVarP(&analyseOptions.Quiet, "quiet", "q", false, "Do not print the raw analyzer output.")
	AnalyseCmd.Flags().BoolVar(&analyseOptions.NoColor, "no-color", false, "Disable colored output.")
	AnalyseCmd.Flags().BoolP("help", "h", false, "Show help for the analyse command.")
}
