package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeman001/cppcheck-vs-addin/pkg/shared/files"
)

const maxCppcheckJobs = 1024

var (
	cppcheckPlatforms = []string{"native", "unix32", "unix64", "win32A", "win32W", "win64", "unspecified"}
	cppcheckChecks    = []string{"all", "warning", "style", "performance", "portability", "information", "unusedFunction", "missingInclude"}
	logLevels         = []string{"", "trace", "debug", "info", "warn", "error"}
	analyzerNames     = []string{"", "cppcheck", "clang-tidy", "custom"}
)

// ValidateConfig checks if the global configurations have valid values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateLoggerConfig(&cfg.Logger); err != nil {
		return fmt.Errorf("YAML global config: logger directive is invalid: %w", err)
	}
	if err := ValidateAddinConfig(cfg); err != nil {
		return fmt.Errorf("YAML global config: addin directive is invalid: %w", err)
	}
	if err := ValidateCppcheckConfig(&cfg.Cppcheck); err != nil {
		return fmt.Errorf("YAML global config: cppcheck directive is invalid: %w", err)
	}
	if err := ValidateCustomConfig(&cfg.Custom); err != nil {
		return fmt.Errorf("YAML global config: custom directive is invalid: %w", err)
	}
	return nil
}

// ValidateLoggerConfig checks the configured log level.
func ValidateLoggerConfig(loggerConfig *Logger) error {
	if loggerConfig == nil {
		return fmt.Errorf("logger configuration is nil")
	}
	if !containsFold(logLevels, loggerConfig.Level) {
		return fmt.Errorf("unsupported log level %q", loggerConfig.Level)
	}
	return nil
}

// ValidateAddinConfig fills the add-in folders from environment variables or defaults.
func ValidateAddinConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("addin configuration is nil")
	}
	if !containsFold(analyzerNames, cfg.Addin.Analyzer) {
		return fmt.Errorf("unsupported analyzer %q", cfg.Addin.Analyzer)
	}
	if err := updateHome(cfg); err != nil {
		return fmt.Errorf("failed to update home folder: %w", err)
	}
	if err := updateFolder(&cfg.Addin.PluginsFolder, "CPPCHECK_ADDIN_PLUGINS_FOLDER", "plugins", cfg); err != nil {
		return fmt.Errorf("failed to update plugins folder: %w", err)
	}
	if err := updateFolder(&cfg.Addin.ArtifactsFolder, "CPPCHECK_ADDIN_ARTIFACTS_FOLDER", "artifacts", cfg); err != nil {
		return fmt.Errorf("failed to update artifacts folder: %w", err)
	}
	if cfg.Addin.SuppressionsFolder != "" {
		expanded, err := files.ExpandPath(cfg.Addin.SuppressionsFolder)
		if err != nil {
			return fmt.Errorf("failed to expand suppressions folder %q: %w", cfg.Addin.SuppressionsFolder, err)
		}
		cfg.Addin.SuppressionsFolder = expanded
	}
	return nil
}

// ValidateCppcheckConfig checks if the cppcheck configurations have valid values.
func ValidateCppcheckConfig(cppcheckConfig *Cppcheck) error {
	if cppcheckConfig == nil {
		return fmt.Errorf("cppcheck configuration is nil")
	}
	if cppcheckConfig.Jobs < 0 || cppcheckConfig.Jobs > maxCppcheckJobs {
		return fmt.Errorf("jobs must be between 0 and %d: %d", maxCppcheckJobs, cppcheckConfig.Jobs)
	}
	if cppcheckConfig.Platform != "" && !contains(cppcheckPlatforms, cppcheckConfig.Platform) {
		return fmt.Errorf("unsupported platform %q", cppcheckConfig.Platform)
	}
	for _, check := range cppcheckConfig.Enable {
		if !contains(cppcheckChecks, check) {
			return fmt.Errorf("unsupported check group %q in enable", check)
		}
	}
	return nil
}

// ValidateCustomConfig checks that a custom analyzer names a parser plugin.
func ValidateCustomConfig(customConfig *Custom) error {
	if customConfig == nil {
		return fmt.Errorf("custom configuration is nil")
	}
	if customConfig.Executable == "" {
		return nil
	}
	if customConfig.Parser == "" {
		return fmt.Errorf("executable %q requires a parser plugin", customConfig.Executable)
	}
	if strings.ContainsAny(customConfig.Parser, `/\`) {
		return fmt.Errorf("parser %q must be a plugin name, not a path", customConfig.Parser)
	}
	return nil
}

// updateHome updates the HomeFolder in the add-in config from environment variables or sets a default value.
func updateHome(cfg *Config) error {
	if homeFolder := os.Getenv("CPPCHECK_ADDIN_HOME"); homeFolder != "" {
		cfg.Addin.HomeFolder = homeFolder
	} else if cfg.Addin.HomeFolder == "" {
		homeFolder, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("unable to get user home folder: %w", err)
		}
		cfg.Addin.HomeFolder = filepath.Join(homeFolder, ".cppcheck-addin")
	}

	expandedHomePath, err := files.ExpandPath(cfg.Addin.HomeFolder)
	if err != nil {
		return fmt.Errorf("failed to expand new home path %q: %w", cfg.Addin.HomeFolder, err)
	}
	cfg.Addin.HomeFolder = expandedHomePath

	if err := files.CreateFolderIfNotExists(expandedHomePath); err != nil {
		return fmt.Errorf("failed to create home folder %q: %w", cfg.Addin.HomeFolder, err)
	}
	return nil
}

// updateFolder updates a folder path in the add-in configuration.
func updateFolder(folder *string, envVar, defaultSubFolder string, cfg *Config) error {
	if envVarValue := os.Getenv(envVar); envVarValue != "" {
		*folder = envVarValue
	} else if *folder == "" {
		*folder = filepath.Join(cfg.Addin.HomeFolder, defaultSubFolder)
	}

	expandedPath, err := files.ExpandPath(*folder)
	if err != nil {
		return fmt.Errorf("failed to expand path %q: %w", *folder, err)
	}
	*folder = expandedPath

	if err := files.CreateFolderIfNotExists(expandedPath); err != nil {
		return fmt.Errorf("failed to create folder %q: %w", expandedPath, err)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}

func containsFold(values []string, v string) bool {
	for _, value := range values {
		if strings.EqualFold(value, strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}
