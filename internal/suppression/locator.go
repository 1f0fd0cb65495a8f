package suppression

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeman001/cppcheck-vs-addin/internal/config"
)

const (
	// GlobalFolderName is the per-user folder holding the global suppressions file.
	GlobalFolderName = "CppcheckVisualStudioAddIn"
	// GlobalFileName is the name of the global suppressions file.
	GlobalFileName = "suppressions.cfg"

	solutionFileSuffix = "_solution_suppressions.cfg"
	projectFileSuffix  = "_project_suppressions.cfg"
)

// Project identifies the project a suppression belongs to.
type Project struct {
	BasePath string // BasePath is the directory holding the project file.
	Name     string // Name is the project name used in the suppressions file name.
}

// IsZero reports whether neither field is set.
func (p Project) IsZero() bool {
	return strings.TrimSpace(p.BasePath) == "" && strings.TrimSpace(p.Name) == ""
}

// Solution identifies the solution the current projects belong to.
type Solution struct {
	Dir  string `yaml:"dir"`
	Name string `yaml:"name"`
}

// IsZero reports whether neither field is set.
func (s Solution) IsZero() bool {
	return strings.TrimSpace(s.Dir) == "" && strings.TrimSpace(s.Name) == ""
}

// Locator resolves suppression file paths. It never touches the file system
// except to check that a project base path exists.
type Locator struct {
	GlobalFolder string   // GlobalFolder overrides the per-user folder when set.
	Solution     Solution // Solution is the currently open solution, if any.
}

// DefaultGlobalFolder returns the per-user application data folder for global suppressions.
func DefaultGlobalFolder() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("unable to get user config folder: %w", err)
	}
	return filepath.Join(configDir, GlobalFolderName), nil
}

// PathForScope returns the suppressions file a suppression with the given scope is written to.
func (l Locator) PathForScope(scope Scope, project Project) (string, error) {
	return l.PathForStorage(scope.Storage(), project)
}

// PathForStorage returns the suppressions file of the given storage tier.
func (l Locator) PathForStorage(storage Storage, project Project) (string, error) {
	switch storage {
	case StorageGlobal:
		return l.globalPath()
	case StorageSolution:
		return l.solutionPath()
	case StorageProject:
		return projectPath(project)
	default:
		return "", fmt.Errorf("%w: unsupported storage %v", ErrInvalidArgument, storage)
	}
}

func (l Locator) globalPath() (string, error) {
	folder := l.GlobalFolder
	if folder == "" {
		var err error
		if folder, err = DefaultGlobalFolder(); err != nil {
			return "", err
		}
	}
	return filepath.Join(folder, GlobalFileName), nil
}

func (l Locator) solutionPath() (string, error) {
	if strings.TrimSpace(l.Solution.Dir) == "" || strings.TrimSpace(l.Solution.Name) == "" {
		return "", fmt.Errorf("%w: solution directory and name are required", ErrInvalidArgument)
	}
	return filepath.Join(l.Solution.Dir, l.Solution.Name+solutionFileSuffix), nil
}

func projectPath(project Project) (string, error) {
	if strings.TrimSpace(project.BasePath) == "" || strings.TrimSpace(project.Name) == "" {
		return "", fmt.Errorf("%w: project base path and name are required", ErrInvalidArgument)
	}
	info, err := os.Stat(project.BasePath)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: project base path %q is not an existing directory", ErrInvalidArgument, project.BasePath)
	}
	return filepath.Join(project.BasePath, project.Name+projectFileSuffix), nil
}

// LocatorFromConfig builds a Locator from the addin and solution sections of cfg.
func LocatorFromConfig(cfg *config.Config) Locator {
	if cfg == nil {
		return Locator{}
	}
	return Locator{
		GlobalFolder: cfg.Addin.SuppressionsFolder,
		Solution:     Solution{Dir: cfg.Solution.Dir, Name: cfg.Solution.Name},
	}
}
