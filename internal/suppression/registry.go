package suppression

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v2"

	"github.com/codeman001/cppcheck-vs-addin/internal/findings"
	"github.com/codeman001/cppcheck-vs-addin/pkg/shared/files"
)

// Registry reads and writes suppression files at project, solution and global scope.
type Registry struct {
	locator Locator
	logger  hclog.Logger
	mu      sync.Mutex // serializes read-modify-write cycles
}

// NewRegistry creates a Registry resolving paths with locator.
func NewRegistry(locator Locator, logger hclog.Logger) *Registry {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Registry{
		locator: locator,
		logger:  logger,
	}
}

// Locator returns the path resolver of the registry.
func (r *Registry) Locator() Locator {
	return r.locator
}

// SuppressProblem persists an entry suppressing p at the granularity and storage tier of scope.
func (r *Registry) SuppressProblem(p findings.Problem, scope Scope, project Project) error {
	entry := EntryFor(p, scope)
	if err := validateEntry(entry, scope); err != nil {
		return err
	}

	path, err := r.locator.PathForScope(scope, project)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := LoadInfo(path)
	if err != nil {
		return err
	}
	if !info.Add(entry) {
		r.logger.Debug("suppression already present", "path", path, "scope", scope.String(), "id", entry.ID, "file", entry.File)
		return nil
	}
	if err := SaveInfo(path, info); err != nil {
		return err
	}

	r.logger.Info("suppression saved", "path", path, "scope", scope.String(), "id", entry.ID, "file", entry.File, "line", entry.Line)
	return nil
}

// ReadSuppressions loads the suppressions file of the given storage tier.
// A missing file yields an empty Info.
func (r *Registry) ReadSuppressions(storage Storage, project Project) (Info, error) {
	path, err := r.locator.PathForStorage(storage, project)
	if err != nil {
		return Info{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return LoadInfo(path)
}

// LoadAll merges the global suppressions with the solution suppressions, when a
// solution is configured, and the project suppressions, when project is set.
// Tiers that cannot be read are logged and skipped.
func (r *Registry) LoadAll(project Project) Info {
	storages := []Storage{StorageGlobal}
	if !r.locator.Solution.IsZero() {
		storages = append(storages, StorageSolution)
	}
	if !project.IsZero() {
		storages = append(storages, StorageProject)
	}

	var merged Info
	for _, storage := range storages {
		info, err := r.ReadSuppressions(storage, project)
		if err != nil {
			r.logger.Warn("unable to read suppressions", "storage", storage.String(), "error", err)
			continue
		}
		merged.Merge(info)
	}
	return merged
}

// LoadInfo reads a suppressions file. A missing or empty file yields an empty Info.
func LoadInfo(path string) (Info, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Info{}, nil
	}
	if err != nil {
		return Info{}, fmt.Errorf("failed to open suppressions file %q: %w", path, err)
	}
	defer file.Close()

	var info Info
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&info); err != nil && !errors.Is(err, io.EOF) {
		return Info{}, fmt.Errorf("%w %q: %v", ErrDecodeFailure, path, err)
	}
	return info, nil
}

// SaveInfo writes info to path, creating the parent folder when needed.
func SaveInfo(path string, info Info) error {
	if err := files.CreateFolderIfNotExists(filepath.Dir(path)); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open suppressions file %q for writing: %w", path, err)
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	if err := encoder.Encode(info); err != nil {
		return fmt.Errorf("failed to encode suppressions file %q: %w", path, err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to flush suppressions file %q: %w", path, err)
	}
	return nil
}

func validateEntry(e Entry, scope Scope) error {
	switch scope.Granularity() {
	case GranularityFile:
		if strings.TrimSpace(e.File) == "" {
			return fmt.Errorf("%w: scope %s requires a file", ErrInvalidArgument, scope)
		}
	case GranularityType:
		if strings.TrimSpace(e.ID) == "" {
			return fmt.Errorf("%w: scope %s requires a problem id", ErrInvalidArgument, scope)
		}
	default:
		if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.File) == "" {
			return fmt.Errorf("%w: scope %s requires a problem id and file", ErrInvalidArgument, scope)
		}
	}
	return nil
}
