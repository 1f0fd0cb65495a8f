package git

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
)

// RepositoryState describes the checkout a set of changed files was taken from.
type RepositoryState struct {
	RootFolder string
	BranchName string // empty on a detached head
	CommitHash string // empty before the first commit
}

// ChangedFiles returns the absolute paths of files under sourceFolder that are
// modified, added, renamed or untracked in the worktree or the index. Deleted
// files are skipped. When exts is not empty, only files with one of these
// extensions are returned. The result is sorted.
func ChangedFiles(sourceFolder string, exts []string) ([]string, *RepositoryState, error) {
	if sourceFolder == "" {
		return nil, nil, ErrNoSourceDir
	}
	absSource, err := filepath.Abs(sourceFolder)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve %q: %w", sourceFolder, err)
	}

	rootFolder, err := findGitRepositoryPath(absSource)
	if err != nil {
		return nil, nil, err
	}

	repo, err := git.PlainOpen(rootFolder)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open repository: %w", err)
	}
	state := repositoryState(repo, rootFolder)

	wt, err := repo.Worktree()
	if err != nil {
		return nil, state, fmt.Errorf("failed to open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, state, fmt.Errorf("failed to read worktree status: %w", err)
	}

	allowed := buildExtensionSet(exts)
	var changed []string
	for path, fileStatus := range status {
		if !isChanged(fileStatus) {
			continue
		}
		if allowed != nil && !allowed[strings.ToLower(filepath.Ext(path))] {
			continue
		}
		abs := filepath.Join(rootFolder, filepath.FromSlash(path))
		if !within(abs, absSource) {
			continue
		}
		changed = append(changed, abs)
	}

	sort.Strings(changed)
	return changed, state, nil
}

func isChanged(s *git.FileStatus) bool {
	if s.Worktree == git.Deleted || (s.Staging == git.Deleted && s.Worktree == git.Unmodified) {
		return false
	}
	return s.Worktree != git.Unmodified || s.Staging != git.Unmodified
}

func repositoryState(repo *git.Repository, rootFolder string) *RepositoryState {
	state := &RepositoryState{RootFolder: filepath.Clean(rootFolder)}
	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			state.BranchName = head.Name().Short()
		}
		state.CommitHash = head.Hash().String()
	}
	return state
}

func within(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
