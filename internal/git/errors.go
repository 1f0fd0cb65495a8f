package git

import "errors"

// Repo errors
var (
	ErrNotRepository = errors.New("source folder is not a git repository")
	ErrNoSourceDir   = errors.New("source folder is not set")
)
