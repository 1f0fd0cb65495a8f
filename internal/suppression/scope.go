package suppression

import (
	"fmt"
	"strings"
)

// Scope describes what a suppression covers and where it is persisted.
type Scope int

const (
	ThisMessage Scope = iota
	ThisMessageSolutionWide
	ThisMessageGlobally
	ThisTypeOfMessageFileWide
	ThisTypeOfMessageProjectWide
	ThisTypeOfMessagesSolutionWide
	ThisTypeOfMessagesGlobally
	AllMessagesThisFileProjectWide
	AllMessagesThisFileSolutionWide
	AllMessagesThisFileGlobally
)

// Scopes lists every Scope value.
var Scopes = []Scope{
	ThisMessage,
	ThisMessageSolutionWide,
	ThisMessageGlobally,
	ThisTypeOfMessageFileWide,
	ThisTypeOfMessageProjectWide,
	ThisTypeOfMessagesSolutionWide,
	ThisTypeOfMessagesGlobally,
	AllMessagesThisFileProjectWide,
	AllMessagesThisFileSolutionWide,
	AllMessagesThisFileGlobally,
}

var scopeNames = map[Scope]string{
	ThisMessage:                     "message",
	ThisMessageSolutionWide:         "message-solution",
	ThisMessageGlobally:             "message-global",
	ThisTypeOfMessageFileWide:       "type-file",
	ThisTypeOfMessageProjectWide:    "type-project",
	ThisTypeOfMessagesSolutionWide:  "type-solution",
	ThisTypeOfMessagesGlobally:      "type-global",
	AllMessagesThisFileProjectWide:  "file-project",
	AllMessagesThisFileSolutionWide: "file-solution",
	AllMessagesThisFileGlobally:     "file-global",
}

// String returns the command-line name of the scope.
func (s Scope) String() string {
	if name, ok := scopeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("scope(%d)", int(s))
}

// ParseScope converts a command-line name into a Scope.
func ParseScope(raw string) (Scope, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for s, name := range scopeNames {
		if name == raw {
			return s, nil
		}
	}
	return ThisMessage, fmt.Errorf("%w: unsupported scope %q", ErrInvalidArgument, raw)
}

// Storage is the persistence tier a suppression is written to.
type Storage int

const (
	StorageProject Storage = iota
	StorageSolution
	StorageGlobal
)

// String returns the lower-case name of the storage tier.
func (s Storage) String() string {
	switch s {
	case StorageProject:
		return "project"
	case StorageSolution:
		return "solution"
	case StorageGlobal:
		return "global"
	default:
		return fmt.Sprintf("storage(%d)", int(s))
	}
}

// ParseStorage converts a storage tier name into a Storage.
func ParseStorage(raw string) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "project":
		return StorageProject, nil
	case "solution":
		return StorageSolution, nil
	case "global":
		return StorageGlobal, nil
	default:
		return StorageProject, fmt.Errorf("%w: unsupported storage %q", ErrInvalidArgument, raw)
	}
}

// Storage returns the tier the scope persists to. Unknown scopes fall back to Project.
func (s Scope) Storage() Storage {
	switch s {
	case ThisMessageGlobally, ThisTypeOfMessagesGlobally, AllMessagesThisFileGlobally:
		return StorageGlobal
	case ThisMessageSolutionWide, ThisTypeOfMessagesSolutionWide, AllMessagesThisFileSolutionWide:
		return StorageSolution
	default:
		return StorageProject
	}
}

// Granularity is the breadth of a suppression entry.
type Granularity int

const (
	// GranularityMessage matches one problem: id, file and line.
	GranularityMessage Granularity = iota
	// GranularityTypeInFile matches one problem id within one file.
	GranularityTypeInFile
	// GranularityType matches one problem id everywhere.
	GranularityType
	// GranularityFile matches every problem within one file.
	GranularityFile
)

// Granularity returns how much of a problem an entry for this scope keeps.
func (s Scope) Granularity() Granularity {
	switch s {
	case ThisTypeOfMessageFileWide:
		return GranularityTypeInFile
	case ThisTypeOfMessageProjectWide, ThisTypeOfMessagesSolutionWide, ThisTypeOfMessagesGlobally:
		return GranularityType
	case AllMessagesThisFileProjectWide, AllMessagesThisFileSolutionWide, AllMessagesThisFileGlobally:
		return GranularityFile
	default:
		return GranularityMessage
	}
}
