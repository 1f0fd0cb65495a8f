package suppression

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeman001/cppcheck-vs-addin/internal/findings"
)

func TestEntryMatches(t *testing.T) {
	p := findings.Problem{File: "/src/a.cpp", Line: 10, ID: "nullPointer"}

	tests := []struct {
		name  string
		entry Entry
		want  bool
	}{
		{name: "exact", entry: Entry{ID: "nullPointer", File: "/src/a.cpp", Line: 10}, want: true},
		{name: "other line", entry: Entry{ID: "nullPointer", File: "/src/a.cpp", Line: 11}, want: false},
		{name: "type in file", entry: Entry{ID: "nullPointer", File: "/src/./a.cpp"}, want: true},
		{name: "type in other file", entry: Entry{ID: "nullPointer", File: "/src/b.cpp"}, want: false},
		{name: "type everywhere", entry: Entry{ID: "nullPointer"}, want: true},
		{name: "other type", entry: Entry{ID: "uninitvar"}, want: false},
		{name: "whole file", entry: Entry{File: "/src/a.cpp"}, want: true},
		{name: "empty entry", entry: Entry{}, want: false},
		{name: "line only", entry: Entry{Line: 10}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.Matches(p))
		})
	}
}

func TestEntryForGranularity(t *testing.T) {
	p := findings.Problem{File: "/src/a.cpp", Line: 3, ID: "uninitvar", Message: "Uninitialized variable: x"}

	assert.Equal(t, Entry{ID: "uninitvar", File: "/src/a.cpp", Line: 3, Message: "Uninitialized variable: x"}, EntryFor(p, ThisMessageGlobally))
	assert.Equal(t, Entry{ID: "uninitvar", File: "/src/a.cpp"}, EntryFor(p, ThisTypeOfMessageFileWide))
	assert.Equal(t, Entry{ID: "uninitvar"}, EntryFor(p, ThisTypeOfMessagesSolutionWide))
	assert.Equal(t, Entry{File: "/src/a.cpp"}, EntryFor(p, AllMessagesThisFileProjectWide))
}

func TestInfoMerge(t *testing.T) {
	a := Info{
		Suppressions: []Entry{{ID: "x"}},
		SkippedFiles: []string{"vendor"},
	}
	b := Info{
		Suppressions:    []Entry{{ID: "x"}, {File: "/a.cpp"}},
		SkippedFiles:    []string{"vendor", "gen"},
		SkippedIncludes: []string{"boost"},
		IncludePaths:    []string{"inc"},
	}

	a.Merge(b)
	assert.Equal(t, []Entry{{ID: "x"}, {File: "/a.cpp"}}, a.Suppressions)
	assert.Equal(t, []string{"vendor", "gen"}, a.SkippedFiles)
	assert.Equal(t, []string{"boost"}, a.SkippedIncludes)
	assert.Equal(t, []string{"inc"}, a.IncludePaths)
}

func TestParseScope(t *testing.T) {
	for _, scope := range Scopes {
		got, err := ParseScope(" " + scope.String() + " ")
		require.NoError(t, err)
		assert.Equal(t, scope, got)
	}

	_, err := ParseScope("everything")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestParseStorage(t *testing.T) {
	for _, storage := range []Storage{StorageProject, StorageSolution, StorageGlobal} {
		got, err := ParseStorage(storage.String())
		require.NoError(t, err)
		assert.Equal(t, storage, got)
	}

	_, err := ParseStorage("machine")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestMaskMatcher(t *testing.T) {
	m := NewMaskMatcher(2)

	masks := []string{`.*third_party.*`, `\.pb\.cc$`, `([invalid`}
	assert.True(t, m.MatchAny("/src/THIRD_PARTY/zlib.c", masks))
	assert.True(t, m.MatchAny("/src/msg.pb.cc", masks))
	assert.False(t, m.MatchAny("/src/main.cpp", masks))
	assert.False(t, m.MatchAny("/src/main.cpp", nil))

	kept := m.Filter([]string{"/src/main.cpp", "/src/third_party/x.c", "/src/a.pb.cc"}, masks)
	assert.Equal(t, []string{"/src/main.cpp"}, kept)
}
