package shared

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("scope", "", "")
	assert.False(t, HasFlags(flags))

	require.NoError(t, flags.Parse([]string{"--scope", "message"}))
	assert.True(t, HasFlags(flags))
}

func TestPluginPath(t *testing.T) {
	folder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(folder, "regex"), []byte("bin"), 0755))

	got, err := PluginPath(folder, "regex")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(folder, "regex"), got)

	for _, name := range []string{"", "../regex", "sub/regex", "missing"} {
		_, err := PluginPath(folder, name)
		assert.Error(t, err, name)
	}
}

func TestForEveryStringWithBoundedGoroutines(t *testing.T) {
	values := []string{"a", "b", "c", "d", "e"}
	got := make([]string, len(values))

	var (
		mu       sync.Mutex
		inFlight int
		maxSeen  int
	)
	ForEveryStringWithBoundedGoroutines(2, values, func(i int, value string) {
		mu.Lock()
		inFlight++
		if inFlight > maxSeen {
			maxSeen = inFlight
		}
		mu.Unlock()

		got[i] = value + value

		mu.Lock()
		inFlight--
		mu.Unlock()
	})

	assert.Equal(t, []string{"aa", "bb", "cc", "dd", "ee"}, got)
	assert.LessOrEqual(t, maxSeen, 2)
}
