package suppressions

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeman001/cppcheck-vs-addin/internal/config"
	"github.com/codeman001/cppcheck-vs-addin/internal/suppression"
)

func TestValidateSuppressionsArgs(t *testing.T) {
	tests := []struct {
		name    string
		options RunOptionsSuppressions
		wantErr string
	}{
		{name: "storage", options: RunOptionsSuppressions{Storage: "global"}},
		{name: "merged", options: RunOptionsSuppressions{Merged: true, Format: "json"}},
		{name: "none", wantErr: "exactly one of the 'storage' and 'merged' flags must be specified"},
		{name: "both", options: RunOptionsSuppressions{Storage: "global", Merged: true}, wantErr: "exactly one of the 'storage' and 'merged' flags must be specified"},
		{name: "format", options: RunOptionsSuppressions{Storage: "global", Format: "xml"}, wantErr: `unsupported format "xml"`},
		{name: "project", options: RunOptionsSuppressions{Storage: "project", ProjectDir: "."}, wantErr: "the 'project-dir' and 'project-name' flags must be specified together"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSuppressionsArgs(&tt.options)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRunSuppressionsCommand(t *testing.T) {
	root := t.TempDir()
	global := filepath.Join(root, "global")
	projectDir := filepath.Join(root, "project")
	require.NoError(t, os.MkdirAll(projectDir, 0755))

	Init(&config.Config{Addin: config.Addin{SuppressionsFolder: global}})
	t.Cleanup(func() {
		AppConfig = nil
		suppressionsOptions = RunOptionsSuppressions{}
	})

	require.NoError(t, suppression.SaveInfo(filepath.Join(global, suppression.GlobalFileName), suppression.Info{
		Suppressions: []suppression.Entry{{ID: "variableScope"}},
	}))
	require.NoError(t, suppression.SaveInfo(filepath.Join(projectDir, "core_project_suppressions.cfg"), suppression.Info{
		SkippedFiles: []string{"third_party"},
	}))

	t.Run("global yaml", func(t *testing.T) {
		suppressionsOptions = RunOptionsSuppressions{Storage: "global", Format: "yaml"}
		var out bytes.Buffer
		cmd := &cobra.Command{}
		cmd.SetOut(&out)

		require.NoError(t, runSuppressionsCommand(cmd, nil))
		assert.Equal(t, "suppressions:\n- id: variableScope\n", out.String())
	})

	t.Run("merged json", func(t *testing.T) {
		suppressionsOptions = RunOptionsSuppressions{Merged: true, Format: "json", ProjectDir: projectDir, ProjectName: "core"}
		var out bytes.Buffer
		cmd := &cobra.Command{}
		cmd.SetOut(&out)

		require.NoError(t, runSuppressionsCommand(cmd, nil))
		assert.Contains(t, out.String(), `"ID": "variableScope"`)
		assert.Contains(t, out.String(), `"third_party"`)
	})
}
