package version

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codeman001/cppcheck-vs-addin/internal/config"
	"github.com/codeman001/cppcheck-vs-addin/pkg/shared"
)

// Set at build time via -ldflags.
var (
	AppConfig     *config.Config
	CoreVersion   = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"

	labelColor   = color.New(color.FgGreen, color.Bold)
	versionColor = color.New(color.FgYellow, color.Bold)
)

const versionFileSuffix = ".VERSION"

// CoreVersions holds version information for the core application and parser plugins.
type CoreVersions struct {
	Version       string                `json:"version"`
	GolangVersion string                `json:"golang_version"`
	BuildTime     string                `json:"build_time"`
	PluginsMeta   map[string]PluginMeta `json:"plugins_meta"`
}

// PluginMeta holds version information for a plugin.
type PluginMeta struct {
	Version    string `json:"version"`
	PluginType string `json:"plugin_type"`
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// NewVersionCmd creates a new cobra.Command for the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version number of the application and parser plugins",
		Run: func(cmd *cobra.Command, args []string) {
			pluginsFolder := ""
			if AppConfig != nil {
				pluginsFolder = AppConfig.Addin.PluginsFolder
			}
			version := CoreVersions{
				Version:       CoreVersion,
				GolangVersion: GolangVersion,
				BuildTime:     BuildTime,
				PluginsMeta:   getPluginVersions(pluginsFolder),
			}

			printVersionInfo(cmd.OutOrStdout(), &version)
		},
	}
}

// readVersionFile reads and parses the version file as JSON.
func readVersionFile(versionFilePath string) PluginMeta {
	var pm PluginMeta
	data, err := os.ReadFile(versionFilePath)
	if err != nil {
		return PluginMeta{Version: "unknown", PluginType: shared.PluginTypeParser}
	}
	if err := json.Unmarshal(data, &pm); err != nil {
		return PluginMeta{Version: "unknown", PluginType: shared.PluginTypeParser}
	}
	return pm
}

// getPluginVersions lists the plugin binaries of pluginsDir with the content of
// their optional <name>.VERSION files.
func getPluginVersions(pluginsDir string) map[string]PluginMeta {
	pluginsMeta := make(map[string]PluginMeta)
	if pluginsDir == "" {
		return pluginsMeta
	}
	entries, err := os.ReadDir(pluginsDir)
	if err != nil {
		return pluginsMeta
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, versionFileSuffix) {
			continue
		}
		pluginsMeta[name] = readVersionFile(filepath.Join(pluginsDir, name+versionFileSuffix))
	}
	return pluginsMeta
}

// printVersionInfo prints the version information for the core application and plugins.
func printVersionInfo(out io.Writer, versions *CoreVersions) {
	fmt.Fprintf(out, "%s v%s\n", labelColor.Sprint("Core Version:"), versionColor.Sprint(versions.Version))
	if len(versions.PluginsMeta) > 0 {
		fmt.Fprintln(out, labelColor.Sprint("Plugin Versions:"))
		names := make([]string, 0, len(versions.PluginsMeta))
		for name := range versions.PluginsMeta {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			meta := versions.PluginsMeta[name]
			fmt.Fprintf(out, "  %s: v%s (Type: %s)\n", name, meta.Version, meta.PluginType)
		}
	}
	fmt.Fprintf(out, "%s %s\n", labelColor.Sprint("Go Version:"), versions.GolangVersion)
	fmt.Fprintf(out, "%s %s\n", labelColor.Sprint("Build Time:"), versions.BuildTime)
}
