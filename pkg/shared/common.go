package shared

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"github.com/spf13/pflag"

	"github.com/codeman001/cppcheck-vs-addin/pkg/shared/files"
)

const (
	PluginTypeParser string = "parser"
)

// Result statuses of a CLI command.
const (
	StatusOK       = "OK"
	StatusFailed   = "FAILED"
	StatusAborted  = "ABORTED"
	StatusNoChange = "NO_CHANGES"
)

// GenericResult is the JSON envelope of a command result.
type GenericResult struct {
	Args    interface{} `json:"args"`
	Result  interface{} `json:"result"`
	Status  string      `json:"status"`
	Message string      `json:"message"`
}

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "CPPCHECK_ADDIN",
	MagicCookieValue: "5f0c8e2b9d1a4c3e8b7f6a5d4c3b2a19e8d7c6b5",
}

var PluginMap = map[string]plugin.Plugin{
	PluginTypeParser: &ParserPlugin{},
}

// PluginPath returns the path of the plugin binary pluginName inside pluginsFolder.
func PluginPath(pluginsFolder, pluginName string) (string, error) {
	if pluginName == "" || pluginName != filepath.Base(pluginName) {
		return "", fmt.Errorf("invalid plugin name %q", pluginName)
	}
	pluginPath := filepath.Join(pluginsFolder, pluginName)
	if err := files.ValidatePath(pluginPath); err != nil {
		return "", fmt.Errorf("plugin %q not found in %q: %w", pluginName, pluginsFolder, err)
	}
	return pluginPath, nil
}

// LaunchParser starts the parser plugin and dispenses its Parser.
// The caller owns the returned client and must Kill it.
func LaunchParser(pluginsFolder, pluginName string, logger hclog.Logger) (*plugin.Client, Parser, error) {
	pluginPath, err := PluginPath(pluginsFolder, pluginName)
	if err != nil {
		return nil, nil, err
	}

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins:         PluginMap,
		Cmd:             exec.Command(pluginPath),
		Logger:          logger,
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, nil, fmt.Errorf("failed to connect to plugin %q: %w", pluginName, err)
	}

	// Request the plugin
	raw, err := rpcClient.Dispense(PluginTypeParser)
	if err != nil {
		client.Kill()
		return nil, nil, fmt.Errorf("failed to dispense plugin %q: %w", pluginName, err)
	}

	parser, ok := raw.(Parser)
	if !ok {
		client.Kill()
		return nil, nil, fmt.Errorf("plugin %q does not implement the parser interface", pluginName)
	}
	return client, parser, nil
}

// ForEveryStringWithBoundedGoroutines calls f for every value with at most limit calls in flight.
func ForEveryStringWithBoundedGoroutines(limit int, values []string, f func(i int, value string)) {
	if limit < 1 {
		limit = 1
	}
	guard := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, value := range values {
		guard <- struct{}{} // would block if guard channel is already filled
		wg.Add(1)
		go func(i int, value string) {
			defer wg.Done()
			f(i, value)
			<-guard
		}(i, value)
	}
	wg.Wait()
}

// HasFlags reports whether any flag was explicitly set on the command line.
func HasFlags(flags *pflag.FlagSet) bool {
	hasFlags := false
	flags.Visit(func(f *pflag.Flag) {
		hasFlags = true
	})
	return hasFlags
}
