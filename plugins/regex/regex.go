package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/codeman001/cppcheck-vs-addin/pkg/shared"
	"github.com/codeman001/cppcheck-vs-addin/plugins/regex/internal"
)

// ParserRegex parses analyzer output with patterns received on Setup.
type ParserRegex struct {
	logger   hclog.Logger
	mu       sync.RWMutex
	patterns internal.Patterns
}

func (g *ParserRegex) Setup(req shared.ParserSetupRequest) (bool, error) {
	if err := validateSetupArgs(&req); err != nil {
		g.logger.Error("invalid setup request", "error", err)
		return false, err
	}

	patterns, err := internal.Compile(req.Patterns)
	if err != nil {
		return false, fmt.Errorf("failed to compile patterns: %w", err)
	}

	g.mu.Lock()
	g.patterns = patterns
	g.mu.Unlock()

	g.logger.Debug("parser configured", "patterns", len(patterns))
	return true, nil
}

func (g *ParserRegex) Parse(req shared.ParserParseRequest) (shared.ParserParseResponse, error) {
	g.mu.RLock()
	patterns := g.patterns
	g.mu.RUnlock()

	if patterns == nil {
		return shared.ParserParseResponse{}, fmt.Errorf("parser is not configured")
	}

	return shared.ParserParseResponse{Diagnostics: patterns.Parse(req.Lines)}, nil
}

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Level:      hclog.Trace,
		Output:     os.Stderr,
		JSONFormat: true,
	})

	parser := &ParserRegex{
		logger: logger,
	}

	var pluginMap = map[string]plugin.Plugin{
		shared.PluginTypeParser: &shared.ParserPlugin{Impl: parser},
	}

	logger.Debug("launching plugin", "type", shared.PluginTypeParser, "name", "regex")

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: shared.HandshakeConfig,
		Plugins:         pluginMap,
	})
}
