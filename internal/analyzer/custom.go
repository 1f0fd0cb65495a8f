package analyzer

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	"github.com/codeman001/cppcheck-vs-addin/internal/config"
	"github.com/codeman001/cppcheck-vs-addin/internal/findings"
	"github.com/codeman001/cppcheck-vs-addin/internal/suppression"
	"github.com/codeman001/cppcheck-vs-addin/pkg/shared"
	"github.com/codeman001/cppcheck-vs-addin/pkg/shared/errors"
)

// Custom runs a configured tool and parses its output with a parser plugin.
type Custom struct {
	cfg    config.Custom
	parser shared.Parser
	client *plugin.Client
	logger hclog.Logger
}

// NewCustom launches the configured parser plugin from pluginsFolder and
// passes it the configured patterns. Close stops the plugin.
func NewCustom(cfg config.Custom, pluginsFolder string, logger hclog.Logger) (*Custom, error) {
	if cfg.Executable == "" {
		return nil, fmt.Errorf("custom analyzer: executable is not configured")
	}

	client, parser, err := shared.LaunchParser(pluginsFolder, cfg.Parser, logger)
	if err != nil {
		return nil, fmt.Errorf("custom analyzer: %w", err)
	}

	c, err := newCustom(cfg, parser, logger)
	if err != nil {
		client.Kill()
		return nil, err
	}
	c.client = client
	return c, nil
}

func newCustom(cfg config.Custom, parser shared.Parser, logger hclog.Logger) (*Custom, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	ok, err := parser.Setup(shared.ParserSetupRequest{Patterns: cfg.Patterns})
	if err != nil {
		return nil, fmt.Errorf("custom analyzer: parser setup failed: %w", err)
	}
	if !ok {
		return nil, errors.NewNotImplementedError("Setup", cfg.Parser)
	}
	return &Custom{cfg: cfg, parser: parser, logger: logger}, nil
}

func (c *Custom) Name() string {
	return config.SetThen(c.cfg.Name, NameCustom)
}

func (c *Custom) Executable() string {
	return c.cfg.Executable
}

func (c *Custom) BuildArguments(req Request, info suppression.Info) ([]string, error) {
	if len(req.Files) == 0 {
		return nil, ErrNoFiles
	}
	args := append([]string(nil), c.cfg.Args...)
	return append(args, req.Files...), nil
}

func (c *Custom) ParseOutput(line string) []findings.Problem {
	resp, err := c.parser.Parse(shared.ParserParseRequest{Lines: []string{line}})
	if err != nil {
		c.logger.Debug("parser plugin failed", "error", err)
		return nil
	}

	problems := make([]findings.Problem, 0, len(resp.Diagnostics))
	for _, d := range resp.Diagnostics {
		problems = append(problems, findings.Problem{
			File:     d.File,
			Line:     d.Line,
			Severity: findings.ParseSeverity(d.Severity),
			Message:  d.Message,
			ID:       d.ID,
		})
	}
	return problems
}

// Close stops the parser plugin.
func (c *Custom) Close() error {
	if c.client != nil {
		c.client.Kill()
	}
	return nil
}
