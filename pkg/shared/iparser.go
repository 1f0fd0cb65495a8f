package shared

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// Parser turns lines of analyzer output into diagnostics.
type Parser interface {
	Setup(req ParserSetupRequest) (bool, error)
	Parse(req ParserParseRequest) (ParserParseResponse, error)
}

// ParserSetupRequest configures a parser before the first Parse call.
type ParserSetupRequest struct {
	Patterns []string // Regular expressions with named groups file, line, severity, id and message
	Options  map[string]string
}

// ParserParseRequest carries raw output lines of one analyzer run.
type ParserParseRequest struct {
	Lines []string
}

// ParserParseResponse holds the diagnostics found in a ParserParseRequest, in line order.
type ParserParseResponse struct {
	Diagnostics []Diagnostic
}

// Diagnostic is the wire form of a single analyzer finding.
type Diagnostic struct {
	File     string
	Line     int
	Severity string
	Message  string
	ID       string
}

type ParserRPCClient struct{ client *rpc.Client }

func (g *ParserRPCClient) Setup(req ParserSetupRequest) (bool, error) {
	var resp bool
	err := g.client.Call("Plugin.Setup", req, &resp)
	if err != nil {
		return false, err
	}
	return resp, nil
}

func (g *ParserRPCClient) Parse(req ParserParseRequest) (ParserParseResponse, error) {
	var resp ParserParseResponse

	err := g.client.Call("Plugin.Parse", req, &resp)
	if err != nil {
		return resp, err
	}

	return resp, nil
}

type ParserRPCServer struct {
	Impl Parser
}

func (s *ParserRPCServer) Setup(req ParserSetupRequest, resp *bool) error {
	var err error
	*resp, err = s.Impl.Setup(req)
	return err
}

func (s *ParserRPCServer) Parse(req ParserParseRequest, resp *ParserParseResponse) error {
	var err error
	*resp, err = s.Impl.Parse(req)
	return err
}

type ParserPlugin struct {
	Impl Parser
}

func (p *ParserPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &ParserRPCServer{Impl: p.Impl}, nil
}

func (ParserPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &ParserRPCClient{client: c}, nil
}
