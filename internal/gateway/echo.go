package gateway

import "context"

// DefaultEchoPrefix is what Echo prepends when Prefix is empty.
const DefaultEchoPrefix = "Simplified: "

// Echo returns the input with a fixed prefix. It needs no network and is
// used for local development and demos.
type Echo struct {
	Prefix string
}

func (g *Echo) Backend() string { return BackendEcho }
func (g *Echo) Model() string   { return BackendEcho }

func (g *Echo) Summarize(_ context.Context, req Request) (Summary, error) {
	p := g.Prefix
	if p == "" {
		p = DefaultEchoPrefix
	}
	return Summary{Text: p + req.Text, Backend: BackendEcho, Model: BackendEcho}, nil
}
