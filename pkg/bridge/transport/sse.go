package transport

import (
	"context"
	"fmt"

	mcpgoclient "github.com/mark3labs/mcp-go/client"
	mcptransport "github.com/mark3labs/mcp-go/client/transport"

	"github.com/mcpweave/mcpweave/pkg/bridge/config"
	"github.com/mcpweave/mcpweave/pkg/logging"
)

// SSE opens a Server-Sent-Events transport for cfg (spec §1's degenerate
// passthrough case: a single remote backend reachable over HTTP rather than
// spawned as a child process). Unlike Stdio, an SSE handle cannot rebuild
// itself: the underlying client keeps its own reconnect loop, so the proxy
// wrapper's rebuild path is a no-op here (spec §9, "not all transports can
// rebuild").
func SSE(ctx context.Context, cfg *config.BackendConfig) (*Handle, error) {
	h := &Handle{kind: config.TransportSSE, errs: make(chan error, errorQueueCapacity)}

	httpClient, err := buildHTTPClient(ctx, cfg, h)
	if err != nil {
		return nil, fmt.Errorf("building http client for backend %q: %w", cfg.Name, err)
	}

	logging.Debugf("transport: dialing sse backend %q: %s", cfg.Name, cfg.URL)
	c, err := mcpgoclient.NewSSEMCPClient(cfg.URL, mcptransport.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("dialing sse backend %q: %w", cfg.Name, err)
	}

	h.Client = c
	return h, nil
}
