package transport

import (
	"context"
	"fmt"

	mcpgoclient "github.com/mark3labs/mcp-go/client"
	mcptransport "github.com/mark3labs/mcp-go/client/transport"

	"github.com/mcpweave/mcpweave/pkg/bridge/config"
	"github.com/mcpweave/mcpweave/pkg/logging"
)

// StreamableHTTP opens a streamable-HTTP transport for cfg, grounded on
// original_source's streamablehttp_client.py: a plain POST/GET request
// cycle that upgrades to an event stream only when the backend chooses to
// keep the connection open. This package does not watch the event stream
// itself and never closes the handle when it drops. The handle does not
// support rebuild, so the proxy wrapper recovers from queued errors by
// reinitialising over the same http.Client.
func StreamableHTTP(ctx context.Context, cfg *config.BackendConfig) (*Handle, error) {
	h := &Handle{kind: config.TransportStreamableHTTP, errs: make(chan error, errorQueueCapacity)}

	httpClient, err := buildHTTPClient(ctx, cfg, h)
	if err != nil {
		return nil, fmt.Errorf("building http client for backend %q: %w", cfg.Name, err)
	}

	logging.Debugf("transport: dialing streamable-http backend %q: %s", cfg.Name, cfg.URL)
	c, err := mcpgoclient.NewStreamableHttpClient(cfg.URL, mcptransport.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("dialing streamable-http backend %q: %w", cfg.Name, err)
	}

	h.Client = c
	return h, nil
}
