// Package server implements the aggregated server facade (spec §4.6, C6):
// a single MCP server whose handlers delegate to the aggregator. A failed
// tool call is returned as an IsError result; a failed resource read or
// prompt get is returned to the mcp-go server as a plain error.
package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpgoserver "github.com/mark3labs/mcp-go/server"

	"github.com/mcpweave/mcpweave/pkg/bridge/aggregator"
	"github.com/mcpweave/mcpweave/pkg/bridge/config"
	"github.com/mcpweave/mcpweave/pkg/logging"
)

// Hostable is the contract the external hosting layer (outside this
// repo's scope, spec §1/§7) must satisfy to expose Facade's underlying
// *mcpgoserver.MCPServer over a concrete wire transport.
type Hostable interface {
	ListenAndServe(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Facade wraps a mark3labs/mcp-go MCPServer, installing handlers
// conditionally on the bridge's aggregation flags and delegating every
// request to the aggregator.
type Facade struct {
	mcp        *mcpgoserver.MCPServer
	aggregator *aggregator.Aggregator
	bridge     config.BridgeConfig
}

// New builds a Facade over agg, advertising tool/resource/prompt
// capabilities per bridge.Aggregation and the logging capability
// unconditionally. The per-item handlers are registered by Refresh; no
// progress-notification handler is installed.
func New(name, version string, agg *aggregator.Aggregator, bridge config.BridgeConfig) *Facade {
	opts := []mcpgoserver.ServerOption{mcpgoserver.WithLogging()}
	if bridge.Aggregation.Tools {
		opts = append(opts, mcpgoserver.WithToolCapabilities(true))
	}
	if bridge.Aggregation.Resources {
		opts = append(opts, mcpgoserver.WithResourceCapabilities(true, true))
	}
	if bridge.Aggregation.Prompts {
		opts = append(opts, mcpgoserver.WithPromptCapabilities(true))
	}

	f := &Facade{
		mcp:        mcpgoserver.NewMCPServer(name, version, opts...),
		aggregator: agg,
		bridge:     bridge,
	}
	return f
}

// MCPServer exposes the underlying mark3labs/mcp-go server for a hosting
// layer to mount over its transport of choice.
func (f *Facade) MCPServer() *mcpgoserver.MCPServer { return f.mcp }

// Refresh re-derives the exposed tool/resource/prompt set from the
// aggregator's current view and replaces the mcp-go server's registry
// wholesale. The manager does not call it on backend connect, reconnect or
// disconnect; the serve command calls it once after the manager starts.
func (f *Facade) Refresh(ctx context.Context) {
	if f.bridge.Aggregation.Tools {
		f.refreshTools()
	}
	if f.bridge.Aggregation.Resources {
		f.refreshResources()
	}
	if f.bridge.Aggregation.Prompts {
		f.refreshPrompts()
	}
}

func (f *Facade) refreshTools() {
	tools, err := f.aggregator.ListTools()
	if err != nil {
		logging.Errorf("server: listing tools failed, exposing empty tool set: %v", err)
		tools = nil
	}

	entries := make([]mcpgoserver.ServerTool, 0, len(tools))
	for _, t := range tools {
		name := t.Name
		entries = append(entries, mcpgoserver.ServerTool{
			Tool:    mcp.Tool{Name: name, Description: t.Description},
			Handler: f.callToolHandler(name),
		})
	}
	f.mcp.SetTools(entries...)
}

func (f *Facade) callToolHandler(exposedName string) mcpgoserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		backend, local, err := f.aggregator.RouteTool(exposedName)
		if err != nil {
			return toolErrorResult(err), nil
		}
		res, err := backend.Session().CallTool(ctx, local, req.GetArguments())
		if err != nil {
			return toolErrorResult(err), nil
		}
		return toMCPCallToolResult(res), nil
	}
}

func (f *Facade) refreshResources() {
	resources, err := f.aggregator.ListResources()
	if err != nil {
		logging.Errorf("server: listing resources failed, exposing empty resource set: %v", err)
		resources = nil
	}

	entries := make([]mcpgoserver.ServerResource, 0, len(resources))
	for _, r := range resources {
		uri := r.URI
		entries = append(entries, mcpgoserver.ServerResource{
			Resource: mcp.Resource{URI: uri, Name: r.Name, Description: r.Description, MIMEType: r.MIMEType},
			Handler:  f.readResourceHandler(uri),
		})
	}
	f.mcp.SetResources(entries...)
}

func (f *Facade) readResourceHandler(exposedURI string) mcpgoserver.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		backend, local, err := f.aggregator.RouteResource(exposedURI)
		if err != nil {
			return nil, err
		}
		res, err := backend.Session().ReadResource(ctx, local)
		if err != nil {
			return nil, err
		}
		return toMCPResourceContents(res), nil
	}
}

func (f *Facade) refreshPrompts() {
	prompts, err := f.aggregator.ListPrompts()
	if err != nil {
		logging.Errorf("server: listing prompts failed, exposing empty prompt set: %v", err)
		prompts = nil
	}

	entries := make([]mcpgoserver.ServerPrompt, 0, len(prompts))
	for _, p := range prompts {
		name := p.Name
		entries = append(entries, mcpgoserver.ServerPrompt{
			Prompt:  mcp.Prompt{Name: name, Description: p.Description, Arguments: toMCPPromptArguments(p.Arguments)},
			Handler: f.getPromptHandler(name),
		})
	}
	f.mcp.SetPrompts(entries...)
}

func (f *Facade) getPromptHandler(exposedName string) mcpgoserver.PromptHandlerFunc {
	return func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		backend, local, err := f.aggregator.RoutePrompt(exposedName)
		if err != nil {
			return nil, err
		}
		res, err := backend.Session().GetPrompt(ctx, local, req.Params.Arguments)
		if err != nil {
			return nil, err
		}
		return toMCPGetPromptResult(res), nil
	}
}

// SetLoggingLevel logs the requested level. It does not change the level of
// the process logger, and New does not register it with the mcp-go server.
func (f *Facade) SetLoggingLevel(level string) {
	logging.Infof("server: logging level set to %q", level)
}

// Complete is stubbed to an empty completion list (spec §4.6, last
// sentence).
func (f *Facade) Complete(context.Context, mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	return &mcp.CompleteResult{}, nil
}

func toolErrorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: fmt.Sprintf("tool call failed: %v", err)}},
	}
}
