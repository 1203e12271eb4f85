package server

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpweave/mcpweave/pkg/bridge/aggregator"
	"github.com/mcpweave/mcpweave/pkg/bridge/client"
	"github.com/mcpweave/mcpweave/pkg/bridge/config"
	"github.com/mcpweave/mcpweave/pkg/bridge/manager"
	"github.com/mcpweave/mcpweave/pkg/telemetry"
)

type fakeSession struct {
	tools       []client.Tool
	callToolErr error
	callResult  *client.CallToolResult
}

func (f *fakeSession) Initialize(context.Context) (*client.InitializeResult, error) {
	return &client.InitializeResult{Capabilities: client.ServerCapabilities{Tools: true}}, nil
}
func (f *fakeSession) ListTools(context.Context) ([]client.Tool, error) { return f.tools, nil }
func (f *fakeSession) ListResources(context.Context) ([]client.Resource, error) { return nil, nil }
func (f *fakeSession) ListResourceTemplates(context.Context) ([]client.ResourceTemplate, error) {
	return nil, nil
}
func (f *fakeSession) ListPrompts(context.Context) ([]client.Prompt, error) { return nil, nil }
func (f *fakeSession) GetPrompt(context.Context, string, map[string]string) (*client.GetPromptResult, error) {
	return nil, nil
}
func (f *fakeSession) ReadResource(context.Context, string) (*client.ReadResourceResult, error) {
	return nil, nil
}
func (f *fakeSession) SubscribeResource(context.Context, string) error   { return nil }
func (f *fakeSession) UnsubscribeResource(context.Context, string) error { return nil }
func (f *fakeSession) CallTool(context.Context, string, map[string]any) (*client.CallToolResult, error) {
	if f.callToolErr != nil {
		return nil, f.callToolErr
	}
	return f.callResult, nil
}
func (f *fakeSession) SetLoggingLevel(context.Context, string) error { return nil }
func (f *fakeSession) Complete(context.Context, client.CompletionRef, string, string) (*client.CompletionResult, error) {
	return nil, nil
}
func (f *fakeSession) SendProgressNotification(context.Context, string, float64, *float64) error {
	return nil
}
func (f *fakeSession) Close() error { return nil }

func buildFacade(t *testing.T, fs *fakeSession) *Facade {
	t.Helper()
	cfg := &config.Config{
		Backends: map[string]*config.BackendConfig{"alpha": {Name: "alpha", Enabled: true}},
		Bridge:   config.BridgeConfig{Aggregation: config.AggregationConfig{Tools: true}},
	}
	m := manager.New(cfg, telemetry.NewMetrics(nil))
	m.SetConnector(func(ctx context.Context, cfg config.BackendConfig) (client.Session, error) { return fs, nil })
	require.NoError(t, m.Start(context.Background()))

	agg := aggregator.New(m, cfg.Bridge)
	return New("mcpweave-test", "0.0.0", agg, cfg.Bridge)
}

func TestFacade_RefreshExposesTools(t *testing.T) {
	fs := &fakeSession{tools: []client.Tool{{Name: "echo", Description: "echoes input"}}}
	f := buildFacade(t, fs)

	f.Refresh(context.Background())

	tools, err := f.aggregator.ListTools()
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "echo", tools[0].Name)
}

func TestFacade_CallToolHandler_WrapsBackendErrorAsResult(t *testing.T) {
	fs := &fakeSession{tools: []client.Tool{{Name: "echo"}}, callToolErr: assertErr{"boom"}}
	f := buildFacade(t, fs)
	f.Refresh(context.Background())

	handler := f.callToolHandler("echo")
	res, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestFacade_CallToolHandler_RoutesSuccessfully(t *testing.T) {
	fs := &fakeSession{
		tools: []client.Tool{{Name: "echo"}},
		callResult: &client.CallToolResult{
			Content: []client.ContentBlock{{Type: "text", Text: "pong"}},
		},
	}
	f := buildFacade(t, fs)
	f.Refresh(context.Background())

	handler := f.callToolHandler("echo")
	res, err := handler(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.False(t, res.IsError)
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }
