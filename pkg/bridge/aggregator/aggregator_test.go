package aggregator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpweave/mcpweave/pkg/bridge/client"
	"github.com/mcpweave/mcpweave/pkg/bridge/config"
	"github.com/mcpweave/mcpweave/pkg/bridge/manager"
	"github.com/mcpweave/mcpweave/pkg/telemetry"
)

type fakeSession struct {
	tools []client.Tool
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
	return nil, nil
}
func (f *fakeSession) SetLoggingLevel(context.Context, string) error { return nil }
func (f *fakeSession) Complete(context.Context, client.CompletionRef, string, string) (*client.CompletionResult, error) {
	return nil, nil
}
func (f *fakeSession) SendProgressNotification(context.Context, string, float64, *float64) error {
	return nil
}
func (f *fakeSession) Close() error { return nil }

// setConnector substitutes each backend's fake session via
// manager.Manager.SetConnector, keyed by backend name, so tests never spawn
// real transports.
func setConnector(m *manager.Manager, sessions map[string]*fakeSession) {
	m.SetConnector(func(ctx context.Context, cfg config.BackendConfig) (client.Session, error) {
		return sessions[cfg.Name], nil
	})
}

func TestAggregator_ListTools_NamespaceRewrite(t *testing.T) {
	cfg := &config.Config{
		Backends: map[string]*config.BackendConfig{
			"fs":     {Name: "fs", Enabled: true, Priority: 100},
			"github": {Name: "github", Enabled: true, Priority: 100},
		},
		Bridge: config.BridgeConfig{
			DefaultNamespace:   true,
			ConflictResolution: config.ConflictNamespace,
			Aggregation:        config.AggregationConfig{Tools: true},
		},
	}
	m := manager.New(cfg, telemetry.NewMetrics(nil))
	sessions := map[string]*fakeSession{
		"fs":     {tools: []client.Tool{{Name: "read"}, {Name: "write"}}},
		"github": {tools: []client.Tool{{Name: "read"}, {Name: "search"}}},
	}
	setConnector(m, sessions)
	require.NoError(t, m.Start(context.Background()))

	agg := New(m, cfg.Bridge)
	tools, err := agg.ListTools()
	require.NoError(t, err)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"fs.read", "fs.write", "github.read", "github.search"}, names)

	b, local, err := agg.RouteTool("fs.read")
	require.NoError(t, err)
	assert.Equal(t, "fs", b.Name)
	assert.Equal(t, "read", local)
}

func TestAggregator_ConflictResolutionError(t *testing.T) {
	cfg := &config.Config{
		Backends: map[string]*config.BackendConfig{
			"a": {Name: "a", Enabled: true, Priority: 100},
			"b": {Name: "b", Enabled: true, Priority: 100},
		},
		Bridge: config.BridgeConfig{
			ConflictResolution: config.ConflictError,
			Aggregation:        config.AggregationConfig{Tools: true},
		},
	}
	m := manager.New(cfg, telemetry.NewMetrics(nil))
	sessions := map[string]*fakeSession{
		"a": {tools: []client.Tool{{Name: "shared"}}},
		"b": {tools: []client.Tool{{Name: "shared"}}},
	}
	setConnector(m, sessions)
	require.NoError(t, m.Start(context.Background()))

	agg := New(m, cfg.Bridge)
	_, err := agg.ListTools()
	require.Error(t, err)
}

func TestAggregator_RouteTool_NotFound(t *testing.T) {
	cfg := &config.Config{
		Backends: map[string]*config.BackendConfig{"a": {Name: "a", Enabled: true}},
		Bridge:   config.BridgeConfig{Aggregation: config.AggregationConfig{Tools: true}},
	}
	m := manager.New(cfg, telemetry.NewMetrics(nil))
	setConnector(m, map[string]*fakeSession{"a": {tools: nil}})
	require.NoError(t, m.Start(context.Background()))

	agg := New(m, cfg.Bridge)
	_, _, err := agg.RouteTool("missing")
	require.Error(t, err)
}
