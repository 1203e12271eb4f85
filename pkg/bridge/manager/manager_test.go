package manager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpweave/mcpweave/pkg/bridge/client"
	"github.com/mcpweave/mcpweave/pkg/bridge/config"
	"github.com/mcpweave/mcpweave/pkg/telemetry"
)

type fakeSession struct {
	initErr      error
	caps         client.ServerCapabilities
	tools        []client.Tool
	closeCalls   int
	listToolsErr error
}

func (f *fakeSession) Initialize(context.Context) (*client.InitializeResult, error) {
	if f.initErr != nil {
		return nil, f.initErr
	}
	return &client.InitializeResult{Capabilities: f.caps}, nil
}
func (f *fakeSession) ListTools(context.Context) ([]client.Tool, error) {
	if f.listToolsErr != nil {
		return nil, f.listToolsErr
	}
	return f.tools, nil
}
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
func (f *fakeSession) Close() error { f.closeCalls++; return nil }

func testConfig(backends map[string]*config.BackendConfig) *config.Config {
	return &config.Config{
		Backends: backends,
		Bridge:   config.BridgeConfig{Failover: config.FailoverConfig{Enabled: false, MaxFailures: 3}},
	}
}

func TestManager_StartConnectsEnabledBackends(t *testing.T) {
	cfg := testConfig(map[string]*config.BackendConfig{
		"alpha": {Name: "alpha", Enabled: true, Priority: 100},
		"beta":  {Name: "beta", Enabled: false, Priority: 100},
	})
	m := New(cfg, telemetry.NewMetrics(nil))
	m.connector = func(ctx context.Context, cfg config.BackendConfig) (client.Session, error) {
		return &fakeSession{caps: client.ServerCapabilities{Tools: true}, tools: []client.Tool{{Name: "echo"}}}, nil
	}

	require.NoError(t, m.Start(context.Background()))

	active := m.ActiveBackends()
	require.Len(t, active, 1)
	assert.Equal(t, "alpha", active[0].Name)
	assert.Equal(t, []client.Tool{{Name: "echo"}}, active[0].Tools())

	beta := m.Backend("beta")
	require.NotNil(t, beta)
	assert.Equal(t, StatusDisabled, beta.Health().Status)

	require.NoError(t, m.Stop(context.Background()))
}

func TestManager_ConnectFailureMarksBackendFailed(t *testing.T) {
	cfg := testConfig(map[string]*config.BackendConfig{
		"alpha": {Name: "alpha", Enabled: true},
	})
	m := New(cfg, telemetry.NewMetrics(nil))
	m.connector = func(ctx context.Context, cfg config.BackendConfig) (client.Session, error) {
		return nil, errors.New("dial failed")
	}

	require.NoError(t, m.Start(context.Background()))
	assert.Empty(t, m.ActiveBackends())
	assert.Equal(t, StatusFailed, m.Backend("alpha").Health().Status)
}

func TestManager_HealthCheckMarksFailedAtThreshold(t *testing.T) {
	cfg := testConfig(map[string]*config.BackendConfig{
		"alpha": {Name: "alpha", Enabled: true},
	})
	cfg.Bridge.Failover = config.FailoverConfig{Enabled: true, MaxFailures: 2}
	m := New(cfg, telemetry.NewMetrics(nil))

	fs := &fakeSession{caps: client.ServerCapabilities{Tools: true}, listToolsErr: errors.New("unreachable")}
	m.connector = func(ctx context.Context, cfg config.BackendConfig) (client.Session, error) { return fs, nil }

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(context.Background())) // stop the background loop before driving checks manually

	b := m.Backend("alpha")
	b.mu.Lock()
	b.session = fs
	b.mu.Unlock()
	m.setStatus(b, StatusConnected, "")
	b.setHealth(Health{Status: StatusConnected})

	m.performHealthChecks(context.Background())
	assert.Equal(t, StatusConnected, b.Health().Status)
	assert.Equal(t, 1, b.Health().ConsecutiveFailures)

	m.performHealthChecks(context.Background())
	assert.Equal(t, StatusFailed, b.Health().Status)
}

func TestManager_ReconnectsFailedBackendAfterRecoveryInterval(t *testing.T) {
	cfg := testConfig(map[string]*config.BackendConfig{
		"alpha": {Name: "alpha", Enabled: true},
	})
	cfg.Bridge.Failover = config.FailoverConfig{Enabled: true, MaxFailures: 1, RecoveryInterval: 1}
	m := New(cfg, telemetry.NewMetrics(nil))
	m.connector = func(ctx context.Context, cfg config.BackendConfig) (client.Session, error) {
		return nil, errors.New("dial failed")
	}

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(context.Background()))

	b := m.Backend("alpha")
	require.Equal(t, StatusFailed, b.Health().Status)
	b.setLastAttempt(time.Now().Add(-time.Hour)) // well past the 1ms recovery interval

	fs := &fakeSession{caps: client.ServerCapabilities{Tools: true}, tools: []client.Tool{{Name: "echo"}}}
	m.connector = func(ctx context.Context, cfg config.BackendConfig) (client.Session, error) { return fs, nil }

	m.performHealthChecks(context.Background())

	assert.Equal(t, StatusConnected, b.Health().Status)
	assert.Equal(t, []client.Tool{{Name: "echo"}}, b.Tools())
}

func TestManager_DoesNotReconnectBeforeRecoveryInterval(t *testing.T) {
	cfg := testConfig(map[string]*config.BackendConfig{
		"alpha": {Name: "alpha", Enabled: true},
	})
	cfg.Bridge.Failover = config.FailoverConfig{Enabled: true, MaxFailures: 1, RecoveryInterval: 60_000}
	m := New(cfg, telemetry.NewMetrics(nil))
	m.connector = func(ctx context.Context, cfg config.BackendConfig) (client.Session, error) {
		return nil, errors.New("dial failed")
	}

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(context.Background()))

	b := m.Backend("alpha")
	require.Equal(t, StatusFailed, b.Health().Status)

	reconnectCalls := 0
	m.connector = func(ctx context.Context, cfg config.BackendConfig) (client.Session, error) {
		reconnectCalls++
		return &fakeSession{}, nil
	}

	m.performHealthChecks(context.Background())

	assert.Equal(t, StatusFailed, b.Health().Status)
	assert.Zero(t, reconnectCalls)
}

func TestManager_ActiveBackends_SortedByPriorityThenName(t *testing.T) {
	cfg := testConfig(map[string]*config.BackendConfig{
		"zeta":  {Name: "zeta", Enabled: true, Priority: 50},
		"alpha": {Name: "alpha", Enabled: true, Priority: 100},
		"beta":  {Name: "beta", Enabled: true, Priority: 100},
	})
	m := New(cfg, telemetry.NewMetrics(nil))
	m.connector = func(ctx context.Context, cfg config.BackendConfig) (client.Session, error) {
		return &fakeSession{}, nil
	}
	require.NoError(t, m.Start(context.Background()))

	names := make([]string, 0, 3)
	for _, b := range m.ActiveBackends() {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "beta"}, names)
}
