package proxy

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"github.com/mcpweave/mcpweave/pkg/bridge/client"
)

// fakeSession is a minimal client.Session test double. ListTools and
// CallTool delegate to per-test functions (and panic if a test left its
// function unset); the other operations return zero values.
type fakeSession struct {
	initializeCalls atomic.Int32
	listToolsCalls  atomic.Int32
	listToolsFn     func(int32) ([]client.Tool, error)
	callToolFn      func(int32) (*client.CallToolResult, error)
	callToolCalls   atomic.Int32
	rebuildCalls    atomic.Int32
	supportsRebuild bool
	errs            chan error
}

func (f *fakeSession) Initialize(context.Context) (*client.InitializeResult, error) {
	f.initializeCalls.Add(1)
	return &client.InitializeResult{}, nil
}

func (f *fakeSession) ListTools(context.Context) ([]client.Tool, error) {
	n := f.listToolsCalls.Add(1)
	return f.listToolsFn(n)
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
	n := f.callToolCalls.Add(1)
	return f.callToolFn(n)
}

func (f *fakeSession) SetLoggingLevel(context.Context, string) error { return nil }
func (f *fakeSession) Complete(context.Context, client.CompletionRef, string, string) (*client.CompletionResult, error) {
	return nil, nil
}
func (f *fakeSession) SendProgressNotification(context.Context, string, float64, *float64) error {
	return nil
}
func (f *fakeSession) Close() error { return nil }

func (f *fakeSession) SupportsRebuild() bool { return f.supportsRebuild }
func (f *fakeSession) Rebuild(context.Context) error {
	f.rebuildCalls.Add(1)
	return nil
}

func (f *fakeSession) Errors() <-chan error {
	if f.errs == nil {
		f.errs = make(chan error)
	}
	return f.errs
}

func testContext(retryAttempts int) *Context {
	return &Context{
		RetryAttempts:    retryAttempts,
		CallTimeout:      2 * time.Second,
		ReinitTimeout:    2 * time.Second,
		ReconnectTimeout: 2 * time.Second,
		sem:              semaphore.NewWeighted(8),
	}
}

func TestWrapper_ListTools_RetriesOnTransportErrorThenSucceeds(t *testing.T) {
	fs := &fakeSession{
		listToolsFn: func(n int32) ([]client.Tool, error) {
			if n == 1 {
				return nil, client.NewTransportError(503, nil)
			}
			return []client.Tool{{Name: "echo"}}, nil
		},
	}
	w := New(fs, "backend-a", testContext(1), nil)

	tools, err := w.ListTools(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []client.Tool{{Name: "echo"}}, tools)
	assert.Equal(t, int32(2), fs.listToolsCalls.Load())
	assert.Equal(t, int32(1), fs.initializeCalls.Load())
}

func TestWrapper_ListTools_ExhaustsRetriesAndPropagates(t *testing.T) {
	fs := &fakeSession{
		listToolsFn: func(int32) ([]client.Tool, error) {
			return nil, client.NewTransportError(503, nil)
		},
	}
	w := New(fs, "backend-a", testContext(1), nil)

	_, err := w.ListTools(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), fs.listToolsCalls.Load()) // 1 + retryAttempts
}

func TestWrapper_CallTool_NeverPropagatesError(t *testing.T) {
	fs := &fakeSession{
		callToolFn: func(int32) (*client.CallToolResult, error) {
			return nil, errors.New("boom - not a recognised kind, non-retryable")
		},
	}
	w := New(fs, "backend-a", testContext(1), nil)

	res, err := w.CallTool(context.Background(), "tool", nil)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestWrapper_CallTool_RetriesOnSessionLossErrorResult(t *testing.T) {
	fs := &fakeSession{
		callToolFn: func(n int32) (*client.CallToolResult, error) {
			if n == 1 {
				return &client.CallToolResult{
					IsError: true,
					Content: []client.ContentBlock{{Type: "text", Text: "Mcp error: 32600: Session terminated"}},
				}, nil
			}
			return &client.CallToolResult{Content: []client.ContentBlock{{Type: "text", Text: "ok"}}}, nil
		},
	}
	w := New(fs, "backend-a", testContext(1), nil)

	res, err := w.CallTool(context.Background(), "tool", nil)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, int32(2), fs.callToolCalls.Load())
	assert.Equal(t, int32(1), fs.initializeCalls.Load())
}

func TestWrapper_ListTools_NonRetryable500PropagatesWithoutRetry(t *testing.T) {
	fs := &fakeSession{
		listToolsFn: func(int32) ([]client.Tool, error) {
			return nil, client.NewTransportError(500, errors.New("internal server error"))
		},
	}
	w := New(fs, "backend-a", testContext(1), nil)

	_, err := w.ListTools(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), fs.listToolsCalls.Load()) // no retry: a true 500 is non-retryable
	assert.Equal(t, int32(0), fs.initializeCalls.Load())

	var te *client.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 500, te.StatusCode)
}

func TestWrapper_RebuildAttemptedOn404(t *testing.T) {
	fs := &fakeSession{
		supportsRebuild: true,
		listToolsFn: func(n int32) ([]client.Tool, error) {
			if n == 1 {
				return nil, client.NewTransportError(404, nil)
			}
			return []client.Tool{}, nil
		},
	}
	w := New(fs, "backend-a", testContext(1), nil)

	_, err := w.ListTools(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), fs.rebuildCalls.Load())
}

func TestSecondsEnv_NonPositiveDisablesDeadline(t *testing.T) {
	t.Setenv("MCP_PROXY_CALL_TIMEOUT_S", "0")
	d, ok := secondsEnv("MCP_PROXY_CALL_TIMEOUT_S")
	assert.True(t, ok)
	assert.Zero(t, d)
}

func TestSecondsEnv_ParsesFractionalSeconds(t *testing.T) {
	t.Setenv("MCP_PROXY_CALL_TIMEOUT_S", "0.5")
	d, ok := secondsEnv("MCP_PROXY_CALL_TIMEOUT_S")
	assert.True(t, ok)
	assert.Equal(t, 500*time.Millisecond, d)
}
