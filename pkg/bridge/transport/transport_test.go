package transport

import (
	"context"
	"errors"
	"testing"

	mcpgoclient "github.com/mark3labs/mcp-go/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcpweave/mcpweave/pkg/bridge/config"
)

func TestHandle_SessionLostRoundTrip(t *testing.T) {
	h := &Handle{errs: make(chan error, errorQueueCapacity)}
	assert.False(t, h.SessionLost())

	h.sessionLost.Store(true)
	assert.True(t, h.SessionLost())

	h.ClearSessionLost()
	assert.False(t, h.SessionLost())
}

func TestHandle_PushErrorDoesNotBlockWhenFull(t *testing.T) {
	h := &Handle{errs: make(chan error, 2)}
	h.pushError(errors.New("first"))
	h.pushError(errors.New("second"))
	h.pushError(errors.New("third")) // queue full, must not block

	assert.Len(t, h.errs, 2)
}

func TestHandle_RebuildRequiresSupport(t *testing.T) {
	h := &Handle{supportsRebuild: false}
	err := h.Rebuild(context.Background())
	require.Error(t, err)
	assert.Equal(t, errNotRebuildable, err)
}

func TestHandle_RebuildInvokesRebuildFn(t *testing.T) {
	calls := 0
	h := &Handle{
		Client: &mcpgoclient.Client{},
		rebuildFn: func(context.Context) (*mcpgoclient.Client, error) {
			calls++
			return &mcpgoclient.Client{}, nil
		},
		supportsRebuild: true,
	}
	h.sessionLost.Store(true)

	err := h.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.False(t, h.SessionLost())
}

func TestHandle_KindReflectsConstructorChoice(t *testing.T) {
	h := &Handle{kind: config.TransportStdio}
	assert.Equal(t, config.TransportStdio, h.Kind())
}

func TestHandle_StatusHintConsumedOnce(t *testing.T) {
	h := &Handle{}
	assert.Equal(t, 0, h.takeStatusHint())

	h.recordStatus(500)
	assert.Equal(t, 500, h.takeStatusHint())
	assert.Equal(t, 0, h.takeStatusHint(), "hint must reset after being read")
}

func TestSanitizedEnv_IncludesOverridesAndMarker(t *testing.T) {
	env := sanitizedEnv(map[string]string{"FOO": "bar"})

	assert.Contains(t, env, "FOO=bar")
	assert.Contains(t, env, childMarkerEnv)
}
