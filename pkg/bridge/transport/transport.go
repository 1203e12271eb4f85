// Package transport builds the duplex channel to one backend (spec §4.1,
// C1): stdio child-process, SSE, or streamable-HTTP. Each constructor
// returns a Handle wrapping a github.com/mark3labs/mcp-go client.Client
// together with the transport-level metadata the resilient proxy wrapper
// (pkg/bridge/proxy) needs: an out-of-band error queue, a "session lost"
// flag cleared on the next successful handshake, and — where supported — a
// Rebuild primitive.
package transport

import (
	"context"
	"sync/atomic"

	mcpgoclient "github.com/mark3labs/mcp-go/client"

	"github.com/mcpweave/mcpweave/pkg/bridge/config"
)

// errorQueueCapacity bounds the out-of-band transport-error channel (spec
// §4.3: "a bounded queue observed concurrently with every call").
const errorQueueCapacity = 16

// Handle wraps one backend transport connection.
type Handle struct {
	Client *mcpgoclient.Client

	kind            config.TransportType
	errs            chan error
	sessionLost     atomic.Bool
	rebuildFn       func(ctx context.Context) (*mcpgoclient.Client, error)
	supportsRebuild bool
	lastStatus      atomic.Int32
}

// Kind reports which transport this handle represents.
func (h *Handle) Kind() config.TransportType { return h.kind }

// Errors returns the out-of-band transport-error channel. Receives happen
// concurrently with in-flight calls; the proxy wrapper races the channel
// against every remote operation (spec §4.3).
func (h *Handle) Errors() <-chan error { return h.errs }

// pushError enqueues a retryable transport error without blocking; the
// queue is bounded, so when it is full the new error is dropped rather than
// stalling the transport's own read loop.
func (h *Handle) pushError(err error) {
	select {
	case h.errs <- err:
	default:
	}
}

// recordStatus stashes the status code of the most recent HTTP response, so
// a later error returned by the wire client (which has already lost the
// concrete *http.Response) can still be classified by its real status
// instead of falling back to "unknown" (spec §4.3's [400,500) ∪ {503}
// retryable band vs. true 5xx propagation).
func (h *Handle) recordStatus(code int) { h.lastStatus.Store(int32(code)) }

// takeStatusHint returns the most recently recorded HTTP status and resets
// it, so a given response's status is attributed to at most one generic
// error translation.
func (h *Handle) takeStatusHint() int { return int(h.lastStatus.Swap(0)) }

// SessionLost reports whether the last HTTP response set the
// session-forgotten flag (HTTP 404, spec §4.1 last bullet).
func (h *Handle) SessionLost() bool { return h.sessionLost.Load() }

// ClearSessionLost resets the flag once a fresh session identifier has been
// observed.
func (h *Handle) ClearSessionLost() { h.sessionLost.Store(false) }

// SupportsRebuild reports whether Rebuild can be used (spec §9: "not all
// transports can rebuild").
func (h *Handle) SupportsRebuild() bool { return h.supportsRebuild }

// Rebuild fully closes and reconstructs the underlying client.Client. Only
// valid when SupportsRebuild returns true.
func (h *Handle) Rebuild(ctx context.Context) error {
	if h.rebuildFn == nil {
		return errNotRebuildable
	}
	_ = h.Client.Close()
	newClient, err := h.rebuildFn(ctx)
	if err != nil {
		return err
	}
	h.Client = newClient
	h.ClearSessionLost()
	return nil
}

// Close releases the underlying transport.
func (h *Handle) Close() error {
	if h.Client == nil {
		return nil
	}
	return h.Client.Close()
}

var errNotRebuildable = &rebuildError{}

type rebuildError struct{}

func (*rebuildError) Error() string { return "transport does not support rebuild" }
