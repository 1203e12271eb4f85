package proxy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/mcpweave/mcpweave/pkg/bridge/client"
	"github.com/mcpweave/mcpweave/pkg/logging"
	"github.com/mcpweave/mcpweave/pkg/telemetry"
)

// Wrapper decorates a client.Session with the five coordinated behaviours of
// the resilient proxy (spec §4.3): a concurrency gate, a per-call timeout,
// an out-of-band error-queue race, a bounded retry loop, and the
// rebuild-vs-reinitialise recovery policy.
type Wrapper struct {
	session client.Session
	backend string
	ctx     *Context
	metrics *telemetry.Metrics
}

// New builds a Wrapper around session for the named backend.
func New(session client.Session, backend string, ctx *Context, metrics *telemetry.Metrics) *Wrapper {
	return &Wrapper{session: session, backend: backend, ctx: ctx, metrics: metrics}
}

// recoveryKind classifies a retryable failure into the recovery primitive
// the retry loop should apply before its next attempt.
type recoveryKind int

const (
	recoveryNone recoveryKind = iota
	recoveryRebuild
	recoveryReinitSessionLoss
	recoveryReinitOther
)

// classify implements the retry-loop predicate and sleep-table bucketing
// from spec §4.3 in one pass.
func classify(err error) recoveryKind {
	if err == nil {
		return recoveryNone
	}

	var cancelled *client.CancelledError
	if errors.As(err, &cancelled) {
		return recoveryNone
	}

	if te := client.FindTransportError(err); te != nil {
		if te.StatusCode == 404 {
			return recoveryRebuild
		}
		return recoveryReinitOther
	}

	var timeoutErr *client.TimeoutError
	if errors.As(err, &timeoutErr) {
		return recoveryReinitOther
	}

	if pe := client.FindProtocolError(err, func(pe *client.ProtocolError) bool {
		return pe.IsSessionNotFound() || pe.IsSessionTerminated()
	}); pe != nil {
		return recoveryReinitSessionLoss
	}

	return recoveryNone
}

// sleepFor implements the retry-sleep table (spec §4.3): 0 on HTTP 404, 0.2s
// on a logical session error, the current exponential backoff value
// otherwise.
func sleepFor(kind recoveryKind, bo *backoff.ExponentialBackOff) time.Duration {
	switch kind {
	case recoveryRebuild:
		return 0
	case recoveryReinitSessionLoss:
		return 200 * time.Millisecond
	default:
		return bo.NextBackOff()
	}
}

func newExponentialBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = backoffInitial
	bo.MaxInterval = backoffMax
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.Reset()
	return bo
}

// recover applies the rebuild-vs-reinitialise policy for kind, under its own
// bounded timeouts (spec §4.3: rebuild 5s, post-rebuild initialise 5s,
// falling back to reinitialise on rebuild timeout).
func (w *Wrapper) recover(ctx context.Context, opName string, kind recoveryKind) error {
	if kind == recoveryRebuild {
		if rb, ok := w.session.(client.Rebuildable); ok && rb.SupportsRebuild() {
			rctx, cancel := context.WithTimeout(ctx, w.ctx.ReconnectTimeout)
			err := rb.Rebuild(rctx)
			cancel()
			if w.metrics != nil {
				w.metrics.RebuildTotal.WithLabelValues(w.backend).Inc()
			}
			if err == nil {
				return w.reinitialise(ctx, opName, "rebuild")
			}
			logging.Warnf("proxy: rebuild of backend %q timed out or failed (%v), falling back to reinitialise", w.backend, err)
		}
	}
	reason := "reinit"
	if kind == recoveryReinitSessionLoss {
		reason = "session_loss"
	}
	return w.reinitialise(ctx, opName, reason)
}

func (w *Wrapper) reinitialise(ctx context.Context, opName, reason string) error {
	ictx, cancel := context.WithTimeout(ctx, w.ctx.ReinitTimeout)
	defer cancel()
	_, err := w.session.Initialize(ictx)
	if w.metrics != nil {
		w.metrics.RetryTotal.WithLabelValues(w.backend, opName, reason).Inc()
	}
	return err
}

// callWithRace runs fn under the per-call timeout, racing it against caller
// cancellation and the transport's out-of-band error queue (spec §4.3's
// "Out-of-band error queue" and "Per-call timeout" behaviours). The call is
// always awaited to completion before returning, to avoid orphan I/O.
func callWithRace[T any](ctx context.Context, w *Wrapper, fn func(context.Context) (T, error)) (T, error) {
	var cancel context.CancelFunc
	if w.ctx.CallTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, w.ctx.CallTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(ctx)
		done <- outcome{val: v, err: err}
	}()

	var errsCh <-chan error
	if eo, ok := w.session.(client.ErrorObserver); ok {
		errsCh = eo.Errors()
	}

	select {
	case o := <-done:
		return o.val, o.err
	case queueErr := <-errsCh:
		cancel()
		<-done
		var zero T
		return zero, queueErr
	case <-ctx.Done():
		<-done
		var zero T
		if ctx.Err() == context.DeadlineExceeded {
			return zero, client.NewTimeoutError("call", ctx.Err())
		}
		return zero, client.NewCancelledError(ctx.Err())
	}
}

// run executes fn under the full retry policy: concurrency gate, per-call
// race, bounded retry loop with the rebuild-vs-reinitialise sleep table.
// resultRetryable additionally classifies a successful-looking result as
// retryable (used only by CallTool's error-result path, spec §4.3 point 4).
func run[T any](ctx context.Context, w *Wrapper, opName string, resultRetryable func(T) bool, fn func(context.Context) (T, error)) (T, error) {
	correlationID := uuid.New().String()
	ctx = client.WithCorrelationID(ctx, correlationID)

	if err := w.ctx.sem.Acquire(ctx, 1); err != nil {
		var zero T
		return zero, client.NewCancelledError(err)
	}
	defer w.ctx.sem.Release(1)

	ctx, span := telemetry.StartSpan(ctx, "mcpweave.client."+opName)
	defer span.End()
	if w.metrics != nil {
		w.metrics.InflightCalls.WithLabelValues(w.backend).Inc()
		defer w.metrics.InflightCalls.WithLabelValues(w.backend).Dec()
		start := time.Now()
		defer func() {
			w.metrics.CallDurationSeconds.WithLabelValues(w.backend, opName).Observe(time.Since(start).Seconds())
		}()
	}

	bo := newExponentialBackoff()
	maxAttempts := 1 + w.ctx.RetryAttempts

	var lastErr error
	var lastVal T
	for attempt := 0; attempt < maxAttempts; attempt++ {
		val, err := callWithRace(ctx, w, fn)
		lastVal, lastErr = val, err

		kind := classify(err)
		if err == nil && resultRetryable != nil && resultRetryable(val) {
			kind = recoveryReinitSessionLoss
		}

		if kind == recoveryNone {
			return val, err
		}
		if attempt == maxAttempts-1 {
			break
		}

		logging.Debugf("proxy: backend %q op %q correlation_id=%s attempt %d/%d failed, recovering (kind=%d): %v",
			w.backend, opName, correlationID, attempt+1, maxAttempts, kind, err)

		if recoverErr := w.recover(ctx, opName, kind); recoverErr != nil {
			logging.Warnf("proxy: backend %q op %q correlation_id=%s recovery failed: %v", w.backend, opName, correlationID, recoverErr)
		}

		sleep := sleepFor(kind, bo)
		if sleep > 0 {
			select {
			case <-time.After(sleep):
			case <-ctx.Done():
				var zero T
				return zero, client.NewCancelledError(ctx.Err())
			}
		}
	}

	if lastErr == nil {
		return lastVal, nil
	}
	return lastVal, fmt.Errorf("backend %q op %q correlation_id=%s exhausted %d attempts: %w", w.backend, opName, correlationID, maxAttempts, lastErr)
}
