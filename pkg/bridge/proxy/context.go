// Package proxy implements the resilient proxy wrapper (spec §4.3, C3):
// bounded retries, session rebuild on 404/session-terminated, a per-call
// timeout, an inflight semaphore, and out-of-band error-queue observation,
// decorating a client.Session transparently.
package proxy

import (
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/mcpweave/mcpweave/pkg/bridge/config"
)

// Defaults per spec §4.3 / §9's resolved open question.
const (
	defaultCallTimeout      = 15 * time.Second
	defaultReinitTimeout    = 5 * time.Second
	defaultReconnectTimeout = 5 * time.Second
	defaultMaxInflight      = 8

	backoffInitial = 500 * time.Millisecond
	backoffMax     = 5 * time.Second
)

// Context is the explicit session-state struct threaded into the wrapper at
// construction (spec §4.3's "Dynamic capability surfaces" redesign flag:
// no ambient attribute patching — every piece of retry state is a named
// field here).
type Context struct {
	RetryAttempts    int
	CallTimeout      time.Duration
	ReinitTimeout    time.Duration
	ReconnectTimeout time.Duration

	sem *semaphore.Weighted
}

// NewContext builds a Context from a backend's configuration, applying the
// MCP_PROXY_* environment overrides (spec §6.3) on top.
func NewContext(cfg config.BackendConfig) *Context {
	c := &Context{
		RetryAttempts:    cfg.RetryAttempts,
		CallTimeout:      defaultCallTimeout,
		ReinitTimeout:    defaultReinitTimeout,
		ReconnectTimeout: defaultReconnectTimeout,
		sem:              semaphore.NewWeighted(defaultMaxInflight),
	}
	applyEnvOverrides(c)
	return c
}

func applyEnvOverrides(c *Context) {
	if v, ok := secondsEnv("MCP_PROXY_CALL_TIMEOUT_S"); ok {
		c.CallTimeout = v
	}
	if v, ok := secondsEnv("MCP_PROXY_REINIT_TIMEOUT_S"); ok && v > 0 {
		c.ReinitTimeout = v
	}
	if v, ok := secondsEnv("MCP_PROXY_RECONNECT_TIMEOUT_S"); ok && v > 0 {
		c.ReconnectTimeout = v
	}
}

// secondsEnv reads an environment variable as a floating-point second count.
// A non-positive value yields a zero duration: for the call timeout that
// disables the deadline, while applyEnvOverrides keeps the 5s defaults for
// the reinit and reconnect timeouts.
func secondsEnv(name string) (time.Duration, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if seconds <= 0 {
		return 0, true
	}
	return time.Duration(seconds * float64(time.Second)), true
}
