// Package manager implements the server manager (spec §4.4, C4): the
// backend connection pool, concurrent startup, periodic health checks, and
// the failover status machine.
package manager

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mcpweave/mcpweave/pkg/bridge/client"
	"github.com/mcpweave/mcpweave/pkg/bridge/config"
	"github.com/mcpweave/mcpweave/pkg/bridge/proxy"
	"github.com/mcpweave/mcpweave/pkg/bridge/transport"
	"github.com/mcpweave/mcpweave/pkg/logging"
	"github.com/mcpweave/mcpweave/pkg/telemetry"
)

// startTimeout bounds the overall initial-connect window (spec §4.4: "30s,
// advisory — tardy backends are not cancelled").
const startTimeout = 30 * time.Second

// stopGrace bounds session teardown on Stop (spec §4.4: "~1s").
const stopGrace = time.Second

// healthCheckInterval is the fixed health-check cadence (spec §4.4).
const healthCheckInterval = 30 * time.Second

// healthProbeTimeout bounds each individual health-check probe.
const healthProbeTimeout = 5 * time.Second

// Status is a managed backend's lifecycle state (spec §4.4 invariant 5).
type Status string

// Supported statuses.
const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusFailed       Status = "failed"
	StatusDisabled     Status = "disabled"
)

// Health tracks a managed backend's liveness (spec §4.4).
type Health struct {
	Status              Status
	LastSeen            time.Time
	ConsecutiveFailures int
	LastError           string
	Capabilities        client.ServerCapabilities
}

// ManagedBackend is one configured backend and its runtime state.
type ManagedBackend struct {
	Name   string
	Config config.BackendConfig

	mu          sync.RWMutex
	health      Health
	session     client.Session // the proxy.Wrapper-decorated session; nil until connected
	lastAttempt time.Time      // start of the most recent connect attempt, incl. reconnects

	tools     []client.Tool
	resources []client.Resource
	prompts   []client.Prompt
}

// Health returns a snapshot of the backend's current health.
func (b *ManagedBackend) Health() Health {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.health
}

// Session returns the backend's current session, or nil if not connected.
// Callers must treat a nil result as "unavailable" (spec §4.2/§4.3).
func (b *ManagedBackend) Session() client.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session
}

// Tools, Resources, Prompts return the backend's cached catalogue
// (spec §4.4: "capability caching bound to session lifetime").
func (b *ManagedBackend) Tools() []client.Tool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tools
}

func (b *ManagedBackend) Resources() []client.Resource {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.resources
}

func (b *ManagedBackend) Prompts() []client.Prompt {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.prompts
}

// LastAttempt returns the start time of the most recent connect attempt
// (initial connect or a later reconnect), used to gate reconnect frequency
// against RecoveryInterval (spec §3 invariant 5).
func (b *ManagedBackend) LastAttempt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastAttempt
}

func (b *ManagedBackend) setLastAttempt(t time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastAttempt = t
}

func (b *ManagedBackend) setHealth(h Health) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.health = h
}

func (b *ManagedBackend) setCatalogue(tools []client.Tool, resources []client.Resource, prompts []client.Prompt) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tools, b.resources, b.prompts = tools, resources, prompts
}

// Connector opens a transport for a backend; dialConnector (below) is the
// production implementation, injected here so tests can substitute fakes
// without spawning real processes.
type Connector func(ctx context.Context, cfg config.BackendConfig) (client.Session, error)

// Manager owns the backend pool: concurrent connect at Start, an optional
// health-check loop, and graceful teardown at Stop.
type Manager struct {
	cfg       *config.Config
	connector Connector
	metrics   *telemetry.Metrics

	backends map[string]*ManagedBackend

	cancelHealth context.CancelFunc
	healthDone   chan struct{}
}

// New builds a Manager over cfg. A nil metrics is replaced with a private,
// unexposed registry so instrumentation is always safe to call.
func New(cfg *config.Config, metrics *telemetry.Metrics) *Manager {
	if metrics == nil {
		metrics = telemetry.NewMetrics(nil)
	}
	m := &Manager{
		cfg:       cfg,
		connector: dialConnector(metrics),
		metrics:   metrics,
		backends:  make(map[string]*ManagedBackend),
	}
	for name, bc := range cfg.Backends {
		status := StatusConnecting
		if !bc.Enabled {
			status = StatusDisabled
		}
		m.backends[name] = &ManagedBackend{
			Name:   name,
			Config: *bc,
			health: Health{Status: status, LastSeen: time.Time{}},
		}
	}
	return m
}

// dialConnector builds the production Connector: real transport dial +
// proxy.Wrapper decoration, selected by TransportType.
func dialConnector(metrics *telemetry.Metrics) Connector {
	return func(ctx context.Context, cfg config.BackendConfig) (client.Session, error) {
		var h *transport.Handle
		var err error

		switch cfg.TransportType {
		case config.TransportSSE:
			h, err = transport.SSE(ctx, &cfg)
		case config.TransportStreamableHTTP:
			h, err = transport.StreamableHTTP(ctx, &cfg)
		default:
			h, err = transport.Stdio(ctx, &cfg)
		}
		if err != nil {
			return nil, err
		}

		session := transport.Session(h)
		return proxy.New(session, cfg.Name, proxy.NewContext(cfg), metrics), nil
	}
}

// Start connects every enabled backend concurrently, bounded by the
// start-wide advisory deadline, then launches the health-check loop if
// failover is enabled (spec §4.4).
func (m *Manager) Start(ctx context.Context) error {
	logging.Infof("manager: starting with %d configured backends", len(m.backends))

	var g errgroup.Group
	for _, b := range m.backends {
		b := b
		if b.Health().Status == StatusDisabled {
			continue
		}
		g.Go(func() error {
			m.connectBackend(ctx, b)
			return nil // connect failures are per-backend, never fatal to Start
		})
	}
	connected := make(chan struct{})
	go func() { _ = g.Wait(); close(connected) }()
	select {
	case <-connected:
	case <-time.After(startTimeout):
		logging.Warnf("manager: some backends did not finish connecting within %s", startTimeout)
	}

	if m.cfg.Bridge.Failover.Enabled {
		hctx, hcancel := context.WithCancel(context.Background())
		m.cancelHealth = hcancel
		m.healthDone = make(chan struct{})
		go m.healthCheckLoop(hctx)
	}

	logging.Infof("manager: started with %d active backends", len(m.ActiveBackends()))
	return nil
}

func (m *Manager) connectBackend(ctx context.Context, b *ManagedBackend) {
	b.setLastAttempt(time.Now())

	timeout := b.Config.Timeout()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logging.Infof("manager: connecting backend %q", b.Name)

	session, err := m.connector(cctx, b.Config)
	if err != nil {
		m.recordFailure(b, err)
		return
	}

	result, err := session.Initialize(cctx)
	if err != nil {
		_ = session.Close()
		m.recordFailure(b, err)
		return
	}

	b.mu.Lock()
	b.session = session
	b.mu.Unlock()

	m.setStatus(b, StatusConnected, "")
	b.setHealth(Health{
		Status:       StatusConnected,
		LastSeen:     time.Now(),
		Capabilities: result.Capabilities,
	})

	m.loadCapabilities(cctx, b, result.Capabilities)
	logging.Infof("manager: backend %q connected", b.Name)
}

// loadCapabilities populates the catalogue cache, skipping list calls for
// capabilities the backend never advertised (spec §4.2: "do not register a
// handler for a capability the server did not advertise" — mirrored here as
// "do not even ask").
func (m *Manager) loadCapabilities(ctx context.Context, b *ManagedBackend, caps client.ServerCapabilities) {
	var tools []client.Tool
	var resources []client.Resource
	var prompts []client.Prompt

	if caps.Tools {
		if res, err := b.Session().ListTools(ctx); err == nil {
			tools = res
		} else {
			logging.Warnf("manager: listing tools for backend %q failed: %v", b.Name, err)
		}
	}
	if caps.Resources {
		if res, err := b.Session().ListResources(ctx); err == nil {
			resources = res
		} else {
			logging.Warnf("manager: listing resources for backend %q failed: %v", b.Name, err)
		}
	}
	if caps.Prompts {
		if res, err := b.Session().ListPrompts(ctx); err == nil {
			prompts = res
		} else {
			logging.Warnf("manager: listing prompts for backend %q failed: %v", b.Name, err)
		}
	}
	b.setCatalogue(tools, resources, prompts)
}

func (m *Manager) recordFailure(b *ManagedBackend, err error) {
	h := b.Health()
	h.Status = StatusFailed
	h.ConsecutiveFailures++
	h.LastError = err.Error()
	b.setHealth(h)
	m.setStatus(b, StatusFailed, err.Error())
	logging.Warnf("manager: backend %q failed: %v", b.Name, err)
}

func (m *Manager) setStatus(b *ManagedBackend, status Status, reason string) {
	m.metrics.BackendStatus.WithLabelValues(b.Name, string(status)).Set(1)
	for _, s := range []Status{StatusConnecting, StatusConnected, StatusDisconnected, StatusFailed, StatusDisabled} {
		if s != status {
			m.metrics.BackendStatus.WithLabelValues(b.Name, string(s)).Set(0)
		}
	}
	if status == StatusFailed || status == StatusDisconnected {
		m.metrics.ReconnectTotal.WithLabelValues(b.Name).Inc()
	}
	_ = reason
}

// healthCheckLoop issues a list_tools probe per connected backend every
// healthCheckInterval, applying the FAILED transition at MaxFailures
// (spec §4.4 point 4, invariant 5).
func (m *Manager) healthCheckLoop(ctx context.Context) {
	defer close(m.healthDone)
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.performHealthChecks(ctx)
		}
	}
}

// performHealthChecks probes every StatusConnected backend and attempts to
// reconnect every StatusFailed backend whose RecoveryInterval has elapsed
// (spec §3 invariant 5, property P6).
func (m *Manager) performHealthChecks(ctx context.Context) {
	for _, b := range m.backends {
		switch b.Health().Status {
		case StatusConnected:
			m.probeBackend(ctx, b)
		case StatusFailed:
			m.maybeReconnect(ctx, b)
		}
	}
}

func (m *Manager) probeBackend(ctx context.Context, b *ManagedBackend) {
	session := b.Session()
	if session == nil {
		return
	}

	pctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	_, err := session.ListTools(pctx)
	cancel()

	h := b.Health()
	if err != nil {
		h.ConsecutiveFailures++
		h.LastError = err.Error()
		if h.ConsecutiveFailures >= m.cfg.Bridge.Failover.MaxFailures {
			h.Status = StatusFailed
			m.metrics.ConsecutiveFailures.WithLabelValues(b.Name).Set(float64(h.ConsecutiveFailures))
			b.setHealth(h)
			m.setStatus(b, StatusFailed, h.LastError)
			logging.Errorf("manager: backend %q marked failed after %d consecutive failures", b.Name, h.ConsecutiveFailures)
			m.disconnect(b)
			return
		}
		m.metrics.ConsecutiveFailures.WithLabelValues(b.Name).Set(float64(h.ConsecutiveFailures))
		b.setHealth(h)
		logging.Warnf("manager: health check failed for backend %q: %v", b.Name, err)
		return
	}

	h.ConsecutiveFailures = 0
	h.LastError = ""
	h.LastSeen = time.Now()
	m.metrics.ConsecutiveFailures.WithLabelValues(b.Name).Set(0)
	b.setHealth(h)
}

// maybeReconnect retries a StatusFailed backend no sooner than
// RecoveryInterval after its last connect attempt, restoring the session and
// catalogue on success (spec §3 invariant 5: "reconnection is attempted no
// sooner than recovery_interval_ms after the last attempt").
func (m *Manager) maybeReconnect(ctx context.Context, b *ManagedBackend) {
	if interval := m.cfg.Bridge.Failover.RecoveryIntervalDuration(); time.Since(b.LastAttempt()) < interval {
		return
	}
	logging.Infof("manager: attempting to reconnect failed backend %q", b.Name)
	m.metrics.ReconnectTotal.WithLabelValues(b.Name).Inc()
	m.connectBackend(ctx, b)
}

func (m *Manager) disconnect(b *ManagedBackend) {
	b.mu.Lock()
	session := b.session
	b.session = nil
	b.mu.Unlock()
	if session != nil {
		_ = session.Close()
	}
	b.setCatalogue(nil, nil, nil)
}

// Stop cancels the health loop and closes every backend session under a
// bounded grace window; teardown errors are swallowed (logged at debug),
// never propagated (spec §4.4).
func (m *Manager) Stop(ctx context.Context) error {
	logging.Infof("manager: stopping")
	if m.cancelHealth != nil {
		m.cancelHealth()
		<-m.healthDone
	}

	sctx, cancel := context.WithTimeout(ctx, stopGrace)
	defer cancel()

	var g errgroup.Group
	for _, b := range m.backends {
		b := b
		g.Go(func() error {
			session := b.Session()
			if session == nil {
				return nil
			}
			if err := session.Close(); err != nil {
				logging.Debugf("manager: closing backend %q produced an error (expected during shutdown): %v", b.Name, err)
			}
			return nil
		})
	}
	closed := make(chan struct{})
	go func() { _ = g.Wait(); close(closed) }()
	select {
	case <-closed:
	case <-sctx.Done():
		logging.Debugf("manager: teardown grace window elapsed with sessions still closing")
	}

	logging.Infof("manager: stopped")
	return nil
}

// ActiveBackends returns a priority-then-name sorted snapshot of connected
// backends (spec §4.4/§5: "no global lock required").
func (m *Manager) ActiveBackends() []*ManagedBackend {
	out := make([]*ManagedBackend, 0, len(m.backends))
	for _, b := range m.backends {
		if b.Health().Status == StatusConnected {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Config.Priority != out[j].Config.Priority {
			return out[i].Config.Priority < out[j].Config.Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// SetConnector overrides the production dial-and-wrap connector. Exposed so
// tests (and embedders wanting a custom transport resolver) can substitute
// a fake without spawning real processes; must be called before Start.
func (m *Manager) SetConnector(c Connector) { m.connector = c }

// Backend returns the named backend, or nil if unknown.
func (m *Manager) Backend(name string) *ManagedBackend { return m.backends[name] }

// StatusSnapshot mirrors the original implementation's "get_server_status":
// a point-in-time view of every configured backend's health, keyed by name.
func (m *Manager) StatusSnapshot() map[string]Health {
	out := make(map[string]Health, len(m.backends))
	for name, b := range m.backends {
		out[name] = b.Health()
	}
	return out
}
