// Package config implements the bridge configuration model (spec §3, §4.7,
// §6.1): typed representations of per-backend and bridge-wide settings,
// JSON loading with ${VAR} environment expansion, schema validation, and
// default application.
package config

import "time"

// ConflictResolution is the aggregator's collision policy (spec §3).
type ConflictResolution string

// Supported conflict-resolution policies.
const (
	ConflictPriority  ConflictResolution = "priority"
	ConflictNamespace ConflictResolution = "namespace"
	ConflictFirst     ConflictResolution = "first"
	ConflictError     ConflictResolution = "error"
)

// TransportType selects the backend transport kind. Only "stdio" is
// required by the core per spec §6.1; "sse" and "streamable-http" are
// accepted for the degenerate passthrough case described in spec §1.
type TransportType string

// Supported transport kinds.
const (
	TransportStdio          TransportType = "stdio"
	TransportSSE            TransportType = "sse"
	TransportStreamableHTTP TransportType = "streamable-http"
)

// AuthConfig describes how the gateway authenticates itself to an HTTP(S)
// backend (SSE / streamable-HTTP transports only).
type AuthConfig struct {
	// Type is one of "", "bearer", or "client_credentials".
	Type string `json:"type,omitempty"`
	// Token is used directly for Type == "bearer".
	Token string `json:"token,omitempty"`
	// ClientID/ClientSecret/TokenURL/Scopes configure an
	// oauth2 client-credentials flow for Type == "client_credentials".
	ClientID     string   `json:"clientId,omitempty"`
	ClientSecret string   `json:"clientSecret,omitempty"`
	TokenURL     string   `json:"tokenUrl,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
}

// HealthCheckConfig holds a backend's health-check settings (spec §3). They
// are parsed and validated, but the manager's health-check loop does not
// read them: it probes every connected backend at a fixed 30s cadence with
// a 5s probe timeout.
type HealthCheckConfig struct {
	Enabled  bool `json:"enabled"`
	Interval int  `json:"interval"` // ms, >= 1000
	Timeout  int  `json:"timeout"`  // ms, >= 1000
}

// IntervalDuration returns Interval as a time.Duration.
func (h HealthCheckConfig) IntervalDuration() time.Duration {
	return time.Duration(h.Interval) * time.Millisecond
}

// TimeoutDuration returns Timeout as a time.Duration.
func (h HealthCheckConfig) TimeoutDuration() time.Duration {
	return time.Duration(h.Timeout) * time.Millisecond
}

// BackendConfig is one backend's configuration (spec §3, §6.1).
type BackendConfig struct {
	Name    string `json:"-"` // map key in mcpServers; not part of the JSON body
	Enabled bool   `json:"enabled"`

	// stdio transport
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	Cwd     string            `json:"cwd,omitempty"`

	// SSE / streamable-HTTP transport
	URL       string            `json:"url,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Auth      *AuthConfig       `json:"auth,omitempty"`
	VerifyTLS bool              `json:"verifyTls"`

	TransportType TransportType `json:"transportType,omitempty"`

	TimeoutMS     int `json:"timeout"`
	RetryAttempts int `json:"retryAttempts"`
	RetryDelayMS  int `json:"retryDelay"`

	HealthCheck HealthCheckConfig `json:"healthCheck"`

	ToolNamespace     *string `json:"toolNamespace"`
	ResourceNamespace *string `json:"resourceNamespace"`
	PromptNamespace   *string `json:"promptNamespace"`

	Priority int      `json:"priority"`
	Tags     []string `json:"tags,omitempty"`
}

// Timeout returns TimeoutMS as a time.Duration.
func (b BackendConfig) Timeout() time.Duration { return time.Duration(b.TimeoutMS) * time.Millisecond }

// RetryDelay returns RetryDelayMS as a time.Duration.
func (b BackendConfig) RetryDelay() time.Duration {
	return time.Duration(b.RetryDelayMS) * time.Millisecond
}

// FailoverConfig controls health-check-driven failure escalation (spec §3).
type FailoverConfig struct {
	Enabled          bool `json:"enabled"`
	MaxFailures      int  `json:"maxFailures"`
	RecoveryInterval int  `json:"recoveryInterval"` // ms
}

// RecoveryIntervalDuration returns RecoveryInterval as a time.Duration.
func (f FailoverConfig) RecoveryIntervalDuration() time.Duration {
	return time.Duration(f.RecoveryInterval) * time.Millisecond
}

// AggregationConfig toggles which capability kinds are aggregated at all
// (spec §3, §6.1).
type AggregationConfig struct {
	Tools     bool `json:"tools"`
	Resources bool `json:"resources"`
	Prompts   bool `json:"prompts"`
}

// BridgeConfig is the singleton bridge-wide configuration (spec §3, §6.1).
type BridgeConfig struct {
	ConflictResolution ConflictResolution `json:"conflictResolution"`
	DefaultNamespace   bool               `json:"defaultNamespace"`
	Aggregation        AggregationConfig  `json:"aggregation"`
	Failover           FailoverConfig     `json:"failover"`
}

// Document is the top-level JSON document shape (spec §6.1).
type Document struct {
	MCPServers map[string]*BackendConfig `json:"mcpServers"`
	Bridge     BridgeConfig              `json:"bridge"`
}

// Config is the validated, defaults-applied, ready-to-use configuration:
// the backend map with names populated and invalid entries already dropped.
type Config struct {
	Backends map[string]*BackendConfig
	Bridge   BridgeConfig
}
