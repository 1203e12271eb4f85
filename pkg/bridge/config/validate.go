package config

import "fmt"

const minHealthCheckIntervalMS = 1000

// validateBackend enforces spec §4.7 point 2's semantic rules for a single
// backend entry. A non-nil error means the caller should drop the entry
// with a warning, not abort the whole load.
func validateBackend(b *BackendConfig) error {
	if !b.Enabled {
		return nil // disabled backends skip validation entirely; they never connect
	}

	switch b.TransportType {
	case TransportStdio, "":
		if b.Command == "" {
			return fmt.Errorf("stdio backend requires a non-empty command")
		}
	case TransportSSE, TransportStreamableHTTP:
		if b.URL == "" {
			return fmt.Errorf("%s backend requires a non-empty url", b.TransportType)
		}
	default:
		return fmt.Errorf("unknown transportType %q", b.TransportType)
	}

	if b.TimeoutMS < 0 {
		return fmt.Errorf("timeout must be >= 0, got %d", b.TimeoutMS)
	}
	if b.RetryAttempts < 0 {
		return fmt.Errorf("retryAttempts must be >= 0, got %d", b.RetryAttempts)
	}
	if b.RetryDelayMS < 0 {
		return fmt.Errorf("retryDelay must be >= 0, got %d", b.RetryDelayMS)
	}
	if b.Priority < 0 {
		return fmt.Errorf("priority must be >= 0, got %d", b.Priority)
	}
	if b.HealthCheck.Enabled {
		if b.HealthCheck.Interval < minHealthCheckIntervalMS {
			return fmt.Errorf("healthCheck.interval must be >= %dms, got %d", minHealthCheckIntervalMS, b.HealthCheck.Interval)
		}
		if b.HealthCheck.Timeout < minHealthCheckIntervalMS {
			return fmt.Errorf("healthCheck.timeout must be >= %dms, got %d", minHealthCheckIntervalMS, b.HealthCheck.Timeout)
		}
	}

	for _, ns := range []*string{b.ToolNamespace, b.ResourceNamespace, b.PromptNamespace} {
		if ns != nil && *ns == "" {
			return fmt.Errorf("namespace override cannot be an empty string; omit it instead")
		}
	}

	return nil
}

// validateBridge enforces the bridge-wide semantic rules. Unlike backend
// validation, a bridge failure is fatal: there is no sensible fallback
// conflict-resolution policy to silently assume.
func validateBridge(b *BridgeConfig) error {
	switch b.ConflictResolution {
	case ConflictPriority, ConflictNamespace, ConflictFirst, ConflictError:
	default:
		return fmt.Errorf("unknown conflictResolution %q", b.ConflictResolution)
	}
	if b.Failover.Enabled {
		if b.Failover.MaxFailures < 1 {
			return fmt.Errorf("failover.maxFailures must be >= 1, got %d", b.Failover.MaxFailures)
		}
		if b.Failover.RecoveryInterval < minHealthCheckIntervalMS {
			return fmt.Errorf("failover.recoveryInterval must be >= %dms, got %d", minHealthCheckIntervalMS, b.Failover.RecoveryInterval)
		}
	}
	return nil
}
