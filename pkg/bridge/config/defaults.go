package config

// backendDefaults mirrors the JSON schema defaults from spec §6.1 and the
// dataclass-default style of original_source's ServerHealth/ManagedServer.
// Callers pre-seed a BackendConfig with this value before json.Unmarshal so
// that only fields actually present in the document override it — this
// sidesteps the classic "explicit false vs. omitted" ambiguity that a
// post-hoc zero-value-aware merge (e.g. mergo) cannot resolve for bools.
func backendDefaults() BackendConfig {
	return BackendConfig{
		Enabled:       true,
		Args:          []string{},
		Env:           map[string]string{},
		TransportType: TransportStdio,
		TimeoutMS:     60_000,
		RetryAttempts: 3,
		RetryDelayMS:  1_000,
		HealthCheck: HealthCheckConfig{
			Enabled:  true,
			Interval: 30_000,
			Timeout:  5_000,
		},
		Priority: 100,
		Tags:     []string{},
	}
}

func bridgeDefaults() BridgeConfig {
	return BridgeConfig{
		ConflictResolution: ConflictNamespace,
		DefaultNamespace:   true,
		Aggregation: AggregationConfig{
			Tools:     true,
			Resources: true,
			Prompts:   true,
		},
		Failover: FailoverConfig{
			Enabled:          true,
			MaxFailures:      3,
			RecoveryInterval: 60_000,
		},
	}
}
