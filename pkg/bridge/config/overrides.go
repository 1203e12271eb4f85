package config

import "dario.cat/mergo"

// CLIOverrides holds the subset of bridge settings the `serve` command's
// flags may override on top of a loaded file (spec §6.1 leaves these to the
// hosting CLI; mcpweave's own cobra layer is one such caller). Zero-valued
// fields are treated as "not set" and left untouched.
type CLIOverrides struct {
	ConflictResolution ConflictResolution
	DefaultNamespace   *bool
}

// ApplyCLIOverrides merges non-zero CLIOverrides fields onto cfg.Bridge,
// letting explicitly-set flags win over the file (and the file win over
// mergo's own zero-value fallback, since WithOverride only replaces fields
// that are non-empty on the source).
func ApplyCLIOverrides(cfg *Config, o CLIOverrides) error {
	overlay := BridgeConfig{ConflictResolution: o.ConflictResolution}
	if err := mergo.Merge(&cfg.Bridge, overlay, mergo.WithOverride); err != nil {
		return err
	}
	// Bool fields can't go through mergo's zero-value-skipping override (an
	// explicit "false" override is indistinguishable from "unset"), so the
	// pointer-typed flag is applied directly instead.
	if o.DefaultNamespace != nil {
		cfg.Bridge.DefaultNamespace = *o.DefaultNamespace
	}
	return nil
}
