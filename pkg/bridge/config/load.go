package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mcpweave/mcpweave/pkg/bridge/client"
	"github.com/mcpweave/mcpweave/pkg/logging"
)

// Load reads, env-expands, schema-validates, defaults, and semantically
// validates the bridge configuration file at path (spec §4.7, §6.1).
// Invalid backend entries are dropped with a warning rather than failing
// the whole load (spec §4.7 last sentence) — only file-not-found, syntax
// errors, schema violations, and invalid bridge-wide settings are fatal
// ConfigErrors.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, client.NewConfigError("reading configuration file", err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, client.NewConfigError("parsing configuration JSON", err)
	}

	generic = expandTree(generic)

	expanded, err := json.Marshal(generic)
	if err != nil {
		return nil, client.NewConfigError("re-encoding expanded configuration", err)
	}

	if err := validateSchema(expanded); err != nil {
		return nil, client.NewConfigError("configuration failed schema validation", err)
	}

	type rawDocument struct {
		MCPServers map[string]json.RawMessage `json:"mcpServers"`
		Bridge     json.RawMessage            `json:"bridge"`
	}
	var doc rawDocument
	if err := json.Unmarshal(expanded, &doc); err != nil {
		return nil, client.NewConfigError("decoding configuration document", err)
	}

	bridge := bridgeDefaults()
	if len(doc.Bridge) > 0 {
		if err := json.Unmarshal(doc.Bridge, &bridge); err != nil {
			return nil, client.NewConfigError("decoding bridge configuration", err)
		}
	}

	backends := make(map[string]*BackendConfig, len(doc.MCPServers))
	for name, rawBackend := range doc.MCPServers {
		b := backendDefaults()
		if err := json.Unmarshal(rawBackend, &b); err != nil {
			logging.Warnf("config: dropping backend %q: %v", name, err)
			continue
		}
		b.Name = name
		if err := validateBackend(&b); err != nil {
			logging.Warnf("config: dropping backend %q: %v", name, err)
			continue
		}
		backends[name] = &b
	}

	cfg := &Config{Backends: backends, Bridge: bridge}
	if err := validateBridge(&cfg.Bridge); err != nil {
		return nil, client.NewConfigError("invalid bridge configuration", err)
	}
	return cfg, nil
}

func validateSchema(document []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(documentSchema)
	docLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed to run: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%v", msgs)
	}
	return nil
}
