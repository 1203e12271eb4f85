package config

// documentSchema is the structural JSON Schema for the top-level config
// document (spec §6.1). It is intentionally permissive on types that the
// Go struct tags already coerce (e.g. it does not enforce transportType
// enum membership, which the semantic Validator checks with a better error
// message) and focuses on the shape a syntactically-broken file would get
// wrong: wrong top-level types, wrong nesting.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "mcpServers": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "enabled": {"type": "boolean"},
          "command": {"type": "string"},
          "args": {"type": "array", "items": {"type": "string"}},
          "env": {"type": "object", "additionalProperties": {"type": "string"}},
          "timeout": {"type": "integer", "minimum": 0},
          "transportType": {"type": "string"},
          "retryAttempts": {"type": "integer", "minimum": 0},
          "retryDelay": {"type": "integer", "minimum": 0},
          "healthCheck": {
            "type": "object",
            "properties": {
              "enabled": {"type": "boolean"},
              "interval": {"type": "integer"},
              "timeout": {"type": "integer"}
            }
          },
          "toolNamespace": {"type": ["string", "null"]},
          "resourceNamespace": {"type": ["string", "null"]},
          "promptNamespace": {"type": ["string", "null"]},
          "priority": {"type": "integer", "minimum": 0},
          "tags": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "bridge": {
      "type": "object",
      "properties": {
        "conflictResolution": {"type": "string", "enum": ["priority", "namespace", "first", "error"]},
        "defaultNamespace": {"type": "boolean"},
        "aggregation": {
          "type": "object",
          "properties": {
            "tools": {"type": "boolean"},
            "resources": {"type": "boolean"},
            "prompts": {"type": "boolean"}
          }
        },
        "failover": {
          "type": "object",
          "properties": {
            "enabled": {"type": "boolean"},
            "maxFailures": {"type": "integer", "minimum": 1},
            "recoveryInterval": {"type": "integer", "minimum": 1000}
          }
        }
      }
    }
  }
}`
