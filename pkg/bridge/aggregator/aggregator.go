// Package aggregator implements the capability merge and routing layer
// (spec §4.5, C5): namespaced listing across every active backend with
// conflict resolution, and routing an exposed identifier back to its owning
// backend.
package aggregator

import (
	"strings"

	"github.com/mcpweave/mcpweave/pkg/bridge/client"
	"github.com/mcpweave/mcpweave/pkg/bridge/config"
	"github.com/mcpweave/mcpweave/pkg/bridge/manager"
	"github.com/mcpweave/mcpweave/pkg/logging"
)

// Aggregator merges backend catalogues and routes inbound requests. It
// holds no catalogue state of its own: every List*/Route* call is computed
// fresh against the manager's current active-backend snapshot (spec §4.5:
// "a single-pass merge over active_backends()"), so a reconnect or backend
// failure between two calls is always reflected immediately.
type Aggregator struct {
	manager *manager.Manager
	bridge  config.BridgeConfig
}

// New builds an Aggregator over mgr using bridge's aggregation/conflict
// settings.
func New(mgr *manager.Manager, bridge config.BridgeConfig) *Aggregator {
	return &Aggregator{manager: mgr, bridge: bridge}
}

// ListTools merges tools from every priority-sorted active backend,
// namespacing identifiers and applying conflict_resolution (spec §4.5).
func (a *Aggregator) ListTools() ([]client.Tool, error) {
	if !a.bridge.Aggregation.Tools {
		return nil, nil
	}
	var out []client.Tool
	seen := make(map[string]bool)
	for _, b := range a.manager.ActiveBackends() {
		namespace := b.Config.EffectiveNamespace(config.KindTool, a.bridge.DefaultNamespace)
		for _, tool := range b.Tools() {
			name := namespacedName(namespace, tool.Name, config.KindTool)
			if seen[name] {
				if skip, err := a.onCollision(name); err != nil {
					return nil, err
				} else if skip {
					continue
				}
			}
			seen[name] = true
			out = append(out, client.Tool{Name: name, Description: tool.Description, InputSchema: tool.InputSchema})
		}
	}
	return out, nil
}

// ListResources merges resources, namespacing with "://" (spec §3
// invariant 6).
func (a *Aggregator) ListResources() ([]client.Resource, error) {
	if !a.bridge.Aggregation.Resources {
		return nil, nil
	}
	var out []client.Resource
	seen := make(map[string]bool)
	for _, b := range a.manager.ActiveBackends() {
		namespace := b.Config.EffectiveNamespace(config.KindResource, a.bridge.DefaultNamespace)
		for _, res := range b.Resources() {
			uri := namespacedName(namespace, res.URI, config.KindResource)
			if seen[uri] {
				if skip, err := a.onCollision(uri); err != nil {
					return nil, err
				} else if skip {
					continue
				}
			}
			seen[uri] = true
			out = append(out, client.Resource{URI: uri, Name: res.Name, Description: res.Description, MIMEType: res.MIMEType})
		}
	}
	return out, nil
}

// ListPrompts merges prompts, namespacing with "." like tools.
func (a *Aggregator) ListPrompts() ([]client.Prompt, error) {
	if !a.bridge.Aggregation.Prompts {
		return nil, nil
	}
	var out []client.Prompt
	seen := make(map[string]bool)
	for _, b := range a.manager.ActiveBackends() {
		namespace := b.Config.EffectiveNamespace(config.KindPrompt, a.bridge.DefaultNamespace)
		for _, p := range b.Prompts() {
			name := namespacedName(namespace, p.Name, config.KindPrompt)
			if seen[name] {
				if skip, err := a.onCollision(name); err != nil {
					return nil, err
				} else if skip {
					continue
				}
			}
			seen[name] = true
			out = append(out, client.Prompt{Name: name, Description: p.Description, Arguments: p.Arguments})
		}
	}
	return out, nil
}

// onCollision applies bridge.ConflictResolution to a colliding identifier.
// "priority", "namespace", and "first" all skip the later duplicate — under
// priority-ordered iteration the earlier (higher-priority) entry already
// won, and a namespace collision degrades to the same "first wins" rule
// (spec §4.5 point 3).
func (a *Aggregator) onCollision(identifier string) (skip bool, err error) {
	if a.bridge.ConflictResolution == config.ConflictError {
		return false, client.NewConflictError(identifier)
	}
	logging.Debugf("aggregator: identifier %q already claimed, skipping later occurrence (resolution=%s)", identifier, a.bridge.ConflictResolution)
	return true, nil
}

// RouteTool resolves an exposed tool identifier to its owning backend and
// local name (spec §4.5 "Routing an inbound call").
func (a *Aggregator) RouteTool(identifier string) (*manager.ManagedBackend, string, error) {
	return a.route(config.KindTool, identifier, func(b *manager.ManagedBackend, local string) bool {
		return containsTool(b.Tools(), local)
	})
}

// RouteResource resolves an exposed resource URI to its owning backend and
// local URI.
func (a *Aggregator) RouteResource(identifier string) (*manager.ManagedBackend, string, error) {
	return a.route(config.KindResource, identifier, func(b *manager.ManagedBackend, local string) bool {
		return containsResource(b.Resources(), local)
	})
}

// RoutePrompt resolves an exposed prompt identifier to its owning backend
// and local name.
func (a *Aggregator) RoutePrompt(identifier string) (*manager.ManagedBackend, string, error) {
	return a.route(config.KindPrompt, identifier, func(b *manager.ManagedBackend, local string) bool {
		return containsPrompt(b.Prompts(), local)
	})
}

// route implements spec §4.5's routing algorithm verbatim: split on the
// kind's separator if present and match on (namespace, local) together;
// otherwise scan priority-ordered active backends for the first catalogue
// containing the identifier as-is.
func (a *Aggregator) route(kind config.Kind, identifier string, owns func(*manager.ManagedBackend, string) bool) (*manager.ManagedBackend, string, error) {
	backends := a.manager.ActiveBackends()

	if namespace, local, ok := splitIdentifier(kind, identifier); ok {
		for _, b := range backends {
			if b.Config.EffectiveNamespace(kind, a.bridge.DefaultNamespace) == namespace && owns(b, local) {
				if b.Session() == nil {
					return nil, "", client.NewUnavailableError(b.Name)
				}
				return b, local, nil
			}
		}
		return nil, "", client.NewNotFoundError(identifier)
	}

	for _, b := range backends {
		if owns(b, identifier) {
			if b.Session() == nil {
				return nil, "", client.NewUnavailableError(b.Name)
			}
			return b, identifier, nil
		}
	}
	return nil, "", client.NewNotFoundError(identifier)
}

// splitIdentifier splits identifier at the first occurrence of kind's
// separator, returning ok=false if the separator is absent.
func splitIdentifier(kind config.Kind, identifier string) (namespace, local string, ok bool) {
	sep := kind.Separator()
	idx := strings.Index(identifier, sep)
	if idx < 0 {
		return "", "", false
	}
	return identifier[:idx], identifier[idx+len(sep):], true
}

func namespacedName(namespace, name string, kind config.Kind) string {
	if namespace == "" {
		return name
	}
	var b strings.Builder
	b.WriteString(namespace)
	b.WriteString(kind.Separator())
	b.WriteString(name)
	return b.String()
}

func containsTool(tools []client.Tool, name string) bool {
	for _, t := range tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

func containsResource(resources []client.Resource, uri string) bool {
	for _, r := range resources {
		if r.URI == uri {
			return true
		}
	}
	return false
}

func containsPrompt(prompts []client.Prompt, name string) bool {
	for _, p := range prompts {
		if p.Name == name {
			return true
		}
	}
	return false
}
