package config

// Kind identifies a capability kind for namespace resolution (spec §3
// invariant 4, §4.5).
type Kind int

// Supported capability kinds.
const (
	KindTool Kind = iota
	KindResource
	KindPrompt
)

// Separator returns the identifier separator for this kind: "." for tools
// and prompts, "://" for resources (spec §3 invariant 6).
func (k Kind) Separator() string {
	if k == KindResource {
		return "://"
	}
	return "."
}

// EffectiveNamespace computes the effective namespace for this backend x
// kind per spec §3 invariant 4: the explicit override if set, else the
// backend name if default_namespace is enabled bridge-wide, else empty.
func (b *BackendConfig) EffectiveNamespace(kind Kind, bridgeDefaultNamespace bool) string {
	var override *string
	switch kind {
	case KindTool:
		override = b.ToolNamespace
	case KindResource:
		override = b.ResourceNamespace
	case KindPrompt:
		override = b.PromptNamespace
	}
	if override != nil && *override != "" {
		return *override
	}
	if bridgeDefaultNamespace {
		return b.Name
	}
	return ""
}
