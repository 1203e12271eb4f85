// Package client defines the MCP client-session contract (spec §4.2) and
// the error taxonomy (spec §7) shared by every backend-facing layer.
package client

import "context"

// Tool, Resource, Prompt, and their template/content companions are kept
// intentionally minimal here: the wire-level shapes are owned by
// github.com/mark3labs/mcp-go/mcp. mcpweave re-exports the pieces the
// aggregator and facade need to touch so that most of the codebase never
// imports the SDK directly.

// Tool describes a callable backend capability.
type Tool struct {
	Name        string
	Description string
	InputSchema []byte // raw JSON schema, preserved verbatim (spec §4.5 point 4)
}

// Resource describes an addressable read-only document.
type Resource struct {
	URI         string
	Name        string
	Description string
	MIMEType    string
}

// ResourceTemplate describes a parameterised resource URI pattern.
type ResourceTemplate struct {
	URITemplate string
	Name        string
	Description string
	MIMEType    string
}

// Prompt describes a parameterised message template.
type Prompt struct {
	Name        string
	Description string
	Arguments   []PromptArgument
}

// PromptArgument is one named, optionally-required prompt parameter.
type PromptArgument struct {
	Name        string
	Description string
	Required    bool
}

// ContentBlock is one piece of tool/prompt content (text, image, or embedded
// resource). Only Text is populated for the synthetic error results this
// package produces; other kinds pass through verbatim from the backend.
type ContentBlock struct {
	Type     string
	Text     string
	MIMEType string
	Raw      []byte // backend-native encoding, preserved for non-text kinds
}

// CallToolResult is the outcome of invoking a tool.
type CallToolResult struct {
	Content []ContentBlock
	IsError bool
}

// GetPromptResult is the outcome of rendering a prompt.
type GetPromptResult struct {
	Description string
	Messages    []PromptMessage
}

// PromptMessage is one rendered prompt message.
type PromptMessage struct {
	Role    string
	Content ContentBlock
}

// ReadResourceResult is the outcome of reading a resource.
type ReadResourceResult struct {
	Contents []ResourceContents
}

// ResourceContents is one unit of resource content.
type ResourceContents struct {
	URI      string
	MIMEType string
	Text     string
	Blob     []byte
}

// CompletionResult is the outcome of a completion request.
type CompletionResult struct {
	Values  []string
	Total   int
	HasMore bool
}

// CompletionRef identifies what is being completed (a prompt or a resource
// template argument).
type CompletionRef struct {
	Kind string // "ref/prompt" or "ref/resource"
	Name string
}

// ServerCapabilities mirrors the subset of the MCP server capability
// advertisement the core cares about (spec §4.2: "do not register a handler
// for a capability the server did not advertise").
type ServerCapabilities struct {
	Tools     bool
	Resources bool
	Prompts   bool
	Logging   bool
}

// ServerInfo is the backend's self-reported identity from initialize().
type ServerInfo struct {
	Name            string
	Version         string
	ProtocolVersion string
}

// InitializeResult is the outcome of a handshake.
type InitializeResult struct {
	ServerInfo   ServerInfo
	Capabilities ServerCapabilities
}

// Session is the MCP client state machine contract (spec §4.2). Every
// operation is independently retriable: Initialize must be safely callable
// more than once, since it is the re-handshake primitive after session loss.
type Session interface {
	Initialize(ctx context.Context) (*InitializeResult, error)
	ListTools(ctx context.Context) ([]Tool, error)
	ListResources(ctx context.Context) ([]Resource, error)
	ListResourceTemplates(ctx context.Context) ([]ResourceTemplate, error)
	ListPrompts(ctx context.Context) ([]Prompt, error)
	GetPrompt(ctx context.Context, name string, arguments map[string]string) (*GetPromptResult, error)
	ReadResource(ctx context.Context, uri string) (*ReadResourceResult, error)
	SubscribeResource(ctx context.Context, uri string) error
	UnsubscribeResource(ctx context.Context, uri string) error
	CallTool(ctx context.Context, name string, arguments map[string]any) (*CallToolResult, error)
	SetLoggingLevel(ctx context.Context, level string) error
	Complete(ctx context.Context, ref CompletionRef, argumentName, argumentValue string) (*CompletionResult, error)
	SendProgressNotification(ctx context.Context, token string, progress float64, total *float64) error
	// Close releases the underlying transport. Idempotent.
	Close() error
}

// Rebuildable is implemented by sessions whose transport supports a full
// tear-down-and-reopen cycle (spec §9: "not all transports can rebuild").
// The proxy wrapper falls back to Initialize-only reinitialisation when a
// session does not implement this interface or SupportsRebuild returns
// false.
type Rebuildable interface {
	SupportsRebuild() bool
	Rebuild(ctx context.Context) error
}

// ErrorObserver is implemented by sessions backed by a transport that can
// report out-of-band transport errors (HTTP adapters' bounded error queue,
// spec §4.1 / §4.3). Errors returns a channel the proxy wrapper races
// against every in-flight call.
type ErrorObserver interface {
	Errors() <-chan error
}
