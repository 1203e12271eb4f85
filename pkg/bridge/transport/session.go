package transport

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcpweave/mcpweave/pkg/bridge/client"
)

// Session adapts a Handle to the client.Session contract, translating
// github.com/mark3labs/mcp-go/mcp's wire types into mcpweave's domain types
// and error taxonomy (spec §4.2). It additionally satisfies
// client.Rebuildable and, for HTTP-backed handles, client.ErrorObserver.
func Session(h *Handle) client.Session { return &mcpGoSession{h: h} }

type mcpGoSession struct{ h *Handle }

func (s *mcpGoSession) SupportsRebuild() bool            { return s.h.SupportsRebuild() }
func (s *mcpGoSession) Rebuild(ctx context.Context) error { return s.h.Rebuild(ctx) }
func (s *mcpGoSession) Errors() <-chan error              { return s.h.Errors() }
func (s *mcpGoSession) Close() error                      { return s.h.Close() }

func (s *mcpGoSession) Initialize(ctx context.Context) (*client.InitializeResult, error) {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: "mcpweave", Version: "0.1.0"}
	req.Params.Capabilities = mcp.ClientCapabilities{}

	res, err := s.h.Client.Initialize(ctx, req)
	if err != nil {
		return nil, s.translateErr(err)
	}

	return &client.InitializeResult{
		ServerInfo: client.ServerInfo{
			Name:            res.ServerInfo.Name,
			Version:         res.ServerInfo.Version,
			ProtocolVersion: res.ProtocolVersion,
		},
		Capabilities: client.ServerCapabilities{
			Tools:     res.Capabilities.Tools != nil,
			Resources: res.Capabilities.Resources != nil,
			Prompts:   res.Capabilities.Prompts != nil,
			Logging:   res.Capabilities.Logging != nil,
		},
	}, nil
}

func (s *mcpGoSession) ListTools(ctx context.Context) ([]client.Tool, error) {
	res, err := s.h.Client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, s.translateErr(err)
	}
	out := make([]client.Tool, 0, len(res.Tools))
	for _, t := range res.Tools {
		schema, marshalErr := t.InputSchema.MarshalJSON()
		if marshalErr != nil {
			schema = nil
		}
		out = append(out, client.Tool{Name: t.Name, Description: t.Description, InputSchema: schema})
	}
	return out, nil
}

func (s *mcpGoSession) ListResources(ctx context.Context) ([]client.Resource, error) {
	res, err := s.h.Client.ListResources(ctx, mcp.ListResourcesRequest{})
	if err != nil {
		return nil, s.translateErr(err)
	}
	out := make([]client.Resource, 0, len(res.Resources))
	for _, r := range res.Resources {
		out = append(out, client.Resource{URI: r.URI, Name: r.Name, Description: r.Description, MIMEType: r.MIMEType})
	}
	return out, nil
}

func (s *mcpGoSession) ListResourceTemplates(ctx context.Context) ([]client.ResourceTemplate, error) {
	res, err := s.h.Client.ListResourceTemplates(ctx, mcp.ListResourceTemplatesRequest{})
	if err != nil {
		return nil, s.translateErr(err)
	}
	out := make([]client.ResourceTemplate, 0, len(res.ResourceTemplates))
	for _, r := range res.ResourceTemplates {
		out = append(out, client.ResourceTemplate{
			URITemplate: r.URITemplate,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    r.MIMEType,
		})
	}
	return out, nil
}

func (s *mcpGoSession) ListPrompts(ctx context.Context) ([]client.Prompt, error) {
	res, err := s.h.Client.ListPrompts(ctx, mcp.ListPromptsRequest{})
	if err != nil {
		return nil, s.translateErr(err)
	}
	out := make([]client.Prompt, 0, len(res.Prompts))
	for _, p := range res.Prompts {
		args := make([]client.PromptArgument, 0, len(p.Arguments))
		for _, a := range p.Arguments {
			args = append(args, client.PromptArgument{Name: a.Name, Description: a.Description, Required: a.Required})
		}
		out = append(out, client.Prompt{Name: p.Name, Description: p.Description, Arguments: args})
	}
	return out, nil
}

func (s *mcpGoSession) GetPrompt(ctx context.Context, name string, arguments map[string]string) (*client.GetPromptResult, error) {
	req := mcp.GetPromptRequest{}
	req.Params.Name = name
	req.Params.Arguments = arguments

	res, err := s.h.Client.GetPrompt(ctx, req)
	if err != nil {
		return nil, s.translateErr(err)
	}
	messages := make([]client.PromptMessage, 0, len(res.Messages))
	for _, m := range res.Messages {
		messages = append(messages, client.PromptMessage{Role: string(m.Role), Content: toContentBlock(m.Content)})
	}
	return &client.GetPromptResult{Description: res.Description, Messages: messages}, nil
}

func (s *mcpGoSession) ReadResource(ctx context.Context, uri string) (*client.ReadResourceResult, error) {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri

	res, err := s.h.Client.ReadResource(ctx, req)
	if err != nil {
		return nil, s.translateErr(err)
	}
	contents := make([]client.ResourceContents, 0, len(res.Contents))
	for _, c := range res.Contents {
		switch v := c.(type) {
		case mcp.TextResourceContents:
			contents = append(contents, client.ResourceContents{URI: v.URI, MIMEType: v.MIMEType, Text: v.Text})
		case mcp.BlobResourceContents:
			contents = append(contents, client.ResourceContents{URI: v.URI, MIMEType: v.MIMEType, Blob: []byte(v.Blob)})
		}
	}
	return &client.ReadResourceResult{Contents: contents}, nil
}

func (s *mcpGoSession) SubscribeResource(ctx context.Context, uri string) error {
	req := mcp.SubscribeRequest{}
	req.Params.URI = uri
	return s.translateErr(s.h.Client.Subscribe(ctx, req))
}

func (s *mcpGoSession) UnsubscribeResource(ctx context.Context, uri string) error {
	req := mcp.UnsubscribeRequest{}
	req.Params.URI = uri
	return s.translateErr(s.h.Client.Unsubscribe(ctx, req))
}

func (s *mcpGoSession) CallTool(ctx context.Context, name string, arguments map[string]any) (*client.CallToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = arguments

	res, err := s.h.Client.CallTool(ctx, req)
	if err != nil {
		return nil, s.translateErr(err)
	}
	content := make([]client.ContentBlock, 0, len(res.Content))
	for _, c := range res.Content {
		content = append(content, toContentBlock(c))
	}
	return &client.CallToolResult{Content: content, IsError: res.IsError}, nil
}

func (s *mcpGoSession) SetLoggingLevel(ctx context.Context, level string) error {
	req := mcp.SetLevelRequest{}
	req.Params.Level = mcp.LoggingLevel(level)
	return s.translateErr(s.h.Client.SetLevel(ctx, req))
}

func (s *mcpGoSession) Complete(ctx context.Context, ref client.CompletionRef, argumentName, argumentValue string) (*client.CompletionResult, error) {
	req := mcp.CompleteRequest{}
	req.Params.Ref = mcp.CompleteReference{Type: ref.Kind, Name: ref.Name}
	req.Params.Argument.Name = argumentName
	req.Params.Argument.Value = argumentValue

	res, err := s.h.Client.Complete(ctx, req)
	if err != nil {
		return nil, s.translateErr(err)
	}
	return &client.CompletionResult{Values: res.Completion.Values, Total: res.Completion.Total, HasMore: res.Completion.HasMore}, nil
}

func (s *mcpGoSession) SendProgressNotification(ctx context.Context, token string, progress float64, total *float64) error {
	return s.translateErr(s.h.Client.SendNotification(ctx, mcp.JSONRPCNotification{
		Notification: mcp.Notification{
			Method: "notifications/progress",
			Params: mcp.NotificationParams{
				AdditionalFields: progressParams(ctx, token, progress, total),
			},
		},
	}))
}

// progressParams builds the progress notification payload, stamping the
// proxy wrapper's per-call correlation ID (if any) alongside the progress
// token so a single call's notifications can be traced end to end.
func progressParams(ctx context.Context, token string, progress float64, total *float64) map[string]any {
	fields := map[string]any{"progressToken": token, "progress": progress}
	if total != nil {
		fields["total"] = *total
	}
	if id := client.CorrelationID(ctx); id != "" {
		fields["correlationId"] = id
	}
	return fields
}

func toContentBlock(c mcp.Content) client.ContentBlock {
	switch v := c.(type) {
	case mcp.TextContent:
		return client.ContentBlock{Type: "text", Text: v.Text}
	case mcp.ImageContent:
		return client.ContentBlock{Type: "image", MIMEType: v.MIMEType, Raw: []byte(v.Data)}
	case mcp.EmbeddedResource:
		return client.ContentBlock{Type: "resource"}
	default:
		return client.ContentBlock{Type: "unknown"}
	}
}

// translateErr wraps a raw mcp-go error into mcpweave's taxonomy. mcp-go
// surfaces JSON-RPC errors as *mcp.JSONRPCErrorDetails-shaped errors, which
// become ProtocolErrors. Session-loss text inside a successful-looking tool
// error result is not examined here; the proxy wrapper checks for it
// (spec §4.3 point 4).
//
// A generic (non-JSON-RPC) error falls back to the HTTP status the
// transport's RoundTripper most recently observed, so a true non-retryable
// 5xx still propagates as such instead of defaulting to "unknown status,
// retryable" (spec §4.3: only [400,500) ∪ {503} retries; other 5xx bypass
// the retry loop). Non-HTTP handles (stdio) never record a status, so the
// hint is always 0 there and the prior forced-retryable behaviour is
// unchanged.
func (s *mcpGoSession) translateErr(err error) error {
	if err == nil {
		return nil
	}
	if jsonRPCErr, ok := err.(*mcp.JSONRPCErrorDetails); ok {
		return client.NewProtocolError(jsonRPCErr.Code, jsonRPCErr.Message, err)
	}
	return client.NewTransportError(s.h.takeStatusHint(), err)
}
