package proxy

import (
	"context"
	"strings"

	"github.com/mcpweave/mcpweave/pkg/bridge/client"
)

// Wrapper satisfies client.Session, decorating every operation with the
// retry policy from run(). Close and the Rebuildable passthroughs
// (SupportsRebuild, Rebuild) bypass the retry loop: they are plumbing, not
// remote calls.
var _ client.Session = (*Wrapper)(nil)

func (w *Wrapper) Initialize(ctx context.Context) (*client.InitializeResult, error) {
	return run(ctx, w, "initialize", nil, w.session.Initialize)
}

func (w *Wrapper) ListTools(ctx context.Context) ([]client.Tool, error) {
	return run(ctx, w, "list_tools", nil, w.session.ListTools)
}

func (w *Wrapper) ListResources(ctx context.Context) ([]client.Resource, error) {
	return run(ctx, w, "list_resources", nil, w.session.ListResources)
}

func (w *Wrapper) ListResourceTemplates(ctx context.Context) ([]client.ResourceTemplate, error) {
	return run(ctx, w, "list_resource_templates", nil, w.session.ListResourceTemplates)
}

func (w *Wrapper) ListPrompts(ctx context.Context) ([]client.Prompt, error) {
	return run(ctx, w, "list_prompts", nil, w.session.ListPrompts)
}

func (w *Wrapper) GetPrompt(ctx context.Context, name string, arguments map[string]string) (*client.GetPromptResult, error) {
	return run(ctx, w, "get_prompt", nil, func(ctx context.Context) (*client.GetPromptResult, error) {
		return w.session.GetPrompt(ctx, name, arguments)
	})
}

func (w *Wrapper) ReadResource(ctx context.Context, uri string) (*client.ReadResourceResult, error) {
	return run(ctx, w, "read_resource", nil, func(ctx context.Context) (*client.ReadResourceResult, error) {
		return w.session.ReadResource(ctx, uri)
	})
}

func (w *Wrapper) SubscribeResource(ctx context.Context, uri string) error {
	_, err := run(ctx, w, "subscribe_resource", nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, w.session.SubscribeResource(ctx, uri)
	})
	return err
}

func (w *Wrapper) UnsubscribeResource(ctx context.Context, uri string) error {
	_, err := run(ctx, w, "unsubscribe_resource", nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, w.session.UnsubscribeResource(ctx, uri)
	})
	return err
}

// CallTool is the only operation with a result-retryable path (spec §4.3
// point 4): an is_error:true reply whose text carries a session-loss marker
// is treated as retryable even though no exception was raised.
func (w *Wrapper) CallTool(ctx context.Context, name string, arguments map[string]any) (*client.CallToolResult, error) {
	res, err := run(ctx, w, "call_tool", isSessionLossResult, func(ctx context.Context) (*client.CallToolResult, error) {
		return w.session.CallTool(ctx, name, arguments)
	})
	if err != nil {
		return &client.CallToolResult{
			IsError: true,
			Content: []client.ContentBlock{{Type: "text", Text: "tool call failed: " + err.Error()}},
		}, nil
	}
	return res, nil
}

func isSessionLossResult(res *client.CallToolResult) bool {
	if res == nil || !res.IsError {
		return false
	}
	var text strings.Builder
	for _, c := range res.Content {
		text.WriteString(c.Text)
	}
	return client.IsSessionLossText(text.String())
}

func (w *Wrapper) SetLoggingLevel(ctx context.Context, level string) error {
	_, err := run(ctx, w, "set_logging_level", nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, w.session.SetLoggingLevel(ctx, level)
	})
	return err
}

func (w *Wrapper) Complete(ctx context.Context, ref client.CompletionRef, argumentName, argumentValue string) (*client.CompletionResult, error) {
	return run(ctx, w, "complete", nil, func(ctx context.Context) (*client.CompletionResult, error) {
		return w.session.Complete(ctx, ref, argumentName, argumentValue)
	})
}

func (w *Wrapper) SendProgressNotification(ctx context.Context, token string, progress float64, total *float64) error {
	_, err := run(ctx, w, "send_progress_notification", nil, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, w.session.SendProgressNotification(ctx, token, progress, total)
	})
	return err
}

func (w *Wrapper) Close() error { return w.session.Close() }

func (w *Wrapper) SupportsRebuild() bool {
	rb, ok := w.session.(client.Rebuildable)
	return ok && rb.SupportsRebuild()
}

func (w *Wrapper) Rebuild(ctx context.Context) error {
	rb, ok := w.session.(client.Rebuildable)
	if !ok {
		return client.NewConfigError("backend does not support rebuild", nil)
	}
	return rb.Rebuild(ctx)
}
