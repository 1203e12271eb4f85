package server

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mcpweave/mcpweave/pkg/bridge/client"
)

func toMCPCallToolResult(res *client.CallToolResult) *mcp.CallToolResult {
	if res == nil {
		return &mcp.CallToolResult{}
	}
	return &mcp.CallToolResult{IsError: res.IsError, Content: toMCPContents(res.Content)}
}

func toMCPContents(blocks []client.ContentBlock) []mcp.Content {
	out := make([]mcp.Content, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case "image":
			out = append(out, mcp.ImageContent{Type: "image", MIMEType: b.MIMEType, Data: string(b.Raw)})
		case "resource":
			out = append(out, mcp.TextContent{Type: "text", Text: b.Text})
		default:
			out = append(out, mcp.TextContent{Type: "text", Text: b.Text})
		}
	}
	return out
}

func toMCPResourceContents(res *client.ReadResourceResult) []mcp.ResourceContents {
	if res == nil {
		return nil
	}
	out := make([]mcp.ResourceContents, 0, len(res.Contents))
	for _, c := range res.Contents {
		if len(c.Blob) > 0 {
			out = append(out, mcp.BlobResourceContents{URI: c.URI, MIMEType: c.MIMEType, Blob: string(c.Blob)})
			continue
		}
		out = append(out, mcp.TextResourceContents{URI: c.URI, MIMEType: c.MIMEType, Text: c.Text})
	}
	return out
}

func toMCPPromptArguments(args []client.PromptArgument) []mcp.PromptArgument {
	out := make([]mcp.PromptArgument, 0, len(args))
	for _, a := range args {
		out = append(out, mcp.PromptArgument{Name: a.Name, Description: a.Description, Required: a.Required})
	}
	return out
}

func toMCPGetPromptResult(res *client.GetPromptResult) *mcp.GetPromptResult {
	if res == nil {
		return &mcp.GetPromptResult{}
	}
	messages := make([]mcp.PromptMessage, 0, len(res.Messages))
	for _, m := range res.Messages {
		content := toMCPContents([]client.ContentBlock{m.Content})
		var c mcp.Content
		if len(content) > 0 {
			c = content[0]
		}
		messages = append(messages, mcp.PromptMessage{Role: mcp.Role(m.Role), Content: c})
	}
	return &mcp.GetPromptResult{Description: res.Description, Messages: messages}
}
