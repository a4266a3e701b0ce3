package mcp

import "github.com/mark3labs/mcp-go/mcp"

// matterStatusTool defines the matter_status MCP tool.
var matterStatusTool = mcp.NewTool("matter_status",
	mcp.WithDescription("Get the current formation stage, checklist, and case brief for a matter."),
	mcp.WithString("organization_id",
		mcp.Required(),
		mcp.Description("Organization the matter belongs to"),
	),
	mcp.WithString("matter_id",
		mcp.Required(),
		mcp.Description("Matter identifier"),
	),
)

// matterChecklistTool defines the matter_checklist MCP tool.
var matterChecklistTool = mcp.NewTool("matter_checklist",
	mcp.WithDescription("Get the current stage checklist for a matter, including which required items are still pending."),
	mcp.WithString("organization_id",
		mcp.Required(),
		mcp.Description("Organization the matter belongs to"),
	),
	mcp.WithString("matter_id",
		mcp.Required(),
		mcp.Description("Matter identifier"),
	),
)

// advanceMatterTool defines the advance_matter MCP tool.
var advanceMatterTool = mcp.NewTool("advance_matter",
	mcp.WithDescription("Apply a formation event to a matter. Pass either a plain-text client message or a full event JSON body."),
	mcp.WithString("organization_id",
		mcp.Required(),
		mcp.Description("Organization the matter belongs to"),
	),
	mcp.WithString("matter_id",
		mcp.Required(),
		mcp.Description("Matter identifier"),
	),
	mcp.WithString("message",
		mcp.Description("Client message, applied as a user_input event"),
	),
	mcp.WithString("event",
		mcp.Description("Full event JSON with type and payload, used instead of message when provided"),
	),
	mcp.WithString("idempotency_key",
		mcp.Description("Optional idempotency key; repeating it replays the original response"),
	),
)

// matterSummaryTool defines the matter_summary MCP tool.
var matterSummaryTool = mcp.NewTool("matter_summary",
	mcp.WithDescription("Get the generated case summary document for a matter as Markdown."),
	mcp.WithString("organization_id",
		mcp.Required(),
		mcp.Description("Organization the matter belongs to"),
	),
	mcp.WithString("matter_id",
		mcp.Required(),
		mcp.Description("Matter identifier"),
	),
)
