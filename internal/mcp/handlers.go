package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lawdesk/matterflow/internal/actor"
	"github.com/lawdesk/matterflow/internal/authz"
	"github.com/lawdesk/matterflow/internal/matter"
	"github.com/lawdesk/matterflow/internal/present"
)

// localIdentity scopes a stdio call to the named organization.
func localIdentity(orgID string) *authz.Identity {
	return &authz.Identity{
		TokenID:        "mcp",
		Name:           "mcp",
		OrganizationID: orgID,
		Scope:          authz.ScopeAdmin,
	}
}

func requireMatterParams(request mcp.CallToolRequest) (orgID, matterID string, errResult *mcp.CallToolResult) {
	orgID, err := request.RequireString("organization_id")
	if err != nil {
		return "", "", mcp.NewToolResultError("missing required parameter: organization_id")
	}
	matterID, err = request.RequireString("matter_id")
	if err != nil {
		return "", "", mcp.NewToolResultError("missing required parameter: matter_id")
	}
	return orgID, matterID, nil
}

// handleMatterStatus returns the full response view of a matter.
func (s *Server) handleMatterStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orgID, matterID, errResult := requireMatterParams(request)
	if errResult != nil {
		return errResult, nil
	}

	resp, err := s.actor.Status(ctx, localIdentity(orgID), orgID, matterID)
	if err != nil {
		if errors.Is(err, actor.ErrNotFound) {
			return mcp.NewToolResultText("No formation state yet for this matter. Apply an event with advance_matter to start intake."), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}

	return jsonResult(resp)
}

// handleMatterChecklist returns the current checklist.
func (s *Server) handleMatterChecklist(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orgID, matterID, errResult := requireMatterParams(request)
	if errResult != nil {
		return errResult, nil
	}

	resp, err := s.actor.Status(ctx, localIdentity(orgID), orgID, matterID)
	if err != nil {
		if errors.Is(err, actor.ErrNotFound) {
			return mcp.NewToolResultText("No formation state yet for this matter."), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("checklist failed: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"checklist": resp.Checklist,
		"stage":     resp.Stage,
		"completed": resp.Completed,
	})
}

// handleAdvanceMatter applies one event to a matter.
func (s *Server) handleAdvanceMatter(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orgID, matterID, errResult := requireMatterParams(request)
	if errResult != nil {
		return errResult, nil
	}

	var ev matter.Event
	if raw := request.GetString("event", ""); raw != "" {
		ev = matter.ParseEvent([]byte(raw))
	} else if msg := request.GetString("message", ""); msg != "" {
		ev = matter.Event{
			Type:      matter.EventUserInput,
			UserInput: &matter.UserInputPayload{Message: msg},
		}
	} else {
		return mcp.NewToolResultError("either message or event is required"), nil
	}

	ev.OrganizationID = orgID
	ev.MatterID = matterID
	if key := request.GetString("idempotency_key", ""); key != "" {
		ev.IdempotencyKey = key
	}

	resp, err := s.actor.Advance(ctx, localIdentity(orgID), orgID, matterID, ev)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("advance failed: %v", err)), nil
	}

	return jsonResult(resp)
}

// handleMatterSummary renders the Markdown case summary.
func (s *Server) handleMatterSummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orgID, matterID, errResult := requireMatterParams(request)
	if errResult != nil {
		return errResult, nil
	}

	state, err := s.actor.State(ctx, localIdentity(orgID), orgID, matterID)
	if err != nil {
		if errors.Is(err, actor.ErrNotFound) {
			return mcp.NewToolResultText("No formation state yet for this matter."), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("summary failed: %v", err)), nil
	}
	if state.CaseBrief == nil {
		return mcp.NewToolResultText("This matter has no case brief yet."), nil
	}

	return mcp.NewToolResultText(present.Summary(state.CaseBrief)), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
