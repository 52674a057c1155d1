package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools adds one read-only tool per activity stream.
func registerTools(server *sdkmcp.Server, h *Handler) {
	readOnly := &sdkmcp.ToolAnnotations{ReadOnlyHint: true}

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "user_activity",
		Description: "List the activity a user produced, newest first. Empty when the profile is not visible to you.",
		Annotations: readOnly,
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, args UserActivityParams) (*sdkmcp.CallToolResult, StreamResponse, error) {
		return result(h.UserActivity(ctx, getViewer(ctx), args))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "video_activity",
		Description: "List a video's history, optionally as seen by one team. Private move events are never included.",
		Annotations: readOnly,
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, args VideoActivityParams) (*sdkmcp.CallToolResult, StreamResponse, error) {
		return result(h.VideoActivity(ctx, getViewer(ctx), args))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "team_activity",
		Description: "List a team's video activity (stream=video) or membership activity (stream=team), with optional type and language filters.",
		Annotations: readOnly,
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, args TeamActivityParams) (*sdkmcp.CallToolResult, StreamResponse, error) {
		return result(h.TeamActivity(ctx, getViewer(ctx), args))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "activity_feed",
		Description: "List your own activity merged with the activity of every team you belong to. Empty when anonymous.",
		Annotations: readOnly,
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, args FeedParams) (*sdkmcp.CallToolResult, StreamResponse, error) {
		return result(h.Feed(ctx, getViewer(ctx), args))
	})
}

// result adapts a handler response to a typed tool result. Errors become
// tool errors carrying the mapped error code.
func result(resp *StreamResponse, err error) (*sdkmcp.CallToolResult, StreamResponse, error) {
	if err != nil {
		return nil, StreamResponse{}, err
	}
	return nil, *resp, nil
}
