package mcp

import (
	"context"
	"io"
	"log/slog"

	"github.com/rpggio/captionlog/internal/domain/activity"
	"github.com/rpggio/captionlog/internal/domain/platform"
)

// StreamService defines the read operations needed by MCP.
type StreamService interface {
	ForUser(ctx context.Context, userID int64, viewer *platform.User, page activity.PageOptions) (*activity.Page, error)
	ForVideo(ctx context.Context, videoID int64, viewer *platform.User, teamID *int64, page activity.PageOptions) (*activity.Page, error)
	ForTeam(ctx context.Context, teamID int64, viewer *platform.User, kind activity.StreamKind, filter activity.TeamFilter, page activity.PageOptions) (*activity.Page, error)
	FeedForViewer(ctx context.Context, viewer *platform.User, page activity.PageOptions) (*activity.Page, error)
}

// MessageRenderer renders records for a viewer.
type MessageRenderer interface {
	Render(ctx context.Context, rec *activity.Record, viewer *platform.User, locale string) string
	RenderText(ctx context.Context, rec *activity.Record, viewer *platform.User, locale string) string
}

// Handler serves activity streams as rendered pages.
type Handler struct {
	streams  StreamService
	renderer MessageRenderer
	logger   *slog.Logger
}

// NewHandler creates a new MCP handler.
func NewHandler(streams StreamService, renderer MessageRenderer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{streams: streams, renderer: renderer, logger: logger}
}

func (h *Handler) UserActivity(ctx context.Context, viewer *platform.User, req UserActivityParams) (*StreamResponse, error) {
	page, err := h.streams.ForUser(ctx, req.UserID, viewer, pageOptions(req.Limit, req.Offset, req.Cursor))
	if err != nil {
		return nil, mapError(err)
	}
	return h.render(ctx, page, viewer, req.Locale), nil
}

func (h *Handler) VideoActivity(ctx context.Context, viewer *platform.User, req VideoActivityParams) (*StreamResponse, error) {
	page, err := h.streams.ForVideo(ctx, req.VideoID, viewer, req.TeamID, pageOptions(req.Limit, req.Offset, req.Cursor))
	if err != nil {
		return nil, mapError(err)
	}
	return h.render(ctx, page, viewer, req.Locale), nil
}

func (h *Handler) TeamActivity(ctx context.Context, viewer *platform.User, req TeamActivityParams) (*StreamResponse, error) {
	filter := activity.TeamFilter{
		Type:              activity.Kind(req.Type),
		LanguageCode:      req.LanguageCode,
		VideoLanguageCode: req.VideoLanguageCode,
		Sort:              req.Sort,
	}
	page, err := h.streams.ForTeam(ctx, req.TeamID, viewer, activity.StreamKind(req.Stream), filter, pageOptions(req.Limit, req.Offset, req.Cursor))
	if err != nil {
		return nil, mapError(err)
	}
	return h.render(ctx, page, viewer, req.Locale), nil
}

func (h *Handler) Feed(ctx context.Context, viewer *platform.User, req FeedParams) (*StreamResponse, error) {
	page, err := h.streams.FeedForViewer(ctx, viewer, pageOptions(req.Limit, req.Offset, req.Cursor))
	if err != nil {
		return nil, mapError(err)
	}
	return h.render(ctx, page, viewer, req.Locale), nil
}

// Kinds lists the registry.
func (h *Handler) Kinds() []KindResponse {
	descs := activity.Kinds().Descriptors()
	out := make([]KindResponse, 0, len(descs))
	for _, d := range descs {
		out = append(out, KindResponse{
			Slug:          string(d.Slug),
			Label:         d.Label,
			Active:        d.Active,
			SideData:      string(d.SideData),
			TeamActivity:  d.TeamActivity,
			PrivateToTeam: d.PrivateToTeam,
		})
	}
	return out
}

func (h *Handler) render(ctx context.Context, page *activity.Page, viewer *platform.User, locale string) *StreamResponse {
	resp := &StreamResponse{Items: make([]ActivityItem, 0, len(page.Records)), NextCursor: page.NextCursor}
	for i := range page.Records {
		rec := &page.Records[i]
		resp.Items = append(resp.Items, ActivityItem{
			ID:           rec.ID,
			Type:         string(rec.Type),
			Created:      formatTime(rec.Created),
			UserID:       rec.UserID,
			VideoID:      rec.VideoID,
			TeamID:       rec.TeamID,
			LanguageCode: rec.LanguageCode,
			Copied:       rec.IsCopy(),
			HTML:         h.renderer.Render(ctx, rec, viewer, locale),
			Text:         h.renderer.RenderText(ctx, rec, viewer, locale),
		})
	}
	h.logger.DebugContext(ctx, "stream served", "items", len(resp.Items), "more", resp.NextCursor != "")
	return resp
}
