package mcp

import (
	"time"

	"github.com/rpggio/captionlog/internal/domain/activity"
)

func pageOptions(limit, offset int, cursor string) activity.PageOptions {
	return activity.PageOptions{Limit: limit, Offset: offset, Cursor: cursor}
}

type UserActivityParams struct {
	UserID int64  `json:"user_id" jsonschema:"User whose own activity to list"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of entries (default 20, capped at the server maximum)"`
	Offset int    `json:"offset,omitempty" jsonschema:"Entries to skip; ignored when cursor is set"`
	Cursor string `json:"cursor,omitempty" jsonschema:"Opaque next_cursor from a previous page"`
	Locale string `json:"locale,omitempty" jsonschema:"Locale for rendered messages, e.g. fr or pt-BR"`
}

type VideoActivityParams struct {
	VideoID int64  `json:"video_id" jsonschema:"Video whose history to list"`
	TeamID  *int64 `json:"team_id,omitempty" jsonschema:"Show the history as seen by this team, copies included"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of entries (default 20, capped at the server maximum)"`
	Offset  int    `json:"offset,omitempty" jsonschema:"Entries to skip; ignored when cursor is set"`
	Cursor  string `json:"cursor,omitempty" jsonschema:"Opaque next_cursor from a previous page"`
	Locale  string `json:"locale,omitempty" jsonschema:"Locale for rendered messages, e.g. fr or pt-BR"`
}

type TeamActivityParams struct {
	TeamID            int64  `json:"team_id" jsonschema:"Team whose stream to list"`
	Stream            string `json:"stream,omitempty" jsonschema:"video (default) for video activity, team for membership activity"`
	Type              string `json:"type,omitempty" jsonschema:"Only this activity type, e.g. version-added"`
	LanguageCode      string `json:"language_code,omitempty" jsonschema:"Only activity on this subtitle language"`
	VideoLanguageCode string `json:"video_language_code,omitempty" jsonschema:"Only activity on videos with this primary audio language"`
	Sort              string `json:"sort,omitempty" jsonschema:"-created (default) or created"`
	Limit             int    `json:"limit,omitempty" jsonschema:"Maximum number of entries (default 20, capped at the server maximum)"`
	Offset            int    `json:"offset,omitempty" jsonschema:"Entries to skip; ignored when cursor is set"`
	Cursor            string `json:"cursor,omitempty" jsonschema:"Opaque next_cursor from a previous page"`
	Locale            string `json:"locale,omitempty" jsonschema:"Locale for rendered messages, e.g. fr or pt-BR"`
}

type FeedParams struct {
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of entries (default 20, capped at the server maximum)"`
	Offset int    `json:"offset,omitempty" jsonschema:"Entries to skip; ignored when cursor is set"`
	Cursor string `json:"cursor,omitempty" jsonschema:"Opaque next_cursor from a previous page"`
	Locale string `json:"locale,omitempty" jsonschema:"Locale for rendered messages, e.g. fr or pt-BR"`
}

// ActivityItem is one rendered record.
type ActivityItem struct {
	ID           int64  `json:"id"`
	Type         string `json:"type"`
	Created      string `json:"created"`
	UserID       *int64 `json:"user_id,omitempty"`
	VideoID      *int64 `json:"video_id,omitempty"`
	TeamID       *int64 `json:"team_id,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	Copied       bool   `json:"copied,omitempty"`
	HTML         string `json:"html"`
	Text         string `json:"text"`
}

// StreamResponse is one page of rendered activity.
type StreamResponse struct {
	Items      []ActivityItem `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// KindResponse describes one registered activity type.
type KindResponse struct {
	Slug          string `json:"slug"`
	Label         string `json:"label"`
	Active        bool   `json:"active"`
	SideData      string `json:"side_data,omitempty"`
	TeamActivity  bool   `json:"team_activity,omitempty"`
	PrivateToTeam bool   `json:"private_to_team,omitempty"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
