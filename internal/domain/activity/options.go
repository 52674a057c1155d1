package activity

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StreamKind selects a team sub-view.
type StreamKind string

const (
	// StreamVideo is team_video_activity: every kind except membership.
	StreamVideo StreamKind = "video"
	// StreamTeam is team_activity: membership kinds only.
	StreamTeam StreamKind = "team"
)

const (
	SortNewest = "-created"
	SortOldest = "created"
)

// PageOptions selects a window of a stream. Cursor takes precedence over Offset.
type PageOptions struct {
	Limit  int
	Offset int
	Cursor string
}

// TeamFilter narrows a team stream.
type TeamFilter struct {
	Type              Kind
	LanguageCode      string
	VideoLanguageCode string
	Sort              string
}

// Page is one window of a stream. NextCursor is empty on the last page.
type Page struct {
	Records    []Record `json:"records"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// Cursor is a keyset position in (created, id) order.
type Cursor struct {
	Created time.Time
	ID      int64
}

// EncodeCursor returns the opaque form of c.
func EncodeCursor(c Cursor) string {
	raw := strconv.FormatInt(c.Created.UnixMicro(), 10) + ":" + strconv.FormatInt(c.ID, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses an opaque cursor.
func DecodeCursor(s string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: cursor: %v", ErrInvalidInput, err)
	}
	created, id, ok := strings.Cut(string(raw), ":")
	if !ok {
		return Cursor{}, fmt.Errorf("%w: cursor: malformed", ErrInvalidInput)
	}
	micros, err := strconv.ParseInt(created, 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: cursor: %v", ErrInvalidInput, err)
	}
	recID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: cursor: %v", ErrInvalidInput, err)
	}
	return Cursor{Created: time.UnixMicro(micros).UTC(), ID: recID}, nil
}

// FeedScope selects a viewer feed: the user's own originals plus every
// record of the given teams, restricted to AllowedTeamIDs unless Unrestricted.
type FeedScope struct {
	UserID         int64
	TeamIDs        []int64
	AllowedTeamIDs []int64
	Unrestricted   bool
}

// Query is the store-level filter every stream compiles to.
type Query struct {
	UserID            *int64
	VideoID           *int64
	TeamID            *int64
	Feed              *FeedScope
	OriginalsOnly     bool
	ExcludePrivate    bool
	Types             []Kind
	ExcludeTypes      []Kind
	LanguageCode      string
	VideoLanguageCode string
	Ascending         bool
	After             *Cursor
	Limit             int
	Offset            int
}

// cacheKey is a stable string form of q for stream caching.
func (q Query) cacheKey() string {
	var b strings.Builder
	fmt.Fprintf(&b, "u=%s|v=%s|t=%s|o=%t|p=%t|types=%v|xtypes=%v|l=%s|vl=%s|asc=%t|lim=%d|off=%d",
		fmtID(q.UserID), fmtID(q.VideoID), fmtID(q.TeamID), q.OriginalsOnly, q.ExcludePrivate,
		q.Types, q.ExcludeTypes, q.LanguageCode, q.VideoLanguageCode, q.Ascending, q.Limit, q.Offset)
	if q.After != nil {
		fmt.Fprintf(&b, "|after=%d:%d", q.After.Created.UnixMicro(), q.After.ID)
	}
	if q.Feed != nil {
		fmt.Fprintf(&b, "|feed=%d:%v:%v:%t", q.Feed.UserID, q.Feed.TeamIDs, q.Feed.AllowedTeamIDs, q.Feed.Unrestricted)
	}
	return b.String()
}

func fmtID(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}
