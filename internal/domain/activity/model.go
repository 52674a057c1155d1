package activity

import "time"

// Kind is the wire-stable tag stored in a record's type column.
type Kind string

const (
	KindVideoAdded             Kind = "video-added"
	KindVideoTitleChanged      Kind = "video-title-changed"
	KindCommentAdded           Kind = "comment-added"
	KindVersionAdded           Kind = "version-added"
	KindVideoURLAdded          Kind = "video-url-added"
	KindTranslationAdded       Kind = "translation-added"
	KindSubtitleRequestCreated Kind = "subtitle-request-created"
	KindVersionApproved        Kind = "version-approved"
	KindVersionAccepted        Kind = "version-accepted"
	KindVersionRejected        Kind = "version-rejected"
	KindVersionDeclined        Kind = "version-declined"
	KindVersionReviewed        Kind = "version-reviewed"
	KindMemberJoined           Kind = "member-joined"
	KindMemberLeft             Kind = "member-left"
	KindVideoDeleted           Kind = "video-deleted"
	KindVideoURLEdited         Kind = "video-url-edited"
	KindVideoURLDeleted        Kind = "video-url-deleted"
	KindVideoMovedToTeam       Kind = "video-moved-to-team"
	KindVideoMovedFromTeam     Kind = "video-moved-from-team"
)

// Record is one row of the activity log.
type Record struct {
	ID                int64     `json:"id"`
	Type              Kind      `json:"type"`
	UserID            *int64    `json:"user_id,omitempty"`
	VideoID           *int64    `json:"video_id,omitempty"`
	VideoLanguageCode string    `json:"video_language_code,omitempty"`
	TeamID            *int64    `json:"team_id,omitempty"`
	LanguageCode      string    `json:"language_code,omitempty"`
	RelatedObjID      *int64    `json:"related_obj_id,omitempty"`
	Created           time.Time `json:"created"`
	CopiedFromID      *int64    `json:"copied_from_id,omitempty"`
	PrivateToTeam     bool      `json:"private_to_team"`
}

// IsCopy reports whether the record was produced by a move to preserve a
// former team's view.
func (r *Record) IsCopy() bool {
	return r.CopiedFromID != nil
}

// copyFor returns a copy of r tagged with teamID and pointing back at r.
func (r *Record) copyFor(teamID *int64) *Record {
	c := *r
	c.ID = 0
	c.TeamID = cloneID(teamID)
	c.CopiedFromID = idPtr(r.ID)
	return &c
}

// OriginalKey identifies the tuple for which at most one original exists.
type OriginalKey struct {
	VideoID      *int64
	Type         Kind
	LanguageCode string
	Created      time.Time
	UserID       *int64
}

func idPtr(id int64) *int64 {
	return &id
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
