package activity

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpggio/captionlog/internal/domain/platform"
	"github.com/rpggio/captionlog/internal/repository"
)

// SideDataKind names the variant a record's related_obj_id points at.
type SideDataKind string

const (
	SideDataNone          SideDataKind = ""
	SideDataVideoDeletion SideDataKind = "video-deletion"
	SideDataURLEdit       SideDataKind = "url-edit"
	SideDataRoleCode      SideDataKind = "role-code"
	SideDataCommentRef    SideDataKind = "comment-ref"
	SideDataTeamRef       SideDataKind = "team-ref"
)

// SideData is the small payload an event kind owns.
type SideData interface {
	SideDataKind() SideDataKind
}

// VideoDeletion snapshots a video at deletion time so the message survives
// the video row vanishing.
type VideoDeletion struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// URLEdit holds the old and new URL of an add, edit or delete.
type URLEdit struct {
	OldURL string `json:"old_url"`
	NewURL string `json:"new_url"`
}

// RoleCode is the compact encoding of a team role. Stored inline.
type RoleCode struct {
	Code int64 `json:"code"`
}

// CommentRef points at a comment row of the comment store. Stored inline.
type CommentRef struct {
	CommentID int64 `json:"comment_id"`
}

// TeamRef names the peer team of a move. TeamID 0 means no team. Stored inline.
type TeamRef struct {
	TeamID int64 `json:"team_id"`
}

// Tombstone stands in for side-data whose row no longer exists.
type Tombstone struct {
	Of SideDataKind `json:"of"`
}

func (VideoDeletion) SideDataKind() SideDataKind { return SideDataVideoDeletion }
func (URLEdit) SideDataKind() SideDataKind       { return SideDataURLEdit }
func (RoleCode) SideDataKind() SideDataKind      { return SideDataRoleCode }
func (CommentRef) SideDataKind() SideDataKind    { return SideDataCommentRef }
func (TeamRef) SideDataKind() SideDataKind       { return SideDataTeamRef }
func (t Tombstone) SideDataKind() SideDataKind   { return t.Of }

var roleCodes = map[platform.Role]int64{
	platform.RoleOwner:                    1,
	platform.RoleAdmin:                    2,
	platform.RoleManager:                  3,
	platform.RoleContributor:              4,
	platform.RoleProjectOrLanguageManager: 5,
}

// RoleCodeFor encodes a team role. Unknown roles encode as contributor.
func RoleCodeFor(role platform.Role) RoleCode {
	if code, ok := roleCodes[role]; ok {
		return RoleCode{Code: code}
	}
	return RoleCode{Code: roleCodes[platform.RoleContributor]}
}

// Role decodes the role. Unknown codes decode to the empty role.
func (c RoleCode) Role() platform.Role {
	for role, code := range roleCodes {
		if code == c.Code {
			return role
		}
	}
	return ""
}

// TeamRefFor builds a TeamRef; a nil id becomes the no-team reference.
func TeamRefFor(teamID *int64) TeamRef {
	if teamID == nil {
		return TeamRef{}
	}
	return TeamRef{TeamID: *teamID}
}

// SideDataStore persists side-data variants. Table-backed variants go
// through the repository, inline variants are encoded into the id itself.
type SideDataStore struct {
	repo SideDataRepository
}

// NewSideDataStore wraps a side-data repository.
func NewSideDataStore(repo SideDataRepository) SideDataStore {
	return SideDataStore{repo: repo}
}

// Create stores data and returns the id a record references.
func (s SideDataStore) Create(ctx context.Context, data SideData) (int64, error) {
	switch d := data.(type) {
	case VideoDeletion:
		id, err := s.repo.CreateVideoDeletion(ctx, d)
		if err != nil {
			return 0, &StorageError{Op: "create video deletion", Err: err}
		}
		return id, nil
	case URLEdit:
		id, err := s.repo.CreateURLEdit(ctx, d)
		if err != nil {
			return 0, &StorageError{Op: "create url edit", Err: err}
		}
		return id, nil
	case RoleCode:
		return d.Code, nil
	case CommentRef:
		return d.CommentID, nil
	case TeamRef:
		return d.TeamID, nil
	default:
		return 0, fmt.Errorf("%w: unsupported side-data %T", ErrInvalidInput, data)
	}
}

// Get loads the side-data of the given kind. A row that no longer exists
// yields a Tombstone together with ErrMissingSideData.
func (s SideDataStore) Get(ctx context.Context, kind SideDataKind, id int64) (SideData, error) {
	switch kind {
	case SideDataVideoDeletion:
		d, err := s.repo.GetVideoDeletion(ctx, id)
		if err != nil {
			return s.missing(kind, err)
		}
		return *d, nil
	case SideDataURLEdit:
		e, err := s.repo.GetURLEdit(ctx, id)
		if err != nil {
			return s.missing(kind, err)
		}
		return *e, nil
	case SideDataRoleCode:
		return RoleCode{Code: id}, nil
	case SideDataCommentRef:
		return CommentRef{CommentID: id}, nil
	case SideDataTeamRef:
		return TeamRef{TeamID: id}, nil
	default:
		return nil, fmt.Errorf("%w: side-data kind %q", ErrInvalidInput, kind)
	}
}

func (s SideDataStore) missing(kind SideDataKind, err error) (SideData, error) {
	if errors.Is(err, repository.ErrNotFound) {
		return Tombstone{Of: kind}, ErrMissingSideData
	}
	return nil, &StorageError{Op: "get " + string(kind), Err: err}
}
