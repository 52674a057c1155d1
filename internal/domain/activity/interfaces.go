package activity

import (
	"context"

	"github.com/rpggio/captionlog/internal/domain/platform"
)

// RecordRepository provides persistence for activity records.
type RecordRepository interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id int64) (*Record, error)
	FindOriginal(ctx context.Context, key OriginalKey) (*Record, error)
	List(ctx context.Context, q Query) ([]Record, error)
	ListMovable(ctx context.Context, videoID int64, teamID *int64) ([]Record, error)
	UpdateTeam(ctx context.Context, id int64, teamID *int64) error
	DeleteCopies(ctx context.Context, originalID int64, teamID *int64) (int64, error)
	TeamsForUser(ctx context.Context, userID int64) ([]int64, error)
}

// SideDataRepository provides persistence for table-backed side-data.
type SideDataRepository interface {
	CreateVideoDeletion(ctx context.Context, d VideoDeletion) (int64, error)
	GetVideoDeletion(ctx context.Context, id int64) (*VideoDeletion, error)
	CreateURLEdit(ctx context.Context, e URLEdit) (int64, error)
	GetURLEdit(ctx context.Context, id int64) (*URLEdit, error)
}

// Store groups the repositories and runs units of work atomically.
type Store interface {
	Records() RecordRepository
	SideData() SideDataRepository
	// InTx runs fn against a transactional view of the store. The unit
	// commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// Users is the user collaborator.
type Users interface {
	GetUser(ctx context.Context, id int64) (*platform.User, error)
	UserTeams(ctx context.Context, userID int64) ([]int64, error)
	CanViewProfile(ctx context.Context, user, viewer *platform.User) (bool, error)
}

// Videos is the video collaborator.
type Videos interface {
	GetVideo(ctx context.Context, id int64) (*platform.Video, error)
	CanViewVideo(ctx context.Context, video *platform.Video, viewer *platform.User) (bool, error)
}

// Teams is the team collaborator.
type Teams interface {
	GetTeam(ctx context.Context, id int64) (*platform.Team, error)
	CanViewActivity(ctx context.Context, team *platform.Team, viewer *platform.User) (bool, error)
}

// Directory bundles the collaborators the read side consults.
type Directory interface {
	Users
	Videos
	Teams
}

// Translator looks up a msgid in a locale's catalog. A miss returns msgid.
type Translator interface {
	Translate(msgid, locale string) string
}

// StreamCache caches stream pages. Entries are keyed by the generations of
// the subjects they depend on, so bumping a subject invalidates them.
type StreamCache interface {
	// Load returns a cached page and a token to pass to Save on a miss.
	Load(ctx context.Context, subjects []string, key string) (*Page, string, bool)
	Save(ctx context.Context, token string, page *Page)
	Invalidate(ctx context.Context, subjects ...string) error
}

// NopCache is a StreamCache that never hits.
type NopCache struct{}

func (NopCache) Load(context.Context, []string, string) (*Page, string, bool) { return nil, "", false }
func (NopCache) Save(context.Context, string, *Page)                           {}
func (NopCache) Invalidate(context.Context, ...string) error                   { return nil }
