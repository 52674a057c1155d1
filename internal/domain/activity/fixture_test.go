package activity_test

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/captionlog/internal/domain/activity"
	"github.com/rpggio/captionlog/internal/domain/platform"
	"github.com/rpggio/captionlog/internal/repository"
	"github.com/rpggio/captionlog/internal/sqlstore"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// tickClock advances one second per reading so records order deterministically.
type tickClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	db       *sqlstore.DB
	store    *sqlstore.Store
	dir      *sqlstore.Directory
	svc      *activity.Service
	streams  *activity.Streams
	renderer *activity.Renderer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return fixtureFor(t, sqlstore.NewTestDB(t))
}

// newFileFixture backs the fixture with a SQLite file, so concurrent callers
// get their own connections.
func newFileFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "activity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(ctx))
	return fixtureFor(t, db)
}

func fixtureFor(t *testing.T, db *sqlstore.DB) *fixture {
	store := sqlstore.NewStore(db)
	dir := sqlstore.NewDirectory(db)
	clock := &tickClock{now: epoch}
	return &fixture{
		t:        t,
		ctx:      context.Background(),
		db:       db,
		store:    store,
		dir:      dir,
		svc:      activity.NewService(store, nil, activity.WithClock(clock.Now)),
		streams:  activity.NewStreams(store, dir, nil),
		renderer: activity.NewRenderer(store, dir, nil, platform.NewLinks(""), nil),
	}
}

func (f *fixture) user(username string) *platform.User {
	f.t.Helper()
	u := &platform.User{Username: username, IsActive: true}
	require.NoError(f.t, f.dir.CreateUser(f.ctx, u))
	return u
}

func (f *fixture) team(slug, name string, visible bool) *platform.Team {
	f.t.Helper()
	team := &platform.Team{Slug: slug, Name: name, IsVisible: visible}
	require.NoError(f.t, f.dir.CreateTeam(f.ctx, team))
	return team
}

func (f *fixture) join(team *platform.Team, u *platform.User, role platform.Role) *platform.Member {
	f.t.Helper()
	m, err := f.dir.AddMember(f.ctx, team.ID, u.ID, role)
	require.NoError(f.t, err)
	return m
}

func (f *fixture) video(videoID, title, url string, team *platform.Team) *platform.Video {
	f.t.Helper()
	v := &platform.Video{VideoID: videoID, Title: title, URL: url, PrimaryAudioLanguageCode: "en"}
	if team != nil {
		v.TeamID = &team.ID
	}
	require.NoError(f.t, f.dir.CreateVideo(f.ctx, v))
	return v
}

// move re-tags the video in the directory and records the move.
func (f *fixture) move(v *platform.Video, by *platform.User, from, to *platform.Team) *activity.MoveResult {
	f.t.Helper()
	var fromID, toID *int64
	if from != nil {
		fromID = &from.ID
	}
	if to != nil {
		toID = &to.ID
	}
	res, err := f.svc.RecordVideoMoved(f.ctx, v, by, fromID, toID)
	require.NoError(f.t, err)
	require.NoError(f.t, f.dir.SetVideoTeam(f.ctx, v.ID, toID))
	v.TeamID = toID
	return res
}

// all returns every record in insertion order.
func (f *fixture) all() []activity.Record {
	f.t.Helper()
	recs, err := f.store.Records().List(f.ctx, activity.Query{Ascending: true})
	require.NoError(f.t, err)
	return recs
}

func (f *fixture) text(rec activity.Record, viewer *platform.User) string {
	return f.renderer.RenderText(f.ctx, &rec, viewer, "en")
}

func types(recs []activity.Record) []activity.Kind {
	out := make([]activity.Kind, len(recs))
	for i, r := range recs {
		out[i] = r.Type
	}
	return out
}

func recordIDs(recs []activity.Record) []int64 {
	out := make([]int64, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func idPtr(id int64) *int64 { return &id }

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func errNotFound() error { return repository.ErrNotFound }

// count returns the number of rows in table.
func (f *fixture) count(table string) int {
	f.t.Helper()
	var n int
	require.NoError(f.t, f.db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
