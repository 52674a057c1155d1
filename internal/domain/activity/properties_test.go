package activity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/captionlog/internal/domain/activity"
	"github.com/rpggio/captionlog/internal/domain/platform"
)

type world struct {
	*fixture
	alice, bob, carol *platform.User
	teamA, teamB      *platform.Team
	v1, v2            *platform.Video
}

// populate writes at least one record of every active kind.
func populate(t *testing.T) *world {
	f := newFixture(t)
	w := &world{fixture: f}
	w.alice = f.user("alice")
	w.bob = f.user("bob")
	w.carol = f.user("carol")
	w.teamA = f.team("a", "Team A", true)
	w.teamB = f.team("b", "Team B", true)
	w.v1 = f.video("v1", "First", "http://x/1.mp4", w.teamA)
	w.v2 = f.video("v2", "Second", "http://x/2.mp4", nil)

	must := func(_ *activity.Record, err error) {
		t.Helper()
		require.NoError(t, err)
	}
	must(f.svc.RecordVideoAdded(f.ctx, w.v1, w.alice))
	must(f.svc.RecordVideoAdded(f.ctx, w.v2, w.bob))
	must(f.svc.RecordSubtitleVersion(f.ctx, &platform.SubtitleVersion{Video: w.v1, LanguageCode: "en", Author: w.alice, Created: epoch.Add(time.Hour)}))
	version := &platform.SubtitleVersion{Video: w.v1, LanguageCode: "fr", Author: w.bob, Created: epoch.Add(2 * time.Hour)}
	must(f.svc.RecordSubtitleVersion(f.ctx, version))
	for _, d := range []activity.Decision{activity.DecisionApproved, activity.DecisionAccepted, activity.DecisionRejected, activity.DecisionDeclined, activity.DecisionReviewed} {
		must(f.svc.RecordVersionDecision(f.ctx, d, version, w.carol))
	}
	must(f.svc.RecordComment(f.ctx, w.v1, &platform.Comment{ID: 1, User: w.carol}, ""))
	must(f.svc.RecordComment(f.ctx, w.v1, &platform.Comment{ID: 2, User: w.carol}, "fr"))
	vurl := &platform.VideoURL{Video: w.v1, URL: "http://x/1.webm"}
	must(f.svc.RecordVideoURLAdded(f.ctx, vurl, w.alice))
	must(f.svc.RecordVideoURLMadePrimary(f.ctx, vurl, "http://x/1.mp4", w.alice))
	must(f.svc.RecordVideoURLDeleted(f.ctx, vurl, w.alice))
	must(f.svc.RecordMemberJoined(f.ctx, f.join(w.teamA, w.carol, platform.RoleManager)))
	must(f.svc.RecordMemberJoined(f.ctx, f.join(w.teamB, w.bob, platform.RoleOwner)))
	must(f.svc.RecordMemberLeft(f.ctx, &platform.Member{Team: w.teamB, User: w.bob}))
	must(f.svc.RecordVideoDeleted(f.ctx, w.v2, w.bob))
	return w
}

func TestEveryRecordTypeIsRegistered(t *testing.T) {
	w := populate(t)
	w.move(w.v1, w.alice, w.teamA, w.teamB)

	seen := map[activity.Kind]bool{}
	for _, rec := range w.all() {
		_, err := activity.Lookup(rec.Type)
		require.NoError(t, err, "record %d", rec.ID)
		seen[rec.Type] = true
	}
	for _, d := range activity.Kinds().Descriptors() {
		if d.Active {
			require.True(t, seen[d.Slug], "no record of active kind %s", d.Slug)
		}
	}
}

func TestSideDataResolvesAfterWrite(t *testing.T) {
	w := populate(t)
	w.move(w.v1, w.alice, w.teamA, w.teamB)
	sideData := activity.NewSideDataStore(w.store.SideData())

	for _, rec := range w.all() {
		desc, err := activity.Lookup(rec.Type)
		require.NoError(t, err)
		if !desc.HasSideData() {
			require.Nil(t, rec.RelatedObjID, "record %d of %s", rec.ID, rec.Type)
			continue
		}
		require.NotNil(t, rec.RelatedObjID, "record %d of %s", rec.ID, rec.Type)
		data, err := sideData.Get(w.ctx, desc.SideData, *rec.RelatedObjID)
		require.NoError(t, err, "record %d of %s", rec.ID, rec.Type)
		require.Equal(t, desc.SideData, data.SideDataKind())
	}
}

func TestCopiesNeverChainAndPrivateRecordsAreNeverCopied(t *testing.T) {
	w := populate(t)
	teamC := w.team("c", "Team C", true)
	w.move(w.v1, w.alice, w.teamA, w.teamB)
	w.move(w.v1, w.alice, w.teamB, teamC)
	w.move(w.v1, w.alice, teamC, w.teamA)
	w.move(w.v1, w.alice, w.teamA, nil)

	byID := map[int64]activity.Record{}
	recs := w.all()
	for _, rec := range recs {
		byID[rec.ID] = rec
	}
	for _, rec := range recs {
		if rec.PrivateToTeam {
			require.False(t, rec.IsCopy(), "private record %d is a copy", rec.ID)
		}
		if !rec.IsCopy() {
			continue
		}
		orig, ok := byID[*rec.CopiedFromID]
		require.True(t, ok)
		require.False(t, orig.IsCopy(), "copy %d points at copy %d", rec.ID, orig.ID)
		require.False(t, orig.PrivateToTeam, "copy %d of private record %d", rec.ID, orig.ID)
	}
}

type groupKey struct {
	kind    activity.Kind
	lang    string
	created time.Time
	user    int64
}

func groupOf(rec activity.Record) groupKey {
	k := groupKey{kind: rec.Type, lang: rec.LanguageCode, created: rec.Created}
	if rec.UserID != nil {
		k.user = *rec.UserID
	}
	return k
}

func videoRecords(f *fixture, videoID int64) []activity.Record {
	recs, err := f.store.Records().List(f.ctx, activity.Query{VideoID: &videoID, Ascending: true})
	require.NoError(f.t, err)
	return recs
}

func TestMoveRetagsOriginalsAndLeavesCopies(t *testing.T) {
	w := populate(t)
	before := videoRecords(w.fixture, w.v1.ID)
	groups := map[groupKey]bool{}
	for _, rec := range before {
		groups[groupOf(rec)] = true
	}

	w.move(w.v1, w.carol, w.teamA, w.teamB)

	originals := map[groupKey]int{}
	copiesOnA := map[groupKey]int{}
	for _, rec := range videoRecords(w.fixture, w.v1.ID) {
		if rec.PrivateToTeam {
			continue
		}
		if rec.IsCopy() {
			require.Equal(t, w.teamA.ID, *rec.TeamID)
			copiesOnA[groupOf(rec)]++
			continue
		}
		require.Equal(t, w.teamB.ID, *rec.TeamID)
		originals[groupOf(rec)]++
	}
	require.Len(t, originals, len(groups))
	for g := range groups {
		require.Equal(t, 1, originals[g], "originals of %v", g)
		require.Equal(t, 1, copiesOnA[g], "copies of %v", g)
	}
}

func TestRoundTripMoveDoesNotDuplicateCopies(t *testing.T) {
	w := populate(t)
	pre := len(videoRecords(w.fixture, w.v1.ID))

	w.move(w.v1, w.carol, w.teamA, w.teamB)
	w.move(w.v1, w.carol, w.teamB, w.teamA)

	after := videoRecords(w.fixture, w.v1.ID)
	var originals, copies, moves int
	perOriginal := map[int64]int{}
	for _, rec := range after {
		switch {
		case rec.PrivateToTeam:
			moves++
		case rec.IsCopy():
			copies++
			perOriginal[*rec.CopiedFromID]++
			require.Equal(t, w.teamB.ID, *rec.TeamID, "stale copy left on the original team")
		default:
			originals++
			require.Equal(t, w.teamA.ID, *rec.TeamID)
		}
	}
	require.Equal(t, pre, originals)
	require.Equal(t, 4, moves)
	require.Equal(t, pre, copies)
	for orig, n := range perOriginal {
		require.Equal(t, 1, n, "original %d has duplicate copies", orig)
	}
	// Copies made on B by the return move remain, so the total is originals plus copies plus moves.
	require.Equal(t, pre+copies+4, len(after))
}

func TestFeedContainsOwnAndTeamRecordsOnly(t *testing.T) {
	w := populate(t)
	w.move(w.v1, w.alice, w.teamA, w.teamB)
	f := w.fixture

	// carol is a member of team A only
	teams, err := f.dir.UserTeams(f.ctx, w.carol.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{w.teamA.ID}, teams)

	want := map[int64]bool{}
	for _, rec := range w.all() {
		if rec.PrivateToTeam {
			continue
		}
		own := rec.UserID != nil && *rec.UserID == w.carol.ID && !rec.IsCopy()
		onTeam := rec.TeamID != nil && *rec.TeamID == w.teamA.ID
		if own || onTeam {
			want[rec.ID] = true
		}
	}

	page, err := f.streams.FeedForViewer(f.ctx, w.carol, activity.PageOptions{Limit: activity.MaxPageSize})
	require.NoError(t, err)
	got := map[int64]bool{}
	for _, rec := range page.Records {
		require.False(t, got[rec.ID], "record %d listed twice", rec.ID)
		got[rec.ID] = true
	}
	require.Equal(t, want, got)
}

func TestFeedHidesInvisibleTeamsUnlessSuperuser(t *testing.T) {
	f := newFixture(t)
	hidden := f.team("hidden", "Hidden", false)
	alice := f.user("alice")
	v := f.video("v", "V", "http://x/v.mp4", hidden)
	rec, err := f.svc.RecordVideoAdded(f.ctx, v, alice)
	require.NoError(t, err)

	page, err := f.streams.FeedForViewer(f.ctx, alice, activity.PageOptions{})
	require.NoError(t, err)
	require.Empty(t, page.Records)

	alice.IsSuperuser = true
	page, err = f.streams.FeedForViewer(f.ctx, alice, activity.PageOptions{})
	require.NoError(t, err)
	require.Equal(t, []int64{rec.ID}, recordIDs(page.Records))

	f.join(hidden, alice, platform.RoleContributor)
	alice.IsSuperuser = false
	page, err = f.streams.FeedForViewer(f.ctx, alice, activity.PageOptions{})
	require.NoError(t, err)
	require.Equal(t, []int64{rec.ID}, recordIDs(page.Records))

	page, err = f.streams.FeedForViewer(f.ctx, nil, activity.PageOptions{})
	require.NoError(t, err)
	require.Empty(t, page.Records)
}

func TestTeamStreamIsOrderedNewestFirst(t *testing.T) {
	f := newFixture(t)
	fixed := epoch
	svc := activity.NewService(f.store, nil, activity.WithClock(func() time.Time { return fixed }))
	team := f.team("t", "T", true)
	u := f.user("u")
	v := f.video("v", "V", "http://x/v.mp4", team)

	for i := 0; i < 12; i++ {
		if i%3 == 0 {
			fixed = fixed.Add(time.Second)
		}
		_, err := svc.RecordComment(f.ctx, v, &platform.Comment{ID: int64(i), User: u}, []string{"en", "fr", "de"}[i%3])
		require.NoError(t, err)
	}

	var all []activity.Record
	opts := activity.PageOptions{Limit: 5}
	for {
		page, err := f.streams.ForTeam(f.ctx, team.ID, nil, activity.StreamVideo, activity.TeamFilter{}, opts)
		require.NoError(t, err)
		all = append(all, page.Records...)
		if page.NextCursor == "" {
			break
		}
		opts.Cursor = page.NextCursor
	}
	require.Len(t, all, 12)
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		require.False(t, cur.Created.After(prev.Created), "created increases at %d", i)
		if cur.Created.Equal(prev.Created) {
			require.Less(t, cur.ID, prev.ID)
		}
	}
}
