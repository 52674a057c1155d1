package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/captionlog/internal/domain/platform"
)

func TestRegistryLookup(t *testing.T) {
	d, err := Lookup(KindVideoMovedToTeam)
	require.NoError(t, err)
	assert.True(t, d.PrivateToTeam)
	assert.Equal(t, SideDataTeamRef, d.SideData)

	_, err = Lookup("video-exploded")
	require.ErrorIs(t, err, ErrUnknownType)

	assert.ElementsMatch(t, []Kind{KindMemberJoined, KindMemberLeft}, Kinds().TeamActivityKinds())
}

func TestRegistryRejectsDuplicatesAndMissingMessages(t *testing.T) {
	d := Descriptor{Slug: "x", Message: videoAddedMessage}
	assert.Panics(t, func() { newRegistry(d, d) })
	assert.Panics(t, func() { newRegistry(Descriptor{Slug: "y"}) })
}

func TestSpliceLeavesUnknownPlaceholdersNamed(t *testing.T) {
	params := map[string]string{"user": "ann", "video": "&lt;V&gt;"}

	assert.Equal(t, "ann added &lt;V&gt;", splice("{user} added {video}", params))
	assert.Equal(t, "ann saw team", splice("{user} saw {team}", params))
	assert.Equal(t, "no tags", splice("no tags", params))
	assert.Equal(t, "ann {", splice("{user} {", params))
}

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{Created: time.Date(2024, 5, 1, 9, 0, 0, 123000, time.UTC), ID: 77}

	got, err := DecodeCursor(EncodeCursor(c))
	require.NoError(t, err)
	assert.True(t, c.Created.Equal(got.Created))
	assert.Equal(t, c.ID, got.ID)

	for _, bad := range []string{"!!", "bm9jb2xvbg", "YTpi"} {
		_, err := DecodeCursor(bad)
		assert.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}

func TestRoleCodes(t *testing.T) {
	for _, role := range []platform.Role{platform.RoleOwner, platform.RoleAdmin, platform.RoleManager, platform.RoleContributor, platform.RoleProjectOrLanguageManager} {
		assert.Equal(t, role, RoleCodeFor(role).Role())
	}
	assert.Equal(t, int64(4), RoleCodeFor("janitor").Code)
	assert.Equal(t, platform.Role(""), RoleCode{Code: 99}.Role())
}

func TestTeamRefFor(t *testing.T) {
	id := int64(7)
	assert.Equal(t, TeamRef{TeamID: 7}, TeamRefFor(&id))
	assert.Equal(t, TeamRef{}, TeamRefFor(nil))
}

func TestQueryCacheKeyDistinguishesWindows(t *testing.T) {
	team := int64(3)
	a := Query{TeamID: &team, Limit: 21}
	b := a
	b.Offset = 20
	c := a
	c.After = &Cursor{Created: time.Unix(5, 0), ID: 9}

	assert.NotEqual(t, a.cacheKey(), b.cacheKey())
	assert.NotEqual(t, a.cacheKey(), c.cacheKey())
	assert.Equal(t, a.cacheKey(), Query{TeamID: &team, Limit: 21}.cacheKey())
}
