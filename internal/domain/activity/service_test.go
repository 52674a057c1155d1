package activity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/captionlog/internal/domain/activity"
	"github.com/rpggio/captionlog/internal/domain/platform"
	"github.com/rpggio/captionlog/internal/repository/mocks"
)

func TestWriteRejectsUnregisteredAndInactiveKinds(t *testing.T) {
	f := newFixture(t)
	v := f.video("v", "V", "http://x/v.mp4", nil)

	_, err := f.svc.Write(f.ctx, activity.WriteRequest{Type: "video-exploded", Video: v})
	require.ErrorIs(t, err, activity.ErrUnknownType)

	_, err = f.svc.Write(f.ctx, activity.WriteRequest{Type: activity.KindVideoTitleChanged, Video: v})
	require.ErrorIs(t, err, activity.ErrInactiveType)

	require.Empty(t, f.all())
}

func TestWriteValidatesSideData(t *testing.T) {
	f := newFixture(t)
	v := f.video("v", "V", "http://x/v.mp4", nil)

	tests := []struct {
		name string
		req  activity.WriteRequest
	}{
		{"missing", activity.WriteRequest{Type: activity.KindVideoDeleted, Video: v}},
		{"unexpected", activity.WriteRequest{Type: activity.KindVideoAdded, Video: v, SideData: activity.URLEdit{NewURL: "x"}}},
		{"wrong variant", activity.WriteRequest{Type: activity.KindVideoURLAdded, Video: v, SideData: activity.VideoDeletion{URL: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Write(f.ctx, tt.req)
			require.ErrorIs(t, err, activity.ErrSideDataMismatch)
		})
	}
	require.Empty(t, f.all())
}

func TestFactoriesRejectMissingArguments(t *testing.T) {
	f := newFixture(t)
	ctx := f.ctx
	v := f.video("v", "V", "http://x/v.mp4", nil)

	calls := map[string]func() (*activity.Record, error){
		"video added":   func() (*activity.Record, error) { return f.svc.RecordVideoAdded(ctx, nil, nil) },
		"video deleted": func() (*activity.Record, error) { return f.svc.RecordVideoDeleted(ctx, nil, nil) },
		"url added":     func() (*activity.Record, error) { return f.svc.RecordVideoURLAdded(ctx, &platform.VideoURL{URL: "x"}, nil) },
		"url primary":   func() (*activity.Record, error) { return f.svc.RecordVideoURLMadePrimary(ctx, nil, "x", nil) },
		"url deleted":   func() (*activity.Record, error) { return f.svc.RecordVideoURLDeleted(ctx, nil, nil) },
		"comment":       func() (*activity.Record, error) { return f.svc.RecordComment(ctx, v, nil, "") },
		"version":       func() (*activity.Record, error) { return f.svc.RecordSubtitleVersion(ctx, &platform.SubtitleVersion{}) },
		"decision":      func() (*activity.Record, error) { return f.svc.RecordVersionDecision(ctx, "shrugged", &platform.SubtitleVersion{Video: v}, nil) },
		"member joined": func() (*activity.Record, error) { return f.svc.RecordMemberJoined(ctx, &platform.Member{}) },
		"member left":   func() (*activity.Record, error) { return f.svc.RecordMemberLeft(ctx, nil) },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			rec, err := call()
			require.ErrorIs(t, err, activity.ErrInvalidInput)
			require.Nil(t, rec)
		})
	}
}

func TestWriteStampsRecordFromVideo(t *testing.T) {
	f := newFixture(t)
	team := f.team("t", "T", true)
	u := f.user("u")
	v := f.video("v", "V", "http://x/v.mp4", team)
	v.PrimaryAudioLanguageCode = "de"

	rec, err := f.svc.RecordComment(f.ctx, v, &platform.Comment{ID: 42, User: u, LanguageCode: "fr"}, "")
	require.NoError(t, err)
	require.NotZero(t, rec.ID)
	require.Equal(t, team.ID, *rec.TeamID)
	require.Equal(t, "fr", rec.LanguageCode)
	require.Equal(t, "de", rec.VideoLanguageCode)
	require.Equal(t, int64(42), *rec.RelatedObjID)
	require.Equal(t, time.UTC, rec.Created.Location())

	stored, err := f.store.Records().Get(f.ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec, stored)
}

func TestWriteDeduplicatesIdenticalOriginals(t *testing.T) {
	f := newFixture(t)
	u := f.user("u")
	v := f.video("v", "V", "http://x/v.mp4", nil)
	version := &platform.SubtitleVersion{Video: v, LanguageCode: "en", Author: u, Created: epoch}

	first, err := f.svc.RecordSubtitleVersion(f.ctx, version)
	require.NoError(t, err)
	second, err := f.svc.RecordSubtitleVersion(f.ctx, version)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	version.LanguageCode = "fr"
	third, err := f.svc.RecordSubtitleVersion(f.ctx, version)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, third.ID)
	require.Len(t, f.all(), 2)
}

func TestWriteAnonymousActor(t *testing.T) {
	f := newFixture(t)
	v := f.video("v", "V", "http://x/v.mp4", nil)

	rec, err := f.svc.RecordVideoAdded(f.ctx, v, nil)
	require.NoError(t, err)
	require.Nil(t, rec.UserID)
	require.Equal(t, "Someone added V", f.text(*rec, nil))
}

func TestWriteSideDataFailureAbortsRecord(t *testing.T) {
	store := mocks.NewStore()
	store.On("InTx", mock.Anything).Return(nil)
	store.RecordRepo.On("FindOriginal", mock.Anything, mock.Anything).Return(nil, errNotFound())
	store.SideDataRepo.On("CreateVideoDeletion", mock.Anything, mock.Anything).Return(int64(0), errors.New("disk full"))

	svc := activity.NewService(store, nil)
	rec, err := svc.RecordVideoDeleted(context.Background(), &platform.Video{ID: 1, URL: "http://x/v.mp4"}, nil)
	require.Nil(t, rec)

	var se *activity.StorageError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), "disk full")
	store.RecordRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWriteTransactionFailureIsStorageError(t *testing.T) {
	store := mocks.NewStore()
	store.On("InTx", mock.Anything).Return(errors.New("database is locked"))

	svc := activity.NewService(store, nil)
	_, err := svc.RecordVideoAdded(context.Background(), &platform.Video{ID: 1}, nil)

	var se *activity.StorageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "write video-added", se.Op)
	store.RecordRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWriteRecordFailureIsStorageError(t *testing.T) {
	store := mocks.NewStore()
	store.On("InTx", mock.Anything).Return(nil)
	store.RecordRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("constraint failed"))

	svc := activity.NewService(store, nil)
	_, err := svc.RecordMemberLeft(context.Background(), &platform.Member{Team: &platform.Team{ID: 3}, User: &platform.User{ID: 4}})

	var se *activity.StorageError
	require.ErrorAs(t, err, &se)
	store.RecordRepo.AssertNotCalled(t, "FindOriginal", mock.Anything, mock.Anything)
}

type recordingCache struct {
	activity.NopCache
	invalidated []string
}

func (c *recordingCache) Invalidate(_ context.Context, subjects ...string) error {
	c.invalidated = append(c.invalidated, subjects...)
	return nil
}

func TestWriteInvalidatesSubjects(t *testing.T) {
	f := newFixture(t)
	cache := &recordingCache{}
	svc := activity.NewService(f.store, nil, activity.WithCache(cache))
	team := f.team("t", "T", true)
	u := f.user("u")
	v := f.video("v", "V", "http://x/v.mp4", team)

	_, err := svc.RecordVideoAdded(f.ctx, v, u)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		"user:" + itoa(u.ID),
		"video:" + itoa(v.ID),
		"team:" + itoa(team.ID),
	}, cache.invalidated)
}
