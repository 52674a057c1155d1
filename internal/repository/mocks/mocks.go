package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rpggio/captionlog/internal/domain/activity"
	"github.com/rpggio/captionlog/internal/domain/platform"
)

// Store is a mock for activity.Store. InTx runs fn against the mock itself
// after recording the call, so the error returned by fn wins unless InTx is
// stubbed to fail.
type Store struct {
	mock.Mock
	RecordRepo   *RecordRepository
	SideDataRepo *SideDataRepository
}

// NewStore returns a Store wired to fresh repository mocks.
func NewStore() *Store {
	return &Store{RecordRepo: &RecordRepository{}, SideDataRepo: &SideDataRepository{}}
}

func (m *Store) Records() activity.RecordRepository {
	return m.RecordRepo
}

func (m *Store) SideData() activity.SideDataRepository {
	return m.SideDataRepo
}

func (m *Store) InTx(ctx context.Context, fn func(tx activity.Store) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

// RecordRepository is a mock for activity.RecordRepository.
type RecordRepository struct {
	mock.Mock
}

func (m *RecordRepository) Create(ctx context.Context, rec *activity.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *RecordRepository) Get(ctx context.Context, id int64) (*activity.Record, error) {
	args := m.Called(ctx, id)
	if rec, ok := args.Get(0).(*activity.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RecordRepository) FindOriginal(ctx context.Context, key activity.OriginalKey) (*activity.Record, error) {
	args := m.Called(ctx, key)
	if rec, ok := args.Get(0).(*activity.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RecordRepository) List(ctx context.Context, q activity.Query) ([]activity.Record, error) {
	args := m.Called(ctx, q)
	if recs, ok := args.Get(0).([]activity.Record); ok {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RecordRepository) ListMovable(ctx context.Context, videoID int64, teamID *int64) ([]activity.Record, error) {
	args := m.Called(ctx, videoID, teamID)
	if recs, ok := args.Get(0).([]activity.Record); ok {
		return recs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RecordRepository) UpdateTeam(ctx context.Context, id int64, teamID *int64) error {
	args := m.Called(ctx, id, teamID)
	return args.Error(0)
}

func (m *RecordRepository) DeleteCopies(ctx context.Context, originalID int64, teamID *int64) (int64, error) {
	args := m.Called(ctx, originalID, teamID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RecordRepository) TeamsForUser(ctx context.Context, userID int64) ([]int64, error) {
	args := m.Called(ctx, userID)
	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

// SideDataRepository is a mock for activity.SideDataRepository.
type SideDataRepository struct {
	mock.Mock
}

func (m *SideDataRepository) CreateVideoDeletion(ctx context.Context, d activity.VideoDeletion) (int64, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(int64), args.Error(1)
}

func (m *SideDataRepository) GetVideoDeletion(ctx context.Context, id int64) (*activity.VideoDeletion, error) {
	args := m.Called(ctx, id)
	if d, ok := args.Get(0).(*activity.VideoDeletion); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SideDataRepository) CreateURLEdit(ctx context.Context, e activity.URLEdit) (int64, error) {
	args := m.Called(ctx, e)
	return args.Get(0).(int64), args.Error(1)
}

func (m *SideDataRepository) GetURLEdit(ctx context.Context, id int64) (*activity.URLEdit, error) {
	args := m.Called(ctx, id)
	if e, ok := args.Get(0).(*activity.URLEdit); ok {
		return e, args.Error(1)
	}
	return nil, args.Error(1)
}

// Directory is a mock for activity.Directory.
type Directory struct {
	mock.Mock
}

func (m *Directory) GetUser(ctx context.Context, id int64) (*platform.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*platform.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Directory) UserTeams(ctx context.Context, userID int64) ([]int64, error) {
	args := m.Called(ctx, userID)
	if ids, ok := args.Get(0).([]int64); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Directory) CanViewProfile(ctx context.Context, user, viewer *platform.User) (bool, error) {
	args := m.Called(ctx, user, viewer)
	return args.Bool(0), args.Error(1)
}

func (m *Directory) GetVideo(ctx context.Context, id int64) (*platform.Video, error) {
	args := m.Called(ctx, id)
	if v, ok := args.Get(0).(*platform.Video); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Directory) CanViewVideo(ctx context.Context, video *platform.Video, viewer *platform.User) (bool, error) {
	args := m.Called(ctx, video, viewer)
	return args.Bool(0), args.Error(1)
}

func (m *Directory) GetTeam(ctx context.Context, id int64) (*platform.Team, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*platform.Team); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Directory) CanViewActivity(ctx context.Context, team *platform.Team, viewer *platform.User) (bool, error) {
	args := m.Called(ctx, team, viewer)
	return args.Bool(0), args.Error(1)
}

var (
	_ activity.Store              = (*Store)(nil)
	_ activity.RecordRepository   = (*RecordRepository)(nil)
	_ activity.SideDataRepository = (*SideDataRepository)(nil)
	_ activity.Directory          = (*Directory)(nil)
)
