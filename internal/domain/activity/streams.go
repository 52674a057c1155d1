package activity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/rpggio/captionlog/internal/domain/platform"
	"github.com/rpggio/captionlog/internal/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Streams is the consumer API: permission-checked, paginated slices of the log.
type Streams struct {
	store       Store
	dir         Directory
	cache       StreamCache
	logger      *slog.Logger
	pageSize    int
	maxPageSize int
}

// StreamsOption configures Streams.
type StreamsOption func(*Streams)

// WithStreamCache serves pages through cache.
func WithStreamCache(cache StreamCache) StreamsOption {
	return func(s *Streams) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// WithPageSize sets the default and maximum page sizes.
func WithPageSize(size, maxSize int) StreamsOption {
	return func(s *Streams) {
		if size > 0 {
			s.pageSize = size
		}
		if maxSize > 0 {
			s.maxPageSize = maxSize
		}
	}
}

// NewStreams creates the read side over store, checking permissions with dir.
func NewStreams(store Store, dir Directory, logger *slog.Logger, opts ...StreamsOption) *Streams {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Streams{
		store:       store,
		dir:         dir,
		cache:       NopCache{},
		logger:      logger,
		pageSize:    DefaultPageSize,
		maxPageSize: MaxPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pageSize > s.maxPageSize {
		s.pageSize = s.maxPageSize
	}
	return s
}

// ForUser lists the originals a user produced, newest first.
func (s *Streams) ForUser(ctx context.Context, userID int64, viewer *platform.User, page PageOptions) (*Page, error) {
	user, err := s.dir.GetUser(ctx, userID)
	if err != nil {
		return s.denied(ctx, "user", err)
	}
	ok, err := s.dir.CanViewProfile(ctx, user, viewer)
	if err != nil || !ok {
		return s.denied(ctx, "user", err)
	}
	q := Query{UserID: idPtr(userID), OriginalsOnly: true, ExcludePrivate: true}
	return s.run(ctx, "user", q, []string{userSubject(userID)}, page)
}

// ForVideo lists a video's history. With a team context it is that team's
// view of the video, copies included; otherwise the originals.
func (s *Streams) ForVideo(ctx context.Context, videoID int64, viewer *platform.User, teamID *int64, page PageOptions) (*Page, error) {
	video, err := s.dir.GetVideo(ctx, videoID)
	if err != nil {
		return s.denied(ctx, "video", err)
	}
	ok, err := s.dir.CanViewVideo(ctx, video, viewer)
	if err != nil || !ok {
		return s.denied(ctx, "video", err)
	}
	q := Query{VideoID: idPtr(videoID), ExcludePrivate: true}
	subjects := []string{videoSubject(videoID)}
	if teamID != nil {
		q.TeamID = cloneID(teamID)
		subjects = append(subjects, teamSubject(*teamID))
	} else {
		q.OriginalsOnly = true
	}
	return s.run(ctx, "video", q, subjects, page)
}

// ForTeam lists one of a team's two views: video activity (every kind but
// membership) or team activity (membership only). Private records and copies
// tagged with the team are included.
func (s *Streams) ForTeam(ctx context.Context, teamID int64, viewer *platform.User, kind StreamKind, filter TeamFilter, page PageOptions) (*Page, error) {
	q := Query{TeamID: idPtr(teamID)}
	switch kind {
	case StreamVideo, "":
		q.ExcludeTypes = kinds.TeamActivityKinds()
	case StreamTeam:
		q.Types = kinds.TeamActivityKinds()
	default:
		return nil, fmt.Errorf("%w: stream kind %q", ErrInvalidInput, kind)
	}
	switch filter.Sort {
	case "", SortNewest:
	case SortOldest:
		q.Ascending = true
	default:
		return nil, fmt.Errorf("%w: sort %q", ErrInvalidInput, filter.Sort)
	}
	if filter.Type != "" {
		if _, err := Lookup(filter.Type); err != nil {
			return nil, err
		}
		q.Types = intersectKinds(q.Types, filter.Type)
		if len(q.Types) == 0 {
			return &Page{Records: []Record{}}, nil
		}
	}
	q.LanguageCode = filter.LanguageCode
	q.VideoLanguageCode = filter.VideoLanguageCode

	team, err := s.dir.GetTeam(ctx, teamID)
	if err != nil {
		return s.denied(ctx, "team", err)
	}
	ok, err := s.dir.CanViewActivity(ctx, team, viewer)
	if err != nil || !ok {
		return s.denied(ctx, "team", err)
	}
	return s.run(ctx, "team", q, []string{teamSubject(teamID)}, page)
}

// intersectKinds narrows an allow-list to one kind. A nil allow-list allows
// everything; the exclude list is already applied by the query.
func intersectKinds(allowed []Kind, kind Kind) []Kind {
	if allowed == nil {
		return []Kind{kind}
	}
	for _, k := range allowed {
		if k == kind {
			return []Kind{kind}
		}
	}
	return nil
}

// FeedForViewer merges the viewer's own originals with every record of the
// viewer's teams, hiding records of invisible teams the viewer is not in.
// Anonymous viewers get an empty feed.
func (s *Streams) FeedForViewer(ctx context.Context, viewer *platform.User, page PageOptions) (*Page, error) {
	if viewer == nil {
		return &Page{Records: []Record{}}, nil
	}
	teams, err := s.dir.UserTeams(ctx, viewer.ID)
	if err != nil {
		return s.denied(ctx, "feed", err)
	}
	scope := &FeedScope{UserID: viewer.ID, TeamIDs: sortedIDs(teams), Unrestricted: viewer.IsSuperuser}
	if !scope.Unrestricted {
		allowed, err := s.allowedTeams(ctx, viewer.ID, teams)
		if err != nil {
			return nil, err
		}
		scope.AllowedTeamIDs = allowed
	}

	subjects := []string{userSubject(viewer.ID)}
	for _, id := range scope.TeamIDs {
		subjects = append(subjects, teamSubject(id))
	}
	q := Query{Feed: scope, ExcludePrivate: true}
	return s.run(ctx, "feed", q, subjects, page)
}

// allowedTeams returns the viewer's teams plus every visible team tagged on
// the viewer's own records.
func (s *Streams) allowedTeams(ctx context.Context, viewerID int64, memberOf []int64) ([]int64, error) {
	member := make(map[int64]bool, len(memberOf))
	allowed := append([]int64(nil), memberOf...)
	for _, id := range memberOf {
		member[id] = true
	}
	tagged, err := s.store.Records().TeamsForUser(ctx, viewerID)
	if err != nil {
		return nil, storageErr("teams for user", err)
	}
	for _, id := range tagged {
		if member[id] {
			continue
		}
		team, err := s.dir.GetTeam(ctx, id)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				s.logger.Warn("team lookup failed", "team_id", id, "error", err)
			}
			continue
		}
		if team.IsVisible {
			allowed = append(allowed, id)
		}
	}
	return sortedIDs(allowed), nil
}

func (s *Streams) run(ctx context.Context, stream string, q Query, subjects []string, page PageOptions) (*Page, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = s.pageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	if page.Cursor != "" {
		after, err := DecodeCursor(page.Cursor)
		if err != nil {
			return nil, err
		}
		q.After = &after
	} else if page.Offset > 0 {
		q.Offset = page.Offset
	}
	q.Limit = limit + 1

	key := stream + "|" + q.cacheKey()
	cached, token, ok := s.cache.Load(ctx, subjects, key)
	if ok {
		return cached, nil
	}

	recs, err := s.store.Records().List(ctx, q)
	if err != nil {
		return nil, storageErr("list "+stream, err)
	}
	out := &Page{Records: recs}
	if out.Records == nil {
		out.Records = []Record{}
	}
	if len(out.Records) > limit {
		out.Records = out.Records[:limit]
		last := out.Records[limit-1]
		out.NextCursor = EncodeCursor(Cursor{Created: last.Created, ID: last.ID})
	}
	if token != "" {
		s.cache.Save(ctx, token, out)
	}
	return out, nil
}

func (s *Streams) denied(ctx context.Context, stream string, err error) (*Page, error) {
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.WarnContext(ctx, "stream permission check failed", "stream", stream, "error", err)
	}
	return &Page{Records: []Record{}}, nil
}

func sortedIDs(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	n := 0
	for i, id := range out {
		if i == 0 || id != out[n-1] {
			out[n] = id
			n++
		}
	}
	return out[:n]
}
