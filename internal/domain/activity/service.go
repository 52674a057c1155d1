package activity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/rpggio/captionlog/internal/domain/platform"
	"github.com/rpggio/captionlog/internal/repository"
)

// Service is the producer API: one factory per event kind, each writing the
// record and its side-data in one unit of work.
type Service struct {
	store  Store
	cache  StreamCache
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCache makes writes invalidate the given stream cache.
func WithCache(cache StreamCache) Option {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

// NewService creates a new activity writer.
func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{store: store, cache: NopCache{}, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WriteRequest describes one record to write. TeamID overrides the team
// derived from Video. A zero Created is stamped with the current time.
type WriteRequest struct {
	Type         Kind
	UserID       *int64
	Video        *platform.Video
	TeamID       *int64
	LanguageCode string
	SideData     SideData
	Created      time.Time
}

// Write validates req against the registry and writes the record with its
// side-data atomically.
func (s *Service) Write(ctx context.Context, req WriteRequest) (*Record, error) {
	rec, err := s.prepare(req)
	if err != nil {
		return nil, err
	}
	err = s.store.InTx(ctx, func(tx Store) error {
		return s.insert(ctx, tx, rec, req.SideData)
	})
	if err != nil {
		return nil, storageErr("write "+string(rec.Type), err)
	}
	s.invalidate(ctx, subjectsFor(rec)...)
	s.logger.Debug("activity recorded", "type", rec.Type, "id", rec.ID, "team_id", fmtID(rec.TeamID))
	return rec, nil
}

func (s *Service) prepare(req WriteRequest) (*Record, error) {
	desc, err := Lookup(req.Type)
	if err != nil {
		return nil, err
	}
	if !desc.Active {
		return nil, fmt.Errorf("%w: %q", ErrInactiveType, req.Type)
	}
	if desc.HasSideData() != (req.SideData != nil) {
		return nil, fmt.Errorf("%w: %q", ErrSideDataMismatch, req.Type)
	}
	if req.SideData != nil && req.SideData.SideDataKind() != desc.SideData {
		return nil, fmt.Errorf("%w: %q takes %q, got %q", ErrSideDataMismatch, req.Type, desc.SideData, req.SideData.SideDataKind())
	}

	created := req.Created
	if created.IsZero() {
		created = s.now()
	}
	rec := &Record{
		Type:          req.Type,
		UserID:        cloneID(req.UserID),
		TeamID:        cloneID(req.TeamID),
		LanguageCode:  req.LanguageCode,
		Created:       created.UTC().Truncate(time.Microsecond),
		PrivateToTeam: desc.PrivateToTeam,
	}
	if req.Video != nil {
		rec.VideoID = idPtr(req.Video.ID)
		rec.VideoLanguageCode = req.Video.PrimaryAudioLanguageCode
		if rec.TeamID == nil {
			rec.TeamID = cloneID(req.Video.TeamID)
		}
	}
	return rec, nil
}

// insert writes rec inside tx. When an identical original already exists it
// loads that one into rec instead.
func (s *Service) insert(ctx context.Context, tx Store, rec *Record, data SideData) error {
	if rec.VideoID != nil {
		existing, err := tx.Records().FindOriginal(ctx, OriginalKey{
			VideoID:      rec.VideoID,
			Type:         rec.Type,
			LanguageCode: rec.LanguageCode,
			Created:      rec.Created,
			UserID:       rec.UserID,
		})
		switch {
		case err == nil:
			*rec = *existing
			return nil
		case !errors.Is(err, repository.ErrNotFound):
			return storageErr("find original", err)
		}
	}
	if data != nil {
		id, err := NewSideDataStore(tx.SideData()).Create(ctx, data)
		if err != nil {
			return storageErr("create side-data", err)
		}
		rec.RelatedObjID = idPtr(id)
	}
	if err := tx.Records().Create(ctx, rec); err != nil {
		return storageErr("create record", err)
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context, subjects ...string) {
	if err := s.cache.Invalidate(ctx, subjects...); err != nil {
		s.logger.Warn("stream cache invalidation failed", "subjects", subjects, "error", err)
	}
}

func subjectsFor(rec *Record) []string {
	var subjects []string
	if rec.UserID != nil {
		subjects = append(subjects, userSubject(*rec.UserID))
	}
	if rec.VideoID != nil {
		subjects = append(subjects, videoSubject(*rec.VideoID))
	}
	if rec.TeamID != nil {
		subjects = append(subjects, teamSubject(*rec.TeamID))
	}
	return subjects
}

func userSubject(id int64) string  { return "user:" + strconv.FormatInt(id, 10) }
func videoSubject(id int64) string { return "video:" + strconv.FormatInt(id, 10) }
func teamSubject(id int64) string  { return "team:" + strconv.FormatInt(id, 10) }

func userID(u *platform.User) *int64 {
	if u == nil {
		return nil
	}
	return idPtr(u.ID)
}

// RecordVideoAdded records that user added video.
func (s *Service) RecordVideoAdded(ctx context.Context, video *platform.Video, user *platform.User) (*Record, error) {
	if video == nil {
		return nil, fmt.Errorf("%w: video is required", ErrInvalidInput)
	}
	return s.Write(ctx, WriteRequest{Type: KindVideoAdded, UserID: userID(user), Video: video})
}

// RecordVideoDeleted records a deletion, snapshotting the URL and title so
// the message renders after the video row is gone.
func (s *Service) RecordVideoDeleted(ctx context.Context, video *platform.Video, user *platform.User) (*Record, error) {
	if video == nil {
		return nil, fmt.Errorf("%w: video is required", ErrInvalidInput)
	}
	return s.Write(ctx, WriteRequest{
		Type:     KindVideoDeleted,
		UserID:   userID(user),
		Video:    video,
		SideData: VideoDeletion{URL: video.URL, Title: video.TitleDisplay()},
	})
}

// RecordVideoURLAdded records a new secondary URL.
func (s *Service) RecordVideoURLAdded(ctx context.Context, videoURL *platform.VideoURL, user *platform.User) (*Record, error) {
	if videoURL == nil || videoURL.Video == nil {
		return nil, fmt.Errorf("%w: video url is required", ErrInvalidInput)
	}
	return s.Write(ctx, WriteRequest{
		Type:     KindVideoURLAdded,
		UserID:   userID(user),
		Video:    videoURL.Video,
		SideData: URLEdit{NewURL: videoURL.URL},
	})
}

// RecordVideoURLMadePrimary records that videoURL replaced oldURL as the primary URL.
func (s *Service) RecordVideoURLMadePrimary(ctx context.Context, videoURL *platform.VideoURL, oldURL string, user *platform.User) (*Record, error) {
	if videoURL == nil || videoURL.Video == nil {
		return nil, fmt.Errorf("%w: video url is required", ErrInvalidInput)
	}
	return s.Write(ctx, WriteRequest{
		Type:     KindVideoURLEdited,
		UserID:   userID(user),
		Video:    videoURL.Video,
		SideData: URLEdit{OldURL: oldURL, NewURL: videoURL.URL},
	})
}

// RecordVideoURLDeleted records the removal of a secondary URL.
func (s *Service) RecordVideoURLDeleted(ctx context.Context, videoURL *platform.VideoURL, user *platform.User) (*Record, error) {
	if videoURL == nil || videoURL.Video == nil {
		return nil, fmt.Errorf("%w: video url is required", ErrInvalidInput)
	}
	return s.Write(ctx, WriteRequest{
		Type:     KindVideoURLDeleted,
		UserID:   userID(user),
		Video:    videoURL.Video,
		SideData: URLEdit{OldURL: videoURL.URL},
	})
}

// RecordComment records a comment on video, or on one of its subtitle
// languages when languageCode is set.
func (s *Service) RecordComment(ctx context.Context, video *platform.Video, comment *platform.Comment, languageCode string) (*Record, error) {
	if video == nil || comment == nil {
		return nil, fmt.Errorf("%w: video and comment are required", ErrInvalidInput)
	}
	if languageCode == "" {
		languageCode = comment.LanguageCode
	}
	return s.Write(ctx, WriteRequest{
		Type:         KindCommentAdded,
		UserID:       userID(comment.User),
		Video:        video,
		LanguageCode: languageCode,
		SideData:     CommentRef{CommentID: comment.ID},
	})
}

// RecordSubtitleVersion records a committed subtitle version, stamped with
// the version's own timestamp.
func (s *Service) RecordSubtitleVersion(ctx context.Context, version *platform.SubtitleVersion) (*Record, error) {
	if version == nil || version.Video == nil {
		return nil, fmt.Errorf("%w: version with video is required", ErrInvalidInput)
	}
	return s.Write(ctx, WriteRequest{
		Type:         KindVersionAdded,
		UserID:       userID(version.Author),
		Video:        version.Video,
		LanguageCode: version.LanguageCode,
		Created:      version.Created,
	})
}

// Decision is a moderation outcome on a subtitle version.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
	DecisionDeclined Decision = "declined"
	DecisionReviewed Decision = "reviewed"
)

var decisionKinds = map[Decision]Kind{
	DecisionApproved: KindVersionApproved,
	DecisionAccepted: KindVersionAccepted,
	DecisionRejected: KindVersionRejected,
	DecisionDeclined: KindVersionDeclined,
	DecisionReviewed: KindVersionReviewed,
}

// RecordVersionDecision records that user approved, accepted, rejected,
// declined or reviewed version.
func (s *Service) RecordVersionDecision(ctx context.Context, decision Decision, version *platform.SubtitleVersion, user *platform.User) (*Record, error) {
	kind, ok := decisionKinds[decision]
	if !ok {
		return nil, fmt.Errorf("%w: decision %q", ErrInvalidInput, decision)
	}
	if version == nil || version.Video == nil {
		return nil, fmt.Errorf("%w: version with video is required", ErrInvalidInput)
	}
	return s.Write(ctx, WriteRequest{
		Type:         kind,
		UserID:       userID(user),
		Video:        version.Video,
		LanguageCode: version.LanguageCode,
	})
}

// RecordMemberJoined records that a member joined their team.
func (s *Service) RecordMemberJoined(ctx context.Context, member *platform.Member) (*Record, error) {
	if member == nil || member.Team == nil || member.User == nil {
		return nil, fmt.Errorf("%w: member with team and user is required", ErrInvalidInput)
	}
	return s.Write(ctx, WriteRequest{
		Type:     KindMemberJoined,
		UserID:   userID(member.User),
		TeamID:   idPtr(member.Team.ID),
		SideData: RoleCodeFor(member.Role),
	})
}

// RecordMemberLeft records that a member left their team.
func (s *Service) RecordMemberLeft(ctx context.Context, member *platform.Member) (*Record, error) {
	if member == nil || member.Team == nil || member.User == nil {
		return nil, fmt.Errorf("%w: member with team and user is required", ErrInvalidInput)
	}
	return s.Write(ctx, WriteRequest{
		Type:   KindMemberLeft,
		UserID: userID(member.User),
		TeamID: idPtr(member.Team.ID),
	})
}
