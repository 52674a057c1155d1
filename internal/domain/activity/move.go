package activity

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rpggio/captionlog/internal/domain/platform"
)

// MoveResult summarizes one video move.
type MoveResult struct {
	MoveID        string  `json:"move_id"`
	Copied        int     `json:"copied"`
	Retagged      int     `json:"retagged"`
	DeletedCopies int64   `json:"deleted_copies"`
	MovedFrom     *Record `json:"moved_from,omitempty"`
	MovedTo       *Record `json:"moved_to,omitempty"`
}

// RecordVideoMoved migrates a video's history from one team to another.
//
// Each original of the video tagged with fromTeam is copied back onto
// fromTeam, re-tagged to toTeam, and any copies of it left on toTeam by an
// earlier move are removed. A private move-from record is written on fromTeam
// and a private move-to record on toTeam. Either team may be nil for a video
// entering or leaving team ownership. Everything happens in one unit of work.
func (s *Service) RecordVideoMoved(ctx context.Context, video *platform.Video, user *platform.User, fromTeam, toTeam *int64) (*MoveResult, error) {
	if video == nil {
		return nil, fmt.Errorf("%w: video is required", ErrInvalidInput)
	}
	if sameID(fromTeam, toTeam) {
		return nil, fmt.Errorf("%w: source and destination team are the same", ErrInvalidInput)
	}

	now := s.now()
	var movedFrom, movedTo *Record
	if fromTeam != nil {
		rec, err := s.prepare(WriteRequest{Type: KindVideoMovedFromTeam, UserID: userID(user), Video: video, TeamID: fromTeam, SideData: TeamRefFor(toTeam), Created: now})
		if err != nil {
			return nil, err
		}
		movedFrom = rec
	}
	if toTeam != nil {
		rec, err := s.prepare(WriteRequest{Type: KindVideoMovedToTeam, UserID: userID(user), Video: video, TeamID: toTeam, SideData: TeamRefFor(fromTeam), Created: now})
		if err != nil {
			return nil, err
		}
		movedTo = rec
	}

	res := &MoveResult{MoveID: uuid.NewString()}
	logger := s.logger.With("move_id", res.MoveID, "video_id", video.ID, "from_team", fmtID(fromTeam), "to_team", fmtID(toTeam))
	subjects := map[string]struct{}{videoSubject(video.ID): {}}

	err := s.store.InTx(ctx, func(tx Store) error {
		movable, err := tx.Records().ListMovable(ctx, video.ID, fromTeam)
		if err != nil {
			return storageErr("list movable", err)
		}
		for i := range movable {
			orig := &movable[i]
			if orig.UserID != nil {
				subjects[userSubject(*orig.UserID)] = struct{}{}
			}
			if fromTeam != nil {
				if err := tx.Records().Create(ctx, orig.copyFor(fromTeam)); err != nil {
					return storageErr("create copy", err)
				}
				res.Copied++
			}
			if err := tx.Records().UpdateTeam(ctx, orig.ID, toTeam); err != nil {
				return storageErr("update team", err)
			}
			res.Retagged++
			if toTeam != nil {
				n, err := tx.Records().DeleteCopies(ctx, orig.ID, toTeam)
				if err != nil {
					return storageErr("delete copies", err)
				}
				res.DeletedCopies += n
			}
		}
		if movedFrom != nil {
			if err := s.insert(ctx, tx, movedFrom, TeamRefFor(toTeam)); err != nil {
				return err
			}
		}
		if movedTo != nil {
			if err := s.insert(ctx, tx, movedTo, TeamRefFor(fromTeam)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Warn("video move rolled back", "error", err)
		return nil, storageErr("move video", err)
	}
	res.MovedFrom = movedFrom
	res.MovedTo = movedTo

	if user != nil {
		subjects[userSubject(user.ID)] = struct{}{}
	}
	for _, team := range []*int64{fromTeam, toTeam} {
		if team != nil {
			subjects[teamSubject(*team)] = struct{}{}
		}
	}
	keys := make([]string, 0, len(subjects))
	for k := range subjects {
		keys = append(keys, k)
	}
	s.invalidate(ctx, keys...)

	logger.Info("video moved", "copied", res.Copied, "retagged", res.Retagged, "deleted_copies", res.DeletedCopies)
	return res, nil
}
