package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/captionlog/internal/domain/activity"
	"github.com/rpggio/captionlog/internal/repository"
)

const recordColumns = `id, type, user_id, video_id, video_language_code, team_id,
	language_code, related_obj_id, created, copied_from_id, private_to_team`

// RecordRepository implements activity.RecordRepository.
type RecordRepository struct {
	q querier
}

// NewRecordRepository creates a RecordRepository outside any transaction.
func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{q: db.DB}
}

// Create inserts rec and sets its id.
func (r *RecordRepository) Create(ctx context.Context, rec *activity.Record) error {
	query := `
		INSERT INTO activity_records (
			type, user_id, video_id, video_language_code, team_id,
			language_code, related_obj_id, created, copied_from_id, private_to_team
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.q.ExecContext(ctx, query,
		string(rec.Type),
		nullID(rec.UserID),
		nullID(rec.VideoID),
		rec.VideoLanguageCode,
		nullID(rec.TeamID),
		rec.LanguageCode,
		nullID(rec.RelatedObjID),
		rec.Created.UnixMicro(),
		nullID(rec.CopiedFromID),
		rec.PrivateToTeam,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("failed to create activity record: %w", repository.ErrForeignKeyViolation)
		}
		return fmt.Errorf("failed to create activity record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read activity record id: %w", err)
	}
	rec.ID = id
	return nil
}

// Get retrieves a record by id.
func (r *RecordRepository) Get(ctx context.Context, id int64) (*activity.Record, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM activity_records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity record: %w", err)
	}
	return rec, nil
}

// FindOriginal returns the original matching key.
func (r *RecordRepository) FindOriginal(ctx context.Context, key activity.OriginalKey) (*activity.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM activity_records
		WHERE copied_from_id IS NULL AND type = ? AND language_code = ? AND created = ?`
	args := []any{string(key.Type), key.LanguageCode, key.Created.UnixMicro()}
	cond, condArgs := eqNullable("video_id", key.VideoID)
	query += " AND " + cond
	args = append(args, condArgs...)
	cond, condArgs = eqNullable("user_id", key.UserID)
	query += " AND " + cond
	args = append(args, condArgs...)
	query += " ORDER BY id LIMIT 1"

	rec, err := scanRecord(r.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find original: %w", err)
	}
	return rec, nil
}

// List returns the records matching q, newest first unless q.Ascending.
func (r *RecordRepository) List(ctx context.Context, q activity.Query) ([]activity.Record, error) {
	var conditions []string
	var args []any

	if q.UserID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, *q.UserID)
	}
	if q.VideoID != nil {
		conditions = append(conditions, "video_id = ?")
		args = append(args, *q.VideoID)
	}
	if q.TeamID != nil {
		conditions = append(conditions, "team_id = ?")
		args = append(args, *q.TeamID)
	}
	if q.OriginalsOnly {
		conditions = append(conditions, "copied_from_id IS NULL")
	}
	if q.ExcludePrivate {
		conditions = append(conditions, "private_to_team = 0")
	}
	if len(q.Types) > 0 {
		in, inArgs := inKinds(q.Types)
		conditions = append(conditions, "type IN "+in)
		args = append(args, inArgs...)
	}
	if len(q.ExcludeTypes) > 0 {
		in, inArgs := inKinds(q.ExcludeTypes)
		conditions = append(conditions, "type NOT IN "+in)
		args = append(args, inArgs...)
	}
	if q.LanguageCode != "" {
		conditions = append(conditions, "language_code = ?")
		args = append(args, q.LanguageCode)
	}
	if q.VideoLanguageCode != "" {
		conditions = append(conditions, "video_language_code = ?")
		args = append(args, q.VideoLanguageCode)
	}
	if q.Feed != nil {
		cond, condArgs := feedCondition(q.Feed)
		conditions = append(conditions, cond)
		args = append(args, condArgs...)
	}
	if q.After != nil {
		op := "<"
		if q.Ascending {
			op = ">"
		}
		micros := q.After.Created.UnixMicro()
		conditions = append(conditions, fmt.Sprintf("(created %s ? OR (created = ? AND id %s ?))", op, op))
		args = append(args, micros, micros, q.After.ID)
	}

	query := `SELECT ` + recordColumns + ` FROM activity_records`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	if q.Ascending {
		query += " ORDER BY created ASC, id ASC"
	} else {
		query += " ORDER BY created DESC, id DESC"
	}
	if q.Limit > 0 || q.Offset > 0 {
		limit := q.Limit
		if limit <= 0 {
			limit = 1 << 30
		}
		query += " LIMIT ?"
		args = append(args, limit)
		if q.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, q.Offset)
		}
	}

	return r.query(ctx, "list activity", query, args...)
}

// feedCondition selects the viewer's own originals plus everything tagged
// with the viewer's teams, then hides teams outside the allowed set.
func feedCondition(scope *activity.FeedScope) (string, []any) {
	cond := "((user_id = ? AND copied_from_id IS NULL)"
	args := []any{scope.UserID}
	if len(scope.TeamIDs) > 0 {
		in, inArgs := inIDs(scope.TeamIDs)
		cond += " OR team_id IN " + in
		args = append(args, inArgs...)
	}
	cond += ")"
	if scope.Unrestricted {
		return cond, args
	}
	if len(scope.AllowedTeamIDs) == 0 {
		return cond + " AND team_id IS NULL", args
	}
	in, inArgs := inIDs(scope.AllowedTeamIDs)
	return cond + " AND (team_id IS NULL OR team_id IN " + in + ")", append(args, inArgs...)
}

// ListMovable returns the public originals of a video tagged with teamID.
func (r *RecordRepository) ListMovable(ctx context.Context, videoID int64, teamID *int64) ([]activity.Record, error) {
	cond, condArgs := eqNullable("team_id", teamID)
	query := `SELECT ` + recordColumns + ` FROM activity_records
		WHERE video_id = ? AND copied_from_id IS NULL AND private_to_team = 0 AND ` + cond + `
		ORDER BY created ASC, id ASC`
	return r.query(ctx, "list movable", query, append([]any{videoID}, condArgs...)...)
}

// UpdateTeam re-tags one record.
func (r *RecordRepository) UpdateTeam(ctx context.Context, id int64, teamID *int64) error {
	result, err := r.q.ExecContext(ctx, `UPDATE activity_records SET team_id = ? WHERE id = ?`, nullID(teamID), id)
	if err != nil {
		return fmt.Errorf("failed to update activity team: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update activity team: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteCopies removes the copies of an original tagged with teamID.
func (r *RecordRepository) DeleteCopies(ctx context.Context, originalID int64, teamID *int64) (int64, error) {
	cond, condArgs := eqNullable("team_id", teamID)
	result, err := r.q.ExecContext(ctx, `DELETE FROM activity_records WHERE copied_from_id = ? AND `+cond,
		append([]any{originalID}, condArgs...)...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete copies: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete copies: %w", err)
	}
	return n, nil
}

// TeamsForUser returns the distinct teams tagged on a user's originals.
func (r *RecordRepository) TeamsForUser(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT DISTINCT team_id FROM activity_records
		WHERE user_id = ? AND copied_from_id IS NULL AND team_id IS NOT NULL
		ORDER BY team_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for user: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan team id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team ids: %w", err)
	}
	return ids, nil
}

func (r *RecordRepository) query(ctx context.Context, op, query string, args ...any) ([]activity.Record, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	var recs []activity.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity record: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return recs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*activity.Record, error) {
	var rec activity.Record
	var kind string
	var userID, videoID, teamID, relatedID, copiedFrom sql.NullInt64
	var created int64
	if err := s.Scan(
		&rec.ID,
		&kind,
		&userID,
		&videoID,
		&rec.VideoLanguageCode,
		&teamID,
		&rec.LanguageCode,
		&relatedID,
		&created,
		&copiedFrom,
		&rec.PrivateToTeam,
	); err != nil {
		return nil, err
	}
	rec.Type = activity.Kind(kind)
	rec.UserID = fromNull(userID)
	rec.VideoID = fromNull(videoID)
	rec.TeamID = fromNull(teamID)
	rec.RelatedObjID = fromNull(relatedID)
	rec.CopiedFromID = fromNull(copiedFrom)
	rec.Created = time.UnixMicro(created).UTC()
	return &rec, nil
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func fromNull(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func eqNullable(column string, id *int64) (string, []any) {
	if id == nil {
		return column + " IS NULL", nil
	}
	return column + " = ?", []any{*id}
}

func inIDs(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return placeholders(len(ids)), args
}

func inKinds(kinds []activity.Kind) (string, []any) {
	args := make([]any, len(kinds))
	for i, k := range kinds {
		args[i] = string(k)
	}
	return placeholders(len(kinds)), args
}

func placeholders(n int) string {
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", n), ", ") + ")"
}
