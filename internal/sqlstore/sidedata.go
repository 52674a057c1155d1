package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/captionlog/internal/domain/activity"
	"github.com/rpggio/captionlog/internal/repository"
)

// SideDataRepository implements activity.SideDataRepository.
type SideDataRepository struct {
	q querier
}

// NewSideDataRepository creates a SideDataRepository outside any transaction.
func NewSideDataRepository(db *DB) *SideDataRepository {
	return &SideDataRepository{q: db.DB}
}

// CreateVideoDeletion stores a deletion snapshot.
func (r *SideDataRepository) CreateVideoDeletion(ctx context.Context, d activity.VideoDeletion) (int64, error) {
	return r.insert(ctx, "video deletion", `INSERT INTO video_deletions (url, title) VALUES (?, ?)`, d.URL, d.Title)
}

// GetVideoDeletion loads a deletion snapshot.
func (r *SideDataRepository) GetVideoDeletion(ctx context.Context, id int64) (*activity.VideoDeletion, error) {
	var d activity.VideoDeletion
	err := r.q.QueryRowContext(ctx, `SELECT url, title FROM video_deletions WHERE id = ?`, id).Scan(&d.URL, &d.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video deletion: %w", err)
	}
	return &d, nil
}

// CreateURLEdit stores a URL edit.
func (r *SideDataRepository) CreateURLEdit(ctx context.Context, e activity.URLEdit) (int64, error) {
	return r.insert(ctx, "url edit", `INSERT INTO url_edits (old_url, new_url) VALUES (?, ?)`, e.OldURL, e.NewURL)
}

// GetURLEdit loads a URL edit.
func (r *SideDataRepository) GetURLEdit(ctx context.Context, id int64) (*activity.URLEdit, error) {
	var e activity.URLEdit
	err := r.q.QueryRowContext(ctx, `SELECT old_url, new_url FROM url_edits WHERE id = ?`, id).Scan(&e.OldURL, &e.NewURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get url edit: %w", err)
	}
	return &e, nil
}

// DeleteURLEdit removes a URL edit row.
func (r *SideDataRepository) DeleteURLEdit(ctx context.Context, id int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM url_edits WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete url edit: %w", err)
	}
	return nil
}

func (r *SideDataRepository) insert(ctx context.Context, what, query string, args ...any) (int64, error) {
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", what, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read %s id: %w", what, err)
	}
	return id, nil
}
