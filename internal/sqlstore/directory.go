package sqlstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rpggio/captionlog/internal/domain/platform"
	"github.com/rpggio/captionlog/internal/repository"
)

// Directory is the reference implementation of the user, team and video
// collaborators, backed by the users, teams, team_members and videos tables.
type Directory struct {
	db  *DB
	now func() time.Time
}

// NewDirectory creates a new Directory.
func NewDirectory(db *DB) *Directory {
	return &Directory{db: db, now: time.Now}
}

// CreateUser inserts a user and sets its id.
func (d *Directory) CreateUser(ctx context.Context, u *platform.User) error {
	result, err := d.db.ExecContext(ctx,
		`INSERT INTO users (username, full_name, is_superuser, is_active) VALUES (?, ?, ?, ?)`,
		u.Username, u.FullName, u.IsSuperuser, u.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create user %q: %w", u.Username, repository.ErrConflict)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.ID, err = result.LastInsertId()
	return err
}

// GetUser retrieves a user by id.
func (d *Directory) GetUser(ctx context.Context, id int64) (*platform.User, error) {
	var u platform.User
	err := d.db.QueryRowContext(ctx,
		`SELECT id, username, full_name, is_superuser, is_active FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.FullName, &u.IsSuperuser, &u.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetUserByUsername retrieves a user by username.
func (d *Directory) GetUserByUsername(ctx context.Context, username string) (*platform.User, error) {
	var id int64
	err := d.db.QueryRowContext(ctx, `SELECT id FROM users WHERE username = ?`, username).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return d.GetUser(ctx, id)
}

// UserTeams returns the ids of the teams the user is a member of.
func (d *Directory) UserTeams(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT team_id FROM team_members WHERE user_id = ? ORDER BY team_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user teams: %w", err)
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
		return nil, fmt.Errorf("error iterating user teams: %w", err)
	}
	return ids, nil
}

// CanViewProfile allows active profiles to everyone, and inactive ones to
// their owner and superusers.
func (d *Directory) CanViewProfile(ctx context.Context, user, viewer *platform.User) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsActive {
		return true, nil
	}
	return viewer != nil && (viewer.IsSuperuser || viewer.ID == user.ID), nil
}

// CreateTeam inserts a team and sets its id.
func (d *Directory) CreateTeam(ctx context.Context, t *platform.Team) error {
	result, err := d.db.ExecContext(ctx,
		`INSERT INTO teams (slug, name, is_visible) VALUES (?, ?, ?)`, t.Slug, t.Name, t.IsVisible)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create team %q: %w", t.Slug, repository.ErrConflict)
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	t.ID, err = result.LastInsertId()
	return err
}

// GetTeam retrieves a team by id.
func (d *Directory) GetTeam(ctx context.Context, id int64) (*platform.Team, error) {
	var t platform.Team
	err := d.db.QueryRowContext(ctx, `SELECT id, slug, name, is_visible FROM teams WHERE id = ?`, id).
		Scan(&t.ID, &t.Slug, &t.Name, &t.IsVisible)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &t, nil
}

// GetTeamBySlug retrieves a team by slug.
func (d *Directory) GetTeamBySlug(ctx context.Context, slug string) (*platform.Team, error) {
	var id int64
	err := d.db.QueryRowContext(ctx, `SELECT id FROM teams WHERE slug = ?`, slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return d.GetTeam(ctx, id)
}

// AddMember adds user to team with role and returns the membership.
func (d *Directory) AddMember(ctx context.Context, teamID, userID int64, role platform.Role) (*platform.Member, error) {
	_, err := d.db.ExecContext(ctx, `INSERT INTO team_members (team_id, user_id, role) VALUES (?, ?, ?)`, teamID, userID, string(role))
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, fmt.Errorf("failed to add member: %w", repository.ErrConflict)
		case isForeignKeyViolation(err):
			return nil, fmt.Errorf("failed to add member: %w", repository.ErrForeignKeyViolation)
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return d.member(ctx, teamID, userID, role)
}

// RemoveMember removes user from team and returns the former membership.
func (d *Directory) RemoveMember(ctx context.Context, teamID, userID int64) (*platform.Member, error) {
	var role string
	err := d.db.QueryRowContext(ctx, `SELECT role FROM team_members WHERE team_id = ? AND user_id = ?`, teamID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	m, err := d.member(ctx, teamID, userID, platform.Role(role))
	if err != nil {
		return nil, err
	}
	if _, err := d.db.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = ? AND user_id = ?`, teamID, userID); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}
	return m, nil
}

func (d *Directory) member(ctx context.Context, teamID, userID int64, role platform.Role) (*platform.Member, error) {
	team, err := d.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	user, err := d.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &platform.Member{Team: team, User: user, Role: role}, nil
}

func (d *Directory) isMember(ctx context.Context, teamID, userID int64) (bool, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM team_members WHERE team_id = ? AND user_id = ?`, teamID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return n > 0, nil
}

// CanViewActivity allows a visible team's activity to everyone and an
// invisible team's to its members and superusers.
func (d *Directory) CanViewActivity(ctx context.Context, team *platform.Team, viewer *platform.User) (bool, error) {
	if team == nil {
		return false, nil
	}
	if team.IsVisible {
		return true, nil
	}
	if viewer == nil {
		return false, nil
	}
	if viewer.IsSuperuser {
		return true, nil
	}
	return d.isMember(ctx, team.ID, viewer.ID)
}

// CreateVideo inserts a video and sets its id.
func (d *Directory) CreateVideo(ctx context.Context, v *platform.Video) error {
	if v.VideoID == "" {
		v.VideoID = uuid.NewString()
	}
	result, err := d.db.ExecContext(ctx,
		`INSERT INTO videos (video_id, title, url, primary_audio_language_code, team_id) VALUES (?, ?, ?, ?, ?)`,
		v.VideoID, v.Title, v.URL, v.PrimaryAudioLanguageCode, nullID(v.TeamID))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create video %q: %w", v.VideoID, repository.ErrConflict)
		}
		return fmt.Errorf("failed to create video: %w", err)
	}
	v.ID, err = result.LastInsertId()
	return err
}

// GetVideo retrieves a video by id.
func (d *Directory) GetVideo(ctx context.Context, id int64) (*platform.Video, error) {
	var v platform.Video
	var teamID sql.NullInt64
	err := d.db.QueryRowContext(ctx,
		`SELECT id, video_id, title, url, primary_audio_language_code, team_id FROM videos WHERE id = ?`, id,
	).Scan(&v.ID, &v.VideoID, &v.Title, &v.URL, &v.PrimaryAudioLanguageCode, &teamID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	v.TeamID = fromNull(teamID)
	return &v, nil
}

// SetVideoTeam changes the team that owns a video.
func (d *Directory) SetVideoTeam(ctx context.Context, id int64, teamID *int64) error {
	result, err := d.db.ExecContext(ctx, `UPDATE videos SET team_id = ? WHERE id = ?`, nullID(teamID), id)
	if err != nil {
		return fmt.Errorf("failed to set video team: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteVideo removes a video row.
func (d *Directory) DeleteVideo(ctx context.Context, id int64) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	return nil
}

// CanViewVideo allows unowned videos and videos of visible teams to
// everyone, and other videos to the owning team's members and superusers.
func (d *Directory) CanViewVideo(ctx context.Context, video *platform.Video, viewer *platform.User) (bool, error) {
	if video == nil {
		return false, nil
	}
	if video.TeamID == nil {
		return true, nil
	}
	team, err := d.GetTeam(ctx, *video.TeamID)
	if errors.Is(err, repository.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return d.CanViewActivity(ctx, team, viewer)
}

// CreateAPIKey issues a new key for userID and returns the plaintext token.
// Only its hash is stored.
func (d *Directory) CreateAPIKey(ctx context.Context, userID int64, description string) (string, error) {
	token := uuid.NewString()
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, user_id, description, created_at) VALUES (?, ?, ?, ?)`,
		hashAPIKey(token), userID, description, d.now().UnixMicro())
	if err != nil {
		if isForeignKeyViolation(err) {
			return "", fmt.Errorf("failed to create api key: %w", repository.ErrForeignKeyViolation)
		}
		return "", fmt.Errorf("failed to create api key: %w", err)
	}
	return token, nil
}

// ResolveAPIKey returns the user an API key belongs to.
func (d *Directory) ResolveAPIKey(ctx context.Context, token string) (*platform.User, error) {
	hash := hashAPIKey(token)
	var userID int64
	err := d.db.QueryRowContext(ctx, `SELECT user_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve api key: %w", err)
	}
	if _, err := d.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, d.now().UnixMicro(), hash); err != nil {
		return nil, fmt.Errorf("failed to update api key: %w", err)
	}
	return d.GetUser(ctx, userID)
}

func hashAPIKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
