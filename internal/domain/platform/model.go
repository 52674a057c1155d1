// Package platform holds the shapes of the collaborators the activity engine
// reads from: users, teams, videos and the objects producers hand it. The
// engine never owns these rows; it only references them by id.
package platform

import "time"

// User is an account on the platform. A nil *User means an anonymous viewer.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	FullName    string `json:"full_name,omitempty"`
	IsSuperuser bool   `json:"is_superuser"`
	IsActive    bool   `json:"is_active"`
}

// DisplayName returns the full name when set, otherwise the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Team groups members and owns videos.
type Team struct {
	ID        int64  `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	IsVisible bool   `json:"is_visible"`
}

// Role is a team membership role.
type Role string

const (
	RoleOwner       Role = "owner"
	RoleAdmin       Role = "admin"
	RoleManager     Role = "manager"
	RoleContributor Role = "contributor"
	// RoleProjectOrLanguageManager manages a project or a language inside a team.
	RoleProjectOrLanguageManager Role = "project-or-language-manager"
)

// Member ties a user to a team with a role.
type Member struct {
	Team *Team `json:"team"`
	User *User `json:"user"`
	Role Role  `json:"role"`
}

// Video is a hosted video. TeamID is the single team-video linkage, nil when
// the video belongs to no team.
type Video struct {
	ID                       int64  `json:"id"`
	VideoID                  string `json:"video_id"`
	Title                    string `json:"title"`
	URL                      string `json:"url"`
	PrimaryAudioLanguageCode string `json:"primary_audio_language_code"`
	TeamID                   *int64 `json:"team_id,omitempty"`
}

// TitleDisplay returns the title, falling back to the primary URL.
func (v *Video) TitleDisplay() string {
	if v == nil {
		return ""
	}
	if v.Title != "" {
		return v.Title
	}
	return v.URL
}

// VideoURL is one of the URLs a video can be played from.
type VideoURL struct {
	ID      int64  `json:"id"`
	Video   *Video `json:"video"`
	URL     string `json:"url"`
	Primary bool   `json:"primary"`
}

// Comment is a user comment on a video or on one of its subtitle languages.
type Comment struct {
	ID           int64  `json:"id"`
	User         *User  `json:"user"`
	LanguageCode string `json:"language_code,omitempty"`
	Content      string `json:"content"`
}

// SubtitleVersion is a committed revision of a video's subtitles in one language.
type SubtitleVersion struct {
	ID           int64     `json:"id"`
	Video        *Video    `json:"video"`
	LanguageCode string    `json:"language_code"`
	Author       *User     `json:"author"`
	Created      time.Time `json:"created"`
}
