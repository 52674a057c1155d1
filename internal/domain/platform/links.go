package platform

import (
	"net/url"
	"strings"
)

// Links builds the absolute URLs that activity messages point at.
type Links struct {
	BaseURL string
}

// NewLinks creates a link builder rooted at baseURL. An empty base produces
// site-relative paths.
func NewLinks(baseURL string) Links {
	return Links{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Video returns the video page URL.
func (l Links) Video(v *Video) string {
	if v == nil || v.VideoID == "" {
		return ""
	}
	return l.BaseURL + "/videos/" + url.PathEscape(v.VideoID) + "/"
}

// Language returns the page for one subtitle language of a video.
func (l Links) Language(v *Video, languageCode string) string {
	if v == nil || v.VideoID == "" || languageCode == "" {
		return ""
	}
	return l.BaseURL + "/videos/" + url.PathEscape(v.VideoID) + "/" + url.PathEscape(languageCode) + "/"
}

// TeamDashboard returns the team dashboard URL.
func (l Links) TeamDashboard(t *Team) string {
	if t == nil || t.Slug == "" {
		return ""
	}
	return l.BaseURL + "/teams/" + url.PathEscape(t.Slug) + "/"
}

// Profile returns the user profile URL.
func (l Links) Profile(u *User) string {
	if u == nil || u.Username == "" {
		return ""
	}
	return l.BaseURL + "/profiles/" + url.PathEscape(u.Username) + "/"
}
