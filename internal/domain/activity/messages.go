package activity

import (
	"html"
	"sort"

	"github.com/rpggio/captionlog/internal/domain/platform"
)

// MessageInput is everything a kind's message template may read. The
// renderer resolves it from the record and the viewer before calling the
// template, so templates stay pure.
type MessageInput struct {
	Record   *Record
	Viewer   *platform.User
	Actor    *platform.User
	Video    *platform.Video
	Team     *platform.Team
	SideData SideData
	// Peer is the other team of a move event, nil when unknown or unowned.
	Peer *platform.Team
	// PeerVisible reports whether Viewer may see Peer's activity.
	PeerVisible  bool
	Links        platform.Links
	LanguageName func(code string) string
	Translate    func(msgid string) string
}

// Message is a translation key plus the HTML-safe parameters spliced into it.
type Message struct {
	ID     string
	Params map[string]string
}

// MessageFunc renders the message of one kind.
type MessageFunc func(in MessageInput) Message

func (in MessageInput) translate(msgid string) string {
	if in.Translate == nil {
		return msgid
	}
	return in.Translate(msgid)
}

func (in MessageInput) languageName(code string) string {
	if code == "" {
		return ""
	}
	if in.LanguageName == nil {
		return code
	}
	return in.LanguageName(code)
}

// params fills the well-known parameters. Missing values become "".
func (in MessageInput) params() map[string]string {
	actor := in.translate("Someone")
	if in.Actor != nil {
		actor = in.Actor.DisplayName()
	}
	lang := ""
	if in.Record != nil {
		lang = in.Record.LanguageCode
	}
	p := map[string]string{
		"user":         html.EscapeString(actor),
		"user_url":     html.EscapeString(in.Links.Profile(in.Actor)),
		"video":        html.EscapeString(in.Video.TitleDisplay()),
		"video_url":    html.EscapeString(in.Links.Video(in.Video)),
		"language":     html.EscapeString(in.languageName(lang)),
		"language_url": html.EscapeString(in.Links.Language(in.Video, lang)),
		"team":         "",
		"team_url":     "",
	}
	if in.Team != nil {
		p["team"] = html.EscapeString(in.Team.Name)
		p["team_url"] = html.EscapeString(in.Links.TeamDashboard(in.Team))
	}
	return p
}

func videoAddedMessage(in MessageInput) Message {
	return Message{ID: `{user} added <a href="{video_url}">{video}</a>`, Params: in.params()}
}

func videoTitleChangedMessage(in MessageInput) Message {
	return Message{ID: `{user} changed the title of <a href="{video_url}">{video}</a>`, Params: in.params()}
}

func languageMessage(msgid string) MessageFunc {
	return func(in MessageInput) Message {
		return Message{ID: msgid, Params: in.params()}
	}
}

func commentAddedMessage(in MessageInput) Message {
	p := in.params()
	if in.Record != nil && in.Record.LanguageCode != "" {
		return Message{ID: `{user} commented on <a href="{language_url}">{language} subtitles</a> for <a href="{video_url}">{video}</a>`, Params: p}
	}
	return Message{ID: `{user} commented on <a href="{video_url}">{video}</a>`, Params: p}
}

func urlEditParams(in MessageInput) (map[string]string, bool) {
	p := in.params()
	edit, ok := in.SideData.(URLEdit)
	if !ok {
		return p, false
	}
	p["old_url"] = html.EscapeString(edit.OldURL)
	p["new_url"] = html.EscapeString(edit.NewURL)
	return p, true
}

func videoURLAddedMessage(in MessageInput) Message {
	p, ok := urlEditParams(in)
	if !ok {
		return Message{ID: `{user} edited the URLs of <a href="{video_url}">{video}</a>`, Params: p}
	}
	return Message{ID: `{user} added a URL for <a href="{video_url}">{video}</a>: <a href="{new_url}">{new_url}</a>`, Params: p}
}

func videoURLEditedMessage(in MessageInput) Message {
	p, ok := urlEditParams(in)
	if !ok {
		return Message{ID: `{user} edited the URLs of <a href="{video_url}">{video}</a>`, Params: p}
	}
	return Message{ID: `{user} changed the primary URL of <a href="{video_url}">{video}</a> from <a href="{old_url}">{old_url}</a> to <a href="{new_url}">{new_url}</a>`, Params: p}
}

func videoURLDeletedMessage(in MessageInput) Message {
	p, ok := urlEditParams(in)
	if !ok {
		return Message{ID: `{user} edited the URLs of <a href="{video_url}">{video}</a>`, Params: p}
	}
	return Message{ID: `{user} deleted a URL for <a href="{video_url}">{video}</a>: <a href="{old_url}">{old_url}</a>`, Params: p}
}

func videoDeletedMessage(in MessageInput) Message {
	p := in.params()
	if snap, ok := in.SideData.(VideoDeletion); ok {
		p["title"] = html.EscapeString(snap.Title)
		p["url"] = html.EscapeString(snap.URL)
	} else {
		p["title"] = html.EscapeString(in.translate("deleted"))
		p["url"] = ""
	}
	return Message{ID: `{user} deleted a video: {title}`, Params: p}
}

var roleLabels = map[platform.Role]string{
	platform.RoleOwner:                    "Owner",
	platform.RoleAdmin:                    "Admin",
	platform.RoleManager:                  "Manager",
	platform.RoleContributor:              "Contributor",
	platform.RoleProjectOrLanguageManager: "Project/Language Manager",
}

func memberJoinedMessage(in MessageInput) Message {
	p := in.params()
	p["role"] = ""
	if code, ok := in.SideData.(RoleCode); ok {
		if label, ok := roleLabels[code.Role()]; ok {
			p["role"] = html.EscapeString(in.translate(label))
		}
	}
	if p["role"] == "" {
		return Message{ID: `{user} joined the <a href="{team_url}">{team}</a> team`, Params: p}
	}
	return Message{ID: `{user} joined the <a href="{team_url}">{team}</a> team as {role}`, Params: p}
}

func memberLeftMessage(in MessageInput) Message {
	return Message{ID: `{user} left the <a href="{team_url}">{team}</a> team`, Params: in.params()}
}

// peerParams adds the peer team under prefix, or reports that it must be
// redacted for this viewer.
func peerParams(in MessageInput, prefix string) (map[string]string, bool) {
	p := in.params()
	if in.Peer == nil || !in.PeerVisible {
		return p, false
	}
	p[prefix] = html.EscapeString(in.Peer.Name)
	p[prefix+"_url"] = html.EscapeString(in.Links.TeamDashboard(in.Peer))
	return p, true
}

func unownedPeer(in MessageInput) bool {
	ref, ok := in.SideData.(TeamRef)
	return ok && ref.TeamID == 0
}

func movedToTeamMessage(in MessageInput) Message {
	if unownedPeer(in) {
		return Message{ID: `{user} moved <a href="{video_url}">{video}</a> into the team`, Params: in.params()}
	}
	p, visible := peerParams(in, "from_team")
	if !visible {
		return Message{ID: `{user} moved <a href="{video_url}">{video}</a> from another team`, Params: p}
	}
	return Message{ID: `{user} moved <a href="{video_url}">{video}</a> from <a href="{from_team_url}">{from_team}</a>`, Params: p}
}

func movedFromTeamMessage(in MessageInput) Message {
	if unownedPeer(in) {
		return Message{ID: `{user} removed <a href="{video_url}">{video}</a> from the team`, Params: in.params()}
	}
	p, visible := peerParams(in, "to_team")
	if !visible {
		return Message{ID: `{user} moved <a href="{video_url}">{video}</a> to another team`, Params: p}
	}
	return Message{ID: `{user} moved <a href="{video_url}">{video}</a> to <a href="{to_team_url}">{to_team}</a>`, Params: p}
}

// MessageIDs lists every msgid the registry can produce, for catalog tooling.
func MessageIDs() []string {
	seen := map[string]bool{}
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	team := &platform.Team{ID: 1, Name: "t"}
	samples := []MessageInput{
		{Record: &Record{}},
		{Record: &Record{LanguageCode: "en"}},
		{Record: &Record{}, SideData: URLEdit{}},
		{Record: &Record{}, SideData: VideoDeletion{}},
		{Record: &Record{}, SideData: RoleCodeFor(platform.RoleContributor)},
		{Record: &Record{}, SideData: TeamRef{}},
		{Record: &Record{}, SideData: TeamRef{TeamID: 1}, Peer: team},
		{Record: &Record{}, SideData: TeamRef{TeamID: 1}, Peer: team, PeerVisible: true},
	}
	for _, d := range kinds.Descriptors() {
		for _, in := range samples {
			add(d.Message(in).ID)
		}
	}
	for _, label := range roleLabels {
		add(label)
	}
	add("Someone")
	add("deleted")
	sort.Strings(ids)
	return ids
}
