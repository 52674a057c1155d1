package activity

import (
	"fmt"
	"sort"
)

// Descriptor is the immutable registry entry of one event kind.
type Descriptor struct {
	Slug     Kind         `json:"slug"`
	Label    string       `json:"label"`
	Active   bool         `json:"active"`
	SideData SideDataKind `json:"side_data,omitempty"`
	// TeamActivity marks membership kinds, listed by the team activity view
	// rather than the team video activity view.
	TeamActivity bool `json:"team_activity,omitempty"`
	// PrivateToTeam kinds never leave their team's stream and are never copied.
	PrivateToTeam bool        `json:"private_to_team,omitempty"`
	Message       MessageFunc `json:"-"`
}

// HasSideData reports whether records of this kind carry a related_obj_id.
func (d Descriptor) HasSideData() bool {
	return d.SideData != SideDataNone
}

// Registry maps kinds to descriptors. It is built once and never mutated.
type Registry struct {
	byKind map[Kind]Descriptor
}

func newRegistry(descriptors ...Descriptor) *Registry {
	r := &Registry{byKind: make(map[Kind]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if _, dup := r.byKind[d.Slug]; dup {
			panic(fmt.Sprintf("activity: duplicate kind %q", d.Slug))
		}
		if d.Message == nil {
			panic(fmt.Sprintf("activity: kind %q has no message", d.Slug))
		}
		r.byKind[d.Slug] = d
	}
	return r
}

// Lookup returns the descriptor of kind.
func (r *Registry) Lookup(kind Kind) (Descriptor, error) {
	d, ok := r.byKind[kind]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownType, kind)
	}
	return d, nil
}

// Descriptors returns all descriptors ordered by slug.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.byKind))
	for _, d := range r.byKind {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// TeamActivityKinds returns the kinds shown by the team activity view.
func (r *Registry) TeamActivityKinds() []Kind {
	var out []Kind
	for _, d := range r.Descriptors() {
		if d.TeamActivity {
			out = append(out, d.Slug)
		}
	}
	return out
}

var kinds = newRegistry(
	Descriptor{Slug: KindVideoAdded, Label: "Video added", Active: true, Message: videoAddedMessage},
	Descriptor{Slug: KindVideoTitleChanged, Label: "Video title changed", Message: videoTitleChangedMessage},
	Descriptor{Slug: KindCommentAdded, Label: "Comment added", Active: true, SideData: SideDataCommentRef, Message: commentAddedMessage},
	Descriptor{Slug: KindVersionAdded, Label: "Version added", Active: true, Message: languageMessage("{user} edited <a href=\"{language_url}\">{language} subtitles</a> for <a href=\"{video_url}\">{video}</a>")},
	Descriptor{Slug: KindVideoURLAdded, Label: "Video URL added", Active: true, SideData: SideDataURLEdit, Message: videoURLAddedMessage},
	Descriptor{Slug: KindTranslationAdded, Label: "Translation started", Message: languageMessage("{user} started a translation to <a href=\"{language_url}\">{language}</a> for <a href=\"{video_url}\">{video}</a>")},
	Descriptor{Slug: KindSubtitleRequestCreated, Label: "Subtitle request created", Message: languageMessage("{user} requested {language} subtitles for <a href=\"{video_url}\">{video}</a>")},
	Descriptor{Slug: KindVersionApproved, Label: "Version approved", Active: true, Message: languageMessage("{user} approved <a href=\"{language_url}\">{language} subtitles</a> for <a href=\"{video_url}\">{video}</a>")},
	Descriptor{Slug: KindVersionAccepted, Label: "Version accepted", Active: true, Message: languageMessage("{user} accepted <a href=\"{language_url}\">{language} subtitles</a> for <a href=\"{video_url}\">{video}</a>")},
	Descriptor{Slug: KindVersionRejected, Label: "Version rejected", Active: true, Message: languageMessage("{user} rejected <a href=\"{language_url}\">{language} subtitles</a> for <a href=\"{video_url}\">{video}</a>")},
	Descriptor{Slug: KindVersionDeclined, Label: "Version declined", Active: true, Message: languageMessage("{user} declined <a href=\"{language_url}\">{language} subtitles</a> for <a href=\"{video_url}\">{video}</a>")},
	Descriptor{Slug: KindVersionReviewed, Label: "Version reviewed", Active: true, Message: languageMessage("{user} reviewed <a href=\"{language_url}\">{language} subtitles</a> for <a href=\"{video_url}\">{video}</a>")},
	Descriptor{Slug: KindMemberJoined, Label: "Member joined", Active: true, SideData: SideDataRoleCode, TeamActivity: true, Message: memberJoinedMessage},
	Descriptor{Slug: KindMemberLeft, Label: "Member left", Active: true, TeamActivity: true, Message: memberLeftMessage},
	Descriptor{Slug: KindVideoDeleted, Label: "Video deleted", Active: true, SideData: SideDataVideoDeletion, Message: videoDeletedMessage},
	Descriptor{Slug: KindVideoURLEdited, Label: "Video URL edited", Active: true, SideData: SideDataURLEdit, Message: videoURLEditedMessage},
	Descriptor{Slug: KindVideoURLDeleted, Label: "Video URL deleted", Active: true, SideData: SideDataURLEdit, Message: videoURLDeletedMessage},
	Descriptor{Slug: KindVideoMovedToTeam, Label: "Video moved to team", Active: true, SideData: SideDataTeamRef, PrivateToTeam: true, Message: movedToTeamMessage},
	Descriptor{Slug: KindVideoMovedFromTeam, Label: "Video moved from team", Active: true, SideData: SideDataTeamRef, PrivateToTeam: true, Message: movedFromTeamMessage},
)

// Kinds returns the process-wide kind registry.
func Kinds() *Registry {
	return kinds
}

// Lookup returns the descriptor of kind from the process-wide registry.
func Lookup(kind Kind) (Descriptor, error) {
	return kinds.Lookup(kind)
}
