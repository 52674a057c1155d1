package activity

import (
	"context"
	"errors"
	"html"
	"io"
	"log/slog"

	"github.com/microcosm-cc/bluemonday"
	"github.com/valyala/fasttemplate"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/rpggio/captionlog/internal/domain/platform"
	"github.com/rpggio/captionlog/internal/repository"
)

// Renderer turns records into localized, linked messages for a viewer.
// Rendering never fails: missing data degrades the message instead.
type Renderer struct {
	sideData   SideDataStore
	dir        Directory
	translator Translator
	links      platform.Links
	logger     *slog.Logger
	locale     string
	policy     *bluemonday.Policy
	strip      *bluemonday.Policy
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithDefaultLocale sets the locale used when a render call passes none.
func WithDefaultLocale(locale string) RendererOption {
	return func(r *Renderer) {
		if locale != "" {
			r.locale = locale
		}
	}
}

// NewRenderer creates a renderer. A nil translator renders untranslated msgids.
func NewRenderer(store Store, dir Directory, translator Translator, links platform.Links, logger *slog.Logger, opts ...RendererOption) *Renderer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	policy := bluemonday.NewPolicy()
	policy.AllowAttrs("href").OnElements("a")
	policy.RequireParseableURLs(true)
	policy.AllowURLSchemes("http", "https")
	policy.AllowRelativeURLs(true)

	r := &Renderer{
		sideData:   NewSideDataStore(store.SideData()),
		dir:        dir,
		translator: translator,
		links:      links,
		logger:     logger,
		locale:     "en",
		policy:     policy,
		strip:      bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render returns the HTML message of rec as seen by viewer in locale.
func (r *Renderer) Render(ctx context.Context, rec *Record, viewer *platform.User, locale string) string {
	if rec == nil {
		return ""
	}
	if locale == "" {
		locale = r.locale
	}
	desc, err := Lookup(rec.Type)
	if err != nil {
		r.logger.Warn("render of unknown activity type", "id", rec.ID, "type", rec.Type)
		return html.EscapeString(string(rec.Type))
	}

	in := MessageInput{
		Record:       rec,
		Viewer:       viewer,
		Links:        r.links,
		LanguageName: languageNamer(locale),
		Translate:    func(msgid string) string { return r.translate(msgid, locale) },
	}
	in.Actor = r.user(ctx, rec)
	in.Video = r.video(ctx, rec)
	in.Team = r.team(ctx, rec.TeamID)
	in.SideData = r.loadSideData(ctx, desc, rec)
	if ref, ok := in.SideData.(TeamRef); ok && ref.TeamID != 0 {
		in.Peer = r.team(ctx, &ref.TeamID)
		if in.Peer != nil {
			visible, err := r.dir.CanViewActivity(ctx, in.Peer, viewer)
			if err != nil {
				r.logger.Warn("peer team permission check failed", "id", rec.ID, "team_id", ref.TeamID, "error", err)
			}
			in.PeerVisible = err == nil && visible
		}
	}

	msg := desc.Message(in)
	return r.policy.Sanitize(splice(r.translate(msg.ID, locale), msg.Params))
}

// RenderText is Render with markup removed, for terminals and previews.
func (r *Renderer) RenderText(ctx context.Context, rec *Record, viewer *platform.User, locale string) string {
	return html.UnescapeString(r.strip.Sanitize(r.Render(ctx, rec, viewer, locale)))
}

// splice substitutes {name} placeholders. Unknown placeholders render as
// their name; a template that fails to expand is returned as is.
func splice(tmpl string, params map[string]string) string {
	out, err := fasttemplate.ExecuteFuncStringWithErr(tmpl, "{", "}", func(w io.Writer, tag string) (int, error) {
		if v, ok := params[tag]; ok {
			return w.Write([]byte(v))
		}
		return w.Write([]byte(html.EscapeString(tag)))
	})
	if err != nil {
		return tmpl
	}
	return out
}

func (r *Renderer) translate(msgid, locale string) string {
	if r.translator == nil {
		return msgid
	}
	return r.translator.Translate(msgid, locale)
}

// languageNamer names language codes in the display language of locale.
func languageNamer(locale string) func(string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	namer := display.Tags(tag)
	return func(code string) string {
		lang, err := language.Parse(code)
		if err != nil {
			return code
		}
		if name := namer.Name(lang); name != "" {
			return name
		}
		return code
	}
}

func (r *Renderer) user(ctx context.Context, rec *Record) *platform.User {
	if rec.UserID == nil {
		return nil
	}
	u, err := r.dir.GetUser(ctx, *rec.UserID)
	if err != nil {
		r.lookupFailed("user", rec, err)
		return nil
	}
	return u
}

func (r *Renderer) video(ctx context.Context, rec *Record) *platform.Video {
	if rec.VideoID == nil {
		return nil
	}
	v, err := r.dir.GetVideo(ctx, *rec.VideoID)
	if err != nil {
		r.lookupFailed("video", rec, err)
		return nil
	}
	return v
}

func (r *Renderer) team(ctx context.Context, id *int64) *platform.Team {
	if id == nil {
		return nil
	}
	t, err := r.dir.GetTeam(ctx, *id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			r.logger.Warn("team lookup failed", "team_id", *id, "error", err)
		}
		return nil
	}
	return t
}

func (r *Renderer) lookupFailed(what string, rec *Record, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		return
	}
	r.logger.Warn(what+" lookup failed", "id", rec.ID, "type", rec.Type, "error", err)
}

func (r *Renderer) loadSideData(ctx context.Context, desc Descriptor, rec *Record) SideData {
	if !desc.HasSideData() {
		return nil
	}
	if rec.RelatedObjID == nil {
		r.logger.Warn("record without side-data", "id", rec.ID, "type", rec.Type)
		return Tombstone{Of: desc.SideData}
	}
	data, err := r.sideData.Get(ctx, desc.SideData, *rec.RelatedObjID)
	if err != nil {
		r.logger.Warn("side-data unavailable", "id", rec.ID, "type", rec.Type, "related_obj_id", *rec.RelatedObjID, "error", err)
		if data == nil {
			return Tombstone{Of: desc.SideData}
		}
	}
	return data
}
