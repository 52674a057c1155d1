package activity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/captionlog/internal/domain/activity"
	"github.com/rpggio/captionlog/internal/domain/platform"
	"github.com/rpggio/captionlog/internal/i18n"
	"github.com/rpggio/captionlog/internal/sqlstore"
)

func TestRenderUnknownTypeFallsBackToTheTag(t *testing.T) {
	f := newFixture(t)
	rec := &activity.Record{ID: 1, Type: "<b>mystery</b>"}

	require.Equal(t, "&lt;b&gt;mystery&lt;/b&gt;", f.renderer.Render(f.ctx, rec, nil, "en"))
	require.Empty(t, f.renderer.Render(f.ctx, nil, nil, "en"))
}

func TestRenderLinksVideoAndLanguage(t *testing.T) {
	f := newFixture(t)
	u := f.user("u")
	v := f.video("v", "V", "http://x/v.mp4", nil)
	rec, err := f.svc.RecordSubtitleVersion(f.ctx, &platform.SubtitleVersion{Video: v, LanguageCode: "en", Author: u, Created: epoch})
	require.NoError(t, err)

	out := f.renderer.Render(f.ctx, rec, nil, "en")
	assert.Contains(t, out, `<a href="/videos/v/en/">English subtitles</a>`)
	assert.Contains(t, out, `<a href="/videos/v/">V</a>`)
	require.Equal(t, "u edited English subtitles for V", f.text(*rec, nil))
}

func TestRenderEscapesUserContent(t *testing.T) {
	f := newFixture(t)
	u := &platform.User{Username: "mallory", FullName: `<img src=x onerror=alert(1)>`, IsActive: true}
	require.NoError(t, f.dir.CreateUser(f.ctx, u))
	v := f.video("v", `<script>alert("t")</script>`, "http://x/v.mp4", nil)

	added, err := f.svc.RecordVideoAdded(f.ctx, v, u)
	require.NoError(t, err)
	out := f.renderer.Render(f.ctx, added, nil, "en")
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, "&lt;script&gt;")

	link, err := f.svc.RecordVideoURLAdded(f.ctx, &platform.VideoURL{Video: v, URL: "javascript:alert(1)"}, u)
	require.NoError(t, err)
	out = f.renderer.Render(f.ctx, link, nil, "en")
	assert.NotContains(t, out, `href="javascript:`)
}

func TestRenderMissingSideDataDegrades(t *testing.T) {
	f := newFixture(t)
	u := f.user("u")
	v := f.video("v", "V", "http://x/v.mp4", nil)
	rec, err := f.svc.RecordVideoURLAdded(f.ctx, &platform.VideoURL{Video: v, URL: "http://x/v.webm"}, u)
	require.NoError(t, err)
	require.Equal(t, "u added a URL for V: http://x/v.webm", f.text(*rec, nil))

	require.NoError(t, sqlstore.NewSideDataRepository(f.db).DeleteURLEdit(f.ctx, *rec.RelatedObjID))
	require.Equal(t, "u edited the URLs of V", f.text(*rec, nil))

	rec.RelatedObjID = nil
	require.Equal(t, "u edited the URLs of V", f.text(*rec, nil))
}

func TestRenderDeletedVideoUsesSnapshot(t *testing.T) {
	f := newFixture(t)
	u := f.user("u")
	v := f.video("v", "", "http://x/untitled.mp4", nil)
	rec, err := f.svc.RecordVideoDeleted(f.ctx, v, u)
	require.NoError(t, err)
	require.NoError(t, f.dir.DeleteVideo(f.ctx, v.ID))

	require.Equal(t, "u deleted a video: http://x/untitled.mp4", f.text(*rec, nil))
}

func TestRenderTranslates(t *testing.T) {
	f := newFixture(t)
	catalog, err := i18n.Default()
	require.NoError(t, err)
	renderer := activity.NewRenderer(f.store, f.dir, catalog, platform.NewLinks("https://example.org"), nil, activity.WithDefaultLocale("fr"))

	u := f.user("u")
	team := f.team("t", "Équipe", true)
	v := f.video("v", "V", "http://x/v.mp4", team)
	version, err := f.svc.RecordSubtitleVersion(f.ctx, &platform.SubtitleVersion{Video: v, LanguageCode: "en", Author: u, Created: epoch})
	require.NoError(t, err)
	anonymous, err := f.svc.RecordVideoAdded(f.ctx, v, nil)
	require.NoError(t, err)

	require.Equal(t, "u a modifié les sous-titres anglais de V", renderer.RenderText(f.ctx, version, nil, ""))
	require.Equal(t, "u a modifié les sous-titres anglais de V", renderer.RenderText(f.ctx, version, nil, "fr-CA"))
	require.Equal(t, "u edited English subtitles for V", renderer.RenderText(f.ctx, version, nil, "en"))
	assert.Contains(t, renderer.Render(f.ctx, version, nil, "fr"), `href="https://example.org/videos/v/en/"`)

	anon := renderer.RenderText(f.ctx, anonymous, nil, "fr")
	require.NotContains(t, anon, "Someone")
	require.Contains(t, anon, "a ajouté V")
}
