package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/captionlog/internal/domain/activity"
)

func TestDefault_Translates(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	require.Equal(t, "Quelqu'un", c.Translate("Someone", "fr"))
	require.Equal(t, "Alguien", c.Translate("Someone", "es"))
	require.Equal(t, "Someone", c.Translate("Someone", "en"))
	require.Equal(t, "Someone", c.Translate("Someone", ""))
	require.Equal(t, "{user} deleted a video: {title}", c.Translate("{user} deleted a video: {title}", "de"))
	require.Equal(t, "unknown msgid", c.Translate("unknown msgid", "fr"))
}

func TestDefault_RegionalLocalesFallBackToBase(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	require.Equal(t, "Quelqu'un", c.Translate("Someone", "fr-CA"))
	require.Equal(t, "Alguien", c.Translate("Someone", "es-MX"))
	require.Equal(t, "Someone", c.Translate("Someone", "not a locale!"))
}

func TestDefault_CatalogsOnlyContainKnownMessages(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	known := map[string]bool{}
	for _, id := range activity.MessageIDs() {
		known[id] = true
	}
	for _, locale := range c.Locales()[1:] {
		for _, id := range c.MessageIDs(locale) {
			require.True(t, known[id], "%s catalog has stale msgid %q", locale, id)
		}
	}
}

func TestDefault_FrenchIsComplete(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	translated := map[string]bool{}
	for _, id := range c.MessageIDs("fr") {
		translated[id] = true
	}
	for _, id := range activity.MessageIDs() {
		require.True(t, translated[id], "fr catalog is missing %q", id)
	}
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"en.yaml":    {Data: []byte("'Someone': 'Somebody'\n")},
		"pt-BR.yaml": {Data: []byte("'Someone': 'Alguém'\n")},
	}
	c, err := LoadFS(fsys)
	require.NoError(t, err)

	require.Equal(t, []string{"en", "pt-BR"}, c.Locales())
	require.Equal(t, "Somebody", c.Translate("Someone", "en-GB"))
	require.Equal(t, "Alguém", c.Translate("Someone", "pt-BR"))
}

func TestLoadFS_Errors(t *testing.T) {
	_, err := LoadFS(fstest.MapFS{"not_a_tag!.yaml": {Data: []byte("{}")}})
	require.Error(t, err)

	_, err = LoadFS(fstest.MapFS{"fr.yaml": {Data: []byte("- a list")}})
	require.Error(t, err)
}

func TestLoad_EmptyDirUsesBundled(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.Contains(t, c.Locales(), "fr")
}
