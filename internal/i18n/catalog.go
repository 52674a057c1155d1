// Package i18n loads translation catalogs and resolves msgids per locale.
// A catalog is a YAML mapping of msgid to translation, one file per locale
// named after its BCP 47 tag (fr.yaml, pt-BR.yaml).
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var embedded embed.FS

// Catalog is an immutable set of per-locale translations. It is safe for
// concurrent use.
type Catalog struct {
	source   language.Tag
	tags     []language.Tag
	messages []map[string]string
	matcher  language.Matcher
}

// Default returns the catalogs bundled with the module.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "locales")
	if err != nil {
		return nil, fmt.Errorf("open embedded locales: %w", err)
	}
	return LoadFS(sub)
}

// Load reads catalogs from dir. An empty dir loads the bundled catalogs.
func Load(dir string) (*Catalog, error) {
	if dir == "" {
		return Default()
	}
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads every *.yaml file at the root of fsys.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	sort.Strings(names)

	// The source language is always first so that unmatched locales fall
	// back to the untranslated msgid.
	c := &Catalog{
		source:   language.English,
		tags:     []language.Tag{language.English},
		messages: []map[string]string{nil},
	}
	for _, name := range names {
		tag, err := language.Parse(strings.TrimSuffix(path.Base(name), ".yaml"))
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", name, err)
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", name, err)
		}
		var msgs map[string]string
		if err := yaml.Unmarshal(data, &msgs); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", name, err)
		}
		if tag == c.source {
			c.messages[0] = msgs
			continue
		}
		c.tags = append(c.tags, tag)
		c.messages = append(c.messages, msgs)
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

// Translate returns the translation of msgid for locale, or msgid itself
// when the locale or the entry is missing.
func (c *Catalog) Translate(msgid, locale string) string {
	if c == nil || locale == "" {
		return msgid
	}
	msgs := c.messages[c.match(locale)]
	if s, ok := msgs[msgid]; ok && s != "" {
		return s
	}
	return msgid
}

// Locales lists the locales with a catalog, source language first.
func (c *Catalog) Locales() []string {
	out := make([]string, len(c.tags))
	for i, t := range c.tags {
		out[i] = t.String()
	}
	return out
}

// MessageIDs returns the msgids translated for locale.
func (c *Catalog) MessageIDs(locale string) []string {
	msgs := c.messages[c.match(locale)]
	ids := make([]string, 0, len(msgs))
	for id := range msgs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Catalog) match(locale string) int {
	tag, err := language.Parse(locale)
	if err != nil {
		return 0
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No {
		return 0
	}
	return idx
}
