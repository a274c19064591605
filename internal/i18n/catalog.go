// Package i18n holds the localized strings shown by the notification
// surface and the windows.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

// Catalog resolves message IDs for a language code, falling back to English
// and finally to the message ID itself.
type Catalog struct {
	bundle  *goi18n.Bundle
	tags    []language.Tag
	matcher language.Matcher

	mu         sync.Mutex
	localizers map[string]*goi18n.Localizer
}

// NewCatalog loads the embedded locale tables.
func NewCatalog() (*Catalog, error) {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	paths, err := fs.Glob(localeFS, "locales/*.toml")
	if err != nil {
		return nil, fmt.Errorf("list locale files: %w", err)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if _, err := bundle.LoadMessageFileFS(localeFS, path); err != nil {
			return nil, fmt.Errorf("load locale %s: %w", path, err)
		}
	}

	tags := bundle.LanguageTags()
	return &Catalog{
		bundle:     bundle,
		tags:       tags,
		matcher:    language.NewMatcher(tags),
		localizers: make(map[string]*goi18n.Localizer),
	}, nil
}

// MustCatalog returns the embedded catalog or panics.
func MustCatalog() *Catalog {
	catalog, err := NewCatalog()
	if err != nil {
		panic(err)
	}
	return catalog
}

// Languages lists the supported base language codes.
func (catalog *Catalog) Languages() []string {
	codes := make([]string, 0, len(catalog.tags))
	for _, tag := range catalog.tags {
		base, _ := tag.Base()
		codes = append(codes, base.String())
	}
	sort.Strings(codes)
	return codes
}

// Match maps an arbitrary locale string (e.g. "es-MX", "de_DE.UTF-8") to the
// closest supported language code.
func (catalog *Catalog) Match(code string) string {
	tag, err := language.Parse(normalize(code))
	if err != nil {
		return "en"
	}
	_, index, confidence := catalog.matcher.Match(tag)
	if confidence == language.No || index < 0 || index >= len(catalog.tags) {
		return "en"
	}
	base, _ := catalog.tags[index].Base()
	return base.String()
}

// Text localizes a message. data supplies template fields.
func (catalog *Catalog) Text(lang, id string, data map[string]any) string {
	localizer := catalog.localizer(lang)
	text, err := localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil || text == "" {
		return id
	}
	return text
}

func (catalog *Catalog) localizer(lang string) *goi18n.Localizer {
	code := catalog.Match(lang)
	catalog.mu.Lock()
	defer catalog.mu.Unlock()
	if localizer, ok := catalog.localizers[code]; ok {
		return localizer
	}
	localizer := goi18n.NewLocalizer(catalog.bundle, code)
	catalog.localizers[code] = localizer
	return localizer
}

func normalize(code string) string {
	out := make([]rune, 0, len(code))
	for _, r := range code {
		switch {
		case r == '.' || r == '@':
			return string(out)
		case r == '_':
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
