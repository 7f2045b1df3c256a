package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// Translator resolves message keys for one language.
type Translator struct {
	lang         string
	translations map[string]string
}

// NewTranslator loads locales/<langCode>.yaml from fsys.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := path.Join("locales", langCode+".yaml")
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	t, err := newTranslatorFromBytes(data)
	if err != nil {
		return nil, err
	}
	t.lang = langCode
	return t, nil
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

// T returns the message for key, formatted with args. Unknown keys come back as-is.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Lang is the language code the translator was loaded for.
func (t *Translator) Lang() string { return t.lang }

// Catalog holds one Translator per available locale.
type Catalog struct {
	byLang   map[string]*Translator
	fallback string
}

// NewCatalog loads every locales/*.yaml of fsys. defaultLang must be among them.
func NewCatalog(fsys fs.FS, defaultLang string) (*Catalog, error) {
	files, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, err
	}
	c := &Catalog{byLang: make(map[string]*Translator, len(files)), fallback: normalize(defaultLang)}
	for _, f := range files {
		lang := strings.TrimSuffix(path.Base(f), ".yaml")
		t, err := NewTranslator(fsys, lang)
		if err != nil {
			return nil, err
		}
		c.byLang[lang] = t
	}
	if _, ok := c.byLang[c.fallback]; !ok {
		return nil, fmt.Errorf("default language %q has no locale file", defaultLang)
	}
	return c, nil
}

// For picks the translator for a language tag such as "de-DE" or "en",
// falling back to the default language.
func (c *Catalog) For(language string) *Translator {
	if t, ok := c.byLang[normalize(language)]; ok {
		return t
	}
	return c.byLang[c.fallback]
}

// Languages lists the loaded language codes.
func (c *Catalog) Languages() []string {
	out := make([]string, 0, len(c.byLang))
	for l := range c.byLang {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func normalize(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return tag
}
