//go:build !integration

package i18n

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestTranslator(t *testing.T) {
	translator, err := newTranslatorFromBytes([]byte("greeting: Hallo\nwelcome_user: Hallo %s"))
	if err != nil {
		t.Fatalf("newTranslatorFromBytes failed: %v", err)
	}

	t.Run("should translate a simple key", func(t *testing.T) {
		if got := translator.T("greeting"); got != "Hallo" {
			t.Errorf("wanted 'Hallo', got '%s'", got)
		}
	})

	t.Run("should return key if not found", func(t *testing.T) {
		if got := translator.T("nonexistent_key"); got != "nonexistent_key" {
			t.Errorf("wanted 'nonexistent_key', got '%s'", got)
		}
	})

	t.Run("should format arguments correctly", func(t *testing.T) {
		if got := translator.T("welcome_user", "Ali"); got != "Hallo Ali" {
			t.Errorf("wanted 'Hallo Ali', got '%s'", got)
		}
	})
}

func TestCatalog_FallbackAndTags(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/de.yaml": {Data: []byte("hi: Hallo")},
		"locales/en.yaml": {Data: []byte("hi: Hello")},
	}
	c, err := NewCatalog(fsys, "de")
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	cases := map[string]string{
		"en":    "Hello",
		"en-US": "Hello",
		"DE_de": "Hallo",
		"fr":    "Hallo",
		"":      "Hallo",
		"*":     "Hallo",
	}
	for tag, want := range cases {
		if got := c.For(tag).T("hi"); got != want {
			t.Errorf("For(%q) = %q, want %q", tag, got, want)
		}
	}
	if got := strings.Join(c.Languages(), ","); got != "de,en" {
		t.Errorf("Languages() = %q", got)
	}
}

func TestCatalog_MissingDefault(t *testing.T) {
	fsys := fstest.MapFS{"locales/en.yaml": {Data: []byte("hi: Hello")}}
	if _, err := NewCatalog(fsys, "de"); err == nil {
		t.Fatal("expected error for missing default locale")
	}
}

func TestEmbeddedLocalesHaveSameKeys(t *testing.T) {
	c, err := NewCatalog(LocalesFS, "de")
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	de := c.For("de")
	for _, lang := range c.Languages() {
		tr := c.For(lang)
		for key := range de.translations {
			if _, ok := tr.translations[key]; !ok {
				t.Errorf("locale %s misses key %s", lang, key)
			}
		}
	}
}
