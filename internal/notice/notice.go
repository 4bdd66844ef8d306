// Package notice provides the localized transient messages shown to the user
// (processing indicator, acquisition and detector failures).
package notice

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key identifies a notice. The English text doubles as the message key.
type Key string

const (
	Processing          Key = "Processing..."
	Done                Key = "Done, %d face(s) covered"
	DetectorUnavailable Key = "Could not set up the face detector!"
	ProcessingFailed    Key = "Processing failed"
	CannotOpenPhoto     Key = "Cannot open photo"
	ComingSoon          Key = "Coming soon..."
	Busy                Key = "A photo is already being processed"
	NoPhoto             Key = "Pick a photo first"
)

var supported = []language.Tag{language.English, language.Czech}

var translations = map[language.Tag]map[Key]string{
	language.Czech: {
		Processing:          "Zpracovávám...",
		Done:                "Hotovo, zakryto obličejů: %d",
		DetectorUnavailable: "Nepodařilo se spustit detektor obličejů!",
		ProcessingFailed:    "Zpracování selhalo",
		CannotOpenPhoto:     "Fotku nelze otevřít",
		ComingSoon:          "Již brzy...",
		Busy:                "Fotka se právě zpracovává",
		NoPhoto:             "Nejdříve vyberte fotku",
	},
}

// Catalog renders notices in the supported languages.
type Catalog struct {
	builder  *catalog.Builder
	matcher  language.Matcher
	fallback language.Tag
}

// New builds the catalog. fallback is used when a request carries no
// acceptable language; an empty or unknown value means English.
func New(fallback string) *Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, key := range []Key{Processing, Done, DetectorUnavailable, ProcessingFailed, CannotOpenPhoto, ComingSoon, Busy, NoPhoto} {
		// Keys are valid format strings, so SetString cannot fail here.
		_ = b.SetString(language.English, string(key), string(key))
	}
	for tag, msgs := range translations {
		for key, msg := range msgs {
			_ = b.SetString(tag, string(key), msg)
		}
	}

	c := &Catalog{
		builder:  b,
		matcher:  language.NewMatcher(supported),
		fallback: language.English,
	}
	if fallback != "" {
		c.fallback = c.Match(fallback)
	}
	return c
}

// Match picks the best supported language for an Accept-Language value.
func (c *Catalog) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.fallback
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return c.fallback
	}
	return supported[idx]
}

// Fallback returns the language used when nothing better matches.
func (c *Catalog) Fallback() language.Tag {
	return c.fallback
}

// Text renders key in the given language.
func (c *Catalog) Text(tag language.Tag, key Key, args ...any) string {
	p := message.NewPrinter(tag, message.Catalog(c.builder))
	return p.Sprintf(string(key), args...)
}
