// Package i18n renders user-facing error messages per locale.
package i18n

import (
	"bytes"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

// BaseLocale is the canonical source locale for messages.
const BaseLocale = "en-US"

var supportedTags = []language.Tag{
	language.AmericanEnglish,
	language.BrazilianPortuguese,
}

var matcher = language.NewMatcher(supportedTags)

var builder = newBuilder()

func newBuilder() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.AmericanEnglish))
	for code, msg := range enUSMessages {
		_ = b.SetString(language.AmericanEnglish, code, msg)
	}
	for code, msg := range ptBRMessages {
		_ = b.SetString(language.BrazilianPortuguese, code, msg)
	}
	return b
}

// Catalog renders messages for one resolved locale.
type Catalog struct {
	tag     language.Tag
	printer *message.Printer
}

// GetCatalog returns the catalog that best matches locale.
// The value may be a BCP 47 tag or an Accept-Language header; unknown
// locales resolve to en-US.
func GetCatalog(locale string) *Catalog {
	tag := ResolveTag(locale)
	return &Catalog{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(builder)),
	}
}

// ResolveTag picks the supported language tag closest to locale.
func ResolveTag(locale string) language.Tag {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return language.AmericanEnglish
	}
	tags, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(tags) == 0 {
		return language.AmericanEnglish
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return language.AmericanEnglish
	}
	return supportedTags[index]
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.tag.String()
}

// Format renders the message template with the given metadata.
// Falls back to the error code itself if no template is found.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	tmpl := c.printer.Sprintf(code)
	if tmpl == "" {
		return code
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	t, err := template.New("msg").Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return tmpl
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}
