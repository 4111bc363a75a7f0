package staging

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleCase trims, collapses inner whitespace and title-cases a city name.
func TitleCase(s string) string {
	return newTextNormalizer().city(s)
}

// UpperCode trims and upper-cases a state or region code.
func UpperCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// textNormalizer reuses one caser across records. Not safe for concurrent use.
type textNormalizer struct {
	title cases.Caser
}

func newTextNormalizer() *textNormalizer {
	return &textNormalizer{title: cases.Title(language.BrazilianPortuguese)}
}

func (t *textNormalizer) city(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return t.title.String(s)
}
