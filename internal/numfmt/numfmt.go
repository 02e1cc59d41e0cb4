// Package numfmt formats numbers for display using locale conventions.
package numfmt

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Style selects the separators used when formatting numbers.
type Style struct {
	printer *message.Printer
	tag     language.Tag
}

// Brazilian uses "." for thousands and "," for decimals.
var Brazilian = NewStyle(language.BrazilianPortuguese)

// NewStyle returns the style for a language tag.
func NewStyle(tag language.Tag) Style {
	return Style{tag: tag, printer: message.NewPrinter(tag)}
}

// ForLocale parses a BCP 47 locale such as "pt-BR".
func ForLocale(locale string) (Style, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return Style{}, fmt.Errorf("locale %q: %w", locale, err)
	}
	return NewStyle(tag), nil
}

// Tag returns the language tag of the style.
func (s Style) Tag() language.Tag {
	return s.tag
}

// Decimal formats v with exactly digits fraction digits and grouped thousands.
func (s Style) Decimal(v float64, digits int) string {
	if digits < 0 {
		digits = 0
	}
	p := s.printer
	if p == nil {
		p = Brazilian.printer
	}
	return p.Sprintf(fmt.Sprintf("%%.%df", digits), v)
}

// Ratio formats v with as many fraction digits as its shortest exact
// representation needs, but at least one: 1 -> "1,0", 1.25 -> "1,25".
func (s Style) Ratio(v float64) string {
	digits := 1
	raw := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(raw, '.'); i >= 0 && len(raw)-i-1 > digits {
		digits = len(raw) - i - 1
	}
	return s.Decimal(v, digits)
}

// Area formats an area in square meters with two decimals.
func (s Style) Area(v float64) string {
	return s.Decimal(v, 2) + " m²"
}

// Percent formats a ratio (0.5) as a whole percentage (50%).
func (s Style) Percent(ratio float64) string {
	return s.Decimal(ratio*100, 0) + "%"
}

// Area formats v in square meters using style.
func Area(v float64, style Style) string {
	return style.Area(v)
}
