// Package timefmt renders run statistics for export documents: durations,
// run counts, capture dates and coverage ratios.
package timefmt

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goodsign/monday"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DateLayout mirrors a long-weekday, numeric-date, 12-hour clock rendering,
// e.g. "Tuesday, 11/14/2023, 3:43:20 PM".
const DateLayout = "Monday, 1/02/2006, 3:04:05 PM"

// dateLayouts holds the long date layout per supported locale. Weekday names
// are translated by monday.
var dateLayouts = map[monday.Locale]string{
	monday.LocaleEnUS: DateLayout,
	monday.LocaleEnGB: "Monday, 02/01/2006, 15:04:05",
	monday.LocaleDeDE: "Monday, 02.01.2006, 15:04:05",
	monday.LocaleFrFR: "Monday 02/01/2006 15:04:05",
	monday.LocaleEsES: "Monday, 02/01/2006, 15:04:05",
	monday.LocaleItIT: "Monday 02/01/2006, 15:04:05",
	monday.LocaleNlNL: "Monday 02-01-2006 15:04:05",
	monday.LocalePtBR: "Monday, 02/01/2006, 15:04:05",
	monday.LocalePtPT: "Monday, 02/01/2006, 15:04:05",
}

// languageDefaults picks a regional variant when the tag has no region.
var languageDefaults = map[string]monday.Locale{
	"en": monday.LocaleEnUS,
	"de": monday.LocaleDeDE,
	"fr": monday.LocaleFrFR,
	"es": monday.LocaleEsES,
	"it": monday.LocaleItIT,
	"nl": monday.LocaleNlNL,
	"pt": monday.LocalePtBR,
}

// dateLocale maps tag onto a supported monday locale, falling back to en_US.
func dateLocale(tag language.Tag) monday.Locale {
	base, _ := tag.Base()
	if region, conf := tag.Region(); conf == language.Exact {
		candidate := monday.Locale(base.String() + "_" + region.String())
		if _, ok := dateLayouts[candidate]; ok {
			return candidate
		}
	}
	if locale, ok := languageDefaults[base.String()]; ok {
		return locale
	}
	return monday.LocaleEnUS
}

// Duration renders milliseconds as HH:MM:SS. Hours are not wrapped at 24, so
// a 25 hour run renders as "25:00:00". Negative input renders as zero.
func Duration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	seconds := ms / 1000
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

// RunCount pads to width two; larger values are left as is.
func RunCount(n int) string {
	if n >= 0 && n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// Formatter holds the fixed timezone and locale used for dates and numbers.
type Formatter struct {
	loc     *time.Location
	tag     language.Tag
	printer *message.Printer
	locale  monday.Locale
}

// New returns a formatter for the given location and locale. A nil location
// falls back to UTC.
func New(loc *time.Location, tag language.Tag) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{loc: loc, tag: tag, printer: message.NewPrinter(tag), locale: dateLocale(tag)}
}

// Parse builds a formatter from a timezone name and a BCP 47 locale string.
func Parse(timezone, locale string) (*Formatter, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	return New(loc, tag), nil
}

// Location returns the configured timezone.
func (f *Formatter) Location() *time.Location { return f.loc }

// Locale returns the configured language tag.
func (f *Formatter) Locale() language.Tag { return f.tag }

// Date renders an epoch millisecond timestamp in the fixed timezone using the
// locale's long date layout. Zero timestamps render as an empty string.
func (f *Formatter) Date(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return monday.Format(time.UnixMilli(ms).In(f.loc), dateLayouts[f.locale], f.locale)
}

// Timestamp renders a capture time for step rows.
func (f *Formatter) Timestamp(ms int64) string {
	return f.Date(ms)
}

// Coverage renders a 0..1 ratio as a percentage with locale-aware digits.
func (f *Formatter) Coverage(ratio float64) string {
	return f.printer.Sprintf("%.2f%%", ratio*100)
}
