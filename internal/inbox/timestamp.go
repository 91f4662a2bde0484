package inbox

import (
	"strings"
	"time"
)

// Epoch is the instant assigned to timestamps that cannot be parsed. It sorts
// before every real message
var Epoch = time.Unix(0, 0).UTC()

// DefaultLayouts are tried in order before any configured layout. Layouts
// without a zone are read in the parser's location, and layouts without a
// clock are anchored at midday
var DefaultLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// TimeParser turns raw spreadsheet timestamps into instants. It never fails:
// unparseable input maps to Epoch
type TimeParser struct {
	loc     *time.Location
	layouts []layout
}

type layout struct {
	value    string
	dateOnly bool
}

// hasClock reports whether a layout carries an hour, minute or second field.
// Those are the only reference-time tokens that use the digits 3, 4 and 5
func hasClock(l string) bool {
	return strings.ContainsAny(l, "345")
}

// NewTimeParser creates a parser for loc (UTC when nil). Extra layouts are
// tried after DefaultLayouts
func NewTimeParser(loc *time.Location, extra []string) *TimeParser {
	if loc == nil {
		loc = time.UTC
	}
	layouts := make([]layout, 0, len(DefaultLayouts)+len(extra))
	for _, l := range append(append([]string{}, DefaultLayouts...), extra...) {
		if l = strings.TrimSpace(l); l != "" {
			layouts = append(layouts, layout{value: l, dateOnly: !hasClock(l)})
		}
	}
	return &TimeParser{loc: loc, layouts: layouts}
}

// Location returns the zone naive timestamps are read in
func (p *TimeParser) Location() *time.Location {
	return p.loc
}

// Parse tries the raw value as-is, then again with its first space replaced
// by the ISO "T" separator, and falls back to Epoch
func (p *TimeParser) Parse(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Epoch
	}
	if t, ok := p.try(raw); ok {
		return t
	}
	if strings.Contains(raw, " ") {
		if t, ok := p.try(strings.Replace(raw, " ", "T", 1)); ok {
			return t
		}
	}
	return Epoch
}

func (p *TimeParser) try(value string) (time.Time, bool) {
	for _, l := range p.layouts {
		t, err := time.ParseInLocation(l.value, value, p.loc)
		if err != nil {
			continue
		}
		if l.dateOnly {
			// Midday keeps the calendar day stable across zone conversions
			t = time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, p.loc)
		}
		return t, true
	}
	return time.Time{}, false
}

// IsValid reports whether t came from a parseable timestamp
func IsValid(t time.Time) bool {
	return !t.IsZero() && !t.Equal(Epoch)
}
