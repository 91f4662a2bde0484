package inbox

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Rank returns a copy of groups ordered by latest activity, newest first.
// Ties keep their input order
func Rank(groups []Group) []Group {
	out := make([]Group, len(groups))
	copy(out, groups)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Latest.After(out[j].Latest)
	})
	return out
}

// IsRecent reports whether the group's latest message falls inside the
// trailing window ending at now
func IsRecent(g Group, now time.Time, window time.Duration) bool {
	if window <= 0 || !IsValid(g.Latest) {
		return false
	}
	return !g.Latest.Before(now.Add(-window))
}

// Filter keeps the groups whose phone or any message text contains query,
// ignoring case. The empty query keeps everything
func Filter(groups []Group, query string) []Group {
	out := make([]Group, 0, len(groups))
	if query == "" {
		return append(out, groups...)
	}

	fold := cases.Fold()
	q := fold.String(query)

	for _, g := range groups {
		if matches(g, q, fold) {
			out = append(out, g)
		}
	}
	return out
}

func matches(g Group, q string, fold cases.Caser) bool {
	if strings.Contains(fold.String(g.Key), q) {
		return true
	}
	for _, m := range g.Messages {
		if m.Text != "" && strings.Contains(fold.String(m.Text), q) {
			return true
		}
	}
	return false
}

// Apply drops the groups the overlay marks as deleted
func Apply(groups []Group, ov *Overlay) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if ov.Deleted(g.Key) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// View ranks groups, removes deleted ones and applies the search query
func View(groups []Group, ov *Overlay, query string) []Group {
	return Filter(Apply(Rank(groups), ov), query)
}
