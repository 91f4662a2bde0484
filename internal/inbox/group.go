// Package inbox groups spreadsheet rows into per-phone conversations and
// ranks them by recency.
//
// Everything here is a pure function of its input except Overlay, which holds
// the ephemeral per-contact flags that sit beside the rebuildable groups
package inbox

import (
	"sort"
	"strings"
	"time"

	"github.com/mikey/sheet-inbox/internal/sheet"
)

// Columns names the spreadsheet columns the engine reads
type Columns struct {
	Phone             string
	Message           string
	Timestamp         string
	TimestampFallback string
}

// DefaultColumns are the column names of the contact form export
func DefaultColumns() Columns {
	return Columns{
		Phone:             "telefono",
		Message:           "mensaje",
		Timestamp:         "timestamp_ar",
		TimestampFallback: "fecha",
	}
}

// Message is a single inbound message
type Message struct {
	Timestamp string    `json:"timestamp"`
	Text      string    `json:"text"`
	At        time.Time `json:"at"`
}

// Group holds every message sent from one phone number, newest first
type Group struct {
	Key       string    `json:"phone"`
	Messages  []Message `json:"messages"`
	Latest    time.Time `json:"latest"`
	LatestRaw string    `json:"latest_raw"`
}

// GroupRecords builds contact groups from parsed records. Records with a blank
// phone are skipped. Groups come out in first-appearance order; use Rank to
// order them by recency
func GroupRecords(records []sheet.Record, cols Columns, tp *TimeParser) []Group {
	if tp == nil {
		tp = NewTimeParser(nil, nil)
	}

	index := make(map[string]int)
	groups := make([]Group, 0)

	for _, rec := range records {
		key := strings.TrimSpace(rec.Get(cols.Phone))
		if key == "" {
			continue
		}

		ts := rec.Get(cols.Timestamp)
		if ts == "" {
			ts = rec.Get(cols.TimestampFallback)
		}

		msg := Message{
			Timestamp: ts,
			Text:      rec.Get(cols.Message),
			At:        tp.Parse(ts),
		}

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Messages = append(groups[i].Messages, msg)
	}

	for i := range groups {
		finalize(&groups[i])
	}

	return groups
}

func finalize(g *Group) {
	sort.SliceStable(g.Messages, func(i, j int) bool {
		return g.Messages[i].At.After(g.Messages[j].At)
	})
	g.Latest = g.Messages[0].At
	g.LatestRaw = g.Messages[0].Timestamp
}

// Keys returns the group keys in order
func Keys(groups []Group) []string {
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.Key
	}
	return keys
}
