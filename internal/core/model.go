package core

import (
	"time"

	"github.com/mikey/sheet-inbox/internal/inbox"
)

// Source represents a published spreadsheet export
type Source struct {
	ID  string
	URL string
}

// Snapshot is the raw body of one source as last fetched
type Snapshot struct {
	SourceID     string
	SourceURL    string
	Body         []byte
	ETag         string
	LastModified string
	FetchedAt    time.Time
	ExpiresAt    time.Time
	FromCache    bool
}

// ContactView is a contact group as presented to callers: the group plus its
// overlay flags, recency and reply link
type ContactView struct {
	Phone        string          `json:"phone"`
	Messages     []inbox.Message `json:"messages"`
	MessageCount int             `json:"message_count"`
	Latest       time.Time       `json:"latest"`
	LatestRaw    string          `json:"latest_raw"`
	Recent       bool            `json:"recent"`
	Checked      bool            `json:"checked"`
	Deleted      bool            `json:"deleted"`
	ReplyURL     string          `json:"reply_url"`
}

// LatestText returns the text of the newest message
func (v ContactView) LatestText() string {
	if len(v.Messages) == 0 {
		return ""
	}
	return v.Messages[0].Text
}

// ReplyDraft is an opening message for a contact
type ReplyDraft struct {
	Phone       string    `json:"phone"`
	Text        string    `json:"text"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
}

// RefreshResult summarizes one fetch-parse-group cycle
type RefreshResult struct {
	CycleID     string        `json:"cycle_id"`
	Sources     int           `json:"sources"`
	Records     int           `json:"records"`
	Groups      int           `json:"groups"`
	NewContacts int           `json:"new_contacts"`
	FromCache   bool          `json:"from_cache"`
	Duration    time.Duration `json:"duration"`
}

// Status reports the state of the most recent refresh cycles
type Status struct {
	CycleID     string    `json:"cycle_id"`
	LastAttempt time.Time `json:"last_attempt"`
	LastSuccess time.Time `json:"last_success"`
	LastError   string    `json:"last_error,omitempty"`
	FromCache   bool      `json:"from_cache"`
	Sources     int       `json:"sources"`
	Records     int       `json:"records"`
	Groups      int       `json:"groups"`
	Marked      int       `json:"marked"`
	Loaded      bool      `json:"loaded"`
}
