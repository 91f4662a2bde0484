package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mikey/sheet-inbox/internal/core"
)

// Supported output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatXLSX = "xlsx"
)

// ErrUnknownFormat is returned for formats Write does not know
var ErrUnknownFormat = errors.New("unknown output format")

type contactRecord struct {
	Phone    string          `json:"phone" yaml:"phone"`
	Latest   string          `json:"latest,omitempty" yaml:"latest,omitempty"`
	Count    int             `json:"message_count" yaml:"message_count"`
	Recent   bool            `json:"recent" yaml:"recent"`
	Checked  bool            `json:"checked" yaml:"checked"`
	ReplyURL string          `json:"reply_url" yaml:"reply_url"`
	Messages []messageRecord `json:"messages" yaml:"messages"`
}

type messageRecord struct {
	Date string `json:"date" yaml:"date"`
	Text string `json:"text" yaml:"text"`
}

// Write renders contacts in the given format
func Write(w io.Writer, format string, contacts []core.ContactView, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	switch strings.ToLower(format) {
	case "", FormatText:
		return WriteText(w, contacts, loc)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records(contacts, loc))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records(contacts, loc)); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case FormatXLSX:
		return WriteXLSX(w, contacts, loc)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

func records(contacts []core.ContactView, loc *time.Location) []contactRecord {
	out := make([]contactRecord, 0, len(contacts))
	for _, c := range contacts {
		rec := contactRecord{
			Phone:    c.Phone,
			Latest:   formatTime(c.Latest, c.LatestRaw, loc),
			Count:    c.MessageCount,
			Recent:   c.Recent,
			Checked:  c.Checked,
			ReplyURL: c.ReplyURL,
			Messages: make([]messageRecord, 0, len(c.Messages)),
		}
		for _, m := range c.Messages {
			rec.Messages = append(rec.Messages, messageRecord{
				Date: formatTime(m.At, m.Timestamp, loc),
				Text: m.Text,
			})
		}
		out = append(out, rec)
	}
	return out
}

// WriteText prints a human readable summary, one block per contact
func WriteText(w io.Writer, contacts []core.ContactView, loc *time.Location) error {
	if len(contacts) == 0 {
		_, err := fmt.Fprintln(w, "No contacts")
		return err
	}

	for _, c := range contacts {
		marks := ""
		if c.Recent {
			marks += " [nuevo]"
		}
		if c.Checked {
			marks += " [revisado]"
		}
		if _, err := fmt.Fprintf(w, "=== %s%s ===\n", c.Phone, marks); err != nil {
			return err
		}
		fmt.Fprintf(w, "Último: %s (%d mensajes)\n", formatTime(c.Latest, c.LatestRaw, loc), c.MessageCount)
		for _, m := range c.Messages {
			fmt.Fprintf(w, "  %s  %s\n", formatTime(m.At, m.Timestamp, loc), m.Text)
		}
		fmt.Fprintf(w, "Responder: %s\n\n", c.ReplyURL)
	}
	return nil
}
