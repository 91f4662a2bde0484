package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mikey/sheet-inbox/internal/core"
	"github.com/mikey/sheet-inbox/internal/inbox"
)

const (
	// ContactsSheet lists one row per contact
	ContactsSheet = "Clientes"
	// MessagesSheet lists every message
	MessagesSheet = "Mensajes"
)

var (
	contactsHeader = []interface{}{"Teléfono", "Último mensaje", "Fecha", "Mensajes", "Reciente", "Revisado", "Responder"}
	messagesHeader = []interface{}{"Teléfono", "Fecha", "Mensaje"}
)

// WriteXLSX writes contacts as an Excel workbook to w. Times are shown in loc.
func WriteXLSX(w io.Writer, contacts []core.ContactView, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ContactsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(MessagesSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeHeader(f, ContactsSheet, contactsHeader, bold); err != nil {
		return err
	}
	if err := writeHeader(f, MessagesSheet, messagesHeader, bold); err != nil {
		return err
	}

	msgRow := 2
	for i, c := range contacts {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []interface{}{
			c.Phone,
			c.LatestText(),
			formatTime(c.Latest, c.LatestRaw, loc),
			c.MessageCount,
			yesNo(c.Recent),
			yesNo(c.Checked),
			c.ReplyURL,
		}
		if err := f.SetSheetRow(ContactsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write contact row: %w", err)
		}
		if c.ReplyURL != "" {
			link, _ := excelize.CoordinatesToCellName(len(values), row)
			if err := f.SetCellHyperLink(ContactsSheet, link, c.ReplyURL, "External"); err != nil {
				return fmt.Errorf("failed to set reply link: %w", err)
			}
		}

		for _, m := range c.Messages {
			cell, _ := excelize.CoordinatesToCellName(1, msgRow)
			values := []interface{}{c.Phone, formatTime(m.At, m.Timestamp, loc), m.Text}
			if err := f.SetSheetRow(MessagesSheet, cell, &values); err != nil {
				return fmt.Errorf("failed to write message row: %w", err)
			}
			msgRow++
		}
	}

	for _, sheet := range []string{ContactsSheet, MessagesSheet} {
		if err := f.SetColWidth(sheet, "A", "A", 18); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	if err := f.SetColWidth(ContactsSheet, "B", "B", 60); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(MessagesSheet, "C", "C", 80); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []interface{}, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}

// formatTime prints parsed times in loc and falls back to the raw cell text
func formatTime(t time.Time, raw string, loc *time.Location) string {
	if !inbox.IsValid(t) {
		return raw
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

func yesNo(b bool) string {
	if b {
		return "sí"
	}
	return "no"
}
