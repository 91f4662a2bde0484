// Package sheet turns the CSV export of a published spreadsheet into
// header-keyed records.
//
// The scanner is deliberately tolerant: ragged rows are padded or truncated,
// unbalanced quotes swallow the rest of the input as literal text, and nothing
// in this package returns an error for malformed content
package sheet

import (
	"io"
	"strings"
)

const (
	separator = ','
	quote     = '"'
	bom       = "\ufeff"
)

// Record is one data row keyed by header column name. Every column declared
// by the header is present, defaulted to the empty string
type Record map[string]string

// Get returns the value for column, or "" when the column is absent
func (r Record) Get(column string) string {
	if r == nil {
		return ""
	}
	return r[column]
}

// Table is the parsed form of a whole export: the trimmed header row in column
// order and one Record per data row. Duplicate header names are kept in Header;
// inside a Record the right-most duplicate column wins
type Table struct {
	Header  []string
	Records []Record
}

// Parse converts raw CSV text into records using the first row as header.
// Empty input yields an empty result
func Parse(text string) []Record {
	return ParseTable(text).Records
}

// ParseReader reads r to the end and parses it. A nil reader yields an empty
// result
func ParseReader(r io.Reader) ([]Record, error) {
	if r == nil {
		return []Record{}, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(string(data)), nil
}

// ParseTable parses text and keeps the header alongside the records
func ParseTable(text string) Table {
	rows := ParseRows(text)
	if len(rows) == 0 {
		return Table{Header: []string{}, Records: []Record{}}
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, buildRecord(header, row))
	}

	return Table{Header: header, Records: records}
}

func buildRecord(header, row []string) Record {
	rec := make(Record, len(header))
	for i, key := range header {
		if i < len(row) {
			rec[key] = strings.TrimSpace(row[i])
		} else {
			rec[key] = ""
		}
	}
	return rec
}

// ParseRows is the raw scanner: it splits text into rows of untrimmed cells,
// honoring double-quote escaping and \n, \r or \r\n line breaks. Blank lines
// are dropped
func ParseRows(text string) [][]string {
	text = strings.TrimPrefix(text, bom)
	if text == "" {
		return [][]string{}
	}

	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
	)

	flush := func() {
		if len(row) > 0 || field.Len() > 0 {
			row = append(row, field.String())
			rows = append(rows, row)
		}
		row = nil
		field.Reset()
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == quote:
			if inQuotes && i+1 < len(text) && text[i+1] == quote {
				field.WriteByte(quote)
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == separator && !inQuotes:
			row = append(row, field.String())
			field.Reset()
		case (c == '\r' || c == '\n') && !inQuotes:
			if c == '\r' && i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			flush()
		default:
			field.WriteByte(c)
		}
	}
	flush()

	if rows == nil {
		return [][]string{}
	}
	return rows
}
