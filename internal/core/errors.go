package core

import "errors"

var (
	// ErrUnknownContact is returned for phone keys absent from the current groups
	ErrUnknownContact = errors.New("unknown contact")
	// ErrNoSources is returned by Refresh when no spreadsheet is configured
	ErrNoSources = errors.New("no spreadsheet sources configured")
)
