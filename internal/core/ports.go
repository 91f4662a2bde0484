package core

import (
	"context"
)

// SheetSource fetches the raw export of a spreadsheet
type SheetSource interface {
	// Fetch returns the current body of src
	Fetch(ctx context.Context, src Source) (*Snapshot, error)
}

// SnapshotCache keeps the last good body per source URL
type SnapshotCache interface {
	// Get retrieves the snapshot for a source URL
	Get(ctx context.Context, sourceURL string) (*Snapshot, error)

	// Set stores a snapshot
	Set(ctx context.Context, snapshot *Snapshot) error

	// Delete removes a snapshot
	Delete(ctx context.Context, sourceURL string) error

	// Cleanup removes expired snapshots
	Cleanup(ctx context.Context) error
}

// ReplyDrafter writes an opening message for a contact
type ReplyDrafter interface {
	DraftReply(ctx context.Context, contact *ContactView) (*ReplyDraft, error)
}

// Notifier tells staff about contacts that just showed up
type Notifier interface {
	NotifyNewContacts(ctx context.Context, contacts []ContactView) error
}
