package ports

import "context"

// FeedServer serves the contact inbox to clients
type FeedServer interface {
	// Start begins serving in the background
	Start() error

	// Stop shuts the server down gracefully
	Stop(ctx context.Context) error
}
