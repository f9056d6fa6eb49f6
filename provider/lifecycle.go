package provider

import "context"

// Closeable is optionally implemented by collaborators that hold resources
// requiring explicit cleanup, such as a script loader with fetches in flight.
// The dispatcher calls Close during shutdown.
type Closeable interface {
	Close(ctx context.Context) error
}
