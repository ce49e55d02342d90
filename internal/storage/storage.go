// Package storage provides the artifact store gateway: it puts generated
// bytes into durable object storage under a deterministic key scheme and
// mints time-limited retrieval URLs for stored keys. The gateway owns no
// state beyond what object storage holds.
package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned when a key does not exist in the store.
var ErrObjectNotFound = errors.New("storage: object not found")

// Gateway is the narrow interface between the pipeline and object storage.
type Gateway interface {
	// Put stores the bytes under the key with the given content type.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get fetches the bytes and content type stored under the key.
	// Returns ErrObjectNotFound if the key does not exist.
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)

	// Presign mints a time-limited retrieval URL for the key. The URL
	// embeds its own expiry and needs no server-side session to use.
	Presign(ctx context.Context, key string) (string, error)
}
