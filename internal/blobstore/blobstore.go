// Package blobstore defines the blob storage contract used for listing
// images.  Upload returns a URL that can be handed to clients; Delete takes
// that URL back.
package blobstore

import "context"

// Store is the blob store contract consumed by the listing store.
type Store interface {
    Upload(ctx context.Context, path string, data []byte) (string, error)
    Delete(ctx context.Context, url string) error
}
