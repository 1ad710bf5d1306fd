// Package snapshot models the build output snapshot the pipeline
// operates on: a flat namespace of named byte blobs, owned by the host
// build tool. The pipeline reads, adds, deletes, and replaces whole
// entries; it never mutates content in place.
package snapshot

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a named asset does not exist in the snapshot.
var ErrNotFound = errors.New("asset not found")

// ErrExists is returned when adding an asset under a name already in use.
var ErrExists = errors.New("asset already exists")

// Asset is a single named blob in the snapshot.
type Asset struct {
	Name    string
	Content []byte
}

// Size returns the byte length of the asset content.
func (a Asset) Size() int64 {
	return int64(len(a.Content))
}

// Store is the host-snapshot adapter the pipeline depends on. Host
// build tools expose their asset tables in different shapes; each
// shape gets its own Store implementation and the pipeline stays
// agnostic.
//
// Independent keys may be added and deleted concurrently.
// Implementations must make individual operations atomic; the pipeline
// guarantees no two concurrent operations target the same name.
type Store interface {
	// Names enumerates all asset names currently in the snapshot.
	Names() []string

	// Read returns the content of the named asset.
	Read(name string) ([]byte, error)

	// Add inserts a new asset. Fails with ErrExists if the name is taken.
	Add(name string, content []byte) error

	// Delete removes the named asset. Fails with ErrNotFound if absent.
	Delete(name string) error

	// Update replaces the content of an existing asset, keeping all
	// other metadata. Fails with ErrNotFound if absent.
	Update(name string, content []byte) error
}

// notFound wraps ErrNotFound with the offending name.
func notFound(name string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

// exists wraps ErrExists with the offending name.
func exists(name string) error {
	return fmt.Errorf("%w: %s", ErrExists, name)
}
