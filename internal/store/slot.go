// Package store defines the durable snapshot slot the observation store
// mirrors itself into. Backends live in the subpackages.
package store

import (
	"context"
	"errors"
)

// ErrSlotEmpty is returned by Read when nothing has been written yet.
var ErrSlotEmpty = errors.New("slot is empty")

// Slot is a single named key-value entry holding one snapshot.
// Write replaces the whole value atomically: a reader sees either the
// previous snapshot or the new one, never a mix.
type Slot interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Ping(ctx context.Context) error
	// Name describes the backend and slot, for logs and /infra.
	Name() string
}

// Archiver is implemented by slots that can set aside a snapshot that
// failed to decode, so that the next Write does not destroy it.
type Archiver interface {
	Archive(ctx context.Context, data []byte) error
}
