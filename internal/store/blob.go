package store

import (
	"context"
	"errors"
)

// ErrNoSnapshot indicates the substrate holds no collection yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Blob is the durable key-value substrate the record store sits on. The
// whole collection round-trips as one opaque serialized value: Load returns
// the last saved snapshot (or ErrNoSnapshot), Save replaces it.
type Blob interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}
