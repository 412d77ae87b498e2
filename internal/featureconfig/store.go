package featureconfig

import (
	"context"
	"errors"
)

// ErrNoDocument indicates that nothing has ever been stored, or that the
// stored payload is unreadable. Callers substitute the built-in default.
var ErrNoDocument = errors.New("featureconfig: no stored document")

// Store persists the last-known-good configuration document. Implementations
// replace the stored value wholesale on every Save; a Load that cannot
// produce a complete valid document returns ErrNoDocument.
type Store interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) error
}
