package photostore

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_photostore.go -package=mocks github.com/vbonduro/findit/internal/photostore PhotoStore

import (
	"context"
	"io"
)

// PhotoStore owns the photo files that items reference. Items keep only the
// returned reference.
type PhotoStore interface {
	// Persist moves the file at sourcePath into the store under name and
	// returns the stored reference. It fails if name is already taken.
	Persist(ctx context.Context, sourcePath, name string) (storedRef string, err error)
	// Restore moves a stored photo back to destPath, undoing Persist.
	Restore(ctx context.Context, ref, destPath string) error
	Get(ctx context.Context, ref string) (io.ReadCloser, string, error)
	// Delete removes the photo. Deleting a photo that is already gone is not
	// an error.
	Delete(ctx context.Context, ref string) error
}
