package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vbonduro/findit/internal/db"
	"github.com/vbonduro/findit/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T) *db.Manager {
	t.Helper()
	mgr := db.NewManager(filepath.Join(t.TempDir(), "findit.db"), testLogger())
	t.Cleanup(func() { assert.NoError(t, mgr.Close()) })
	return mgr
}

func ptr[T any](v T) *T {
	return &v
}

func newItem(id, label string, createdAt int64) domain.NewItem {
	return domain.NewItem{
		ID:        id,
		Label:     label,
		PhotoURI:  "/photos/" + id + ".jpg",
		CreatedAt: createdAt,
	}
}

func labels(items []*domain.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Label)
	}
	return out
}
