package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/haivivi/echomemo/pkg/storage"
)

// ErrReleased is returned when archiving an artifact whose file is gone.
var ErrReleased = errors.New("artifact: already released")

// Archiver copies artifacts into a long-term FileStore before they are
// released.
type Archiver struct {
	store storage.FileStore
}

// NewArchiver returns an archiver writing to store.
func NewArchiver(store storage.FileStore) *Archiver {
	return &Archiver{store: store}
}

// Archive stores a under YYYY/MM/DD/<tag>-<id><ext> and returns that path.
// The artifact itself is left untouched.
func (ar *Archiver) Archive(ctx context.Context, a *Artifact, tag string) (string, error) {
	if a.Released() {
		return "", fmt.Errorf("artifact: archive %s: %w", a, ErrReleased)
	}
	f, err := os.Open(a.Path)
	if err != nil {
		return "", fmt.Errorf("artifact: archive open: %w", err)
	}
	defer f.Close()

	path := fmt.Sprintf("%s/%s-%s%s", a.Created.Format("2006/01/02"), tag, a.ID, filepath.Ext(a.Path))
	if err := ar.store.Put(ctx, path, f, "audio/wav"); err != nil {
		return "", fmt.Errorf("artifact: archive: %w", err)
	}
	return path, nil
}
