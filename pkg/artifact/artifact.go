// Package artifact manages temporary audio files: captured recordings and
// downloaded speech. Every artifact has exactly one owner at a time, and the
// owner releases it when done.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kinds of artifacts.
const (
	KindCapture = "capture"
	KindSpeech  = "speech"
)

// Artifact is a handle to a temporary file.
type Artifact struct {
	ID      string
	Kind    string
	Path    string
	Created time.Time

	once sync.Once
	err  error
}

// Size returns the current file size.
func (a *Artifact) Size() (int64, error) {
	info, err := os.Stat(a.Path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Release deletes the file. It is safe to call on a nil artifact and more
// than once; later calls return the first result.
func (a *Artifact) Release() error {
	if a == nil {
		return nil
	}
	a.once.Do(func() {
		err := os.Remove(a.Path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			a.err = fmt.Errorf("artifact: release %s: %w", a.Path, err)
		}
	})
	return a.err
}

// Released reports whether the backing file is gone.
func (a *Artifact) Released() bool {
	if a == nil {
		return true
	}
	_, err := os.Stat(a.Path)
	return errors.Is(err, fs.ErrNotExist)
}

func (a *Artifact) String() string {
	if a == nil {
		return "<none>"
	}
	return a.Kind + ":" + a.ID
}

// Dir is the directory where artifacts are created.
type Dir struct {
	root string
	now  func() time.Time
}

const filePrefix = "echomemo-"

// NewDir creates the artifact directory. An empty root selects
// $TMPDIR/echomemo.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "echomemo")
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("artifact: create dir: %w", err)
	}
	return &Dir{root: root, now: time.Now}, nil
}

// Root returns the directory path.
func (d *Dir) Root() string { return d.root }

// Create makes a fresh empty placeholder file for an artifact of kind with
// extension ext (".wav"). The caller owns both the artifact and the open
// file.
func (d *Dir) Create(kind, ext string) (*Artifact, *os.File, error) {
	id := uuid.NewString()
	path := filepath.Join(d.root, filePrefix+kind+"-"+id+ext)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("artifact: create: %w", err)
	}
	return &Artifact{ID: id, Kind: kind, Path: path, Created: d.now()}, f, nil
}

// Sweep removes artifact files left behind by an earlier process, such as
// after a power cut mid-recording. It returns the number removed.
func (d *Dir) Sweep() (int, error) {
	files, err := d.Pending()
	if err != nil {
		return 0, fmt.Errorf("artifact: sweep: %w", err)
	}
	var n int
	for _, path := range files {
		if err := os.Remove(path); err == nil {
			n++
		}
	}
	return n, nil
}

// Pending returns the artifact files currently in the directory.
func (d *Dir) Pending() ([]string, error) {
	return filepath.Glob(filepath.Join(d.root, filePrefix+"*"))
}
