package fs

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"exifpreset/internal/app"
	"exifpreset/internal/domain"
)

// Store allocates new photos under Root. With Flat set the collection hint
// is ignored and everything lands directly in Root.
type Store struct {
	FS   afero.Fs
	Root string
	Flat bool
}

func NewOSStore(root string, flat bool) Store {
	return Store{FS: afero.NewOsFs(), Root: root, Flat: flat}
}

func (s Store) Allocate(displayName, mimeType, collection string) (app.Destination, error) {
	if mimeType != domain.JpegMimeType {
		return nil, errors.Errorf("unsupported mime type %q", mimeType)
	}
	if displayName == "" || displayName != filepath.Base(displayName) || strings.HasPrefix(displayName, ".") {
		return nil, errors.Errorf("invalid display name %q", displayName)
	}

	dir, err := s.dir(collection)
	if err != nil {
		return nil, err
	}
	if err := s.FS.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", dir)
	}

	path := filepath.Join(dir, displayName)
	file, err := s.FS.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "allocate %s", path)
	}
	if err := file.Close(); err != nil {
		return nil, errors.Wrapf(err, "allocate %s", path)
	}

	return &Destination{fs: s.FS, path: path, name: displayName}, nil
}

func (s Store) dir(collection string) (string, error) {
	if s.Flat || collection == "" {
		return s.Root, nil
	}
	rel := filepath.Clean(filepath.FromSlash(collection))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("collection %q escapes the store root", collection)
	}
	return filepath.Join(s.Root, rel), nil
}

type Destination struct {
	fs   afero.Fs
	path string
	name string
}

func (d *Destination) Name() string {
	return d.name
}

func (d *Destination) Location() string {
	return d.path
}

func (d *Destination) OpenWriter() (io.WriteCloser, error) {
	return d.fs.OpenFile(d.path, os.O_WRONLY|os.O_TRUNC, 0)
}

func (d *Destination) OpenReadWrite() (app.MetadataFile, error) {
	return d.fs.OpenFile(d.path, os.O_RDWR, 0)
}
