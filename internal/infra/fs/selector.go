package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"exifpreset/internal/app"
	"exifpreset/internal/domain"
	appErrors "exifpreset/internal/errors"
)

// Source is a photo on an afero filesystem.
type Source struct {
	FS   afero.Fs
	Path string
}

func (s Source) Name() string {
	return s.Path
}

func (s Source) Open() (io.ReadCloser, error) {
	return s.FS.Open(s.Path)
}

// Selector turns command line paths into an ordered list of sources. Files
// keep argument order; directories expand to their JPEGs in lexical order.
type Selector struct {
	FS        afero.Fs
	Recursive bool
}

func NewOSSelector(recursive bool) Selector {
	return Selector{FS: afero.NewOsFs(), Recursive: recursive}
}

func (s Selector) Select(args []string) ([]app.SourceHandle, error) {
	var sources []app.SourceHandle
	for _, arg := range args {
		info, err := s.FS.Stat(arg)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, appErrors.Wrap(appErrors.NotFound, "select", arg, err)
			}
			return nil, appErrors.Wrap(appErrors.IOFailure, "select", arg, err)
		}

		if !info.IsDir() {
			if !domain.IsJpegPath(arg) {
				return nil, appErrors.Wrap(appErrors.InvalidConfig, "select", arg, fmt.Errorf("%s is not a JPEG file", arg))
			}
			sources = append(sources, Source{FS: s.FS, Path: arg})
			continue
		}

		paths, err := s.expand(arg)
		if err != nil {
			return nil, appErrors.Wrap(appErrors.IOFailure, "walk", arg, err)
		}
		for _, path := range paths {
			sources = append(sources, Source{FS: s.FS, Path: path})
		}
	}
	return sources, nil
}

func (s Selector) expand(dir string) ([]string, error) {
	var paths []string
	if !s.Recursive {
		entries, err := afero.ReadDir(s.FS, dir)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() && domain.IsJpegExtension(filepath.Ext(entry.Name())) {
				paths = append(paths, filepath.Join(dir, entry.Name()))
			}
		}
		sort.Strings(paths)
		return paths, nil
	}

	err := afero.Walk(s.FS, dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !info.IsDir() && domain.IsJpegPath(path) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}
