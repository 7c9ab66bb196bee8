package exif

import (
	"context"

	"github.com/barasher/go-exiftool"
	"github.com/pkg/errors"

	"exifpreset/internal/app"
	"exifpreset/internal/domain"
)

// ExiftoolWriter delegates metadata writes to a long-running exiftool
// process. The file must live on the local filesystem.
type ExiftoolWriter struct {
	et *exiftool.Exiftool
}

func NewExiftoolWriter(opts ...func(*exiftool.Exiftool) error) (*ExiftoolWriter, error) {
	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "start exiftool")
	}
	return &ExiftoolWriter{et: et}, nil
}

func (w *ExiftoolWriter) SetFields(ctx context.Context, file app.MetadataFile, fields domain.CameraFields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.et == nil {
		return errors.New("exiftool not initialised")
	}

	metadata := []exiftool.FileMetadata{{
		File:   file.Name(),
		Fields: map[string]interface{}{},
	}}
	metadata[0].SetString("Make", fields.Make)
	metadata[0].SetString("Model", fields.Model)

	w.et.WriteMetadata(metadata)
	if metadata[0].Err != nil {
		return errors.Wrapf(metadata[0].Err, "exiftool write %s", file.Name())
	}
	return nil
}

func (w *ExiftoolWriter) Close() error {
	if w.et == nil {
		return nil
	}
	return w.et.Close()
}
