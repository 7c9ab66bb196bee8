package app

import (
	"context"
	"io"
	"time"

	"exifpreset/internal/domain"
)

// SourceHandle is a readable image picked by the user. The pipeline only
// reads through it.
type SourceHandle interface {
	Name() string
	Open() (io.ReadCloser, error)
}

type MediaStore interface {
	// Allocate reserves a new destination. It never returns an existing one.
	Allocate(displayName, mimeType, collection string) (Destination, error)
}

type Destination interface {
	Name() string
	Location() string
	OpenWriter() (io.WriteCloser, error)
	OpenReadWrite() (MetadataFile, error)
}

// MetadataFile is a JPEG opened for in-place metadata edits.
type MetadataFile interface {
	io.ReadWriteSeeker
	io.Closer
	Truncate(size int64) error
	Name() string
}

type ExifCodec interface {
	SetFields(ctx context.Context, file MetadataFile, fields domain.CameraFields) error
}

type ExifReader interface {
	CameraFields(ctx context.Context, r io.Reader) (domain.CameraFields, *time.Time, error)
}

// ProgressFunc receives human-readable progress messages. It must not block.
type ProgressFunc func(message string)

// ItemFunc is called once per item after its outcome is recorded.
type ItemFunc func(item domain.BatchItem, total int)
