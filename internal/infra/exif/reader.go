package exif

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	goexif "github.com/rwcarlsen/goexif/exif"

	"exifpreset/internal/domain"
)

type Reader struct{}

// CameraFields decodes the EXIF block of r and returns its make, model and
// capture time. A missing capture time is not an error.
func (Reader) CameraFields(ctx context.Context, r io.Reader) (domain.CameraFields, *time.Time, error) {
	select {
	case <-ctx.Done():
		return domain.CameraFields{}, nil, ctx.Err()
	default:
	}

	x, err := goexif.Decode(r)
	if err != nil && (x == nil || goexif.IsCriticalError(err)) {
		return domain.CameraFields{}, nil, errors.Wrap(err, "decode exif")
	}

	fields := domain.CameraFields{
		Make:  stringTag(x, goexif.Make),
		Model: stringTag(x, goexif.Model),
	}
	return fields, takenAt(x), nil
}

func stringTag(x *goexif.Exif, name goexif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	value, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return value
}

func takenAt(x *goexif.Exif) *time.Time {
	if str := stringTag(x, goexif.DateTimeOriginal); str != "" {
		if parsed, err := time.Parse("2006:01:02 15:04:05", str); err == nil {
			return &parsed
		}
	}
	if parsed, err := x.DateTime(); err == nil {
		return &parsed
	}
	return nil
}
