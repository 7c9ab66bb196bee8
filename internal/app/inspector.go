package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"exifpreset/internal/domain"
	"exifpreset/internal/logging"
)

// ProgressCountFunc is called while inspecting to report progress.
type ProgressCountFunc func(current, total int)

// Inspector reads the current camera fields of the selected sources.
type Inspector struct {
	Exif       ExifReader
	Workers    int
	Logger     logging.Logger
	OnProgress ProgressCountFunc
}

// Inspect returns one SourceInfo per source, in input order. Unreadable
// metadata is recorded on the entry; only cancellation aborts.
func (i *Inspector) Inspect(ctx context.Context, sources []SourceHandle) ([]domain.SourceInfo, error) {
	if i.Exif == nil {
		return nil, errors.New("inspector requires an EXIF reader")
	}

	stop := i.Logger.Measure("Inspecting sources")
	defer stop()

	workerCount := i.Workers
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	if workerCount < 1 {
		workerCount = 1
	}
	i.Logger.Verbosef("Using %d EXIF workers", workerCount)

	type job struct {
		index  int
		source SourceHandle
	}

	jobs := make(chan job)
	results := make(chan domain.SourceInfo)
	done := make(chan struct{})
	defer close(done)

	for w := 0; w < workerCount; w++ {
		go func() {
			for j := range jobs {
				info := i.inspectOne(ctx, j.index, j.source)
				select {
				case results <- info:
				case <-done:
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for index, source := range sources {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case jobs <- job{index: index, source: source}:
			}
		}
	}()

	infos := make([]domain.SourceInfo, len(sources))
	total := len(sources)
	for n := 0; n < total; n++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case info := <-results:
			if info.Err != nil && isCancellation(info.Err) {
				return nil, info.Err
			}
			infos[info.Index] = info
			if i.OnProgress != nil {
				i.OnProgress(n+1, total)
			}
		}
	}

	return infos, nil
}

func (i *Inspector) inspectOne(ctx context.Context, index int, source SourceHandle) domain.SourceInfo {
	info := domain.SourceInfo{Index: index, Source: source.Name()}

	reader, err := source.Open()
	if err != nil {
		info.Err = fmt.Errorf("open: %w", err)
		return info
	}
	defer reader.Close()

	fields, takenAt, err := i.Exif.CameraFields(ctx, reader)
	if err != nil {
		info.Err = err
		i.Logger.Verbosef("No EXIF for %s: %v", source.Name(), err)
		return info
	}
	info.Current = fields
	info.TakenAt = takenAt
	return info
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
