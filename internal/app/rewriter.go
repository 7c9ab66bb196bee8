package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"exifpreset/internal/domain"
	"exifpreset/internal/logging"
)

// DefaultCollection is the bucket new photos are placed in when the store
// supports nested placement.
const DefaultCollection = "Pictures/ExifTool"

var errNoDestination = errors.New("media store returned no destination")

// Rewriter copies each source to a freshly allocated destination and stamps
// the preset's make and model into the copy. Items run one at a time and a
// failing item never stops the batch.
type Rewriter struct {
	Store      MediaStore
	Codec      ExifCodec
	Collection string
	Logger     logging.Logger
	OnItem     ItemFunc
	Now        func() time.Time

	mu        sync.Mutex
	lastStamp time.Time
}

// RunMode resolves mode and runs the batch. An unknown mode fails before
// any progress is reported.
func (r *Rewriter) RunMode(ctx context.Context, sources []SourceHandle, mode domain.Mode, onProgress ProgressFunc) (domain.BatchResult, error) {
	preset, err := domain.Resolve(mode)
	if err != nil {
		return domain.BatchResult{}, err
	}
	return r.Run(ctx, sources, preset, onProgress), nil
}

func (r *Rewriter) Run(ctx context.Context, sources []SourceHandle, preset domain.Preset, onProgress ProgressFunc) domain.BatchResult {
	notify := func(message string) {
		if onProgress != nil {
			onProgress(message)
		}
	}

	started := r.runStamp()
	result := domain.BatchResult{
		RunID:     uuid.NewString(),
		StartedAt: started,
		Total:     len(sources),
		Items:     make([]domain.BatchItem, 0, len(sources)),
	}

	log := r.Logger.With("run", result.RunID)
	stop := log.Measure("Batch run")
	defer stop()
	log.Verbosef("Starting %s run over %d sources", preset.Mode, result.Total)

	for index, source := range sources {
		if ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		notify(fmt.Sprintf("Processing %d/%d...", index+1, result.Total))

		item := domain.BatchItem{
			Index:           index,
			Source:          source.Name(),
			DestinationName: DestinationName(started, index, preset.FilenameSuffix),
		}
		item.Location, item.Outcome = r.process(ctx, source, item.DestinationName, preset)

		if item.Outcome.OK() {
			result.Succeeded++
			log.Verbosef("Saved %s as %s", item.Source, item.DestinationName)
		} else {
			log.With("index", index).With("reason", item.Outcome.Reason).
				Warnf("Failed %s -> %s: %v", item.Source, item.DestinationName, item.Outcome.Err)
		}
		result.Items = append(result.Items, item)

		if r.OnItem != nil {
			r.OnItem(item, result.Total)
		}
	}

	if result.Cancelled {
		notify(fmt.Sprintf("Cancelled! Saved %d photos to Gallery/Pictures.", result.Succeeded))
	} else {
		notify(fmt.Sprintf("Done! Saved %d photos to Gallery/Pictures.", result.Succeeded))
	}
	return result
}

// process runs allocate, copy and patch for one item. step always names the
// stage in flight so a panic from a collaborator is still classified.
func (r *Rewriter) process(ctx context.Context, source SourceHandle, name string, preset domain.Preset) (location string, outcome domain.Outcome) {
	step := domain.ReasonDestinationAllocationFailed
	defer func() {
		if rec := recover(); rec != nil {
			outcome = domain.Failure(step, fmt.Errorf("panic: %v", rec))
		}
	}()

	dest, err := r.Store.Allocate(name, domain.JpegMimeType, r.collection())
	if err != nil {
		return "", domain.Failure(step, err)
	}
	if dest == nil {
		return "", domain.Failure(step, errNoDestination)
	}
	location = dest.Location()

	step = domain.ReasonCopyFailed
	if err := copyInto(source, dest); err != nil {
		return location, domain.Failure(step, err)
	}

	step = domain.ReasonMetadataWriteFailed
	if err := r.patch(ctx, dest, preset.Fields()); err != nil {
		return location, domain.Failure(step, err)
	}

	return location, domain.Success()
}

func copyInto(source SourceHandle, dest Destination) (err error) {
	in, err := source.Open()
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := dest.OpenWriter()
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close destination: %w", closeErr)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}

func (r *Rewriter) patch(ctx context.Context, dest Destination, fields domain.CameraFields) (err error) {
	file, err := dest.OpenReadWrite()
	if err != nil {
		return fmt.Errorf("open for metadata: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close after metadata: %w", closeErr)
		}
	}()

	return r.Codec.SetFields(ctx, file, fields)
}

func (r *Rewriter) collection() string {
	if r.Collection == "" {
		return DefaultCollection
	}
	return r.Collection
}

// runStamp captures the run start. Runs on the same Rewriter never share a
// stamp, even when the clock has not moved on.
func (r *Rewriter) runStamp() time.Time {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	stamp := now().Truncate(time.Millisecond)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !stamp.After(r.lastStamp) {
		stamp = r.lastStamp.Add(time.Millisecond)
	}
	r.lastStamp = stamp
	return stamp
}
