package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exifpreset/internal/domain"
)

var runStart = time.UnixMilli(1700000000123)

func mustPreset(t *testing.T, mode domain.Mode) domain.Preset {
	t.Helper()
	preset, err := domain.Resolve(mode)
	require.NoError(t, err)
	return preset
}

func assertTally(t *testing.T, result domain.BatchResult) {
	t.Helper()
	successes := 0
	for i, item := range result.Items {
		assert.Equal(t, i, item.Index)
		if item.Outcome.OK() {
			successes++
		}
	}
	assert.Equal(t, successes, result.Succeeded)
	assert.LessOrEqual(t, result.Succeeded, result.Total)
}

func TestRunCopyFailureIsIsolated(t *testing.T) {
	store := newFakeStore()
	codec := &fakeCodec{}
	rewriter := &Rewriter{Store: store, Codec: codec, Now: fixedClock(runStart)}
	progress := &progressRecorder{}

	sources := []SourceHandle{
		fakeSource{name: "A.jpg", data: []byte("jpeg-a")},
		fakeSource{name: "B.jpg", data: []byte("jpeg-b"), readErr: errors.New("disk gone")},
	}

	result := rewriter.Run(context.Background(), sources, mustPreset(t, domain.ModeLeica), progress.notify)

	require.Len(t, result.Items, 2)
	assert.True(t, result.Items[0].Outcome.OK())
	assert.Equal(t, domain.ReasonCopyFailed, result.Items[1].Outcome.Reason)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, []string{
		"Processing 1/2...",
		"Processing 2/2...",
		"Done! Saved 1 photos to Gallery/Pictures.",
	}, progress.messages)
	assertTally(t, result)

	first := store.dests["IMG_1700000000123_0_Leica.jpg"]
	require.NotNil(t, first)
	assert.Equal(t, "jpeg-a|LEICA CAMERA AG|LEICA Q3", first.buf.String())
	assert.True(t, first.writerClosed)
	assert.True(t, first.rwClosed)

	second := store.dests["IMG_1700000000123_1_Leica.jpg"]
	require.NotNil(t, second)
	assert.True(t, second.writerClosed, "writer must be released on the error path")
	assert.Len(t, codec.calls, 1)
}

func TestRunAllocationFailure(t *testing.T) {
	store := newFakeStore()
	store.failNames["IMG_1700000000123_0_Mi.jpg"] = true
	rewriter := &Rewriter{Store: store, Codec: &fakeCodec{}, Now: fixedClock(runStart)}

	result := rewriter.Run(context.Background(), []SourceHandle{fakeSource{name: "A.jpg", data: []byte("a")}}, mustPreset(t, domain.ModeXiaomi), nil)

	require.Len(t, result.Items, 1)
	assert.Equal(t, domain.ReasonDestinationAllocationFailed, result.Items[0].Outcome.Reason)
	assert.Equal(t, 0, result.Succeeded)
	assert.Empty(t, result.Items[0].Location)
}

func TestRunNilDestinationIsAllocationFailure(t *testing.T) {
	store := newFakeStore()
	store.returnNil = true
	rewriter := &Rewriter{Store: store, Codec: &fakeCodec{}, Now: fixedClock(runStart)}

	result := rewriter.Run(context.Background(), []SourceHandle{fakeSource{name: "A.jpg"}}, mustPreset(t, domain.ModeLeica), nil)

	assert.Equal(t, domain.ReasonDestinationAllocationFailed, result.Items[0].Outcome.Reason)
	assert.ErrorIs(t, result.Items[0].Outcome.Err, errNoDestination)
}

func TestRunOpenFailuresAreCopyFailures(t *testing.T) {
	store := newFakeStore()
	store.writeErr["IMG_1700000000123_1_Leica.jpg"] = errors.New("read-only")
	rewriter := &Rewriter{Store: store, Codec: &fakeCodec{}, Now: fixedClock(runStart)}

	sources := []SourceHandle{
		fakeSource{name: "A.jpg", openErr: errors.New("permission denied")},
		fakeSource{name: "B.jpg", data: []byte("b")},
	}
	result := rewriter.Run(context.Background(), sources, mustPreset(t, domain.ModeLeica), nil)

	assert.Equal(t, domain.ReasonCopyFailed, result.Items[0].Outcome.Reason)
	assert.Equal(t, domain.ReasonCopyFailed, result.Items[1].Outcome.Reason)
	assert.Equal(t, "/store/IMG_1700000000123_0_Leica.jpg", result.Items[0].Location)
	assertTally(t, result)
}

func TestRunMetadataFailureKeepsCopiedBytes(t *testing.T) {
	store := newFakeStore()
	codec := &fakeCodec{failFor: map[string]error{
		"IMG_1700000000123_0_Leica.jpg": errors.New("not a JPEG"),
	}}
	store.rwErr["IMG_1700000000123_1_Leica.jpg"] = errors.New("busy")
	rewriter := &Rewriter{Store: store, Codec: codec, Now: fixedClock(runStart)}

	sources := []SourceHandle{
		fakeSource{name: "A.png", data: []byte("png-bytes")},
		fakeSource{name: "B.jpg", data: []byte("b")},
		fakeSource{name: "C.jpg", data: []byte("c")},
	}
	result := rewriter.Run(context.Background(), sources, mustPreset(t, domain.ModeLeica), nil)

	assert.Equal(t, domain.ReasonMetadataWriteFailed, result.Items[0].Outcome.Reason)
	assert.Equal(t, domain.ReasonMetadataWriteFailed, result.Items[1].Outcome.Reason)
	assert.True(t, result.Items[2].Outcome.OK())
	assert.Equal(t, 1, result.Succeeded)

	orphan := store.dests["IMG_1700000000123_0_Leica.jpg"]
	assert.Equal(t, "png-bytes", orphan.buf.String())
	assert.True(t, orphan.rwClosed)
	assertTally(t, result)
}

func TestRunRecoversCollaboratorPanic(t *testing.T) {
	store := newFakeStore()
	store.panicOn["IMG_1700000000123_0_Leica.jpg"] = true
	rewriter := &Rewriter{Store: store, Codec: &fakeCodec{}, Now: fixedClock(runStart)}

	sources := []SourceHandle{
		fakeSource{name: "A.jpg", data: []byte("a")},
		fakeSource{name: "B.jpg", data: []byte("b")},
	}
	result := rewriter.Run(context.Background(), sources, mustPreset(t, domain.ModeLeica), nil)

	require.Len(t, result.Items, 2)
	assert.Equal(t, domain.ReasonDestinationAllocationFailed, result.Items[0].Outcome.Reason)
	assert.Contains(t, result.Items[0].Outcome.Err.Error(), "store exploded")
	assert.True(t, result.Items[1].Outcome.OK())
}

func TestRunEmptySources(t *testing.T) {
	progress := &progressRecorder{}
	rewriter := &Rewriter{Store: newFakeStore(), Codec: &fakeCodec{}}

	result := rewriter.Run(context.Background(), nil, mustPreset(t, domain.ModeLeica), progress.notify)

	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0, result.Succeeded)
	assert.Empty(t, result.Items)
	assert.Equal(t, []string{"Done! Saved 0 photos to Gallery/Pictures."}, progress.messages)
}

func TestRunModeUnknownNeverProcesses(t *testing.T) {
	store := newFakeStore()
	progress := &progressRecorder{}
	rewriter := &Rewriter{Store: store, Codec: &fakeCodec{}}

	_, err := rewriter.RunMode(context.Background(), []SourceHandle{fakeSource{name: "A.jpg"}}, domain.Mode("CANON"), progress.notify)

	var unknown *domain.UnknownPresetError
	require.ErrorAs(t, err, &unknown)
	assert.Empty(t, progress.messages)
	assert.Empty(t, store.allocated)
}

func TestRunModeResolvesPreset(t *testing.T) {
	codec := &fakeCodec{}
	rewriter := &Rewriter{Store: newFakeStore(), Codec: codec, Now: fixedClock(runStart)}

	result, err := rewriter.RunMode(context.Background(), []SourceHandle{fakeSource{name: "A.jpg"}}, domain.ModeXiaomi, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, []domain.CameraFields{{Make: "Xiaomi", Model: "Xiaomi 17 Ultra"}}, codec.calls)
	assert.Equal(t, "IMG_1700000000123_0_Mi.jpg", result.Items[0].DestinationName)
}

func TestRunNamesAreUniqueWithinRun(t *testing.T) {
	rewriter := &Rewriter{Store: newFakeStore(), Codec: &fakeCodec{}, Now: fixedClock(runStart)}

	var sources []SourceHandle
	for i := 0; i < 25; i++ {
		// duplicates are processed independently
		sources = append(sources, fakeSource{name: "same.jpg", data: []byte("x")})
	}
	result := rewriter.Run(context.Background(), sources, mustPreset(t, domain.ModeLeica), nil)

	seen := map[string]bool{}
	for _, item := range result.Items {
		assert.False(t, seen[item.DestinationName], item.DestinationName)
		seen[item.DestinationName] = true
	}
	assert.Equal(t, 25, result.Succeeded)
}

func TestConsecutiveRunsNeverShareNames(t *testing.T) {
	store := newFakeStore()
	rewriter := &Rewriter{Store: store, Codec: &fakeCodec{}, Now: fixedClock(runStart)}
	sources := []SourceHandle{
		fakeSource{name: "A.jpg", data: []byte("a")},
		fakeSource{name: "B.jpg", data: []byte("b")},
	}
	preset := mustPreset(t, domain.ModeLeica)

	first := rewriter.Run(context.Background(), sources, preset, nil)
	second := rewriter.Run(context.Background(), sources, preset, nil)

	names := map[string]bool{}
	for _, item := range first.Items {
		names[item.DestinationName] = true
	}
	for _, item := range second.Items {
		assert.False(t, names[item.DestinationName], "second run reused %s", item.DestinationName)
	}
	assert.True(t, second.StartedAt.After(first.StartedAt))
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, 4, len(store.dests))
}

func TestRunCancellationReturnsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	progress := &progressRecorder{}
	rewriter := &Rewriter{Store: newFakeStore(), Codec: &fakeCodec{}, Now: fixedClock(runStart)}
	rewriter.OnItem = func(item domain.BatchItem, total int) {
		if item.Index == 0 {
			cancel()
		}
	}

	sources := []SourceHandle{
		fakeSource{name: "A.jpg", data: []byte("a")},
		fakeSource{name: "B.jpg", data: []byte("b")},
		fakeSource{name: "C.jpg", data: []byte("c")},
	}
	result := rewriter.Run(ctx, sources, mustPreset(t, domain.ModeLeica), progress.notify)

	assert.True(t, result.Cancelled)
	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, []string{
		"Processing 1/3...",
		"Cancelled! Saved 1 photos to Gallery/Pictures.",
	}, progress.messages)
}

func TestRunUsesCollectionHint(t *testing.T) {
	store := newFakeStore()
	rewriter := &Rewriter{Store: store, Codec: &fakeCodec{}}
	rewriter.Run(context.Background(), []SourceHandle{fakeSource{name: "A.jpg"}}, mustPreset(t, domain.ModeLeica), nil)

	custom := &Rewriter{Store: store, Codec: &fakeCodec{}, Collection: "DCIM/Edited"}
	custom.Run(context.Background(), []SourceHandle{fakeSource{name: "A.jpg"}}, mustPreset(t, domain.ModeLeica), nil)

	assert.Equal(t, []string{DefaultCollection, "DCIM/Edited"}, store.collections)
}

func TestOnItemSeesEveryOutcomeInOrder(t *testing.T) {
	var seen []string
	rewriter := &Rewriter{Store: newFakeStore(), Codec: &fakeCodec{}, Now: fixedClock(runStart)}
	rewriter.OnItem = func(item domain.BatchItem, total int) {
		seen = append(seen, fmt.Sprintf("%d/%d:%s", item.Index, total, item.Outcome))
	}
	sources := []SourceHandle{
		fakeSource{name: "A.jpg"},
		fakeSource{name: "B.jpg", openErr: errors.New("gone")},
	}
	rewriter.Run(context.Background(), sources, mustPreset(t, domain.ModeLeica), nil)

	assert.Equal(t, []string{"0/2:success", "1/2:copy_failed"}, seen)
}
