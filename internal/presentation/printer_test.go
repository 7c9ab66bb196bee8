package presentation

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exifpreset/internal/domain"
)

var leica = domain.Preset{Mode: domain.ModeLeica, Make: "LEICA CAMERA AG", Model: "LEICA Q3", FilenameSuffix: "_Leica"}

func TestFormatPreviewLinesTruncates(t *testing.T) {
	items := make([]domain.PreviewItem, 0, 6)
	for i := 0; i < 6; i++ {
		items = append(items, domain.PreviewItem{
			Info:            domain.SourceInfo{Index: i, Source: fmt.Sprintf("DSC000%d.JPG", i)},
			DestinationName: fmt.Sprintf("IMG_1_%d_Leica.jpg", i),
			Target:          leica.Fields(),
		})
	}

	lines := formatPreviewLines(items)
	require.Len(t, lines, 5)
	assert.Equal(t, "...", lines[2])
	assert.True(t, strings.HasPrefix(lines[4], "DSC0005.JPG -> IMG_1_5_Leica.jpg"))
}

func TestPrintDryRun(t *testing.T) {
	var buf bytes.Buffer
	printer := Printer{Writer: &buf, Verbose: true}

	printer.PrintDryRun(leica, []domain.PreviewItem{
		{
			Info:            domain.SourceInfo{Source: "a.jpg", Current: domain.CameraFields{Make: "Apple", Model: "iPhone 15"}},
			DestinationName: "IMG_1_0_Leica.jpg",
			Target:          leica.Fields(),
		},
		{
			Info:            domain.SourceInfo{Index: 1, Source: "b.jpg", Err: errors.New("no exif")},
			DestinationName: "IMG_1_1_Leica.jpg",
			Target:          leica.Fields(),
		},
	})

	output := buf.String()
	assert.Contains(t, output, "Rewriting:")
	assert.Contains(t, output, "a.jpg -> IMG_1_0_Leica.jpg  Apple / iPhone 15 -> LEICA CAMERA AG / LEICA Q3")
	assert.Contains(t, output, "b.jpg -> IMG_1_1_Leica.jpg  (none) -> LEICA CAMERA AG / LEICA Q3")
	assert.Contains(t, output, "Would save 2 photos as LEICA CAMERA AG LEICA Q3.")
	assert.Contains(t, output, "- b.jpg: no exif")
}

func TestPrintResultListsFailures(t *testing.T) {
	var buf bytes.Buffer
	Printer{Writer: &buf}.PrintResult(domain.BatchResult{
		Total:     2,
		Succeeded: 1,
		Items: []domain.BatchItem{
			{Index: 0, Source: "a.jpg", Outcome: domain.Success()},
			{Index: 1, Source: "b.jpg", Outcome: domain.Failure(domain.ReasonCopyFailed, errors.New("disk full"))},
		},
	})

	output := buf.String()
	assert.Contains(t, output, "Saved 1 of 2 photos.")
	assert.Contains(t, output, "b.jpg  copy_failed: disk full")
	assert.NotContains(t, output, "Cancelled")
}

func TestPrintResultCancelled(t *testing.T) {
	var buf bytes.Buffer
	Printer{Writer: &buf}.PrintResult(domain.BatchResult{
		Total:     3,
		Succeeded: 1,
		Items:     []domain.BatchItem{{Source: "a.jpg"}},
		Cancelled: true,
	})
	assert.Contains(t, buf.String(), "Cancelled after 1 photos.")
	assert.NotContains(t, buf.String(), "Failed:")
}

func TestPrintInspect(t *testing.T) {
	var buf bytes.Buffer
	taken := time.Date(2024, 10, 2, 15, 1, 0, 0, time.Local)
	Printer{Writer: &buf}.PrintInspect([]domain.SourceInfo{
		{Source: "a.jpg", Current: domain.CameraFields{Make: "Apple", Model: "iPhone 15"}, TakenAt: &taken},
		{Source: "b.jpg", Err: errors.New("no exif")},
	})

	output := buf.String()
	assert.Contains(t, output, "a.jpg  Apple / iPhone 15  2024-10-02 15:01")
	assert.Contains(t, output, "b.jpg  (no EXIF: no exif)")
	assert.Contains(t, output, "Inspected 2 photos, 1 without readable EXIF.")
}

func TestPrintPresets(t *testing.T) {
	var buf bytes.Buffer
	Printer{Writer: &buf}.PrintPresets(domain.Presets())
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "LEICA"))
	assert.True(t, strings.HasSuffix(lines[1], "_Mi"))
}

func TestBarSinkWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	sink := NewBarSink(&buf, 2)
	sink.Progress("Processing 1/2...")
	sink.Item(domain.BatchItem{}, 2)
	sink.Item(domain.BatchItem{}, 2)
	require.NoError(t, sink.Finish())
	assert.Contains(t, buf.String(), "2/2")
}
