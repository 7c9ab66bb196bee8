package app

import (
	"fmt"
	"time"

	"exifpreset/internal/domain"
)

// DestinationName builds the display name for item index of a run that
// started at runStart. Names are unique per (runStart, index).
func DestinationName(runStart time.Time, index int, suffix string) string {
	return fmt.Sprintf("IMG_%d_%d%s.jpg", runStart.UnixMilli(), index, suffix)
}

// Preview pairs inspected sources with the names and values a run started
// at runStart would produce.
func Preview(infos []domain.SourceInfo, preset domain.Preset, runStart time.Time) []domain.PreviewItem {
	items := make([]domain.PreviewItem, 0, len(infos))
	for _, info := range infos {
		items = append(items, domain.PreviewItem{
			Info:            info,
			DestinationName: DestinationName(runStart, info.Index, preset.FilenameSuffix),
			Target:          preset.Fields(),
		})
	}
	return items
}
