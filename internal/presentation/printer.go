package presentation

import (
	"fmt"
	"io"
	"time"

	"exifpreset/internal/domain"
)

type Printer struct {
	Writer  io.Writer
	Verbose bool
}

// Progress prints one progress message per line.
func (p Printer) Progress(message string) {
	fmt.Fprintln(p.Writer, message)
}

func (p Printer) PrintPresets(presets []domain.Preset) {
	for _, preset := range presets {
		fmt.Fprintf(p.Writer, "%-7s %-16s %-16s %s\n", preset.Mode, preset.Make, preset.Model, preset.FilenameSuffix)
	}
}

func (p Printer) PrintInspect(infos []domain.SourceInfo) {
	fmt.Fprintln(p.Writer, "Sources:")
	fmt.Fprintln(p.Writer)

	unreadable := 0
	for _, info := range infos {
		if info.Err != nil {
			unreadable++
			fmt.Fprintf(p.Writer, "%s  (no EXIF: %v)\n", info.Source, info.Err)
			continue
		}
		fmt.Fprintf(p.Writer, "%s  %s  %s\n", info.Source, formatFields(info.Current), formatTaken(info.TakenAt))
	}

	fmt.Fprintln(p.Writer)
	fmt.Fprintf(p.Writer, "Inspected %d photos, %d without readable EXIF.\n", len(infos), unreadable)
}

func (p Printer) PrintDryRun(preset domain.Preset, items []domain.PreviewItem) {
	fmt.Fprintln(p.Writer, "Rewriting:")
	fmt.Fprintln(p.Writer)

	for _, line := range formatPreviewLines(items) {
		fmt.Fprintln(p.Writer, line)
	}

	fmt.Fprintln(p.Writer)
	fmt.Fprintf(p.Writer, "Would save %d photos as %s %s.\n", len(items), preset.Make, preset.Model)

	if p.Verbose {
		var warnings []string
		for _, item := range items {
			if item.Info.Err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", item.Info.Source, item.Info.Err))
			}
		}
		if len(warnings) > 0 {
			fmt.Fprintln(p.Writer)
			fmt.Fprintln(p.Writer, "Warnings:")
			for _, warning := range warnings {
				fmt.Fprintln(p.Writer, "- "+warning)
			}
		}
	}
}

func (p Printer) PrintResult(result domain.BatchResult) {
	fmt.Fprintln(p.Writer)
	fmt.Fprintf(p.Writer, "Saved %d of %d photos.\n", result.Succeeded, result.Total)
	if result.Cancelled {
		fmt.Fprintf(p.Writer, "Cancelled after %d photos.\n", len(result.Items))
	}

	failures := result.Failures()
	if len(failures) == 0 {
		return
	}
	fmt.Fprintln(p.Writer)
	fmt.Fprintln(p.Writer, "Failed:")
	for _, item := range failures {
		fmt.Fprintf(p.Writer, "%s  %s: %v\n", item.Source, item.Outcome, item.Outcome.Err)
	}
	if p.Verbose {
		fmt.Fprintln(p.Writer)
		fmt.Fprintf(p.Writer, "Run %s\n", result.RunID)
	}
}

func formatPreviewLines(items []domain.PreviewItem) []string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s -> %s  %s -> %s",
			item.Info.Source, item.DestinationName, formatFields(item.Info.Current), formatFields(item.Target)))
	}

	if len(lines) <= 4 {
		return lines
	}
	head := lines[:2]
	tail := lines[len(lines)-2:]
	return append(append(head, "..."), tail...)
}

func formatFields(fields domain.CameraFields) string {
	if fields.Make == "" && fields.Model == "" {
		return "(none)"
	}
	if fields.Make == "" || fields.Model == "" {
		return fields.Make + fields.Model
	}
	return fields.Make + " / " + fields.Model
}

func formatTaken(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format("2006-01-02 15:04")
}
