package presentation

import (
	"io"

	"github.com/schollz/progressbar/v3"

	"exifpreset/internal/domain"
)

// BarSink renders batch progress as a single progress bar line. Progress
// messages become the bar description; every finished item advances it.
type BarSink struct {
	bar *progressbar.ProgressBar
}

func NewBarSink(writer io.Writer, total int) *BarSink {
	return &BarSink{
		bar: progressbar.NewOptions(total,
			progressbar.OptionSetWriter(writer),
			progressbar.OptionSetDescription("Rewriting"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("photos"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		),
	}
}

func (s *BarSink) Progress(message string) {
	s.bar.Describe(message)
}

func (s *BarSink) Item(_ domain.BatchItem, _ int) {
	_ = s.bar.Add(1)
}

func (s *BarSink) Finish() error {
	return s.bar.Finish()
}
