package domain

import (
	"path/filepath"
	"strings"
	"time"
)

const JpegMimeType = "image/jpeg"

type CameraFields struct {
	Make  string
	Model string
}

// SourceInfo is what the inspector learned about one selected source.
type SourceInfo struct {
	Index   int
	Source  string
	Current CameraFields
	TakenAt *time.Time
	Err     error
}

func IsJpegExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}

func IsJpegPath(path string) bool {
	return IsJpegExtension(filepath.Ext(path))
}

// PreviewItem describes what a run would do with one source.
type PreviewItem struct {
	Info            SourceInfo
	DestinationName string
	Target          CameraFields
}
