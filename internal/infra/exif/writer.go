package exif

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"sort"

	"github.com/pkg/errors"
	goexif "github.com/rwcarlsen/goexif/exif"

	"exifpreset/internal/app"
	"exifpreset/internal/domain"
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP0 = 0xE0
	markerAPP1 = 0xE1

	tagMake   = 0x010F
	tagModel  = 0x0110
	typeASCII = 2

	maxSegmentPayload = 0xFFFF - 2
)

var (
	ErrNotJPEG = errors.New("not a JPEG file")

	exifHeader = []byte("Exif\x00\x00")
)

// Writer rewrites the camera make and model of a JPEG in place without
// touching the image data or any other tag.
type Writer struct{}

func (Writer) SetFields(ctx context.Context, file app.MetadataFile, fields domain.CameraFields) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "seek")
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return errors.Wrap(err, "read")
	}

	patched, err := SetCameraFields(data, fields)
	if err != nil {
		return errors.Wrap(err, file.Name())
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "seek")
	}
	if _, err := file.Write(patched); err != nil {
		return errors.Wrap(err, "write")
	}
	if err := file.Truncate(int64(len(patched))); err != nil {
		return errors.Wrap(err, "truncate")
	}
	return nil
}

// SetCameraFields returns a copy of the JPEG in data with Make and Model set.
// An existing EXIF block is patched; otherwise a new one is inserted.
func SetCameraFields(data []byte, fields domain.CameraFields) ([]byte, error) {
	segments, err := scanSegments(data)
	if err != nil {
		return nil, err
	}

	var existing *segment
	insertAt := 2
	for idx := range segments {
		seg := segments[idx]
		if seg.marker == markerAPP0 && seg.start == insertAt {
			insertAt = seg.end
		}
		if existing == nil && seg.marker == markerAPP1 && bytes.HasPrefix(data[seg.dataStart:seg.end], exifHeader) {
			existing = &segments[idx]
		}
	}

	var tiff []byte
	if existing != nil {
		tiff, err = patchTIFF(data[existing.dataStart+len(exifHeader):existing.end], fields)
		if err != nil {
			return nil, err
		}
	} else {
		tiff = newTIFF(fields)
	}

	payload := append(append([]byte{}, exifHeader...), tiff...)
	if len(payload) > maxSegmentPayload {
		return nil, errors.Errorf("EXIF segment too large (%d bytes)", len(payload))
	}

	app1 := make([]byte, 4, 4+len(payload))
	app1[0] = 0xFF
	app1[1] = markerAPP1
	binary.BigEndian.PutUint16(app1[2:], uint16(len(payload)+2))
	app1 = append(app1, payload...)

	var out bytes.Buffer
	out.Grow(len(data) + len(app1))
	if existing != nil {
		out.Write(data[:existing.start])
		out.Write(app1)
		out.Write(data[existing.end:])
	} else {
		out.Write(data[:insertAt])
		out.Write(app1)
		out.Write(data[insertAt:])
	}

	if err := verify(out.Bytes(), fields); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

type segment struct {
	marker    byte
	start     int
	dataStart int
	end       int
}

// scanSegments lists the marker segments before the image data.
func scanSegments(data []byte) ([]segment, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, ErrNotJPEG
	}

	var segments []segment
	pos := 2
	for pos < len(data) {
		if data[pos] != 0xFF {
			return nil, errors.Errorf("expected marker at offset %d", pos)
		}
		start := pos
		for pos < len(data) && data[pos] == 0xFF {
			pos++
		}
		if pos >= len(data) {
			break
		}
		marker := data[pos]
		pos++

		switch {
		case marker == markerSOS || marker == markerEOI:
			return segments, nil
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			continue
		}

		if pos+2 > len(data) {
			break
		}
		length := int(binary.BigEndian.Uint16(data[pos:]))
		if length < 2 || pos+length > len(data) {
			return nil, errors.Errorf("segment 0x%02X at offset %d overruns file", marker, start)
		}
		segments = append(segments, segment{
			marker:    marker,
			start:     start,
			dataStart: pos + 2,
			end:       pos + length,
		})
		pos += length
	}
	return nil, errors.New("truncated JPEG: no image data")
}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value [4]byte
	data  []byte
}

func byteOrder(tiff []byte) (binary.ByteOrder, error) {
	if len(tiff) < 8 {
		return nil, errors.New("TIFF header too short")
	}
	var order binary.ByteOrder
	switch string(tiff[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, errors.New("bad TIFF byte order")
	}
	if order.Uint16(tiff[2:4]) != 42 {
		return nil, errors.New("bad TIFF magic")
	}
	return order, nil
}

func readIFD(tiff []byte, order binary.ByteOrder, offset uint32) ([]ifdEntry, uint32, error) {
	pos := int(offset)
	if pos < 8 || pos+2 > len(tiff) {
		return nil, 0, errors.Errorf("IFD0 offset %d out of range", offset)
	}
	count := int(order.Uint16(tiff[pos:]))
	end := pos + 2 + count*12
	if end+4 > len(tiff) {
		return nil, 0, errors.Errorf("IFD0 with %d entries overruns TIFF block", count)
	}

	entries := make([]ifdEntry, 0, count+2)
	for i := 0; i < count; i++ {
		raw := tiff[pos+2+i*12:]
		entry := ifdEntry{
			tag:   order.Uint16(raw[0:2]),
			typ:   order.Uint16(raw[2:4]),
			count: order.Uint32(raw[4:8]),
		}
		copy(entry.value[:], raw[8:12])
		entries = append(entries, entry)
	}
	return entries, order.Uint32(tiff[end:]), nil
}

func asciiEntry(tag uint16, value string) ifdEntry {
	raw := append([]byte(value), 0)
	entry := ifdEntry{tag: tag, typ: typeASCII, count: uint32(len(raw))}
	if len(raw) <= 4 {
		copy(entry.value[:], raw)
	} else {
		entry.data = raw
	}
	return entry
}

func upsert(entries []ifdEntry, entry ifdEntry) []ifdEntry {
	for i := range entries {
		if entries[i].tag == entry.tag {
			entries[i] = entry
			return entries
		}
	}
	return append(entries, entry)
}

// encodeIFD lays out an IFD starting at base, followed by the values that do
// not fit inline.
func encodeIFD(order binary.ByteOrder, base int, entries []ifdEntry, next uint32) []byte {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	size := 2 + 12*len(entries) + 4
	buf := make([]byte, size)
	var extra []byte

	order.PutUint16(buf, uint16(len(entries)))
	for i, entry := range entries {
		off := 2 + 12*i
		order.PutUint16(buf[off:], entry.tag)
		order.PutUint16(buf[off+2:], entry.typ)
		order.PutUint32(buf[off+4:], entry.count)
		if entry.data != nil {
			order.PutUint32(buf[off+8:], uint32(base+size+len(extra)))
			extra = append(extra, entry.data...)
			if len(extra)%2 == 1 {
				extra = append(extra, 0)
			}
			continue
		}
		copy(buf[off+8:off+12], entry.value[:])
	}
	order.PutUint32(buf[size-4:], next)
	return append(buf, extra...)
}

// patchTIFF appends a rewritten IFD0 to the block and points the header at
// it. Every other offset in the block stays valid because nothing moves.
func patchTIFF(tiff []byte, fields domain.CameraFields) ([]byte, error) {
	order, err := byteOrder(tiff)
	if err != nil {
		return nil, err
	}
	entries, next, err := readIFD(tiff, order, order.Uint32(tiff[4:8]))
	if err != nil {
		return nil, err
	}
	entries = upsert(entries, asciiEntry(tagMake, fields.Make))
	entries = upsert(entries, asciiEntry(tagModel, fields.Model))

	base := len(tiff)
	if base%2 == 1 {
		base++
	}
	out := make([]byte, base, base+2+12*len(entries)+4+len(fields.Make)+len(fields.Model)+4)
	copy(out, tiff)
	out = append(out, encodeIFD(order, base, entries, next)...)
	order.PutUint32(out[4:8], uint32(base))
	return out, nil
}

func newTIFF(fields domain.CameraFields) []byte {
	header := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	entries := []ifdEntry{
		asciiEntry(tagMake, fields.Make),
		asciiEntry(tagModel, fields.Model),
	}
	return append(header, encodeIFD(binary.LittleEndian, 8, entries, 0)...)
}

// verify decodes the rewritten file and checks the new values are readable.
func verify(data []byte, fields domain.CameraFields) error {
	x, err := goexif.Decode(bytes.NewReader(data))
	if err != nil && (x == nil || goexif.IsCriticalError(err)) {
		return errors.Wrap(err, "rewritten EXIF does not decode")
	}
	if got := stringTag(x, goexif.Make); got != fields.Make {
		return errors.Errorf("rewritten Make is %q, want %q", got, fields.Make)
	}
	if got := stringTag(x, goexif.Model); got != fields.Model {
		return errors.Errorf("rewritten Model is %q, want %q", got, fields.Model)
	}
	return nil
}
