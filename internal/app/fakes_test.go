package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"exifpreset/internal/domain"
)

type fakeSource struct {
	name    string
	data    []byte
	openErr error
	readErr error
}

func (s fakeSource) Name() string { return s.name }

func (s fakeSource) Open() (io.ReadCloser, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	var r io.Reader = bytes.NewReader(s.data)
	if s.readErr != nil {
		r = io.MultiReader(r, errReader{err: s.readErr})
	}
	return &trackedCloser{Reader: r}, nil
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

type trackedCloser struct {
	io.Reader
	closed bool
}

func (t *trackedCloser) Close() error {
	t.closed = true
	return nil
}

type fakeStore struct {
	allocated   []string
	collections []string
	failNames   map[string]bool
	returnNil   bool
	panicOn     map[string]bool
	dests       map[string]*fakeDestination
	writeErr    map[string]error
	rwErr       map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		failNames: map[string]bool{},
		panicOn:   map[string]bool{},
		dests:     map[string]*fakeDestination{},
		writeErr:  map[string]error{},
		rwErr:     map[string]error{},
	}
}

func (s *fakeStore) Allocate(displayName, mimeType, collection string) (Destination, error) {
	if s.panicOn[displayName] {
		panic("store exploded")
	}
	s.allocated = append(s.allocated, displayName)
	s.collections = append(s.collections, collection)
	if mimeType != domain.JpegMimeType {
		return nil, errors.New("unexpected mime type " + mimeType)
	}
	if s.failNames[displayName] {
		return nil, errors.New("allocation refused")
	}
	if s.returnNil {
		return nil, nil
	}
	dest := &fakeDestination{name: displayName, writeErr: s.writeErr[displayName], rwErr: s.rwErr[displayName]}
	s.dests[displayName] = dest
	return dest, nil
}

type fakeDestination struct {
	name     string
	buf      bytes.Buffer
	writeErr error
	rwErr    error

	writerClosed bool
	rwClosed     bool
}

func (d *fakeDestination) Name() string     { return d.name }
func (d *fakeDestination) Location() string { return "/store/" + d.name }

func (d *fakeDestination) OpenWriter() (io.WriteCloser, error) {
	if d.writeErr != nil {
		return nil, d.writeErr
	}
	d.buf.Reset()
	return &destWriter{dest: d}, nil
}

func (d *fakeDestination) OpenReadWrite() (MetadataFile, error) {
	if d.rwErr != nil {
		return nil, d.rwErr
	}
	return &memFile{dest: d, data: append([]byte(nil), d.buf.Bytes()...)}, nil
}

type destWriter struct{ dest *fakeDestination }

func (w *destWriter) Write(p []byte) (int, error) { return w.dest.buf.Write(p) }

func (w *destWriter) Close() error {
	w.dest.writerClosed = true
	return nil
}

type memFile struct {
	dest *fakeDestination
	data []byte
	pos  int64
}

func (f *memFile) Read(p []byte) (int, error) {
	if f.pos >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.pos:])
	f.pos += int64(n)
	return n, nil
}

func (f *memFile) Write(p []byte) (int, error) {
	end := f.pos + int64(len(p))
	if end > int64(len(f.data)) {
		f.data = append(f.data, make([]byte, end-int64(len(f.data)))...)
	}
	copy(f.data[f.pos:], p)
	f.pos = end
	return len(p), nil
}

func (f *memFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		f.pos = offset
	case io.SeekCurrent:
		f.pos += offset
	case io.SeekEnd:
		f.pos = int64(len(f.data)) + offset
	}
	return f.pos, nil
}

func (f *memFile) Truncate(size int64) error {
	f.data = f.data[:size]
	return nil
}

func (f *memFile) Name() string { return f.dest.name }

func (f *memFile) Close() error {
	f.dest.rwClosed = true
	f.dest.buf.Reset()
	f.dest.buf.Write(f.data)
	return nil
}

type fakeCodec struct {
	calls   []domain.CameraFields
	failFor map[string]error
}

func (c *fakeCodec) SetFields(ctx context.Context, file MetadataFile, fields domain.CameraFields) error {
	c.calls = append(c.calls, fields)
	if err := c.failFor[file.Name()]; err != nil {
		return err
	}
	_, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	_, err = file.Write([]byte("|" + fields.Make + "|" + fields.Model))
	return err
}

type fakeExif struct {
	fields map[string]domain.CameraFields
	err    error
}

func (f fakeExif) CameraFields(ctx context.Context, r io.Reader) (domain.CameraFields, *time.Time, error) {
	if f.err != nil {
		return domain.CameraFields{}, nil, f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.CameraFields{}, nil, err
	}
	fields, ok := f.fields[string(data)]
	if !ok {
		return domain.CameraFields{}, nil, errors.New("missing exif")
	}
	taken := time.Date(2024, 10, 2, 15, 1, 0, 0, time.UTC)
	return fields, &taken, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type progressRecorder struct {
	messages []string
}

func (p *progressRecorder) notify(message string) {
	p.messages = append(p.messages, message)
}
