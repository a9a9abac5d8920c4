// Package testutil builds SAH archive fixtures for tests.
package testutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

// TestFile describes a file record to encode.
type TestFile struct {
	Name   string
	Offset uint64
	Length uint32

	// Pad appends this many NUL bytes to the encoded name.
	Pad int
}

// TestFolder describes a folder record to encode. The root folder's Name
// is not written.
type TestFolder struct {
	Name    string
	Files   []TestFile
	Folders []TestFolder
}

// Count returns the number of files below f, the value real headers
// store as their declared entry count.
func (f TestFolder) Count() int {
	n := len(f.Files)
	for _, sub := range f.Folders {
		n += sub.Count()
	}
	return n
}

// BuildHeader encodes root as a complete header, using root.Count() as the
// declared entry count.
func BuildHeader(t testing.TB, root TestFolder) []byte {
	t.Helper()
	return BuildHeaderWithCount(t, root, int32(root.Count())) //nolint:gosec // fixtures are small
}

// BuildHeaderWithCount encodes root with an explicit declared entry count.
func BuildHeaderWithCount(t testing.TB, root TestFolder, declared int32) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("SAH")
	buf.Write(make([]byte, 4))
	writeInt32(&buf, declared)
	buf.Write(make([]byte, 45))
	writeFolder(&buf, root)
	return buf.Bytes()
}

// Preamble returns the 56 bytes that precede the root folder record.
func Preamble(declared int32) []byte {
	var buf bytes.Buffer
	buf.WriteString("SAH")
	buf.Write(make([]byte, 4))
	writeInt32(&buf, declared)
	buf.Write(make([]byte, 45))
	return buf.Bytes()
}

// AppendInt32 appends v in little-endian order.
func AppendInt32(b []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(b, uint32(v)) //nolint:gosec // bit reinterpretation
}

// AppendName appends a length-prefixed name.
func AppendName(b []byte, name string) []byte {
	b = AppendInt32(b, int32(len(name))) //nolint:gosec // fixtures are small
	return append(b, name...)
}

func writeInt32(w io.Writer, v int32) {
	_ = binary.Write(w, binary.LittleEndian, v) //nolint:errcheck // bytes.Buffer never fails
}

func writeName(w *bytes.Buffer, name string, pad int) {
	writeInt32(w, int32(len(name)+pad)) //nolint:gosec // fixtures are small
	w.WriteString(name)
	w.Write(make([]byte, pad))
}

func writeFolder(w *bytes.Buffer, f TestFolder) {
	writeInt32(w, int32(len(f.Files))) //nolint:gosec // fixtures are small
	for _, file := range f.Files {
		writeName(w, file.Name, file.Pad)
		_ = binary.Write(w, binary.LittleEndian, file.Offset) //nolint:errcheck // bytes.Buffer never fails
		_ = binary.Write(w, binary.LittleEndian, file.Length) //nolint:errcheck // bytes.Buffer never fails
		w.Write(make([]byte, 4))
	}
	writeInt32(w, int32(len(f.Folders))) //nolint:gosec // fixtures are small
	for _, sub := range f.Folders {
		writeName(w, sub.Name, 0)
		writeFolder(w, sub)
	}
}

// Sequential returns n bytes where byte i is i mod 256, so every offset
// has a predictable value.
func Sequential(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i)
	}
	return data
}

// SampleTree is a root with "icon.dds" at [100,150) and "ui/panel.dds" at
// [200,210), meant to pair with a 300-byte data blob.
func SampleTree() TestFolder {
	return TestFolder{
		Files: []TestFile{{Name: "icon.dds", Offset: 100, Length: 50}},
		Folders: []TestFolder{{
			Name:  "ui",
			Files: []TestFile{{Name: "panel.dds", Offset: 200, Length: 10}},
		}},
	}
}

// WriteArchive writes root's header and data to a temp directory and
// returns the header and data paths.
func WriteArchive(t testing.TB, root TestFolder, data []byte) (headerPath, dataPath string) {
	t.Helper()
	dir := t.TempDir()
	headerPath = filepath.Join(dir, "data.sah")
	dataPath = filepath.Join(dir, "data.saf")
	if err := os.WriteFile(headerPath, BuildHeader(t, root), 0o600); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := os.WriteFile(dataPath, data, 0o600); err != nil {
		t.Fatalf("write data: %v", err)
	}
	return headerPath, dataPath
}

// MockByteSource implements a simple in-memory byte source for tests.
type MockByteSource struct {
	data     []byte
	sourceID string
	reads    atomic.Int64
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	sum := sha256.Sum256(data)
	return &MockByteSource{
		data:     data,
		sourceID: "mock:" + hex.EncodeToString(sum[:]),
	}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	m.reads.Add(1)
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() (int64, error) {
	return int64(len(m.data)), nil
}

// SourceID returns a stable identifier for the source data.
func (m *MockByteSource) SourceID() string {
	return m.sourceID
}

// Reads returns how many ReadAt calls were made.
func (m *MockByteSource) Reads() int64 {
	return m.reads.Load()
}

// ShortSource reports a size larger than the bytes it can actually return,
// like a file truncated between the size check and the read.
type ShortSource struct {
	*MockByteSource
	ClaimedSize int64
}

// Size returns ClaimedSize.
func (s *ShortSource) Size() (int64, error) {
	return s.ClaimedSize, nil
}
