package header

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/meigma/sah/core/internal/sahtype"
)

// Magic is the signature at the start of every header.
const Magic = "SAH"

// Byte counts of the reserved regions in the header.
const (
	preambleReserved   = 4
	countReserved      = 45
	fileRecordReserved = 4
)

// PreambleSize is the number of bytes before the root folder record.
const PreambleSize = len(Magic) + preambleReserved + 4 + countReserved

const (
	// DefaultMaxDepth is the default limit on folder nesting.
	DefaultMaxDepth = 256

	// DefaultMaxNameLength is the default limit on a single name's byte length.
	DefaultMaxNameLength = 1 << 16
)

// NameDecoder converts raw name bytes (NUL padding already removed) to a string.
type NameDecoder func(raw []byte) (string, error)

// LossyUTF8 decodes raw as UTF-8, replacing each invalid sequence with one
// U+FFFD. An invalid sequence is a maximal prefix of a well-formed
// sequence, or a single byte when no such prefix exists, so "\xff\xfe"
// becomes two replacement characters and a truncated "\xe2\x82" one.
func LossyUTF8(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	var sb strings.Builder
	sb.Grow(len(raw) + 8)
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		if r == utf8.RuneError && size <= 1 {
			sb.WriteRune(utf8.RuneError)
			raw = raw[invalidRunLength(raw):]
			continue
		}
		sb.Write(raw[:size])
		raw = raw[size:]
	}
	return sb.String(), nil
}

// invalidRunLength returns how many bytes at the start of b form one
// invalid sequence: the lead byte plus any continuation bytes that are
// still valid for it.
func invalidRunLength(b []byte) int {
	var (
		need   int
		lo, hi byte = 0x80, 0xBF
	)
	switch lead := b[0]; {
	case lead >= 0xC2 && lead <= 0xDF:
		need = 2
	case lead == 0xE0:
		need, lo = 3, 0xA0
	case lead == 0xED:
		need, hi = 3, 0x9F
	case lead >= 0xE1 && lead <= 0xEF:
		need = 3
	case lead == 0xF0:
		need, lo = 4, 0x90
	case lead == 0xF4:
		need, hi = 4, 0x8F
	case lead >= 0xF1 && lead <= 0xF3:
		need = 4
	default:
		return 1
	}
	n := 1
	if n < len(b) && b[n] >= lo && b[n] <= hi {
		n++
		for n < need && n < len(b) && b[n] >= 0x80 && b[n] <= 0xBF {
			n++
		}
	}
	return n
}

// Header is a decoded archive header.
type Header struct {
	// DeclaredEntries is the entry count stored in the preamble. It is not
	// used to drive decoding and may disagree with the tree.
	DeclaredEntries int32

	// Root is the top-level folder, named sahtype.RootName.
	Root *sahtype.Folder

	// Size is the number of header bytes consumed.
	Size int64
}

// Decoder decodes headers with configurable limits.
type Decoder struct {
	maxDepth      int
	maxNameLength int
	decodeName    NameDecoder
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithMaxDepth limits folder nesting. Set to 0 to disable the limit.
func WithMaxDepth(n int) Option {
	return func(d *Decoder) {
		d.maxDepth = n
	}
}

// WithMaxNameLength limits the byte length of a single name.
// Set to 0 to disable the limit.
func WithMaxNameLength(n int) Option {
	return func(d *Decoder) {
		d.maxNameLength = n
	}
}

// WithNameDecoder sets how raw name bytes become strings (default LossyUTF8).
func WithNameDecoder(fn NameDecoder) Option {
	return func(d *Decoder) {
		if fn != nil {
			d.decodeName = fn
		}
	}
}

// NewDecoder creates a Decoder.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		maxDepth:      DefaultMaxDepth,
		maxNameLength: DefaultMaxNameLength,
		decodeName:    LossyUTF8,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode is shorthand for NewDecoder(opts...).Decode(r).
func Decode(r io.Reader, opts ...Option) (*Header, error) {
	return NewDecoder(opts...).Decode(r)
}

// Decode reads a complete header from r, starting at r's current position.
// On error no partial tree is returned.
func (d *Decoder) Decode(r io.Reader) (*Header, error) {
	c, err := newCursor(r)
	if err != nil {
		return nil, err
	}

	magic := make([]byte, len(Magic))
	if err := c.readFull(magic); err != nil {
		return nil, err
	}
	if string(magic) != Magic {
		return nil, fmt.Errorf("%w: signature %q", sahtype.ErrMalformedHeader, magic)
	}
	if err := c.skip(preambleReserved); err != nil {
		return nil, err
	}
	declared, err := c.readInt32()
	if err != nil {
		return nil, err
	}
	if err := c.skip(countReserved); err != nil {
		return nil, err
	}

	root := &sahtype.Folder{Name: sahtype.RootName}
	if err := d.decodeFolder(c, root, 0); err != nil {
		return nil, err
	}
	return &Header{DeclaredEntries: declared, Root: root, Size: c.pos}, nil
}

// decodeFolder fills folder with its files and, depth-first, its subfolders.
func (d *Decoder) decodeFolder(c *cursor, folder *sahtype.Folder, depth int) error {
	if d.maxDepth > 0 && depth > d.maxDepth {
		return fmt.Errorf("header offset %d: folder nesting exceeds %d: %w", c.pos, d.maxDepth, sahtype.ErrMalformedHeader)
	}

	fileCount, err := d.readCount(c, "file")
	if err != nil {
		return err
	}
	for range fileCount {
		f, err := d.decodeFile(c)
		if err != nil {
			return err
		}
		folder.Files = append(folder.Files, f)
	}

	folderCount, err := d.readCount(c, "folder")
	if err != nil {
		return err
	}
	for range folderCount {
		name, err := d.readName(c)
		if err != nil {
			return err
		}
		sub := &sahtype.Folder{Name: name}
		if err := d.decodeFolder(c, sub, depth+1); err != nil {
			return err
		}
		folder.Folders = append(folder.Folders, sub)
	}
	return nil
}

func (d *Decoder) decodeFile(c *cursor) (*sahtype.File, error) {
	name, err := d.readName(c)
	if err != nil {
		return nil, err
	}
	offset, err := c.readUint64()
	if err != nil {
		return nil, err
	}
	length, err := c.readUint32()
	if err != nil {
		return nil, err
	}
	if err := c.skip(fileRecordReserved); err != nil {
		return nil, err
	}
	return &sahtype.File{Name: name, Offset: offset, Length: uint64(length)}, nil
}

// readCount reads a signed element count and rejects negative values.
func (d *Decoder) readCount(c *cursor, what string) (int32, error) {
	at := c.pos
	n, err := c.readInt32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("header offset %d: negative %s count %d: %w", at, what, n, sahtype.ErrMalformedHeader)
	}
	return n, nil
}

// readName reads a length-prefixed name and strips trailing NUL padding.
func (d *Decoder) readName(c *cursor) (string, error) {
	at := c.pos
	n, err := c.readInt32()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("header offset %d: negative name length %d: %w", at, n, sahtype.ErrMalformedHeader)
	}
	if d.maxNameLength > 0 && int(n) > d.maxNameLength {
		return "", fmt.Errorf("header offset %d: name length %d exceeds %d: %w", at, n, d.maxNameLength, sahtype.ErrMalformedHeader)
	}
	if n == 0 {
		return "", nil
	}
	raw, err := c.readBytes(int(n))
	if err != nil {
		return "", err
	}
	name, err := d.decodeName(bytes.TrimRight(raw, "\x00"))
	if err != nil {
		return "", fmt.Errorf("header offset %d: decode name: %v: %w", at, err, sahtype.ErrMalformedHeader)
	}
	return name, nil
}
