package header_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/sah/core/internal/header"
	"github.com/meigma/sah/core/internal/sahtype"
	"github.com/meigma/sah/core/testutil"
)

type record struct {
	path   string
	offset uint64
	length uint64
}

func walk(prefix string, f *sahtype.Folder, out []record) []record {
	for _, file := range f.Files {
		out = append(out, record{prefix + file.Name, file.Offset, file.Length})
	}
	for _, sub := range f.Folders {
		out = walk(prefix+sub.Name+"/", sub, out)
	}
	return out
}

func TestDecode_RoundTrip(t *testing.T) {
	t.Parallel()

	tree := testutil.TestFolder{
		Files: []testutil.TestFile{
			{Name: "icon.dds", Offset: 100, Length: 50},
			{Name: "big.bin", Offset: 1 << 40, Length: 0xffffffff},
		},
		Folders: []testutil.TestFolder{
			{
				Name:  "ui",
				Files: []testutil.TestFile{{Name: "panel.dds", Offset: 200, Length: 10}},
				Folders: []testutil.TestFolder{
					{Name: "fonts", Files: []testutil.TestFile{{Name: "a.ttf", Offset: 7, Length: 3}}},
				},
			},
			{Name: "empty"},
			{Name: "sound", Files: []testutil.TestFile{{Name: "hit.wav", Offset: 0, Length: 0}}},
		},
	}
	data := testutil.BuildHeader(t, tree)

	h, err := header.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, int32(tree.Count()), h.DeclaredEntries)
	assert.Equal(t, int64(len(data)), h.Size)
	assert.Equal(t, sahtype.RootName, h.Root.Name)
	assert.Equal(t, []record{
		{"icon.dds", 100, 50},
		{"big.bin", 1 << 40, 0xffffffff},
		{"ui/panel.dds", 200, 10},
		{"ui/fonts/a.ttf", 7, 3},
		{"sound/hit.wav", 0, 0},
	}, walk("", h.Root, nil))

	require.Len(t, h.Root.Folders, 3)
	assert.Equal(t, "empty", h.Root.Folders[1].Name)
	assert.Empty(t, h.Root.Folders[1].Files)
	assert.Empty(t, h.Root.Folders[1].Folders)
}

func TestDecode_StreamWithoutSeek(t *testing.T) {
	t.Parallel()

	data := testutil.BuildHeader(t, testutil.SampleTree())
	h, err := header.Decode(io.MultiReader(bytes.NewReader(data)))
	require.NoError(t, err)
	assert.Equal(t, []record{
		{"icon.dds", 100, 50},
		{"ui/panel.dds", 200, 10},
	}, walk("", h.Root, nil))
}

func TestDecode_ConsumesExactlyTheHeader(t *testing.T) {
	t.Parallel()

	data := testutil.BuildHeader(t, testutil.SampleTree())
	r := bytes.NewReader(append(append([]byte{}, data...), "trailing"...))

	h, err := header.Decode(r)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), h.Size)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "trailing", string(rest))
}

func TestDecode_BadMagic(t *testing.T) {
	t.Parallel()

	data := testutil.BuildHeader(t, testutil.SampleTree())
	data[0] = 'X'

	h, err := header.Decode(bytes.NewReader(data))
	require.ErrorIs(t, err, sahtype.ErrMalformedHeader)
	assert.Nil(t, h)
	assert.Contains(t, err.Error(), "XAH")
}

func TestDecode_Truncated(t *testing.T) {
	t.Parallel()

	full := testutil.BuildHeader(t, testutil.SampleTree())

	nameMissing := testutil.Preamble(1)
	nameMissing = testutil.AppendInt32(nameMissing, 1) // one file
	nameMissing = testutil.AppendInt32(nameMissing, 8) // name length, no bytes

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"partial magic", []byte("SA")},
		{"inside reserved preamble", full[:20]},
		{"no root folder", full[:header.PreambleSize]},
		{"name bytes missing", nameMissing},
		{"offset missing", testutil.AppendName(testutil.AppendInt32(testutil.Preamble(1), 1), "icon.dds")},
		{"last byte missing", full[:len(full)-1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := header.Decode(bytes.NewReader(tt.data))
			require.ErrorIs(t, err, sahtype.ErrUnexpectedEOF)

			_, err = header.Decode(io.MultiReader(bytes.NewReader(tt.data)))
			require.ErrorIs(t, err, sahtype.ErrUnexpectedEOF)
		})
	}
}

func TestDecode_NegativeValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"file count", testutil.AppendInt32(testutil.Preamble(0), -1)},
		{
			"folder count",
			testutil.AppendInt32(testutil.AppendInt32(testutil.Preamble(0), 0), -5),
		},
		{
			"name length",
			testutil.AppendInt32(testutil.AppendInt32(testutil.Preamble(1), 1), -1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := header.Decode(bytes.NewReader(tt.data))
			require.ErrorIs(t, err, sahtype.ErrMalformedHeader)
			assert.Contains(t, err.Error(), "negative")
		})
	}
}

func TestDecode_Names(t *testing.T) {
	t.Parallel()

	tree := testutil.TestFolder{
		Files: []testutil.TestFile{
			{Name: "", Offset: 1, Length: 1},
			{Name: "padded.txt", Pad: 6, Offset: 2, Length: 2},
			{Name: "\xffbad", Offset: 3, Length: 3},
		},
	}

	h, err := header.Decode(bytes.NewReader(testutil.BuildHeader(t, tree)))
	require.NoError(t, err)
	require.Len(t, h.Root.Files, 3)
	assert.Equal(t, "", h.Root.Files[0].Name)
	assert.Equal(t, "padded.txt", h.Root.Files[1].Name)
	assert.Equal(t, "\uFFFDbad", h.Root.Files[2].Name)
}

func TestLossyUTF8(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "valid", raw: "ui/panel.dds", want: "ui/panel.dds"},
		{name: "valid multibyte", raw: "caf\u00e9", want: "caf\u00e9"},
		{name: "one replacement per invalid byte", raw: "a\xff\xfeb", want: "a\uFFFD\uFFFDb"},
		{name: "latin-1 run", raw: "\xe9\xe8\xe0.txt", want: "\uFFFD\uFFFD\uFFFD.txt"},
		{name: "truncated sequence is one replacement", raw: "\xe2\x82x", want: "\uFFFDx"},
		{name: "truncated at end", raw: "ab\xf0\x9f\x98", want: "ab\uFFFD"},
		{name: "lone continuation bytes", raw: "\x80\x80", want: "\uFFFD\uFFFD"},
		{name: "surrogate encoding", raw: "\xed\xa0\x80", want: "\uFFFD\uFFFD\uFFFD"},
		{name: "overlong encoding", raw: "\xc0\xaf", want: "\uFFFD\uFFFD"},
		{name: "encoded replacement char kept", raw: "\uFFFD", want: "\uFFFD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := header.LossyUTF8([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_NameDecoder(t *testing.T) {
	t.Parallel()

	h, err := header.Decode(
		bytes.NewReader(testutil.BuildHeader(t, testutil.SampleTree())),
		header.WithNameDecoder(func(raw []byte) (string, error) {
			return strings.ToUpper(string(raw)), nil
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, "ICON.DDS", h.Root.Files[0].Name)
	assert.Equal(t, "UI", h.Root.Folders[0].Name)

	_, err = header.Decode(
		bytes.NewReader(testutil.BuildHeader(t, testutil.SampleTree())),
		header.WithNameDecoder(func([]byte) (string, error) {
			return "", errors.New("boom")
		}),
	)
	require.ErrorIs(t, err, sahtype.ErrMalformedHeader)
}

func nested(depth int) testutil.TestFolder {
	root := testutil.TestFolder{}
	if depth == 0 {
		return root
	}
	child := nested(depth - 1)
	child.Name = "d"
	root.Folders = []testutil.TestFolder{child}
	return root
}

func TestDecode_MaxDepth(t *testing.T) {
	t.Parallel()

	data := testutil.BuildHeader(t, nested(5))

	_, err := header.Decode(bytes.NewReader(data), header.WithMaxDepth(5))
	require.NoError(t, err)

	_, err = header.Decode(bytes.NewReader(data), header.WithMaxDepth(4))
	require.ErrorIs(t, err, sahtype.ErrMalformedHeader)
	assert.Contains(t, err.Error(), "nesting")

	_, err = header.Decode(bytes.NewReader(data), header.WithMaxDepth(0))
	require.NoError(t, err)
}

func TestDecode_MaxNameLength(t *testing.T) {
	t.Parallel()

	data := testutil.BuildHeader(t, testutil.SampleTree())

	_, err := header.Decode(bytes.NewReader(data), header.WithMaxNameLength(4))
	require.ErrorIs(t, err, sahtype.ErrMalformedHeader)

	_, err = header.Decode(bytes.NewReader(data), header.WithMaxNameLength(0))
	require.NoError(t, err)
}
