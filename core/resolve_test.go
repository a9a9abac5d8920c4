package sah

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/sah/core/testutil"
)

func resolveTree() testutil.TestFolder {
	return testutil.TestFolder{
		Files: []testutil.TestFile{
			{Name: "icon.dds", Offset: 100, Length: 50},
			{Name: "Dup.txt", Offset: 1, Length: 1},
			{Name: "dup.TXT", Offset: 2, Length: 2},
		},
		Folders: []testutil.TestFolder{
			{
				Name:  "ui",
				Files: []testutil.TestFile{{Name: "panel.dds", Offset: 200, Length: 10}},
				Folders: []testutil.TestFolder{
					{Name: "fonts", Files: []testutil.TestFile{{Name: "a.ttf", Offset: 7, Length: 3}}},
				},
			},
		},
	}
}

func TestResolveFile_Legacy(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t, resolveTree(), testutil.Sequential(300))

	tests := []struct {
		name       string
		path       string
		wantOffset uint64
		wantErr    bool
	}{
		{"root file", "icon.dds", 100, false},
		{"mixed case", "IcOn.DdS", 100, false},
		{"leading slash", "/icon.dds", 100, false},
		{"nested", "ui/panel.dds", 200, false},
		{"nested upper", "UI/PANEL.DDS", 200, false},
		{"deep", "ui/fonts/a.ttf", 7, false},
		{"duplicate first wins", "DUP.txt", 1, false},
		{"file match ignores remaining segments", "ui/panel.dds/extra/more", 200, false},
		{"root file shadows rest of path", "icon.dds/ui/panel.dds", 100, false},
		{"unmatched segment is skipped", "bogus/ui/panel.dds", 200, false},
		{"unmatched segment in the middle", "ui/nope/fonts/a.ttf", 7, false},
		{"folder is not a file", "ui", 0, true},
		{"file only in subfolder", "panel.dds", 0, true},
		{"missing", "ui/missing.dds", 0, true},
		{"empty", "", 0, true},
		{"root", "/", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := a.ResolveFile(tt.path)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrPathNotFound)
				require.ErrorIs(t, err, fs.ErrNotExist)
				var pathErr *fs.PathError
				require.ErrorAs(t, err, &pathErr)
				assert.Equal(t, tt.path, pathErr.Path)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOffset, f.Offset)
		})
	}
}

func TestResolveFile_Strict(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t, resolveTree(), testutil.Sequential(300), WithStrictPaths(true))
	assert.True(t, a.StrictPaths())

	for _, p := range []string{"icon.dds", "UI/Panel.dds", "/ui//fonts/A.TTF"} {
		_, err := a.ResolveFile(p)
		assert.NoError(t, err, p)
	}
	for _, p := range []string{"ui/panel.dds/extra", "icon.dds/ui/panel.dds", "bogus/ui/panel.dds", "ui", ""} {
		_, err := a.ResolveFile(p)
		assert.ErrorIs(t, err, ErrPathNotFound, p)
	}
}

func TestResolveFolder_Legacy(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t, resolveTree(), testutil.Sequential(300))

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{"slash is root", "/", RootName, false},
		{"empty is root", "", RootName, false},
		{"dot is root", ".", RootName, false},
		{"child", "ui", "ui", false},
		{"child upper with slashes", "/UI/", "ui", false},
		{"grandchild", "ui/fonts", "fonts", false},
		{"unmatched leading segment skipped", "bogus/ui", "ui", false},
		{"root label", "data", RootName, false},
		{"final segment missing", "ui/missing", "", true},
		{"file is not a folder", "icon.dds", "", true},
		{"unmatched trailing segment", "ui/fonts/x", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			folder, err := a.ResolveFolder(tt.path)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrPathNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, folder.Name)
		})
	}

	root, err := a.ResolveFolder("/")
	require.NoError(t, err)
	assert.Same(t, a.Root(), root)
}

func TestResolveFolder_RootAlwaysResolves(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t, testutil.TestFolder{}, nil)
	root, err := a.ResolveFolder("/")
	require.NoError(t, err)
	assert.Same(t, a.Root(), root)
	assert.Empty(t, root.Files)
	assert.Empty(t, root.Folders)
}

func TestResolveFolder_Strict(t *testing.T) {
	t.Parallel()

	a, _ := newTestArchive(t, resolveTree(), testutil.Sequential(300), WithStrictPaths(true))

	folder, err := a.ResolveFolder("UI/fonts")
	require.NoError(t, err)
	assert.Equal(t, "fonts", folder.Name)

	root, err := a.ResolveFolder("/")
	require.NoError(t, err)
	assert.Same(t, a.Root(), root)

	for _, p := range []string{"bogus/ui", "data", "ui/missing", "icon.dds"} {
		_, err := a.ResolveFolder(p)
		assert.ErrorIs(t, err, ErrPathNotFound, p)
	}
}

func TestResolveFile_InvalidUTF8Name(t *testing.T) {
	t.Parallel()

	tree := testutil.TestFolder{
		Files: []testutil.TestFile{{Name: "a\xff\xfeb", Offset: 0, Length: 1}},
	}
	a, _ := newTestArchive(t, tree, []byte("x"))

	f, err := a.ResolveFile("a\uFFFD\uFFFDb")
	require.NoError(t, err)
	assert.Equal(t, "a\uFFFD\uFFFDb", f.Name)

	_, err = a.ResolveFile("a\uFFFDb")
	require.ErrorIs(t, err, fs.ErrNotExist)
}
