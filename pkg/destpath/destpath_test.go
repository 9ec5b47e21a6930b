package destpath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_PrefixEndsWithDelimiter(t *testing.T) {
	root := t.TempDir()
	got, err := Derive("a/b/c/d.txt", "a/b/", "/", root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "c", "d.txt"), got)
}

func TestDerive_PrefixWithoutTrailingDelimiter(t *testing.T) {
	root := t.TempDir()
	got, err := Derive("a/b/c/d.txt", "a/b", "/", root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "c", "d.txt"), got)
}

func TestDerive_PrefixNamePartialSegment(t *testing.T) {
	root := t.TempDir()
	got, err := Derive("a/b/cxy.txt", "a/b/c", "/", root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "cxy.txt"), got)
}

func TestDerive_EmptyPrefix(t *testing.T) {
	root := t.TempDir()
	got, err := Derive("a.txt", "", "/", root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a.txt"), got)
}

func TestDerive_DirectoryMarkerRejected(t *testing.T) {
	root := t.TempDir()
	_, err := Derive("a/b/", "a/b/", "/", root)
	assert.ErrorIs(t, err, ErrDirectoryMarker)
}

func TestDerive_PathEscapeRejected(t *testing.T) {
	root := t.TempDir()
	_, err := Derive("../evil.txt", "", "/", root)
	require.Error(t, err)
	assert.True(t, IsPathEscape(err), "expected a PathEscapeError, got %v", err)
}

func TestDerive_DeepPathEscapeRejected(t *testing.T) {
	root := t.TempDir()
	_, err := Derive("a/../../../evil.txt", "", "/", root)
	require.Error(t, err)
	assert.True(t, IsPathEscape(err))
}

func TestDerive_SymlinkedAncestorEscapeRejected(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	link := filepath.Join(root, "escape")
	require.NoError(t, os.Symlink(outside, link))

	_, err := Derive("escape/evil.txt", "", "/", root)
	require.Error(t, err)
	assert.True(t, IsPathEscape(err))
}

func TestDerive_DeepKeyCreatesSubdirectories(t *testing.T) {
	root := t.TempDir()
	got, err := Derive("a/b/c/d/e.txt", "", "/", root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a", "b", "c", "d", "e.txt"), got)
}

func TestDerive_ShellUnsafeCharactersPreservedVerbatim(t *testing.T) {
	root := t.TempDir()
	key := "weird dir/file 'quoted' $(echo).txt"
	got, err := Derive(key, "", "/", root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "weird dir", "file 'quoted' $(echo).txt"), got)
}
