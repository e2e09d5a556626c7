package ramfs

import (
	"testing"

	"github.com/lithos-os/lithos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootIsEmptyDirectory(t *testing.T) {
	fs := New()
	root := fs.Root()

	assert.Equal(t, lithos.FileTypeDirectory, root.FileType())
	assert.Equal(t, 0, root.Size())

	names, err := root.ReadDir()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestFileReadWriteRoundTrip(t *testing.T) {
	fs := New()
	node, err := fs.Root().Create("test.txt", lithos.FileTypeRegular)
	require.NoError(t, err)

	payload := []byte("hello, lithos")
	n, err := node.WriteAt(0, payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, len(payload), node.Size())

	readBack := make([]byte, len(payload))
	n, err = node.ReadAt(0, readBack)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, readBack)
}

func TestFileReadAtOffset(t *testing.T) {
	fs := New()
	node, err := fs.Root().Create("f", lithos.FileTypeRegular)
	require.NoError(t, err)

	_, err = node.WriteAt(0, []byte("abcdef"))
	require.NoError(t, err)

	buf := make([]byte, 3)
	n, err := node.ReadAt(2, buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte("cde"), buf)

	// Reads at or past EOF return zero bytes, not an error.
	n, err = node.ReadAt(6, buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = node.ReadAt(100, buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestWritePastEOFZeroFills(t *testing.T) {
	fs := New()
	node, err := fs.Root().Create("sparse", lithos.FileTypeRegular)
	require.NoError(t, err)

	_, err = node.WriteAt(0, []byte("abc"))
	require.NoError(t, err)

	// Write 2 bytes at offset 7: the gap [3, 7) must read as zeroes.
	n, err := node.WriteAt(7, []byte("xy"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 9, node.Size())

	gap := make([]byte, 4)
	n, err = node.ReadAt(3, gap)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{0, 0, 0, 0}, gap)

	tail := make([]byte, 2)
	_, err = node.ReadAt(7, tail)
	require.NoError(t, err)
	assert.Equal(t, []byte("xy"), tail)
}

func TestCreateAndReadDir(t *testing.T) {
	fs := New()
	root := fs.Root()

	_, err := root.Create("zeta", lithos.FileTypeRegular)
	require.NoError(t, err)
	_, err = root.Create("alpha", lithos.FileTypeDirectory)
	require.NoError(t, err)
	_, err = root.Create("mid", lithos.FileTypeRegular)
	require.NoError(t, err)

	names, err := root.ReadDir()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names, "names must list in ascending order")
}

func TestCreateDuplicate(t *testing.T) {
	fs := New()
	root := fs.Root()

	_, err := root.Create("f", lithos.FileTypeRegular)
	require.NoError(t, err)

	_, err = root.Create("f", lithos.FileTypeRegular)
	assert.ErrorIs(t, err, lithos.ErrAlreadyExists)

	// Also with a different type: the name is what collides.
	_, err = root.Create("f", lithos.FileTypeDirectory)
	assert.ErrorIs(t, err, lithos.ErrAlreadyExists)

	names, err := root.ReadDir()
	require.NoError(t, err)
	assert.Equal(t, []string{"f"}, names, "failed create must not duplicate the entry")
}

func TestCreateUnsupportedTypes(t *testing.T) {
	fs := New()
	for _, fileType := range []lithos.FileType{lithos.FileTypeDevice, lithos.FileTypeSymlink} {
		_, err := fs.Root().Create("x", fileType)
		assert.ErrorIs(t, err, lithos.ErrIOFailed, "creating a %s must fail", fileType)
	}
}

func TestDirectoryIONotAllowed(t *testing.T) {
	fs := New()
	buf := make([]byte, 8)

	_, err := fs.Root().ReadAt(0, buf)
	assert.ErrorIs(t, err, lithos.ErrIsADirectory)

	_, err = fs.Root().WriteAt(0, buf)
	assert.ErrorIs(t, err, lithos.ErrIsADirectory)
}

func TestFileDirectoryOpsNotAllowed(t *testing.T) {
	fs := New()
	node, err := fs.Root().Create("f", lithos.FileTypeRegular)
	require.NoError(t, err)

	_, err = node.ReadDir()
	assert.ErrorIs(t, err, lithos.ErrNotADirectory)

	_, err = node.Lookup("child")
	assert.ErrorIs(t, err, lithos.ErrNotADirectory)

	_, err = node.Create("child", lithos.FileTypeRegular)
	assert.ErrorIs(t, err, lithos.ErrNotADirectory)
}

func TestLookup(t *testing.T) {
	fs := New()
	created, err := fs.Root().Create("dir", lithos.FileTypeDirectory)
	require.NoError(t, err)

	found, err := fs.Root().Lookup("dir")
	require.NoError(t, err)
	assert.Same(t, created, found, "lookup must return the same shared node")

	_, err = fs.Root().Lookup("missing")
	assert.ErrorIs(t, err, lithos.ErrNotFound)
}

func TestAttach(t *testing.T) {
	fs := New()
	other := New()

	require.NoError(t, fs.Root().Attach("mnt", other.Root()))
	assert.ErrorIs(t, fs.Root().Attach("mnt", other.Root()), lithos.ErrAlreadyExists)

	found, err := fs.Root().Lookup("mnt")
	require.NoError(t, err)
	assert.Same(t, other.Root(), found)
}

func TestInodeNumbersAreUnique(t *testing.T) {
	resetInodeCounter()
	fs := New()

	seen := map[uint64]bool{0: true} // the root
	for _, name := range []string{"a", "b", "c", "d"} {
		node, err := fs.Root().Create(name, lithos.FileTypeRegular)
		require.NoError(t, err)

		number := node.(*File).inode.Number
		assert.False(t, seen[number], "inode %d issued twice", number)
		seen[number] = true
	}
}
