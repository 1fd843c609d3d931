package fs

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	fsys := afero.NewMemMapFs()

	err := WriteFileAtomic(fsys, "var/state.json", []byte("first"))
	require.NoError(t, err)

	data, err := afero.ReadFile(fsys, "var/state.json")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestWriteFileAtomic_Overwrites(t *testing.T) {
	fsys := afero.NewMemMapFs()

	require.NoError(t, WriteFileAtomic(fsys, "state.json", []byte("first")))
	require.NoError(t, WriteFileAtomic(fsys, "state.json", []byte("second")))

	data, err := afero.ReadFile(fsys, "state.json")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	fsys := afero.NewMemMapFs()

	require.NoError(t, WriteFileAtomic(fsys, "dir/state.json", []byte("data")))

	infos, err := afero.ReadDir(fsys, "dir")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "state.json", infos[0].Name())
}
