package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"ООО Ромашка":      "ООО Ромашка",
		"a/b\\c":           "a_b_c",
		"..":               "_",
		"file:name?.pdf":   "file_name_.pdf",
		"  spaced.txt  ":   "spaced.txt",
		"доклад (v2).docx": "доклад _v2_.docx",
	}
	for in, want := range tests {
		assert.Equal(t, want, Sanitize(in), "input %q", in)
	}
}

func TestSaveAndRead(t *testing.T) {
	store := New(t.TempDir())

	path, err := store.Save("Юридическое лицо", "Acme", "Ivan", "run-1", "план.pdf", []byte("data"))
	require.NoError(t, err)
	assert.Contains(t, path, filepath.Join("Юридическое лицо", "Acme", "Ivan", "run-1"))

	data, err := store.Read(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
}

func TestSaveIndividualOmitsOrgSegment(t *testing.T) {
	root := t.TempDir()
	store := New(root)

	path, err := store.Save("Физическое лицо", "", "Ivan", "run-2", "a.txt", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Физическое лицо", "Ivan", "run-2", "a.txt"), path)
}

func TestReadRefusesEscapingPaths(t *testing.T) {
	root := t.TempDir()
	store := New(root)

	outside := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))

	_, err := store.Read(outside)
	assert.Error(t, err)

	_, err = store.Read(filepath.Join(root, "..", "secret.txt"))
	assert.Error(t, err)
}

func TestRemoveIsIdempotent(t *testing.T) {
	store := New(t.TempDir())

	path, err := store.Save("Физическое лицо", "", "Ivan", "run-3", "a.txt", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, store.Remove([]string{path}))
	require.NoError(t, store.Remove([]string{path}), "removing a missing file is not an error")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
