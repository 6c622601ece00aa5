package filex

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	t.Chdir(tmp)

	got, err := EnsureDir("UserData")
	require.NoError(t, err)

	// macOS temp dirs sit behind a /private symlink
	wantReal, _ := filepath.EvalSymlinks(filepath.Join(tmp, "UserData"))
	gotReal, _ := filepath.EvalSymlinks(got)
	require.Equal(t, wantReal, gotReal)

	fi, err := os.Stat(got)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureDir_AbsoluteAndIdempotent(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b")

	first, err := EnsureDir(target)
	require.NoError(t, err)
	require.Equal(t, target, first)

	second, err := EnsureDir(target)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "UserData")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o660))

	_, err := EnsureDir(path)
	require.Error(t, err)
}

func TestWithin(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		key     string
		wantErr bool
	}{
		{key: "alice/alice.png"},
		{key: "bob.gif"},
		{key: "", wantErr: true},
		{key: "../etc/passwd", wantErr: true},
		{key: "alice/../../x", wantErr: true},
		{key: "/abs/path", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := Within(root, tt.key)
			if tt.wantErr {
				require.True(t, errors.Is(err, ErrOutsideRoot), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, filepath.Join(root, filepath.FromSlash(tt.key)), got)
		})
	}
}

func TestWriteAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alice", "alice.png")

	n, err := WriteAtomic(path, strings.NewReader("first"), 0o640)
	require.NoError(t, err)
	require.EqualValues(t, 5, n)

	_, err = WriteAtomic(path, strings.NewReader("second"), 0o640)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "second", string(b))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestWriteAtomic_ReaderError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.png")

	_, err := WriteAtomic(path, failingReader{}, 0o640)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
