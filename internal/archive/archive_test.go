package archive

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAged(t *testing.T, dir, name, content string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	when := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, when, when))
	return path
}

func decompress(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	require.NoError(t, err)
	defer dec.Close()

	data, err := io.ReadAll(dec)
	require.NoError(t, err)
	return string(data)
}

func TestCompact(t *testing.T) {
	dir := t.TempDir()

	old := writeAged(t, dir, "a_20230101T000000.txt", "historical content", 48*time.Hour)
	writeAged(t, dir, "b_20260101T000000.txt", "recent content", time.Hour)
	writeAged(t, dir, "c_20230101T000000.txt.zst", "already compressed", 48*time.Hour)

	count, err := Compact(Options{Dir: dir, OlderThan: 24 * time.Hour})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Original gone, archive recoverable byte-for-byte.
	assert.NoFileExists(t, old)
	assert.Equal(t, "historical content", decompress(t, old+".zst"))

	// Recent and already-compressed artifacts untouched.
	assert.FileExists(t, filepath.Join(dir, "b_20260101T000000.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "b_20260101T000000.txt.zst"))
	data, err := os.ReadFile(filepath.Join(dir, "c_20230101T000000.txt.zst"))
	require.NoError(t, err)
	assert.Equal(t, "already compressed", string(data))
}

func TestCompactEmptyDir(t *testing.T) {
	count, err := Compact(Options{Dir: t.TempDir(), OlderThan: time.Hour})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCompactMissingDir(t *testing.T) {
	_, err := Compact(Options{Dir: filepath.Join(t.TempDir(), "missing"), OlderThan: time.Hour})
	require.Error(t, err)
}
