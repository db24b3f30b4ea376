package upload

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-lens-server/modules/common/logger"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "uploads"), time.Hour, logger.Discard())
	require.NoError(t, err)
	return s
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := newTestStore(t)

	stored, err := s.Save("Portrait.PNG", "image/png", strings.NewReader(string(pngHeader)))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{13}-\d{9}\.png$`), stored.Filename)
	assert.Equal(t, int64(len(pngHeader)), stored.Size)
	assert.FileExists(t, stored.Path)

	ref, err := s.Load(stored.Filename)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, ref.Data)
	assert.Equal(t, "image/png", ref.MIMEType)
	assert.Equal(t, stored.Filename, ref.Name)
}

func TestStore_SaveUniqueNames(t *testing.T) {
	s := newTestStore(t)
	fixed := time.UnixMilli(1_700_000_000_000)
	s.now = func() time.Time { return fixed }

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		stored, err := s.Save("a.jpg", "image/jpeg", strings.NewReader("x"))
		require.NoError(t, err)
		assert.False(t, seen[stored.Filename], "duplicate %s", stored.Filename)
		seen[stored.Filename] = true
	}
}

func TestStore_SaveUnknownExtension(t *testing.T) {
	s := newTestStore(t)

	stored, err := s.Save("no-extension", "application/octet-stream", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stored.Filename, ".jpg"))

	stored, err = s.Save("camera-roll", "image/webp", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stored.Filename, ".webp"))
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".png", ExtensionFor("image/png"))
	assert.Equal(t, ".webp", ExtensionFor("IMAGE/WEBP"))
	assert.Equal(t, ".gif", ExtensionFor("image/gif"))
	assert.Equal(t, ".jpg", ExtensionFor("image/jpeg"))
	assert.Equal(t, ".jpg", ExtensionFor("application/octet-stream"))
}

func TestStore_Load(t *testing.T) {
	s := newTestStore(t)

	t.Run("missing file", func(t *testing.T) {
		_, err := s.Load("1700000000000-123456789.png")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rejects traversal", func(t *testing.T) {
		for _, name := range []string{"", "../secret.png", "a/b.png", `a\b.png`, ".hidden", ".."} {
			_, err := s.Load(name)
			assert.ErrorIs(t, err, ErrInvalidName, name)
		}
	})

	t.Run("non image content defaults to jpeg", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "blob.bin"), []byte("plain text"), 0o644))
		ref, err := s.Load("blob.bin")
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", ref.MIMEType)
	})
}

func TestStore_Sweep(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	fresh, err := s.Save("fresh.png", "image/png", strings.NewReader("fresh"))
	require.NoError(t, err)
	old, err := s.Save("old.png", "image/png", strings.NewReader("old"))
	require.NoError(t, err)
	stale := now.Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old.Path, stale, stale))

	removed, err := s.Sweep(now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.FileExists(t, fresh.Path)
	assert.NoFileExists(t, old.Path)

	removed, err = s.Sweep(now)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
