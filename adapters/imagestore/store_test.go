package imagestore

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/lingua/domain/repositories"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestStore_SaveAndFetch(t *testing.T) {
	dir := t.TempDir()
	store, err := New(Config{BaseURL: dir}, zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx := context.Background()

	data := pngBytes(t)
	link, err := store.Save(ctx, "2026/10/19/abc.png", &repositories.Image{Data: data, MIMEType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "file://"+filepath.Join(dir, "2026/10/19/abc.png"), link)

	onDisk, err := os.ReadFile(filepath.Join(dir, "2026", "10", "19", "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	fetched, err := store.Fetch(ctx, link)
	require.NoError(t, err)
	assert.Equal(t, "image/png", fetched.MIMEType)
	assert.Equal(t, data, fetched.Data)
}

func TestStore_PublicURL(t *testing.T) {
	dir := t.TempDir()
	store, err := New(Config{BaseURL: "file://" + dir, PublicURL: "https://cdn.example.com/images/"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx := context.Background()

	link, err := store.Save(ctx, "x.png", &repositories.Image{Data: pngBytes(t)})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/images/x.png", link)

	// Public links resolve back to the backing store.
	fetched, err := store.Fetch(ctx, link)
	require.NoError(t, err)
	assert.Equal(t, "image/png", fetched.MIMEType)
}

func TestStore_Rejects(t *testing.T) {
	dir := t.TempDir()
	store, err := New(Config{BaseURL: dir}, zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Save(ctx, "a.png", &repositories.Image{})
	assert.Error(t, err)
	_, err = store.Save(ctx, "../escape.png", &repositories.Image{Data: pngBytes(t)})
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte("not an image"), 0o644))
	_, err = store.Fetch(ctx, "file://"+filepath.Join(dir, "note.txt"))
	assert.Error(t, err)

	_, err = New(Config{}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".jpg", ExtensionFor("image/jpeg"))
	assert.Equal(t, ".png", ExtensionFor("image/png"))
	assert.Equal(t, ".png", ExtensionFor(""))
}
