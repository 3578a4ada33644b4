package services

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/jwh1000/Manga2EPUB/pkg/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPNG(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: shade, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func createTestJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2)), nil))
	return buf.Bytes()
}

func dataURI(mediaType string, raw []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(raw)
}

func TestPageStoreSave(t *testing.T) {
	base := t.TempDir()
	store := NewPageStore(base, nil, nil)
	pngData := createTestPNG(t, 10)

	// Caller supplied extension is ignored in favour of the sniffed one.
	page, err := store.Save(data.PagePayload{
		Manga:     "Gachiakuta",
		Chapter:   "chapter-1",
		Filename:  "Page_000.jpeg",
		ImageData: dataURI("image/jpeg", pngData),
	})
	require.NoError(t, err)

	want := filepath.Join(base, "Gachiakuta", "chapter-1", "Page_000.png")
	assert.Equal(t, want, page.Path)
	assert.Equal(t, "Page_000.png", page.Filename)
	assert.Equal(t, "png", page.Format)
	assert.True(t, page.Sniffed)
	assert.Equal(t, len(pngData), page.Size)

	written, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, pngData, written)
}

func TestPageStoreSaveJPEG(t *testing.T) {
	base := t.TempDir()
	store := NewPageStore(base, nil, nil)

	page, err := store.Save(data.PagePayload{
		Manga:     "M",
		Chapter:   "C",
		Filename:  "Page_001",
		ImageData: base64.StdEncoding.EncodeToString(createTestJPEG(t)),
	})
	require.NoError(t, err)
	assert.Equal(t, "Page_001.jpg", page.Filename)
}

func TestPageStoreSaveDefaults(t *testing.T) {
	base := t.TempDir()
	store := NewPageStore(base, nil, nil)

	page, err := store.Save(data.PagePayload{ImageData: base64.StdEncoding.EncodeToString([]byte("not an image"))})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, DefaultManga, DefaultChapter, DefaultFilename+".jpg"), page.Path)
	assert.False(t, page.Sniffed)
}

func TestPageStoreOverwrite(t *testing.T) {
	base := t.TempDir()
	store := NewPageStore(base, nil, nil)

	first := createTestPNG(t, 10)
	second := createTestPNG(t, 200)
	require.NotEqual(t, first, second)

	payload := data.PagePayload{Manga: "M", Chapter: "C", Filename: "Page_000"}
	payload.ImageData = dataURI("image/png", first)
	_, err := store.Save(payload)
	require.NoError(t, err)

	payload.ImageData = dataURI("image/png", second)
	page, err := store.Save(payload)
	require.NoError(t, err)

	written, err := os.ReadFile(page.Path)
	require.NoError(t, err)
	assert.Equal(t, second, written)

	entries, err := os.ReadDir(filepath.Dir(page.Path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPageStoreMalformedPayload(t *testing.T) {
	base := t.TempDir()
	store := NewPageStore(base, nil, nil)

	_, err := store.Save(data.PagePayload{Manga: "M", Chapter: "C", ImageData: "data:image/png;base64,@@@not base64@@@"})
	assert.Error(t, err)

	_, statErr := os.Stat(filepath.Join(base, "M"))
	assert.True(t, os.IsNotExist(statErr), "nothing should be written when decoding fails")
}

func TestPageStoreUnsafePath(t *testing.T) {
	store := NewPageStore(t.TempDir(), nil, nil)
	encoded := base64.StdEncoding.EncodeToString(createTestPNG(t, 1))

	tests := []data.PagePayload{
		{Manga: "..", Chapter: "..", ImageData: encoded},
		{Manga: "M", Chapter: "../../escape", ImageData: encoded},
		{Manga: "M", Chapter: "..", ImageData: encoded},
	}
	for _, payload := range tests {
		_, err := store.Save(payload)
		assert.True(t, errors.Is(err, ErrUnsafePath), "%+v", payload)
	}
}

func TestDecodePayload(t *testing.T) {
	raw := []byte("hello pages")
	std := base64.StdEncoding.EncodeToString(raw)
	unpadded := base64.RawStdEncoding.EncodeToString(raw)

	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{"plain", std, raw, false},
		{"data uri", "data:image/png;base64," + std, raw, false},
		{"odd header", "garbage-header," + std, raw, false},
		{"unpadded", unpadded, raw, false},
		{"empty", "", nil, true},
		{"header only", "data:image/png;base64,", nil, true},
		{"malformed", "!!!", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePayload(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBaseFilename(t *testing.T) {
	assert.Equal(t, "Page_000", baseFilename("Page_000"))
	assert.Equal(t, "Page_000", baseFilename("Page_000.webp"))
	assert.Equal(t, "scan", baseFilename("sub/dir/scan.png"))
	assert.Equal(t, DefaultFilename, baseFilename(""))
	assert.Equal(t, DefaultFilename, baseFilename(".."))
}
