package uploads

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wholesale-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/wholesale-backend/pkg/errors"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01}
	webpHeader = []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")
)

func newTestService(t *testing.T, maxMB int) (*service, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	require.NoError(t, err)
	svc, err := NewService(config.UploadsConfig{Dir: dir, PublicURL: "/uploads/", MaxMB: maxMB}, store, nil)
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	return impl, dir
}

func TestUploadStoresAcceptedImages(t *testing.T) {
	cases := map[string]struct {
		body []byte
		ext  string
	}{
		"png":  {body: pngHeader, ext: "png"},
		"jpeg": {body: jpegHeader, ext: "jpg"},
		"webp": {body: webpHeader, ext: "webp"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc, dir := newTestService(t, 5)

			res, err := svc.Upload(context.Background(), bytes.NewReader(tc.body))
			require.NoError(t, err)
			assert.True(t, res.Success)
			assert.Regexp(t, regexp.MustCompile(`^1700000000000-[a-z0-9]{6}\.`+tc.ext+`$`), res.Filename)
			assert.Equal(t, "/uploads/"+res.Filename, res.ImageURL)

			stored, err := os.ReadFile(filepath.Join(dir, res.Filename))
			require.NoError(t, err)
			assert.Equal(t, tc.body, stored)
		})
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc, dir := newTestService(t, 5)

	_, err := svc.Upload(context.Background(), bytes.NewReader([]byte("GIF89a\x01\x00\x01\x00")))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadRejectsEmptyBody(t *testing.T) {
	svc, _ := newTestService(t, 5)

	_, err := svc.Upload(context.Background(), bytes.NewReader(nil))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	svc, _ := newTestService(t, 1)
	body := append(append([]byte{}, pngHeader...), make([]byte, 1<<20)...)

	_, err := svc.Upload(context.Background(), bytes.NewReader(body))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, int64(1<<20), svc.MaxBytes())
}

func TestDiskStoreRejectsPathTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Put(context.Background(), "../escape.png", pngHeader))
	assert.Error(t, store.Put(context.Background(), "", pngHeader))
}
