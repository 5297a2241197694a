package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageContentType(t *testing.T) {
	ct, err := imageContentType("Image/PNG; charset=binary")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	ct, err = imageContentType("image/jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)

	_, err = imageContentType("application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "http://cdn.local/photos/rooms/r1/a.png", PublicURL("http://cdn.local/", "photos", "/rooms/r1/a.png"))
	assert.Equal(t, "localhost:9000", hostOf("http://localhost:9000"))
	assert.Equal(t, "minio:9000", hostOf("minio:9000"))
}

func TestNewPhotoStoreRequiresBucket(t *testing.T) {
	_, err := NewPhotoStore(Options{Endpoint: "http://localhost:9000"}, nil)
	assert.Error(t, err)
	_, err = NewPhotoStore(Options{Bucket: "photos"}, nil)
	assert.Error(t, err)
}

func TestUploadRejectsBeforeNetwork(t *testing.T) {
	store, err := NewPhotoStore(Options{Endpoint: "http://localhost:9000", Bucket: "photos"}, nil)
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), "rooms/r1/a.png", nil, "image/png")
	assert.ErrorIs(t, err, ErrPhotoReaderRequired)
	_, err = store.Upload(context.Background(), " / ", strings.NewReader("x"), "image/png")
	assert.ErrorIs(t, err, ErrObjectKeyRequired)
	_, err = store.Upload(context.Background(), "rooms/r1/a.gif", strings.NewReader("x"), "image/gif")
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = Disabled{}.Upload(context.Background(), "k", strings.NewReader("x"), "image/png")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
