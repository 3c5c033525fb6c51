package photo_test

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollenpaw/pollenpaw/internal/photo"
)

func TestIsAllowedType(t *testing.T) {
	for _, ct := range []string{"image/jpeg", "image/jpg", "image/png", "image/webp", "IMAGE/PNG"} {
		assert.True(t, photo.IsAllowedType(ct), ct)
	}
	for _, ct := range []string{"image/gif", "application/pdf", ""} {
		assert.False(t, photo.IsAllowedType(ct), ct)
	}
}

func newService(t *testing.T) *photo.Service {
	t.Helper()

	client, err := photo.NewMinioClient(photo.StorageConfig{
		Endpoint:  "https://storage.example.com",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	return photo.NewService(photo.ServiceConfig{
		Presigner:     client,
		Bucket:        "pet-photos",
		PublicBaseURL: "https://cdn.example.com/",
		Clock:         clockwork.NewFakeClockAt(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)),
		Logger:        zerolog.Nop(),
	})
}

func TestService_PresignUpload(t *testing.T) {
	service := newService(t)

	upload, err := service.PresignUpload(context.Background(), "user123", "rash.PNG", "image/png", "pet_1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(upload.Key, "users/user123/pets/pet_1/"), upload.Key)
	assert.True(t, strings.HasSuffix(upload.Key, ".png"), upload.Key)
	assert.Equal(t, "https://cdn.example.com/"+upload.Key, upload.PhotoURL)
	assert.Equal(t, time.Date(2026, 4, 1, 12, 5, 0, 0, time.UTC), upload.ExpiresAt)

	u, err := url.Parse(upload.UploadURL)
	require.NoError(t, err)
	assert.Equal(t, "storage.example.com", u.Host)
	assert.Equal(t, "/pet-photos/"+upload.Key, u.Path)
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
}

func TestService_PresignUpload_GeneralPrefix(t *testing.T) {
	upload, err := newService(t).PresignUpload(context.Background(), "user123", "photo", "image/jpeg", "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(upload.Key, "users/user123/general/"), upload.Key)
	assert.True(t, strings.HasSuffix(upload.Key, ".jpg"), upload.Key)
}

func TestService_PresignUpload_Rejects(t *testing.T) {
	service := newService(t)

	_, err := service.PresignUpload(context.Background(), "user123", "doc.pdf", "application/pdf", "")
	assert.ErrorIs(t, err, photo.ErrUnsupportedType)

	_, err = service.PresignUpload(context.Background(), "user123", " ", "image/png", "")
	assert.ErrorIs(t, err, photo.ErrMissingFileName)
}
