package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/minio"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("payload")
	require.NoError(t, store.Put(ctx, "transfers/a", data, "application/octet-stream"))
	data[0] = 'X'

	got, err := store.Get(ctx, "transfers/a")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got), "store must keep its own copy")
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, []string{"transfers/a"}, store.Keys())

	url, err := store.GenerateDownloadURL(ctx, "transfers/a")
	require.NoError(t, err)
	assert.Equal(t, "memory://transfers/a", url)

	require.NoError(t, store.Delete(ctx, "transfers/a"))
	_, err = store.Get(ctx, "transfers/a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{})
	assert.EqualError(t, err, "S3_BUCKET is required")
}

func TestS3Store_MinIO_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := minio.Run(ctx,
		"minio/minio:RELEASE.2024-10-29T16-01-48Z",
		minio.WithUsername("minioadmin"),
		minio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, container.Terminate(ctx))
	}()

	endpoint, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	t.Setenv("AWS_ACCESS_KEY_ID", "minioadmin")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "minioadmin")

	store, err := NewS3Store(ctx, S3Config{
		Bucket:       "rfcontrol-test",
		Endpoint:     endpoint,
		CreateBucket: true,
	})
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "transfers/1.bin", []byte("samples"), "application/octet-stream"))

	got, err := store.Get(ctx, "transfers/1.bin")
	require.NoError(t, err)
	assert.Equal(t, "samples", string(got))

	url, err := store.GenerateDownloadURL(ctx, "transfers/1.bin")
	require.NoError(t, err)
	assert.Contains(t, url, "rfcontrol-test/transfers/1.bin")

	require.NoError(t, store.Delete(ctx, "transfers/1.bin"))
	_, err = store.Get(ctx, "transfers/1.bin")
	assert.ErrorIs(t, err, ErrNotFound)
}
