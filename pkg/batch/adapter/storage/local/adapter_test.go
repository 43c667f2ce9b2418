package local_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	storageConfig "github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/storage/config"
	"github.com/tigerroll/surfin-backuprestore/pkg/batch/adapter/storage/local"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalAdapter_UploadDownload(t *testing.T) {
	ctx := context.Background()
	base := filepath.Join(t.TempDir(), "archives")
	conn, err := local.NewLocalAdapter(storageConfig.StorageConfig{Type: "local", BaseDir: base, BucketName: "nightly"}, "archive")
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, local.ProviderType, conn.Type())
	assert.Equal(t, "archive", conn.Name())

	require.NoError(t, conn.Upload(ctx, "", "2026/backup.ndjson", strings.NewReader("{}\n"), "application/x-ndjson"))
	_, err = os.Stat(filepath.Join(base, "nightly", "2026", "backup.ndjson"))
	require.NoError(t, err)

	rc, err := conn.Download(ctx, "", "2026/backup.ndjson")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(data))

	var names []string
	require.NoError(t, conn.ListObjects(ctx, "", "2026/", func(name string) error {
		names = append(names, name)
		return nil
	}))
	assert.Equal(t, []string{"2026/backup.ndjson"}, names)

	require.NoError(t, conn.DeleteObject(ctx, "", "2026/backup.ndjson"))
	require.NoError(t, conn.DeleteObject(ctx, "", "2026/backup.ndjson"))
	_, err = conn.Download(ctx, "", "2026/backup.ndjson")
	assert.Error(t, err)
}

func TestLocalAdapter_RejectsEscapingPaths(t *testing.T) {
	ctx := context.Background()
	conn, err := local.NewLocalAdapter(storageConfig.StorageConfig{BaseDir: t.TempDir()}, "archive")
	require.NoError(t, err)

	err = conn.Upload(ctx, "", "../outside.ndjson", strings.NewReader(""), "application/x-ndjson")
	assert.ErrorContains(t, err, "outside of BaseDir")
}

func TestNewLocalAdapter_InvalidConfig(t *testing.T) {
	_, err := local.NewLocalAdapter(storageConfig.StorageConfig{}, "archive")
	assert.Error(t, err)

	_, err = local.NewLocalAdapter(storageConfig.StorageConfig{Type: "gcs", BaseDir: t.TempDir()}, "archive")
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = local.NewLocalAdapter(storageConfig.StorageConfig{BaseDir: file}, "archive")
	assert.Error(t, err)
}

func TestLocalAdapter_ListMissingBucket(t *testing.T) {
	conn, err := local.NewLocalAdapter(storageConfig.StorageConfig{BaseDir: t.TempDir()}, "archive")
	require.NoError(t, err)
	called := false
	require.NoError(t, conn.ListObjects(context.Background(), "none", "", func(string) error {
		called = true
		return nil
	}))
	assert.False(t, called)
}
