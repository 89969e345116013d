package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalBackend(t *testing.T) *LocalBackend {
	t.Helper()
	backend, err := NewLocalBackend(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend
}

// TestLocalBackend_BasicOperations tests the LocalBackend implementation
func TestLocalBackend_BasicOperations(t *testing.T) {
	backend := newTestLocalBackend(t)
	ctx := context.Background()

	t.Run("Write and Read", func(t *testing.T) {
		require.NoError(t, backend.Write(ctx, "snapshots/current.yaml", []byte("entities: []\n")))

		data, err := backend.Read(ctx, "snapshots/current.yaml")
		require.NoError(t, err)
		assert.Equal(t, "entities: []\n", string(data))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, backend.Write(ctx, "overwrite.sql", []byte("one")))
		require.NoError(t, backend.Write(ctx, "overwrite.sql", []byte("two")))

		data, err := backend.Read(ctx, "overwrite.sql")
		require.NoError(t, err)
		assert.Equal(t, "two", string(data))
	})

	t.Run("Read missing", func(t *testing.T) {
		_, err := backend.Read(ctx, "missing.yaml")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Exists", func(t *testing.T) {
		exists, err := backend.Exists(ctx, "exists.sql")
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, backend.Write(ctx, "exists.sql", []byte("data")))

		exists, err = backend.Exists(ctx, "exists.sql")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, backend.Write(ctx, "delete.sql", []byte("data")))
		require.NoError(t, backend.Delete(ctx, "delete.sql"))

		exists, err := backend.Exists(ctx, "delete.sql")
		require.NoError(t, err)
		assert.False(t, exists)

		// Deleting again is not an error
		assert.NoError(t, backend.Delete(ctx, "delete.sql"))
	})

	t.Run("Type", func(t *testing.T) {
		assert.Equal(t, "local", backend.Type())
	})
}

func TestLocalBackend_List(t *testing.T) {
	backend := newTestLocalBackend(t)
	ctx := context.Background()

	for _, key := range []string{
		"migrations/00002_add_rollup.sql",
		"migrations/00001_initial.sql",
		"migrations/00001_initial_2.sql",
		"snapshots/current.yaml",
	} {
		require.NoError(t, backend.Write(ctx, key, []byte("x")))
	}

	t.Run("directory prefix", func(t *testing.T) {
		keys, err := backend.List(ctx, "migrations/")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"migrations/00001_initial.sql",
			"migrations/00001_initial_2.sql",
			"migrations/00002_add_rollup.sql",
		}, keys)
	})

	t.Run("file name prefix", func(t *testing.T) {
		keys, err := backend.List(ctx, "migrations/00001")
		require.NoError(t, err)
		assert.Equal(t, []string{
			"migrations/00001_initial.sql",
			"migrations/00001_initial_2.sql",
		}, keys)
	})

	t.Run("missing prefix", func(t *testing.T) {
		keys, err := backend.List(ctx, "nothing/")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("skips temp files", func(t *testing.T) {
		tmp := filepath.Join(backend.BasePath(), "migrations", ".tsmigrate-123.tmp")
		require.NoError(t, os.WriteFile(tmp, []byte("partial"), 0o644))

		keys, err := backend.List(ctx, "migrations/")
		require.NoError(t, err)
		assert.Len(t, keys, 3)
	})
}

func TestLocalBackend_PathTraversal(t *testing.T) {
	backend := newTestLocalBackend(t)
	ctx := context.Background()

	for _, key := range []string{"../escape.sql", "migrations/../../escape.sql", ".."} {
		t.Run(key, func(t *testing.T) {
			assert.Error(t, backend.Write(ctx, key, []byte("x")))
			_, err := backend.Read(ctx, key)
			assert.Error(t, err)
		})
	}

	// Leading slashes are relative to the store root
	require.NoError(t, backend.Write(ctx, "/rooted.sql", []byte("x")))
	exists, err := backend.Exists(ctx, "rooted.sql")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalBackend_WriteLeavesNoTempFiles(t *testing.T) {
	backend := newTestLocalBackend(t)
	require.NoError(t, backend.Write(context.Background(), "a/b.sql", []byte("x")))

	entries, err := os.ReadDir(filepath.Join(backend.BasePath(), "a"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b.sql", entries[0].Name())

	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	backend, err := New(ctx, &Config{Backend: "local", LocalPath: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "local", backend.Type())

	_, err = New(ctx, &Config{Backend: "ftp"}, zerolog.Nop())
	assert.ErrorContains(t, err, "unknown storage backend")

	_, err = New(ctx, &Config{Backend: "s3"}, zerolog.Nop())
	assert.ErrorContains(t, err, "bucket name is required")

	_, err = New(ctx, &Config{Backend: "azure", Azure: AzureBlobConfig{ContainerName: "c"}}, zerolog.Nop())
	assert.ErrorContains(t, err, "no valid Azure authentication method")
}

func TestPrefixHelpers(t *testing.T) {
	assert.Equal(t, "migrations/00001_initial.sql", joinPrefix("", "/migrations/00001_initial.sql"))
	assert.Equal(t, "proj/migrations/x.sql", joinPrefix("proj", "migrations/x.sql"))
	assert.Equal(t, "migrations/x.sql", trimPrefix("proj", "proj/migrations/x.sql"))
	assert.Equal(t, "migrations/x.sql", trimPrefix("", "migrations/x.sql"))

	assert.Equal(t, "application/sql", contentType("a.sql"))
	assert.Equal(t, "application/yaml", contentType("s/current.yaml"))
	assert.Equal(t, "application/octet-stream", contentType("blob"))

	assert.Equal(t, "http://localhost:9000", normalizeEndpoint("localhost:9000", false))
	assert.Equal(t, "https://minio:9000", normalizeEndpoint("minio:9000", true))
	assert.Equal(t, "http://x", normalizeEndpoint("http://x", true))
}

func BenchmarkLocalBackend_Write(b *testing.B) {
	backend, err := NewLocalBackend(b.TempDir(), zerolog.Nop())
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()
	data := make([]byte, 4096)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := backend.Write(ctx, "bench/data.sql", data); err != nil {
			b.Fatal(err)
		}
	}
}
