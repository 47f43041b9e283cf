package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/serdegen/internal/backend"
	"github.com/roach88/serdegen/internal/codegen"
	"github.com/roach88/serdegen/internal/format"
	"github.com/roach88/serdegen/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func pointArtifact(t *testing.T, target codegen.Target) backend.Artifact {
	t.Helper()
	art, err := backend.Run(testutil.PointRegistry(), codegen.Config{Target: target, ModuleName: "point"}, backend.Options{Runtime: true})
	require.NoError(t, err)
	return art
}

func TestOpen_Pragmas(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestPutGet_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	art := pointArtifact(t, codegen.Go)

	require.NoError(t, s.Put(ctx, "k1", "h1", art))
	got, ok, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, art, got)
}

func TestGet_Miss(t *testing.T) {
	_, ok, err := openTestStore(t).Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPut_DuplicateKeyIgnored(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.Put(ctx, "k", "h", pointArtifact(t, codegen.Go)))
	require.NoError(t, s.Put(ctx, "k", "h", pointArtifact(t, codegen.Rust)))

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, codegen.Go, got.Target)
}

func TestList_OrderedBySeq(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	require.NoError(t, s.Put(ctx, "zz", "h", pointArtifact(t, codegen.Go)))
	require.NoError(t, s.Put(ctx, "aa", "h", pointArtifact(t, codegen.Python3)))
	_, _, err = s.Get(ctx, "zz")
	require.NoError(t, err)

	entries, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "zz", entries[0].Key)
	assert.Equal(t, int64(1), entries[0].Seq)
	assert.Equal(t, 1, entries[0].Hits)
	assert.Equal(t, "aa", entries[1].Key)
	assert.Equal(t, "python3", entries[1].Target)
	assert.Positive(t, entries[0].StoredSize)
	assert.Less(t, entries[0].StoredSize, entries[0].RawSize, "zstd should shrink generated text")
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, s.Put(ctx, k, "h", pointArtifact(t, codegen.Go)))
	}
	n, err := s.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c", entries[0].Key)

	require.NoError(t, s.Delete(ctx, "c"))
	require.NoError(t, s.Delete(ctx, "c"))
}

func TestKey(t *testing.T) {
	cfg := codegen.Config{Target: codegen.Go, ModuleName: "point"}
	k1, err := Key(testutil.PointRegistry(), cfg, backend.Options{})
	require.NoError(t, err)
	k2, err := Key(testutil.PointRegistry(), cfg, backend.Options{})
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 64)

	// Defaults are applied before hashing.
	k3, err := Key(testutil.PointRegistry(), codegen.Config{Target: codegen.Go, ModuleName: "point", RuntimeImport: codegen.DefaultGoRuntime}, backend.Options{})
	require.NoError(t, err)
	assert.Equal(t, k1, k3)

	for name, other := range map[string]func() (string, error){
		"runtime": func() (string, error) { return Key(testutil.PointRegistry(), cfg, backend.Options{Runtime: true}) },
		"module": func() (string, error) {
			return Key(testutil.PointRegistry(), codegen.Config{Target: codegen.Go, ModuleName: "pt"}, backend.Options{})
		},
		"registry": func() (string, error) {
			reg := testutil.PointRegistry()
			reg.MustRegister("Extra", format.UnitStruct{})
			return Key(reg, cfg, backend.Options{})
		},
	} {
		k, err := other()
		require.NoError(t, err, name)
		assert.NotEqual(t, k1, k, name)
	}
}
