package buildstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_GetMissing_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Get(context.Background(), "guide/intro")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_PutGet_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	in := Record{
		Docname:    "guide/intro",
		SourceHash: "abc123",
		BuiltAt:    time.Now().Truncate(time.Second),
		BuildID:    "build-1",
	}
	require.NoError(t, s.Put(ctx, in))

	out, ok, err := s.Get(ctx, "guide/intro")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, in.Docname, out.Docname)
	require.Equal(t, in.SourceHash, out.SourceHash)
	require.Equal(t, in.BuildID, out.BuildID)
	require.True(t, in.BuiltAt.Equal(out.BuiltAt))
}

func TestStore_Put_UpsertsExisting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := Record{Docname: "index", SourceHash: "v1", BuiltAt: time.Now(), BuildID: "b1"}
	require.NoError(t, s.Put(ctx, rec))
	rec.SourceHash = "v2"
	rec.BuildID = "b2"
	require.NoError(t, s.Put(ctx, rec))

	out, ok, err := s.Get(ctx, "index")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", out.SourceHash)
	require.Equal(t, "b2", out.BuildID)
}

func TestStore_Delete_RemovesRecord(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, Record{Docname: "index", SourceHash: "v1", BuiltAt: time.Now(), BuildID: "b1"}))
	require.NoError(t, s.Delete(ctx, "index"))

	_, ok, err := s.Get(ctx, "index")
	require.NoError(t, err)
	require.False(t, ok)
}
