package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// exerciseStore runs the shared contract checks against one backend.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	ctx := context.Background()

	_, err := s.Get(ctx, "/alarms/a/name")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "/alarms/a/name", "Tea"))
	require.NoError(t, s.SetMany(ctx, map[string]string{
		"/alarms/a/time":        "300",
		"/alarms/a/alert/sound": "bell.wav",
		"/alarms/ab/name":       "Sibling",
		"/positions/a":          "0",
	}))

	value, err := s.Get(ctx, "/alarms/a/name")
	require.NoError(t, err)
	require.Equal(t, "Tea", value)

	sub, err := s.Enumerate(ctx, "/alarms/a")
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"/alarms/a/name":        "Tea",
		"/alarms/a/time":        "300",
		"/alarms/a/alert/sound": "bell.wav",
	}, sub)

	// Resetting a subtree leaves siblings sharing the name prefix alone.
	require.NoError(t, s.ResetSubtree(ctx, "/alarms/a"))

	all, err := s.Enumerate(ctx, "/")
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"/alarms/ab/name": "Sibling",
		"/positions/a":    "0",
	}, all)

	require.Error(t, s.Set(ctx, "relative/key", "x"))
}

// TestMemoryStore verifies the contract on the in-memory backend.
func TestMemoryStore(t *testing.T) {
	t.Parallel()

	exerciseStore(t, NewMemoryStore())
}

// TestFileStore verifies the contract on the YAML backend and that data survives reopening.
func TestFileStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "alarms.yaml")

	exerciseStore(t, NewFileStore(path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	reopened := NewFileStore(path)

	value, err := reopened.Get(context.Background(), "/alarms/ab/name")
	require.NoError(t, err)
	require.Equal(t, "Sibling", value)
}

// TestFileStore_Corrupt verifies undecodable files are reported instead of being overwritten.
func TestFileStore_Corrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "alarms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a\n- mapping\n"), 0o600))

	_, err := NewFileStore(path).Enumerate(context.Background(), "/")
	require.Error(t, err)
}

// TestFileStore_NullDocument verifies that a file holding an empty YAML document is an empty store.
func TestFileStore_NullDocument(t *testing.T) {
	t.Parallel()

	for _, contents := range []string{"null\n", "~\n", "", "# nothing yet\n"} {
		path := filepath.Join(t.TempDir(), "alarms.yaml")
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

		s := NewFileStore(path)
		ctx := context.Background()

		values, err := s.Enumerate(ctx, "/")
		require.NoError(t, err)
		require.Empty(t, values)

		require.NoError(t, s.SetMany(ctx, map[string]string{"/alarms/a/name": "Tea"}))

		value, err := NewFileStore(path).Get(ctx, "/alarms/a/name")
		require.NoError(t, err)
		require.Equal(t, "Tea", value)
	}
}

// TestFileStore_FailedWrite verifies that a failed rewrite leaves the cached values untouched.
func TestFileStore_FailedWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.Mkdir(dir, 0o700))

	s := NewFileStore(filepath.Join(dir, "alarms.yaml"))
	require.NoError(t, s.SetMany(ctx, map[string]string{
		"/alarms/a/name": "Tea",
		"/alarms/b/name": "Wake",
	}))

	require.NoError(t, os.RemoveAll(dir))

	require.Error(t, s.Set(ctx, "/alarms/c/name", "Stretch"))
	require.Error(t, s.ResetSubtree(ctx, "/alarms/a"))

	_, err := s.Get(ctx, "/alarms/c/name")
	require.ErrorIs(t, err, ErrNotFound)

	value, err := s.Get(ctx, "/alarms/a/name")
	require.NoError(t, err)
	require.Equal(t, "Tea", value)
}

// TestRedisStore verifies the contract against a real server when ALARM_MANAGER_TEST_REDIS_ADDR is set.
func TestRedisStore(t *testing.T) {
	t.Parallel()

	addr := os.Getenv("ALARM_MANAGER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ALARM_MANAGER_TEST_REDIS_ADDR is not set")
	}

	s := NewRedisStore(RedisOptions{Address: addr, Key: "alarm-manager-test-" + t.Name()})

	t.Cleanup(func() {
		_ = s.ResetSubtree(context.Background(), "/")
		_ = s.Close()
	})

	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.ResetSubtree(context.Background(), "/"))

	exerciseStore(t, s)
}

// TestPathHelpers covers Join and InSubtree.
func TestPathHelpers(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/alarms/x/alert/sound", Join("alarms", "x", "/alert/", "sound"))
	require.Equal(t, "/", Join())
	require.True(t, InSubtree("/alarms/x", "/alarms/x"))
	require.True(t, InSubtree("/alarms/x/name", "/alarms/x/"))
	require.False(t, InSubtree("/alarms/xy", "/alarms/x"))
	require.True(t, InSubtree("/anything", "/"))
}
