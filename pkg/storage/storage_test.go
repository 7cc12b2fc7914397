package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSaveReadDelete(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("tt-1/timetable_fy.csv", []byte("Day,1\n"))
	require.NoError(t, err)
	assert.Equal(t, "tt-1/timetable_fy.csv", rel)

	data, err := store.Read(rel)
	require.NoError(t, err)
	assert.Equal(t, "Day,1\n", string(data))

	require.NoError(t, store.Delete(rel))
	require.NoError(t, store.Delete(rel))
	_, err = store.Read(rel)
	assert.Error(t, err)
}

func TestLocalRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, p := range []string{"../secret", "/etc/passwd", "a/../../b", "."} {
		_, err := store.Save(p, []byte("x"))
		assert.ErrorIs(t, err, ErrOutsideRoot, p)
	}
}

func TestLocalPrune(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocal(root)
	require.NoError(t, err)

	_, err = store.Save("old.csv", []byte("a"))
	require.NoError(t, err)
	_, err = store.Save("new.csv", []byte("b"))
	require.NoError(t, err)
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "old.csv"), past, past))

	removed, err := store.Prune(time.Hour, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"old.csv"}, removed)

	_, err = store.Read("new.csv")
	assert.NoError(t, err)
}

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSigner("secret", time.Hour)
	token, expiresAt, err := signer.Sign("tt-1", "tt-1/timetable_fy.pdf")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 2*time.Second)

	owner, path, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "tt-1", owner)
	assert.Equal(t, "tt-1/timetable_fy.pdf", path)
}

func TestSignerRejectsTamperingAndExpiry(t *testing.T) {
	signer := NewSigner("secret", time.Minute)
	token, _, err := signer.Sign("tt-1", "tt-1/a.csv")
	require.NoError(t, err)

	_, _, err = NewSigner("other", time.Minute).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = signer.Verify("tt-2" + token[len("tt-1"):])
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = signer.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, _, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, _, err = signer.Sign("bad.owner", "a.csv")
	assert.Error(t, err)
}
