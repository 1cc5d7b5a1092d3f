package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ResumeStore {
	t.Helper()
	s, err := NewResumeStore(filepath.Join(t.TempDir(), "resume.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestResumeStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("/media/a.mp4", 90*time.Second))
	require.NoError(t, s.Save("/media/b.mp3", 1500*time.Millisecond))

	positions, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, map[string]time.Duration{
		"/media/a.mp4": 90 * time.Second,
		"/media/b.mp3": 1500 * time.Millisecond,
	}, positions)
}

func TestResumeStoreUpsert(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("/media/a.mp4", 10*time.Second))
	require.NoError(t, s.Save("/media/a.mp4", 25*time.Second))

	positions, err := s.Load()
	require.NoError(t, err)
	require.Len(t, positions, 1)
	require.Equal(t, 25*time.Second, positions["/media/a.mp4"])
}

func TestResumeStoreDelete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("/media/a.mp4", 10*time.Second))
	require.NoError(t, s.Delete("/media/a.mp4"))
	require.NoError(t, s.Delete("/media/never-saved.mp4"))

	positions, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, positions)
}

func TestResumeStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.db")

	s, err := NewResumeStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save("/media/a.mp4", time.Minute))
	require.NoError(t, s.Close())

	s2, err := NewResumeStore(path)
	require.NoError(t, err)
	defer s2.Close()

	positions, err := s2.Load()
	require.NoError(t, err)
	require.Equal(t, time.Minute, positions["/media/a.mp4"])
}
