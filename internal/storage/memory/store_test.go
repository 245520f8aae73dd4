package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumera/seopilot/internal/storage"
)

func TestStore_PutAndGet(t *testing.T) {
	s := New()

	uri, err := s.Put(context.Background(), "reports/summary.md", []byte("# Summary"))
	require.NoError(t, err)
	require.Equal(t, "mem://reports/summary.md", uri)

	data, err := s.Get(context.Background(), "reports/summary.md")
	require.NoError(t, err)
	require.Equal(t, "# Summary", string(data))
}

func TestStore_GetMissing(t *testing.T) {
	s := New()
	_, err := s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_CopiesData(t *testing.T) {
	s := New()
	payload := []byte("original")
	_, err := s.Put(context.Background(), "p", payload)
	require.NoError(t, err)

	// Mutating the caller's slice must not affect the stored copy.
	payload[0] = 'X'

	data, err := s.Get(context.Background(), "p")
	require.NoError(t, err)
	require.Equal(t, "original", string(data))
}
