package sha256

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasherHashKnownDigest(t *testing.T) {
	t.Parallel()

	h := New()
	got, err := h.Hash([]byte(`{"total":0,"statuses":[],"projects":[]}`))
	require.NoError(t, err)
	require.Len(t, got, 64)

	again, err := h.Hash([]byte(`{"total":0,"statuses":[],"projects":[]}`))
	require.NoError(t, err)
	require.Equal(t, got, again)

	empty, err := h.Hash(nil)
	require.NoError(t, err)
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", empty)
}

func TestHasherDistinguishesBodies(t *testing.T) {
	t.Parallel()

	h := New()
	a, err := h.Hash([]byte("snapshot-a"))
	require.NoError(t, err)
	b, err := h.Hash([]byte("snapshot-b"))
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}
